package runtime

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"farmbot/internal/app/motion"
	"farmbot/internal/app/ports"
	"farmbot/internal/domain/farm"
	"farmbot/internal/domain/grid"
	"farmbot/internal/domain/ledger"
	"farmbot/internal/domain/world"
)

type Config struct {
	Geometry    grid.Geometry
	Ledger      ledger.Config
	Clock       world.Clock
	Environment farm.Environment
	Motion      motion.Config
	Seed        int64
	// Drift enables the random walk of the weather on every Advance.
	Drift bool
	// LightStep bounds how fast light follows the day/night target, per second.
	LightStep float64
	Sink      ports.EventSink
}

func DefaultConfig() Config {
	return Config{
		Geometry:    grid.DefaultGeometry(),
		Ledger:      ledger.DefaultConfig(),
		Clock:       world.DefaultClock(),
		Environment: farm.DefaultEnvironment(),
		Motion:      motion.DefaultConfig(),
		Seed:        time.Now().UnixNano(),
		Drift:       true,
		LightStep:   2,
	}
}

// Provider is the in-process farm world. Every mutation runs under a single
// tick mutex taken by RunInTx; readers outside a transaction see the last
// published snapshot.
type Provider struct {
	mu  sync.Mutex
	cfg Config

	rng         *rand.Rand
	field       *farm.Field
	ledger      *ledger.Ledger
	cart        *motion.Cart
	env         farm.Environment
	phase       world.Phase
	elapsed     float64
	tick        uint64
	version     uint64
	score       int
	currentTask string

	published atomic.Pointer[world.Snapshot]
}

func NewProvider(cfg Config) *Provider {
	def := DefaultConfig()
	if cfg.Geometry.Size <= 0 {
		cfg.Geometry = def.Geometry
	}
	if cfg.Ledger.MaxEnergy <= 0 {
		cfg.Ledger = def.Ledger
	}
	if cfg.Clock == (world.Clock{}) {
		cfg.Clock = def.Clock
	}
	if cfg.Environment == (farm.Environment{}) {
		cfg.Environment = def.Environment
	}
	if cfg.LightStep <= 0 {
		cfg.LightStep = def.LightStep
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	start := cfg.Geometry.CellToWorld(grid.Cell{})
	p := &Provider{
		cfg:    cfg,
		rng:    rng,
		field:  farm.NewField(cfg.Geometry, rng),
		ledger: ledger.New(cfg.Ledger),
		cart:   motion.NewCart(cfg.Motion, motion.Pose{X: start.X, Z: start.Z}, cfg.Sink),
		env:    cfg.Environment,
		phase:  world.PhaseDay,
	}
	p.publishLocked()
	return p
}

type txKey struct{}

func (p *Provider) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Provider)
	return owner == p
}

// RunInTx runs fn holding the tick mutex and publishes a fresh snapshot
// when fn returns. A panicking fn publishes nothing, so readers keep the
// last complete tick. Nested calls made with the ctx passed to fn do not
// re-lock.
func (p *Provider) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.inTx(ctx) {
		return fn(ctx)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	err := fn(context.WithValue(ctx, txKey{}, p))
	p.publishLocked()
	return err
}

func (p *Provider) publishLocked() {
	p.version++
	s := p.buildLocked()
	p.published.Store(&s)
}

func (p *Provider) buildLocked() world.Snapshot {
	pose := p.cart.Pose()
	res := p.ledger.State()
	return world.Snapshot{
		Version:  p.version,
		Tick:     p.tick,
		Elapsed:  p.elapsed,
		GridSize: p.cfg.Geometry.Size,
		Robot: world.Robot{
			Position:    pose.Point(),
			Rotation:    pose.Rotation,
			Energy:      res.Energy,
			Coins:       res.Coins,
			CurrentTask: p.currentTask,
		},
		Coins:       res.Coins,
		Score:       p.score,
		Phase:       p.phase,
		Environment: p.env,
		Plants:      p.field.Views(),
		Resources:   res,
	}
}

// GetSnapshot returns a copy of the world. Inside a transaction it reflects
// the live state; outside it returns the last published tick with the live
// cart pose.
func (p *Provider) GetSnapshot(ctx context.Context) (world.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return world.Snapshot{}, fmt.Errorf("%w: snapshot: %v", ports.ErrTransient, err)
	}
	if p.inTx(ctx) {
		return p.buildLocked(), nil
	}
	s := p.published.Load().Clone()
	pose := p.cart.Pose()
	s.Robot.Position = pose.Point()
	s.Robot.Rotation = pose.Rotation
	return s, nil
}

// Advance moves simulated time forward by dt seconds.
func (p *Provider) Advance(ctx context.Context, dt float64) error {
	if dt <= 0 {
		return nil
	}
	return p.RunInTx(ctx, func(ctx context.Context) error {
		before := p.field.Views()
		p.elapsed += dt
		p.tick++

		elapsed := time.Duration(p.elapsed * float64(time.Second))
		if phase, _ := p.cfg.Clock.PhaseAt(elapsed); phase != p.phase {
			log.Printf("[WORLD] phase %s -> %s at tick %d", p.phase, phase, p.tick)
			p.phase = phase
		}
		if p.cfg.Drift {
			p.env = p.env.Drift(p.rng)
		}
		step := p.cfg.LightStep * dt
		target := p.cfg.Clock.TargetLight(elapsed)
		p.env.Light += math.Max(-step, math.Min(step, target-p.env.Light))

		p.field.Tick(dt, p.env)
		p.ledger.Regenerate(dt)

		after := p.field.Views()
		for i := range after {
			if before[i].Variant != after[i].Variant || before[i].GrowthStage != after[i].GrowthStage {
				p.emit(world.EventPlantUpdated, map[string]any{
					"plant_id": after[i].ID,
					"from":     before[i].Variant,
					"variant":  after[i].Variant,
					"stage":    after[i].GrowthStage,
				})
			}
		}
		return nil
	})
}

func (p *Provider) SetCurrentTask(ctx context.Context, taskID string) error {
	return p.RunInTx(ctx, func(context.Context) error {
		p.currentTask = taskID
		return nil
	})
}

// Restore replaces the whole world with s.
func (p *Provider) Restore(ctx context.Context, s world.Snapshot) error {
	if s.GridSize != 0 && s.GridSize != p.cfg.Geometry.Size {
		return fmt.Errorf("%w: snapshot grid %d, world grid %d", ports.ErrConflict, s.GridSize, p.cfg.Geometry.Size)
	}
	return p.RunInTx(ctx, func(context.Context) error {
		if err := p.field.Restore(s.Plants); err != nil {
			return fmt.Errorf("restore field: %w", err)
		}
		if s.Resources.MaxEnergy > 0 {
			p.ledger.Restore(s.Resources)
		}
		p.score = s.Score
		p.elapsed = s.Elapsed
		p.tick = s.Tick
		if s.Environment != (farm.Environment{}) {
			p.env = s.Environment
		}
		if s.Phase != "" {
			p.phase = s.Phase
		}
		p.currentTask = ""
		p.cart.SetPose(motion.Pose{X: s.Robot.Position.X, Z: s.Robot.Position.Z, Rotation: s.Robot.Rotation})
		return nil
	})
}

func (p *Provider) Geometry() grid.Geometry {
	return p.cfg.Geometry
}

// Resources reports the ledger state, its warnings and the newest history.
func (p *Provider) Resources(ctx context.Context, historyLimit int) (ledger.State, ledger.Status, []ledger.Entry, error) {
	var (
		state   ledger.State
		status  ledger.Status
		history []ledger.Entry
	)
	err := p.RunInTx(ctx, func(context.Context) error {
		state = p.ledger.State()
		status = p.ledger.Status()
		history = p.ledger.History(historyLimit)
		return nil
	})
	return state, status, history, err
}

func (p *Provider) emit(t world.EventType, payload map[string]any) {
	if p.cfg.Sink == nil {
		return
	}
	p.cfg.Sink.Publish(world.NewEvent(t, payload))
}

// ProjectActions prices actions in order against the current ledger without
// changing it.
func (p *Provider) ProjectActions(ctx context.Context, actions []farm.ActionKind) (ledger.Projection, error) {
	var out ledger.Projection
	err := p.RunInTx(ctx, func(context.Context) error {
		out = p.ledger.Simulate(actions)
		return nil
	})
	return out, err
}
