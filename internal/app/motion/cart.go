package motion

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"farmbot/internal/app/ports"
	"farmbot/internal/domain/grid"
	"farmbot/internal/domain/world"
)

type Pose struct {
	X        float64 `json:"x"`
	Z        float64 `json:"z"`
	Rotation float64 `json:"rotation"`
}

func (p Pose) Point() grid.Point {
	return grid.Point{X: p.X, Z: p.Z}
}

type Config struct {
	StepsPerSecond int
	TurnRate       float64
	DefaultSpeed   float64
	// Frame is the wall time between steps. Zero means 1/StepsPerSecond.
	Frame time.Duration
}

func DefaultConfig() Config {
	return Config{StepsPerSecond: 30, TurnRate: 180, DefaultSpeed: 1}
}

// Cart owns the robot pose. Moves run on their own goroutine and never hold
// the world tick lock.
type Cart struct {
	mu      sync.Mutex
	cfg     Config
	pose    Pose
	current *Move
	sink    ports.EventSink
}

func NewCart(cfg Config, start Pose, sink ports.EventSink) *Cart {
	def := DefaultConfig()
	if cfg.StepsPerSecond <= 0 {
		cfg.StepsPerSecond = def.StepsPerSecond
	}
	if cfg.TurnRate <= 0 {
		cfg.TurnRate = def.TurnRate
	}
	if cfg.DefaultSpeed <= 0 {
		cfg.DefaultSpeed = def.DefaultSpeed
	}
	if cfg.Frame <= 0 {
		cfg.Frame = time.Second / time.Duration(cfg.StepsPerSecond)
	}
	return &Cart{cfg: cfg, pose: start, sink: sink}
}

func (c *Cart) Pose() Pose {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pose
}

// SetPose teleports the cart, cancelling any move in flight.
func (c *Cart) SetPose(p Pose) {
	c.mu.Lock()
	cur := c.current
	c.current = nil
	c.pose = p
	c.mu.Unlock()
	if cur != nil {
		cur.Cancel()
	}
}

// MoveTo starts a move towards target and returns immediately. A move already
// in flight is cancelled.
func (c *Cart) MoveTo(ctx context.Context, target grid.Point, speed float64, smooth bool) *Move {
	if speed <= 0 {
		speed = c.cfg.DefaultSpeed
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m := &Move{
		ID:     uuid.New().String(),
		Target: target,
		done:   make(chan struct{}),
		cancel: cancel,
	}

	c.mu.Lock()
	prev := c.current
	c.current = m
	c.mu.Unlock()
	if prev != nil {
		prev.Cancel()
		<-prev.done
	}

	go c.run(runCtx, m, speed, smooth)
	return m
}

func (c *Cart) run(ctx context.Context, m *Move, speed float64, smooth bool) {
	defer close(m.done)
	defer m.cancel()

	from := c.Pose()
	dist := grid.Euclidean(from.Point(), m.Target)
	if dist > 1e-9 {
		heading := grid.Heading(from.Point(), m.Target)
		turn := grid.NormalizeAngle(heading - from.Rotation)
		turnSteps := int(math.Ceil(math.Abs(turn) / c.cfg.TurnRate * float64(c.cfg.StepsPerSecond)))
		for i := 1; i <= turnSteps; i++ {
			rot := grid.NormalizeAngle(from.Rotation + turn*float64(i)/float64(turnSteps))
			if !c.step(ctx, m, Pose{X: from.X, Z: from.Z, Rotation: rot}) {
				return
			}
		}

		steps := max(1, int(math.Ceil(dist/speed*float64(c.cfg.StepsPerSecond))))
		for i := 1; i <= steps; i++ {
			t := float64(i) / float64(steps)
			if smooth {
				t = t * t * (3 - 2*t)
			}
			p := Pose{
				X:        from.X + (m.Target.X-from.X)*t,
				Z:        from.Z + (m.Target.Z-from.Z)*t,
				Rotation: heading,
			}
			if !c.step(ctx, m, p) {
				return
			}
		}
	}

	c.mu.Lock()
	if c.current == m {
		c.pose.X, c.pose.Z = m.Target.X, m.Target.Z
		c.current = nil
	}
	final := c.pose
	c.mu.Unlock()
	m.arrived.Store(true)
	c.publish(world.EventCartMoveCompleted, m, final)
}

// step applies p and waits one frame. It reports false when the move was
// cancelled.
func (c *Cart) step(ctx context.Context, m *Move, p Pose) bool {
	c.mu.Lock()
	if c.current != m {
		c.mu.Unlock()
		return false
	}
	c.pose = p
	c.mu.Unlock()
	c.publish(world.EventCartUpdate, m, p)

	timer := time.NewTimer(c.cfg.Frame)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (c *Cart) publish(t world.EventType, m *Move, p Pose) {
	if c.sink == nil {
		return
	}
	c.sink.Publish(world.NewEvent(t, map[string]any{
		"move_id":  m.ID,
		"x":        p.X,
		"z":        p.Z,
		"rotation": p.Rotation,
	}))
}
