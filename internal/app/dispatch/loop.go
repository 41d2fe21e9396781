package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"farmbot/internal/app/ports"
	"farmbot/internal/app/scheduler"
	"farmbot/internal/domain/grid"
	"farmbot/internal/domain/planner"
	"farmbot/internal/domain/world"
)

type State string

const (
	StateIdle            State = "idle"
	StateScanningHarvest State = "scanning_harvest"
	StateHarvesting      State = "harvesting_batch"
	StateScanningTasks   State = "scanning_tasks"
	StateExecuting       State = "executing_task"
	StateEnergyLow       State = "energy_low"
	StateStopped         State = "stopped"
)

type Config struct {
	Interval time.Duration
	// TickSeconds is the simulated time advanced per cycle. Zero means
	// Interval in seconds.
	TickSeconds   float64
	MoveWait      time.Duration
	MoveSpeed     float64
	SmoothMoves   bool
	SnapshotEvery int
	SnapshotKey   string
	AutoRepair    bool
	Obstacles     []grid.Cell
	Heuristic     planner.Heuristic
}

func DefaultConfig() Config {
	return Config{
		Interval:      time.Second,
		MoveWait:      5 * time.Second,
		MoveSpeed:     1,
		SmoothMoves:   true,
		SnapshotEvery: 30,
		SnapshotKey:   "farm",
		AutoRepair:    true,
	}
}

type Stats struct {
	State            State     `json:"state"`
	Cycles           uint64    `json:"cycles"`
	Skipped          uint64    `json:"skipped"`
	TasksCompleted   uint64    `json:"tasks_completed"`
	WeedsRemoved     uint64    `json:"weeds_removed"`
	PlantsHarvested  uint64    `json:"plants_harvested"`
	PlantsWatered    uint64    `json:"plants_watered"`
	PlantsFertilized uint64    `json:"plants_fertilized"`
	PlantsPlanted    uint64    `json:"plants_planted"`
	SoilPrepared     uint64    `json:"soil_prepared"`
	Errors           uint64    `json:"errors"`
	HarvestFailures  uint64    `json:"harvest_failures"`
	ToolRepairs      uint64    `json:"tool_repairs"`
	HarvestQueue     int       `json:"harvest_queue"`
	LastCycleAt      time.Time `json:"last_cycle_at"`
}

type Deps struct {
	TxManager ports.TxManager
	World     ports.WorldGateway
	Simulator ports.Simulator
	Tools     ports.ToolService
	Events    ports.EventSink
	Snapshots ports.SnapshotRepository
	Cycles    ports.CycleIndex
	Metrics   ports.DispatchMetrics
	Scheduler *scheduler.Scheduler
	Geometry  grid.Geometry
	Now       func() time.Time
}

// Loop is the single control loop that owns every world mutation made on
// the robot's behalf.
type Loop struct {
	deps    Deps
	cfg     Config
	planner *planner.Planner
	queue   *scheduler.HarvestQueue

	tickMu sync.Mutex
	mu     sync.Mutex
	stats  Stats
}

func NewLoop(deps Deps, cfg Config) *Loop {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.TickSeconds <= 0 {
		cfg.TickSeconds = cfg.Interval.Seconds()
	}
	if cfg.MoveWait <= 0 {
		cfg.MoveWait = def.MoveWait
	}
	if cfg.MoveSpeed <= 0 {
		cfg.MoveSpeed = def.MoveSpeed
	}
	if cfg.SnapshotKey == "" {
		cfg.SnapshotKey = def.SnapshotKey
	}
	if deps.Geometry.Size <= 0 {
		deps.Geometry = grid.DefaultGeometry()
	}
	if deps.Scheduler == nil {
		deps.Scheduler = scheduler.New(scheduler.DefaultConfig(), deps.Geometry)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	p := planner.New(deps.Geometry)
	p.Heuristic = cfg.Heuristic
	p.SetObstacles(cfg.Obstacles)
	return &Loop{
		deps:    deps,
		cfg:     cfg,
		planner: p,
		queue:   scheduler.NewHarvestQueue(),
		stats:   Stats{State: StateIdle},
	}
}

// Run ticks until ctx is done. Cycle errors are logged, never returned.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()
	log.Printf("[DISPATCH] auto farm started interval=%s", l.cfg.Interval)
	defer l.setState(StateStopped)

	for {
		select {
		case <-ctx.Done():
			log.Printf("[DISPATCH] auto farm stopped after %d cycles", l.Stats().Cycles)
			return nil
		case <-ticker.C:
			if err := l.Tick(ctx); err != nil {
				log.Printf("[DISPATCH] cycle failed: %v", err)
			}
		}
	}
}

type cycleReport struct {
	tasks     int
	completed int
	errors    int
	skipped   bool
}

// Tick runs one full cycle under the world transaction. A panic inside the
// cycle is recovered here and reported as an error.
func (l *Loop) Tick(ctx context.Context) (err error) {
	l.tickMu.Lock()
	defer l.tickMu.Unlock()

	started := l.deps.Now()
	cycle := l.bump(func(s *Stats) { s.Cycles++; s.LastCycleAt = started })
	var rep cycleReport
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[DISPATCH] recovered panic in cycle %d: %v", cycle, r)
			l.bump(func(s *Stats) { s.Errors++ })
			if l.deps.Metrics != nil {
				l.deps.Metrics.RecordPanic()
			}
			l.setState(StateIdle)
			err = fmt.Errorf("dispatch cycle %d: panic: %v", cycle, r)
		}
	}()

	err = l.deps.TxManager.RunInTx(ctx, func(ctx context.Context) error {
		return l.cycle(ctx, &rep)
	})
	if rep.skipped {
		l.bump(func(s *Stats) { s.Skipped++ })
		if l.deps.Metrics != nil {
			l.deps.Metrics.RecordSkipped("transient")
		}
	}
	took := l.deps.Now().Sub(started)
	if l.deps.Metrics != nil {
		l.deps.Metrics.RecordCycle(string(l.State()), took)
	}
	l.afterCycle(ctx, cycle, started, took, rep)
	return err
}

func (l *Loop) cycle(ctx context.Context, rep *cycleReport) error {
	if l.deps.Simulator != nil {
		if err := l.deps.Simulator.Advance(ctx, l.cfg.TickSeconds); err != nil {
			return fmt.Errorf("advance world: %w", err)
		}
	}
	snap, err := l.deps.World.GetSnapshot(ctx)
	if err != nil {
		rep.skipped = true
		if !errors.Is(err, ports.ErrTransient) {
			err = fmt.Errorf("%w: %v", ports.ErrTransient, err)
		}
		return fmt.Errorf("snapshot: %w", err)
	}
	pos := snap.Robot.Position

	l.setState(StateScanningHarvest)
	if added := l.queue.Refresh(snap); added > 0 {
		log.Printf("[DISPATCH] %d plants ready to harvest, queue=%d", added, l.queue.Len())
	}
	if l.queue.Len() > 0 {
		l.setState(StateHarvesting)
		l.drainHarvest(ctx, &pos, rep)
		l.setState(StateIdle)
		return nil
	}

	l.setState(StateScanningTasks)
	tasks, status := l.deps.Scheduler.Generate(snap)
	if status == scheduler.StatusEnergyLow {
		l.setState(StateEnergyLow)
		return nil
	}
	selected := l.deps.Scheduler.Select(tasks)
	if len(selected) == 0 {
		l.setState(StateIdle)
		return nil
	}
	l.setState(StateExecuting)
	for _, t := range selected {
		rep.tasks++
		if err := l.execute(ctx, t, &pos); err != nil {
			rep.errors++
			continue
		}
		rep.completed++
	}
	l.setState(StateIdle)
	return nil
}

// drainHarvest empties the queue nearest-first. Every entry is removed before
// it is attempted so a failing target can never be retried in the same batch.
func (l *Loop) drainHarvest(ctx context.Context, pos *grid.Point, rep *cycleReport) {
	n := l.queue.Len()
	for i := 0; i < n && l.queue.Len() > 0; i++ {
		cell, _ := l.queue.Next(*pos)
		l.queue.Remove(cell)
		rep.tasks++
		t := scheduler.Task{
			ID:        "harvest-" + cellID(cell),
			Type:      scheduler.TaskHarvest,
			Priority:  scheduler.PriorityCritical,
			Target:    cell,
			PlantID:   cellID(cell),
			CreatedAt: l.deps.Now(),
		}
		if err := l.run(ctx, t, pos); err != nil {
			rep.errors++
			l.bump(func(s *Stats) { s.HarvestFailures++ })
			continue
		}
		rep.completed++
	}
}

func (l *Loop) afterCycle(ctx context.Context, cycle uint64, started time.Time, took time.Duration, rep cycleReport) {
	l.bump(func(s *Stats) { s.HarvestQueue = l.queue.Len() })
	if l.deps.Snapshots == nil && l.deps.Cycles == nil {
		return
	}
	snap, err := l.deps.World.GetSnapshot(ctx)
	if err != nil {
		return
	}
	if l.deps.Snapshots != nil && l.cfg.SnapshotEvery > 0 && cycle%uint64(l.cfg.SnapshotEvery) == 0 {
		if err := l.deps.Snapshots.Save(ctx, l.cfg.SnapshotKey, snap); err != nil {
			log.Printf("[DISPATCH] save snapshot failed: %v", err)
		}
	}
	if l.deps.Cycles != nil {
		rec := ports.CycleRecord{
			Cycle:     cycle,
			Tick:      snap.Tick,
			State:     string(l.State()),
			Tasks:     rep.tasks,
			Completed: rep.completed,
			Errors:    rep.errors,
			Energy:    snap.Robot.Energy,
			Coins:     snap.Coins,
			Score:     snap.Score,
			StartedAt: started,
			Took:      took,
		}
		if err := l.deps.Cycles.RecordCycle(ctx, rec); err != nil {
			log.Printf("[DISPATCH] record cycle failed: %v", err)
		}
	}
}

func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats.State
}

func (l *Loop) bump(fn func(s *Stats)) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(&l.stats)
	return l.stats.Cycles
}

func (l *Loop) setState(next State) {
	l.mu.Lock()
	prev := l.stats.State
	l.stats.State = next
	l.mu.Unlock()
	if prev != next {
		l.emit(world.EventStatusChanged, map[string]any{"from": prev, "to": next})
	}
}

func (l *Loop) emit(t world.EventType, payload map[string]any) {
	if l.deps.Events == nil {
		return
	}
	l.deps.Events.Publish(world.NewEvent(t, payload))
}
