package dispatch

import (
	"context"
	"math/rand"
	"sync"
	"time"

	worldmock "farmbot/internal/adapter/world/mock"
	worldruntime "farmbot/internal/adapter/world/runtime"
	"farmbot/internal/app/motion"
	"farmbot/internal/app/ports"
	"farmbot/internal/domain/farm"
	"farmbot/internal/domain/grid"
	"farmbot/internal/domain/world"
)

type stubSink struct {
	mu     sync.Mutex
	events []world.Event
}

func (s *stubSink) Publish(e world.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *stubSink) ofType(t world.EventType) []world.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []world.Event
	for _, e := range s.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type stubSnapshots struct {
	saved map[string]world.Snapshot
}

func (r *stubSnapshots) Save(_ context.Context, key string, s world.Snapshot) error {
	if r.saved == nil {
		r.saved = map[string]world.Snapshot{}
	}
	r.saved[key] = s
	return nil
}

func (r *stubSnapshots) Load(_ context.Context, key string) (world.Snapshot, error) {
	s, ok := r.saved[key]
	if !ok {
		return world.Snapshot{}, ports.ErrNotFound
	}
	return s, nil
}

type stubCycles struct {
	records []ports.CycleRecord
}

func (r *stubCycles) RecordCycle(_ context.Context, rec ports.CycleRecord) error {
	r.records = append(r.records, rec)
	return nil
}

func newWorld(sink ports.EventSink) *worldruntime.Provider {
	cfg := worldruntime.DefaultConfig()
	cfg.Seed = 7
	cfg.Drift = false
	cfg.Motion = motion.Config{Frame: time.Microsecond}
	cfg.Sink = sink
	return worldruntime.NewProvider(cfg)
}

func newRuntimeLoop(w *worldruntime.Provider, sink ports.EventSink, cfg Config) *Loop {
	return NewLoop(Deps{
		TxManager: w,
		World:     w,
		Simulator: w,
		Tools:     w,
		Events:    sink,
		Geometry:  w.Geometry(),
	}, cfg)
}

func newMockLoop(m *worldmock.Provider, cfg Config) *Loop {
	return NewLoop(Deps{
		TxManager: m,
		World:     m,
		Simulator: m,
		Geometry:  grid.DefaultGeometry(),
	}, cfg)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MoveWait = 2 * time.Second
	cfg.MoveSpeed = 20
	return cfg
}

func ripeCrop(row, col int) farm.CellView {
	return farm.CellView{
		Row: row, Col: col,
		Variant:     farm.VariantCrop,
		Kind:        farm.KindWheat,
		GrowthStage: 3,
		Health:      95,
		Moisture:    60,
		Soil:        farm.DefaultSoil(),
	}
}

func weed(row, col int) farm.CellView {
	return farm.CellView{Row: row, Col: col, Variant: farm.VariantWeed, GrowthStage: 1, Health: 100, Soil: farm.DefaultSoil()}
}

// mockSnapshot lays plants onto a full grid so every view carries its id and
// position.
func mockSnapshot(energy float64, plants map[grid.Cell]farm.Plant) world.Snapshot {
	geo := grid.DefaultGeometry()
	f := farm.NewField(geo, rand.New(rand.NewSource(1)))
	for c, p := range plants {
		_ = f.Put(c, p)
	}
	return world.Snapshot{
		GridSize: geo.Size,
		Robot:    world.Robot{Position: geo.CellToWorld(grid.Cell{}), Energy: energy, Coins: 320},
		Coins:    320,
		Plants:   f.Views(),
	}
}
