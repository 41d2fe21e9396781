package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"farmbot/internal/adapter/events"
	"farmbot/internal/adapter/index"
	gormrepo "farmbot/internal/adapter/repo/gorm"
	"farmbot/internal/adapter/repo/memory"
	"farmbot/internal/adapter/savestate"
	"farmbot/internal/app/dispatch"
	"farmbot/internal/app/ports"
	"farmbot/internal/domain/world"
)

type eventStore interface {
	ports.EventRepository
	ports.EventSink
}

type cycleStore interface {
	ports.CycleIndex
	ports.CycleReader
}

type persistence struct {
	snapshots   ports.SnapshotRepository
	events      eventStore
	cycles      ports.CycleIndex
	cycleReader ports.CycleReader
	actions     ports.ActionExecutionRepository
	index       *index.SQLiteIndex
	closers     []func() error
}

func (p *persistence) close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			log.Printf("[SHUTDOWN] close store: %v", err)
		}
	}
}

// mustBuildPersistence picks postgres when FARMBOT_DB_DSN is set and the
// in-memory store otherwise. The local save file and the sqlite index are
// optional mirrors on top of either.
func mustBuildPersistence(ctx context.Context) *persistence {
	var (
		p      persistence
		cycles cycleStore
	)
	if dsn := strEnv("FARMBOT_DB_DSN", ""); dsn != "" {
		db, err := gormrepo.OpenPostgresWithPool(dsn, gormrepo.PoolConfig{
			MaxOpenConns:    intEnv("FARMBOT_DB_MAX_OPEN_CONNS", 8),
			MaxIdleConns:    intEnv("FARMBOT_DB_MAX_IDLE_CONNS", 4),
			ConnMaxLifetime: time.Duration(intEnv("FARMBOT_DB_CONN_MAX_LIFETIME_SECONDS", 1800)) * time.Second,
		})
		if err != nil {
			log.Fatalf("open postgres: %v", err)
		}
		if dir := strEnv("FARMBOT_MIGRATIONS_DIR", "db/migrations"); dir != "" {
			if _, err := gormrepo.ApplyMigrations(ctx, db, dir); err != nil {
				log.Fatalf("apply migrations: %v", err)
			}
		}
		p.snapshots = gormrepo.NewSnapshotRepo(db)
		p.events = gormrepo.NewEventRepo(db)
		p.actions = gormrepo.NewActionExecutionRepo(db)
		cycles = gormrepo.NewCycleRepo(db)
		if sqlDB, err := db.DB(); err == nil {
			p.closers = append(p.closers, sqlDB.Close)
		}
		log.Printf("[STORE] using postgres")
	} else {
		store := memory.NewStoreWithLimit(intEnv("FARMBOT_EVENT_LIMIT", 1000))
		p.snapshots = memory.NewSnapshotRepo(store)
		p.events = memory.NewEventRepo(store)
		p.actions = memory.NewActionExecutionRepo(store)
		cycles = memory.NewCycleRepo(store)
		log.Printf("[STORE] using in-memory store")
	}
	p.cycles = cycles
	p.cycleReader = cycles

	if app := strEnv("FARMBOT_SAVE_APP", ""); app != "" {
		local, err := savestate.Open(app)
		if err != nil {
			log.Printf("[STORE] local save disabled: %v", err)
		} else {
			p.snapshots = mirroredSnapshots{p.snapshots, local}
		}
	}

	if path := strEnv("FARMBOT_INDEX_PATH", ""); path != "" {
		idx, err := index.OpenSQLite(path)
		if err != nil {
			log.Printf("[STORE] sqlite index disabled: %v", err)
		} else {
			p.index = idx
			p.cycles = cycleFanout{cycles, idx}
			p.closers = append(p.closers, idx.Close)
		}
	}
	return &p
}

// mirroredSnapshots writes to every store and loads from the first one that
// has the key.
type mirroredSnapshots []ports.SnapshotRepository

func (m mirroredSnapshots) Save(ctx context.Context, key string, s world.Snapshot) error {
	var errs []error
	for _, r := range m {
		if err := r.Save(ctx, key, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m mirroredSnapshots) Load(ctx context.Context, key string) (world.Snapshot, error) {
	for _, r := range m {
		s, err := r.Load(ctx, key)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, ports.ErrNotFound) {
			log.Printf("[STORE] load %s: %v", key, err)
		}
	}
	return world.Snapshot{}, ports.ErrNotFound
}

type cycleFanout []ports.CycleIndex

func (f cycleFanout) RecordCycle(ctx context.Context, rec ports.CycleRecord) error {
	var errs []error
	for _, c := range f {
		if err := c.RecordCycle(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type restorer interface {
	Restore(ctx context.Context, s world.Snapshot) error
}

func restoreWorld(ctx context.Context, w restorer, snapshots ports.SnapshotRepository, key string) {
	snap, err := snapshots.Load(ctx, key)
	if errors.Is(err, ports.ErrNotFound) {
		log.Printf("[STORE] no saved farm %q, starting fresh", key)
		return
	}
	if err != nil {
		log.Printf("[STORE] load farm %q failed, starting fresh: %v", key, err)
		return
	}
	if err := w.Restore(ctx, snap); err != nil {
		log.Printf("[STORE] restore farm %q failed, starting fresh: %v", key, err)
		return
	}
	log.Printf("[STORE] restored farm %q at tick %d", key, snap.Tick)
}

type publisher interface {
	Tap() <-chan world.Event
}

// attach feeds every bus event to fn on its own goroutine.
func attach(ctx context.Context, bus publisher, name string, fn func(world.Event)) {
	ch := bus.Tap()
	go func() {
		defer log.Printf("[BUS] sink %s detached", name)
		events.Forward(ctx, ch, fn)
	}()
}

type subscriber interface {
	Subscribe(t world.EventType) <-chan world.Event
}

// watchEnergy reports the loop entering and leaving energy_low.
func watchEnergy(ctx context.Context, bus subscriber, report func(string)) {
	ch := bus.Subscribe(world.EventStatusChanged)
	go events.Forward(ctx, ch, func(e world.Event) {
		if msg, ok := energyAlert(e); ok {
			report(msg)
		}
	})
}

func energyAlert(e world.Event) (string, bool) {
	from, to := fmt.Sprint(e.Payload["from"]), fmt.Sprint(e.Payload["to"])
	low := string(dispatch.StateEnergyLow)
	switch {
	case to == low:
		return fmt.Sprintf("energy low, tasks suspended (was %s)", from), true
	case from == low:
		return fmt.Sprintf("energy recovered, now %s", to), true
	}
	return "", false
}
