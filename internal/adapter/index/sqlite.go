package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"farmbot/internal/app/ports"
	"farmbot/internal/domain/world"
)

// SQLiteIndex is a secondary, queryable index of dispatch cycles and farm
// events. Writes are queued and applied by one writer goroutine; when the
// writer falls behind rows are dropped.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Uint64
}

type reqKind int

const (
	reqCycle reqKind = iota + 1
	reqEvent
	reqFlush
)

type req struct {
	kind  reqKind
	cycle ports.CycleRecord
	event world.Event
	done  chan struct{}
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{db: db, ch: make(chan req, 65536)}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS cycles (
			cycle INTEGER PRIMARY KEY,
			tick INTEGER NOT NULL,
			state TEXT NOT NULL,
			tasks INTEGER NOT NULL,
			completed INTEGER NOT NULL,
			errors INTEGER NOT NULL,
			energy REAL NOT NULL,
			coins INTEGER NOT NULL,
			score INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			took_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			occurred_at TEXT NOT NULL,
			payload_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_type_time ON events(type, occurred_at);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// RecordCycle implements ports.CycleIndex.
func (s *SQLiteIndex) RecordCycle(_ context.Context, rec ports.CycleRecord) error {
	s.enqueue(req{kind: reqCycle, cycle: rec})
	return nil
}

// Publish indexes an event. It matches ports.EventSink so the index can be
// fed straight from the bus.
func (s *SQLiteIndex) Publish(e world.Event) {
	if e.Type == world.EventCartUpdate {
		return
	}
	s.enqueue(req{kind: reqEvent, event: e})
}

// Flush blocks until every queued row is committed.
func (s *SQLiteIndex) Flush(ctx context.Context) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	done := make(chan struct{})
	select {
	case s.ch <- req{kind: reqFlush, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SQLiteIndex) Dropped() uint64 { return s.dropped.Load() }

func (s *SQLiteIndex) enqueue(r req) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- r:
	default:
		if s.dropped.Add(1)%1000 == 1 {
			log.Printf("[INDEX] WARNING: writer behind, dropped=%d", s.dropped.Load())
		}
	}
}

// RecentCycles returns up to limit cycles, newest first.
func (s *SQLiteIndex) RecentCycles(ctx context.Context, limit int) ([]ports.CycleRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT cycle,tick,state,tasks,completed,errors,energy,coins,score,started_at,took_ms
		 FROM cycles ORDER BY cycle DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ports.CycleRecord
	for rows.Next() {
		var (
			r       ports.CycleRecord
			cycle   int64
			tick    int64
			started string
			tookMS  int64
		)
		if err := rows.Scan(&cycle, &tick, &r.State, &r.Tasks, &r.Completed, &r.Errors, &r.Energy, &r.Coins, &r.Score, &started, &tookMS); err != nil {
			return nil, err
		}
		r.Cycle = uint64(cycle)
		r.Tick = uint64(tick)
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.Took = time.Duration(tookMS) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountEvents returns how many indexed events have type t.
func (s *SQLiteIndex) CountEvents(ctx context.Context, t world.EventType) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE type = ?`, string(t)).Scan(&n)
	return n, err
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertCycle, _ := s.db.Prepare(`INSERT OR REPLACE INTO cycles(cycle,tick,state,tasks,completed,errors,energy,coins,score,started_at,took_ms) VALUES(?,?,?,?,?,?,?,?,?,?,?)`)
	insertEvent, _ := s.db.Prepare(`INSERT OR IGNORE INTO events(id,type,occurred_at,payload_json) VALUES(?,?,?,?)`)
	defer func() {
		if insertCycle != nil {
			_ = insertCycle.Close()
		}
		if insertEvent != nil {
			_ = insertEvent.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = 2 * time.Second
	)
	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err != nil {
			log.Printf("[INDEX] commit failed: %v", err)
		}
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		if r.kind == reqFlush {
			commit()
			close(r.done)
			continue
		}
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqCycle:
			c := r.cycle
			if insertCycle != nil {
				if _, err := tx.Stmt(insertCycle).Exec(
					int64(c.Cycle),
					int64(c.Tick),
					c.State,
					c.Tasks,
					c.Completed,
					c.Errors,
					c.Energy,
					c.Coins,
					c.Score,
					c.StartedAt.UTC().Format(time.RFC3339Nano),
					c.Took.Milliseconds(),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		case reqEvent:
			e := r.event
			raw, _ := json.Marshal(e.Payload)
			if insertEvent != nil {
				if _, err := tx.Stmt(insertEvent).Exec(e.ID, string(e.Type), e.OccurredAt.UTC().Format(time.RFC3339Nano), string(raw)); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}
	commit()
}
