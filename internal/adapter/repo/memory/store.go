package memory

import (
	"sync"

	"farmbot/internal/app/ports"
	"farmbot/internal/domain/world"
)

const DefaultEventLimit = 1000

// Store is the in-process persistence used when no database is configured.
// Events beyond the limit are evicted oldest first.
type Store struct {
	txMu sync.Mutex

	mu         sync.RWMutex
	snapshots  map[string]world.Snapshot
	events     []world.Event
	eventLimit int
	cycles     []ports.CycleRecord
	executions map[string]ports.ActionExecutionRecord
}

func NewStore() *Store {
	return NewStoreWithLimit(DefaultEventLimit)
}

func NewStoreWithLimit(eventLimit int) *Store {
	if eventLimit <= 0 {
		eventLimit = DefaultEventLimit
	}
	return &Store{
		snapshots:  make(map[string]world.Snapshot),
		eventLimit: eventLimit,
		executions: make(map[string]ports.ActionExecutionRecord),
	}
}

func (s *Store) SeedSnapshot(key string, snap world.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[key] = snap.Clone()
}
