package memory

import (
	"context"

	"farmbot/internal/app/ports"
)

const cycleKeep = 500

type CycleRepo struct {
	store *Store
}

func NewCycleRepo(store *Store) CycleRepo {
	return CycleRepo{store: store}
}

func (r CycleRepo) RecordCycle(_ context.Context, rec ports.CycleRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.cycles = append(r.store.cycles, rec)
	if over := len(r.store.cycles) - cycleKeep; over > 0 {
		r.store.cycles = append([]ports.CycleRecord(nil), r.store.cycles[over:]...)
	}
	return nil
}

func (r CycleRepo) RecentCycles(_ context.Context, limit int) ([]ports.CycleRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	n := len(r.store.cycles)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]ports.CycleRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, r.store.cycles[i])
	}
	return out, nil
}
