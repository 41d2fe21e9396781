package memory

import (
	"context"

	"farmbot/internal/app/ports"
	"farmbot/internal/domain/world"
)

type SnapshotRepo struct {
	store *Store
}

func NewSnapshotRepo(store *Store) SnapshotRepo {
	return SnapshotRepo{store: store}
}

func (r SnapshotRepo) Save(_ context.Context, key string, s world.Snapshot) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.snapshots[key] = s.Clone()
	return nil
}

func (r SnapshotRepo) Load(_ context.Context, key string) (world.Snapshot, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	s, ok := r.store.snapshots[key]
	if !ok {
		return world.Snapshot{}, ports.ErrNotFound
	}
	return s.Clone(), nil
}
