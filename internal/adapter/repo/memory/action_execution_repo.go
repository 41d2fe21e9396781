package memory

import (
	"context"

	"farmbot/internal/app/ports"
)

type ActionExecutionRepo struct {
	store *Store
}

func NewActionExecutionRepo(store *Store) ActionExecutionRepo {
	return ActionExecutionRepo{store: store}
}

func (r ActionExecutionRepo) GetByIdempotencyKey(_ context.Context, key string) (*ports.ActionExecutionRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	rec, ok := r.store.executions[key]
	if !ok {
		return nil, ports.ErrNotFound
	}
	copy := rec
	return &copy, nil
}

func (r ActionExecutionRepo) SaveExecution(_ context.Context, rec ports.ActionExecutionRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.executions[rec.IdempotencyKey]; exists {
		return ports.ErrConflict
	}
	r.store.executions[rec.IdempotencyKey] = rec
	return nil
}
