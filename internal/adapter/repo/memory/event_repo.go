package memory

import (
	"context"

	"farmbot/internal/app/ports"
	"farmbot/internal/domain/world"
)

type EventRepo struct {
	store *Store
}

func NewEventRepo(store *Store) EventRepo {
	return EventRepo{store: store}
}

func (r EventRepo) Append(_ context.Context, events []world.Event) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.events = append(r.store.events, events...)
	if over := len(r.store.events) - r.store.eventLimit; over > 0 {
		r.store.events = append([]world.Event(nil), r.store.events[over:]...)
	}
	return nil
}

func (r EventRepo) Publish(e world.Event) {
	if e.Type == world.EventCartUpdate {
		return
	}
	_ = r.Append(context.Background(), []world.Event{e})
}

// List returns up to limit events, newest first.
func (r EventRepo) List(_ context.Context, limit int) ([]world.Event, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	n := len(r.store.events)
	if n == 0 {
		return nil, ports.ErrNotFound
	}
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]world.Event, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, r.store.events[i])
	}
	return out, nil
}
