package motion

import (
	"context"
	"sync/atomic"

	"farmbot/internal/domain/grid"
)

type Move struct {
	ID      string
	Target  grid.Point
	done    chan struct{}
	cancel  context.CancelFunc
	arrived atomic.Bool
}

func (m *Move) Done() <-chan struct{} {
	return m.done
}

func (m *Move) Cancel() {
	m.cancel()
}

// Arrived reports whether the move reached its target rather than being
// cancelled. It is only meaningful after Done is closed.
func (m *Move) Arrived() bool {
	return m.arrived.Load()
}

// Wait blocks until the move stops or ctx is done.
func (m *Move) Wait(ctx context.Context) error {
	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
