package motion

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"farmbot/internal/domain/grid"
	"farmbot/internal/domain/world"
)

type recordingSink struct {
	mu     sync.Mutex
	events []world.Event
}

func (s *recordingSink) Publish(e world.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) snapshot() []world.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]world.Event(nil), s.events...)
}

func fastConfig() Config {
	return Config{StepsPerSecond: 30, TurnRate: 180, DefaultSpeed: 1, Frame: time.Microsecond}
}

func waitMove(t *testing.T, m *Move) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Wait(ctx); err != nil {
		t.Fatalf("move did not finish: %v", err)
	}
}

func TestCartMoveReachesTarget(t *testing.T) {
	sink := &recordingSink{}
	cart := NewCart(fastConfig(), Pose{}, sink)
	m := cart.MoveTo(context.Background(), grid.Point{X: 1, Z: 0}, 2, true)
	waitMove(t, m)

	if !m.Arrived() {
		t.Fatalf("expected move to arrive")
	}
	p := cart.Pose()
	if math.Abs(p.X-1) > 1e-9 || math.Abs(p.Z) > 1e-9 {
		t.Fatalf("expected pose at (1,0), got %+v", p)
	}
	events := sink.snapshot()
	if len(events) < 2 {
		t.Fatalf("expected step events, got %d", len(events))
	}
	if last := events[len(events)-1]; last.Type != world.EventCartMoveCompleted {
		t.Fatalf("expected completion event last, got %s", last.Type)
	}
	// 0.5 s at 30 steps/s, no rotation needed.
	if got := len(events) - 1; got != 15 {
		t.Fatalf("expected 15 position updates, got %d", got)
	}
}

func TestCartRotatesBeforeMoving(t *testing.T) {
	sink := &recordingSink{}
	cart := NewCart(fastConfig(), Pose{}, sink)
	m := cart.MoveTo(context.Background(), grid.Point{X: 0, Z: 1}, 1, false)
	waitMove(t, m)

	events := sink.snapshot()
	first := events[0]
	if first.Type != world.EventCartUpdate {
		t.Fatalf("expected cart update first, got %s", first.Type)
	}
	if first.Payload["z"].(float64) != 0 || first.Payload["rotation"].(float64) <= 0 {
		t.Fatalf("expected in-place rotation first, got %+v", first.Payload)
	}
	if got := cart.Pose().Rotation; math.Abs(got-90) > 1e-9 {
		t.Fatalf("expected heading 90, got %v", got)
	}
}

func TestCartNewMoveCancelsPrevious(t *testing.T) {
	cfg := fastConfig()
	cfg.Frame = 5 * time.Millisecond
	cart := NewCart(cfg, Pose{}, nil)

	first := cart.MoveTo(context.Background(), grid.Point{X: 10, Z: 0}, 1, false)
	second := cart.MoveTo(context.Background(), grid.Point{X: 0, Z: 0.5}, 50, false)

	select {
	case <-first.Done():
	default:
		t.Fatalf("expected first move to be stopped once superseded")
	}
	if first.Arrived() {
		t.Fatalf("superseded move must not report arrival")
	}
	waitMove(t, second)
	if p := cart.Pose(); math.Abs(p.Z-0.5) > 1e-9 || math.Abs(p.X) > 1e-9 {
		t.Fatalf("expected pose at second target, got %+v", p)
	}
}

func TestMoveWaitHonoursContext(t *testing.T) {
	cfg := fastConfig()
	cfg.Frame = 50 * time.Millisecond
	cart := NewCart(cfg, Pose{}, nil)
	m := cart.MoveTo(context.Background(), grid.Point{X: 3, Z: 0}, 1, false)
	defer m.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := m.Wait(ctx); err == nil {
		t.Fatalf("expected wait to time out")
	}
}
