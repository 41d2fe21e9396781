package mock

import (
	"context"
	"sync"

	"farmbot/internal/app/ports"
	"farmbot/internal/domain/farm"
	"farmbot/internal/domain/grid"
	"farmbot/internal/domain/world"
)

type Call struct {
	Kind farm.ActionKind
	Cell grid.Cell
}

// Provider is a scripted world. Moves never finish unless CompleteMoves is
// set, which lets callers exercise their move timeouts.
type Provider struct {
	mu sync.Mutex

	Snapshot      world.Snapshot
	SnapshotErr   error
	ActionErr     error
	Result        ports.ActionResult
	CompleteMoves bool

	Calls    []Call
	Moves    []ports.MoveRequest
	Advanced float64
	Task     string
}

func (p *Provider) GetSnapshot(_ context.Context) (world.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.SnapshotErr != nil {
		return world.Snapshot{}, p.SnapshotErr
	}
	return p.Snapshot.Clone(), nil
}

func (p *Provider) ExecuteAction(_ context.Context, kind farm.ActionKind, cell grid.Cell, _ ports.ActionParams) (ports.ActionResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, Call{Kind: kind, Cell: cell})
	if p.ActionErr != nil {
		return ports.ActionResult{}, p.ActionErr
	}
	return p.Result, nil
}

func (p *Provider) MoveTo(_ context.Context, req ports.MoveRequest) (ports.MoveAck, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Moves = append(p.Moves, req)
	done := make(chan struct{})
	if p.CompleteMoves {
		close(done)
		p.Snapshot.Robot.Position = req.Target
	}
	return ports.MoveAck{ID: "mock-move", Target: req.Target, Done: done}, nil
}

func (p *Provider) Advance(_ context.Context, dt float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Advanced += dt
	return nil
}

func (p *Provider) SetCurrentTask(_ context.Context, taskID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Task = taskID
	return nil
}

func (p *Provider) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}
