package status

import (
	"context"
	"errors"
	"fmt"

	"farmbot/internal/app/dispatch"
	"farmbot/internal/domain/farm"
	"farmbot/internal/domain/ledger"
)

var ErrInvalidRequest = errors.New("invalid status request")

const (
	maxHistory    = 500
	maxProjection = 64
)

type StatsProvider interface {
	Stats() dispatch.Stats
}

type ResourceReader interface {
	Resources(ctx context.Context, historyLimit int) (ledger.State, ledger.Status, []ledger.Entry, error)
}

// Projector prices a planned action sequence against the current ledger
// without spending anything.
type Projector interface {
	ProjectActions(ctx context.Context, actions []farm.ActionKind) (ledger.Projection, error)
}

type UseCase struct {
	Loop      StatsProvider
	Resources ResourceReader
	Projector Projector
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	if req.HistoryLimit < 0 || req.HistoryLimit > maxHistory || len(req.Project) > maxProjection {
		return Response{}, ErrInvalidRequest
	}
	for _, k := range req.Project {
		if !k.Valid() && k != farm.ActionMove {
			return Response{}, fmt.Errorf("%w: unknown action %q", ErrInvalidRequest, k)
		}
	}
	var resp Response
	if u.Loop != nil {
		resp.Dispatch = u.Loop.Stats()
	}
	if u.Resources != nil {
		state, health, history, err := u.Resources.Resources(ctx, req.HistoryLimit)
		if err != nil {
			return Response{}, err
		}
		resp.Resources = state
		resp.Health = health
		resp.History = history
	}
	if len(req.Project) > 0 && u.Projector != nil {
		p, err := u.Projector.ProjectActions(ctx, req.Project)
		if err != nil {
			return Response{}, err
		}
		resp.Projection = &p
	}
	if resp.History == nil {
		resp.History = []ledger.Entry{}
	}
	return resp, nil
}
