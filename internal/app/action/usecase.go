package action

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"farmbot/internal/app/ports"
	"farmbot/internal/domain/farm"
	"farmbot/internal/domain/grid"
	"farmbot/internal/domain/ledger"
)

var (
	ErrInvalidRequest      = errors.New("invalid action request")
	ErrInvalidActionParams = errors.New("invalid action params")
)

const (
	defaultMoveSpeed = 1.0
	maxSeedRestock   = 100
)

// UseCase applies operator commands to the farm. Commands share the world
// transaction with the dispatch loop, so they never interleave with a cycle.
type UseCase struct {
	TxManager  ports.TxManager
	ActionRepo ports.ActionExecutionRepository
	World      ports.WorldGateway
	Tools      ports.ToolService
	Supplies   ports.SupplyService
	Geometry   grid.Geometry
	Now        func() time.Time
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	req.IdempotencyKey = strings.TrimSpace(req.IdempotencyKey)
	req.Kind = farm.ActionKind(strings.TrimSpace(string(req.Kind)))
	if !req.Kind.Valid() || !u.geometry().InBounds(grid.Cell{Row: req.Row, Col: req.Col}) {
		return Response{}, ErrInvalidRequest
	}
	if !hasValidParams(req) {
		return Response{}, ErrInvalidActionParams
	}
	nowFn := u.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	cell := grid.Cell{Row: req.Row, Col: req.Col}
	out := Response{Kind: req.Kind, PlantID: farm.PlantID(cell)}
	err := u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		if u.ActionRepo != nil && req.IdempotencyKey != "" {
			exec, err := u.ActionRepo.GetByIdempotencyKey(txCtx, req.IdempotencyKey)
			if err == nil && exec != nil {
				out.Kind = farm.ActionKind(exec.Kind)
				out.PlantID = exec.PlantID
				out.Result = exec.Result
				out.Replayed = true
				return nil
			}
			if err != nil && !errors.Is(err, ports.ErrNotFound) {
				return err
			}
		}

		res, err := u.World.ExecuteAction(txCtx, req.Kind, cell, ports.ActionParams{Kind: req.Crop})
		if err != nil {
			return err
		}
		out.Result = res

		if u.ActionRepo == nil || req.IdempotencyKey == "" {
			return nil
		}
		return u.ActionRepo.SaveExecution(txCtx, ports.ActionExecutionRecord{
			IdempotencyKey: req.IdempotencyKey,
			Kind:           string(req.Kind),
			PlantID:        out.PlantID,
			Result:         res,
			ExecutedAt:     nowFn(),
		})
	})
	if err != nil {
		return Response{}, err
	}
	return out, nil
}

// Move sends the cart to a world position and returns once the move has
// started.
func (u UseCase) Move(ctx context.Context, req MoveRequest) (MoveResponse, error) {
	target := grid.Point{X: req.X, Z: req.Z}
	cell, ok := u.geometry().WorldToCell(target)
	if !ok || req.Speed < 0 {
		return MoveResponse{}, ErrInvalidRequest
	}
	if req.Speed == 0 {
		req.Speed = defaultMoveSpeed
	}
	ack, err := u.World.MoveTo(ctx, ports.MoveRequest{Target: target, Speed: req.Speed, Smooth: req.Smooth})
	if err != nil {
		return MoveResponse{}, err
	}
	return MoveResponse{MoveID: ack.ID, Target: ack.Target, Cell: cell}, nil
}

func (u UseCase) UpgradeTool(ctx context.Context, req UpgradeRequest) (UpgradeResponse, error) {
	name := ledger.ToolName(strings.TrimSpace(string(req.Tool)))
	if name == "" || u.Tools == nil {
		return UpgradeResponse{}, ErrInvalidRequest
	}
	ok, err := u.Tools.UpgradeTool(ctx, name)
	if err != nil {
		return UpgradeResponse{}, err
	}
	return UpgradeResponse{Tool: name, Upgraded: ok}, nil
}

// Resupply restocks energy and seeds. At least one of them must be given.
func (u UseCase) Resupply(ctx context.Context, req ResupplyRequest) (ResupplyResponse, error) {
	if u.Supplies == nil || req.Energy < 0 || math.IsNaN(req.Energy) {
		return ResupplyResponse{}, ErrInvalidRequest
	}
	seeds := 0
	for kind, n := range req.Seeds {
		if !kind.Valid() || n < 0 || n > maxSeedRestock {
			return ResupplyResponse{}, ErrInvalidActionParams
		}
		seeds += n
	}
	if req.Energy == 0 && seeds == 0 {
		return ResupplyResponse{}, ErrInvalidRequest
	}
	state, err := u.Supplies.Resupply(ctx, req.Energy, req.Seeds)
	if err != nil {
		return ResupplyResponse{}, err
	}
	return ResupplyResponse{Resources: state}, nil
}

func (u UseCase) geometry() grid.Geometry {
	if u.Geometry.Size <= 0 {
		return grid.DefaultGeometry()
	}
	return u.Geometry
}

func hasValidParams(req Request) bool {
	switch req.Kind {
	case farm.ActionPlant:
		return req.Crop == "" || req.Crop.Valid()
	default:
		return req.Crop == ""
	}
}
