package ports

import (
	"context"

	"farmbot/internal/domain/farm"
	"farmbot/internal/domain/grid"
	"farmbot/internal/domain/ledger"
	"farmbot/internal/domain/world"
)

type ActionParams struct {
	Kind farm.CropKind `json:"kind,omitempty"`
}

type ActionResult struct {
	Success     bool           `json:"success"`
	Message     string         `json:"message"`
	SideEffects map[string]any `json:"side_effects,omitempty"`
	Plant       *farm.CellView `json:"plant,omitempty"`
}

type MoveRequest struct {
	Target grid.Point `json:"target"`
	Speed  float64    `json:"speed"`
	Smooth bool       `json:"smooth"`
}

// MoveAck is returned as soon as a move is accepted. Done is closed when the
// cart stops, whether it arrived or was superseded.
type MoveAck struct {
	ID     string          `json:"id"`
	Target grid.Point      `json:"target"`
	Done   <-chan struct{} `json:"-"`
}

// WorldGateway is the narrow mutation API over the farm world.
type WorldGateway interface {
	GetSnapshot(ctx context.Context) (world.Snapshot, error)
	ExecuteAction(ctx context.Context, kind farm.ActionKind, cell grid.Cell, params ActionParams) (ActionResult, error)
	MoveTo(ctx context.Context, req MoveRequest) (MoveAck, error)
}

type Simulator interface {
	Advance(ctx context.Context, dt float64) error
	SetCurrentTask(ctx context.Context, taskID string) error
}

type ToolService interface {
	RepairTool(ctx context.Context, name ledger.ToolName) (bool, error)
	UpgradeTool(ctx context.Context, name ledger.ToolName) (bool, error)
}

// SupplyService restocks the robot from outside the farm economy.
type SupplyService interface {
	Resupply(ctx context.Context, energy float64, seeds map[farm.CropKind]int) (ledger.State, error)
}

type EventSink interface {
	Publish(e world.Event)
}
