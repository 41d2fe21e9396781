package action

import (
	"farmbot/internal/app/ports"
	"farmbot/internal/domain/farm"
	"farmbot/internal/domain/grid"
	"farmbot/internal/domain/ledger"
)

type Request struct {
	IdempotencyKey string
	Kind           farm.ActionKind
	Row            int
	Col            int
	Crop           farm.CropKind
}

type Response struct {
	Kind     farm.ActionKind    `json:"kind"`
	PlantID  string             `json:"plant_id"`
	Result   ports.ActionResult `json:"result"`
	Replayed bool               `json:"replayed"`
}

type MoveRequest struct {
	X      float64
	Z      float64
	Speed  float64
	Smooth bool
}

type MoveResponse struct {
	MoveID string     `json:"move_id"`
	Target grid.Point `json:"target"`
	Cell   grid.Cell  `json:"cell"`
}

type ResupplyRequest struct {
	Energy float64
	Seeds  map[farm.CropKind]int
}

type ResupplyResponse struct {
	Resources ledger.State `json:"resources"`
}

type UpgradeRequest struct {
	Tool ledger.ToolName
}

type UpgradeResponse struct {
	Tool     ledger.ToolName `json:"tool"`
	Upgraded bool            `json:"upgraded"`
}
