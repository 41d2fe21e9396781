package observe

import (
	"context"
	"errors"
	"fmt"

	"farmbot/internal/app/ports"
	"farmbot/internal/domain/farm"
	"farmbot/internal/domain/grid"
	"farmbot/internal/domain/planner"
)

var ErrInvalidRequest = errors.New("invalid observe request")

type RouteMode string

const (
	// RouteGreedy visits matching plants nearest-first from the robot.
	RouteGreedy RouteMode = "greedy"
	// RouteCoverage sweeps every free cell row by row.
	RouteCoverage RouteMode = "coverage"
)

type RouteRequest struct {
	Mode RouteMode
	// Variant limits a greedy route to one plant variant. Empty means every
	// occupied cell.
	Variant         farm.Variant
	HarvestableOnly bool
}

type RouteStop struct {
	PlantID  string       `json:"plant_id,omitempty"`
	Row      int          `json:"row"`
	Col      int          `json:"col"`
	Variant  farm.Variant `json:"variant"`
	Position grid.Point   `json:"position"`
}

type RouteResponse struct {
	Mode     RouteMode   `json:"mode"`
	Start    grid.Point  `json:"start"`
	Stops    []RouteStop `json:"stops"`
	Distance float64     `json:"distance"`
}

// RouteUseCase previews the order the robot would visit cells in. It never
// moves the robot.
type RouteUseCase struct {
	World   ports.WorldGateway
	Planner *planner.Planner
}

func (u RouteUseCase) Execute(ctx context.Context, req RouteRequest) (RouteResponse, error) {
	if req.Mode == "" {
		req.Mode = RouteGreedy
	}
	if req.Mode != RouteGreedy && req.Mode != RouteCoverage {
		return RouteResponse{}, fmt.Errorf("%w: unknown route mode %q", ErrInvalidRequest, req.Mode)
	}
	if !validVariant(req.Variant) {
		return RouteResponse{}, fmt.Errorf("%w: unknown variant %q", ErrInvalidRequest, req.Variant)
	}
	snap, err := u.World.GetSnapshot(ctx)
	if err != nil {
		return RouteResponse{}, err
	}
	p := u.Planner
	if p == nil {
		p = planner.New(grid.DefaultGeometry())
	}

	var cells []grid.Cell
	switch req.Mode {
	case RouteCoverage:
		cells = p.CoveragePath()
	default:
		cells = greedyCells(p.Geometry, snap.Robot.Position, snap.Plants, req)
	}

	resp := RouteResponse{Mode: req.Mode, Start: snap.Robot.Position, Stops: make([]RouteStop, 0, len(cells))}
	at := snap.Robot.Position
	for _, c := range cells {
		pos := p.Geometry.CellToWorld(c)
		stop := RouteStop{Row: c.Row, Col: c.Col, Variant: farm.VariantEmpty, Position: pos}
		if v, ok := snap.PlantAt(c); ok && v.Variant != farm.VariantEmpty && v.Variant != "" {
			stop.PlantID = v.ID
			stop.Variant = v.Variant
		}
		resp.Distance += grid.Euclidean(at, pos)
		at = pos
		resp.Stops = append(resp.Stops, stop)
	}
	return resp, nil
}

func greedyCells(geo grid.Geometry, start grid.Point, plants []farm.CellView, req RouteRequest) []grid.Cell {
	var (
		cells  []grid.Cell
		points []grid.Point
	)
	for _, v := range plants {
		if v.Variant == farm.VariantEmpty || v.Variant == "" {
			continue
		}
		if req.Variant != "" && v.Variant != req.Variant {
			continue
		}
		if req.HarvestableOnly && !v.Harvestable() {
			continue
		}
		cells = append(cells, v.Cell())
		points = append(points, geo.CellToWorld(v.Cell()))
	}
	out := make([]grid.Cell, 0, len(cells))
	for _, i := range planner.GreedyRoute(start, points) {
		out = append(out, cells[i])
	}
	return out
}

func validVariant(v farm.Variant) bool {
	switch v {
	case "", farm.VariantSeed, farm.VariantCrop, farm.VariantWeed, farm.VariantDead:
		return true
	}
	return false
}
