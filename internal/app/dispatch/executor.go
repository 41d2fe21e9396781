package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"farmbot/internal/app/ports"
	"farmbot/internal/app/scheduler"
	"farmbot/internal/domain/farm"
	"farmbot/internal/domain/grid"
	"farmbot/internal/domain/ledger"
	"farmbot/internal/domain/planner"
	"farmbot/internal/domain/world"
)

var ErrHarvestNotQueued = errors.New("harvest tasks are dispatched by the harvest queue")

func cellID(c grid.Cell) string {
	return farm.PlantID(c)
}

// execute runs a generic scheduler task. Harvests are rejected here so that
// the harvest queue stays their only owner.
func (l *Loop) execute(ctx context.Context, t scheduler.Task, pos *grid.Point) error {
	if t.Type == scheduler.TaskHarvest {
		l.bump(func(s *Stats) { s.Errors++ })
		return ErrHarvestNotQueued
	}
	return l.run(ctx, t, pos)
}

func (l *Loop) run(ctx context.Context, t scheduler.Task, pos *grid.Point) (err error) {
	kind, ok := t.Type.Action()
	if !ok {
		l.bump(func(s *Stats) { s.Errors++ })
		return fmt.Errorf("%w: task type %q", ports.ErrInvalidArgument, t.Type)
	}

	l.emit(world.EventTaskStarted, map[string]any{"task_id": t.ID, "type": t.Type, "plant_id": t.PlantID})
	if l.deps.Simulator != nil {
		_ = l.deps.Simulator.SetCurrentTask(ctx, t.ID)
		defer func() { _ = l.deps.Simulator.SetCurrentTask(ctx, "") }()
	}

	res, err := l.perform(ctx, kind, t, pos)
	if err == nil && !res.Success {
		err = fmt.Errorf("%s on %s: %s", kind, t.PlantID, res.Message)
	}
	if err != nil {
		l.bump(func(s *Stats) { s.Errors++ })
		if l.deps.Metrics != nil {
			l.deps.Metrics.RecordTaskFailure(string(t.Type))
		}
		log.Printf("[DISPATCH] task %s %s dropped (%s): %v", t.Type, t.PlantID, classify(err), err)
		l.emit(world.EventTaskError, map[string]any{"task_id": t.ID, "type": t.Type, "plant_id": t.PlantID, "error": err.Error()})
		return err
	}

	l.bump(func(s *Stats) {
		s.TasksCompleted++
		switch t.Type {
		case scheduler.TaskWeedRemoval:
			s.WeedsRemoved++
		case scheduler.TaskHarvest:
			s.PlantsHarvested++
		case scheduler.TaskWatering:
			s.PlantsWatered++
		case scheduler.TaskFertilizing:
			s.PlantsFertilized++
		case scheduler.TaskPlanting:
			s.PlantsPlanted++
		case scheduler.TaskSoilPreparation:
			s.SoilPrepared++
		}
	})
	if l.deps.Metrics != nil {
		l.deps.Metrics.RecordTaskSuccess(string(t.Type))
	}
	l.emit(world.EventTaskCompleted, map[string]any{"task_id": t.ID, "type": t.Type, "plant_id": t.PlantID, "message": res.Message})
	return nil
}

// perform walks the robot next to the plant and applies kind to it.
func (l *Loop) perform(ctx context.Context, kind farm.ActionKind, t scheduler.Task, pos *grid.Point) (ports.ActionResult, error) {
	snap, err := l.deps.World.GetSnapshot(ctx)
	if err != nil {
		return ports.ActionResult{}, err
	}
	plant, ok := snap.Plant(t.PlantID)
	if !ok {
		return ports.ActionResult{}, fmt.Errorf("%w: plant %s", ports.ErrNotFound, t.PlantID)
	}
	stand, ok := l.planner.AdjacentStand(plant.Cell())
	if !ok {
		return ports.ActionResult{}, fmt.Errorf("%w: no free cell next to %s", planner.ErrUnreachable, plant.ID)
	}
	if err := l.walk(ctx, stand, pos); err != nil {
		return ports.ActionResult{}, err
	}

	l.emit(world.EventOperationStarted, map[string]any{"action": kind, "plant_id": plant.ID})
	res, err := l.deps.World.ExecuteAction(ctx, kind, plant.Cell(), ports.ActionParams{})
	if err != nil && l.repair(ctx, err) {
		res, err = l.deps.World.ExecuteAction(ctx, kind, plant.Cell(), ports.ActionParams{})
	}
	if err != nil {
		l.emit(world.EventOperationError, map[string]any{"action": kind, "plant_id": plant.ID, "error": err.Error()})
		return res, err
	}
	l.emit(world.EventOperationDone, map[string]any{"action": kind, "plant_id": plant.ID, "success": res.Success, "message": res.Message})
	return res, nil
}

// walk follows the planned path to stand, waiting at most MoveWait overall.
// An unconfirmed move is not an error; the action is attempted anyway.
func (l *Loop) walk(ctx context.Context, stand grid.Cell, pos *grid.Point) error {
	from, ok := l.deps.Geometry.WorldToCell(*pos)
	if !ok {
		from = stand
	}
	path, err := l.planner.AStar(from, stand)
	if err != nil {
		return fmt.Errorf("route %s -> %s: %w", from, stand, err)
	}
	waypoints := turningPoints(path)
	if len(waypoints) == 0 {
		return nil
	}

	deadline := time.NewTimer(l.cfg.MoveWait)
	defer deadline.Stop()
	for _, c := range waypoints {
		target := l.deps.Geometry.CellToWorld(c)
		ack, err := l.deps.World.MoveTo(ctx, ports.MoveRequest{Target: target, Speed: l.cfg.MoveSpeed, Smooth: l.cfg.SmoothMoves})
		if err != nil {
			return fmt.Errorf("move to %s: %w", c, err)
		}
		*pos = target
		select {
		case <-ack.Done:
		case <-deadline.C:
			log.Printf("[DISPATCH] move to %s not confirmed within %s, proceeding", stand, l.cfg.MoveWait)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// turningPoints drops the start cell and every cell that continues a straight
// run, leaving the corners and the goal.
func turningPoints(path []grid.Cell) []grid.Cell {
	if len(path) < 2 {
		return nil
	}
	var out []grid.Cell
	for i := 1; i < len(path)-1; i++ {
		dr1, dc1 := path[i].Row-path[i-1].Row, path[i].Col-path[i-1].Col
		dr2, dc2 := path[i+1].Row-path[i].Row, path[i+1].Col-path[i].Col
		if dr1 != dr2 || dc1 != dc2 {
			out = append(out, path[i])
		}
	}
	return append(out, path[len(path)-1])
}

// repair fixes a broken tool when err says one is worn out. It reports
// whether the action is worth retrying.
func (l *Loop) repair(ctx context.Context, err error) bool {
	if !l.cfg.AutoRepair || l.deps.Tools == nil {
		return false
	}
	var ie *ledger.InsufficientError
	if !errors.As(err, &ie) || ie.Resource != ledger.ResourceTool {
		return false
	}
	ok, rerr := l.deps.Tools.RepairTool(ctx, ledger.ToolName(ie.Name))
	if rerr != nil || !ok {
		log.Printf("[DISPATCH] cannot repair %s: ok=%v err=%v", ie.Name, ok, rerr)
		return false
	}
	l.bump(func(s *Stats) { s.ToolRepairs++ })
	log.Printf("[DISPATCH] repaired %s", ie.Name)
	return true
}

func classify(err error) string {
	switch {
	case errors.Is(err, ports.ErrNotFound), errors.Is(err, farm.ErrNotFound):
		return "not_found"
	case errors.Is(err, farm.ErrNotReady):
		return "not_ready"
	case errors.Is(err, ledger.ErrInsufficientResource):
		return "insufficient_resource"
	case errors.Is(err, planner.ErrUnreachable):
		return "unreachable"
	case errors.Is(err, ports.ErrTransient):
		return "transient"
	default:
		return "failed"
	}
}
