package runtime

import (
	"context"
	"fmt"

	"farmbot/internal/app/ports"
	"farmbot/internal/domain/farm"
	"farmbot/internal/domain/grid"
	"farmbot/internal/domain/ledger"
	"farmbot/internal/domain/world"
)

const (
	scoreWaterCrop = 10
	scoreWaterWeed = -5
	scorePlant     = 10
)

type effect struct {
	result ports.ActionResult
	coins  int
	score  int
}

// ExecuteAction performs kind on cell. Energy, coins and tool wear are taken
// only when the lifecycle change happens; a NotReady target costs nothing.
func (p *Provider) ExecuteAction(ctx context.Context, kind farm.ActionKind, cell grid.Cell, params ports.ActionParams) (ports.ActionResult, error) {
	if !kind.Valid() {
		return ports.ActionResult{}, fmt.Errorf("%w: unknown action %q", ports.ErrInvalidArgument, kind)
	}
	var out ports.ActionResult
	err := p.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := p.field.At(cell); err != nil {
			return err
		}
		cost := p.ledger.ActionCost(kind, 0)
		if err := p.ledger.Check(cost); err != nil {
			return err
		}
		eff, err := p.apply(kind, cell, params)
		if err != nil {
			return err
		}
		if err := p.ledger.Consume(cost, fmt.Sprintf("%s %s", kind, farm.PlantID(cell))); err != nil {
			return err
		}
		p.ledger.Credit(eff.coins, fmt.Sprintf("%s %s", kind, farm.PlantID(cell)))
		p.score += eff.score

		out = eff.result
		if out.SideEffects == nil {
			out.SideEffects = map[string]any{}
		}
		out.SideEffects["energy_spent"] = cost.Energy
		if cost.Coins > 0 {
			out.SideEffects["coins_spent"] = cost.Coins
		}
		if eff.coins != 0 {
			out.SideEffects["coins_earned"] = eff.coins
		}
		if eff.score != 0 {
			out.SideEffects["score_change"] = eff.score
		}
		view, err := p.field.Inspect(cell)
		if err != nil {
			return err
		}
		out.Plant = &view
		if kind != farm.ActionScan && kind != farm.ActionSoilDetect {
			p.emit(world.EventPlantUpdated, map[string]any{
				"plant_id": view.ID,
				"action":   string(kind),
				"variant":  view.Variant,
				"stage":    view.GrowthStage,
			})
		}
		return nil
	})
	return out, err
}

func (p *Provider) apply(kind farm.ActionKind, c grid.Cell, params ports.ActionParams) (effect, error) {
	switch kind {
	case farm.ActionWater:
		o, err := p.field.Water(c)
		if err != nil {
			return effect{}, err
		}
		e := effect{score: scoreWaterCrop}
		if o.Became == farm.VariantWeed {
			e.score = scoreWaterWeed
		}
		msg := fmt.Sprintf("watered, now stage %d", o.Stage)
		if o.Germinated {
			msg = fmt.Sprintf("seed germinated into %s", o.Became)
		}
		e.result = ports.ActionResult{Success: true, Message: msg, SideEffects: map[string]any{
			"germinated": o.Germinated,
			"became":     o.Became,
			"stage":      o.Stage,
			"pest_count": o.PestCount,
		}}
		return e, nil

	case farm.ActionHarvest:
		o, err := p.field.Harvest(c)
		if err != nil {
			return effect{}, err
		}
		return effect{coins: o.Coins, score: o.Coins, result: ports.ActionResult{
			Success: true,
			Message: fmt.Sprintf("harvested %d %s (%s)", o.Yield, o.Kind, o.Quality),
			SideEffects: map[string]any{
				"kind":    o.Kind,
				"yield":   o.Yield,
				"quality": o.Quality,
			},
		}}, nil

	case farm.ActionWeed:
		o, err := p.field.RemoveWeed(c)
		if err != nil {
			return effect{}, err
		}
		if !o.Removed {
			return effect{score: o.Score, result: ports.ActionResult{
				Success:     false,
				Message:     "missed: crop damaged",
				SideEffects: map[string]any{"damage": o.Damage},
			}}, nil
		}
		return effect{coins: o.Coins, score: o.Score, result: ports.ActionResult{Success: true, Message: "weed removed"}}, nil

	case farm.ActionPlant:
		kind := params.Kind
		if !kind.Valid() || p.ledger.Seeds(kind) == 0 {
			kind = p.ledger.PreferredSeed()
		}
		if err := p.field.Sow(c, kind); err != nil {
			return effect{}, err
		}
		fromStock := p.ledger.TakeSeed(kind)
		return effect{score: scorePlant, result: ports.ActionResult{
			Success:     true,
			Message:     fmt.Sprintf("planted %s", kind),
			SideEffects: map[string]any{"kind": kind, "from_stock": fromStock},
		}}, nil

	case farm.ActionScan:
		v, err := p.field.Inspect(c)
		if err != nil {
			return effect{}, err
		}
		return effect{result: ports.ActionResult{
			Success: true,
			Message: fmt.Sprintf("%s at %s", v.Variant, c),
			SideEffects: map[string]any{
				"needs_water":      v.Variant == farm.VariantSeed || (v.Variant == farm.VariantCrop && v.Moisture < farm.WaterThreshold),
				"needs_fertilizer": v.Soil.Hungry(),
				"harvestable":      v.Harvestable(),
			},
		}}, nil

	case farm.ActionSoilDetect:
		r, err := p.field.SoilReport(c, p.env)
		if err != nil {
			return effect{}, err
		}
		return effect{result: ports.ActionResult{
			Success:     true,
			Message:     fmt.Sprintf("soil health %d/100 (%s)", r.Score, r.Rating),
			SideEffects: map[string]any{"report": r},
		}}, nil

	case farm.ActionSpray:
		o, err := p.field.SprayPesticide(c)
		if err != nil {
			return effect{}, err
		}
		return effect{coins: o.Coins, score: o.Coins, result: ports.ActionResult{
			Success:     true,
			Message:     fmt.Sprintf("cleared %d pests", o.Cleared),
			SideEffects: map[string]any{"cleared": o.Cleared, "healed": o.Healed},
		}}, nil

	case farm.ActionFertilize:
		s, err := p.field.Fertilize(c)
		if err != nil {
			return effect{}, err
		}
		return effect{result: ports.ActionResult{
			Success:     true,
			Message:     "soil fertilized",
			SideEffects: map[string]any{"soil": s},
		}}, nil

	case farm.ActionClear:
		if err := p.field.Clear(c); err != nil {
			return effect{}, err
		}
		return effect{result: ports.ActionResult{Success: true, Message: "dead plant cleared"}}, nil
	}
	return effect{}, fmt.Errorf("%w: unknown action %q", ports.ErrInvalidArgument, kind)
}

// MoveTo charges the travel energy and hands the move to the cart. It returns
// as soon as the move has started.
func (p *Provider) MoveTo(ctx context.Context, req ports.MoveRequest) (ports.MoveAck, error) {
	if _, ok := p.cfg.Geometry.WorldToCell(req.Target); !ok {
		return ports.MoveAck{}, fmt.Errorf("%w: target (%.2f, %.2f) outside the field", ports.ErrInvalidArgument, req.Target.X, req.Target.Z)
	}
	var ack ports.MoveAck
	err := p.RunInTx(ctx, func(ctx context.Context) error {
		dist := grid.Euclidean(p.cart.Pose().Point(), req.Target)
		if dist > 0 {
			if err := p.ledger.Consume(p.ledger.ActionCost(farm.ActionMove, dist), "move"); err != nil {
				return err
			}
		}
		m := p.cart.MoveTo(ctx, req.Target, req.Speed, req.Smooth)
		ack = ports.MoveAck{ID: m.ID, Target: m.Target, Done: m.Done()}
		return nil
	})
	return ack, err
}

func (p *Provider) RepairTool(ctx context.Context, name ledger.ToolName) (bool, error) {
	var ok bool
	err := p.RunInTx(ctx, func(context.Context) error {
		ok = p.ledger.RepairTool(name)
		return nil
	})
	return ok, err
}

// Resupply recharges energy up to the ledger maximum and adds seed stock.
func (p *Provider) Resupply(ctx context.Context, energy float64, seeds map[farm.CropKind]int) (ledger.State, error) {
	var state ledger.State
	err := p.RunInTx(ctx, func(context.Context) error {
		p.ledger.RestoreEnergy(energy)
		for kind, n := range seeds {
			p.ledger.AddSeeds(kind, n)
		}
		state = p.ledger.State()
		return nil
	})
	return state, err
}

func (p *Provider) UpgradeTool(ctx context.Context, name ledger.ToolName) (bool, error) {
	var ok bool
	err := p.RunInTx(ctx, func(context.Context) error {
		if _, known := p.ledger.Tool(name); !known {
			return fmt.Errorf("%w: tool %q", ports.ErrNotFound, name)
		}
		ok = p.ledger.UpgradeTool(name)
		return nil
	})
	return ok, err
}
