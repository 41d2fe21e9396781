package observe

import (
	"context"
	"time"

	"farmbot/internal/app/ports"
	"farmbot/internal/app/scheduler"
	"farmbot/internal/domain/farm"
	"farmbot/internal/domain/world"
)

type UseCase struct {
	World ports.WorldGateway
	Clock world.Clock
	// ActionEnergy is echoed to clients so they can price manual actions.
	ActionEnergy map[farm.ActionKind]float64
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	snap, err := u.World.GetSnapshot(ctx)
	if err != nil {
		return Response{}, err
	}
	phase, left := u.Clock.PhaseAt(time.Duration(snap.Elapsed * float64(time.Second)))

	field := summarize(snap.Plants)
	if !req.IncludeEmpty {
		kept := make([]farm.CellView, 0, len(snap.Plants))
		for _, p := range snap.Plants {
			if p.Variant != farm.VariantEmpty {
				kept = append(kept, p)
			}
		}
		snap.Plants = kept
	}

	var costs map[string]float64
	if len(u.ActionEnergy) > 0 {
		costs = make(map[string]float64, len(u.ActionEnergy))
		for k, v := range u.ActionEnergy {
			costs[string(k)] = v
		}
	}
	return Response{
		Snapshot:           snap,
		TimeOfDay:          phase,
		NextPhaseInSeconds: int(left.Seconds()),
		Field:              field,
		ActionEnergy:       costs,
	}, nil
}

func summarize(plants []farm.CellView) FieldSummary {
	s := FieldSummary{Harvestable: []string{}, Thirsty: []string{}}
	for _, p := range plants {
		switch p.Variant {
		case farm.VariantEmpty, "":
			s.Empty++
		case farm.VariantSeed:
			s.Seeds++
		case farm.VariantCrop:
			s.Crops++
		case farm.VariantWeed:
			s.Weeds++
		case farm.VariantDead:
			s.Dead++
		}
		if p.Harvestable() {
			s.Harvestable = append(s.Harvestable, p.ID)
		}
		if scheduler.NeedsWatering(p) {
			s.Thirsty = append(s.Thirsty, p.ID)
		}
	}
	return s
}
