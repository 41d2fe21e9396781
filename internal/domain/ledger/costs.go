package ledger

import (
	"math"

	"farmbot/internal/domain/farm"
)

var actionTools = map[farm.ActionKind]ToolName{
	farm.ActionWater:      ToolWateringCan,
	farm.ActionWeed:       ToolWeeder,
	farm.ActionScan:       ToolScanner,
	farm.ActionSoilDetect: ToolScanner,
	farm.ActionHarvest:    ToolHarvester,
}

// ToolFor returns the tool an action wears, if any.
func ToolFor(kind farm.ActionKind) (ToolName, bool) {
	t, ok := actionTools[kind]
	return t, ok
}

// ActionCost prices an action. For moves, distance scales the energy.
func (l *Ledger) ActionCost(kind farm.ActionKind, distance float64) Cost {
	base := l.cfg.Energy[kind]
	if kind == farm.ActionMove {
		base *= distance
	}
	cost := Cost{}
	eff := 1.0
	if tool, ok := actionTools[kind]; ok {
		cost.Tool = tool
		if t, ok := l.tools[tool]; ok && t.Efficiency > 0 {
			eff = t.Efficiency
		}
	}
	if base > 0 {
		cost.Energy = math.Max(MinActionEnergy, base/eff)
	}
	switch kind {
	case farm.ActionPlant:
		cost.Coins = l.cfg.PlantCost
	case farm.ActionFertilize:
		cost.Coins = l.cfg.FertilizeCost
	}
	return cost
}

type Projection struct {
	Energy      float64 `json:"energy"`
	Coins       int     `json:"coins"`
	Affordable  bool    `json:"affordable"`
	FailedAt    int     `json:"failed_at"`
	TotalEnergy float64 `json:"total_energy"`
}

// Simulate projects running actions in order without mutating the ledger.
// FailedAt is the index of the first unaffordable action, or -1.
func (l *Ledger) Simulate(actions []farm.ActionKind) Projection {
	p := Projection{Energy: l.energy, Coins: l.coins, Affordable: true, FailedAt: -1}
	for i, a := range actions {
		c := l.ActionCost(a, 1)
		if c.Energy > p.Energy || c.Coins > p.Coins {
			p.Affordable = false
			p.FailedAt = i
			break
		}
		p.Energy -= c.Energy
		p.Coins -= c.Coins
		p.TotalEnergy += c.Energy
	}
	return p
}
