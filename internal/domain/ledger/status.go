package ledger

import (
	"fmt"

	"farmbot/internal/domain/farm"
)

type Level string

const (
	LevelOK       Level = "ok"
	LevelLow      Level = "low"
	LevelCritical Level = "critical"
)

type Status struct {
	Energy          Level    `json:"energy"`
	Coins           Level    `json:"coins"`
	Warnings        []string `json:"warnings"`
	Recommendations []string `json:"recommendations"`
}

func (l *Ledger) Status() Status {
	s := Status{Energy: LevelOK, Coins: LevelOK}
	switch {
	case l.energy < CriticalEnergyThreshold:
		s.Energy = LevelCritical
		s.Warnings = append(s.Warnings, fmt.Sprintf("energy critical: %.1f", l.energy))
		s.Recommendations = append(s.Recommendations, "pause work until energy regenerates")
	case l.energy < LowEnergyThreshold:
		s.Energy = LevelLow
		s.Warnings = append(s.Warnings, fmt.Sprintf("energy low: %.1f", l.energy))
		s.Recommendations = append(s.Recommendations, "prioritize high-value tasks")
	}
	if l.coins < LowCoinsThreshold {
		s.Coins = LevelLow
		s.Warnings = append(s.Warnings, fmt.Sprintf("coins low: %d", l.coins))
		s.Recommendations = append(s.Recommendations, "harvest mature crops before planting")
	}
	for _, k := range farm.Kinds {
		if n := l.seeds[k]; n < LowSeedsThreshold {
			s.Warnings = append(s.Warnings, fmt.Sprintf("%s seeds low: %d", k, n))
		}
	}
	for _, name := range ToolNames {
		t := l.tools[name]
		switch {
		case t.Durability <= 0:
			s.Warnings = append(s.Warnings, fmt.Sprintf("%s broken", name))
			s.Recommendations = append(s.Recommendations, fmt.Sprintf("repair %s for %d coins", name, l.RepairCost(name)))
		case t.Durability < LowDurabilityThreshold:
			s.Warnings = append(s.Warnings, fmt.Sprintf("%s durability low: %d", name, t.Durability))
		}
		if cost, ok := l.UpgradeCost(name); ok && l.coins >= cost*2 {
			s.Recommendations = append(s.Recommendations, fmt.Sprintf("upgrade %s to level %d for %d coins", name, t.Level+1, cost))
		}
	}
	return s
}
