package ledger

import "farmbot/internal/domain/farm"

const (
	LowEnergyThreshold      = 20.0
	CriticalEnergyThreshold = 10.0
	LowCoinsThreshold       = 10
	LowSeedsThreshold       = 2
	LowDurabilityThreshold  = 20
	MinActionEnergy         = 0.1
)

type Config struct {
	InitialEnergy         float64
	MaxEnergy             float64
	RegenPerSecond        float64
	InitialCoins          int
	InitialSeeds          map[farm.CropKind]int
	MaxDurability         int
	MaxToolLevel          int
	UpgradeBaseCost       int
	UpgradeEfficiencyStep float64
	RepairCostPerLevel    int
	PlantCost             int
	FertilizeCost         int
	HistoryLimit          int
	Energy                map[farm.ActionKind]float64
}

func DefaultConfig() Config {
	return Config{
		InitialEnergy:         100,
		MaxEnergy:             100,
		RegenPerSecond:        0.02,
		InitialCoins:          320,
		InitialSeeds:          map[farm.CropKind]int{farm.KindWheat: 10, farm.KindCorn: 5, farm.KindCarrot: 5, farm.KindTomato: 3},
		MaxDurability:         100,
		MaxToolLevel:          5,
		UpgradeBaseCost:       50,
		UpgradeEfficiencyStep: 1.1,
		RepairCostPerLevel:    10,
		PlantCost:             5,
		FertilizeCost:         2,
		HistoryLimit:          1000,
		Energy: map[farm.ActionKind]float64{
			farm.ActionPlant:      2,
			farm.ActionWater:      1,
			farm.ActionWeed:       1.5,
			farm.ActionHarvest:    3,
			farm.ActionScan:       0.2,
			farm.ActionSoilDetect: 0.2,
			farm.ActionSpray:      1,
			farm.ActionFertilize:  1,
			farm.ActionClear:      1.5,
			farm.ActionMove:       0.5,
		},
	}
}
