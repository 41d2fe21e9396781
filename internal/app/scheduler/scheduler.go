package scheduler

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"farmbot/internal/domain/farm"
	"farmbot/internal/domain/grid"
	"farmbot/internal/domain/ledger"
	"farmbot/internal/domain/planner"
	"farmbot/internal/domain/world"
)

type Status string

const (
	StatusReady     Status = "ready"
	StatusEnergyLow Status = "energy_low"
)

const (
	MaxWeedBatch       = 3
	MinPlantingCoins   = 10
	WateringMoisture   = 50.0
	WateringStaleAfter = 300.0
)

type Config struct {
	MinEnergy        float64
	MinPlantingCoins int
	MaxWeedBatch     int
	Now              func() time.Time
}

func DefaultConfig() Config {
	return Config{
		MinEnergy:        ledger.LowEnergyThreshold,
		MinPlantingCoins: MinPlantingCoins,
		MaxWeedBatch:     MaxWeedBatch,
		Now:              time.Now,
	}
}

type Scheduler struct {
	cfg Config
	geo grid.Geometry
}

func New(cfg Config, geo grid.Geometry) *Scheduler {
	def := DefaultConfig()
	if cfg.MinEnergy <= 0 {
		cfg.MinEnergy = def.MinEnergy
	}
	if cfg.MinPlantingCoins <= 0 {
		cfg.MinPlantingCoins = def.MinPlantingCoins
	}
	if cfg.MaxWeedBatch <= 0 {
		cfg.MaxWeedBatch = def.MaxWeedBatch
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Scheduler{cfg: cfg, geo: geo}
}

// Generate rescans the whole grid into a fresh, ordered task list. Harvests
// are never generated here; HarvestQueue owns them.
func (s *Scheduler) Generate(snap world.Snapshot) ([]Task, Status) {
	if snap.Robot.Energy < s.cfg.MinEnergy {
		return nil, StatusEnergyLow
	}
	now := s.cfg.Now()
	var tasks []Task
	add := func(t TaskType, p Priority, v farm.CellView) {
		tasks = append(tasks, Task{
			ID:        uuid.New().String(),
			Type:      t,
			Priority:  p,
			Target:    v.Cell(),
			PlantID:   v.ID,
			CreatedAt: now,
		})
	}
	for _, v := range snap.Plants {
		switch v.Variant {
		case farm.VariantWeed:
			add(TaskWeedRemoval, PriorityHigh, v)
		case farm.VariantSeed, farm.VariantCrop:
			if NeedsWatering(v) {
				add(TaskWatering, PriorityMedium, v)
			} else if NeedsFertilizer(v) {
				add(TaskFertilizing, PriorityMedium, v)
			}
		case farm.VariantDead:
			add(TaskSoilPreparation, PriorityLow, v)
		case farm.VariantEmpty:
			if snap.Robot.Coins >= s.cfg.MinPlantingCoins {
				add(TaskPlanting, PriorityLow, v)
			}
		}
	}
	return s.order(tasks, snap.Robot.Position), StatusReady
}

// order sorts by priority, then within each priority band by greedy
// nearest-neighbour from the robot's cell.
func (s *Scheduler) order(tasks []Task, robot grid.Point) []Task {
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Priority < tasks[j].Priority })
	start, ok := s.geo.WorldToCell(robot)
	if !ok {
		start = grid.Cell{}
	}
	out := make([]Task, 0, len(tasks))
	for i := 0; i < len(tasks); {
		j := i
		for j < len(tasks) && tasks[j].Priority == tasks[i].Priority {
			j++
		}
		band := tasks[i:j]
		cells := make([]grid.Cell, len(band))
		for k, t := range band {
			cells[k] = t.Target
		}
		for _, k := range planner.OptimizeOrder(start, cells) {
			out = append(out, band[k])
		}
		if len(band) > 0 {
			start = out[len(out)-1].Target
		}
		i = j
	}
	return out
}

// Select picks this cycle's work: up to MaxWeedBatch weed removals if any
// exist, otherwise the single most urgent task.
func (s *Scheduler) Select(tasks []Task) []Task {
	var weeds []Task
	for _, t := range tasks {
		if t.Type == TaskWeedRemoval {
			weeds = append(weeds, t)
			if len(weeds) == s.cfg.MaxWeedBatch {
				break
			}
		}
	}
	if len(weeds) > 0 {
		return weeds
	}
	if len(tasks) == 0 {
		return nil
	}
	return tasks[:1]
}

// NeedsWatering reports whether a seed or growing crop should be watered:
// a seed always, a crop when dry, stale or infested.
func NeedsWatering(v farm.CellView) bool {
	switch v.Variant {
	case farm.VariantSeed:
		return true
	case farm.VariantCrop:
		if v.GrowthStage >= farm.CropMaxStage {
			return false
		}
		return v.Moisture < WateringMoisture || v.SinceWatered > WateringStaleAfter || v.PestCount > 0
	default:
		return false
	}
}

func NeedsFertilizer(v farm.CellView) bool {
	if v.Variant != farm.VariantCrop && v.Variant != farm.VariantSeed {
		return false
	}
	return v.Soil.Hungry()
}
