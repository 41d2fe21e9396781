package scheduler

import (
	"time"

	"farmbot/internal/domain/farm"
	"farmbot/internal/domain/grid"
)

type TaskType string

const (
	TaskWeedRemoval     TaskType = "weed_removal"
	TaskHarvest         TaskType = "harvest"
	TaskWatering        TaskType = "watering"
	TaskFertilizing     TaskType = "fertilizing"
	TaskPlanting        TaskType = "planting"
	TaskSoilPreparation TaskType = "soil_preparation"
)

// Action maps a task type onto the world action that carries it out.
func (t TaskType) Action() (farm.ActionKind, bool) {
	switch t {
	case TaskWeedRemoval:
		return farm.ActionWeed, true
	case TaskHarvest:
		return farm.ActionHarvest, true
	case TaskWatering:
		return farm.ActionWater, true
	case TaskFertilizing:
		return farm.ActionFertilize, true
	case TaskPlanting:
		return farm.ActionPlant, true
	case TaskSoilPreparation:
		return farm.ActionClear, true
	default:
		return "", false
	}
}

// Priority orders tasks; lower values run first.
type Priority int

const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityMedium
	PriorityLow
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	default:
		return "low"
	}
}

type Task struct {
	ID        string    `json:"id"`
	Type      TaskType  `json:"type"`
	Priority  Priority  `json:"priority"`
	Target    grid.Cell `json:"target"`
	PlantID   string    `json:"plant_id"`
	CreatedAt time.Time `json:"created_at"`
	Attempts  int       `json:"attempts"`
}
