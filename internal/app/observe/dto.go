package observe

import "farmbot/internal/domain/world"

type Request struct {
	// IncludeEmpty keeps empty cells in the returned plant list.
	IncludeEmpty bool
}

type FieldSummary struct {
	Empty       int      `json:"empty"`
	Seeds       int      `json:"seeds"`
	Crops       int      `json:"crops"`
	Weeds       int      `json:"weeds"`
	Dead        int      `json:"dead"`
	Harvestable []string `json:"harvestable"`
	Thirsty     []string `json:"thirsty"`
}

type Response struct {
	Snapshot           world.Snapshot     `json:"snapshot"`
	TimeOfDay          world.Phase        `json:"time_of_day"`
	NextPhaseInSeconds int                `json:"next_phase_in_seconds"`
	Field              FieldSummary       `json:"field"`
	ActionEnergy       map[string]float64 `json:"action_energy,omitempty"`
}
