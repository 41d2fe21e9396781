package replay

import "farmbot/internal/domain/world"

type Request struct {
	Limit        int
	OccurredFrom int64
	OccurredTo   int64
	Types        []world.EventType
}

// Latest is what the returned events say about the robot, newest wins.
type Latest struct {
	Status        string   `json:"status,omitempty"`
	LastTaskID    string   `json:"last_task_id,omitempty"`
	LastTaskType  string   `json:"last_task_type,omitempty"`
	LastError     string   `json:"last_error,omitempty"`
	PlantsTouched []string `json:"plants_touched"`
}

type Response struct {
	Events []world.Event           `json:"events"`
	Counts map[world.EventType]int `json:"counts"`
	Latest Latest                  `json:"latest"`
}
