package world

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTaskStarted       EventType = "auto_farm_task_started"
	EventTaskCompleted     EventType = "auto_farm_task_completed"
	EventTaskError         EventType = "auto_farm_task_error"
	EventOperationStarted  EventType = "operation_started"
	EventOperationDone     EventType = "operation_completed"
	EventOperationError    EventType = "operation_error"
	EventPlantUpdated      EventType = "plant_updated"
	EventCartUpdate        EventType = "cart_update"
	EventCartMoveCompleted EventType = "cart_movement_completed"
	EventStatusChanged     EventType = "status_changed"
)

type Event struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

func NewEvent(t EventType, payload map[string]any) Event {
	return Event{ID: uuid.New().String(), Type: t, OccurredAt: time.Now(), Payload: payload}
}
