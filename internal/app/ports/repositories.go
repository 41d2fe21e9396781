package ports

import (
	"context"
	"time"

	"farmbot/internal/domain/world"
)

type SnapshotRepository interface {
	Save(ctx context.Context, key string, s world.Snapshot) error
	Load(ctx context.Context, key string) (world.Snapshot, error)
}

type EventRepository interface {
	Append(ctx context.Context, events []world.Event) error
	List(ctx context.Context, limit int) ([]world.Event, error)
}

type CycleRecord struct {
	Cycle     uint64        `json:"cycle"`
	Tick      uint64        `json:"tick"`
	State     string        `json:"state"`
	Tasks     int           `json:"tasks"`
	Completed int           `json:"completed"`
	Errors    int           `json:"errors"`
	Energy    float64       `json:"energy"`
	Coins     int           `json:"coins"`
	Score     int           `json:"score"`
	StartedAt time.Time     `json:"started_at"`
	Took      time.Duration `json:"took_ns"`
}

type CycleIndex interface {
	RecordCycle(ctx context.Context, rec CycleRecord) error
}

// CycleReader lists recorded cycles, newest first.
type CycleReader interface {
	RecentCycles(ctx context.Context, limit int) ([]CycleRecord, error)
}

// ActionExecutionRecord remembers the outcome of a manual action so a retried
// request with the same idempotency key is answered without acting twice.
type ActionExecutionRecord struct {
	IdempotencyKey string
	Kind           string
	PlantID        string
	Result         ActionResult
	ExecutedAt     time.Time
}

type ActionExecutionRepository interface {
	GetByIdempotencyKey(ctx context.Context, key string) (*ActionExecutionRecord, error)
	SaveExecution(ctx context.Context, rec ActionExecutionRecord) error
}
