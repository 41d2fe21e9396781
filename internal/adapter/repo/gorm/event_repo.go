package gormrepo

import (
	"context"
	"encoding/json"
	"log"

	"farmbot/internal/adapter/repo/gorm/model"
	"farmbot/internal/app/ports"
	"farmbot/internal/domain/world"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventRepo struct {
	db *gorm.DB
}

func NewEventRepo(db *gorm.DB) EventRepo {
	return EventRepo{db: db}
}

func (r EventRepo) Append(ctx context.Context, events []world.Event) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]model.FarmEvent, 0, len(events))
	for _, e := range events {
		b, _ := json.Marshal(e.Payload)
		rows = append(rows, model.FarmEvent{
			EventID:    e.ID,
			Type:       string(e.Type),
			OccurredAt: e.OccurredAt,
			Payload:    b,
		})
	}
	return getDBFromCtx(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(&rows).Error
}

// Publish lets the repo hang off the event bus. Motion frames are not stored.
func (r EventRepo) Publish(e world.Event) {
	if e.Type == world.EventCartUpdate {
		return
	}
	if err := r.Append(context.Background(), []world.Event{e}); err != nil {
		log.Printf("[REPO] append event %s failed: %v", e.Type, err)
	}
}

func (r EventRepo) List(ctx context.Context, limit int) ([]world.Event, error) {
	rows := []model.FarmEvent{}
	query := getDBFromCtx(ctx, r.db).
		Clauses(clause.OrderBy{
			Columns: []clause.OrderByColumn{
				{Column: clause.Column{Name: "occurred_at"}, Desc: true},
				{Column: clause.Column{Name: "id"}, Desc: true},
			},
		})
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ports.ErrNotFound
	}

	out := make([]world.Event, 0, len(rows))
	for _, row := range rows {
		var payload map[string]any
		if len(row.Payload) > 0 {
			_ = json.Unmarshal(row.Payload, &payload)
		}
		out = append(out, world.Event{
			ID:         row.EventID,
			Type:       world.EventType(row.Type),
			OccurredAt: row.OccurredAt,
			Payload:    payload,
		})
	}
	return out, nil
}
