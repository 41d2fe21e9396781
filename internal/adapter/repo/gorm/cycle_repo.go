package gormrepo

import (
	"context"
	"time"

	"farmbot/internal/adapter/repo/gorm/model"
	"farmbot/internal/app/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CycleRepo struct {
	db *gorm.DB
}

func NewCycleRepo(db *gorm.DB) CycleRepo {
	return CycleRepo{db: db}
}

func (r CycleRepo) RecordCycle(ctx context.Context, rec ports.CycleRecord) error {
	row := model.DispatchCycle{
		Cycle:     int64(rec.Cycle),
		Tick:      int64(rec.Tick),
		State:     rec.State,
		Tasks:     int32(rec.Tasks),
		Completed: int32(rec.Completed),
		Errors:    int32(rec.Errors),
		Energy:    rec.Energy,
		Coins:     int32(rec.Coins),
		Score:     int32(rec.Score),
		StartedAt: rec.StartedAt,
		TookMs:    rec.Took.Milliseconds(),
	}
	return getDBFromCtx(ctx, r.db).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

func (r CycleRepo) RecentCycles(ctx context.Context, limit int) ([]ports.CycleRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows := []model.DispatchCycle{}
	err := getDBFromCtx(ctx, r.db).
		Clauses(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: "cycle"}, Desc: true}}}).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]ports.CycleRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.CycleRecord{
			Cycle:     uint64(row.Cycle),
			Tick:      uint64(row.Tick),
			State:     row.State,
			Tasks:     int(row.Tasks),
			Completed: int(row.Completed),
			Errors:    int(row.Errors),
			Energy:    row.Energy,
			Coins:     int(row.Coins),
			Score:     int(row.Score),
			StartedAt: row.StartedAt,
			Took:      time.Duration(row.TookMs) * time.Millisecond,
		})
	}
	return out, nil
}
