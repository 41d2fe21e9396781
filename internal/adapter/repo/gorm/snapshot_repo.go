package gormrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"farmbot/internal/adapter/repo/gorm/model"
	"farmbot/internal/app/ports"
	"farmbot/internal/domain/world"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SnapshotRepo stores each farm snapshot as one jsonb value under a key.
type SnapshotRepo struct {
	db *gorm.DB
}

func NewSnapshotRepo(db *gorm.DB) SnapshotRepo {
	return SnapshotRepo{db: db}
}

func (r SnapshotRepo) Save(ctx context.Context, key string, s world.Snapshot) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", key, err)
	}
	row := model.FarmSnapshot{
		Key:       key,
		Version:   int64(s.Version),
		Tick:      int64(s.Tick),
		Payload:   payload,
		UpdatedAt: time.Now(),
	}
	return getDBFromCtx(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"version", "tick", "payload", "updated_at"}),
	}).Create(&row).Error
}

func (r SnapshotRepo) Load(ctx context.Context, key string) (world.Snapshot, error) {
	var row model.FarmSnapshot
	if err := getDBFromCtx(ctx, r.db).Where("key = ?", key).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return world.Snapshot{}, ports.ErrNotFound
		}
		return world.Snapshot{}, err
	}
	var s world.Snapshot
	if err := json.Unmarshal(row.Payload, &s); err != nil {
		return world.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return s, nil
}
