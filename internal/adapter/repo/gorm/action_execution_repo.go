package gormrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"farmbot/internal/adapter/repo/gorm/model"
	"farmbot/internal/app/ports"

	"gorm.io/gorm"
)

type ActionExecutionRepo struct {
	db *gorm.DB
}

func NewActionExecutionRepo(db *gorm.DB) ActionExecutionRepo {
	return ActionExecutionRepo{db: db}
}

func (r ActionExecutionRepo) GetByIdempotencyKey(ctx context.Context, key string) (*ports.ActionExecutionRecord, error) {
	var m model.ActionExecution
	err := getDBFromCtx(ctx, r.db).
		Where(&model.ActionExecution{IdempotencyKey: key}).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	var res ports.ActionResult
	_ = json.Unmarshal(m.Result, &res)
	return &ports.ActionExecutionRecord{
		IdempotencyKey: m.IdempotencyKey,
		Kind:           m.Kind,
		PlantID:        m.PlantID,
		Result:         res,
		ExecutedAt:     m.ExecutedAt,
	}, nil
}

func (r ActionExecutionRepo) SaveExecution(ctx context.Context, rec ports.ActionExecutionRecord) error {
	b, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("marshal action result: %w", err)
	}
	m := model.ActionExecution{
		IdempotencyKey: rec.IdempotencyKey,
		Kind:           rec.Kind,
		PlantID:        rec.PlantID,
		Result:         b,
		ExecutedAt:     rec.ExecutedAt,
	}
	if err := getDBFromCtx(ctx, r.db).Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ports.ErrConflict
		}
		return err
	}
	return nil
}
