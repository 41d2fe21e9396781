package action

import (
	"context"
	"time"

	worldruntime "farmbot/internal/adapter/world/runtime"
	"farmbot/internal/app/motion"
	"farmbot/internal/app/ports"
	"farmbot/internal/domain/ledger"
)

type stubTools struct {
	upgraded []ledger.ToolName
	err      error
}

func (s *stubTools) RepairTool(context.Context, ledger.ToolName) (bool, error) {
	return true, nil
}

func (s *stubTools) UpgradeTool(_ context.Context, name ledger.ToolName) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.upgraded = append(s.upgraded, name)
	return true, nil
}

type stubActionRepo struct {
	byKey map[string]ports.ActionExecutionRecord
}

func (r *stubActionRepo) GetByIdempotencyKey(_ context.Context, key string) (*ports.ActionExecutionRecord, error) {
	rec, ok := r.byKey[key]
	if !ok {
		return nil, ports.ErrNotFound
	}
	copy := rec
	return &copy, nil
}

func (r *stubActionRepo) SaveExecution(_ context.Context, rec ports.ActionExecutionRecord) error {
	if r.byKey == nil {
		r.byKey = map[string]ports.ActionExecutionRecord{}
	}
	r.byKey[rec.IdempotencyKey] = rec
	return nil
}

func newWorld() *worldruntime.Provider {
	cfg := worldruntime.DefaultConfig()
	cfg.Seed = 11
	cfg.Drift = false
	cfg.Motion = motion.Config{Frame: time.Microsecond}
	return worldruntime.NewProvider(cfg)
}
