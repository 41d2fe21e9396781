package status

import (
	"farmbot/internal/app/dispatch"
	"farmbot/internal/domain/farm"
	"farmbot/internal/domain/ledger"
)

type Request struct {
	HistoryLimit int
	// Project lists actions to price against the current ledger.
	Project []farm.ActionKind
}

type Response struct {
	Dispatch   dispatch.Stats     `json:"dispatch"`
	Resources  ledger.State       `json:"resources"`
	Health     ledger.Status      `json:"health"`
	History    []ledger.Entry     `json:"history"`
	Projection *ledger.Projection `json:"projection,omitempty"`
}
