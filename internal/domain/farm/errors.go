package farm

import (
	"errors"
	"fmt"

	"farmbot/internal/domain/grid"
)

var (
	ErrNotFound = errors.New("plant not found")
	ErrNotReady = errors.New("plant not ready")
)

type NotReadyError struct {
	Cell    grid.Cell
	Variant Variant
	Reason  string
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("%s at %s: %s", e.Variant, e.Cell, e.Reason)
}

func (e *NotReadyError) Unwrap() error {
	return ErrNotReady
}

func notReady(c grid.Cell, p Plant, reason string) error {
	return &NotReadyError{Cell: c, Variant: p.Variant(), Reason: reason}
}
