package ports

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrTransient       = errors.New("transient")
	ErrInvalidArgument = errors.New("invalid argument")
)
