package model

import (
	"errors"
	"fmt"
)

// Error kinds reported by every component. Callers match with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrCycleDetected   = errors.New("containment cycle detected")
	ErrAmbiguous       = errors.New("ambiguous")
)

// Specific errors.
var (
	ErrAlreadyCheckedOut = fmt.Errorf("item already checked out: %w", ErrConflict)
	ErrInvalidStatus     = fmt.Errorf("invalid inventory status: %w", ErrInvalidArgument)
)
