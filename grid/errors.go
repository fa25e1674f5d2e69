package grid

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is wrapped by every *ConfigError.
	ErrInvalidConfig = errors.New("grid: invalid configuration")
	// ErrSteppingStarted is returned by ApplyPoissonCorrection once the grid
	// has been advanced.
	ErrSteppingStarted = errors.New("grid: stepping has already started")
	// ErrUnknownComponent is returned for a Component other than E, B or J.
	ErrUnknownComponent = errors.New("grid: unknown field component")
	// ErrIndexOutOfRange is returned by FieldAt for a cell outside the grid.
	ErrIndexOutOfRange = errors.New("grid: cell index out of range")
)

// ConfigError describes a rejected grid parameter.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("grid: invalid %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

func configErrorf(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
