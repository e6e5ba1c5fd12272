package termcore

import (
	"errors"
	"fmt"
)

var (
	// ErrGuardConflict is returned by Acquire when a guard is already active.
	// The existing guard and the terminal state are left untouched.
	ErrGuardConflict = errors.New("termcore: a terminal guard is already active")

	// ErrFeatureUnavailable is returned when the terminal's capability
	// database has no sequence for the requested feature. The toggle becomes
	// a no-op; callers can treat this as a degraded mode rather than a
	// failure.
	ErrFeatureUnavailable = errors.New("termcore: terminal does not support feature")

	// ErrNotATerminal is returned when raw mode is requested but the input
	// device is not a terminal.
	ErrNotATerminal = errors.New("termcore: input is not a terminal")
)

// AttributeError wraps a failure to capture, apply, or restore terminal
// attributes. Op is one of "capture", "apply", or "restore".
type AttributeError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *AttributeError) Error() string {
	return fmt.Sprintf("termcore: %s terminal attributes: %v", e.Op, e.Err)
}

// Unwrap returns the underlying system error.
func (e *AttributeError) Unwrap() error {
	return e.Err
}

// FeatureWriteError wraps a failure to write a feature's enable or disable
// sequence to the terminal. The feature's recorded state is left unchanged
// because the sequence was not delivered.
type FeatureWriteError struct {
	Feature Feature
	Enable  bool // true if this was an enable attempt
	Err     error
}

// Error implements the error interface.
func (e *FeatureWriteError) Error() string {
	verb := "disable"
	if e.Enable {
		verb = "enable"
	}
	return fmt.Sprintf("termcore: %s %s: %v", verb, e.Feature, e.Err)
}

// Unwrap returns the underlying write error.
func (e *FeatureWriteError) Unwrap() error {
	return e.Err
}
