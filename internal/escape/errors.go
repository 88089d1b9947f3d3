package escape

import (
	"errors"
	"fmt"
)

// Domain errors for engine operations.
var (
	// ErrInvalidParameter indicates malformed dimensions, bounds or vector lengths.
	ErrInvalidParameter = errors.New("escape: invalid parameter")

	// ErrInvalidDisplayMode indicates an unrecognized display selection rule.
	ErrInvalidDisplayMode = errors.New("escape: invalid display mode")

	// ErrNotInitialized indicates stepping or display before an init call.
	ErrNotInitialized = errors.New("escape: engine not initialized")

	// ErrAlreadyInitialized indicates a second init call on the same engine.
	ErrAlreadyInitialized = errors.New("escape: engine already initialized")

	// ErrUnsupported indicates an option the chosen iteration mode does not accept.
	ErrUnsupported = errors.New("escape: unsupported option for iteration mode")
)

// InvalidParameterError names the offending construction parameter.
type InvalidParameterError struct {
	Field  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("escape: invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidParameterError) Unwrap() error {
	return ErrInvalidParameter
}

func invalidParam(field, format string, args ...any) error {
	return &InvalidParameterError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// InvalidDisplayModeError is returned by SelectDisplay for unknown modes.
// The engine is left untouched.
type InvalidDisplayModeError struct {
	Mode string
}

func (e *InvalidDisplayModeError) Error() string {
	return fmt.Sprintf("escape: invalid display mode %q (valid: %v)", e.Mode, DisplayModes())
}

func (e *InvalidDisplayModeError) Unwrap() error {
	return ErrInvalidDisplayMode
}
