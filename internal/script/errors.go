package script

import (
	"errors"
	"fmt"
)

// Errors for script execution.
var (
	// ErrClosed is returned when running a script on a closed runtime.
	ErrClosed = errors.New("script runtime is closed")

	// ErrExecutionTimeout is returned when a script exceeds its time limit.
	ErrExecutionTimeout = errors.New("script execution timeout")

	// ErrUnsupportedValue is raised for Lua values that cannot be stored.
	ErrUnsupportedValue = errors.New("unsupported value")
)

// ScriptError reports a failed script run.
type ScriptError struct {
	Path string
	Err  error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script %s: %v", e.Path, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}
