package phases

import (
	"errors"
	"fmt"
)

// DuplicatePhaseError occurs when a phase with an existing ID is registered.
type DuplicatePhaseError struct {
	ID string
}

func (e DuplicatePhaseError) Error() string {
	return fmt.Sprintf("phase with id %q already registered", e.ID)
}

// ValidationError represents invalid manager/phase configuration.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("phase validation failed: %s", e.Reason)
}

// InputRequestError asks the manager to collect a value and re-run the phase.
// Reason is set when a previous answer was rejected.
type InputRequestError struct {
	PhaseID string
	Input   InputDefinition
	Reason  string
}

func (e InputRequestError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("phase %s requires input %s: %s", e.PhaseID, e.Input.ID, e.Reason)
	}
	return fmt.Sprintf("phase %s requires input %s", e.PhaseID, e.Input.ID)
}

// SkippedError reports a phase that had nothing to do. The manager treats it
// as success.
type SkippedError struct {
	Reason string
}

func (e SkippedError) Error() string {
	return "skipped: " + e.Reason
}

// Skip builds a SkippedError.
func Skip(format string, args ...any) error {
	return SkippedError{Reason: fmt.Sprintf(format, args...)}
}

// IsSkipped reports whether err marks a skipped phase.
func IsSkipped(err error) bool {
	var skipped SkippedError
	return errors.As(err, &skipped)
}

// PhaseExecutionError wraps failures emitted by a specific phase.
type PhaseExecutionError struct {
	Phase PhaseMetadata
	Err   error
}

func (e PhaseExecutionError) Error() string {
	return fmt.Sprintf("phase %s failed: %v", e.Phase.ID, e.Err)
}

func (e PhaseExecutionError) Unwrap() error {
	return e.Err
}
