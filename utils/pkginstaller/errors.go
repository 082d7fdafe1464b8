package pkginstaller

import (
	"fmt"
	"strings"
)

// RunnerError indicates Ensure was invoked without a container runner.
type RunnerError struct{}

func (RunnerError) Error() string {
	return "runner is required"
}

// ValidationError captures invalid package inputs.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("package validation failed: %s", e.Reason)
}

// OptionError surfaces invalid installer options.
type OptionError struct {
	Reason string
}

func (e OptionError) Error() string {
	return fmt.Sprintf("installer option error: %s", e.Reason)
}

// CommandError wraps failed apt commands inside the container.
type CommandError struct {
	Step   string
	Err    error
	Stderr string
}

func (e CommandError) Error() string {
	return fmt.Sprintf("%s failed: %v (%s)", e.Step, e.Err, strings.TrimSpace(e.Stderr))
}

func (e CommandError) Unwrap() error {
	return e.Err
}
