package hostexec

import (
	"fmt"
	"strings"
)

// ValidationError captures malformed commands.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("command validation failed: %s", e.Reason)
}

// CommandError wraps a failed host command. Command is the display form,
// so it never carries stdin contents.
type CommandError struct {
	Command  string
	ExitCode int
	Err      error
	Stderr   string
}

func (e CommandError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if stderr == "" {
		return fmt.Sprintf("%s failed: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s failed: %v (%s)", e.Command, e.Err, stderr)
}

func (e CommandError) Unwrap() error {
	return e.Err
}
