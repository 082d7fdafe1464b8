package vncconfig

import (
	"fmt"
	"strings"
)

// ValidationError captures invalid VNC settings.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("vnc validation failed: %s", e.Reason)
}

// CommandError wraps a failed step inside the container.
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
