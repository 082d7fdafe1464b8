package rootfs

import "fmt"

// WriteError wraps a failed file injection.
type WriteError struct {
	Path string
	Err  error
}

func (e WriteError) Error() string {
	return fmt.Sprintf("inject %s failed: %v", e.Path, e.Err)
}

func (e WriteError) Unwrap() error {
	return e.Err
}

// ValidationError captures invalid injection inputs.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("rootfs: %s", e.Reason)
}
