package hostconfig

import "fmt"

// LoadError wraps failures reading or decoding settings.
type LoadError struct {
	Path string
	Err  error
}

func (e LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load host settings: %v", e.Err)
	}
	return fmt.Sprintf("load host settings from %s: %v", e.Path, e.Err)
}

func (e LoadError) Unwrap() error {
	return e.Err
}

// ValidationError reports settings that failed validation.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("host settings: %s", e.Reason)
}
