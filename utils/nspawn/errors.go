package nspawn

import "fmt"

// ValidationError captures invalid runner configuration.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("nspawn: %s", e.Reason)
}
