package debootstrap

import "fmt"

// VersionError reports that the installed debootstrap version could not be
// determined from its --version output.
type VersionError struct {
	Output string
	Err    error
}

func (e VersionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not detect debootstrap version: %v", e.Err)
	}
	return fmt.Sprintf("could not detect debootstrap version from %q", e.Output)
}

func (e VersionError) Unwrap() error {
	return e.Err
}

// ValidationError captures missing bootstrap options.
type ValidationError struct {
	Field string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("debootstrap: %s is required", e.Field)
}
