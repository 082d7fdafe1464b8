package params

import "fmt"

// SpecError reports a malformed parameter specification.
type SpecError struct {
	Name   string
	Reason string
}

func (e SpecError) Error() string {
	return fmt.Sprintf("parameter %s: invalid spec: %s", e.Name, e.Reason)
}

// ParseError indicates raw input could not be parsed for the parameter's kind.
// Reason is the short operator-facing diagnostic, e.g. "Invalid boolean".
type ParseError struct {
	Name   string
	Input  string
	Reason string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%s: %s: %q", e.Name, e.Reason, e.Input)
}

// OverrideError wraps a parse failure of a non-interactive override value.
type OverrideError struct {
	Name  string
	Value string
	Err   error
}

func (e OverrideError) Error() string {
	return fmt.Sprintf("override %s=%q rejected: %v", e.Name, e.Value, e.Err)
}

func (e OverrideError) Unwrap() error {
	return e.Err
}

// NeedsInputError signals that neither an override nor an answer is available.
type NeedsInputError struct {
	Name string
}

func (e NeedsInputError) Error() string {
	return fmt.Sprintf("parameter %s requires input", e.Name)
}

// EnvFileError wraps failures reading a dotenv override file.
type EnvFileError struct {
	Path string
	Err  error
}

func (e EnvFileError) Error() string {
	return fmt.Sprintf("read env file %s: %v", e.Path, e.Err)
}

func (e EnvFileError) Unwrap() error {
	return e.Err
}
