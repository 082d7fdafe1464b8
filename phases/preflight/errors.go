package preflight

import "fmt"

// MissingDependencyError reports a host tool that is not installed.
type MissingDependencyError struct {
	Tool    string
	Package string
}

func (e MissingDependencyError) Error() string {
	return fmt.Sprintf("dependency not found: %s (install: apt-get install %s)", e.Tool, e.Package)
}

// InstallHint returns the command that installs the missing package.
func (e MissingDependencyError) InstallHint() string {
	return "apt-get install " + e.Package
}
