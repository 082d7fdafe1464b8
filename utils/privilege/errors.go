package privilege

import "fmt"

// NotRootError indicates the process lacks root privileges.
type NotRootError struct {
	UID int
}

func (e NotRootError) Error() string {
	return fmt.Sprintf("must run as root (effective uid %d); retry with sudo", e.UID)
}
