package bootstrap

import "fmt"

// MachineExistsError refuses to bootstrap over an existing machine.
type MachineExistsError struct {
	Path string
}

func (e MachineExistsError) Error() string {
	return fmt.Sprintf("machine directory %s already exists", e.Path)
}
