// Package nspawn runs shell scripts inside a stopped container through
// systemd-nspawn.
package nspawn

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/BrianJOC/nspawn-vm-prep/utils/hostexec"
)

const binary = "systemd-nspawn"

// Runner executes /bin/sh scripts inside one container as one user.
type Runner struct {
	exec         hostexec.Executor
	machine      string
	user         string
	privateUsers string
	dir          string
}

// Option configures a Runner.
type Option func(*Runner)

// WithPrivateUsers sets the --private-users value (default "no").
func WithPrivateUsers(mode string) Option {
	return func(r *Runner) {
		if mode = strings.TrimSpace(mode); mode != "" {
			r.privateUsers = mode
		}
	}
}

// WithMachinesDir sets the directory holding machine roots. The container is
// booted from dir/machine instead of the systemd-nspawn search path.
func WithMachinesDir(dir string) Option {
	return func(r *Runner) {
		r.dir = strings.TrimSpace(dir)
	}
}

// New returns a Runner that acts as root inside machine.
func New(exec hostexec.Executor, machine string, opts ...Option) (*Runner, error) {
	if exec == nil {
		return nil, ValidationError{Reason: "executor is required"}
	}
	machine = strings.TrimSpace(machine)
	if machine == "" {
		return nil, ValidationError{Reason: "machine name is required"}
	}
	r := &Runner{exec: exec, machine: machine, user: "root", privateUsers: "no"}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// As returns a copy of the runner that acts as user.
func (r *Runner) As(user string) *Runner {
	cp := *r
	cp.user = user
	return &cp
}

// User reports who scripts run as.
func (r *Runner) User() string {
	return r.user
}

// RootDir returns the container root passed with --directory, or "" when the
// machine is looked up by name.
func (r *Runner) RootDir() string {
	if r.dir == "" {
		return ""
	}
	return filepath.Join(r.dir, r.machine)
}

// Command builds the host command for script without running it.
func (r *Runner) Command(script, stdin string) hostexec.Command {
	// --pipe: our stdin is never a TTY, and the default read-only console
	// would not forward it.
	args := []string{
		"--pipe",
		"--private-users=" + r.privateUsers,
		"--user=" + r.user,
		"--machine=" + r.machine,
	}
	if root := r.RootDir(); root != "" {
		args = append(args, "--directory="+root)
	}
	args = append(args, "/bin/sh", "-c", script)
	return hostexec.Command{
		Name:  binary,
		Args:  args,
		Dir:   r.dir,
		Stdin: stdin,
	}
}

// Run executes script inside the container. stdin is piped to the shell so
// secrets never appear in argv.
func (r *Runner) Run(ctx context.Context, script, stdin string) (string, string, error) {
	if strings.TrimSpace(script) == "" {
		return "", "", ValidationError{Reason: "script is required"}
	}
	res, err := r.exec.Run(ctx, r.Command(script, stdin))
	return res.Stdout, res.Stderr, err
}
