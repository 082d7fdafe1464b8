// Package pkginstaller ensures Debian packages are present inside a container.
package pkginstaller

import (
	"context"
	"fmt"
	"strings"

	"github.com/BrianJOC/nspawn-vm-prep/utils/hostexec"
)

// Runner executes shell scripts inside the container as root.
type Runner interface {
	Run(ctx context.Context, script, stdin string) (stdout string, stderr string, err error)
}

// Result reports actions taken by Ensure.
type Result struct {
	Packages  []string
	Installed bool
	Skipped   bool
}

// Option configures Ensure behavior.
type Option func(*options) error

type options struct {
	checkCmd string
	force    bool
	update   bool
}

// WithCustomCheck overrides the command used to detect existing packages.
func WithCustomCheck(cmd string) Option {
	return func(opts *options) error {
		cmd = strings.TrimSpace(cmd)
		if cmd == "" {
			return OptionError{Reason: "custom check command must not be empty"}
		}
		opts.checkCmd = cmd
		return nil
	}
}

// WithForce installs even if the check passes.
func WithForce() Option {
	return func(opts *options) error {
		opts.force = true
		return nil
	}
}

// WithUpdate refreshes package lists before installing.
func WithUpdate() Option {
	return func(opts *options) error {
		opts.update = true
		return nil
	}
}

// Ensure installs the packages with apt-get when any is missing.
func Ensure(ctx context.Context, r Runner, packages []string, opts ...Option) (*Result, error) {
	if r == nil {
		return nil, RunnerError{}
	}

	names := make([]string, 0, len(packages))
	for _, p := range packages {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, ValidationError{Reason: "package name must not be empty"}
		}
		names = append(names, p)
	}
	if len(names) == 0 {
		return nil, ValidationError{Reason: "at least one package is required"}
	}

	config := options{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&config); err != nil {
			return nil, err
		}
	}

	result := &Result{Packages: names}
	if !config.force {
		checkCmd := config.checkCmd
		if checkCmd == "" {
			checkCmd = fmt.Sprintf("dpkg -s %s >/dev/null 2>&1", quoteAll(names))
		}
		if _, _, err := r.Run(ctx, checkCmd, ""); err == nil {
			result.Skipped = true
			return result, nil
		}
	}

	if err := runInstall(ctx, r, buildInstallCommand(names, config.update)); err != nil {
		return nil, err
	}

	result.Installed = true
	return result, nil
}

func buildInstallCommand(names []string, update bool) string {
	cmd := "export DEBIAN_FRONTEND=noninteractive\n"
	if update {
		cmd += "apt-get update -y\n"
	}
	return cmd + "apt-get install -y " + quoteAll(names)
}

func runInstall(ctx context.Context, r Runner, cmd string) error {
	_, stderr, err := r.Run(ctx, cmd, "")
	if err != nil {
		return CommandError{Step: "install", Err: err, Stderr: stderr}
	}
	return nil
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = hostexec.Quote(n)
	}
	return strings.Join(quoted, " ")
}
