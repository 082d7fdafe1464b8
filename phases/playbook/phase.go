// Package playbook applies an Ansible playbook to the container root through
// the chroot connection.
package playbook

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/BrianJOC/nspawn-vm-prep/phases"
	"github.com/BrianJOC/nspawn-vm-prep/phases/bootstrap"
	"github.com/BrianJOC/nspawn-vm-prep/phases/configure"
	"github.com/BrianJOC/nspawn-vm-prep/phases/host"
	"github.com/BrianJOC/nspawn-vm-prep/phases/preflight"
	ansiblepb "github.com/BrianJOC/nspawn-vm-prep/utils/ansibleplaybook"
	"github.com/BrianJOC/nspawn-vm-prep/utils/hostexec"
)

const (
	phaseID = "playbook"
	binary  = "ansible-playbook"
)

// ContextKeyPlaybookPath records the playbook that was applied.
const ContextKeyPlaybookPath = "playbook:path"

// Runner executes the ansible playbook.
type Runner func(context.Context, ansiblepb.RunRequest, ...ansiblepb.Option) error

// Phase runs the configured playbook, if any.
type Phase struct {
	host     host.Host
	options  []ansiblepb.Option
	run      Runner
	lookPath preflight.LookPathFunc
	logger   *log.Logger
}

// New constructs the playbook phase.
func New(h host.Host) *Phase {
	return &Phase{
		host:     h,
		run:      ansiblepb.Run,
		lookPath: hostexec.LookPath,
		logger:   log.New(io.Discard),
	}
}

// WithRunner overrides the ansible playbook executor (useful for tests).
func (p *Phase) WithRunner(r Runner) *Phase {
	if r != nil {
		p.run = r
	}
	return p
}

// WithLookPath overrides binary resolution (for tests).
func (p *Phase) WithLookPath(fn preflight.LookPathFunc) *Phase {
	if fn != nil {
		p.lookPath = fn
	}
	return p
}

// WithOptions appends ansibleplaybook options applied during execution.
func (p *Phase) WithOptions(opts ...ansiblepb.Option) *Phase {
	p.options = append(p.options, opts...)
	return p
}

// WithLogger sets the diagnostics logger.
func (p *Phase) WithLogger(logger *log.Logger) *Phase {
	if logger != nil {
		p.logger = logger
	}
	return p
}

func (p *Phase) Metadata() phases.PhaseMetadata {
	return phases.PhaseMetadata{
		ID:          phaseID,
		Title:       "Run Ansible playbook",
		Description: "Apply a playbook to the container root through the chroot connection.",
	}
}

func (p *Phase) Run(ctx context.Context, phaseCtx *phases.Context) error {
	cfg, err := configure.ConfigFrom(phaseCtx)
	if err != nil {
		return err
	}
	if cfg.Playbook == "" {
		return phases.Skip("no playbook supplied")
	}
	rootDir, err := bootstrap.RootDirFrom(phaseCtx)
	if err != nil {
		return err
	}

	if _, err := p.lookPath(binary); err != nil {
		return preflight.MissingDependencyError{Tool: binary, Package: "ansible"}
	}
	if info, err := os.Stat(cfg.Playbook); err != nil || info.IsDir() {
		return phases.ValidationError{Reason: fmt.Sprintf("playbook %s is not a readable file", cfg.Playbook)}
	}

	req := ansiblepb.RunRequest{
		RootDir:      rootDir,
		PlaybookPath: cfg.Playbook,
		ExtraVars: map[string]any{
			"vm_name": cfg.Name,
			"vm_user": p.host.Settings.User,
		},
	}
	p.logger.Info("running playbook", "playbook", cfg.Playbook, "root", rootDir)
	if err := p.run(ctx, req, p.options...); err != nil {
		return fmt.Errorf("playbook phase: run ansible playbook: %w", err)
	}

	phaseCtx.Set(ContextKeyPlaybookPath, cfg.Playbook)
	return nil
}
