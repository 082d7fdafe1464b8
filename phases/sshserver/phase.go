// Package sshserver installs openssh-server inside the container once the
// port fragment is in place.
package sshserver

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/BrianJOC/nspawn-vm-prep/phases"
	"github.com/BrianJOC/nspawn-vm-prep/phases/configure"
	"github.com/BrianJOC/nspawn-vm-prep/phases/host"
	"github.com/BrianJOC/nspawn-vm-prep/utils/pkginstaller"
)

const (
	phaseID = "sshserver"
	pkgName = "openssh-server"
)

// ContextKeyInstalled records whether apt-get actually ran.
const ContextKeyInstalled = "sshserver:installed"

// Phase installs the SSH server when enabled.
type Phase struct {
	host   host.Host
	logger *log.Logger
}

// New constructs the sshserver phase.
func New(h host.Host) *Phase {
	return &Phase{host: h, logger: log.New(io.Discard)}
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
		Title:       "Install SSH server",
		Description: "Install openssh-server inside the container.",
	}
}

func (p *Phase) Run(ctx context.Context, phaseCtx *phases.Context) error {
	cfg, err := configure.ConfigFrom(phaseCtx)
	if err != nil {
		return err
	}
	if !cfg.SSHD {
		return phases.Skip("SSH server not requested")
	}

	runner, err := p.host.Nspawn(cfg.Name)
	if err != nil {
		return err
	}
	res, err := pkginstaller.Ensure(ctx, runner, []string{pkgName})
	if err != nil {
		return err
	}
	p.logger.Info("ssh server ensured", "port", cfg.SSHDPort, "installed", res.Installed)
	phaseCtx.Set(ContextKeyInstalled, res.Installed)
	return nil
}
