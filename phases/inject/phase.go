// Package inject writes configuration files into the bootstrapped root and
// the host-side nspawn unit.
package inject

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/BrianJOC/nspawn-vm-prep/phases"
	"github.com/BrianJOC/nspawn-vm-prep/phases/bootstrap"
	"github.com/BrianJOC/nspawn-vm-prep/phases/configure"
	"github.com/BrianJOC/nspawn-vm-prep/phases/host"
	"github.com/BrianJOC/nspawn-vm-prep/utils/rootfs"
)

const phaseID = "inject"

// ContextKeyFiles lists every path written, in order.
const ContextKeyFiles = "inject:files"

// Phase injects hostname, sudoers, sshd port, hosts entry and nspawn unit.
type Phase struct {
	host   host.Host
	logger *log.Logger
}

// New constructs the inject phase.
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
		Title:       "Inject configuration",
		Description: "Write hostname, sudoers, sshd port, hosts entry and the nspawn unit.",
	}
}

func (p *Phase) Run(_ context.Context, phaseCtx *phases.Context) error {
	cfg, err := configure.ConfigFrom(phaseCtx)
	if err != nil {
		return err
	}
	dir, err := bootstrap.RootDirFrom(phaseCtx)
	if err != nil {
		return err
	}
	root, err := rootfs.New(dir)
	if err != nil {
		return err
	}
	settings := p.host.Settings

	var written []string
	record := func(what, path string, err error) error {
		if err != nil {
			return err
		}
		p.logger.Info("injected "+what, "path", path)
		written = append(written, path)
		return nil
	}

	path, err := root.WriteHostname(cfg.Name)
	if err := record("hostname", path, err); err != nil {
		return err
	}
	path, err = root.WriteSudoer(settings.User)
	if err := record("sudoer", path, err); err != nil {
		return err
	}
	if cfg.SSHD {
		path, err = root.WriteSSHDPort(cfg.SSHDPort)
		if err := record("sshd port", path, err); err != nil {
			return err
		}
	}
	path, err = root.AppendHosts(cfg.Name)
	if err := record("hosts entry", path, err); err != nil {
		return err
	}
	path, err = rootfs.WriteUnit(settings.NspawnDir, cfg.Name, settings.PrivateUsers)
	if err := record("nspawn unit", path, err); err != nil {
		return err
	}

	phaseCtx.Set(ContextKeyFiles, written)
	return nil
}
