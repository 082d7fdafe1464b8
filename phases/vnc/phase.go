// Package vnc configures a TigerVNC display for the container user.
package vnc

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/BrianJOC/nspawn-vm-prep/phases"
	"github.com/BrianJOC/nspawn-vm-prep/phases/configure"
	"github.com/BrianJOC/nspawn-vm-prep/phases/host"
	"github.com/BrianJOC/nspawn-vm-prep/phases/useraccount"
	"github.com/BrianJOC/nspawn-vm-prep/utils/vncconfig"
)

const phaseID = "vnc"

// ContextKeyPort is the TCP port the display listens on.
const ContextKeyPort = "vnc:port"

// Phase registers the display and enables its unit.
type Phase struct {
	host   host.Host
	logger *log.Logger
}

// New constructs the vnc phase.
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
		Title:       "Configure VNC",
		Description: "Register the VNC display, store its password and enable the server unit.",
	}
}

func (p *Phase) Run(ctx context.Context, phaseCtx *phases.Context) error {
	cfg, err := configure.ConfigFrom(phaseCtx)
	if err != nil {
		return err
	}
	if !cfg.Graphics {
		return phases.Skip("graphical environment not requested")
	}
	session, err := cfg.SessionName()
	if err != nil {
		return err
	}

	user := p.host.Settings.User
	homeDir, _ := phases.Lookup[string](phaseCtx, useraccount.ContextKeyHomeDir)

	root, err := p.host.Nspawn(cfg.Name)
	if err != nil {
		return err
	}
	err = vncconfig.Configure(ctx, root, root.As(user), vncconfig.Settings{
		User:     user,
		HomeDir:  homeDir,
		Display:  cfg.Display,
		Session:  session,
		Geometry: cfg.Geometry,
		Password: cfg.Password,
	})
	if err != nil {
		return err
	}

	p.logger.Info("vnc display configured", "display", cfg.Display, "port", cfg.VNCPort())
	phaseCtx.Set(ContextKeyPort, cfg.VNCPort())
	return nil
}
