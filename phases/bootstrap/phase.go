// Package bootstrap creates the container root filesystem with debootstrap.
package bootstrap

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-version"

	"github.com/BrianJOC/nspawn-vm-prep/phases"
	"github.com/BrianJOC/nspawn-vm-prep/phases/configure"
	"github.com/BrianJOC/nspawn-vm-prep/phases/host"
	"github.com/BrianJOC/nspawn-vm-prep/utils/debootstrap"
)

const phaseID = "bootstrap"

// Context keys published on success.
const (
	ContextKeyRootDir = "bootstrap:root_dir"
	ContextKeyVersion = "bootstrap:debootstrap_version"
)

// Phase runs debootstrap for the configured release.
type Phase struct {
	host   host.Host
	logger *log.Logger
	stat   func(string) (os.FileInfo, error)
}

// New constructs the bootstrap phase.
func New(h host.Host) *Phase {
	return &Phase{host: h, logger: log.New(io.Discard), stat: os.Stat}
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
		Title:       "Bootstrap root filesystem",
		Description: "Run debootstrap into the machines directory.",
	}
}

func (p *Phase) Run(ctx context.Context, phaseCtx *phases.Context) error {
	cfg, err := configure.ConfigFrom(phaseCtx)
	if err != nil {
		return err
	}
	settings := p.host.Settings
	rootDir := settings.MachineDir(cfg.Name)

	if _, err := p.stat(rootDir); err == nil {
		return MachineExistsError{Path: rootDir}
	}

	v, err := debootstrap.DetectVersion(ctx, p.host.Exec)
	if err != nil {
		return err
	}
	p.logger.Info("debootstrap version detected", "version", v.String())

	cacheDir := settings.CacheDir
	if cacheDir != "" && debootstrap.SupportsCacheDir(v) {
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			return err
		}
	}

	opts := debootstrap.Options{
		Arch:     settings.Arch,
		Include:  cfg.Packages(),
		CacheDir: cacheDir,
		Release:  cfg.Release,
		Target:   cfg.Name,
		Mirror:   settings.Mirror,
	}

	host.MarkCreated(phaseCtx)
	if err := debootstrap.Run(ctx, p.host.Exec, settings.MachinesDir, opts, v); err != nil {
		return err
	}

	phaseCtx.Set(ContextKeyRootDir, rootDir)
	phaseCtx.Set(ContextKeyVersion, v)
	return nil
}

// RootDirFrom returns the bootstrapped root directory.
func RootDirFrom(phaseCtx *phases.Context) (string, error) {
	dir, ok := phases.Lookup[string](phaseCtx, ContextKeyRootDir)
	if !ok || dir == "" {
		return "", phases.ValidationError{Reason: "bootstrap phase must complete first"}
	}
	return dir, nil
}

// VersionFrom returns the detected debootstrap version, if any.
func VersionFrom(phaseCtx *phases.Context) (*version.Version, bool) {
	v, ok := phases.Lookup[*version.Version](phaseCtx, ContextKeyVersion)
	return v, ok && v != nil
}
