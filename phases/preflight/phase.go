// Package preflight verifies the host can provision containers before any
// parameter is asked for.
package preflight

import (
	"context"

	"github.com/BrianJOC/nspawn-vm-prep/phases"
	"github.com/BrianJOC/nspawn-vm-prep/utils/hostexec"
	"github.com/BrianJOC/nspawn-vm-prep/utils/privilege"
)

const phaseID = "preflight"

// ContextKeyTools maps each required tool to its resolved path.
const ContextKeyTools = "preflight:tools"

// Requirement names a host binary and the Debian package providing it.
type Requirement struct {
	Tool    string
	Package string
}

// DefaultRequirements are checked in order.
var DefaultRequirements = []Requirement{
	{Tool: "machinectl", Package: "systemd-container"},
	{Tool: "systemd-nspawn", Package: "systemd-container"},
	{Tool: "debootstrap", Package: "debootstrap"},
}

// LookPathFunc resolves a binary on PATH.
type LookPathFunc func(name string) (string, error)

// RootChecker verifies privileges.
type RootChecker interface {
	EnsureRoot() error
}

// Phase checks required tools and root privileges.
type Phase struct {
	lookPath     LookPathFunc
	root         RootChecker
	requirements []Requirement
}

// New constructs the preflight phase.
func New() *Phase {
	return &Phase{
		lookPath:     hostexec.LookPath,
		root:         privilege.NewChecker(),
		requirements: DefaultRequirements,
	}
}

// WithLookPath overrides binary resolution (for tests).
func (p *Phase) WithLookPath(fn LookPathFunc) *Phase {
	if fn != nil {
		p.lookPath = fn
	}
	return p
}

// WithRootChecker overrides the privilege check. A nil checker disables it.
func (p *Phase) WithRootChecker(c RootChecker) *Phase {
	p.root = c
	return p
}

func (p *Phase) Metadata() phases.PhaseMetadata {
	return phases.PhaseMetadata{
		ID:          phaseID,
		Title:       "Check host",
		Description: "Verify systemd-container and debootstrap are installed and we run as root.",
	}
}

func (p *Phase) Run(_ context.Context, phaseCtx *phases.Context) error {
	tools := make(map[string]string, len(p.requirements))
	for _, req := range p.requirements {
		path, err := p.lookPath(req.Tool)
		if err != nil {
			return MissingDependencyError{Tool: req.Tool, Package: req.Package}
		}
		tools[req.Tool] = path
	}
	if p.root != nil {
		if err := p.root.EnsureRoot(); err != nil {
			return err
		}
	}
	phaseCtx.Set(ContextKeyTools, tools)
	return nil
}
