// Package host bundles what backend phases need from the provisioning host.
package host

import (
	"github.com/BrianJOC/nspawn-vm-prep/hostconfig"
	"github.com/BrianJOC/nspawn-vm-prep/phases"
	"github.com/BrianJOC/nspawn-vm-prep/utils/hostexec"
	"github.com/BrianJOC/nspawn-vm-prep/utils/nspawn"
)

// ContextKeyCreated is set once host state for the machine may exist, so
// callers know whether a cleanup recipe applies.
const ContextKeyCreated = "host:machine_created"

// Host is the executor and settings shared by backend phases.
type Host struct {
	Exec     hostexec.Executor
	Settings hostconfig.Settings
}

// Nspawn returns a root runner for machine.
func (h Host) Nspawn(machine string) (*nspawn.Runner, error) {
	return nspawn.New(h.Exec, machine,
		nspawn.WithPrivateUsers(h.Settings.PrivateUsers),
		nspawn.WithMachinesDir(h.Settings.MachinesDir),
	)
}

// MarkCreated records that machine state exists on the host.
func MarkCreated(phaseCtx *phases.Context) {
	phaseCtx.Set(ContextKeyCreated, true)
}

// Created reports whether MarkCreated ran.
func Created(phaseCtx *phases.Context) bool {
	created, _ := phases.Lookup[bool](phaseCtx, ContextKeyCreated)
	return created
}
