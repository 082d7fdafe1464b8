// Package nspawnvm assembles the container provisioning phases in execution
// order.
package nspawnvm

import (
	"github.com/charmbracelet/log"

	"github.com/BrianJOC/nspawn-vm-prep/params"
	"github.com/BrianJOC/nspawn-vm-prep/phases"
	"github.com/BrianJOC/nspawn-vm-prep/phases/bootstrap"
	"github.com/BrianJOC/nspawn-vm-prep/phases/configure"
	"github.com/BrianJOC/nspawn-vm-prep/phases/host"
	"github.com/BrianJOC/nspawn-vm-prep/phases/inject"
	"github.com/BrianJOC/nspawn-vm-prep/phases/playbook"
	"github.com/BrianJOC/nspawn-vm-prep/phases/preflight"
	"github.com/BrianJOC/nspawn-vm-prep/phases/sshserver"
	"github.com/BrianJOC/nspawn-vm-prep/phases/useraccount"
	"github.com/BrianJOC/nspawn-vm-prep/phases/vnc"
	"github.com/BrianJOC/nspawn-vm-prep/pkg/phasedapp"
	ansiblepb "github.com/BrianJOC/nspawn-vm-prep/utils/ansibleplaybook"
)

// Deps are the collaborators shared by the phases.
type Deps struct {
	Host   host.Host
	Env    params.Env
	Echo   configure.EchoFunc
	Logger *log.Logger

	// Preflight replaces the default host check when set.
	Preflight       *preflight.Phase
	PlaybookOptions []ansiblepb.Option
}

// Bundle returns preflight, configure and the backend phases in order.
func Bundle(deps Deps) ([]phases.Phase, error) {
	pre := deps.Preflight
	if pre == nil {
		pre = preflight.New()
	}
	return phasedapp.NewBuilder().
		AddPhase(pre).
		AddPhase(configure.New(deps.Env).WithEcho(deps.Echo).WithLogger(deps.Logger)).
		AddPhase(bootstrap.New(deps.Host).WithLogger(deps.Logger)).
		AddPhase(inject.New(deps.Host).WithLogger(deps.Logger)).
		AddPhase(sshserver.New(deps.Host).WithLogger(deps.Logger)).
		AddPhase(useraccount.New(deps.Host).WithLogger(deps.Logger)).
		AddPhase(vnc.New(deps.Host).WithLogger(deps.Logger)).
		AddPhase(playbook.New(deps.Host).WithLogger(deps.Logger).WithOptions(deps.PlaybookOptions...)).
		Build()
}
