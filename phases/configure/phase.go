// Package configure resolves every container parameter from overrides or
// operator answers and publishes the resulting vmconfig.Config.
package configure

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/log"

	"github.com/BrianJOC/nspawn-vm-prep/params"
	"github.com/BrianJOC/nspawn-vm-prep/phases"
	"github.com/BrianJOC/nspawn-vm-prep/vmconfig"
)

const (
	// PhaseID is also the namespace operator answers are stored under.
	PhaseID = "configure"

	// ContextKeyConfig holds the resolved vmconfig.Config.
	ContextKeyConfig = "configure:config"

	contextKeyEchoed = "configure:echoed"
)

// EchoFunc receives the NAME=value confirmation for each resolved parameter.
type EchoFunc func(line string, source params.Source)

// Phase walks the parameter table in order, skipping parameters whose
// governing boolean is false.
type Phase struct {
	resolver *params.Resolver
	echo     EchoFunc
	logger   *log.Logger
}

// New builds the phase around the override source env.
func New(env params.Env) *Phase {
	return &Phase{
		resolver: params.NewResolver(env),
		echo:     func(string, params.Source) {},
		logger:   log.New(io.Discard),
	}
}

// WithEcho sets where confirmations go.
func (p *Phase) WithEcho(fn EchoFunc) *Phase {
	if fn != nil {
		p.echo = fn
	}
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
	table := vmconfig.Params()
	inputs := make([]phases.InputDefinition, 0, len(table))
	for _, param := range table {
		inputs = append(inputs, Definition(param.Spec))
	}
	return phases.PhaseMetadata{
		ID:          PhaseID,
		Title:       "Configure VM",
		Description: "Resolve VM parameters from the environment or by asking.",
		Inputs:      inputs,
		Tags:        []string{"input"},
	}
}

func (p *Phase) Run(_ context.Context, phaseCtx *phases.Context) error {
	b := vmconfig.NewBuilder()
	for _, param := range vmconfig.Params() {
		if !b.Applies(param) {
			continue
		}
		name := param.Spec.Name

		var answer *string
		if raw, ok := phases.InputString(phaseCtx, PhaseID, name); ok {
			answer = &raw
		}

		v, source, err := p.resolver.Resolve(param.Spec, answer)
		if err != nil {
			var needs params.NeedsInputError
			var parseErr params.ParseError
			switch {
			case errors.As(err, &needs):
				return phases.InputRequestError{PhaseID: PhaseID, Input: Definition(param.Spec)}
			case source == params.SourceInteractive && errors.As(err, &parseErr):
				phases.ClearInput(phaseCtx, PhaseID, name)
				return phases.InputRequestError{PhaseID: PhaseID, Input: Definition(param.Spec), Reason: parseErr.Reason}
			default:
				return err
			}
		}

		b.Set(param, v)
		p.echoOnce(phaseCtx, param.Spec, v, source)
	}

	phaseCtx.Set(ContextKeyConfig, b.Build())
	return nil
}

func (p *Phase) echoOnce(phaseCtx *phases.Context, spec params.Spec, v params.Value, source params.Source) {
	echoed, _ := phaseCtx.Get(contextKeyEchoed)
	seen, ok := echoed.(map[string]struct{})
	if !ok {
		seen = make(map[string]struct{})
		phaseCtx.Set(contextKeyEchoed, seen)
	}
	if _, done := seen[spec.Name]; done {
		return
	}
	seen[spec.Name] = struct{}{}
	p.logger.Debug("resolved parameter", "name", spec.Name, "source", source)
	p.echo(params.Echo(spec, v), source)
}

// Definition describes spec as an operator input.
func Definition(spec params.Spec) phases.InputDefinition {
	def := phases.InputDefinition{
		ID:      spec.Name,
		Label:   spec.Prompt,
		Default: spec.Default,
		Secret:  spec.Secret,
	}
	switch {
	case spec.Kind == params.KindBoolean:
		def.Kind = phases.InputKindBool
	case spec.Kind == params.KindInteger:
		def.Kind = phases.InputKindInt
	case spec.Kind == params.KindEnum:
		def.Kind = phases.InputKindSelect
		for _, c := range spec.Choices {
			def.Options = append(def.Options, phases.InputOption{Value: c, Label: c})
		}
	case spec.Secret:
		def.Kind = phases.InputKindSecret
	default:
		def.Kind = phases.InputKindText
	}
	return def
}

// ConfigFrom returns the configuration published by this phase.
func ConfigFrom(phaseCtx *phases.Context) (vmconfig.Config, error) {
	cfg, ok := phases.Lookup[vmconfig.Config](phaseCtx, ContextKeyConfig)
	if !ok {
		return vmconfig.Config{}, phases.ValidationError{Reason: "configure phase must complete first"}
	}
	return cfg, nil
}
