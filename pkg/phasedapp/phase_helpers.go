package phasedapp

import (
	"context"
	"fmt"

	"github.com/BrianJOC/nspawn-vm-prep/phases"
)

// PhaseFunc represents the work performed by a SimplePhase.
type PhaseFunc func(ctx context.Context, phaseCtx *phases.Context) error

// SimplePhase lets callers define phases with a metadata struct and a function
// instead of declaring a custom type for every phase.
type SimplePhase struct {
	meta phases.PhaseMetadata
	run  PhaseFunc
}

// NewPhase constructs a SimplePhase, panicking if metadata is missing an ID or
// the provided function is nil.
func NewPhase(meta phases.PhaseMetadata, run PhaseFunc) phases.Phase {
	if meta.ID == "" {
		panic("phasedapp: simple phase metadata must include an ID")
	}
	if run == nil {
		panic("phasedapp: simple phase requires a run function")
	}
	return SimplePhase{meta: meta, run: run}
}

func (p SimplePhase) Metadata() phases.PhaseMetadata {
	return p.meta
}

func (p SimplePhase) Run(ctx context.Context, phaseCtx *phases.Context) error {
	return p.run(ctx, phaseCtx)
}

// Builder composes an ordered phase list and rejects duplicate IDs.
type Builder struct {
	phases []phases.Phase
	seen   map[string]struct{}
	err    error
}

// NewBuilder constructs an empty Builder.
func NewBuilder() *Builder {
	return &Builder{seen: make(map[string]struct{})}
}

// AddPhase appends a phase, capturing duplicate/validation errors.
func (b *Builder) AddPhase(phase phases.Phase) *Builder {
	if phase == nil || b.err != nil {
		return b
	}
	meta := phase.Metadata()
	if meta.ID == "" {
		b.err = phases.ValidationError{Reason: "phase id must not be empty"}
		return b
	}
	if _, exists := b.seen[meta.ID]; exists {
		b.err = phases.DuplicatePhaseError{ID: meta.ID}
		return b
	}
	b.seen[meta.ID] = struct{}{}
	b.phases = append(b.phases, phase)
	return b
}

// AddPhases appends multiple phases, stopping early on error.
func (b *Builder) AddPhases(list ...phases.Phase) *Builder {
	for _, ph := range list {
		b.AddPhase(ph)
	}
	return b
}

// Build returns the accumulated phase slice or any captured error.
func (b *Builder) Build() ([]phases.Phase, error) {
	if b.err != nil {
		return nil, b.err
	}
	return append([]phases.Phase(nil), b.phases...), nil
}

// MustBundle builds phases from a bundle constructor, panicking on errors.
func MustBundle(build func() ([]phases.Phase, error)) []phases.Phase {
	list, err := build()
	if err != nil {
		panic(fmt.Sprintf("phasedapp: bundle failed: %v", err))
	}
	return list
}
