package phasedapp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BrianJOC/nspawn-vm-prep/phases"
)

func TestSimplePhase(t *testing.T) {
	t.Parallel()

	meta := phases.PhaseMetadata{ID: "demo", Title: "Demo"}
	phase := NewPhase(meta, func(_ context.Context, pc *phases.Context) error {
		pc.Set("demo:hit", true)
		return nil
	})

	ctx := phases.NewContext()
	require.NoError(t, phase.Run(context.Background(), ctx))

	hit, ok := phases.Lookup[bool](ctx, "demo:hit")
	require.True(t, ok)
	require.True(t, hit)
}

func TestBuilderDetectsDuplicates(t *testing.T) {
	t.Parallel()

	_, err := NewBuilder().
		AddPhase(SimplePhase{meta: phases.PhaseMetadata{ID: "one"}}).
		AddPhase(SimplePhase{meta: phases.PhaseMetadata{ID: "one"}}).
		Build()
	require.IsType(t, phases.DuplicatePhaseError{}, err)

	_, err = NewBuilder().AddPhase(SimplePhase{}).Build()
	require.IsType(t, phases.ValidationError{}, err)
}

func TestMustBundlePanics(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		MustBundle(func() ([]phases.Phase, error) {
			return NewBuilder().AddPhases(
				SimplePhase{meta: phases.PhaseMetadata{ID: "x"}},
				SimplePhase{meta: phases.PhaseMetadata{ID: "x"}},
			).Build()
		})
	})
}
