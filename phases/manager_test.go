package phases

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManagerRunsPhasesSequentially(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	phaseCtx := NewContext()

	var order []string
	phaseA := &fakePhase{
		meta: PhaseMetadata{ID: "preflight", Title: "Preflight", Description: "check host"},
		run: func(context.Context, *Context) error {
			order = append(order, "preflight")
			return nil
		},
	}
	phaseB := &fakePhase{
		meta: PhaseMetadata{ID: "configure", Title: "Configure", Description: "resolve parameters"},
		run: func(context.Context, *Context) error {
			order = append(order, "configure")
			return nil
		},
	}

	manager := NewManager()
	require.NoError(t, manager.Register(phaseA, phaseB))
	require.NoError(t, manager.Run(ctx, phaseCtx))
	require.Equal(t, []string{"preflight", "configure"}, order)
}

func TestManagerStopsOnError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	failErr := errors.New("boom")
	phase := &fakePhase{
		meta: PhaseMetadata{ID: "bootstrap"},
		run: func(context.Context, *Context) error {
			return failErr
		},
	}

	manager := NewManager()
	require.NoError(t, manager.Register(phase))
	err := manager.Run(ctx, nil)
	require.Error(t, err)
	var execErr PhaseExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, "bootstrap", execErr.Phase.ID)
	require.ErrorIs(t, err, failErr)
}

func TestManagerObserverNotifications(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var mu sync.Mutex
	var started []string
	var completed []string

	observer := ObserverFunc{
		OnStart: func(meta PhaseMetadata) {
			mu.Lock()
			defer mu.Unlock()
			started = append(started, meta.ID)
		},
		OnComplete: func(meta PhaseMetadata, err error) {
			mu.Lock()
			defer mu.Unlock()
			completed = append(completed, meta.ID)
		},
	}

	manager := NewManager(WithObserver(observer))
	require.NoError(t, manager.Register(&fakePhase{
		meta: PhaseMetadata{ID: "bootstrap"},
		run:  func(context.Context, *Context) error { return nil },
	}))
	require.NoError(t, manager.Run(ctx, nil))

	require.Equal(t, []string{"bootstrap"}, started)
	require.Equal(t, []string{"bootstrap"}, completed)
}

func TestManagerDetectsDuplicates(t *testing.T) {
	t.Parallel()

	manager := NewManager()
	err := manager.Register(&fakePhase{meta: PhaseMetadata{ID: "bootstrap"}}, &fakePhase{meta: PhaseMetadata{ID: "bootstrap"}})
	require.Error(t, err)
	require.IsType(t, DuplicatePhaseError{}, err)
}

func TestManagerHandlesInputRequest(t *testing.T) {
	t.Parallel()

	var attempts int
	phase := &fakePhase{
		meta: PhaseMetadata{ID: "configure"},
		run: func(ctx context.Context, c *Context) error {
			attempts++
			if val, ok := GetInput(c, "configure", "VMPASS"); ok && val != "" {
				return nil
			}
			return InputRequestError{
				PhaseID: "configure",
				Input: InputDefinition{
					ID:       "VMPASS",
					Label:    "Password",
					Kind:     InputKindSecret,
					Required: true,
				},
				Reason: "required",
			}
		},
	}

	handlerCalls := 0
	handler := InputHandlerFunc(func(meta PhaseMetadata, input InputDefinition, reason string) (any, error) {
		handlerCalls++
		require.Equal(t, "configure", meta.ID)
		require.Equal(t, "VMPASS", input.ID)
		return "secret", nil
	})

	manager := NewManager(WithInputHandler(handler))
	require.NoError(t, manager.Register(phase))
	err := manager.Run(context.Background(), NewContext())
	require.NoError(t, err)
	require.Equal(t, 2, attempts)
	require.Equal(t, 1, handlerCalls)
}

func TestManagerInputHandlerError(t *testing.T) {
	t.Parallel()

	phase := &fakePhase{
		meta: PhaseMetadata{ID: "configure"},
		run: func(context.Context, *Context) error {
			return InputRequestError{
				PhaseID: "configure",
				Input: InputDefinition{
					ID: "VMPASS",
				},
			}
		},
	}

	manager := NewManager(WithInputHandler(InputHandlerFunc(func(PhaseMetadata, InputDefinition, string) (any, error) {
		return nil, fmt.Errorf("user cancelled")
	})))

	require.NoError(t, manager.Register(phase))
	err := manager.Run(context.Background(), NewContext())
	require.Error(t, err)
	var execErr PhaseExecutionError
	require.ErrorAs(t, err, &execErr)
	require.ErrorContains(t, execErr, "user cancelled")
}

func TestManagerPropagatesInputRequestWithoutHandler(t *testing.T) {
	t.Parallel()

	phase := &fakePhase{
		meta: PhaseMetadata{ID: "configure"},
		run: func(context.Context, *Context) error {
			return InputRequestError{
				PhaseID: "configure",
				Input: InputDefinition{
					ID: "VMPASS",
				},
			}
		},
	}

	manager := NewManager()
	require.NoError(t, manager.Register(phase))
	err := manager.Run(context.Background(), NewContext())
	require.Error(t, err)
	var execErr PhaseExecutionError
	require.ErrorAs(t, err, &execErr)
	var inputErr InputRequestError
	require.ErrorAs(t, execErr.Err, &inputErr)
}

type fakePhase struct {
	meta PhaseMetadata
	run  func(context.Context, *Context) error
}

func (p *fakePhase) Metadata() PhaseMetadata {
	return p.meta
}

func (p *fakePhase) Run(ctx context.Context, c *Context) error {
	return p.run(ctx, c)
}

func TestManagerRunFromSkipsEarlierPhases(t *testing.T) {
	t.Parallel()

	var order []string
	mk := func(id string) Phase {
		return &fakePhase{
			meta: PhaseMetadata{ID: id},
			run: func(context.Context, *Context) error {
				order = append(order, id)
				return nil
			},
		}
	}

	manager := NewManager()
	require.NoError(t, manager.Register(mk("a"), mk("b"), mk("c")))
	require.NoError(t, manager.RunFrom(context.Background(), NewContext(), 1))
	require.Equal(t, []string{"b", "c"}, order)

	err := manager.RunFrom(context.Background(), NewContext(), 4)
	require.IsType(t, ValidationError{}, err)
	require.Len(t, manager.Phases(), 3)
}

func TestManagerTreatsSkipAsSuccess(t *testing.T) {
	t.Parallel()

	var completed []error
	manager := NewManager(WithObserver(ObserverFunc{
		OnComplete: func(_ PhaseMetadata, err error) { completed = append(completed, err) },
	}))
	ran := false
	require.NoError(t, manager.Register(
		&fakePhase{meta: PhaseMetadata{ID: "vnc"}, run: func(context.Context, *Context) error {
			return Skip("graphics disabled")
		}},
		&fakePhase{meta: PhaseMetadata{ID: "playbook"}, run: func(context.Context, *Context) error {
			ran = true
			return nil
		}},
	))
	require.NoError(t, manager.Run(context.Background(), nil))
	require.True(t, ran)
	require.Len(t, completed, 2)
	require.True(t, IsSkipped(completed[0]))
	require.NoError(t, completed[1])
}

func TestManagerStopsWhenContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	second := false
	manager := NewManager()
	require.NoError(t, manager.Register(
		&fakePhase{meta: PhaseMetadata{ID: "first"}, run: func(context.Context, *Context) error {
			cancel()
			return nil
		}},
		&fakePhase{meta: PhaseMetadata{ID: "second"}, run: func(context.Context, *Context) error {
			second = true
			return nil
		}},
	))
	err := manager.Run(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, second)
}

func TestClearInputAndInputString(t *testing.T) {
	t.Parallel()

	c := NewContext()
	SetInput(c, "configure", "VMSSHD", true)
	v, ok := InputString(c, "configure", "VMSSHD")
	require.True(t, ok)
	require.Equal(t, "1", v)

	SetInput(c, "configure", "VMDISPLAY", 5)
	v, _ = InputString(c, "configure", "VMDISPLAY")
	require.Equal(t, "5", v)

	ClearInput(c, "configure", "VMSSHD")
	_, ok = InputString(c, "configure", "VMSSHD")
	require.False(t, ok)
}

func TestLookupChecksType(t *testing.T) {
	t.Parallel()

	c := NewContext()
	c.Set("k", "value")
	s, ok := Lookup[string](c, "k")
	require.True(t, ok)
	require.Equal(t, "value", s)

	_, ok = Lookup[int](c, "k")
	require.False(t, ok)
	_, ok = Lookup[string](c, "missing")
	require.False(t, ok)
}
