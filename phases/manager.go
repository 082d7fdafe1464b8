package phases

import (
	"context"
	"errors"
	"fmt"
)

// Manager runs registered phases in order.
type Manager struct {
	phases       []Phase
	observers    []Observer
	inputHandler InputHandler
}

// ManagerOption mutates manager configuration.
type ManagerOption func(*Manager)

// WithObserver registers an observer to receive lifecycle events.
func WithObserver(obs Observer) ManagerOption {
	return func(m *Manager) {
		if obs == nil {
			return
		}
		m.observers = append(m.observers, obs)
	}
}

// WithInputHandler registers a handler to satisfy input requests. Without one,
// an InputRequestError fails the run.
func WithInputHandler(handler InputHandler) ManagerOption {
	return func(m *Manager) {
		if handler == nil {
			return
		}
		m.inputHandler = handler
	}
}

// NewManager constructs an empty Manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(m)
	}
	return m
}

// Register appends phases, returning an error on duplicate IDs.
func (m *Manager) Register(phases ...Phase) error {
	for _, p := range phases {
		if p == nil {
			continue
		}
		meta := p.Metadata()
		if meta.ID == "" {
			return ValidationError{Reason: "phase id must not be empty"}
		}
		if m.hasPhase(meta.ID) {
			return DuplicatePhaseError{ID: meta.ID}
		}
		m.phases = append(m.phases, p)
	}
	return nil
}

// Phases returns the metadata of registered phases in run order.
func (m *Manager) Phases() []PhaseMetadata {
	out := make([]PhaseMetadata, 0, len(m.phases))
	for _, p := range m.phases {
		out = append(out, p.Metadata())
	}
	return out
}

// Run executes all registered phases sequentially.
func (m *Manager) Run(ctx context.Context, phaseCtx *Context) error {
	return m.RunFrom(ctx, phaseCtx, 0)
}

// RunFrom executes phases starting at index start. Earlier phases are assumed
// to have already populated phaseCtx.
func (m *Manager) RunFrom(ctx context.Context, phaseCtx *Context, start int) error {
	if start < 0 || start > len(m.phases) {
		return ValidationError{Reason: fmt.Sprintf("start index %d out of range", start)}
	}
	if phaseCtx == nil {
		phaseCtx = NewContext()
	}
	for _, phase := range m.phases[start:] {
		if err := ctx.Err(); err != nil {
			return err
		}
		meta := phase.Metadata()
		m.notifyStart(meta)
		err := m.executePhase(ctx, phaseCtx, phase, meta)
		m.notifyComplete(meta, err)
		if err != nil && !IsSkipped(err) {
			return PhaseExecutionError{Phase: meta, Err: err}
		}
	}
	return nil
}

func (m *Manager) executePhase(ctx context.Context, phaseCtx *Context, phase Phase, meta PhaseMetadata) error {
	for {
		err := phase.Run(ctx, phaseCtx)
		if err == nil {
			return nil
		}
		var inputErr InputRequestError
		if !errors.As(err, &inputErr) || m.inputHandler == nil {
			return err
		}
		value, handlerErr := m.inputHandler.RequestInput(meta, inputErr.Input, inputErr.Reason)
		if handlerErr != nil {
			return handlerErr
		}
		phaseID := inputErr.PhaseID
		if phaseID == "" {
			phaseID = meta.ID
		}
		SetInput(phaseCtx, phaseID, inputErr.Input.ID, value)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (m *Manager) hasPhase(id string) bool {
	for _, p := range m.phases {
		if p.Metadata().ID == id {
			return true
		}
	}
	return false
}

func (m *Manager) notifyStart(meta PhaseMetadata) {
	for _, obs := range m.observers {
		obs.PhaseStarted(meta)
	}
}

func (m *Manager) notifyComplete(meta PhaseMetadata, err error) {
	for _, obs := range m.observers {
		obs.PhaseCompleted(meta, err)
	}
}
