// Package phases runs the ordered provisioning pipeline. Phases share state
// through a Context and ask for operator input by returning InputRequestError.
package phases

import "context"

// Phase is a single provisioning step.
type Phase interface {
	Metadata() PhaseMetadata
	Run(ctx context.Context, phaseCtx *Context) error
}

// PhaseMetadata describes a phase to presentation layers.
type PhaseMetadata struct {
	ID          string
	Title       string
	Description string
	Inputs      []InputDefinition
	Tags        []string
}

// Observer receives lifecycle callbacks for each phase. A skipped phase
// completes with a SkippedError.
type Observer interface {
	PhaseStarted(meta PhaseMetadata)
	PhaseCompleted(meta PhaseMetadata, err error)
}

// ObserverFunc adapts a pair of functions into an Observer.
type ObserverFunc struct {
	OnStart    func(meta PhaseMetadata)
	OnComplete func(meta PhaseMetadata, err error)
}

// PhaseStarted implements Observer.
func (o ObserverFunc) PhaseStarted(meta PhaseMetadata) {
	if o.OnStart != nil {
		o.OnStart(meta)
	}
}

// PhaseCompleted implements Observer.
func (o ObserverFunc) PhaseCompleted(meta PhaseMetadata, err error) {
	if o.OnComplete != nil {
		o.OnComplete(meta, err)
	}
}

// InputDefinition describes one value a phase needs from the operator.
type InputDefinition struct {
	ID          string
	Label       string
	Description string
	Kind        InputKind
	Required    bool
	Secret      bool
	Options     []InputOption
	Default     any
}

// InputKind tells input handlers how to collect and render a value.
type InputKind string

const (
	InputKindText   InputKind = "text"
	InputKindSecret InputKind = "secret"
	InputKindSelect InputKind = "select"
	InputKindBool   InputKind = "bool"
	InputKindInt    InputKind = "int"
)

// InputOption is one choice of a select input.
type InputOption struct {
	Value       string
	Label       string
	Description string
}
