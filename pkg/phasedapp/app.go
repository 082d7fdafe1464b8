// Package phasedapp runs a phases.Manager behind a Bubble Tea interface. The
// manager runs in a goroutine; observer events, input requests and log lines
// reach the model as messages.
package phasedapp

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/BrianJOC/nspawn-vm-prep/phases"
)

var (
	// ErrNoPhases indicates no phases were supplied when constructing an App.
	ErrNoPhases = errors.New("phasedapp: at least one phase must be registered")
	// ErrProgramRunning reports that Start was invoked while the program is already running.
	ErrProgramRunning = errors.New("phasedapp: program already running")
	// ErrInputCancelled is returned to the manager when the operator aborts a prompt.
	ErrInputCancelled = errors.New("phasedapp: input cancelled")
)

// ReportFunc renders text shown once the pipeline finishes.
type ReportFunc func(phaseCtx *phases.Context, err error) string

// CleanupFunc returns the manual cleanup recipe, or "" when nothing needs
// cleaning up.
type CleanupFunc func(phaseCtx *phases.Context) string

// Config controls how an App should be assembled.
type Config struct {
	Title          string
	Phases         []phases.Phase
	ManagerOptions []phases.ManagerOption
	ProgramOptions []tea.ProgramOption
	Report         ReportFunc
	Cleanup        CleanupFunc
	Log            *Log
}

// Option mutates Config during construction.
type Option func(*Config)

// WithTitle sets the header title.
func WithTitle(title string) Option {
	return func(cfg *Config) {
		cfg.Title = title
	}
}

// WithPhases sets the ordered phases the app should execute.
func WithPhases(list ...phases.Phase) Option {
	return func(cfg *Config) {
		cfg.Phases = append(cfg.Phases, list...)
	}
}

// WithManagerOptions appends custom manager options.
func WithManagerOptions(opts ...phases.ManagerOption) Option {
	return func(cfg *Config) {
		cfg.ManagerOptions = append(cfg.ManagerOptions, opts...)
	}
}

// WithProgramOptions appends tea.Program options.
func WithProgramOptions(opts ...tea.ProgramOption) Option {
	return func(cfg *Config) {
		cfg.ProgramOptions = append(cfg.ProgramOptions, opts...)
	}
}

// WithReport sets the text shown when the pipeline finishes.
func WithReport(fn ReportFunc) Option {
	return func(cfg *Config) {
		cfg.Report = fn
	}
}

// WithCleanup enables the copy-cleanup-recipe action.
func WithCleanup(fn CleanupFunc) Option {
	return func(cfg *Config) {
		cfg.Cleanup = fn
	}
}

// WithLog routes lines written to log into the phase panels.
func WithLog(log *Log) Option {
	return func(cfg *Config) {
		cfg.Log = log
	}
}

// Outcome is the state of the last pipeline run.
type Outcome struct {
	Context  *phases.Context
	Err      error
	Finished bool
}

// App hosts the Bubble Tea-driven phase runner.
type App struct {
	cfg      Config
	mu       sync.Mutex
	program  *tea.Program
	inFlight bool
	outcome  Outcome
}

// New constructs an App from the provided options.
func New(opts ...Option) (*App, error) {
	cfg := Config{Title: "nspawn VM prep"}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if len(cfg.Phases) == 0 {
		return nil, ErrNoPhases
	}
	if cfg.Log == nil {
		cfg.Log = NewLog()
	}
	return &App{cfg: cfg}, nil
}

// Start begins executing the TUI pipeline from the first registered phase.
func (a *App) Start(ctx context.Context) error {
	return a.start(ctx, 0)
}

// StartFrom begins executing the TUI pipeline from the provided phase index.
func (a *App) StartFrom(ctx context.Context, start int) error {
	if start < 0 {
		start = 0
	}
	return a.start(ctx, start)
}

// Stop signals the running TUI program (if any) to exit.
func (a *App) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.program == nil {
		return nil
	}
	a.program.Quit()
	return nil
}

// Outcome reports how the most recent pipeline run ended.
func (a *App) Outcome() Outcome {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.outcome
}

// Log returns the sink feeding the phase panels.
func (a *App) Log() *Log {
	return a.cfg.Log
}

func (a *App) record(phaseCtx *phases.Context, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.outcome = Outcome{Context: phaseCtx, Err: err, Finished: true}
}

func (a *App) start(ctx context.Context, start int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	model, err := newModel(a.cfg, start, ctx, a.record)
	if err != nil {
		return err
	}
	program := tea.NewProgram(model, a.cfg.ProgramOptions...)

	a.mu.Lock()
	if a.inFlight {
		a.mu.Unlock()
		return ErrProgramRunning
	}
	a.program = program
	a.inFlight = true
	a.outcome = Outcome{}
	a.mu.Unlock()

	a.cfg.Log.attach(program.Send)
	defer func() {
		a.cfg.Log.attach(nil)
		a.mu.Lock()
		a.program = nil
		a.inFlight = false
		a.mu.Unlock()
	}()

	_, runErr := program.Run()
	return runErr
}
