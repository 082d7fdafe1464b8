package phasedapp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/BrianJOC/nspawn-vm-prep/phases"
)

const settle = time.Second

func TestNewRequiresPhases(t *testing.T) {
	t.Parallel()

	_, err := New()
	require.ErrorIs(t, err, ErrNoPhases)

	app, err := New(WithPhases(newStubPhase("preflight")))
	require.NoError(t, err)
	require.Equal(t, "nspawn VM prep", app.cfg.Title)
	require.NotNil(t, app.Log())
}

func TestAppRunsPipelineAndRecordsOutcome(t *testing.T) {
	t.Parallel()

	events := &eventLog{}
	marker := NewPhase(phases.PhaseMetadata{ID: "bootstrap", Title: "Bootstrap"},
		func(_ context.Context, phaseCtx *phases.Context) error {
			phaseCtx.Set("bootstrap:root_dir", "/var/lib/machines/vm1")
			return nil
		})
	vnc := NewPhase(phases.PhaseMetadata{ID: "vnc", Title: "VNC"},
		func(context.Context, *phases.Context) error { return phases.Skip("graphics disabled") })

	app := newTestApp(t,
		WithPhases(marker, vnc),
		WithManagerOptions(phases.WithObserver(events)),
	)
	errCh := startAsync(app, context.Background(), 0)
	waitFinished(t, app)

	outcome := app.Outcome()
	require.NoError(t, outcome.Err)
	root, ok := phases.Lookup[string](outcome.Context, "bootstrap:root_dir")
	require.True(t, ok)
	require.Equal(t, "/var/lib/machines/vm1", root)
	require.Equal(t, []string{
		"start:bootstrap", "done:bootstrap",
		"start:vnc", "skipped:vnc:graphics disabled",
	}, events.list())

	require.NoError(t, app.Stop())
	requireExited(t, errCh)
}

func TestFailureReachesReport(t *testing.T) {
	t.Parallel()

	type report struct {
		created bool
		err     error
	}
	reports := make(chan report, 1)

	created := NewPhase(phases.PhaseMetadata{ID: "bootstrap", Title: "Bootstrap"},
		func(_ context.Context, phaseCtx *phases.Context) error {
			phaseCtx.Set("host:machine_created", true)
			return nil
		})
	failing := NewPhase(phases.PhaseMetadata{ID: "useraccount", Title: "User account"},
		func(context.Context, *phases.Context) error { return errors.New("chpasswd: exit status 1") })

	app := newTestApp(t,
		WithPhases(created, failing),
		WithReport(func(phaseCtx *phases.Context, err error) string {
			flag, _ := phases.Lookup[bool](phaseCtx, "host:machine_created")
			reports <- report{created: flag, err: err}
			return "cleanup needed"
		}),
	)
	errCh := startAsync(app, context.Background(), 0)
	waitFinished(t, app)

	select {
	case got := <-reports:
		require.True(t, got.created)
		var phaseErr phases.PhaseExecutionError
		require.ErrorAs(t, got.err, &phaseErr)
		require.Equal(t, "useraccount", phaseErr.Phase.ID)
	case <-time.After(settle):
		t.Fatal("report was not rendered")
	}
	require.ErrorContains(t, app.Outcome().Err, "chpasswd")

	require.NoError(t, app.Stop())
	requireExited(t, errCh)
}

func TestStartFromResumesAtFailedPhase(t *testing.T) {
	t.Parallel()

	events := &eventLog{}
	app := newTestApp(t,
		WithPhases(newStubPhase("preflight"), newStubPhase("configure"), newStubPhase("bootstrap")),
		WithManagerOptions(phases.WithObserver(events)),
	)
	errCh := startAsync(app, context.Background(), 2)
	waitFinished(t, app)

	require.Equal(t, []string{"start:bootstrap", "done:bootstrap"}, events.list())
	require.NoError(t, app.Stop())
	requireExited(t, errCh)
}

func TestStartFromBeyondEndRunsNothing(t *testing.T) {
	t.Parallel()

	events := &eventLog{}
	app := newTestApp(t,
		WithPhases(newStubPhase("preflight")),
		WithManagerOptions(phases.WithObserver(events)),
	)
	errCh := startAsync(app, context.Background(), 5)

	time.Sleep(50 * time.Millisecond)
	require.Empty(t, events.list())
	require.False(t, app.Outcome().Finished)

	require.NoError(t, app.Stop())
	requireExited(t, errCh)
}

func TestAppRejectsConcurrentStart(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	debootstrap := NewPhase(phases.PhaseMetadata{ID: "bootstrap", Title: "Bootstrap"},
		func(ctx context.Context, _ *phases.Context) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-release:
				return nil
			}
		})
	app := newTestApp(t, WithPhases(debootstrap))

	errCh := startAsync(app, context.Background(), 0)
	require.Eventually(t, func() bool {
		app.mu.Lock()
		defer app.mu.Unlock()
		return app.inFlight
	}, settle, 10*time.Millisecond)

	require.ErrorIs(t, app.Start(context.Background()), ErrProgramRunning)

	close(release)
	require.NoError(t, app.Stop())
	requireExited(t, errCh)
}

func TestCancelledRunQuits(t *testing.T) {
	t.Parallel()

	blocking := NewPhase(phases.PhaseMetadata{ID: "bootstrap", Title: "Bootstrap"},
		func(ctx context.Context, _ *phases.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
	app := newTestApp(t, WithPhases(blocking))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := startAsync(app, ctx, 0)
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			require.ErrorIs(t, err, context.Canceled)
		}
	case <-time.After(settle):
		t.Fatal("start did not return after cancellation")
	}
	require.ErrorIs(t, app.Outcome().Err, context.Canceled)
}

func TestLogFollowsProgramLifetime(t *testing.T) {
	t.Parallel()

	sink := NewLog()
	chatty := NewPhase(phases.PhaseMetadata{ID: "inject", Title: "Inject"},
		func(context.Context, *phases.Context) error {
			sink.Printf("wrote %s", "/etc/hostname")
			_, err := io.WriteString(sink.Writer(), "$ systemd-nspawn --pipe\n")
			return err
		})
	app := newTestApp(t, WithPhases(chatty), WithLog(sink))
	require.Same(t, sink, app.Log())

	// Detached before start.
	sink.Printf("dropped")

	errCh := startAsync(app, context.Background(), 0)
	waitFinished(t, app)
	require.NoError(t, app.Outcome().Err)
	require.NoError(t, app.Stop())
	requireExited(t, errCh)

	sink.mu.Lock()
	attached := sink.send != nil
	sink.mu.Unlock()
	require.False(t, attached)
}

func newTestApp(t *testing.T, opts ...Option) *App {
	t.Helper()
	opts = append(opts, WithProgramOptions(
		tea.WithoutRenderer(),
		tea.WithInput(bytes.NewBuffer(nil)),
		tea.WithOutput(io.Discard),
	))
	app, err := New(opts...)
	require.NoError(t, err)
	return app
}

func newStubPhase(id string) phases.Phase {
	return NewPhase(phases.PhaseMetadata{ID: id, Title: id},
		func(context.Context, *phases.Context) error { return nil })
}

func startAsync(app *App, ctx context.Context, start int) chan error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.StartFrom(ctx, start)
	}()
	return errCh
}

func waitFinished(t *testing.T, app *App) {
	t.Helper()
	require.Eventually(t, func() bool { return app.Outcome().Finished }, settle, 10*time.Millisecond)
}

func requireExited(t *testing.T, errCh <-chan error) {
	t.Helper()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(settle):
		t.Fatal("app did not exit")
	}
}

// eventLog records phase progress as "start:ID", "done:ID",
// "skipped:ID:reason" or "failed:ID".
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (e *eventLog) PhaseStarted(meta phases.PhaseMetadata) {
	e.add("start:" + meta.ID)
}

func (e *eventLog) PhaseCompleted(meta phases.PhaseMetadata, err error) {
	var skipped phases.SkippedError
	switch {
	case err == nil:
		e.add("done:" + meta.ID)
	case errors.As(err, &skipped):
		e.add("skipped:" + meta.ID + ":" + skipped.Reason)
	default:
		e.add("failed:" + meta.ID)
	}
}

func (e *eventLog) add(event string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

func (e *eventLog) list() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.events...)
}
