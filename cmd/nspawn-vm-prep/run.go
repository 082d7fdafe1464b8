package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/BrianJOC/nspawn-vm-prep/hostconfig"
	"github.com/BrianJOC/nspawn-vm-prep/params"
	"github.com/BrianJOC/nspawn-vm-prep/phases"
	"github.com/BrianJOC/nspawn-vm-prep/phases/configure"
	"github.com/BrianJOC/nspawn-vm-prep/phases/host"
	"github.com/BrianJOC/nspawn-vm-prep/phases/preflight"
	"github.com/BrianJOC/nspawn-vm-prep/pkg/console"
	"github.com/BrianJOC/nspawn-vm-prep/pkg/phasedapp"
	"github.com/BrianJOC/nspawn-vm-prep/pkg/phasedapp/bundles/nspawnvm"
	ansiblepb "github.com/BrianJOC/nspawn-vm-prep/utils/ansibleplaybook"
	"github.com/BrianJOC/nspawn-vm-prep/utils/debootstrap"
	"github.com/BrianJOC/nspawn-vm-prep/utils/hostexec"
)

// runner holds the process boundary so tests can swap it.
type runner struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	environ   params.Env
	terminal  func() bool
	newExec   func(opts ...hostexec.Option) hostexec.Executor
	preflight *preflight.Phase
	defaults  *hostconfig.Settings
}

func newRunner(stdin *os.File, stdout, stderr io.Writer) *runner {
	return &runner{
		stdin:    stdin,
		stdout:   stdout,
		stderr:   stderr,
		environ:  params.OSEnv(),
		terminal: func() bool { return console.IsInteractive(stdin) },
		newExec: func(opts ...hostexec.Option) hostexec.Executor {
			return hostexec.NewOS(opts...)
		},
	}
}

func (r *runner) run(ctx context.Context, opts options, flags *pflag.FlagSet) error {
	settings, err := hostconfig.Load(hostconfig.LoadOptions{
		ConfigFile: opts.configFile,
		Flags:      flags,
		Env:        true,
		Defaults:   r.defaults,
	})
	if err != nil {
		return err
	}

	env := r.environ
	if opts.envFile != "" {
		fileEnv, err := params.DotEnv(opts.envFile)
		if err != nil {
			return err
		}
		// The process environment beats the file.
		env = params.Layered(r.environ, fileEnv)
	}

	if opts.tui {
		return r.runTUI(ctx, opts, settings, env)
	}
	return r.runLines(ctx, opts, settings, env)
}

func newLogger(w io.Writer, level log.Level, verbose bool) *log.Logger {
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{Prefix: "nspawn-vm-prep", Level: level})
}

// runLines drives the pipeline over plain stdin/stdout.
func (r *runner) runLines(ctx context.Context, opts options, settings hostconfig.Settings, env params.Env) error {
	printer := console.NewPrinter(r.stdout)
	logger := newLogger(r.stderr, log.WarnLevel, opts.verbose)

	exec := r.newExec(
		hostexec.WithLogger(logger),
		hostexec.WithTrace(func(cmd hostexec.Command) { printer.Cyan("%s", cmd.String()) }),
		hostexec.WithOutput(r.stdout, r.stderr),
	)
	list, err := nspawnvm.Bundle(nspawnvm.Deps{
		Host:            host.Host{Exec: exec, Settings: settings},
		Env:             env,
		Echo:            func(line string, _ params.Source) { printer.Green("%s", line) },
		Logger:          logger,
		Preflight:       r.preflight,
		PlaybookOptions: []ansiblepb.Option{ansiblepb.WithStdout(r.stdout), ansiblepb.WithStderr(r.stderr)},
	})
	if err != nil {
		return err
	}

	managerOpts := []phases.ManagerOption{phases.WithObserver(console.NewObserver(printer))}
	if r.interactive(opts) {
		managerOpts = append(managerOpts, phases.WithInputHandler(console.NewPrompter(r.stdin, printer)))
	}
	manager := phases.NewManager(managerOpts...)
	if err := manager.Register(list...); err != nil {
		return err
	}

	phaseCtx := phases.NewContext()
	runErr := manager.Run(ctx, phaseCtx)
	report(printer, phaseCtx, settings, runErr)
	return runErr
}

// runTUI drives the pipeline through the Bubble Tea interface. Command output
// and diagnostics go to the phase panels instead of the terminal.
func (r *runner) runTUI(ctx context.Context, opts options, settings hostconfig.Settings, env params.Env) error {
	sink := phasedapp.NewLog()
	logger := newLogger(sink.Writer(), log.InfoLevel, opts.verbose)

	exec := r.newExec(
		hostexec.WithLogger(logger),
		hostexec.WithTrace(func(cmd hostexec.Command) { sink.Printf("$ %s", cmd.String()) }),
		hostexec.WithOutput(sink.Writer(), sink.Writer()),
	)
	list, err := nspawnvm.Bundle(nspawnvm.Deps{
		Host:            host.Host{Exec: exec, Settings: settings},
		Env:             env,
		Echo:            func(line string, _ params.Source) { sink.Printf("%s", line) },
		Logger:          logger,
		Preflight:       r.preflight,
		PlaybookOptions: []ansiblepb.Option{ansiblepb.WithStdout(sink.Writer()), ansiblepb.WithStderr(sink.Writer())},
	})
	if err != nil {
		return err
	}

	app, err := phasedapp.New(
		phasedapp.WithTitle("nspawn VM prep"),
		phasedapp.WithPhases(list...),
		phasedapp.WithLog(sink),
		phasedapp.WithReport(func(phaseCtx *phases.Context, runErr error) string {
			var buf bytes.Buffer
			report(console.NewPrinter(&buf), phaseCtx, settings, runErr)
			return strings.TrimRight(buf.String(), "\n")
		}),
		phasedapp.WithCleanup(func(phaseCtx *phases.Context) string {
			cfg, err := configure.ConfigFrom(phaseCtx)
			if err != nil || !host.Created(phaseCtx) {
				return ""
			}
			return strings.Join(console.RemovalCommands(cfg.Name, settings), "\n")
		}),
	)
	if err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		return err
	}

	// The TUI is gone; leave the outcome on the terminal.
	outcome := app.Outcome()
	if !outcome.Finished {
		return phasedapp.ErrInputCancelled
	}
	printer := console.NewPrinter(r.stdout)
	if outcome.Err != nil {
		printer.Red("%v", outcome.Err)
	}
	report(printer, outcome.Context, settings, outcome.Err)
	return outcome.Err
}

func (r *runner) interactive(opts options) bool {
	switch {
	case opts.nonInteractive:
		return false
	case opts.interactive:
		return true
	default:
		return r.terminal()
	}
}

// report prints the summary on success, or the install hint and cleanup
// recipe that apply to err.
func report(p *console.Printer, phaseCtx *phases.Context, settings hostconfig.Settings, err error) {
	cfg, cfgErr := configure.ConfigFrom(phaseCtx)
	if err == nil {
		if cfgErr == nil {
			console.Summary(p, cfg, settings)
		}
		return
	}

	var missing preflight.MissingDependencyError
	if errors.As(err, &missing) {
		p.Red("install: %s", missing.InstallHint())
	}
	var input phases.InputRequestError
	if errors.As(err, &input) {
		p.Red("%s is required; set it in the environment or run interactively", input.Input.ID)
	}
	if cfgErr == nil && host.Created(phaseCtx) {
		console.Cleanup(p, cfg.Name, settings)
	}
}

// exitCode maps a run error to the process status.
func exitCode(err error) int {
	var version debootstrap.VersionError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &version):
		return 2
	default:
		return 1
	}
}
