package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/BrianJOC/nspawn-vm-prep/phases"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := newRootCommand(newRunner(os.Stdin, os.Stdout, os.Stderr))
	err := cmd.ExecuteContext(ctx)
	cancel()

	// Phase failures were already shown by the observer.
	var phaseErr phases.PhaseExecutionError
	if err != nil && !errors.As(err, &phaseErr) {
		log.NewWithOptions(os.Stderr, log.Options{Prefix: "nspawn-vm-prep"}).Error(err)
	}
	os.Exit(exitCode(err))
}
