package console

import (
	"errors"

	"github.com/BrianJOC/nspawn-vm-prep/phases"
)

// Observer prints phase progress. It implements phases.Observer.
type Observer struct {
	printer *Printer
}

// NewObserver returns an Observer that writes through printer.
func NewObserver(printer *Printer) *Observer {
	return &Observer{printer: printer}
}

// PhaseStarted implements phases.Observer.
func (o *Observer) PhaseStarted(meta phases.PhaseMetadata) {
	o.printer.Plain("==> %s", meta.Title)
}

// PhaseCompleted implements phases.Observer.
func (o *Observer) PhaseCompleted(meta phases.PhaseMetadata, err error) {
	var skipped phases.SkippedError
	switch {
	case err == nil:
	case errors.As(err, &skipped):
		o.printer.Plain("    skipped: %s", skipped.Reason)
	default:
		o.printer.Red("%s failed: %v", meta.Title, err)
	}
}
