package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/BrianJOC/nspawn-vm-prep/phases"
)

const mask = "********"

// Prompter collects answers line by line. It implements phases.InputHandler.
type Prompter struct {
	in         *bufio.Reader
	printer    *Printer
	readSecret func() (string, error)
	headerFor  string

	// terminal is set when the operator's keystrokes are echoed back.
	terminal bool
}

// PrompterOption configures a Prompter.
type PrompterOption func(*Prompter)

// WithSecretReader replaces how secret answers are read.
func WithSecretReader(fn func() (string, error)) PrompterOption {
	return func(p *Prompter) {
		p.readSecret = fn
	}
}

// NewPrompter reads answers from in and writes prompts through printer.
// Secrets are read without echo when in is a terminal.
func NewPrompter(in io.Reader, printer *Printer, opts ...PrompterOption) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), printer: printer}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		p.terminal = true
		p.readSecret = func() (string, error) {
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(printer.Writer())
			return string(b), err
		}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// IsInteractive reports whether f is attached to a terminal.
func IsInteractive(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// RequestInput implements phases.InputHandler. The header is printed once
// per input; a non-empty reason means the previous answer was rejected.
func (p *Prompter) RequestInput(_ phases.PhaseMetadata, input phases.InputDefinition, reason string) (any, error) {
	if p.headerFor != input.ID {
		p.printer.Blue("%s", Header(input))
		p.headerFor = input.ID
	}
	if reason != "" {
		p.printer.Red("%s", reason)
	}
	p.printer.Prefix(input.ID + "=")

	if input.Secret && p.readSecret != nil {
		line, err := p.readSecret()
		if err != nil {
			return nil, err
		}
		return strings.TrimSpace(line), nil
	}

	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(p.printer.Writer())
			return nil, ErrNoInput
		}
		return nil, err
	}
	// Piped answers are not echoed, so end the NAME= line ourselves.
	if !p.terminal {
		fmt.Fprintln(p.printer.Writer())
	}
	return strings.TrimSpace(line), nil
}

// Header renders the prompt line shown before the first attempt.
func Header(input phases.InputDefinition) string {
	switch input.Kind {
	case phases.InputKindBool:
		if b, _ := input.Default.(bool); b {
			return input.Label + " [Yn]"
		}
		return input.Label + " [yN]"
	case phases.InputKindSelect:
		choices := make([]string, 0, len(input.Options))
		for _, opt := range input.Options {
			choices = append(choices, opt.Value)
		}
		return fmt.Sprintf("%s (choices: %s, default: %s)", input.Label, strings.Join(choices, ", "), defaultText(input))
	default:
		return fmt.Sprintf("%s (default: %s)", input.Label, defaultText(input))
	}
}

func defaultText(input phases.InputDefinition) string {
	if input.Default == nil {
		return ""
	}
	text := fmt.Sprint(input.Default)
	if input.Secret && text != "" {
		return mask
	}
	return text
}
