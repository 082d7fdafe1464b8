// Package hostexec runs commands on the provisioning host.
package hostexec

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/syntax"
)

// Command describes one process invocation.
type Command struct {
	Name  string
	Args  []string
	Dir   string
	Stdin string
	Env   []string
}

// String renders the command as a shell line for tracing.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	for _, p := range append([]string{c.Name}, c.Args...) {
		parts = append(parts, Quote(p))
	}
	return strings.Join(parts, " ")
}

// Result holds captured output.
type Result struct {
	Stdout string
	Stderr string
}

// Executor runs host commands.
type Executor interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecutorFunc adapts a function into an Executor.
type ExecutorFunc func(ctx context.Context, cmd Command) (Result, error)

// Run implements Executor.
func (f ExecutorFunc) Run(ctx context.Context, cmd Command) (Result, error) {
	return f(ctx, cmd)
}

// Option configures an OS executor.
type Option func(*OS)

// WithLogger sets the diagnostics logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *OS) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTrace registers a hook called before each command starts.
func WithTrace(trace func(Command)) Option {
	return func(o *OS) {
		o.trace = trace
	}
}

// WithOutput tees live process output to the given writers in addition to
// capturing it.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(o *OS) {
		o.stdout = stdout
		o.stderr = stderr
	}
}

// OS executes commands with os/exec.
type OS struct {
	logger *log.Logger
	trace  func(Command)
	stdout io.Writer
	stderr io.Writer
}

// NewOS constructs an OS executor.
func NewOS(opts ...Option) *OS {
	o := &OS{logger: log.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// Run implements Executor.
func (o *OS) Run(ctx context.Context, cmd Command) (Result, error) {
	if strings.TrimSpace(cmd.Name) == "" {
		return Result{}, ValidationError{Reason: "command name is required"}
	}
	if o.trace != nil {
		o.trace(cmd)
	}
	o.logger.Debug("exec", "cmd", cmd.Name, "args", len(cmd.Args), "dir", cmd.Dir, "stdin", cmd.Stdin != "")

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(c.Environ(), cmd.Env...)
	}
	if cmd.Stdin != "" {
		c.Stdin = strings.NewReader(cmd.Stdin)
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = tee(&stdout, o.stdout)
	c.Stderr = tee(&stderr, o.stderr)

	err := c.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		cmdErr := CommandError{Command: cmd.String(), ExitCode: -1, Err: err, Stderr: res.Stderr}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		return res, cmdErr
	}
	return res, nil
}

// LookPath reports the resolved path of a host binary.
func LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Quote renders s as a single POSIX shell word.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	q, err := syntax.Quote(s, syntax.LangPOSIX)
	if err != nil {
		// Non-printable input; fall back to plain single quoting.
		return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
	}
	return q
}

func tee(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}
