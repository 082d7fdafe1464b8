// Package console is the line-oriented operator interface: colored output,
// prompts that satisfy phases.InputHandler, phase progress and the final
// summary or cleanup recipe.
package console

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Printer writes colored lines to one writer. Colors are dropped when the
// writer is not a terminal.
type Printer struct {
	out   io.Writer
	plain lipgloss.Style
	blue  lipgloss.Style
	cyan  lipgloss.Style
	green lipgloss.Style
	red   lipgloss.Style
}

// NewPrinter builds a Printer for w.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		out:   w,
		plain: r.NewStyle(),
		blue:  r.NewStyle().Foreground(lipgloss.Color("12")),
		cyan:  r.NewStyle().Foreground(lipgloss.Color("14")),
		green: r.NewStyle().Foreground(lipgloss.Color("10")),
		red:   r.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// Writer exposes the underlying writer.
func (p *Printer) Writer() io.Writer {
	return p.out
}

// Plain prints an uncolored line.
func (p *Printer) Plain(format string, args ...any) {
	p.line(p.plain, format, args...)
}

// Blue prints prompts and informational highlights.
func (p *Printer) Blue(format string, args ...any) {
	p.line(p.blue, format, args...)
}

// Cyan prints host commands as they run.
func (p *Printer) Cyan(format string, args ...any) {
	p.line(p.cyan, format, args...)
}

// Green prints confirmations.
func (p *Printer) Green(format string, args ...any) {
	p.line(p.green, format, args...)
}

// Red prints diagnostics.
func (p *Printer) Red(format string, args ...any) {
	p.line(p.red, format, args...)
}

// Prefix writes text without a trailing newline.
func (p *Printer) Prefix(text string) {
	fmt.Fprint(p.out, text)
}

func (p *Printer) line(style lipgloss.Style, format string, args ...any) {
	fmt.Fprintln(p.out, style.Render(fmt.Sprintf(format, args...)))
}
