package phasedapp

import (
	"fmt"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Log collects lines for the phase currently running. It may be created
// before the App so loggers and executors can be wired first. Lines arriving
// while no program runs are dropped.
type Log struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

// NewLog returns a detached Log.
func NewLog() *Log {
	return &Log{}
}

// Printf appends one formatted line.
func (l *Log) Printf(format string, args ...any) {
	l.emit(fmt.Sprintf(format, args...))
}

// Writer returns a writer whose complete lines are appended.
func (l *Log) Writer() io.Writer {
	return &lineWriter{emit: l.emit}
}

func (l *Log) emit(line string) {
	l.mu.Lock()
	send := l.send
	l.mu.Unlock()
	if send != nil {
		send(phaseLogMsg{line: line})
	}
}

func (l *Log) attach(send func(tea.Msg)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.send = send
}
