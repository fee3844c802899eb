// Package progress reports the live status of concurrent sync jobs.
//
// A Reporter hands out one Task per job. Each Task is written only by the
// goroutine that owns the job; the Reporter serializes rendering.
package progress

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Task is the status handle of a single job
type Task interface {
	// Update replaces the running message
	Update(msg string)
	// Done marks the task finished with a final message
	Done(msg string)
	// Fail marks the task failed
	Fail(msg string, err error)
}

// Reporter creates tasks and renders them until closed
type Reporter interface {
	Add(label string) Task
	// Close stops rendering and flushes final task states
	Close() error
}

// State of a task
type State int

const (
	Running State = iota
	Succeeded
	Failed
)

var (
	okStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	runStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
	dimStyle = lipgloss.NewStyle().Faint(true)
	okMark   = okStyle.Render("✓")
	errMark  = errStyle.Render("✗")
)

// New returns an animated reporter when out is a terminal and a line
// reporter otherwise
func New(out *os.File) Reporter {
	if IsTerminal(out) {
		return NewSpinner(out)
	}
	return NewLines(out)
}

// IsTerminal reports whether f is an interactive terminal
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// renderFinal formats a finished task line
func renderFinal(state State, msg string, err error) string {
	switch state {
	case Succeeded:
		return okMark + " " + msg
	case Failed:
		line := errMark + " " + msg
		if err != nil {
			line += " " + errStyle.Render("(error: "+err.Error()+")")
		}
		return line
	default:
		return dimStyle.Render("… " + msg)
	}
}

// Discard returns a reporter that renders nothing
func Discard() Reporter {
	return NewLines(io.Discard)
}
