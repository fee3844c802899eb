package progress

import (
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type addMsg struct {
	id    int
	label string
}

type stateMsg struct {
	id    int
	state State
	msg   string
	err   error
}

type closeMsg struct{}

type taskView struct {
	state State
	msg   string
	err   error
}

// spinnerModel is the Bubble Tea model rendering one line per task
type spinnerModel struct {
	spinner spinner.Model
	tasks   []taskView
}

func newSpinnerModel() spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = runStyle
	return spinnerModel{spinner: s}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case addMsg:
		for len(m.tasks) <= msg.id {
			m.tasks = append(m.tasks, taskView{})
		}
		m.tasks[msg.id] = taskView{state: Running, msg: msg.label}

	case stateMsg:
		if msg.id < len(m.tasks) {
			m.tasks[msg.id] = taskView{state: msg.state, msg: msg.msg, err: msg.err}
		}

	case closeMsg:
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m spinnerModel) View() string {
	var b strings.Builder
	for _, t := range m.tasks {
		if t.state == Running {
			b.WriteString(m.spinner.View())
			b.WriteString(" ")
			b.WriteString(t.msg)
		} else {
			b.WriteString(renderFinal(t.state, t.msg, t.err))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Spinner renders tasks as animated lines on a terminal
type Spinner struct {
	program *tea.Program
	done    chan struct{}

	mu     sync.Mutex
	nextID int
	closed bool
}

// NewSpinner starts rendering to out
func NewSpinner(out io.Writer) *Spinner {
	s := &Spinner{
		program: tea.NewProgram(newSpinnerModel(), tea.WithOutput(out), tea.WithInput(nil)),
		done:    make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		_, _ = s.program.Run()
	}()
	return s
}

func (s *Spinner) Add(label string) Task {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.mu.Unlock()

	s.program.Send(addMsg{id: id, label: label})
	return &spinnerTask{program: s.program, id: id, label: label}
}

// Close quits the program after it has drawn every pending state
func (s *Spinner) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.program.Send(closeMsg{})
	<-s.done
	return nil
}

type spinnerTask struct {
	program *tea.Program
	id      int
	label   string
}

func (t *spinnerTask) Update(msg string) {
	t.label = msg
	t.program.Send(stateMsg{id: t.id, state: Running, msg: msg})
}

func (t *spinnerTask) Done(msg string) {
	if msg == "" {
		msg = t.label
	}
	t.program.Send(stateMsg{id: t.id, state: Succeeded, msg: msg})
}

func (t *spinnerTask) Fail(msg string, err error) {
	if msg == "" {
		msg = t.label
	}
	t.program.Send(stateMsg{id: t.id, state: Failed, msg: msg, err: err})
}
