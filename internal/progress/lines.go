package progress

import (
	"fmt"
	"io"
	"sync"
)

// Lines prints one line per finished task. It suits logs and pipes.
type Lines struct {
	mu  sync.Mutex
	out io.Writer
}

// NewLines creates a line reporter writing to out
func NewLines(out io.Writer) *Lines {
	return &Lines{out: out}
}

func (l *Lines) Add(label string) Task {
	return &lineTask{parent: l, label: label}
}

func (l *Lines) Close() error { return nil }

func (l *Lines) println(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, s)
}

type lineTask struct {
	parent *Lines
	label  string
}

// Update is silent; only final states are printed
func (t *lineTask) Update(msg string) { t.label = msg }

func (t *lineTask) Done(msg string) {
	if msg == "" {
		msg = t.label
	}
	t.parent.println(renderFinal(Succeeded, msg, nil))
}

func (t *lineTask) Fail(msg string, err error) {
	if msg == "" {
		msg = t.label
	}
	t.parent.println(renderFinal(Failed, msg, err))
}
