// Package picker is a terminal multi-select list
package picker

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCancelled is returned when the user quits without confirming
var ErrCancelled = errors.New("selection cancelled")

// Item is a selectable row
type Item struct {
	ID       string
	Label    string
	Note     string // dimmed text after the label
	Selected bool
}

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	All     key.Binding
	Confirm key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle:  key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
	All:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "all/none")),
	Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
	Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	checkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	noteStyle   = lipgloss.NewStyle().Faint(true)
)

// Model is the bubbletea model of the picker
type Model struct {
	title     string
	items     []Item
	cursor    int
	confirmed bool
	cancelled bool
}

// New creates a picker over a copy of items
func New(title string, items []Item) Model {
	return Model{title: title, items: append([]Item(nil), items...)}
}

// Selected returns the IDs of selected items in list order
func (m Model) Selected() []string {
	var ids []string
	for _, it := range m.items {
		if it.Selected {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(km, keys.Quit):
		m.cancelled = true
		return m, tea.Quit
	case key.Matches(km, keys.Confirm):
		m.confirmed = true
		return m, tea.Quit
	case key.Matches(km, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(km, keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case key.Matches(km, keys.Toggle):
		if len(m.items) > 0 {
			m.items[m.cursor].Selected = !m.items[m.cursor].Selected
		}
	case key.Matches(km, keys.All):
		all := len(m.Selected()) == len(m.items)
		for i := range m.items {
			m.items[i].Selected = !all
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.confirmed || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title) + "\n\n")
	for i, it := range m.items {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		box := "[ ]"
		if it.Selected {
			box = checkStyle.Render("[x]")
		}
		line := fmt.Sprintf("%s%s %s", cursor, box, it.Label)
		if it.Note != "" {
			line += " " + noteStyle.Render(it.Note)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n" + noteStyle.Render(helpLine()))
	return b.String()
}

func helpLine() string {
	bindings := []key.Binding{keys.Up, keys.Down, keys.Toggle, keys.All, keys.Confirm, keys.Quit}
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return strings.Join(parts, " • ")
}

// Run shows the picker on out, reading keys from in, and returns the
// selected IDs. Quitting returns ErrCancelled.
func Run(in io.Reader, out io.Writer, title string, items []Item) ([]string, error) {
	p := tea.NewProgram(New(title, items), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	m := final.(Model)
	if m.cancelled {
		return nil, ErrCancelled
	}
	return m.Selected(), nil
}
