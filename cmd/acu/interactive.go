package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/autocleanup/cleanup"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	stackStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			Width(60)
)

const traceWindow = 18

type keyMap struct {
	Prev  key.Binding
	Next  key.Binding
	First key.Binding
	Last  key.Binding
	Quit  key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.First, k.Last, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Prev:  key.NewBinding(key.WithKeys("left", "up", "k"), key.WithHelp("↑/k", "back")),
	Next:  key.NewBinding(key.WithKeys("right", "down", "j", " "), key.WithHelp("↓/j", "step")),
	First: key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first")),
	Last:  key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last")),
	Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type interactiveModel struct {
	err    error
	help   help.Model
	steps  []step
	x      int
	cursor int
}

func newInteractiveModel(rec *recorder, x int, err error) *interactiveModel {
	return &interactiveModel{
		err:   err,
		help:  help.New(),
		steps: rec.steps,
		x:     x,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Prev):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Next):
			if m.cursor < len(m.steps)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.First):
			m.cursor = 0
		case key.Matches(msg, keys.Last):
			m.cursor = max(len(m.steps)-1, 0)
		}
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	}
	return m, nil
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Cleanup Walkthrough"))
	b.WriteString(fmt.Sprintf(" x=%d", m.x))
	b.WriteString("\n\n")

	if len(m.steps) == 0 {
		b.WriteString("Nothing recorded.\n")
		b.WriteString(m.help.View(keys))
		return b.String()
	}

	start := max(m.cursor-traceWindow+1, 0)
	var trace strings.Builder
	for i := start; i <= m.cursor; i++ {
		s := m.steps[i]
		text := s.text
		if st, ok := styleFor(s.kind); ok {
			text = st.Render(text)
		}
		if i == m.cursor {
			text = selectedStyle.Render("> " + s.text)
		} else {
			text = "  " + text
		}
		trace.WriteString(text)
		trace.WriteString("\n")
	}

	cur := m.steps[m.cursor]
	var stack strings.Builder
	stack.WriteString(fmt.Sprintf("level %d, %d entries\n\n", cur.level, len(cur.stack)))
	for _, e := range cur.stack {
		stack.WriteString(e)
		stack.WriteString("\n")
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(72).Render(trace.String()),
		stackStyle.Render(stack.String()),
	))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("step %d/%d\n", m.cursor+1, len(m.steps)))

	if m.err != nil && m.cursor == len(m.steps)-1 {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(keys))
	return b.String()
}

// runInteractive records a full run, then lets the user step through it.
func runInteractive(opts cleanup.Options, x int) error {
	rec := &recorder{}
	runErr := runDemo(opts, x, rec)

	p := tea.NewProgram(newInteractiveModel(rec, x, runErr), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
