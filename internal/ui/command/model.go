package command

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/casewatch/internal/theme"
)

// Command is a palette action understood by the app.
type Command string

const (
	Refresh    Command = "refresh"
	AckAll     Command = "ack all"
	ShowUnread Command = "unread"
	ShowAll    Command = "all"
	Help       Command = "help"
	Quit       Command = "quit"
)

type entry struct {
	cmd     Command
	aliases []string
	desc    string
}

// vocabulary lists every command in display order.
var vocabulary = []entry{
	{Refresh, []string{"sync"}, "fetch alerts and cases now"},
	{AckAll, []string{"read all", "mark all read"}, "mark every notification as seen"},
	{ShowUnread, nil, "show unread notifications only"},
	{ShowAll, nil, "show seen notifications too"},
	{Help, nil, "show key bindings"},
	{Quit, []string{"q"}, "exit casewatch"},
}

// Parse resolves s, or one of its aliases, to a Command. Matching ignores
// case and surrounding whitespace.
func Parse(s string) (Command, bool) {
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	for _, e := range vocabulary {
		if s == string(e.cmd) {
			return e.cmd, true
		}
		for _, a := range e.aliases {
			if s == a {
				return e.cmd, true
			}
		}
	}
	return "", false
}

// suggestions returns command names and aliases for tab completion.
func suggestions() []string {
	var out []string
	for _, e := range vocabulary {
		out = append(out, string(e.cmd))
		out = append(out, e.aliases...)
	}
	return out
}

// CommandMsg is emitted when the user executes a valid command.
type CommandMsg struct {
	Command Command
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	err    string
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "refresh, ack all, unread, all, help, quit"
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	ti.SetSuggestions(suggestions())
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette. Unknown input keeps
// the palette open with an error instead of emitting a CommandMsg.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		raw := strings.TrimSpace(m.input.Value())
		if raw == "" {
			return m, nil
		}
		c, ok := Parse(raw)
		if !ok {
			m.err = fmt.Sprintf("unknown command: %s", raw)
			return m, nil
		}
		m.input.Reset()
		m.err = ""
		return m, func() tea.Msg { return CommandMsg{Command: c} }
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// Err returns the validation error for the last submitted input, if any.
func (m Model) Err() string {
	return m.err
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	parts := []string{titleStyle.Render("Command Palette"), m.input.View()}
	if m.err != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.ColorRed).Render(m.err))
	}

	var rows []string
	for _, e := range vocabulary {
		rows = append(rows, fmt.Sprintf("%-10s %s", e.cmd, theme.DimmedStyle.Render(e.desc)))
	}
	parts = append(parts, "", strings.Join(rows, "\n"))

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input and clears any stale error.
func (m *Model) Focus() tea.Cmd {
	m.err = ""
	return m.input.Focus()
}
