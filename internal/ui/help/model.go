package help

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/casewatch/internal/keys"
	"github.com/nhle/casewatch/internal/model"
	"github.com/nhle/casewatch/internal/theme"
)

// legend explains the priority colors used in the notification list.
var legend = []struct {
	label string
	style lipgloss.Style
}{
	{"!! urgent: expired alerts, case deadlines today", theme.PriorityStyle(model.PriorityUrgent)},
	{"!  high: alerts due today or tomorrow", theme.PriorityStyle(model.PriorityHigh)},
	{"•  medium: new cases", theme.PriorityStyle(model.PriorityMedium)},
	{"·  low: closed cases", theme.PriorityStyle(model.PriorityLow)},
}

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	m.help.Width = m.width - 4
	m.help.ShowAll = true

	rows := []string{
		titleStyle.Render("Keyboard Shortcuts"),
		m.help.View(m.keys),
		"",
		titleStyle.Render("Priorities"),
	}
	for _, l := range legend {
		rows = append(rows, l.style.Render(l.label))
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
