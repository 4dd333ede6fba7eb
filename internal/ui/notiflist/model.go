package notiflist

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/casewatch/internal/keys"
	"github.com/nhle/casewatch/internal/model"
	"github.com/nhle/casewatch/internal/theme"
)

// SelectedMsg is sent when the user opens a notification.
type SelectedMsg struct {
	Notification model.Notification
}

// AckMsg asks the parent to mark one notification as read.
type AckMsg struct {
	ID string
}

// AckAllMsg asks the parent to mark every notification as read.
type AckAllMsg struct{}

// Model is the notification list view component.
type Model struct {
	list    list.Model
	keys    *keys.KeyMap
	all     []model.Notification
	unread  map[string]bool
	showAll bool
	width   int
	height  int
}

// New creates a new notification list model showing unread items only.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Notifications"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		keys:   k,
		unread: make(map[string]bool),
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetNotifications replaces the displayed set. all is the full derived
// list in display order; unread is the subset not yet acknowledged.
func (m *Model) SetNotifications(all, unread []model.Notification) tea.Cmd {
	m.all = all
	m.unread = make(map[string]bool, len(unread))
	for _, n := range unread {
		m.unread[n.ID] = true
	}
	return m.refresh()
}

// MarkRead flags one notification as read without waiting for the next
// cycle.
func (m *Model) MarkRead(id string) tea.Cmd {
	delete(m.unread, id)
	return m.refresh()
}

// MarkAllRead flags every notification as read.
func (m *Model) MarkAllRead() tea.Cmd {
	m.unread = make(map[string]bool)
	return m.refresh()
}

// ToggleShowAll switches between unread-only and all notifications.
func (m *Model) ToggleShowAll() tea.Cmd {
	m.showAll = !m.showAll
	return m.refresh()
}

// ShowAll reports whether read notifications are listed too.
func (m Model) ShowAll() bool { return m.showAll }

// UnreadCount returns the number of unread notifications.
func (m Model) UnreadCount() int { return len(m.unread) }

// Selected returns the notification under the cursor.
func (m Model) Selected() (model.Notification, bool) {
	it, ok := m.list.SelectedItem().(Item)
	if !ok {
		return model.Notification{}, false
	}
	return it.Notification, true
}

// refresh rebuilds the list items from all, unread and showAll.
func (m *Model) refresh() tea.Cmd {
	items := make([]list.Item, 0, len(m.all))
	for _, n := range m.all {
		unread := m.unread[n.ID]
		if !m.showAll && !unread {
			continue
		}
		items = append(items, Item{Notification: n, Unread: unread})
	}

	if m.showAll {
		m.list.Title = "All notifications"
	} else {
		m.list.Title = "Unread notifications"
	}
	return m.list.SetItems(items)
}

// Update handles messages for the notification list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Select):
			n, ok := m.Selected()
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg { return SelectedMsg{Notification: n} }

		case key.Matches(msg, m.keys.Ack):
			n, ok := m.Selected()
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg { return AckMsg{ID: n.ID} }

		case key.Matches(msg, m.keys.AckAll):
			if len(m.unread) == 0 {
				return m, nil
			}
			return m, func() tea.Msg { return AckAllMsg{} }

		case key.Matches(msg, m.keys.ToggleUnread):
			return m, m.ToggleShowAll()
		}
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the notification list view.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

// renderEmptyState shows guidance text when nothing is listed.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if !m.showAll && len(m.all) > 0 {
		return style.Render("All caught up.\n\nPress u to show read notifications.")
	}
	return style.Render("No notifications.\n\nPress r to refresh.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
