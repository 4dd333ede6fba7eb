package notiflist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/casewatch/internal/model"
	"github.com/nhle/casewatch/internal/theme"
)

// Item wraps a model.Notification so it can be used in a bubbles/list.
type Item struct {
	Notification model.Notification
	Unread       bool
}

// FilterValue returns the string used for fuzzy filtering.
func (i Item) FilterValue() string {
	return i.Notification.Title + " " + i.Notification.Message
}

// Title returns the notification title for the list.
func (i Item) Title() string { return i.Notification.Title }

// Description returns a short summary line for the list.
func (i Item) Description() string {
	parts := []string{
		string(i.Notification.Kind),
		i.Notification.Priority.String(),
		relativeTime(i.Notification.Date, time.Now()),
	}
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering notifications.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single notification line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}
	n := it.Notification
	isSelected := index == m.Index()

	marker := " "
	if it.Unread {
		marker = "●"
	}

	priBadge := theme.PriorityStyle(n.Priority).Render(priorityLabel(n.Priority))
	kindBadge := theme.KindStyle(n.Kind).Render(kindLabel(n.Kind))

	timeStr := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(relativeTime(n.Date, time.Now()))

	line := fmt.Sprintf("%s %s %s %s  %s", marker, priBadge, kindBadge, n.Message, timeStr)

	if !it.Unread {
		line = theme.DimmedStyle.Render(line)
	}

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// relativeTime returns a human-friendly distance between t and now.
// Future dates render as "in 3h"; past ones as "3h ago".
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := now.Sub(t)
	suffix := " ago"
	prefix := ""
	if d < 0 {
		d = -d
		suffix = ""
		prefix = "in "
	}

	var amount string
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		amount = fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		amount = fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*24*time.Hour:
		amount = fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		amount = fmt.Sprintf("%dw", int(d.Hours()/24/7))
	}
	return prefix + amount + suffix
}

// priorityLabel returns a short marker for the given priority.
func priorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityUrgent:
		return "!!"
	case model.PriorityHigh:
		return "! "
	case model.PriorityMedium:
		return "• "
	case model.PriorityLow:
		return "· "
	default:
		return "? "
	}
}

// kindLabel returns a fixed-width badge for the notification kind.
func kindLabel(k model.NotificationKind) string {
	switch k {
	case model.KindAlertDueSoon:
		return "DUE"
	case model.KindAlertExpired:
		return "EXP"
	case model.KindCaseNew:
		return "NEW"
	case model.KindCaseClosed:
		return "CLS"
	case model.KindCaseNearDeadline:
		return "DDL"
	default:
		return "???"
	}
}
