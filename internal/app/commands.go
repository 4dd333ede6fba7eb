package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/casewatch/internal/ui/command"
)

// ackResultMsg reports the outcome of persisting an acknowledgement.
type ackResultMsg struct {
	err error
}

// acknowledge returns a command that marks id as seen.
func (m Model) acknowledge(id string) tea.Cmd {
	e, log := m.engine, m.log
	return func() tea.Msg {
		err := e.Acknowledge(context.Background(), id)
		if err != nil {
			log.Warn("acknowledge failed", zap.String("id", id), zap.Error(err))
		}
		return ackResultMsg{err: err}
	}
}

// acknowledgeAll returns a command that marks every current notification
// as seen.
func (m Model) acknowledgeAll() tea.Cmd {
	e, log := m.engine, m.log
	return func() tea.Msg {
		err := e.AcknowledgeAll(context.Background())
		if err != nil {
			log.Warn("acknowledge all failed", zap.Error(err))
		}
		return ackResultMsg{err: err}
	}
}

// executeCommand runs a command from the command palette.
func (m *Model) executeCommand(c command.Command) tea.Cmd {
	switch c {
	case command.Refresh:
		m.poller.Refresh()
	case command.Quit:
		m.poller.Stop()
		return tea.Quit
	case command.AckAll:
		return tea.Batch(m.list.MarkAllRead(), m.acknowledgeAll())
	case command.ShowUnread:
		if m.list.ShowAll() {
			return m.list.ToggleShowAll()
		}
	case command.ShowAll:
		if !m.list.ShowAll() {
			return m.list.ToggleShowAll()
		}
	case command.Help:
		m.previousView = ViewList
		m.currentView = ViewHelp
	}
	return nil
}
