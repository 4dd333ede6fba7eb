package app

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nhle/casewatch/internal/keys"
	"github.com/nhle/casewatch/internal/logger"
	"github.com/nhle/casewatch/internal/model"
	appsync "github.com/nhle/casewatch/internal/sync"
	"github.com/nhle/casewatch/internal/theme"
	"github.com/nhle/casewatch/internal/ui"
	"github.com/nhle/casewatch/internal/ui/command"
	"github.com/nhle/casewatch/internal/ui/detail"
	helpview "github.com/nhle/casewatch/internal/ui/help"
	"github.com/nhle/casewatch/internal/ui/notiflist"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewHelp
	ViewCommand
)

// Model is the root Bubble Tea model that manages view routing, layout,
// and forwards terminal focus changes to the poller.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap
	engine       *appsync.Engine
	poller       *appsync.Poller
	log          *zap.Logger
	list         notiflist.Model
	detail       detail.Model
	helpView     helpview.Model
	commandView  command.Model
	ready        bool
	lastSync     time.Time
	errorMessage string
}

// New creates a new root application model. The poller should already be
// started; the model only listens for its results and feeds it signals.
func New(engine *appsync.Engine, poller *appsync.Poller, log *zap.Logger) Model {
	k := keys.DefaultKeyMap()
	return Model{
		currentView: ViewList,
		keys:        k,
		engine:      engine,
		poller:      poller,
		log:         logger.OrNop(log).Named("tui"),
		list:        notiflist.New(k, 80, 24),
		detail:      detail.New(k, 80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
	}
}

// Init subscribes to cycle results.
func (m Model) Init() tea.Cmd {
	return m.poller.WaitForNextResult()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.list.SetSize(contentWidth, contentHeight)
		m.detail.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		return m, nil

	case tea.FocusMsg:
		m.poller.Notify(model.SignalVisible)
		m.poller.Notify(model.SignalFocus)
		return m, nil

	case tea.BlurMsg:
		m.poller.Notify(model.SignalHidden)
		return m, nil

	case appsync.CycleResultMsg:
		waitCmd := m.poller.WaitForNextResult()
		if msg.Stale {
			return m, waitCmd
		}
		m.lastSync = msg.StartedAt
		m.errorMessage = cycleErrorMessage(msg.CycleResult)
		listCmd := m.list.SetNotifications(msg.Notifications, msg.Unread)
		return m, tea.Batch(listCmd, waitCmd)

	case ackResultMsg:
		if msg.err != nil {
			m.errorMessage = "could not save read state: " + msg.err.Error()
		}
		return m, nil

	case notiflist.SelectedMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detail.SetNotification(msg.Notification)
		listCmd := m.list.MarkRead(msg.Notification.ID)
		return m, tea.Batch(listCmd, m.acknowledge(msg.Notification.ID))

	case notiflist.AckMsg:
		listCmd := m.list.MarkRead(msg.ID)
		return m, tea.Batch(listCmd, m.acknowledge(msg.ID))

	case notiflist.AckAllMsg:
		listCmd := m.list.MarkAllRead()
		return m, tea.Batch(listCmd, m.acknowledgeAll())

	case detail.BackMsg:
		m.currentView = ViewList
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		cmd := m.executeCommand(msg.Command)
		return m, cmd

	case tea.KeyMsg:
		// Global keys that work regardless of current view
		switch msg.String() {
		case "ctrl+c":
			m.poller.Stop()
			return m, tea.Quit

		case "q":
			if m.currentView == ViewList {
				m.poller.Stop()
				return m, tea.Quit
			}

		case "?":
			if m.currentView == ViewCommand {
				break
			}
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case ":":
			if m.currentView == ViewCommand {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewCommand
			focusCmd := m.commandView.Focus()
			return m, focusCmd

		case "esc":
			if m.currentView == ViewHelp || m.currentView == ViewCommand {
				m.currentView = m.previousView
				return m, nil
			}

		case "r":
			if m.currentView == ViewList {
				m.poller.Refresh()
				return m, nil
			}
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.list, cmd = m.list.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	headerTitle := "casewatch"
	if n := m.list.UnreadCount(); n > 0 {
		headerTitle = lipgloss.JoinHorizontal(lipgloss.Top,
			"casewatch ", theme.UnreadBadgeStyle.Render(fmt.Sprintf("%d", n)))
	}
	header := m.layout.RenderHeader(headerTitle, m.syncStatus())
	content := m.renderContent()

	var statusBar string
	if m.errorMessage != "" && m.currentView == ViewList {
		statusBar = m.layout.RenderErrorBar(m.errorMessage)
	} else {
		statusBar = m.layout.RenderStatusBar(m.keyHints())
	}

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.list.View()
	case ViewDetail:
		return m.detail.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// syncStatus returns a short string describing the poll state.
func (m Model) syncStatus() string {
	if m.lastSync.IsZero() {
		return "waiting for first sync"
	}
	return "synced " + m.lastSync.Format("15:04:05")
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return ": close command | enter execute | esc back"
	case ViewDetail:
		return "esc back | j/k scroll"
	default:
		if m.list.ShowAll() {
			return "q quit | ? help | enter open | x read | a all read | u unread only | r refresh"
		}
		return "q quit | ? help | enter open | x read | a all read | u show all | r refresh"
	}
}

// cycleErrorMessage summarizes fetch failures for the status bar.
func cycleErrorMessage(res appsync.CycleResult) string {
	switch {
	case res.AuthFailed():
		return "authentication expired: run `casewatch configure` to set a new token"
	case res.AlertsErr != nil && res.CasesErr != nil:
		return "API unreachable: showing no data"
	case res.AlertsErr != nil:
		return "alerts unavailable: " + res.AlertsErr.Error()
	case res.CasesErr != nil:
		return "cases unavailable: " + res.CasesErr.Error()
	default:
		return ""
	}
}
