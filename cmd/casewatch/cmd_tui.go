package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	tui "github.com/nhle/casewatch/internal/app"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive interface (default)",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	a.startMetrics()

	poller := a.newPoller()
	poller.Start(ctx)
	defer poller.Stop()
	a.startEvents(ctx, poller)

	p := tea.NewProgram(
		tui.New(a.engine, poller, log),
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
