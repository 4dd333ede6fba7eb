package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/nhle/casewatch/internal/theme"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show storage state and recent cycles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		version, err := a.store.SchemaVersion(ctx)
		if err != nil {
			return err
		}
		cycles, err := a.store.RecentCycles(ctx, statusLimit)
		if err != nil {
			return err
		}

		fmt.Printf("config:   %s\n", cfgPath)
		fmt.Printf("api:      %s\n", cfg.API.BaseURL)
		fmt.Printf("storage:  %s (schema v%d)\n", cfg.Storage.Backend, version)
		fmt.Printf("seen:     %d notification(s)\n", a.seen.Len())
		fmt.Printf("token:    %s\n", tokenState(a.client.Token()))

		if len(cycles) == 0 {
			fmt.Println("\nno cycles recorded")
			return nil
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(theme.ColorBorder)).
			Headers("SEQ", "STARTED", "TRIGGER", "DURATION", "NOTIFS", "UNREAD", "ERROR")
		for _, c := range cycles {
			errText := c.AlertsError
			if errText == "" {
				errText = c.CasesError
			}
			if c.Stale {
				errText = "stale"
			}
			t.Row(
				strconv.FormatUint(c.Seq, 10),
				c.StartedAt.Local().Format("01-02 15:04:05"),
				string(c.Trigger),
				c.Duration.String(),
				strconv.Itoa(c.Notifications),
				strconv.Itoa(c.Unread),
				errText,
			)
		}
		fmt.Println()
		fmt.Println(t.Render())
		return nil
	},
}

func tokenState(tok string) string {
	if tok == "" {
		return "not set"
	}
	return "set"
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "number of recent cycles to show")
}
