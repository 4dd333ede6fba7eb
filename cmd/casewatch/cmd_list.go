package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/casewatch/internal/model"
)

var (
	listAll  bool
	listJSON bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Run one cycle and print notifications",
	Long: `Fetches alerts and cases once and prints the derived notifications.
Only unread notifications are shown unless --all is given. Unread
notifications are marked with *.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		res := a.engine.RunCycle(ctx, model.SignalManual)
		if res.AuthFailed() {
			return fmt.Errorf("authentication failed: run `casewatch configure` to set a token")
		}
		if err := res.Err(); err != nil {
			fmt.Fprintf(os.Stderr, "casewatch: warning: %v\n", err)
		}

		ns := a.engine.Unread()
		if listAll {
			ns = a.engine.Notifications()
		}
		if len(ns) == 0 && !listJSON {
			fmt.Fprintln(os.Stderr, "no notifications")
			return nil
		}
		return printNotifications(os.Stdout, ns, a.seen.IsSeen, listJSON)
	},
}

func init() {
	listCmd.Flags().BoolVar(&listAll, "all", false, "include notifications already seen")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "JSON output (one object per line)")
}
