package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/casewatch/internal/model"
)

var ackAll bool

var ackCmd = &cobra.Command{
	Use:   "ack [id...]",
	Short: "Mark notifications as seen",
	Long: `Marks the given notification IDs as seen. With --all, runs one cycle
and marks every current notification as seen.

Example:
  casewatch ack alerta-vencida-12 caso-cerrado-7`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !ackAll && len(args) == 0 {
			return fmt.Errorf("pass one or more notification IDs, or --all")
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		if ackAll {
			res := a.engine.RunCycle(ctx, model.SignalManual)
			if err := res.Err(); err != nil {
				fmt.Fprintf(os.Stderr, "casewatch: warning: %v\n", err)
			}
			n := a.engine.UnreadCount()
			if err := a.engine.AcknowledgeAll(ctx); err != nil {
				return err
			}
			fmt.Printf("marked %d notification(s) as seen\n", n)
			return nil
		}

		if err := a.seen.AcknowledgeAll(ctx, args); err != nil {
			return err
		}
		fmt.Printf("marked %d notification(s) as seen\n", len(args))
		return nil
	},
}

func init() {
	ackCmd.Flags().BoolVar(&ackAll, "all", false, "mark every current notification as seen")
}
