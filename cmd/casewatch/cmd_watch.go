package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/casewatch/internal/model"
	appsync "github.com/nhle/casewatch/internal/sync"
)

var watchJSON bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll continuously and print new unread notifications",
	Long: `Runs the poller in the foreground and prints each unread notification
the first time it appears. Backend signals from Redis trigger extra cycles
when events are enabled. Stop with ctrl-c.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

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

		fmt.Fprintf(os.Stderr, "watching %s (poll every %s, ctrl-c to stop)\n",
			cfg.API.BaseURL, cfg.PollInterval())
		return watchLoop(ctx, a, poller.Results())
	},
}

func watchLoop(ctx context.Context, a *app, results <-chan appsync.CycleResultMsg) error {
	printed := make(printedSet)
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "\nstopped")
			return nil
		case res := <-results:
			if res.Stale {
				continue
			}
			if res.AuthFailed() {
				return fmt.Errorf("authentication failed: run `casewatch configure` to set a token")
			}
			if err := res.Err(); err != nil {
				a.log.Warn("cycle failed", zap.Uint64("seq", res.Seq), zap.Error(err))
			}

			fresh := printed.update(res.Notifications, a.seen.IsSeen, res.Err() == nil)
			if err := printNotifications(os.Stdout, fresh, a.seen.IsSeen, watchJSON); err != nil {
				return err
			}
		}
	}
}

func init() {
	watchCmd.Flags().BoolVar(&watchJSON, "json", false, "JSON output (one object per line)")
}

// printedSet tracks notifications watch has already shown.
type printedSet map[string]struct{}

// update returns the notifications in ns that are neither seen nor already
// printed, and records them. After a clean cycle, IDs no longer derived are
// dropped so the set stays bounded by the current notification list.
func (p printedSet) update(ns []model.Notification, isSeen func(string) bool, clean bool) []model.Notification {
	if clean {
		current := model.NotificationIDs(ns)
		for id := range p {
			if _, ok := current[id]; !ok {
				delete(p, id)
			}
		}
	}

	var fresh []model.Notification
	for _, n := range ns {
		if _, ok := p[n.ID]; ok || isSeen(n.ID) {
			continue
		}
		p[n.ID] = struct{}{}
		fresh = append(fresh, n)
	}
	return fresh
}
