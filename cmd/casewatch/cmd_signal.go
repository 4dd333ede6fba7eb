package main

import (
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/nhle/casewatch/internal/events"
	"github.com/nhle/casewatch/internal/model"
)

var signalCmd = &cobra.Command{
	Use:   "signal <name>",
	Short: "Publish a domain signal to running watchers",
	Long: `Publishes a signal on the configured Redis channel so that every running
casewatch with events enabled runs a cycle right away.

Signals: case-created, case-closed, case-updated, alert-created, manual`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sig, ok := model.ParseSignal(args[0])
		if !ok {
			names := make([]string, 0, len(model.DomainSignals))
			for _, s := range model.DomainSignals {
				names = append(names, string(s))
			}
			return fmt.Errorf("unknown signal %q (want one of: %s)", args[0], strings.Join(names, ", "))
		}

		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
		})
		defer client.Close()

		n, err := events.Publish(cmd.Context(), client, cfg.Events.RedisChannel, sig)
		if err != nil {
			return err
		}
		fmt.Printf("published %s to %d subscriber(s)\n", sig, n)
		return nil
	},
}
