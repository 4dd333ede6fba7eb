package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nhle/casewatch/internal/model"
)

// notificationLine is the JSON shape printed by list and watch.
type notificationLine struct {
	model.Notification
	Priority string `json:"priority"`
	Seen     bool   `json:"seen"`
}

// printNotifications writes ns one per line, as JSON objects when jsonOut
// is set.
func printNotifications(w io.Writer, ns []model.Notification, isSeen func(string) bool, jsonOut bool) error {
	for _, n := range ns {
		seen := isSeen(n.ID)
		if jsonOut {
			b, err := json.Marshal(notificationLine{Notification: n, Priority: n.Priority.String(), Seen: seen})
			if err != nil {
				return err
			}
			fmt.Fprintln(w, string(b))
			continue
		}
		mark := "*"
		if seen {
			mark = " "
		}
		fmt.Fprintf(w, "%s %-8s %-10s %s  %s: %s\n",
			mark, n.Priority, n.Date.Format("2006-01-02"), n.ID, n.Title, n.Message)
	}
	return nil
}
