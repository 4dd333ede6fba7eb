// Package derive computes the notification set for one derivation cycle
// from freshly fetched alerts and cases and the previous cycle's case-state
// snapshot. Derive is pure: the current time is passed in, and nothing is
// read from or written to shared state.
package derive

import (
	"sort"
	"time"

	"github.com/nhle/casewatch/internal/model"
)

// recentWindow is how far back "created" and "closed" timestamps still
// count as recent.
const recentWindow = 24 * time.Hour

// maxFutureSkew bounds how far ahead of now a timestamp may be and still
// count as recent.
const maxFutureSkew = time.Hour

// Result is the output of one derivation.
type Result struct {
	// Notifications is deduplicated and sorted by priority, then date
	// descending, then ID.
	Notifications []model.Notification

	// CaseState is the snapshot to pass as prev to the next cycle.
	CaseState model.CaseSnapshot
}

// rule adds zero or more notifications for one derivation rule.
type rule func(in input) []model.Notification

// input bundles everything a rule may look at.
type input struct {
	alerts []model.Alert
	cases  []model.Case
	prev   model.CaseSnapshot
	now    time.Time
}

var rules = []rule{
	alertDueSoon,
	alertExpired,
	caseNew,
	caseClosed,
	caseNearDeadline,
}

// Derive runs every rule over alerts and cases. prev may be nil. Day
// boundaries are computed in now's location.
func Derive(
	alerts []model.Alert,
	cases []model.Case,
	prev model.CaseSnapshot,
	now time.Time,
) Result {
	in := input{alerts: alerts, cases: cases, prev: prev, now: now}

	var all []model.Notification
	for _, r := range rules {
		all = append(all, r(in)...)
	}

	notifications := dedupe(all)
	Sort(notifications)

	return Result{
		Notifications: notifications,
		CaseState:     snapshot(cases),
	}
}

// Sort orders notifications by priority (urgent first), then by date with
// the most recent first, then by ID.
func Sort(ns []model.Notification) {
	sort.SliceStable(ns, func(i, j int) bool {
		a, b := ns[i], ns[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.ID < b.ID
	})
}

// dedupe keeps the first notification for each ID.
func dedupe(ns []model.Notification) []model.Notification {
	seen := make(map[string]bool, len(ns))
	out := make([]model.Notification, 0, len(ns))
	for _, n := range ns {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		out = append(out, n)
	}
	return out
}

// snapshot captures the state of every case that has an ID.
func snapshot(cases []model.Case) model.CaseSnapshot {
	snap := make(model.CaseSnapshot, len(cases))
	for _, c := range cases {
		if c.ID == "" {
			continue
		}
		snap[c.ID] = model.CaseState{State: c.State, ClosedAt: c.ClosedAt}
	}
	return snap
}
