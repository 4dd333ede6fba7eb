package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casewatch_cycles_total",
			Help: "Derivation cycles run, by trigger",
		},
		[]string{"trigger"},
	)

	StaleCyclesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "casewatch_stale_cycles_total",
			Help: "Derivation cycles whose result was discarded as stale",
		},
	)

	FetchFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casewatch_fetch_failures_total",
			Help: "Collection fetches that failed and were replaced by an empty collection",
		},
		[]string{"collection"},
	)

	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "casewatch_cycle_duration_seconds",
			Help: "Duration of a derivation cycle in seconds",
		},
	)

	Notifications = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "casewatch_notifications",
			Help: "Notifications derived in the last published cycle, by kind",
		},
		[]string{"kind"},
	)

	UnreadNotifications = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "casewatch_unread_notifications",
			Help: "Unread notifications after the last published cycle",
		},
	)

	SeenPersistFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "casewatch_seen_persist_failures_total",
			Help: "Failed writes of the seen-state set",
		},
	)
)
