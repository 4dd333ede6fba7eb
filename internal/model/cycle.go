package model

import "time"

// CycleRecord summarizes one derivation cycle for the local cycle log.
type CycleRecord struct {
	Seq           uint64        `json:"seq"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`
	Trigger       Signal        `json:"trigger"`
	Alerts        int           `json:"alerts"`
	Cases         int           `json:"cases"`
	Notifications int           `json:"notifications"`
	Unread        int           `json:"unread"`
	AlertsError   string        `json:"alerts_error,omitempty"`
	CasesError    string        `json:"cases_error,omitempty"`
	Stale         bool          `json:"stale"`
}
