package model

import "time"

// AlertState is the normalized lifecycle state of an alert.
type AlertState string

const (
	AlertPending AlertState = "pending"
	AlertExpired AlertState = "expired"
	AlertOther   AlertState = "other"
)

// Alert is a reminder with a due date, optionally tied to a case.
// Alerts are owned by the backend and are read-only here.
type Alert struct {
	// ID is the backend identifier of the alert.
	ID string `json:"id"`

	// Title is the human-readable alert label.
	Title string `json:"title"`

	// DueDate is when the alert falls due. Nil when the backend sent none.
	DueDate *time.Time `json:"due_date,omitempty"`

	// State is the normalized alert state.
	State AlertState `json:"state"`

	// CaseID links the alert to a case. Empty when unlinked.
	CaseID string `json:"case_id,omitempty"`
}
