package model

import "time"

// NotificationKind identifies which derivation rule produced a notification.
type NotificationKind string

const (
	KindAlertDueSoon     NotificationKind = "alert-due-soon"
	KindAlertExpired     NotificationKind = "alert-expired"
	KindCaseNew          NotificationKind = "case-new"
	KindCaseClosed       NotificationKind = "case-closed"
	KindCaseNearDeadline NotificationKind = "case-near-deadline"
)

// Priority orders notifications for display. Lower values are shown first.
type Priority int

const (
	PriorityUrgent Priority = iota
	PriorityHigh
	PriorityMedium
	PriorityLow
)

// String returns the lowercase priority name.
func (p Priority) String() string {
	switch p {
	case PriorityUrgent:
		return "urgent"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// Notification is a derived event surfaced to the user. Notifications are
// recomputed every cycle; only the ID is stable across cycles.
type Notification struct {
	// ID is derived from the source entity type and id.
	ID string `json:"id"`

	// Kind is the rule that produced this notification.
	Kind NotificationKind `json:"kind"`

	// Title is a short headline.
	Title string `json:"title"`

	// Message is the human-readable body text.
	Message string `json:"message"`

	// Date is the date the notification is about (due date, creation or closure).
	Date time.Time `json:"date"`

	// CaseID is the related case, if any.
	CaseID string `json:"case_id,omitempty"`

	// AlertID is the related alert, if any.
	AlertID string `json:"alert_id,omitempty"`

	// Employee is the related employee label, if any.
	Employee string `json:"employee,omitempty"`

	// Priority controls ordering.
	Priority Priority `json:"priority"`
}

// NotificationIDs returns the set of IDs in ns.
func NotificationIDs(ns []Notification) map[string]struct{} {
	ids := make(map[string]struct{}, len(ns))
	for _, n := range ns {
		ids[n.ID] = struct{}{}
	}
	return ids
}
