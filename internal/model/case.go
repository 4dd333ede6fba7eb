package model

import "time"

// CaseStatus is the normalized lifecycle state of an HR case.
type CaseStatus string

const (
	CaseOpen    CaseStatus = "open"
	CasePending CaseStatus = "pending"
	CaseClosed  CaseStatus = "closed"
)

// Active reports whether the case is still being worked on.
func (s CaseStatus) Active() bool {
	return s == CaseOpen || s == CasePending
}

// Case is an HR request or incident record.
type Case struct {
	// ID is the backend identifier of the case.
	ID string `json:"id"`

	// Label is the display label (diagnosis or title).
	Label string `json:"label"`

	// State is the normalized case state.
	State CaseStatus `json:"state"`

	// CreatedAt is when the case was opened.
	CreatedAt *time.Time `json:"created_at,omitempty"`

	// ClosedAt is set only for closed cases.
	ClosedAt *time.Time `json:"closed_at,omitempty"`

	// Employee is the display name of the employee the case concerns.
	Employee string `json:"employee,omitempty"`
}

// CaseState is the part of a case remembered between derivation cycles.
type CaseState struct {
	State    CaseStatus `json:"state"`
	ClosedAt *time.Time `json:"closed_at,omitempty"`
}

// CaseSnapshot maps case IDs to the state observed in one derivation cycle.
// A snapshot is replaced wholesale at the end of every cycle.
type CaseSnapshot map[string]CaseState

// Clone returns an independent copy of the snapshot.
func (s CaseSnapshot) Clone() CaseSnapshot {
	out := make(CaseSnapshot, len(s))
	for id, st := range s {
		out[id] = st
	}
	return out
}
