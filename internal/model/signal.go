package model

import "strings"

// Signal is a reason to run a derivation cycle outside the regular interval.
type Signal string

const (
	SignalInterval     Signal = "interval"
	SignalManual       Signal = "manual"
	SignalFocus        Signal = "focus"
	SignalVisible      Signal = "visible"
	SignalHidden       Signal = "hidden"
	SignalCaseCreated  Signal = "case-created"
	SignalCaseClosed   Signal = "case-closed"
	SignalCaseUpdated  Signal = "case-updated"
	SignalAlertCreated Signal = "alert-created"
)

// DomainSignals are the push-style events emitted when backend data changes.
var DomainSignals = []Signal{
	SignalCaseCreated,
	SignalCaseClosed,
	SignalCaseUpdated,
	SignalAlertCreated,
}

// ParseSignal maps a wire name to a Signal. Matching is case-insensitive
// and ignores surrounding whitespace. The interval signal is internal and
// cannot be parsed.
func ParseSignal(s string) (Signal, bool) {
	switch sig := Signal(strings.ToLower(strings.TrimSpace(s))); sig {
	case SignalManual, SignalFocus, SignalVisible, SignalHidden,
		SignalCaseCreated, SignalCaseClosed, SignalCaseUpdated, SignalAlertCreated:
		return sig, true
	}
	return "", false
}
