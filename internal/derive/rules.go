package derive

import (
	"fmt"

	"github.com/nhle/casewatch/internal/model"
)

// Notification ID templates. IDs must stay stable across cycles because the
// seen-state store is keyed by them.
const (
	idAlertDueSoon     = "alerta-%s"
	idAlertExpired     = "alerta-vencida-%s"
	idCaseNew          = "caso-nuevo-%s"
	idCaseClosed       = "caso-cerrado-%s"
	idCaseNearDeadline = "caso-fecha-limite-%s-%s"
)

// dueSoon reports whether an alert is due today or tomorrow and not expired,
// returning the remaining days.
func dueSoon(a model.Alert, in input) (int, bool) {
	if a.ID == "" || a.DueDate == nil || a.State == model.AlertExpired {
		return 0, false
	}
	days := daysUntil(*a.DueDate, in.now)
	return days, days >= 0 && days <= 1
}

func alertDueSoon(in input) []model.Notification {
	var out []model.Notification
	for _, a := range in.alerts {
		days, ok := dueSoon(a, in)
		if !ok {
			continue
		}

		title, when := "Alert due tomorrow", "tomorrow"
		if days == 0 {
			title, when = "Alert due today", "today"
		}

		out = append(out, model.Notification{
			ID:       fmt.Sprintf(idAlertDueSoon, a.ID),
			Kind:     model.KindAlertDueSoon,
			Title:    title,
			Message:  fmt.Sprintf("%q is due %s", alertTitle(a), when),
			Date:     *a.DueDate,
			CaseID:   a.CaseID,
			AlertID:  a.ID,
			Priority: model.PriorityHigh,
		})
	}
	return out
}

func alertExpired(in input) []model.Notification {
	var out []model.Notification
	for _, a := range in.alerts {
		if a.ID == "" || a.DueDate == nil || a.State != model.AlertPending {
			continue
		}
		if daysUntil(*a.DueDate, in.now) >= 0 {
			continue
		}

		out = append(out, model.Notification{
			ID:    fmt.Sprintf(idAlertExpired, a.ID),
			Kind:  model.KindAlertExpired,
			Title: "Alert expired",
			Message: fmt.Sprintf("%q expired on %s",
				alertTitle(a), a.DueDate.In(in.now.Location()).Format("2006-01-02")),
			Date:     *a.DueDate,
			CaseID:   a.CaseID,
			AlertID:  a.ID,
			Priority: model.PriorityUrgent,
		})
	}
	return out
}

// caseNew flags active cases created in the last day or not present in the
// previous snapshot. Acknowledgment does not stop recomputation.
func caseNew(in input) []model.Notification {
	var out []model.Notification
	for _, c := range in.cases {
		if c.ID == "" || !c.State.Active() {
			continue
		}

		_, known := in.prev[c.ID]
		createdRecently := c.CreatedAt != nil && recent(*c.CreatedAt, in.now)
		if known && !createdRecently {
			continue
		}

		date := in.now
		if c.CreatedAt != nil {
			date = *c.CreatedAt
		}

		out = append(out, model.Notification{
			ID:       fmt.Sprintf(idCaseNew, c.ID),
			Kind:     model.KindCaseNew,
			Title:    "New case",
			Message:  fmt.Sprintf("Case #%s opened: %s", c.ID, caseSubject(c)),
			Date:     date,
			CaseID:   c.ID,
			Employee: c.Employee,
			Priority: model.PriorityMedium,
		})
	}
	return out
}

// caseClosed flags cases closed in the last day, plus cases whose
// transition from active to closed is observed against the snapshot.
func caseClosed(in input) []model.Notification {
	var out []model.Notification
	for _, c := range in.cases {
		if c.ID == "" || c.State != model.CaseClosed || c.ClosedAt == nil {
			continue
		}

		if !recent(*c.ClosedAt, in.now) && !closedTransition(c, in.prev) {
			continue
		}

		out = append(out, model.Notification{
			ID:       fmt.Sprintf(idCaseClosed, c.ID),
			Kind:     model.KindCaseClosed,
			Title:    "Case closed",
			Message:  fmt.Sprintf("Case #%s closed: %s", c.ID, caseSubject(c)),
			Date:     *c.ClosedAt,
			CaseID:   c.ID,
			Employee: c.Employee,
			Priority: model.PriorityLow,
		})
	}
	return out
}

// closedTransition reports whether prev had c active and c now carries a
// closure timestamp prev did not.
func closedTransition(c model.Case, prev model.CaseSnapshot) bool {
	p, ok := prev[c.ID]
	if !ok || !p.State.Active() {
		return false
	}
	return p.ClosedAt == nil || !p.ClosedAt.Equal(*c.ClosedAt)
}

func caseNearDeadline(in input) []model.Notification {
	byCase := make(map[string][]model.Alert)
	for _, a := range in.alerts {
		if a.CaseID == "" {
			continue
		}
		byCase[a.CaseID] = append(byCase[a.CaseID], a)
	}

	var out []model.Notification
	for _, c := range in.cases {
		if c.ID == "" || !c.State.Active() {
			continue
		}
		for _, a := range byCase[c.ID] {
			days, ok := dueSoon(a, in)
			if !ok {
				continue
			}

			title, when, prio := "Case deadline tomorrow", "tomorrow", model.PriorityHigh
			if days == 0 {
				title, when, prio = "Case deadline today", "today", model.PriorityUrgent
			}

			out = append(out, model.Notification{
				ID:    fmt.Sprintf(idCaseNearDeadline, c.ID, a.ID),
				Kind:  model.KindCaseNearDeadline,
				Title: title,
				Message: fmt.Sprintf("Case #%s (%s): %q is due %s",
					c.ID, caseSubject(c), alertTitle(a), when),
				Date:     *a.DueDate,
				CaseID:   c.ID,
				AlertID:  a.ID,
				Employee: c.Employee,
				Priority: prio,
			})
		}
	}
	return out
}

func alertTitle(a model.Alert) string {
	if a.Title != "" {
		return a.Title
	}
	return "Alert " + a.ID
}

func caseSubject(c model.Case) string {
	label := c.Label
	if label == "" {
		label = "untitled"
	}
	if c.Employee != "" {
		return label + " - " + c.Employee
	}
	return label
}
