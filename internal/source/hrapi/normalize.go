package hrapi

import (
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/nhle/casewatch/internal/model"
)

// Field aliases seen across backend versions, in lookup order.
var (
	alertIDKeys    = []string{"id", "Id_Alerta", "id_alerta"}
	alertTitleKeys = []string{"titulo", "Titulo", "title", "descripcion", "Descripcion", "tipo"}
	alertDueKeys   = []string{"fecha_vencimiento", "Fecha_Vencimiento", "fecha_limite", "fecha", "due_date"}
	alertCaseKeys  = []string{"caso", "Caso", "Id_Caso", "caso_id"}

	caseIDKeys       = []string{"id", "Id_Caso", "id_caso"}
	caseLabelKeys    = []string{"diagnostico", "Diagnostico", "titulo", "title"}
	caseCreatedKeys  = []string{"fecha_inicio", "Fecha_Inicio", "fecha_creacion", "created_at"}
	caseClosedKeys   = []string{"fecha_cierre", "Fecha_Cierre", "closed_at"}
	caseEmployeeKeys = []string{"empleado_nombre", "Empleado_Nombre", "employee_name"}

	stateKeys = []string{"estado", "Estado", "state", "status"}
)

// dateLayouts are tried in order. Layouts without a zone are read in the
// normalizer's location.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalizer maps raw backend records to canonical model types.
type Normalizer struct {
	loc *time.Location
}

// NewNormalizer returns a Normalizer that reads zoneless dates in loc.
// A nil loc means time.Local.
func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.Local
	}
	return &Normalizer{loc: loc}
}

// Alert converts a raw record. ok is false when the record has no ID.
func (n *Normalizer) Alert(r Record) (model.Alert, bool) {
	id := firstString(r, alertIDKeys)
	if id == "" {
		return model.Alert{}, false
	}

	return model.Alert{
		ID:      id,
		Title:   firstString(r, alertTitleKeys),
		DueDate: n.firstTime(r, alertDueKeys),
		State:   alertState(firstString(r, stateKeys)),
		CaseID:  caseRef(r),
	}, true
}

// Case converts a raw record. ok is false when the record has no ID.
func (n *Normalizer) Case(r Record) (model.Case, bool) {
	id := firstString(r, caseIDKeys)
	if id == "" {
		return model.Case{}, false
	}

	c := model.Case{
		ID:        id,
		Label:     firstString(r, caseLabelKeys),
		State:     caseState(firstString(r, stateKeys)),
		CreatedAt: n.firstTime(r, caseCreatedKeys),
		Employee:  employeeName(r),
	}
	if c.State == model.CaseClosed {
		c.ClosedAt = n.firstTime(r, caseClosedKeys)
	}
	return c, true
}

// Alerts normalizes a list, dropping records without an ID.
func (n *Normalizer) Alerts(records []Record) []model.Alert {
	out := make([]model.Alert, 0, len(records))
	for _, r := range records {
		if a, ok := n.Alert(r); ok {
			out = append(out, a)
		}
	}
	return out
}

// Cases normalizes a list, dropping records without an ID.
func (n *Normalizer) Cases(records []Record) []model.Case {
	out := make([]model.Case, 0, len(records))
	for _, r := range records {
		if c, ok := n.Case(r); ok {
			out = append(out, c)
		}
	}
	return out
}

func alertState(raw string) model.AlertState {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "pendiente", "pending", "activa":
		return model.AlertPending
	case "vencida", "vencido", "expired":
		return model.AlertExpired
	default:
		return model.AlertOther
	}
}

func caseState(raw string) model.CaseStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pendiente", "pending", "en progreso", "in progress":
		return model.CasePending
	case "cerrado", "closed", "terminado":
		return model.CaseClosed
	default:
		return model.CaseOpen
	}
}

// caseRef reads the linked case, which is either a scalar id or a nested
// object carrying one.
func caseRef(r Record) string {
	for _, k := range alertCaseKeys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		if obj, isObj := v.(map[string]interface{}); isObj {
			if id := firstString(Record(obj), caseIDKeys); id != "" {
				return id
			}
			continue
		}
		if s := scalarString(v); s != "" {
			return s
		}
	}
	return ""
}

func employeeName(r Record) string {
	if name := firstString(r, caseEmployeeKeys); name != "" {
		return name
	}
	if obj, ok := r["empleado"].(map[string]interface{}); ok {
		return scalarString(obj["nombre"])
	}
	return ""
}

// firstString returns the first non-empty scalar found under keys.
func firstString(r Record, keys []string) string {
	for _, k := range keys {
		if s := scalarString(r[k]); s != "" {
			return s
		}
	}
	return ""
}

// scalarString renders strings and numbers; anything else is empty.
func scalarString(v interface{}) string {
	switch v.(type) {
	case nil, map[string]interface{}, []interface{}:
		return ""
	}
	return strings.TrimSpace(cast.ToString(v))
}

func (n *Normalizer) firstTime(r Record, keys []string) *time.Time {
	for _, k := range keys {
		if t, ok := n.parseTime(scalarString(r[k])); ok {
			return &t
		}
	}
	return nil
}

func (n *Normalizer) parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, n.loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
