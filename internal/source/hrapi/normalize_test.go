package hrapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/casewatch/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalizeAlertAliases(t *testing.T) {
	n := NewNormalizer(time.UTC)

	tests := []struct {
		name string
		rec  Record
		want model.Alert
	}{
		{
			name: "spanish lower",
			rec: Record{
				"id": float64(5), "titulo": "Revisar contrato",
				"fecha_vencimiento": "2024-03-10", "estado": "Pendiente", "caso": float64(7),
			},
			want: model.Alert{ID: "5", Title: "Revisar contrato", State: model.AlertPending, CaseID: "7"},
		},
		{
			name: "capitalized",
			rec: Record{
				"Id_Alerta": "A9", "Descripcion": "Entrega", "Fecha_Vencimiento": "2024-03-10",
				"Estado": "VENCIDA", "Id_Caso": "C1",
			},
			want: model.Alert{ID: "A9", Title: "Entrega", State: model.AlertExpired, CaseID: "C1"},
		},
		{
			name: "english with nested case",
			rec: Record{
				"id": "x", "title": "Call", "due_date": "2024-03-10T09:30:00Z",
				"status": "done", "caso": map[string]interface{}{"id": float64(3)},
			},
			want: model.Alert{ID: "x", Title: "Call", State: model.AlertOther, CaseID: "3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := n.Alert(tt.rec)
			require.True(t, ok)
			require.NotNil(t, got.DueDate)
			assert.Equal(t, date(2024, 3, 10).Format("2006-01-02"), got.DueDate.Format("2006-01-02"))
			got.DueDate = nil
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeAlertDefaults(t *testing.T) {
	n := NewNormalizer(time.UTC)

	a, ok := n.Alert(Record{"id": "1"})
	require.True(t, ok)
	assert.Equal(t, model.AlertPending, a.State)
	assert.Nil(t, a.DueDate)
	assert.Empty(t, a.CaseID)

	a, ok = n.Alert(Record{"id": "2", "fecha": "not a date"})
	require.True(t, ok)
	assert.Nil(t, a.DueDate)

	_, ok = n.Alert(Record{"titulo": "no id"})
	assert.False(t, ok)
}

func TestNormalizeCase(t *testing.T) {
	n := NewNormalizer(time.UTC)

	c, ok := n.Case(Record{
		"Id_Caso": float64(9), "Diagnostico": "Lumbalgia", "Estado": "Cerrado",
		"Fecha_Inicio": "2024-03-01 08:00:00", "Fecha_Cierre": "2024-03-09T17:00:00.123456",
		"empleado": map[string]interface{}{"nombre": "Ana Ruiz"},
	})
	require.True(t, ok)
	assert.Equal(t, "9", c.ID)
	assert.Equal(t, "Lumbalgia", c.Label)
	assert.Equal(t, model.CaseClosed, c.State)
	assert.Equal(t, "Ana Ruiz", c.Employee)
	require.NotNil(t, c.CreatedAt)
	assert.Equal(t, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), *c.CreatedAt)
	require.NotNil(t, c.ClosedAt)
	assert.Equal(t, 17, c.ClosedAt.Hour())
}

func TestNormalizeCaseStates(t *testing.T) {
	n := NewNormalizer(time.UTC)

	tests := map[string]model.CaseStatus{
		"abierto":     model.CaseOpen,
		"Activo":      model.CaseOpen,
		"":            model.CaseOpen,
		"archivado":   model.CaseOpen,
		"pendiente":   model.CasePending,
		"En Progreso": model.CasePending,
		"in progress": model.CasePending,
		"CERRADO":     model.CaseClosed,
		"terminado":   model.CaseClosed,
	}
	for raw, want := range tests {
		c, ok := n.Case(Record{"id": "1", "estado": raw})
		require.True(t, ok)
		assert.Equal(t, want, c.State, raw)
	}
}

func TestNormalizeCaseClosedAtOnlyWhenClosed(t *testing.T) {
	n := NewNormalizer(time.UTC)

	c, ok := n.Case(Record{"id": "1", "estado": "abierto", "fecha_cierre": "2024-03-09"})
	require.True(t, ok)
	assert.Nil(t, c.ClosedAt)
}

func TestNormalizeZonelessDatesUseLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	n := NewNormalizer(loc)

	c, ok := n.Case(Record{"id": "1", "fecha_inicio": "2024-03-01"})
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, loc), *c.CreatedAt)
}

func TestAdapterListsEnvelopeAndArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case alertsPath:
			w.Write([]byte(`{"count":2,"results":[{"id":1,"titulo":"A"},{"titulo":"missing id"}]}`))
		case casesPath:
			w.Write([]byte(`[{"id":7,"estado":"abierto"},{"id":9,"estado":"cerrado"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	a := NewAdapter(NewClient(srv.URL, ""), time.UTC)
	ctx := context.Background()

	alerts, err := a.ListAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "1", alerts[0].ID)

	cases, err := a.ListCases(ctx)
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, model.CaseClosed, cases[1].State)
}

func TestAdapterWrapsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewAdapter(NewClient(srv.URL, ""), time.UTC).ListCases(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching cases")
}
