package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/casewatch/internal/model"
	"github.com/nhle/casewatch/internal/seen"
	"github.com/nhle/casewatch/internal/source"
	"github.com/nhle/casewatch/tests/testutil"
)

var testNow = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

// fakeSource serves fixed collections. The hooks, when set, replace them.
type fakeSource struct {
	mu        gosync.Mutex
	alerts    []model.Alert
	cases     []model.Case
	alertsErr error
	casesErr  error

	alertsHook func(ctx context.Context) ([]model.Alert, error)
}

func (f *fakeSource) set(alerts []model.Alert, cases []model.Case) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts, f.cases = alerts, cases
	f.alertsErr, f.casesErr = nil, nil
}

func (f *fakeSource) fail(alertsErr, casesErr error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alertsErr, f.casesErr = alertsErr, casesErr
}

func (f *fakeSource) ListAlerts(ctx context.Context) ([]model.Alert, error) {
	f.mu.Lock()
	hook := f.alertsHook
	alerts, err := f.alerts, f.alertsErr
	f.mu.Unlock()
	if hook != nil {
		return hook(ctx)
	}
	return alerts, err
}

func (f *fakeSource) ListCases(context.Context) ([]model.Case, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cases, f.casesErr
}

func newTestEngine(t *testing.T, src source.Collections) (*Engine, *seen.Store) {
	t.Helper()
	st := testutil.NewTestStore(t)
	seenStore := seen.New(st, nil)
	seenStore.Load(context.Background())
	e := NewEngine(src, seenStore,
		WithClock(func() time.Time { return testNow }),
		WithCycleLog(st),
	)
	return e, seenStore
}

func ids(ns []model.Notification) []string {
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.ID)
	}
	return out
}

func TestRunCyclePublishesNotifications(t *testing.T) {
	src := &fakeSource{}
	src.set(
		[]model.Alert{
			{ID: "A1", Title: "Exam", DueDate: ptr(testNow), State: model.AlertPending},
			{ID: "A2", Title: "Report", DueDate: ptr(testNow.Add(-48 * time.Hour)), State: model.AlertPending},
		},
		[]model.Case{{ID: "7", State: model.CaseOpen, CreatedAt: ptr(testNow.Add(-72 * time.Hour))}},
	)
	e, _ := newTestEngine(t, src)

	res := e.RunCycle(context.Background(), model.SignalManual)

	assert.False(t, res.Stale)
	assert.NoError(t, res.Err())
	assert.Equal(t, uint64(1), res.Seq)
	assert.Equal(t, []string{"alerta-vencida-A2", "alerta-A1", "caso-nuevo-7"}, ids(res.Notifications))
	assert.Len(t, res.Unread, 3)
	assert.Equal(t, ids(res.Notifications), ids(e.Notifications()))
	assert.Equal(t, 3, e.UnreadCount())
	assert.Contains(t, e.Snapshot(), "7")
}

func TestAcknowledgeThenNextCycle(t *testing.T) {
	src := &fakeSource{}
	src.set(nil, []model.Case{{ID: "7", State: model.CaseOpen, CreatedAt: ptr(testNow.Add(-2 * time.Hour))}})
	e, seenStore := newTestEngine(t, src)
	ctx := context.Background()

	e.RunCycle(ctx, model.SignalInterval)
	require.Equal(t, 1, e.UnreadCount())

	require.NoError(t, e.Acknowledge(ctx, "caso-nuevo-7"))
	assert.Equal(t, 0, e.UnreadCount())

	// Still recent, so the notification persists and stays read.
	res := e.RunCycle(ctx, model.SignalInterval)
	assert.Equal(t, []string{"caso-nuevo-7"}, ids(res.Notifications))
	assert.Empty(t, res.Unread)
	assert.True(t, seenStore.IsSeen("caso-nuevo-7"))
}

func TestCaseClosedAcrossCycles(t *testing.T) {
	src := &fakeSource{}
	src.set(nil, []model.Case{{ID: "9", State: model.CaseOpen, CreatedAt: ptr(testNow.Add(-96 * time.Hour))}})
	e, _ := newTestEngine(t, src)
	ctx := context.Background()

	e.RunCycle(ctx, model.SignalInterval)

	src.set(nil, []model.Case{{
		ID: "9", State: model.CaseClosed,
		CreatedAt: ptr(testNow.Add(-96 * time.Hour)),
		ClosedAt:  ptr(testNow.Add(-25 * time.Hour)),
	}})
	res := e.RunCycle(ctx, model.SignalCaseClosed)
	assert.Contains(t, ids(res.Notifications), "caso-cerrado-9")

	res = e.RunCycle(ctx, model.SignalInterval)
	assert.NotContains(t, ids(res.Notifications), "caso-cerrado-9")
}

func TestPruneDropsStaleSeenIDs(t *testing.T) {
	src := &fakeSource{}
	src.set([]model.Alert{{ID: "A1", DueDate: ptr(testNow), State: model.AlertPending}}, nil)
	e, seenStore := newTestEngine(t, src)
	ctx := context.Background()

	e.RunCycle(ctx, model.SignalInterval)
	require.NoError(t, e.Acknowledge(ctx, "alerta-A1"))

	src.set(nil, nil)
	e.RunCycle(ctx, model.SignalInterval)
	assert.Empty(t, seenStore.IDs())
}

func TestFetchFailureKeepsSnapshotAndSkipsPrune(t *testing.T) {
	src := &fakeSource{}
	src.set(
		[]model.Alert{{ID: "A1", DueDate: ptr(testNow), State: model.AlertPending}},
		[]model.Case{{ID: "7", State: model.CaseOpen, CreatedAt: ptr(testNow.Add(-72 * time.Hour))}},
	)
	e, seenStore := newTestEngine(t, src)
	ctx := context.Background()

	e.RunCycle(ctx, model.SignalInterval)
	require.NoError(t, e.Acknowledge(ctx, "caso-nuevo-7"))
	before := e.Snapshot()

	src.fail(nil, errors.New("connection refused"))
	res := e.RunCycle(ctx, model.SignalInterval)

	require.Error(t, res.CasesErr)
	assert.NoError(t, res.AlertsErr)
	assert.Equal(t, []string{"alerta-A1"}, ids(res.Notifications))
	assert.Equal(t, before, e.Snapshot())
	assert.True(t, seenStore.IsSeen("caso-nuevo-7"))

	// Once cases load again, case 7 is known and not announced again.
	src.fail(nil, nil)
	res = e.RunCycle(ctx, model.SignalInterval)
	assert.NotContains(t, ids(res.Notifications), "caso-nuevo-7")
}

func TestAuthFailureReported(t *testing.T) {
	src := &fakeSource{}
	src.fail(&source.AuthError{SourceType: source.SourceTypeHRAPI, Message: "expired"}, nil)
	e, _ := newTestEngine(t, src)

	res := e.RunCycle(context.Background(), model.SignalInterval)
	assert.True(t, res.AuthFailed())
	assert.False(t, res.Stale)
}

func TestStaleCycleIsDiscarded(t *testing.T) {
	src := &fakeSource{}
	src.set(nil, nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once gosync.Once
	src.alertsHook = func(ctx context.Context) ([]model.Alert, error) {
		first := false
		once.Do(func() { first = true })
		if first {
			close(entered)
			<-release
			return []model.Alert{{ID: "OLD", DueDate: ptr(testNow), State: model.AlertPending}}, nil
		}
		return []model.Alert{{ID: "NEW", DueDate: ptr(testNow), State: model.AlertPending}}, nil
	}
	e, _ := newTestEngine(t, src)
	ctx := context.Background()

	slow := make(chan CycleResult, 1)
	go func() { slow <- e.RunCycle(ctx, model.SignalInterval) }()
	<-entered

	fast := e.RunCycle(ctx, model.SignalManual)
	require.False(t, fast.Stale)
	close(release)

	old := <-slow
	assert.True(t, old.Stale)
	assert.Less(t, old.Seq, fast.Seq)
	assert.Empty(t, old.Notifications)
	assert.Equal(t, []string{"alerta-NEW"}, ids(e.Notifications()))
}

func TestCyclesAreRecorded(t *testing.T) {
	st := testutil.NewTestStore(t)
	src := &fakeSource{}
	src.set(nil, []model.Case{{ID: "7", State: model.CaseOpen}})
	seenStore := seen.New(seen.NewMemoryBackend(), nil)
	e := NewEngine(src, seenStore, WithClock(func() time.Time { return testNow }), WithCycleLog(st))
	ctx := context.Background()

	e.RunCycle(ctx, model.SignalFocus)
	src.fail(errors.New("timeout"), nil)
	e.RunCycle(ctx, model.SignalInterval)

	recs, err := st.RecentCycles(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, uint64(2), recs[0].Seq)
	assert.Equal(t, "timeout", recs[0].AlertsError)
	assert.Equal(t, model.SignalFocus, recs[1].Trigger)
	assert.Equal(t, 1, recs[1].Cases)
	assert.Equal(t, 1, recs[1].Notifications)
}

func TestAcknowledgeAll(t *testing.T) {
	src := &fakeSource{}
	src.set(
		[]model.Alert{{ID: "A1", DueDate: ptr(testNow), State: model.AlertPending}},
		[]model.Case{{ID: "7", State: model.CaseOpen}},
	)
	e, _ := newTestEngine(t, src)
	ctx := context.Background()

	e.RunCycle(ctx, model.SignalInterval)
	require.Equal(t, 2, e.UnreadCount())

	require.NoError(t, e.AcknowledgeAll(ctx))
	assert.Zero(t, e.UnreadCount())
	assert.Len(t, e.Notifications(), 2)
}
