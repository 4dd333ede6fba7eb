package sync

import (
	"context"
	"errors"
	gosync "sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/casewatch/internal/derive"
	"github.com/nhle/casewatch/internal/logger"
	"github.com/nhle/casewatch/internal/metrics"
	"github.com/nhle/casewatch/internal/model"
	"github.com/nhle/casewatch/internal/seen"
	"github.com/nhle/casewatch/internal/source"
	"github.com/nhle/casewatch/internal/store"
)

// defaultFetchTimeout bounds both fetches of one cycle.
const defaultFetchTimeout = 30 * time.Second

// CycleResult describes one derivation cycle.
type CycleResult struct {
	Seq       uint64
	Trigger   model.Signal
	StartedAt time.Time
	Duration  time.Duration

	// Notifications is the full derived list; Unread is the subset not yet
	// acknowledged. Both are empty when Stale is set.
	Notifications []model.Notification
	Unread        []model.Notification

	// AlertsErr and CasesErr are the fetch errors, if any. A failed
	// collection was treated as empty.
	AlertsErr error
	CasesErr  error

	// Stale is set when a newer cycle had already published, so this
	// cycle's result was discarded.
	Stale bool
}

// AuthFailed reports whether either fetch failed authentication.
func (r CycleResult) AuthFailed() bool {
	return source.IsAuthError(r.AlertsErr) || source.IsAuthError(r.CasesErr)
}

// Err joins both fetch errors.
func (r CycleResult) Err() error {
	return errors.Join(r.AlertsErr, r.CasesErr)
}

// Engine runs derivation cycles and holds the last published result.
type Engine struct {
	src          source.Collections
	seen         *seen.Store
	cycles       store.Store
	log          *zap.Logger
	now          func() time.Time
	fetchTimeout time.Duration

	seq atomic.Uint64

	mu            gosync.RWMutex
	published     uint64
	notifications []model.Notification
	snapshot      model.CaseSnapshot
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithFetchTimeout bounds each cycle's fetches.
func WithFetchTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.fetchTimeout = d
		}
	}
}

// WithCycleLog records every cycle in s.
func WithCycleLog(s store.Store) EngineOption {
	return func(e *Engine) { e.cycles = s }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.log = l }
}

// NewEngine creates an Engine reading from src and tracking
// acknowledgements in seenStore. The seen store should already be loaded.
func NewEngine(src source.Collections, seenStore *seen.Store, opts ...EngineOption) *Engine {
	e := &Engine{
		src:          src,
		seen:         seenStore,
		now:          time.Now,
		fetchTimeout: defaultFetchTimeout,
		snapshot:     model.CaseSnapshot{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = logger.OrNop(e.log).Named("engine").With(zap.String("session", uuid.NewString()))
	return e
}

// RunCycle fetches both collections, derives notifications and publishes
// them unless a newer cycle already has. It never returns an error: fetch
// failures are reported in the result.
func (e *Engine) RunCycle(ctx context.Context, trigger model.Signal) CycleResult {
	seq := e.seq.Add(1)
	started := e.now()
	res := CycleResult{Seq: seq, Trigger: trigger, StartedAt: started}

	metrics.CyclesTotal.WithLabelValues(string(trigger)).Inc()
	log := e.log.With(zap.Uint64("seq", seq), zap.String("trigger", string(trigger)))

	alerts, cases := e.fetch(ctx, &res, log)

	e.mu.RLock()
	prev := e.snapshot
	e.mu.RUnlock()

	out := derive.Derive(alerts, cases, prev, e.now())

	e.mu.Lock()
	if seq <= e.published {
		e.mu.Unlock()
		res.Stale = true
		res.Duration = time.Since(started)
		metrics.StaleCyclesTotal.Inc()
		log.Debug("discarding stale cycle result")
		e.record(ctx, res, len(alerts), len(cases), 0, 0)
		return res
	}
	e.published = seq
	e.notifications = out.Notifications
	if res.CasesErr == nil {
		e.snapshot = out.CaseState
	}
	e.mu.Unlock()

	// A failed fetch would make every seen ID of that collection look
	// stale, so pruning waits for a clean cycle.
	if res.AlertsErr == nil && res.CasesErr == nil {
		removed, err := e.seen.Prune(ctx, model.NotificationIDs(out.Notifications))
		if err != nil {
			log.Warn("pruning seen set failed", zap.Error(err))
		} else if removed > 0 {
			log.Debug("pruned seen set", zap.Int("removed", removed))
		}
	}

	res.Notifications = out.Notifications
	res.Unread = e.seen.FilterUnread(out.Notifications)
	res.Duration = time.Since(started)

	metrics.CycleDuration.Observe(res.Duration.Seconds())
	setKindGauges(out.Notifications)
	metrics.UnreadNotifications.Set(float64(len(res.Unread)))

	log.Info("cycle complete",
		zap.Int("alerts", len(alerts)),
		zap.Int("cases", len(cases)),
		zap.Int("notifications", len(res.Notifications)),
		zap.Int("unread", len(res.Unread)),
		zap.Duration("duration", res.Duration),
	)
	e.record(ctx, res, len(alerts), len(cases), len(res.Notifications), len(res.Unread))

	return res
}

// fetch loads alerts and cases concurrently. A failed collection is
// returned empty and its error stored in res.
func (e *Engine) fetch(ctx context.Context, res *CycleResult, log *zap.Logger) ([]model.Alert, []model.Case) {
	fetchCtx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	defer cancel()

	var (
		alerts []model.Alert
		cases  []model.Case
	)

	// Each goroutine swallows its error so that one failure does not
	// cancel the other fetch.
	var g errgroup.Group
	g.Go(func() error {
		a, err := e.src.ListAlerts(fetchCtx)
		if err != nil {
			res.AlertsErr = err
			return nil
		}
		alerts = a
		return nil
	})
	g.Go(func() error {
		c, err := e.src.ListCases(fetchCtx)
		if err != nil {
			res.CasesErr = err
			return nil
		}
		cases = c
		return nil
	})
	_ = g.Wait()

	if res.AlertsErr != nil {
		metrics.FetchFailuresTotal.WithLabelValues("alerts").Inc()
		log.Warn("fetching alerts failed, using empty list", zap.Error(res.AlertsErr))
	}
	if res.CasesErr != nil {
		metrics.FetchFailuresTotal.WithLabelValues("cases").Inc()
		log.Warn("fetching cases failed, using empty list", zap.Error(res.CasesErr))
	}

	return alerts, cases
}

func (e *Engine) record(ctx context.Context, res CycleResult, alerts, cases, notifications, unread int) {
	if e.cycles == nil {
		return
	}
	rec := model.CycleRecord{
		Seq:           res.Seq,
		StartedAt:     res.StartedAt,
		Duration:      res.Duration,
		Trigger:       res.Trigger,
		Alerts:        alerts,
		Cases:         cases,
		Notifications: notifications,
		Unread:        unread,
		AlertsError:   errString(res.AlertsErr),
		CasesError:    errString(res.CasesErr),
		Stale:         res.Stale,
	}
	// The cycle log is diagnostic only; a write must not outlive a cancelled
	// caller but also must not fail the cycle.
	if err := e.cycles.RecordCycle(context.WithoutCancel(ctx), rec); err != nil {
		e.log.Warn("recording cycle failed", zap.Uint64("seq", res.Seq), zap.Error(err))
	}
}

func setKindGauges(ns []model.Notification) {
	counts := map[model.NotificationKind]int{
		model.KindAlertDueSoon:     0,
		model.KindAlertExpired:     0,
		model.KindCaseNew:          0,
		model.KindCaseClosed:       0,
		model.KindCaseNearDeadline: 0,
	}
	for _, n := range ns {
		counts[n.Kind]++
	}
	for kind, c := range counts {
		metrics.Notifications.WithLabelValues(string(kind)).Set(float64(c))
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Notifications returns the last published notification list.
func (e *Engine) Notifications() []model.Notification {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]model.Notification(nil), e.notifications...)
}

// Unread returns the published notifications not yet acknowledged.
func (e *Engine) Unread() []model.Notification {
	return e.seen.FilterUnread(e.Notifications())
}

// UnreadCount returns len(Unread()).
func (e *Engine) UnreadCount() int {
	return len(e.Unread())
}

// Snapshot returns a copy of the case-state snapshot that the next cycle
// will diff against.
func (e *Engine) Snapshot() model.CaseSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot.Clone()
}

// Acknowledge marks one notification as seen.
func (e *Engine) Acknowledge(ctx context.Context, id string) error {
	return e.seen.Acknowledge(ctx, id)
}

// AcknowledgeAll marks every published notification as seen.
func (e *Engine) AcknowledgeAll(ctx context.Context) error {
	ns := e.Notifications()
	ids := make([]string, 0, len(ns))
	for _, n := range ns {
		ids = append(ids, n.ID)
	}
	return e.seen.AcknowledgeAll(ctx, ids)
}
