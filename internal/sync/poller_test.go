package sync

import (
	"context"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/nhle/casewatch/internal/model"
)

// fakeRunner records triggers. When gate is set, each cycle waits for a
// value on gate or for cancellation.
type fakeRunner struct {
	mu       gosync.Mutex
	triggers []model.Signal
	gate     chan struct{}
	started  chan model.Signal
	canceled bool
}

func newFakeRunner(gated bool) *fakeRunner {
	r := &fakeRunner{started: make(chan model.Signal, 64)}
	if gated {
		r.gate = make(chan struct{})
	}
	return r
}

func (r *fakeRunner) RunCycle(ctx context.Context, trigger model.Signal) CycleResult {
	r.mu.Lock()
	r.triggers = append(r.triggers, trigger)
	seq := uint64(len(r.triggers))
	r.mu.Unlock()
	r.started <- trigger

	if r.gate != nil {
		select {
		case <-r.gate:
		case <-ctx.Done():
			r.mu.Lock()
			r.canceled = true
			r.mu.Unlock()
		}
	}
	return CycleResult{Seq: seq, Trigger: trigger}
}

func (r *fakeRunner) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.triggers)
}

func nextResult(t *testing.T, p *Poller) CycleResultMsg {
	t.Helper()
	select {
	case msg := <-p.Results():
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cycle result")
		return CycleResultMsg{}
	}
}

func noResult(t *testing.T, p *Poller) {
	t.Helper()
	select {
	case msg := <-p.Results():
		t.Fatalf("unexpected cycle result: %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPollerRunsImmediatelyOnStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := New(newFakeRunner(false), time.Hour, nil)
	p.Start(context.Background())
	defer p.Stop()

	msg := nextResult(t, p)
	assert.Equal(t, model.SignalInterval, msg.Trigger)
	assert.Equal(t, uint64(1), msg.Seq)
}

func TestPollerRunsOnInterval(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := newFakeRunner(false)
	p := New(r, 20*time.Millisecond, nil)
	p.Start(context.Background())
	defer p.Stop()

	for i := 0; i < 3; i++ {
		assert.Equal(t, model.SignalInterval, nextResult(t, p).Trigger)
	}
}

func TestPollerNotifyTriggersCycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := New(newFakeRunner(false), time.Hour, nil)
	p.Start(context.Background())
	defer p.Stop()
	nextResult(t, p)

	for _, sig := range []model.Signal{model.SignalFocus, model.SignalManual, model.SignalCaseCreated} {
		p.Notify(sig)
		assert.Equal(t, sig, nextResult(t, p).Trigger)
	}
}

func TestPollerRefreshRunsManualCycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := New(newFakeRunner(false), time.Hour, nil)
	p.Start(context.Background())
	defer p.Stop()
	nextResult(t, p)

	p.Refresh()
	assert.Equal(t, model.SignalManual, nextResult(t, p).Trigger)
}

func TestPollerVisibleOnlyAfterHidden(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := New(newFakeRunner(false), time.Hour, nil)
	p.Start(context.Background())
	defer p.Stop()
	nextResult(t, p)

	p.Notify(model.SignalVisible)
	noResult(t, p)

	p.Notify(model.SignalHidden)
	noResult(t, p)

	p.Notify(model.SignalVisible)
	assert.Equal(t, model.SignalVisible, nextResult(t, p).Trigger)

	p.Notify(model.SignalVisible)
	noResult(t, p)
}

func TestPollerCoalescesTriggers(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := newFakeRunner(true)
	p := New(r, time.Hour, nil)
	p.Start(context.Background())
	defer p.Stop()

	<-r.started // initial cycle in flight
	for i := 0; i < 5; i++ {
		p.Notify(model.SignalCaseUpdated)
	}

	r.gate <- struct{}{}
	assert.Equal(t, model.SignalCaseUpdated, <-r.started)
	r.gate <- struct{}{}

	nextResult(t, p)
	nextResult(t, p)
	noResult(t, p)
	assert.Equal(t, 2, r.calls())
}

func TestPollerStopCancelsInFlightCycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := newFakeRunner(true)
	p := New(r, time.Hour, nil)
	p.Start(context.Background())
	<-r.started

	p.Stop()

	assert.False(t, p.Running())
	r.mu.Lock()
	assert.True(t, r.canceled)
	r.mu.Unlock()

	// Cancelled cycles do not publish.
	noResult(t, p)
}

func TestPollerRestartAfterStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := newFakeRunner(false)
	p := New(r, time.Hour, nil)

	p.Start(context.Background())
	nextResult(t, p)
	p.Stop()
	p.Stop()

	p.Notify(model.SignalManual) // ignored while stopped
	p.Start(context.Background())
	defer p.Stop()

	assert.Equal(t, model.SignalInterval, nextResult(t, p).Trigger)
	noResult(t, p)
	assert.Equal(t, 2, r.calls())
}

func TestPollerStopsWithParentContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := New(newFakeRunner(false), time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	nextResult(t, p)

	cancel()
	require.Eventually(t, func() bool { return !p.Running() }, time.Second, 5*time.Millisecond)
	p.Stop()
}

func TestWaitForNextResult(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := New(newFakeRunner(false), time.Hour, nil)
	p.Start(context.Background())
	defer p.Stop()

	msg := p.WaitForNextResult()()
	res, ok := msg.(CycleResultMsg)
	require.True(t, ok)
	assert.Equal(t, model.SignalInterval, res.Trigger)
}
