package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/casewatch/internal/logger"
	"github.com/nhle/casewatch/internal/model"
)

// defaultInterval is used when the configured interval is not positive.
const defaultInterval = 30 * time.Second

// Runner runs one derivation cycle. *Engine satisfies it.
type Runner interface {
	RunCycle(ctx context.Context, trigger model.Signal) CycleResult
}

// CycleResultMsg is a tea.Msg sent when a derivation cycle completes.
type CycleResultMsg struct {
	CycleResult
}

// Poller decides when derivation cycles run: once on start, on every
// interval tick, and on demand through Notify. Cycles never overlap.
type Poller struct {
	runner   Runner
	interval time.Duration
	log      *zap.Logger

	resultCh  chan CycleResultMsg
	triggerCh chan model.Signal

	mu      gosync.Mutex
	running bool
	hidden  bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a Poller that runs cycles through runner.
func New(runner Runner, interval time.Duration, log *zap.Logger) *Poller {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Poller{
		runner:   runner,
		interval: interval,
		log:      logger.OrNop(log).Named("poller"),
		resultCh: make(chan CycleResultMsg, 16),
		// One slot: triggers that arrive while a cycle is pending or in
		// flight collapse into a single follow-up cycle.
		triggerCh: make(chan model.Signal, 1),
	}
}

// Start launches the polling loop. It is a no-op if the poller is already
// running. Cancelling ctx stops the loop like Stop, without waiting.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}

	// Drop a trigger left over from a previous run; the initial cycle
	// covers it.
	select {
	case <-p.triggerCh:
	default:
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true

	go p.loop(loopCtx, p.done)
}

// Stop halts the polling loop, cancels an in-flight cycle and waits for
// the loop goroutine to exit. It is safe to call more than once.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	cancel()
	<-done
}

// Running reports whether the loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Notify feeds a signal to the poller. Hidden only records that the view
// is hidden; visible triggers a cycle only when the view was hidden
// before. Every other signal triggers a cycle. Signals received while
// the poller is stopped only update the hidden state.
func (p *Poller) Notify(sig model.Signal) {
	p.mu.Lock()
	switch sig {
	case model.SignalHidden:
		p.hidden = true
		p.mu.Unlock()
		return
	case model.SignalVisible:
		if !p.hidden {
			p.mu.Unlock()
			return
		}
		p.hidden = false
	}
	running := p.running
	p.mu.Unlock()

	if !running {
		return
	}

	select {
	case p.triggerCh <- sig:
	default:
		p.log.Debug("cycle already pending, coalescing", zap.String("signal", string(sig)))
	}
}

// Refresh requests a manual cycle. Results arrive on the result channel
// like any other cycle.
func (p *Poller) Refresh() {
	p.Notify(model.SignalManual)
}

// Results exposes the result channel for non-TUI consumers.
func (p *Poller) Results() <-chan CycleResultMsg {
	return p.resultCh
}

// loop is the single goroutine that runs cycles.
func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer func() {
		p.mu.Lock()
		if p.done == done {
			p.running = false
		}
		p.mu.Unlock()
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Do an initial cycle immediately
	p.runCycle(ctx, model.SignalInterval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runCycle(ctx, model.SignalInterval)
		case sig := <-p.triggerCh:
			p.runCycle(ctx, sig)
		}
	}
}

func (p *Poller) runCycle(ctx context.Context, sig model.Signal) {
	if ctx.Err() != nil {
		return
	}
	res := p.runner.RunCycle(ctx, sig)
	if ctx.Err() != nil {
		// Stopped mid-cycle; the result reflects cancelled fetches.
		return
	}
	p.sendResult(CycleResultMsg{CycleResult: res})
}

// sendResult sends a CycleResultMsg on the result channel without blocking.
func (p *Poller) sendResult(msg CycleResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
		p.log.Debug("result channel full, dropping cycle result", zap.Uint64("seq", msg.Seq))
	}
}

// waitForResult returns a tea.Cmd that waits for the next result from
// the result channel.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next cycle result.
// This should be called after processing a CycleResultMsg to continue
// listening for future results.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
