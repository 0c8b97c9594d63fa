package control

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultAnimationInterval is how often temporal playback advances a layer
const DefaultAnimationInterval = 1500 * time.Millisecond

// Animator delivers playback ticks. It never touches controller state; the
// owning loop reads Ticks and calls AdvanceLayer.
type Animator struct {
	interval time.Duration
	ticks    chan time.Time
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	logger   *zap.SugaredLogger

	mu              sync.Mutex
	lastTickAt      time.Time
	ticksSinceStart int64
}

// NewAnimator creates a stopped animator
func NewAnimator(interval time.Duration, log *zap.SugaredLogger) *Animator {
	if interval <= 0 {
		interval = DefaultAnimationInterval
	}
	return &Animator{
		interval: interval,
		logger:   log,
	}
}

// Start begins the tick loop. Calling Start on a running animator is a no-op.
func (a *Animator) Start() {
	if a.cancel != nil {
		return
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())
	// Size one: a slow owner sees at most one pending tick
	a.ticks = make(chan time.Time, 1)

	a.mu.Lock()
	a.ticksSinceStart = 0
	a.mu.Unlock()

	a.wg.Add(1)
	go a.run(a.ctx, a.ticks)
	a.logger.Debugw("Animation started", "interval", a.interval)
}

// Stop halts the tick loop and waits for it to exit
func (a *Animator) Stop() {
	if a.cancel == nil {
		return
	}
	a.cancel()
	a.wg.Wait()
	a.cancel = nil
	a.ticks = nil
	a.logger.Debugw("Animation stopped", "ticks", a.TickCount())
}

// Running reports whether the tick loop is active
func (a *Animator) Running() bool {
	return a.cancel != nil
}

// Ticks returns the tick channel, or nil when stopped. Receiving from a nil
// channel blocks forever, so a stopped animator is inert inside a select.
func (a *Animator) Ticks() <-chan time.Time {
	return a.ticks
}

// TickCount returns the ticks delivered since the last Start
func (a *Animator) TickCount() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ticksSinceStart
}

func (a *Animator) run(ctx context.Context, out chan<- time.Time) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case tickTime := <-ticker.C:
			a.mu.Lock()
			a.lastTickAt = tickTime
			a.ticksSinceStart++
			a.mu.Unlock()

			select {
			case out <- tickTime:
			default:
				// Owner hasn't consumed the previous tick; coalesce
			}
		}
	}
}
