package rain

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// TickerFunc starts a ticker and returns its channel and stop function.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

func newTimeTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithTicker replaces the wall-clock ticker.
func WithTicker(fn TickerFunc) LoopOption {
	return func(l *Loop) { l.ticker = fn }
}

// WithFrameHook runs fn on the loop goroutine after every tick.
func WithFrameHook(fn func()) LoopOption {
	return func(l *Loop) { l.onFrame = fn }
}

type size struct{ w, h int }

// Loop drives a Renderer on a fixed interval. Ticks and resizes run on a
// single goroutine; a resize requested between ticks is applied before the
// next tick paints.
type Loop struct {
	renderer *Renderer
	interval time.Duration
	ticker   TickerFunc
	onFrame  func()

	mu      sync.Mutex
	pending *size
	wake    chan struct{}

	ticks   atomic.Int64
	columns atomic.Int64

	startOnce sync.Once
	closeOnce sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewLoop creates a stopped loop around r.
func NewLoop(r *Renderer, interval time.Duration, opts ...LoopOption) *Loop {
	l := &Loop{
		renderer: r,
		interval: interval,
		ticker:   newTimeTicker,
		wake:     make(chan struct{}, 1),
		cancel:   func() {},
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.columns.Store(int64(r.Columns()))
	return l
}

// Start launches the loop goroutine. It stops when ctx is done or Close is
// called. Calling Start more than once has no effect.
func (l *Loop) Start(ctx context.Context) {
	l.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(ctx)
		l.mu.Lock()
		l.cancel = cancel
		l.mu.Unlock()
		go l.run(ctx)
	})
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)

	c, stop := l.ticker(l.interval)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.wake:
			l.applyResize()
		case <-c:
			l.applyResize()
			l.renderer.Tick()
			l.ticks.Add(1)
			if l.onFrame != nil {
				l.onFrame()
			}
		}
	}
}

// Resize queues new surface dimensions. Only the latest request is kept.
func (l *Loop) Resize(width, height int) {
	l.mu.Lock()
	l.pending = &size{width, height}
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) applyResize() {
	l.mu.Lock()
	s := l.pending
	l.pending = nil
	l.mu.Unlock()

	if s == nil {
		return
	}
	l.renderer.Resize(s.w, s.h)
	l.columns.Store(int64(l.renderer.Columns()))
}

// Ticks returns how many ticks have run.
func (l *Loop) Ticks() int64 { return l.ticks.Load() }

// Columns returns the column count after the last applied resize.
func (l *Loop) Columns() int { return int(l.columns.Load()) }

// Close stops the ticker and waits for the loop goroutine to exit.
// It is safe to call Close more than once, or on a loop never started.
func (l *Loop) Close() error {
	l.closeOnce.Do(func() {
		started := true
		l.startOnce.Do(func() { started = false })

		l.mu.Lock()
		cancel := l.cancel
		l.mu.Unlock()
		cancel()

		if started {
			<-l.done
		}
	})
	return nil
}
