package host

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// LoopConfig configures a Loop.
type LoopConfig struct {
	// QueueSize is the task channel buffer.
	// Default: 256.
	QueueSize int

	// Logger is the structured logger. If nil, slog.Default() is used.
	Logger *slog.Logger

	// OnError is called with a *PanicError when a task or flush panics.
	OnError func(err error)
}

// DefaultLoopConfig returns a LoopConfig with sensible defaults.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		QueueSize: 256,
	}
}

// Loop runs tasks and component flushes one at a time on the goroutine
// that calls Run. It is the error boundary of the runtime: a panicking task
// is logged and reported, and the loop keeps going.
type Loop struct {
	tasks  chan func()
	wake   chan struct{}
	done   chan struct{}
	logger *slog.Logger
	onErr  func(error)

	closeOnce sync.Once
	closed    atomic.Bool

	// flushes are components waiting to re-render, deduplicated by the
	// components' own dirty flags.
	flushMu sync.Mutex
	flushes []Flusher

	panics atomic.Int64
}

// NewLoop creates a loop. Call Run to start processing.
func NewLoop(cfg LoopConfig) *Loop {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultLoopConfig().QueueSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		tasks:  make(chan func(), cfg.QueueSize),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: logger,
		onErr:  cfg.OnError,
	}
}

// Dispatch queues fn to run on the loop goroutine.
// It never blocks: a full queue drops fn and returns ErrQueueFull.
func (l *Loop) Dispatch(fn func()) error {
	if l.closed.Load() {
		return ErrLoopClosed
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.done:
		return ErrLoopClosed
	default:
		return ErrQueueFull
	}
}

// Scheduler returns a Scheduler that flushes components on this loop.
// Flushes never hit the task queue, so they cannot be dropped.
func (l *Loop) Scheduler() Scheduler {
	return func(f Flusher) {
		if l.closed.Load() {
			return
		}
		l.flushMu.Lock()
		l.flushes = append(l.flushes, f)
		l.flushMu.Unlock()

		select {
		case l.wake <- struct{}{}:
		default:
		}
	}
}

// Run processes tasks until ctx is cancelled or Close is called.
// It returns ctx.Err() on cancellation and nil on Close.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			l.Close()
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.tasks:
			l.exec(fn)
			l.drainFlushes()
		case <-l.wake:
			l.drainFlushes()
		}
	}
}

// Close stops the loop. Queued tasks are discarded. Close is idempotent.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.done)
	})
}

// Panics returns how many tasks panicked.
func (l *Loop) Panics() int64 {
	return l.panics.Load()
}

func (l *Loop) drainFlushes() {
	for {
		l.flushMu.Lock()
		flushes := l.flushes
		l.flushes = nil
		l.flushMu.Unlock()

		if len(flushes) == 0 {
			return
		}
		for _, f := range flushes {
			l.exec(func() { f.Flush() })
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			l.panics.Add(1)
			l.logger.Error("task panic",
				"panic", r,
				"stack", string(stack))
			if l.onErr != nil {
				l.onErr(&PanicError{Value: r, Stack: stack})
			}
		}
	}()
	fn()
}
