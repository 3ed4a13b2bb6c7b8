// Package loop provides event loops that drive a load.Generator.
//
// Loop runs in real time on a single goroutine; transports hand replies to
// it with Post. Virtual runs on a simulated clock and is advanced
// explicitly, which makes runs deterministic.
package loop

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wesleyorama2/rampgen/internal/load"
)

// ErrLoopClosed is returned when work is submitted to a loop that has
// stopped running.
var ErrLoopClosed = errors.New("event loop is closed")

// Loop is a real-time event loop. Every posted function and every timer
// callback runs on the goroutine that called Run, one at a time.
type Loop struct {
	queue  chan func()
	done   chan struct{}
	once   sync.Once
	logger *zap.Logger

	// now returns the current time; replaceable in tests.
	now func() time.Time
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the loop's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithQueueSize sets how many posted functions may wait before Post blocks.
func WithQueueSize(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.queue = make(chan func(), n)
		}
	}
}

// New creates a loop. It does nothing until Run is called.
func New(opts ...Option) *Loop {
	l := &Loop{
		queue:  make(chan func(), 4096),
		done:   make(chan struct{}),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With(zap.String("component", "event-loop"))
	return l
}

// Now returns the current wall clock time with its monotonic reading.
func (l *Loop) Now() time.Time {
	return l.now()
}

// Run processes posted functions and timers until ctx is cancelled or
// Close is called. Work still queued when the loop stops is discarded.
func (l *Loop) Run(ctx context.Context) error {
	defer l.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.queue:
			fn()
		}
	}
}

// Close stops the loop. Pending timers never fire afterwards.
func (l *Loop) Close() {
	l.once.Do(func() {
		close(l.done)
		l.logger.Debug("event loop closed")
	})
}

// Closed returns a channel that is closed once the loop stops.
func (l *Loop) Closed() <-chan struct{} {
	return l.done
}

// Post queues fn to run on the loop goroutine. It is safe to call from any
// goroutine and blocks while the queue is full.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.done:
		return ErrLoopClosed
	default:
	}

	select {
	case l.queue <- fn:
		return nil
	case <-l.done:
		return ErrLoopClosed
	}
}

// After arms a one-shot timer. fn runs on the loop goroutine with the time
// the timer fired. After must be called from the loop goroutine.
func (l *Loop) After(d time.Duration, fn func(now time.Time)) (load.Timer, error) {
	select {
	case <-l.done:
		return nil, ErrLoopClosed
	default:
	}

	t := &timer{}
	t.t = time.AfterFunc(d, func() {
		err := l.Post(func() {
			if t.stopped {
				return
			}
			t.stopped = true
			fn(l.now())
		})
		if err != nil {
			l.logger.Debug("timer fired after close", zap.Error(err))
		}
	})
	return t, nil
}

// timer is only touched on the loop goroutine, apart from the runtime timer
// which is safe for concurrent use.
type timer struct {
	t       *time.Timer
	stopped bool
}

// Stop cancels the timer. A callback that is already queued is dropped.
func (t *timer) Stop() error {
	t.stopped = true
	t.t.Stop()
	return nil
}

var _ load.EventLoop = (*Loop)(nil)
