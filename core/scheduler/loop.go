package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"whisperli/logger"
)

// ErrClosed is returned by Do once the loop has been closed.
var ErrClosed = errors.New("scheduler: loop closed")

// Loop runs closures one at a time on a single goroutine. Everything that
// mutates mixer state goes through it, so nothing else needs locks.
type Loop struct {
	queue  chan func()
	inline bool
	closed chan struct{}
	once   sync.Once
}

// NewLoop returns a loop with a queue of the given capacity. Run must be
// started for queued work to execute.
func NewLoop(size int) *Loop {
	if size <= 0 {
		size = 256
	}
	return &Loop{
		queue:  make(chan func(), size),
		closed: make(chan struct{}),
	}
}

// NewInlineLoop returns a loop that runs posted closures immediately in the
// caller's goroutine. Tests pair it with ManualClock.
func NewInlineLoop() *Loop {
	return &Loop{inline: true, closed: make(chan struct{})}
}

// Post queues f. It reports false when the loop is closed.
func (l *Loop) Post(f func()) bool {
	if l.inline {
		select {
		case <-l.closed:
			return false
		default:
		}
		f()
		return true
	}
	select {
	case <-l.closed:
		return false
	default:
	}
	select {
	case l.queue <- f:
		return true
	case <-l.closed:
		return false
	}
}

// Do runs f on the loop and waits for it. If ctx ends first Do returns the
// context error; f may still run later. Do must not be called from the loop
// goroutine itself.
func (l *Loop) Do(ctx context.Context, f func()) error {
	if l.inline {
		select {
		case <-l.closed:
			return ErrClosed
		default:
		}
		f()
		return nil
	}

	select {
	case <-l.closed:
		return ErrClosed
	default:
	}

	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		f()
	}
	select {
	case l.queue <- wrapped:
	case <-l.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-l.closed:
		// prefer reporting completion when both are ready
		select {
		case <-done:
			return nil
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes queued work until ctx is cancelled or Close is called. Work
// already queued at Close time is drained first.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case f := <-l.queue:
			l.exec(f)
		case <-l.closed:
			l.Drain()
			return
		case <-ctx.Done():
			return
		}
	}
}

// Drain runs everything currently queued and returns how many closures ran.
func (l *Loop) Drain() int {
	n := 0
	for {
		select {
		case f := <-l.queue:
			l.exec(f)
			n++
		default:
			return n
		}
	}
}

// Close stops accepting work. It is safe to call more than once.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.closed) })
}

func (l *Loop) exec(f func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("scheduler loop task panicked", logger.String("panic", fmt.Sprint(r)))
		}
	}()
	f()
}
