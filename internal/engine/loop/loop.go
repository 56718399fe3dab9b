// Package loop provides the serial executor a rule runs its state machine on.
//
// Every mutation of a rule's watch set, scheduler and supervisor happens inside
// a callback posted to its Loop, so none of those components need locks.
// Blocking work runs on separate goroutines that post their results back.
package loop

import (
	"context"
	"sync"
	"time"

	"go.trai.ch/zerr"
)

// ErrClosed is returned when posting to a closed loop.
var ErrClosed = zerr.New("loop closed")

// Loop runs posted callbacks one at a time, in FIFO order, on a single goroutine.
// The queue is unbounded so callbacks may post further callbacks without blocking.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

// New starts a loop goroutine.
func New() *Loop {
	l := &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)

	for {
		l.mu.Lock()
		for len(l.queue) == 0 {
			if l.closed {
				l.mu.Unlock()
				return
			}
			l.mu.Unlock()
			<-l.wake
			l.mu.Lock()
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		fn()
	}
}

// Post enqueues fn. It reports false if the loop is closed.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Call runs fn on the loop and waits until it returned or ctx is done.
// It must not be called from the loop goroutine.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrClosed
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting callbacks. Callbacks already queued still run.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Done is closed once the loop goroutine has drained its queue after Close.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Timer is a one-shot timer whose callback runs on the loop.
type Timer struct {
	t    *time.Timer
	dead bool
}

// AfterFunc runs fn on the loop once d has elapsed.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *Timer {
	tm := &Timer{}
	tm.t = time.AfterFunc(d, func() {
		l.Post(func() {
			if tm.dead {
				return
			}
			tm.dead = true
			fn()
		})
	})
	return tm
}

// Stop cancels the timer. Called on the loop, it guarantees the callback
// does not run afterwards, even if the timer already expired and its
// callback is queued.
func (t *Timer) Stop() {
	if t == nil {
		return
	}
	t.dead = true
	t.t.Stop()
}
