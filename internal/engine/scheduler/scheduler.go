// Package scheduler turns filtered change notifications into dispatched
// invocations under a rule's debounce, throttle and concurrency policy.
package scheduler

import (
	"time"

	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/engine/loop"
)

// Runner executes dispatched invocations. Run is called on the loop and must
// arrange for done to be called on the loop once the invocation is over.
type Runner interface {
	Run(inv domain.Invocation, done func())
}

// Options is the part of a rule's policy the scheduler enforces.
type Options struct {
	Debounce time.Duration
	Throttle time.Duration
	// Combine collects every path of the rule into a single batch.
	Combine bool
	// Serial withholds a dispatch while the previous one for the same key is
	// still in flight.
	Serial bool
	// ParallelLimit caps in-flight invocations across the rule. Zero means no limit.
	ParallelLimit int
}

// OptionsFor derives scheduler options from a rule's mode and policy. Restart
// mode always uses one serial key: a process cannot be restarted twice at once.
func OptionsFor(mode domain.Mode, p domain.Policy) Options {
	opts := Options{
		Debounce:      p.Debounce,
		Throttle:      p.Throttle,
		Combine:       p.CombineEvents,
		Serial:        p.WaitDone,
		ParallelLimit: p.ParallelLimit,
	}
	if mode == domain.ModeRestart {
		opts.Combine = true
		opts.Serial = true
		opts.ParallelLimit = 0
	}
	return opts
}

// combinedKey is the key of the single batch of a combined rule. Paths are
// never empty so it cannot collide with a per-path key.
const combinedKey = ""

// keyState is the pending trigger of one key.
type keyState struct {
	key      string
	pending  domain.Batch
	debounce *loop.Timer
	throttle *loop.Timer
	// ready is set once the debounce window elapsed; the batch is then only
	// waiting for throttle, serial or parallel gating.
	ready     bool
	queued    bool
	inflight  int
	lastStart time.Time
}

// Scheduler coalesces notifications into invocations. All methods must be
// called on the loop.
type Scheduler struct {
	loop   *loop.Loop
	opts   Options
	runner Runner
	ruleID uint64
	now    func() time.Time

	keys    map[string]*keyState
	queue   []*keyState
	running int
	stopped bool
}

// NewScheduler creates a new Scheduler.
func NewScheduler(l *loop.Loop, ruleID uint64, opts Options, runner Runner) *Scheduler {
	return &Scheduler{
		loop:   l,
		opts:   opts,
		runner: runner,
		ruleID: ruleID,
		now:    time.Now,
		keys:   make(map[string]*keyState),
	}
}

// Notify records a change and restarts the debounce window of its key.
func (s *Scheduler) Notify(c domain.Change) {
	if s.stopped {
		return
	}

	ks := s.state(s.keyFor(c.Path))
	ks.pending.Add(c)

	// A new notification reopens the window. A queued key that is popped
	// before the window ends rejoins the back of the queue when it closes.
	ks.ready = false
	ks.debounce.Stop()
	ks.debounce = s.loop.AfterFunc(s.opts.Debounce, func() {
		ks.debounce = nil
		ks.ready = true
		s.release(ks)
	})
}

// Immediate dispatches changes at once, bypassing debounce and gating. The
// dispatch still counts as the start of a throttle window.
func (s *Scheduler) Immediate(changes []domain.Change) {
	if s.stopped {
		return
	}

	ks := s.state(combinedKey)
	for _, c := range changes {
		ks.pending.Add(c)
	}
	s.dispatch(ks)
}

// Running returns the number of invocations in flight.
func (s *Scheduler) Running() int {
	return s.running
}

// Pending returns the number of keys holding undispatched changes.
func (s *Scheduler) Pending() int {
	n := 0
	for _, ks := range s.keys {
		if ks.pending.Len() > 0 {
			n++
		}
	}
	return n
}

// Stop cancels every timer and drops pending batches. Completions of
// invocations still in flight are ignored afterwards.
func (s *Scheduler) Stop() {
	s.stopped = true
	for _, ks := range s.keys {
		ks.debounce.Stop()
		ks.throttle.Stop()
	}
	s.keys = make(map[string]*keyState)
	s.queue = nil
}

func (s *Scheduler) keyFor(path string) string {
	if s.opts.Combine {
		return combinedKey
	}
	return path
}

func (s *Scheduler) state(key string) *keyState {
	ks, ok := s.keys[key]
	if !ok {
		ks = &keyState{key: key}
		s.keys[key] = ks
	}
	return ks
}

// release dispatches the key's batch if every gate is open, or arranges to be
// called again when the blocking gate opens. Under a parallel limit every
// dispatch goes through the FIFO queue.
func (s *Scheduler) release(ks *keyState) {
	if !s.open(ks) {
		return
	}

	if s.opts.ParallelLimit > 0 {
		if !ks.queued {
			ks.queued = true
			s.queue = append(s.queue, ks)
		}
		s.drain()
		return
	}

	s.dispatch(ks)
}

// open reports whether the key's batch may start now. A throttled key gets a
// timer that releases it when the window ends; a serial key is released by
// the completion of its in-flight invocation.
func (s *Scheduler) open(ks *keyState) bool {
	if s.stopped || !ks.ready || ks.pending.Len() == 0 {
		return false
	}

	if s.opts.Throttle > 0 && !ks.lastStart.IsZero() {
		if wait := s.opts.Throttle - s.now().Sub(ks.lastStart); wait > 0 {
			if ks.throttle == nil {
				ks.throttle = s.loop.AfterFunc(wait, func() {
					ks.throttle = nil
					s.release(ks)
				})
			}
			return false
		}
	}

	return !s.opts.Serial || ks.inflight == 0
}

func (s *Scheduler) dispatch(ks *keyState) {
	ks.debounce.Stop()
	ks.debounce = nil

	inv := domain.Invocation{
		RuleID:   s.ruleID,
		Changes:  ks.pending.Changes(),
		Combined: s.opts.Combine,
	}
	ks.pending = domain.Batch{}
	ks.ready = false
	ks.lastStart = s.now()
	ks.inflight++
	s.running++

	finished := false
	s.runner.Run(inv, func() {
		if finished || s.stopped {
			return
		}
		finished = true
		ks.inflight--
		s.running--

		// Keys queued earlier go first; the finished key rejoins at the back.
		s.drain()
		s.release(ks)
		s.forget(ks)
	})
}

// drain hands free parallel slots to queued keys in FIFO order. A key that is
// no longer open leaves the queue; its own timers or completion release it again.
func (s *Scheduler) drain() {
	for len(s.queue) > 0 && s.running < s.opts.ParallelLimit {
		ks := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		ks.queued = false
		if s.open(ks) {
			s.dispatch(ks)
		}
	}
}

// forget drops the state of an idle key once it can no longer throttle.
func (s *Scheduler) forget(ks *keyState) {
	if ks.pending.Len() > 0 || ks.inflight > 0 || ks.queued || ks.debounce != nil || ks.throttle != nil {
		return
	}
	if s.opts.Throttle > 0 && s.now().Sub(ks.lastStart) < s.opts.Throttle {
		return
	}
	if s.keys[ks.key] == ks {
		delete(s.keys, ks.key)
	}
}
