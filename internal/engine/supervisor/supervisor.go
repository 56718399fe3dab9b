// Package supervisor owns the child processes of a rule: it spawns them,
// applies the restart policy on natural exit and kills their process trees.
package supervisor

import (
	"context"
	"io"
	"strconv"
	"time"

	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/core/ports"
	"go.trai.ch/tend/internal/engine/loop"
	"go.trai.ch/zerr"
)

// Config is the rule-level configuration of a supervisor.
type Config struct {
	RuleID   uint64
	RuleName string
	Mode     domain.Mode
	Command  domain.Command
	Policy   domain.Policy
	// Dir is the working directory of spawned commands and the root relative
	// placeholders are computed against.
	Dir string
	// Env holds KEY=VALUE overrides for spawned commands.
	Env []string
	// Stdout and Stderr always receive the child's output. With
	// WriteToConsole the output is additionally recorded on the run span.
	Stdout io.Writer
	Stderr io.Writer
}

// Deps are the collaborators of a supervisor.
type Deps struct {
	Spawner ports.Spawner
	Killer  ports.TreeKiller
	Tracer  ports.Tracer
	Metrics ports.Metrics
	Logger  ports.Logger
}

// handle is one spawned child. It moves spawned, running, then exited or
// killed exactly once and is never reused.
type handle struct {
	seq       int
	pid       int
	inv       domain.Invocation
	startedAt time.Time
	span      ports.Span

	exited   bool
	exitCode int

	killRequested bool
	killDone      bool
	killErr       error
	waiters       []func(error)

	// done completes the scheduler dispatch the handle belongs to.
	done func()
}

// Supervisor runs invocations of one rule. Every method must be called on
// the rule's loop.
type Supervisor struct {
	loop     *loop.Loop
	cfg      Config
	deps     Deps
	emit     func(domain.Event)
	expander *Expander

	ctx    context.Context
	cancel context.CancelFunc

	handles  map[int]*handle
	current  *handle
	handlers int
	nextSeq  int
	state    domain.ProcessState
	stopped  bool
}

// New creates a Supervisor that publishes its events through emit.
func New(l *loop.Loop, cfg Config, deps Deps, emit func(domain.Event)) *Supervisor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Supervisor{
		loop:     l,
		cfg:      cfg,
		deps:     deps,
		emit:     emit,
		expander: NewExpander(cfg.Policy.ExecVariablePrefix, cfg.Dir),
		ctx:      ctx,
		cancel:   cancel,
		handles:  make(map[int]*handle),
	}
}

// State returns the process state.
func (s *Supervisor) State() domain.ProcessState {
	return s.state
}

// Live returns the number of children and handlers still running.
func (s *Supervisor) Live() int {
	return len(s.handles) + s.handlers
}

// Run executes one dispatched invocation. done is called once the scheduler
// may release the next invocation for the same key: when the process exited
// in exec mode, or once the replacement process was started in restart mode.
func (s *Supervisor) Run(inv domain.Invocation, done func()) {
	if s.stopped {
		done()
		return
	}

	switch s.cfg.Mode {
	case domain.ModeExec:
		s.spawn(inv, done)
	case domain.ModeRestart:
		h := s.current
		if h == nil || h.exited {
			s.spawn(inv, nil)
			done()
			return
		}
		s.publish(domain.Event{Kind: domain.EventRestart, PID: h.pid})
		s.terminate(h, func(err error) {
			if err != nil {
				s.publish(domain.Event{Kind: domain.EventError, PID: h.pid, Err: err})
				done()
				return
			}
			if !s.stopped {
				s.spawn(inv, nil)
			}
			done()
		})
	default:
		s.publish(domain.Event{Kind: domain.EventError, Err: domain.WithFields(domain.ErrUnknownMode, "mode", s.cfg.Mode.String())})
		done()
	}
}

// Stop kills every live child and calls cb once all of them are confirmed
// dead, or with the first kill error. Running handlers are cancelled but not
// awaited.
func (s *Supervisor) Stop(cb func(error)) {
	s.stopped = true
	s.cancel()

	var live []*handle
	for _, h := range s.handles {
		if !h.exited {
			live = append(live, h)
		}
	}
	if len(live) == 0 {
		s.updateState()
		cb(nil)
		return
	}

	pending := len(live)
	var first error
	for _, h := range live {
		s.terminate(h, func(err error) {
			if err != nil && first == nil {
				first = err
			}
			pending--
			if pending == 0 {
				s.updateState()
				cb(first)
			}
		})
	}
}

func (s *Supervisor) spawn(inv domain.Invocation, done func()) {
	if s.cfg.Command.IsHandler() {
		s.runHandler(inv, done)
		return
	}

	commandLine := s.expander.Expand(s.cfg.Command.Template, inv)
	ctx, span := s.deps.Tracer.Start(s.ctx, s.cfg.RuleName,
		ports.WithAttribute("rule.id", strconv.FormatUint(s.cfg.RuleID, 10)),
		ports.WithAttribute("command", commandLine),
	)

	stdout, stderr := s.writers(span)
	s.state = domain.ProcessSpawning
	proc, err := s.deps.Spawner.Spawn(ctx, ports.SpawnSpec{
		CommandLine: commandLine,
		Shell:       s.cfg.Policy.Shell,
		Dir:         s.cfg.Dir,
		Env:         s.cfg.Env,
		Stdout:      stdout,
		Stderr:      stderr,
		Terminal:    s.cfg.Policy.Terminal,
	})
	if err != nil {
		span.RecordError(err)
		span.End()
		s.updateState()
		s.publish(domain.Event{Kind: domain.EventError, Err: err})
		if done != nil {
			done()
		}
		return
	}

	s.nextSeq++
	h := &handle{
		seq:       s.nextSeq,
		pid:       proc.PID(),
		inv:       inv,
		startedAt: time.Now(),
		span:      span,
		done:      done,
	}
	span.SetAttribute("pid", h.pid)
	s.handles[h.seq] = h
	if s.cfg.Mode == domain.ModeRestart {
		s.current = h
	}
	s.updateState()
	s.deps.Metrics.Spawned(s.cfg.RuleName)
	s.deps.Logger.Debug("spawned", "pid", h.pid, "command", commandLine)
	s.publish(domain.Event{Kind: domain.EventExec, PID: h.pid})

	go func() {
		code, err := proc.Wait()
		s.loop.Post(func() { s.exited(h, code, err) })
	}()
}

func (s *Supervisor) writers(span ports.Span) (io.Writer, io.Writer) {
	var outs, errs []io.Writer
	if s.cfg.Stdout != nil {
		outs = append(outs, s.cfg.Stdout)
	}
	if s.cfg.Stderr != nil {
		errs = append(errs, s.cfg.Stderr)
	}
	if s.cfg.Policy.WriteToConsole {
		outs = append(outs, span)
		errs = append(errs, span)
	}
	return io.MultiWriter(outs...), io.MultiWriter(errs...)
}

func (s *Supervisor) exited(h *handle, code int, waitErr error) {
	h.exited = true
	h.exitCode = code
	delete(s.handles, h.seq)
	if s.current == h {
		s.current = nil
	}

	if waitErr != nil {
		s.deps.Logger.Debug("wait failed", "pid", h.pid, "error", waitErr.Error())
	}
	s.deps.Logger.Debug("exited", "pid", h.pid, "code", code, "took", time.Since(h.startedAt).String())
	if code != 0 {
		h.span.RecordError(domain.WithFields(domain.ErrRunFailed, "exit_code", code))
	}
	h.span.End()
	s.deps.Metrics.Exited(s.cfg.RuleName, code)

	s.publish(domain.Event{Kind: domain.EventExit, PID: h.pid, ExitCode: code})
	if code != 0 && !h.killRequested {
		s.publish(domain.Event{Kind: domain.EventCrash, PID: h.pid, ExitCode: code})
	}

	if h.killRequested {
		s.finish(h)
		s.settle(h)
		s.updateState()
		return
	}

	p := s.cfg.Policy
	if !s.stopped && ((code == 0 && p.RestartOnSuccess) || (code != 0 && p.RestartOnError)) {
		done := h.done
		h.done = nil
		s.spawn(h.inv, done)
		return
	}

	s.finish(h)
	s.updateState()
}

func (s *Supervisor) finish(h *handle) {
	if h.done != nil {
		done := h.done
		h.done = nil
		done()
	}
}

// terminate kills the process tree of h and calls cb once the kill is
// confirmed and the process exited, or with the kill error. A second request
// joins the termination already in flight.
func (s *Supervisor) terminate(h *handle, cb func(error)) {
	if h.exited && !h.killRequested {
		cb(nil)
		return
	}
	h.waiters = append(h.waiters, cb)
	if h.killRequested {
		s.settle(h)
		return
	}

	h.killRequested = true
	s.updateState()
	s.publish(domain.Event{Kind: domain.EventKill, PID: h.pid})

	opts := s.cfg.Policy.Kill
	go func() {
		start := time.Now()
		err := s.deps.Killer.KillTree(context.Background(), h.pid, opts)
		elapsed := time.Since(start)
		s.loop.Post(func() {
			h.killDone = true
			h.killErr = err
			s.deps.Metrics.Killed(s.cfg.RuleName, elapsed, err)
			s.settle(h)
			s.updateState()
		})
	}()
}

// settle resolves the kill waiters of h once the outcome is known. A failed
// kill is forgotten so that a later request tries again.
func (s *Supervisor) settle(h *handle) {
	if !h.killDone || (h.killErr == nil && !h.exited) {
		return
	}
	waiters := h.waiters
	err := h.killErr
	h.waiters = nil
	if err != nil {
		h.killRequested = false
		h.killDone = false
		h.killErr = nil
	}
	for _, cb := range waiters {
		cb(err)
	}
}

func (s *Supervisor) runHandler(inv domain.Invocation, done func()) {
	fn := s.cfg.Command.Handler
	ctx := s.ctx
	s.handlers++
	s.updateState()
	s.publish(domain.Event{Kind: domain.EventExec})

	go func() {
		var err error
		func() {
			defer zerr.Defer(func(perr error) { err = perr })
			err = fn(ctx, inv)
		}()

		s.loop.Post(func() {
			s.handlers--
			code := 0
			if err != nil {
				code = 1
				s.publish(domain.Event{Kind: domain.EventError, Err: err})
			}
			s.publish(domain.Event{Kind: domain.EventExit, ExitCode: code})
			s.updateState()
			if done != nil {
				done()
			}
		})
	}()
}

func (s *Supervisor) updateState() {
	for _, h := range s.handles {
		if h.killRequested && !h.exited {
			s.state = domain.ProcessTerminating
			return
		}
	}
	if len(s.handles) > 0 || s.handlers > 0 {
		s.state = domain.ProcessRunning
		return
	}
	s.state = domain.ProcessIdle
}

func (s *Supervisor) publish(ev domain.Event) {
	ev.RuleID = s.cfg.RuleID
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	s.emit(ev)
}
