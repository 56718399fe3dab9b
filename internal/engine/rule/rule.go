// Package rule ties a watch set, a scheduler and a supervisor together into
// one independently startable unit.
package rule

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"time"

	"go.trai.ch/tend/internal/adapters/watcher"
	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/core/ports"
	"go.trai.ch/tend/internal/engine/events"
	"go.trai.ch/tend/internal/engine/loop"
	"go.trai.ch/tend/internal/engine/scheduler"
	"go.trai.ch/tend/internal/engine/supervisor"
	"go.trai.ch/zerr"
)

// Deps are the shared collaborators every rule is built from.
type Deps struct {
	Watchers *watcher.Factory
	Spawner  ports.Spawner
	Killer   ports.TreeKiller
	Tracer   ports.Tracer
	Metrics  ports.Metrics
	Logger   ports.Logger
}

// Option configures a Rule.
type Option func(*Rule)

// WithOutput sets the writers that receive the output of every spawned
// process regardless of the console setting.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *Rule) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// session holds the components of one Start..Stop cycle. They are created
// fresh on every start and only touched on the session loop.
type session struct {
	loop  *loop.Loop
	watch *watcher.WatchSet
	sched *scheduler.Scheduler
	sup   *supervisor.Supervisor
}

// Rule watches a set of patterns and drives its command on changes.
type Rule struct {
	id     uint64
	spec   domain.RuleSpec
	deps   Deps
	log    ports.Logger
	bus    *events.Bus
	stdout io.Writer
	stderr io.Writer

	// lifecycle serializes Start, Stop and Restart.
	lifecycle sync.Mutex

	mu    sync.Mutex
	state domain.RuleState
	sess  *session
}

// New validates spec and creates a stopped rule.
func New(id uint64, spec domain.RuleSpec, deps Deps, opts ...Option) (*Rule, error) {
	if spec.Name == "" {
		spec.Name = "rule-" + strconv.FormatUint(id, 10)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if spec.Dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, zerr.Wrap(err, "failed to resolve working directory")
		}
		spec.Dir = wd
	}
	dir, err := filepath.Abs(spec.Dir)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve rule directory"), "dir", spec.Dir)
	}
	spec.Dir = dir

	r := &Rule{
		id:   id,
		spec: spec,
		deps: deps,
		log:  newRuleLogger(deps.Logger, spec.Name, spec.Policy.Debug),
		bus:  events.NewBus(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// ID returns the registry id of the rule.
func (r *Rule) ID() uint64 {
	return r.id
}

// Name returns the rule name.
func (r *Rule) Name() string {
	return r.spec.Name
}

// Spec returns the configuration the rule was built from.
func (r *Rule) Spec() domain.RuleSpec {
	spec := r.spec
	spec.Patterns = slices.Clone(r.spec.Patterns)
	return spec
}

// State returns the lifecycle state.
func (r *Rule) State() domain.RuleState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Subscribe returns an ordered subscription to the rule's events. It survives
// restarts and ends when the rule is closed.
func (r *Rule) Subscribe() *events.Subscription {
	return r.bus.Subscribe()
}

// WatchedPaths returns the paths currently watched, or nil when stopped.
func (r *Rule) WatchedPaths(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	sess := r.sess
	r.mu.Unlock()
	if sess == nil {
		return nil, nil
	}

	var paths []string
	if err := sess.loop.Call(ctx, func() { paths = sess.watch.Paths() }); err != nil {
		return nil, err
	}
	return paths, nil
}

// Start installs the watches and, in restart mode, spawns the command. It
// returns once the first reconcile ran.
func (r *Rule) Start(ctx context.Context) error {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()
	return r.start(ctx)
}

// Stop kills the running processes and closes the watches. It returns once
// every child is confirmed dead, or with the kill error.
func (r *Rule) Stop(ctx context.Context) error {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()
	return r.stop(ctx)
}

// Restart stops the rule if it is running and starts it again.
func (r *Rule) Restart(ctx context.Context) error {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	if r.State() == domain.RuleRunning {
		if err := r.stop(ctx); err != nil {
			return err
		}
	}
	return r.start(ctx)
}

// Close ends every subscription. The rule must be stopped.
func (r *Rule) Close() {
	r.bus.Close()
}

func (r *Rule) start(ctx context.Context) error {
	r.mu.Lock()
	if r.state != domain.RuleStopped {
		r.mu.Unlock()
		return domain.WithFields(domain.ErrRuleAlreadyStarted, "id", r.id, "rule", r.spec.Name)
	}
	r.state = domain.RuleStarting
	r.mu.Unlock()

	sess, err := r.newSession()
	if err == nil {
		err = r.run(ctx, sess, func() error {
			if err := sess.watch.Start(); err != nil {
				return err
			}
			r.log.Debug("watching", "paths", len(sess.watch.Paths()))
			if r.spec.Mode == domain.ModeRestart {
				sess.sched.Immediate(nil)
			}
			return nil
		})
		if err != nil {
			// The start callback may still be queued; tear down behind it.
			sess.loop.Post(func() {
				sess.sched.Stop()
				_ = sess.watch.Stop()
				sess.sup.Stop(func(error) {})
			})
			sess.loop.Close()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.state = domain.RuleStopped
		return err
	}
	r.sess = sess
	r.state = domain.RuleRunning
	return nil
}

func (r *Rule) stop(ctx context.Context) error {
	r.mu.Lock()
	if r.state != domain.RuleRunning {
		r.mu.Unlock()
		return domain.WithFields(domain.ErrRuleNotStarted, "id", r.id, "rule", r.spec.Name)
	}
	r.state = domain.RuleStopping
	sess := r.sess
	r.mu.Unlock()

	result := make(chan error, 1)
	sess.loop.Post(func() {
		sess.sched.Stop()
		sess.sup.Stop(func(killErr error) {
			watchErr := sess.watch.Stop()
			if killErr != nil {
				result <- killErr
				return
			}
			result <- watchErr
		})
	})

	finish := func(err error) {
		sess.loop.Close()
		r.mu.Lock()
		r.sess = nil
		r.state = domain.RuleStopped
		r.mu.Unlock()
		if err != nil {
			r.log.Warn("stopped with error", "error", err.Error())
		}
	}

	select {
	case err := <-result:
		finish(err)
		return err
	case <-ctx.Done():
		// The kill has its own timeout; settle the state when it ends.
		go func() { finish(<-result) }()
		return zerr.Wrap(ctx.Err(), "stop interrupted")
	}
}

func (r *Rule) run(ctx context.Context, sess *session, fn func() error) error {
	var err error
	if callErr := sess.loop.Call(ctx, func() { err = fn() }); callErr != nil {
		return callErr
	}
	return err
}

func (r *Rule) newSession() (*session, error) {
	sess := &session{loop: loop.New()}
	p := r.spec.Policy

	sess.sup = supervisor.New(sess.loop, supervisor.Config{
		RuleID:   r.id,
		RuleName: r.spec.Name,
		Mode:     r.spec.Mode,
		Command:  r.spec.Command,
		Policy:   p,
		Dir:      r.spec.Dir,
		Env:      envList(r.spec.Env),
		Stdout:   r.stdout,
		Stderr:   r.stderr,
	}, supervisor.Deps{
		Spawner: r.deps.Spawner,
		Killer:  r.deps.Killer,
		Tracer:  r.deps.Tracer,
		Metrics: r.deps.Metrics,
		Logger:  r.log,
	}, r.publish)

	sess.sched = scheduler.NewScheduler(sess.loop, r.id, scheduler.OptionsFor(r.spec.Mode, p), &dispatcher{rule: r, sup: sess.sup})

	watch, err := r.deps.Watchers.New(sess.loop, watcher.Options{
		Root:           r.spec.Dir,
		Patterns:       r.spec.Patterns,
		Reglob:         p.Reglob,
		Events:         p.Events,
		MtimeCheck:     p.MtimeCheck,
		ChecksumVerify: p.ChecksumVerify,
		Logger:         r.log,
		OnReconcile: func(n int) {
			r.deps.Metrics.WatchedPaths(r.spec.Name, n)
		},
	}, sess.sched.Notify)
	if err != nil {
		sess.loop.Close()
		return nil, err
	}
	sess.watch = watch
	return sess, nil
}

func (r *Rule) publish(ev domain.Event) {
	ev.RuleID = r.id
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	if ev.Kind == domain.EventError && ev.Err != nil {
		r.log.Debug("rule error", "error", ev.Err.Error())
	}
	r.bus.Publish(ev)
}

// dispatcher announces a dispatched invocation and hands it to the supervisor.
type dispatcher struct {
	rule *Rule
	sup  *supervisor.Supervisor
}

func (d *dispatcher) Run(inv domain.Invocation, done func()) {
	r := d.rule
	if len(inv.Changes) > 0 {
		for _, c := range inv.Changes {
			r.publish(domain.Event{Kind: domain.ActionEvent(c.Action), Path: c.Path, Action: c.Action})
		}
		all := domain.Event{Kind: domain.EventAll, Action: inv.Action()}
		if inv.Combined {
			all.Paths = inv.Paths()
		} else {
			all.Path = inv.Path()
		}
		r.publish(all)
	}
	r.deps.Metrics.Dispatched(r.spec.Name)
	d.sup.Run(inv, done)
}

func envList(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	slices.Sort(out)
	return out
}
