// Package app implements the application layer for tend: the rule registry
// and the run loop driving the console renderer.
package app

import (
	"cmp"
	"context"
	"errors"
	"io"
	"slices"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/tend/internal/adapters/detector"
	"go.trai.ch/tend/internal/adapters/metrics"
	"go.trai.ch/tend/internal/adapters/telemetry"
	"go.trai.ch/tend/internal/adapters/watcher"
	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/core/ports"
	"go.trai.ch/tend/internal/engine/rule"
	"golang.org/x/sync/errgroup"
)

// App is the registry of rules. It owns the rule id counter.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	metrics      *metrics.Recorder
	deps         rule.Deps

	teaOptions []tea.ProgramOption
	env        detector.Environment
	stdout     io.Writer
	stderr     io.Writer

	mu     sync.RWMutex
	nextID uint64
	rules  map[uint64]*rule.Rule
}

// New creates a new App instance. Rules added before Run use a no-op tracer.
func New(
	loader ports.ConfigLoader,
	watchers *watcher.Factory,
	spawner ports.Spawner,
	killer ports.TreeKiller,
	recorder *metrics.Recorder,
	log ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		logger:       log,
		metrics:      recorder,
		deps: rule.Deps{
			Watchers: watchers,
			Spawner:  spawner,
			Killer:   killer,
			Tracer:   telemetry.NewNoOpTracer(),
			Metrics:  recorder,
			Logger:   log,
		},
		env:   detector.CurrentEnvironment(),
		rules: make(map[uint64]*rule.Rule),
	}
}

// WithTeaOptions adds bubbletea program options to the App.
// This is primarily used for testing to disable input/output.
func (a *App) WithTeaOptions(opts ...tea.ProgramOption) *App {
	a.teaOptions = append(a.teaOptions, opts...)
	return a
}

// WithEnvironment overrides the environment output mode detection looks at.
func (a *App) WithEnvironment(env detector.Environment) *App {
	a.env = env
	return a
}

// WithOutput sets the writers of the linear renderer.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// ConfigureLogging applies the global logging flags when the logger supports them.
func (a *App) ConfigureLogging(debug, jsonFormat bool) {
	if l, ok := a.logger.(interface{ SetDebug(bool) }); ok {
		l.SetDebug(debug)
	}
	if l, ok := a.logger.(interface{ SetJSON(bool) }); ok {
		l.SetJSON(jsonFormat)
	}
}

// AddRule registers a new stopped rule and assigns it the next id.
func (a *App) AddRule(spec domain.RuleSpec, opts ...rule.Option) (*rule.Rule, error) {
	return a.addRule(spec, a.deps, opts...)
}

func (a *App) addRule(spec domain.RuleSpec, deps rule.Deps, opts ...rule.Option) (*rule.Rule, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.nextID++
	r, err := rule.New(a.nextID, spec, deps, opts...)
	if err != nil {
		return nil, err
	}
	a.rules[r.ID()] = r
	return r, nil
}

// Rule returns the rule registered under id.
func (a *App) Rule(id uint64) (*rule.Rule, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	r, ok := a.rules[id]
	if !ok {
		return nil, domain.WithFields(domain.ErrRuleNotFound, "id", id)
	}
	return r, nil
}

// Rules returns every registered rule in id order.
func (a *App) Rules() []*rule.Rule {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]*rule.Rule, 0, len(a.rules))
	for _, r := range a.rules {
		out = append(out, r)
	}
	slices.SortFunc(out, func(x, y *rule.Rule) int {
		return cmp.Compare(x.ID(), y.ID())
	})
	return out
}

// StartByID starts the rule registered under id.
func (a *App) StartByID(ctx context.Context, id uint64) error {
	r, err := a.Rule(id)
	if err != nil {
		return err
	}
	return r.Start(ctx)
}

// StopByID stops the rule registered under id.
func (a *App) StopByID(ctx context.Context, id uint64) error {
	r, err := a.Rule(id)
	if err != nil {
		return err
	}
	return r.Stop(ctx)
}

// RestartByID restarts the rule registered under id.
func (a *App) RestartByID(ctx context.Context, id uint64) error {
	r, err := a.Rule(id)
	if err != nil {
		return err
	}
	return r.Restart(ctx)
}

// DeleteByID stops the rule registered under id if it runs, ends its event
// subscriptions and removes it from the registry.
func (a *App) DeleteByID(ctx context.Context, id uint64) error {
	r, err := a.Rule(id)
	if err != nil {
		return err
	}
	if r.State() != domain.RuleStopped {
		if err := r.Stop(ctx); err != nil {
			return err
		}
	}
	r.Close()

	a.mu.Lock()
	delete(a.rules, id)
	a.mu.Unlock()
	return nil
}

// StartAll starts every stopped rule concurrently.
func (a *App) StartAll(ctx context.Context) error {
	return each(a.Rules(), func(r *rule.Rule) error {
		if r.State() != domain.RuleStopped {
			return nil
		}
		return r.Start(ctx)
	})
}

// StopAll stops every started rule concurrently. The returned error joins
// the kill failures of all rules.
func (a *App) StopAll(ctx context.Context) error {
	return each(a.Rules(), func(r *rule.Rule) error {
		if r.State() == domain.RuleStopped {
			return nil
		}
		return r.Stop(ctx)
	})
}

// each runs fn for every rule concurrently and joins the errors.
func each(rules []*rule.Rule, fn func(r *rule.Rule) error) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	for _, r := range rules {
		g.Go(func() error {
			if err := fn(r); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
