package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"slices"
	"sync"
	"time"

	"go.trai.ch/tend/internal/adapters/detector"
	"go.trai.ch/tend/internal/adapters/linear"
	"go.trai.ch/tend/internal/adapters/telemetry"
	"go.trai.ch/tend/internal/adapters/tui"
	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/core/ports"
	"go.trai.ch/tend/internal/engine/rule"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// metricsShutdownTimeout bounds the graceful shutdown of the metrics server.
const metricsShutdownTimeout = 5 * time.Second

// RunOptions configuration for the Run method.
type RunOptions struct {
	// ConfigFile is the rules file to read. Empty means discovery from the
	// working directory.
	ConfigFile string
	// Names restricts the run to the named rules of the rules file.
	Names []string
	// Specs, when set, are run instead of the rules file.
	Specs []domain.RuleSpec
	// OutputMode is one of auto, tui or linear.
	OutputMode string
	// MetricsAddr, when set, serves Prometheus metrics on that address.
	MetricsAddr string
}

// LoadSpecs reads the rule specs selected by opts.
func (a *App) LoadSpecs(opts RunOptions) ([]domain.RuleSpec, error) {
	if len(opts.Specs) > 0 {
		return opts.Specs, nil
	}

	var (
		specs []domain.RuleSpec
		err   error
	)
	if opts.ConfigFile != "" {
		specs, err = a.configLoader.LoadFile(opts.ConfigFile)
	} else {
		var cwd string
		cwd, err = os.Getwd()
		if err == nil {
			specs, err = a.configLoader.Load(cwd)
		}
	}
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	return selectSpecs(specs, opts.Names)
}

// selectSpecs keeps the named specs in the order of the rules file.
func selectSpecs(specs []domain.RuleSpec, names []string) ([]domain.RuleSpec, error) {
	if len(names) == 0 {
		return specs, nil
	}
	for _, name := range names {
		if !slices.ContainsFunc(specs, func(s domain.RuleSpec) bool { return s.Name == name }) {
			return nil, domain.WithFields(domain.ErrRuleNotFound, "rule", name)
		}
	}
	return slices.DeleteFunc(slices.Clone(specs), func(s domain.RuleSpec) bool {
		return !slices.Contains(names, s.Name)
	}), nil
}

// Run starts the selected rules and renders their activity until ctx is
// cancelled or the user quits the dashboard. Every rule is stopped before
// Run returns; kill failures are reported as ErrRunFailed.
//
//nolint:cyclop // orchestration function
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	specs, err := a.LoadSpecs(opts)
	if err != nil {
		return err
	}

	requested, err := detector.ParseMode(opts.OutputMode)
	if err != nil {
		return err
	}
	mode := detector.Resolve(detector.Detect(a.env), requested)

	var renderer ports.Renderer
	if mode == detector.ModeTUI {
		model := tui.NewModel()
		renderer = tui.NewRenderer(&model, a.teaOptions...)
	} else {
		renderer = linear.NewRenderer(a.stdout, a.stderr)
	}

	// Every process run is a span; the bridge reports span start and end to
	// the renderer and the tracer streams span output to it.
	tp := telemetry.Install(renderer)
	tracer := telemetry.NewOTelTracer("tend").WithRenderer(renderer)
	defer func() {
		_ = tracer.Shutdown(context.Background())
		_ = tp.Shutdown(context.Background())
	}()

	deps := a.deps
	deps.Tracer = tracer

	rules := make([]*rule.Rule, 0, len(specs))
	names := make([]string, 0, len(specs))
	for _, spec := range specs {
		r, err := a.addRule(spec, deps)
		if err != nil {
			return err
		}
		rules = append(rules, r)
		names = append(names, r.Name())
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	// Renderer Routine
	g.Go(func() error {
		if err := renderer.Start(ctx); err != nil {
			return err
		}
		err := renderer.Wait()
		if mode == detector.ModeTUI {
			// The user quit the dashboard.
			cancel()
		}
		return err
	})

	if opts.MetricsAddr != "" {
		srv := a.metrics.NewServer(opts.MetricsAddr)
		g.Go(func() error {
			return serveMetrics(ctx, srv)
		})
	}

	// Rules Routine
	g.Go(func() error {
		defer func() {
			_ = renderer.Stop()
		}()
		return a.runRules(ctx, rules, names, renderer)
	})

	return g.Wait()
}

func (a *App) runRules(ctx context.Context, rules []*rule.Rule, names []string, renderer ports.Renderer) error {
	renderer.OnRulesLoaded(names)

	var forwarders sync.WaitGroup
	for _, r := range rules {
		sub := r.Subscribe()
		forwarders.Go(func() {
			for ev := range sub.C() {
				renderer.OnRuleEvent(r.Name(), ev)
			}
		})
	}

	startErr := startRules(ctx, rules)
	if startErr == nil {
		<-ctx.Done()
	}

	stopErr := a.stopRules(rules)
	for _, r := range rules {
		r.Close()
	}
	forwarders.Wait()

	if startErr != nil {
		return errors.Join(startErr, stopErr)
	}
	if stopErr != nil {
		return errors.Join(domain.ErrRunFailed, stopErr)
	}
	return nil
}

func startRules(ctx context.Context, rules []*rule.Rule) error {
	return each(rules, func(r *rule.Rule) error {
		if err := r.Start(ctx); err != nil {
			return zerr.With(err, "rule", r.Name())
		}
		return nil
	})
}

// stopRules stops the started rules. It runs on a fresh context because the
// run context is already cancelled at this point.
func (a *App) stopRules(rules []*rule.Rule) error {
	return each(rules, func(r *rule.Rule) error {
		if r.State() == domain.RuleStopped {
			return nil
		}
		if err := r.Stop(context.Background()); err != nil {
			a.logger.Error(zerr.With(zerr.Wrap(err, "failed to stop rule"), "rule", r.Name()))
			return err
		}
		return nil
	})
}

func serveMetrics(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return zerr.With(zerr.Wrap(err, "metrics server failed"), "addr", srv.Addr)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return zerr.Wrap(err, "failed to shut down metrics server")
		}
		return nil
	}
}
