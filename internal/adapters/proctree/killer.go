package proctree

import (
	"context"
	"strconv"
	"time"

	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

var _ ports.TreeKiller = (*Killer)(nil)

// Killer terminates a process and every descendant it had when the kill began.
type Killer struct {
	table  ports.ProcessTable
	logger ports.Logger
}

// NewKiller creates a new Killer.
func NewKiller(table ports.ProcessTable, logger ports.Logger) *Killer {
	return &Killer{table: table, logger: logger}
}

// KillTree enumerates the descendants of pid, terminates pid and then every
// descendant still alive, concurrently. opts.Timeout bounds the whole
// operation, not each process. The first failure aborts the rest.
func (k *Killer) KillTree(ctx context.Context, pid int, opts domain.KillOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	sig, err := ParseSignal(opts.Signal)
	if err != nil {
		return err
	}
	final := sig
	if opts.FinalSignal != "" {
		if final, err = ParseSignal(opts.FinalSignal); err != nil {
			return err
		}
	}

	// Enumerate first: once the root is gone its children are reparented and
	// can no longer be found through it.
	descendants, err := k.table.Descendants(ctx, pid)
	if err != nil {
		k.logger.Debug("descendant enumeration failed", "pid", pid, "error", err.Error())
	}

	deadline := time.Now().Add(opts.Timeout)
	if err := k.kill(ctx, pid, deadline, sig, final, opts); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, d := range descendants {
		if !k.table.IsAlive(d) {
			continue
		}
		g.Go(func() error {
			return k.kill(gctx, d, deadline, sig, final, opts)
		})
	}
	return g.Wait()
}

// kill signals one process and polls until it is gone, resending the signal
// every retry interval. The last attempt uses the final signal. It fails with
// ErrKillTimeout once deadline passes.
func (k *Killer) kill(ctx context.Context, pid int, deadline time.Time, sig, final signal, opts domain.KillOptions) error {
	if !k.table.IsAlive(pid) {
		return nil
	}

	attempt := 1
	if err := k.signal(pid, attempt, sig, final, opts); err != nil {
		return err
	}

	lastSent := time.Now()
	ticker := time.NewTicker(opts.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return zerr.With(zerr.Wrap(ctx.Err(), domain.ErrKillFailed.Error()), "pid", pid)
		case <-ticker.C:
		}

		if !k.table.IsAlive(pid) {
			return nil
		}
		now := time.Now()
		if !now.Before(deadline) {
			return zerr.Wrap(
				domain.WithFields(domain.ErrKillTimeout, "pid", pid, "attempts", attempt),
				"process "+strconv.Itoa(pid)+" is still alive",
			)
		}
		if attempt < opts.RetryCount && now.Sub(lastSent) >= opts.RetryInterval {
			attempt++
			lastSent = now
			if err := k.signal(pid, attempt, sig, final, opts); err != nil {
				return err
			}
		}
	}
}

func (k *Killer) signal(pid, attempt int, sig, final signal, opts domain.KillOptions) error {
	s := sig
	if attempt == opts.RetryCount {
		s = final
	}
	k.logger.Debug("sending signal", "pid", pid, "signal", s.String(), "attempt", attempt)

	if _, err := send(pid, s); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrKillFailed.Error()), "pid", pid)
	}
	return nil
}
