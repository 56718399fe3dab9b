// Package watcher keeps one filesystem watch per resolved path and turns the
// raw notifications into create, change and delete actions.
package watcher

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/core/ports"
	"go.trai.ch/tend/internal/engine/loop"
	"go.trai.ch/zerr"
)

// Options configures a WatchSet.
type Options struct {
	// Root is the directory relative patterns are resolved against.
	Root     string
	Patterns []string
	Reglob   time.Duration
	Events   domain.ActionSet
	// MtimeCheck reports a change only when the modification time increased.
	MtimeCheck bool
	// ChecksumVerify reports a change only when the content hash differs.
	ChecksumVerify bool
	// Logger replaces the factory logger when set.
	Logger ports.Logger
	// OnReconcile is called with the number of watched paths after every
	// reconcile.
	OnReconcile func(watched int)
}

// entry is the watch state of one resolved path.
type entry struct {
	id       int
	path     string
	abs      string
	dir      bool
	mtime    time.Time
	sum      uint64
	watching bool
}

// WatchSet reconciles a pattern list against the filesystem and reports
// changes of the matching paths. Every method except NewWatchSet must be
// called on the loop.
type WatchSet struct {
	loop     *loop.Loop
	resolver ports.GlobResolver
	logger   ports.Logger
	opts     Options
	notify   func(domain.Change)

	fsw        *fsnotify.Watcher
	entries    map[string]*entry
	byAbs      map[string]*entry
	tick       *loop.Timer
	reconciled bool
	retried    bool
	stopped    bool
	nextID     int
}

// NewWatchSet creates a WatchSet that reports filtered changes to notify on
// the loop.
func NewWatchSet(
	l *loop.Loop,
	resolver ports.GlobResolver,
	logger ports.Logger,
	opts Options,
	notify func(domain.Change),
) (*WatchSet, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrWatchFailed.Error())
	}
	opts.Root = root
	if opts.Logger != nil {
		logger = opts.Logger
	}

	return &WatchSet{
		loop:     l,
		resolver: resolver,
		logger:   logger,
		opts:     opts,
		notify:   notify,
		entries:  make(map[string]*entry),
		byAbs:    make(map[string]*entry),
	}, nil
}

// Start installs the initial watches without reporting them and begins the
// periodic reconcile. An invalid pattern fails the start.
func (w *WatchSet) Start() error {
	paths, err := w.resolver.Resolve(w.opts.Root, w.opts.Patterns)
	if err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return zerr.Wrap(err, domain.ErrWatchFailed.Error())
	}
	w.fsw = fsw
	go w.forward(fsw)

	w.apply(paths, false)
	w.scheduleTick()
	return nil
}

// Stop closes every watch and cancels the reconcile timer. Nothing is
// reported after Stop.
func (w *WatchSet) Stop() error {
	if w.stopped {
		return nil
	}
	w.stopped = true
	w.tick.Stop()
	clear(w.entries)
	clear(w.byAbs)

	if w.fsw == nil {
		return nil
	}
	if err := w.fsw.Close(); err != nil {
		return zerr.Wrap(err, domain.ErrWatchFailed.Error())
	}
	return nil
}

// Paths returns the watched paths in sorted order.
func (w *WatchSet) Paths() []string {
	out := make([]string, 0, len(w.entries))
	for p := range w.entries {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Reconcile resolves the patterns again and reports paths that appeared or
// vanished since the last run.
func (w *WatchSet) Reconcile() {
	if w.stopped {
		return
	}
	paths, err := w.resolver.Resolve(w.opts.Root, w.opts.Patterns)
	if err != nil {
		w.logger.Warn("reconcile failed", "root", w.opts.Root, "error", err.Error())
		return
	}
	w.apply(paths, true)
}

// forward moves fsnotify output onto the loop until the watcher is closed.
func (w *WatchSet) forward(fsw *fsnotify.Watcher) {
	for {
		select {
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.loop.Post(func() { w.handle(ev) })
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.loop.Post(func() {
				if !w.stopped {
					w.logger.Warn("watch error", "error", err.Error())
				}
			})
		}
	}
}

func (w *WatchSet) scheduleTick() {
	w.tick = w.loop.AfterFunc(w.opts.Reglob, func() {
		w.retried = false
		w.Reconcile()
		if !w.stopped {
			w.scheduleTick()
		}
	})
}

// retry posts one reconcile behind the current callback. Until the next
// periodic tick further failures wait for that tick, so a path that keeps
// failing cannot spin the loop.
func (w *WatchSet) retry() {
	if w.retried || w.stopped {
		return
	}
	w.retried = true
	w.loop.Post(w.Reconcile)
}

func (w *WatchSet) apply(paths []string, report bool) {
	want := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		want[p] = struct{}{}

		if e, ok := w.entries[p]; ok {
			if !e.watching && w.reconciled {
				w.install(e)
			}
			continue
		}

		e := &entry{path: p, abs: w.abs(p)}
		if !w.install(e) {
			// Vanished or replaced between glob and stat.
			w.retry()
			continue
		}
		w.nextID++
		e.id = w.nextID
		w.entries[p] = e
		w.byAbs[e.abs] = e
		w.logger.Debug("watch created", "watch", e.id, "path", p)

		if report {
			w.emit(domain.Change{Path: p, Action: domain.ActionCreate})
		}
	}

	var gone []string
	for p := range w.entries {
		if _, ok := want[p]; !ok {
			gone = append(gone, p)
		}
	}
	slices.Sort(gone)
	for _, p := range gone {
		w.drop(w.entries[p])
		w.emit(domain.Change{Path: p, Action: domain.ActionDelete})
	}

	w.reconciled = true
	if w.opts.OnReconcile != nil {
		w.opts.OnReconcile(len(w.entries))
	}
}

// install stats the path, records its baseline and adds the OS watch. It
// reports false when the path could not be stat'ed.
func (w *WatchSet) install(e *entry) bool {
	info, err := os.Stat(e.abs)
	if err != nil {
		w.logger.Debug("stat failed", "path", e.path, "error", err.Error())
		return false
	}
	e.dir = info.IsDir()
	e.mtime = info.ModTime()
	if w.opts.ChecksumVerify && !e.dir {
		e.sum, _ = checksum(e.abs)
	}

	if err := w.fsw.Add(e.abs); err != nil {
		w.logger.Debug("watch failed", "path", e.path, "error", err.Error())
		e.watching = false
		return true
	}
	e.watching = true
	return true
}

func (w *WatchSet) drop(e *entry) {
	if e.watching {
		_ = w.fsw.Remove(e.abs)
	}
	delete(w.entries, e.path)
	if w.byAbs[e.abs] == e {
		delete(w.byAbs, e.abs)
	}
	w.logger.Debug("watch closed", "watch", e.id, "path", e.path)
}

func (w *WatchSet) lookup(name string) *entry {
	if e, ok := w.byAbs[name]; ok {
		return e
	}
	if e, ok := w.byAbs[filepath.Dir(name)]; ok && e.dir {
		return e
	}
	return nil
}

func (w *WatchSet) handle(ev fsnotify.Event) {
	if w.stopped {
		return
	}
	e := w.lookup(ev.Name)
	if e == nil {
		return
	}
	w.logger.Debug("watch fired", "watch", e.id, "path", e.path, "op", ev.Op.String())

	info, err := os.Stat(e.abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			w.drop(e)
			w.emit(domain.Change{Path: e.path, Action: domain.ActionDelete})
		}
		return
	}

	if ev.Name == e.abs && ev.Op.Has(fsnotify.Rename|fsnotify.Remove) {
		w.loop.Post(func() { w.rewatch(e) })
	}

	if !w.changed(e, info) {
		return
	}
	w.emit(domain.Change{Path: e.path, Action: domain.ActionChange})
}

// changed applies the mtime and checksum filters and advances the recorded
// baseline.
func (w *WatchSet) changed(e *entry, info os.FileInfo) bool {
	report := true

	if w.opts.MtimeCheck {
		mtime := info.ModTime()
		if !mtime.After(e.mtime) {
			report = false
		} else {
			e.mtime = mtime
		}
	}

	if w.opts.ChecksumVerify && !e.dir {
		sum, err := checksum(e.abs)
		if err == nil {
			if sum == e.sum {
				report = false
			}
			e.sum = sum
		}
	}

	return report
}

// rewatch replaces the OS watch of an entry whose inode may have been
// replaced. If the path is gone by now, a reconcile reports the deletion.
func (w *WatchSet) rewatch(e *entry) {
	if w.stopped || w.entries[e.path] != e {
		return
	}
	if e.watching {
		_ = w.fsw.Remove(e.abs)
		e.watching = false
	}

	mtime, sum := e.mtime, e.sum
	if !w.install(e) || !e.watching {
		w.Reconcile()
		return
	}
	// The baseline stays the one of the last report.
	e.mtime, e.sum = mtime, sum
	w.logger.Debug("watch renewed", "watch", e.id, "path", e.path)
}

func (w *WatchSet) emit(c domain.Change) {
	if w.stopped || !w.opts.Events.Has(c.Action) {
		return
	}
	w.notify(c)
}

func (w *WatchSet) abs(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(w.opts.Root, p)
}

func checksum(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
