// Package metrics exports rule activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.trai.ch/tend/internal/core/ports"
)

// Recorder implements ports.Metrics on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	watchedPaths *prometheus.GaugeVec
	dispatched   *prometheus.CounterVec
	spawned      *prometheus.CounterVec
	exited       *prometheus.CounterVec
	killDuration *prometheus.HistogramVec
}

var _ ports.Metrics = (*Recorder)(nil)

// NewRecorder creates a Recorder with all collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		watchedPaths: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tend_watched_paths",
				Help: "Number of paths currently watched by a rule",
			},
			[]string{"rule"},
		),
		dispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tend_invocations_total",
				Help: "Total invocations dispatched to the process supervisor",
			},
			[]string{"rule"},
		),
		spawned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tend_processes_spawned_total",
				Help: "Total processes started",
			},
			[]string{"rule"},
		),
		exited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tend_processes_exited_total",
				Help: "Total process exits by exit code",
			},
			[]string{"rule", "code"},
		),
		killDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tend_kill_duration_seconds",
				Help:    "Time to terminate a process tree",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0},
			},
			[]string{"rule", "result"},
		),
	}

	r.registry.MustRegister(
		r.watchedPaths,
		r.dispatched,
		r.spawned,
		r.exited,
		r.killDuration,
	)
	return r
}

// WatchedPaths sets the size of a rule's watch set.
func (r *Recorder) WatchedPaths(rule string, n int) {
	r.watchedPaths.WithLabelValues(rule).Set(float64(n))
}

// Dispatched counts an invocation handed to the supervisor.
func (r *Recorder) Dispatched(rule string) {
	r.dispatched.WithLabelValues(rule).Inc()
}

// Spawned counts a started process.
func (r *Recorder) Spawned(rule string) {
	r.spawned.WithLabelValues(rule).Inc()
}

// Exited counts a process exit.
func (r *Recorder) Exited(rule string, code int) {
	r.exited.WithLabelValues(rule, strconv.Itoa(code)).Inc()
}

// Killed records the duration of a kill-tree run.
func (r *Recorder) Killed(rule string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.killDuration.WithLabelValues(rule, result).Observe(d.Seconds())
}

// Registry returns the registry the collectors are registered on.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// NewServer returns a server exposing /metrics on addr. The caller starts it.
func (r *Recorder) NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
