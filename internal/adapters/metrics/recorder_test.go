package metrics_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tend/internal/adapters/metrics"
)

func TestRecorder_Counters(t *testing.T) {
	r := metrics.NewRecorder()

	r.Dispatched("server")
	r.Dispatched("server")
	r.Spawned("server")
	r.Exited("server", 0)
	r.Exited("server", 1)
	r.Exited("server", 1)

	expected := `
# HELP tend_invocations_total Total invocations dispatched to the process supervisor
# TYPE tend_invocations_total counter
tend_invocations_total{rule="server"} 2
# HELP tend_processes_exited_total Total process exits by exit code
# TYPE tend_processes_exited_total counter
tend_processes_exited_total{code="0",rule="server"} 1
tend_processes_exited_total{code="1",rule="server"} 2
# HELP tend_processes_spawned_total Total processes started
# TYPE tend_processes_spawned_total counter
tend_processes_spawned_total{rule="server"} 1
`
	require.NoError(t, testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected),
		"tend_invocations_total", "tend_processes_exited_total", "tend_processes_spawned_total"))
}

func TestRecorder_WatchedPathsGauge(t *testing.T) {
	r := metrics.NewRecorder()

	r.WatchedPaths("test", 12)
	r.WatchedPaths("test", 3)

	expected := `
# HELP tend_watched_paths Number of paths currently watched by a rule
# TYPE tend_watched_paths gauge
tend_watched_paths{rule="test"} 3
`
	require.NoError(t, testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected), "tend_watched_paths"))
}

func TestRecorder_KillHistogram(t *testing.T) {
	r := metrics.NewRecorder()

	r.Killed("server", 40*time.Millisecond, nil)
	r.Killed("server", 5*time.Second, errors.New("timeout"))

	count, err := testutil.GatherAndCount(r.Registry(), "tend_kill_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRecorder_Handler(t *testing.T) {
	r := metrics.NewRecorder()
	r.Spawned("web")

	srv := httptest.NewServer(r.NewServer("").Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `tend_processes_spawned_total{rule="web"} 1`)
}
