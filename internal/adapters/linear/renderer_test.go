package linear_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tend/internal/adapters/linear"
	"go.trai.ch/tend/internal/core/domain"
)

func newRenderer(t *testing.T) (*linear.Renderer, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	var stdout, stderr bytes.Buffer
	r := linear.NewRenderer(&stdout, &stderr)
	require.NoError(t, r.Start(t.Context()))
	return r, &stdout, &stderr
}

func TestRenderer_RunLifecycle(t *testing.T) {
	r, stdout, stderr := newRenderer(t)

	r.OnRulesLoaded([]string{"server", "test"})

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.OnRunStart("span1", "server", start)
	r.OnRunLog("span1", []byte("first line\nsecond "))
	r.OnRunLog("span1", []byte("line\n"))
	r.OnRunComplete("span1", start.Add(1500*time.Millisecond), nil)
	require.NoError(t, r.Stop())

	assert.Equal(t, "[server] first line\n[server] second line\n", stdout.String())
	assert.Equal(t,
		"Watching 2 rule(s): server, test\n"+
			"[server] Starting...\n"+
			"[server] ✓ Completed in 1.5s\n",
		stderr.String())
}

func TestRenderer_PartialLineFlushedOnComplete(t *testing.T) {
	r, stdout, stderr := newRenderer(t)

	start := time.Now()
	r.OnRunStart("span1", "test", start)
	r.OnRunLog("span1", []byte("partial"))
	assert.Empty(t, stdout.String())

	r.OnRunComplete("span1", start.Add(time.Second), errors.New("exit status 2"))
	assert.Equal(t, "[test] partial\n", stdout.String())
	assert.Contains(t, stderr.String(), "[test] ✗ Failed after 1s: exit status 2")
}

func TestRenderer_PartialLineFlushedOnStop(t *testing.T) {
	r, stdout, _ := newRenderer(t)

	r.OnRunStart("span1", "test", time.Now())
	r.OnRunLog("span1", []byte("tail\r"))
	require.NoError(t, r.Stop())

	assert.Equal(t, "[test] tail\n", stdout.String())
}

func TestRenderer_UnknownSpanIgnored(t *testing.T) {
	r, stdout, stderr := newRenderer(t)

	r.OnRunLog("missing", []byte("line\n"))
	r.OnRunComplete("missing", time.Now(), nil)

	assert.Empty(t, stdout.String())
	assert.Empty(t, stderr.String())
}

func TestRenderer_RuleEvents(t *testing.T) {
	tests := []struct {
		name string
		ev   domain.Event
		want string
	}{
		{
			name: "change",
			ev:   domain.Event{Kind: domain.EventChange, Path: "main.go", Action: domain.ActionChange},
			want: "[server] ~ change main.go\n",
		},
		{
			name: "restart",
			ev:   domain.Event{Kind: domain.EventRestart},
			want: "[server] ↻ Restarting...\n",
		},
		{
			name: "crash",
			ev:   domain.Event{Kind: domain.EventCrash, ExitCode: 2},
			want: "[server] ✗ Crashed with exit code 2\n",
		},
		{
			name: "error",
			ev:   domain.Event{Kind: domain.EventError, Err: domain.ErrSpawnFailed},
			want: "[server] ✗ failed to spawn command\n",
		},
		{
			name: "exec is shown as a run",
			ev:   domain.Event{Kind: domain.EventExec, PID: 10},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, stderr := newRenderer(t)
			r.OnRuleEvent("server", tt.ev)
			assert.Equal(t, tt.want, stderr.String())
		})
	}
}
