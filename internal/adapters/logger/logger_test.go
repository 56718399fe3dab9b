package logger_test

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tend/internal/adapters/logger"
	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/zerr"
)

// newTestLogger creates a logger with an injected bytes.Buffer for isolated testing.
// It also sets NO_COLOR=1 to ensure deterministic output without ANSI escape codes.
func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := logger.New().(*logger.Logger)
	lg.SetOutput(buf)
	return lg, buf
}

func TestLogger_Levels(t *testing.T) {
	lg, buf := newTestLogger(t)

	lg.Debug("suppressed")
	lg.Info("rules loaded", "count", 2)
	lg.Warn("watch lost", "path", "a.txt")

	assert.Equal(t, "rules loaded count=2\n! watch lost path=a.txt\n", buf.String())
}

func TestLogger_SetDebug(t *testing.T) {
	lg, buf := newTestLogger(t)

	lg.SetDebug(true)
	lg.Debug("watch fired", "id", 7)
	lg.SetDebug(false)
	lg.Debug("hidden")

	assert.Equal(t, "~ watch fired id=7\n", buf.String())
}

func TestLogger_Error(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		goldenName string
	}{
		{
			name:       "multiline error",
			err:        errors.New("yaml: unmarshal errors:\n  line 30: cannot unmarshal"),
			goldenName: "error_multiline",
		},
		{
			name: "zerr chain",
			err: zerr.Wrap(
				zerr.Wrap(errors.New("no such file or directory"), "failed to read config file"),
				"failed to load configuration",
			),
			goldenName: "error_chain_zerr",
		},
		{
			name: "stdlib chain",
			err: fmt.Errorf("failed to initialize service: %w",
				fmt.Errorf("failed to connect: %w", errors.New("connection refused"))),
			goldenName: "error_chain_stdlib",
		},
		{
			name:       "sentinel with fields",
			err:        zerr.Wrap(domain.WithFields(domain.ErrKillTimeout, "pid", 4242, "attempts", 5), "failed to stop rule"),
			goldenName: "error_sentinel_fields",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			lg.Error(tt.err)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestLogger_Error_Nil(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(nil)

	assert.Empty(t, buf.String(), "Expected no output for nil error")
}

func TestLogger_SetJSON_WithErrorChain(t *testing.T) {
	innerErr := errors.New("database connection failed")
	middleErr := zerr.Wrap(innerErr, "failed to load user data")
	outerErr := zerr.With(middleErr, "user_id", "12345")

	lg, buf := newTestLogger(t)
	lg.SetJSON(true)
	lg.Error(outerErr)
	lg.Info("rule started", "rule", "server")

	output := buf.String()
	assert.Contains(t, output, `"level":"ERROR"`)
	assert.Contains(t, output, "failed to load user data")
	assert.Contains(t, output, "user_id")
	assert.Contains(t, output, `"rule":"server"`)
	assert.NotContains(t, output, "✗", "JSON format should not have pretty markers")
}

func TestLogger_FormatSwitching(t *testing.T) {
	lg, buf := newTestLogger(t)

	lg.Error(errors.New("error in pretty mode"))
	prettyOutput := buf.String()
	buf.Reset()

	lg.SetJSON(true)
	lg.Error(errors.New("error in json mode"))
	jsonOutput := buf.String()
	buf.Reset()

	lg.SetJSON(false)
	lg.Error(errors.New("error back in pretty mode"))
	backToPrettyOutput := buf.String()

	assert.Contains(t, prettyOutput, "✗")
	assert.NotContains(t, prettyOutput, `"error"`)
	assert.Contains(t, jsonOutput, `"error"`)
	assert.NotContains(t, jsonOutput, "✗")
	assert.Contains(t, backToPrettyOutput, "✗")
}

func TestLogger_SetOutput_Nil(t *testing.T) {
	require.NotPanics(t, func() {
		lg := logger.New().(*logger.Logger)
		lg.SetOutput(nil)
	})
}

func TestLogger_ConcurrentAccess(t *testing.T) {
	lg, _ := newTestLogger(t)

	var wg sync.WaitGroup
	for range 4 {
		wg.Go(func() { lg.Info("concurrent info") })
		wg.Go(func() { lg.Debug("concurrent debug") })
		wg.Go(func() { lg.Error(errors.New("concurrent error")) })
		wg.Go(func() { lg.SetJSON(true) })
		wg.Go(func() { lg.SetDebug(true) })
		wg.Go(func() { lg.SetOutput(&bytes.Buffer{}) })
	}
	wg.Wait()
}
