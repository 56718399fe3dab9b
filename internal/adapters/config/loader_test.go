package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tend/internal/adapters/config"
	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func TestLoader_Load_FullFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	loader := config.NewLoader(mockLogger)

	rootDir := t.TempDir()
	createFile(t, rootDir, domain.ConfigFileName, `
version: "1"
env:
  APP_ENV: dev
defaults:
  debounce: 300
  mtimeCheck: false
  killTimeout: 2s
rules:
  - name: server
    mode: restart
    patterns: ["**/*.go", "!vendor"]
    cmd: go run ./cmd/server
    restartOnError: true
    env:
      PORT: "8080"
  - name: test
    mode: exec
    dir: internal
    patterns: "**/*.go, !gen"
    cmd: go test @reldir
    debounce: 1s
    waitDone: true
    parallelLimit: 2
    events: [create, change]
    shell: false
`)

	specs, err := loader.Load(rootDir)
	require.NoError(t, err)
	require.Len(t, specs, 2)

	server := specs[0]
	assert.Equal(t, "server", server.Name)
	assert.Equal(t, domain.ModeRestart, server.Mode)
	assert.Equal(t, []string{"**/*.go", "!vendor"}, server.Patterns)
	assert.Equal(t, "go run ./cmd/server", server.Command.String())
	assert.Equal(t, rootDir, server.Dir)
	assert.Equal(t, map[string]string{"APP_ENV": "dev", "PORT": "8080"}, server.Env)
	assert.Equal(t, 300*time.Millisecond, server.Policy.Debounce)
	assert.False(t, server.Policy.MtimeCheck)
	assert.True(t, server.Policy.RestartOnError)
	assert.Equal(t, 2*time.Second, server.Policy.Kill.Timeout)
	assert.Equal(t, domain.DefaultReglob, server.Policy.Reglob)
	assert.Equal(t, domain.Shell{Kind: domain.ShellDefault}, server.Policy.Shell)

	test := specs[1]
	assert.Equal(t, domain.ModeExec, test.Mode)
	assert.Equal(t, filepath.Join(rootDir, "internal"), test.Dir)
	assert.Equal(t, []string{"**/*.go", "!gen"}, test.Patterns)
	assert.Equal(t, time.Second, test.Policy.Debounce)
	assert.True(t, test.Policy.WaitDone)
	assert.Equal(t, 2, test.Policy.ParallelLimit)
	assert.Equal(t, []string{"create", "change"}, test.Policy.Events.List())
	assert.Equal(t, domain.ShellNone, test.Policy.Shell.Kind)
	assert.Equal(t, map[string]string{"APP_ENV": "dev"}, test.Env)
}

func TestLoader_Load_WalksUp(t *testing.T) {
	ctrl := gomock.NewController(t)
	loader := config.NewLoader(mocks.NewMockLogger(ctrl))

	rootDir := t.TempDir()
	createFile(t, rootDir, domain.ConfigFileNameAlt, `
rules:
  - patterns: ["*.md"]
    cmd: echo @file
`)
	nested := filepath.Join(rootDir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))

	specs, err := loader.Load(nested)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Empty(t, specs[0].Name)
	assert.Equal(t, rootDir, specs[0].Dir)
	assert.Equal(t, domain.ModeRestart, specs[0].Mode)
}

func TestLoader_Load_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	loader := config.NewLoader(mocks.NewMockLogger(ctrl))
	loader.FS = config.NewMapFSAdapter("/work", fstest.MapFS{})

	_, err := loader.Load("/work/project")
	require.ErrorIs(t, err, domain.ErrConfigNotFound)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "/work/project", zErr.Metadata()["cwd"])
}

func TestLoader_LoadFile_MapFS(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Warn(gomock.Any(), gomock.Any()).Times(1)

	loader := config.NewLoader(mockLogger)
	loader.FS = config.NewMapFSAdapter("/work", fstest.MapFS{
		"tend.yaml": &fstest.MapFile{Data: []byte(`
version: "2"
root: ./src
rules:
  - name: lint
    patterns: ["**/*.ts"]
    cmd: eslint @relfile
    shell: "bash -c"
    reglob: 5s
    killSignal: SIGINT
    killFinalSignal: SIGKILL
    killRetryCount: 2
`)},
	})

	specs, err := loader.LoadFile("/work/tend.yaml")
	require.NoError(t, err)
	require.Len(t, specs, 1)

	lint := specs[0]
	assert.Equal(t, "/work/src", lint.Dir)
	assert.Equal(t, domain.Shell{Kind: domain.ShellCustom, Command: "bash -c"}, lint.Policy.Shell)
	assert.Equal(t, 5*time.Second, lint.Policy.Reglob)
	assert.Equal(t, "SIGINT", lint.Policy.Kill.Signal)
	assert.Equal(t, "SIGKILL", lint.Policy.Kill.FinalSignal)
	assert.Equal(t, 2, lint.Policy.Kill.RetryCount)
}

func TestLoader_Load_ValidationErrors(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		expectedErr error
		errContains string
	}{
		{
			name: "Duplicate Rule Names",
			content: `
rules:
  - name: build
    patterns: ["*.c"]
    cmd: make
  - name: build
    patterns: ["*.h"]
    cmd: make
`,
			expectedErr: domain.ErrDuplicateRuleName,
		},
		{
			name: "Missing Patterns",
			content: `
rules:
  - name: build
    cmd: make
`,
			expectedErr: domain.ErrNoPatterns,
		},
		{
			name: "Missing Command",
			content: `
rules:
  - name: build
    patterns: ["*.c"]
`,
			expectedErr: domain.ErrNoCommand,
		},
		{
			name: "Unknown Mode",
			content: `
rules:
  - patterns: ["*.c"]
    cmd: make
    mode: daemon
`,
			expectedErr: domain.ErrUnknownMode,
		},
		{
			name: "Unknown Event In Defaults",
			content: `
defaults:
  events: [rename]
rules:
  - patterns: ["*.c"]
    cmd: make
`,
			expectedErr: domain.ErrUnknownAction,
		},
		{
			name: "Negative Throttle",
			content: `
rules:
  - patterns: ["*.c"]
    cmd: make
    throttle: -1s
`,
			expectedErr: domain.ErrInvalidPolicy,
		},
		{
			name: "Invalid Duration",
			content: `
rules:
  - patterns: ["*.c"]
    cmd: make
    debounce: soon
`,
			errContains: "invalid duration",
		},
		{
			name: "Unknown Key",
			content: `
rules:
  - patterns: ["*.c"]
    cmd: make
    debounceMs: 100
`,
			errContains: domain.ErrConfigParseFailed.Error(),
		},
		{
			name:        "Invalid YAML Syntax",
			content:     "rules: [ INVALID YAML",
			errContains: domain.ErrConfigParseFailed.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			loader := config.NewLoader(mocks.NewMockLogger(ctrl))
			rootDir := t.TempDir()
			createFile(t, rootDir, domain.ConfigFileName, tt.content)

			specs, err := loader.Load(rootDir)
			require.Error(t, err)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
			}
			if tt.errContains != "" {
				require.ErrorContains(t, err, tt.errContains)
			}
			assert.Nil(t, specs)
		})
	}
}

func TestLoader_LoadFile_EmptyFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	loader := config.NewLoader(mocks.NewMockLogger(ctrl))

	rootDir := t.TempDir()
	createFile(t, rootDir, domain.ConfigFileName, "")

	specs, err := loader.LoadFile(filepath.Join(rootDir, domain.ConfigFileName))
	require.NoError(t, err)
	assert.Empty(t, specs)
}

func TestLoader_LoadFile_Missing(t *testing.T) {
	ctrl := gomock.NewController(t)
	loader := config.NewLoader(mocks.NewMockLogger(ctrl))

	_, err := loader.LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorContains(t, err, domain.ErrConfigReadFailed.Error())
}

// Helpers.

func createFile(t *testing.T, dir, name, content string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600)
	require.NoError(t, err)
}
