//go:build unix

package shell_test

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tend/internal/adapters/shell"
	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/core/ports"
	"go.trai.ch/tend/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

// syncBuffer is safe for the concurrent writes of a child's stdout and stderr.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newSpawner(t *testing.T) *shell.Spawner {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	return shell.NewSpawner(log)
}

func run(t *testing.T, spec ports.SpawnSpec) (int, *syncBuffer) {
	t.Helper()
	out := &syncBuffer{}
	if spec.Stdout == nil {
		spec.Stdout = out
	}
	if spec.Stderr == nil {
		spec.Stderr = out
	}
	if spec.Dir == "" {
		spec.Dir = t.TempDir()
	}

	proc, err := newSpawner(t).Spawn(context.Background(), spec)
	require.NoError(t, err)
	assert.Positive(t, proc.PID())

	code, err := proc.Wait()
	require.NoError(t, err)
	return code, out
}

func TestArgv(t *testing.T) {
	env := []string{"NAME=world"}

	tests := []struct {
		name  string
		line  string
		shell domain.Shell
		want  []string
	}{
		{
			name:  "default shell",
			line:  "echo $NAME && true",
			shell: domain.Shell{Kind: domain.ShellDefault},
			want:  []string{"/bin/sh", "-c", "echo $NAME && true"},
		},
		{
			name:  "custom interpreter",
			line:  "console.log(1)",
			shell: domain.ParseShell("node -e"),
			want:  []string{"node", "-e", "console.log(1)"},
		},
		{
			name:  "no shell splits words",
			line:  `printf '%s\n' "hello $NAME" a\ b`,
			shell: domain.Shell{Kind: domain.ShellNone},
			want:  []string{"printf", `%s\n`, "hello world", "a b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := shell.Argv(tt.line, tt.shell, env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := shell.Argv("   ", domain.Shell{Kind: domain.ShellNone}, env)
	require.ErrorIs(t, err, domain.ErrSpawnFailed)

	_, err = shell.Argv(`echo "unterminated`, domain.Shell{Kind: domain.ShellNone}, env)
	require.Error(t, err)
}

func TestSpawner_DefaultShellOutput(t *testing.T) {
	code, out := run(t, ports.SpawnSpec{CommandLine: "echo line1; echo line2 >&2"})
	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "line1")
	assert.Contains(t, out.String(), "line2")
}

func TestSpawner_ExitCode(t *testing.T) {
	code, _ := run(t, ports.SpawnSpec{CommandLine: "exit 3"})
	assert.Equal(t, 3, code)
}

func TestSpawner_EnvironmentAndDir(t *testing.T) {
	dir := t.TempDir()
	code, out := run(t, ports.SpawnSpec{
		CommandLine: `echo "$TEND_TEST_VAR"; pwd`,
		Env:         []string{"TEND_TEST_VAR=test-value-123"},
		Dir:         dir,
	})
	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "test-value-123")
	assert.Contains(t, out.String(), dir)
}

func TestSpawner_CustomShell(t *testing.T) {
	code, out := run(t, ports.SpawnSpec{
		CommandLine: "echo custom",
		Shell:       domain.ParseShell("sh -c"),
	})
	assert.Equal(t, 0, code)
	assert.Equal(t, "custom\n", out.String())
}

func TestSpawner_NoShell(t *testing.T) {
	code, out := run(t, ports.SpawnSpec{
		CommandLine: `printf '%s|' "a b" c`,
		Shell:       domain.Shell{Kind: domain.ShellNone},
	})
	assert.Equal(t, 0, code)
	assert.Equal(t, "a b|c|", out.String())
}

func TestSpawner_NoShellMissingExecutable(t *testing.T) {
	_, err := newSpawner(t).Spawn(context.Background(), ports.SpawnSpec{
		CommandLine: "tend-does-not-exist --flag",
		Shell:       domain.Shell{Kind: domain.ShellNone},
	})
	require.ErrorIs(t, err, domain.ErrSpawnFailed)
}

func TestSpawner_SignalledProcessReportsMinusOne(t *testing.T) {
	proc, err := newSpawner(t).Spawn(context.Background(), ports.SpawnSpec{CommandLine: "sleep 10"})
	require.NoError(t, err)

	require.NoError(t, syscall.Kill(proc.PID(), syscall.SIGKILL))
	code, err := proc.Wait()
	require.NoError(t, err)
	assert.Equal(t, -1, code)
}

func TestSpawner_BackgroundChildDoesNotBlockWait(t *testing.T) {
	proc, err := newSpawner(t).Spawn(context.Background(), ports.SpawnSpec{
		CommandLine: "sleep 5 & echo started",
		Stdout:      &syncBuffer{},
	})
	require.NoError(t, err)

	start := time.Now()
	code, err := proc.Wait()
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestSpawner_Terminal(t *testing.T) {
	code, out := run(t, ports.SpawnSpec{
		CommandLine: `if [ -t 1 ]; then echo tty; else echo notty; fi`,
		Terminal:    true,
	})
	assert.Equal(t, 0, code)
	assert.Equal(t, "tty", strings.TrimSpace(out.String()))
}

func TestSpawner_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newSpawner(t).Spawn(ctx, ports.SpawnSpec{CommandLine: "true"})
	require.ErrorIs(t, err, context.Canceled)
}
