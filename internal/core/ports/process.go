package ports

import (
	"context"
	"io"

	"go.trai.ch/tend/internal/core/domain"
)

// SpawnSpec describes a command line to start.
type SpawnSpec struct {
	CommandLine string
	Shell       domain.Shell
	Dir         string
	Env         []string
	Stdout      io.Writer
	Stderr      io.Writer
	// Terminal attaches the process to a pseudo-terminal. Stdout receives the
	// merged output.
	Terminal bool
}

// Process is a started child process.
type Process interface {
	// PID returns the operating system process id.
	PID() int
	// Wait blocks until the process exits and its output is drained. It
	// returns the exit code, or -1 when the process was terminated by a signal.
	Wait() (int, error)
}

// Spawner starts child processes.
//
//go:generate mockgen -source=process.go -destination=mocks/mock_process.go -package=mocks
type Spawner interface {
	Spawn(ctx context.Context, spec SpawnSpec) (Process, error)
}

// ProcessTable answers questions about other processes of the system.
type ProcessTable interface {
	// IsAlive reports whether pid refers to a live, non-zombie process.
	IsAlive(pid int) bool
	// Descendants returns every descendant of pid, children first.
	Descendants(ctx context.Context, pid int) ([]int, error)
}

// TreeKiller terminates a process together with all of its descendants.
type TreeKiller interface {
	// KillTree returns nil once pid and every descendant alive at the start
	// are confirmed dead.
	KillTree(ctx context.Context, pid int, opts domain.KillOptions) error
}
