package proctree

import (
	"errors"
	"slices"

	"github.com/shirou/gopsutil/v4/process"
	"golang.org/x/sys/unix"
)

// isAlive probes with signal 0 and rejects zombies, which still answer the
// probe until their parent reaps them.
func isAlive(pid int) bool {
	if err := unix.Kill(pid, 0); err != nil && !errors.Is(err, unix.EPERM) {
		return false
	}

	p := &process.Process{Pid: int32(pid)} //nolint:gosec // pids fit in int32
	status, err := p.Status()
	if err != nil {
		// Gone between the probe and the status read.
		return false
	}
	return !slices.Contains(status, process.Zombie)
}
