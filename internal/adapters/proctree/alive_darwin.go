package proctree

import (
	"slices"

	"github.com/shirou/gopsutil/v4/process"
)

// isAlive scans the process table. Signal probes are unreliable for
// processes owned by other users on darwin.
func isAlive(pid int) bool {
	pids, err := process.Pids()
	if err != nil {
		return false
	}
	return slices.Contains(pids, int32(pid)) //nolint:gosec // pids fit in int32
}
