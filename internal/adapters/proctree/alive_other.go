//go:build !linux && !darwin

package proctree

import "github.com/shirou/gopsutil/v4/process"

func isAlive(pid int) bool {
	ok, err := process.PidExists(int32(pid)) //nolint:gosec // pids fit in int32
	return err == nil && ok
}
