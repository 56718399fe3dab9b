// Package proctree inspects and terminates process trees.
package proctree

import (
	"context"

	"github.com/shirou/gopsutil/v4/process"
	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ProcessTable = (*Table)(nil)

// Table implements ports.ProcessTable on top of gopsutil.
type Table struct{}

// NewTable creates a new Table.
func NewTable() *Table {
	return &Table{}
}

// IsAlive reports whether pid refers to a live, non-zombie process. The probe
// differs per platform.
func (t *Table) IsAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return isAlive(pid)
}

// Descendants walks the process table breadth first, so children come before
// grandchildren. A process that vanishes during the walk is skipped.
func (t *Table) Descendants(ctx context.Context, pid int) ([]int, error) {
	var out []int
	seen := map[int32]struct{}{int32(pid): {}} //nolint:gosec // pids fit in int32
	queue := []int32{int32(pid)}               //nolint:gosec // pids fit in int32

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return out, zerr.Wrap(err, domain.ErrProcessTableFailed.Error())
		}

		parent := &process.Process{Pid: queue[0]}
		queue = queue[1:]

		children, err := parent.ChildrenWithContext(ctx)
		if err != nil {
			continue
		}
		for _, c := range children {
			if _, ok := seen[c.Pid]; ok {
				continue
			}
			seen[c.Pid] = struct{}{}
			out = append(out, int(c.Pid))
			queue = append(queue, c.Pid)
		}
	}
	return out, nil
}
