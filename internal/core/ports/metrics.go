package ports

import "time"

// Metrics records rule activity.
//
//go:generate mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// WatchedPaths sets the size of a rule's watch set.
	WatchedPaths(rule string, n int)
	// Dispatched counts an invocation handed to the supervisor.
	Dispatched(rule string)
	// Spawned counts a started process.
	Spawned(rule string)
	// Exited counts a process exit.
	Exited(rule string, code int)
	// Killed records a kill-tree run.
	Killed(rule string, d time.Duration, err error)
}
