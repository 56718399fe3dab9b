package ports

import (
	"context"
	"time"

	"go.trai.ch/tend/internal/core/domain"
)

// Renderer is the abstraction for output rendering.
// It decouples rule execution from presentation logic,
// allowing the same event stream to drive either a live status view or linear logs.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// Start initializes the renderer and begins its lifecycle.
	// For asynchronous renderers (like the TUI), this may launch background goroutines.
	Start(ctx context.Context) error

	// Stop signals the renderer to stop accepting new events and prepare for shutdown.
	// It should flush any buffered output.
	Stop() error

	// Wait blocks until the renderer has fully terminated.
	// For synchronous renderers, this may return immediately.
	Wait() error

	// OnRulesLoaded is called once with the names of the rules about to start.
	OnRulesLoaded(rules []string)

	// OnRuleEvent is called for every event a rule publishes.
	OnRuleEvent(rule string, ev domain.Event)

	// OnRunStart is called when a process run begins.
	// spanID: unique identifier for this run
	// name: human-readable run name (the rule name)
	// startTime: when the run started
	OnRunStart(spanID, name string, startTime time.Time)

	// OnRunLog is called when a run emits output.
	// data: raw bytes (may contain partial lines or ANSI sequences)
	OnRunLog(spanID string, data []byte)

	// OnRunComplete is called when a run finishes.
	// err: nil if the process exited with code zero, error otherwise
	OnRunComplete(spanID string, endTime time.Time, err error)
}
