package domain

import "time"

// EventKind names an observable rule event.
type EventKind string

const (
	EventCreate  EventKind = "create"
	EventChange  EventKind = "change"
	EventDelete  EventKind = "delete"
	EventAll     EventKind = "all"
	EventExec    EventKind = "exec"
	EventRestart EventKind = "restart"
	EventKill    EventKind = "kill"
	EventExit    EventKind = "exit"
	EventCrash   EventKind = "crash"
	EventError   EventKind = "error"
)

// Event is published by a rule to its subscribers.
//
// Path and Action are set for per-path events and for "all" on an uncombined
// rule; Paths is set for "all" on a combined rule. ExitCode is set for "exit"
// and "crash", Err for "error" and PID for process events.
type Event struct {
	Kind     EventKind
	RuleID   uint64
	Path     string
	Paths    []string
	Action   Action
	ExitCode int
	PID      int
	Err      error
	Time     time.Time
}

// ActionEvent maps a change action to its event kind.
func ActionEvent(a Action) EventKind {
	switch a {
	case ActionCreate:
		return EventCreate
	case ActionDelete:
		return EventDelete
	default:
		return EventChange
	}
}
