package tui

import (
	"time"

	"go.trai.ch/tend/internal/core/domain"
)

// MsgRulesLoaded resets the rule list.
type MsgRulesLoaded struct {
	Rules []string
}

// MsgRuleEvent carries one event of a rule.
type MsgRuleEvent struct {
	Rule  string
	Event domain.Event
}

// MsgRunStart indicates a process run (span) of a rule has started.
type MsgRunStart struct {
	SpanID    string
	Name      string
	StartTime time.Time
}

// MsgRunLog carries a chunk of output of a run.
type MsgRunLog struct {
	SpanID string
	Data   []byte
}

// MsgRunComplete indicates a run has finished.
type MsgRunComplete struct {
	SpanID  string
	EndTime time.Time
	Err     error
}
