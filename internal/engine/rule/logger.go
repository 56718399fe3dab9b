package rule

import "go.trai.ch/tend/internal/core/ports"

// ruleLogger tags diagnostics with the rule name. With the rule's debug
// option set, they are raised to info so they show without global debug.
type ruleLogger struct {
	ports.Logger
	name    string
	promote bool
}

func newRuleLogger(l ports.Logger, name string, promote bool) *ruleLogger {
	return &ruleLogger{Logger: l, name: name, promote: promote}
}

func (l *ruleLogger) Debug(msg string, args ...any) {
	args = append([]any{"rule", l.name}, args...)
	if l.promote {
		l.Logger.Info(msg, args...)
		return
	}
	l.Logger.Debug(msg, args...)
}

func (l *ruleLogger) Warn(msg string, args ...any) {
	l.Logger.Warn(msg, append([]any{"rule", l.name}, args...)...)
}
