package domain

import "go.trai.ch/zerr"

var (
	// ErrRuleNotFound is returned when no registered rule has the requested id.
	ErrRuleNotFound = zerr.New("rule not found")

	// ErrRuleAlreadyStarted is returned when starting a rule that is not stopped.
	ErrRuleAlreadyStarted = zerr.New("rule already started")

	// ErrRuleNotStarted is returned when an operation requires a running rule.
	ErrRuleNotStarted = zerr.New("rule not started")

	// ErrNoPatterns is returned when a rule has no watch patterns.
	ErrNoPatterns = zerr.New("rule has no patterns")

	// ErrNoCommand is returned when a rule has neither a command template nor a handler.
	ErrNoCommand = zerr.New("rule has no command")

	// ErrInvalidPattern is returned when a glob pattern cannot be parsed.
	ErrInvalidPattern = zerr.New("invalid glob pattern")

	// ErrInvalidPolicy is returned when a rule option has an unusable value.
	ErrInvalidPolicy = zerr.New("invalid rule option")

	// ErrUnknownMode is returned for a mode other than exec or restart.
	ErrUnknownMode = zerr.New("unknown mode, expected 'exec' or 'restart'")

	// ErrUnknownAction is returned for an event filter entry other than create, change or delete.
	ErrUnknownAction = zerr.New("unknown action")

	// ErrUnknownSignal is returned when a kill signal name cannot be resolved.
	ErrUnknownSignal = zerr.New("unknown signal")

	// ErrWatchFailed is returned when the filesystem watcher cannot be created.
	ErrWatchFailed = zerr.New("failed to create filesystem watcher")

	// ErrSpawnFailed is returned when a command cannot be started.
	ErrSpawnFailed = zerr.New("failed to spawn command")

	// ErrKillTimeout is returned when a process survives every termination attempt.
	ErrKillTimeout = zerr.New("timed out killing process")

	// ErrKillFailed is returned when a signal cannot be delivered.
	ErrKillFailed = zerr.New("failed to signal process")

	// ErrProcessTableFailed is returned when the process table cannot be read.
	ErrProcessTableFailed = zerr.New("failed to read process table")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigNotFound is returned when the config file cannot be found.
	ErrConfigNotFound = zerr.New("could not find tend.yaml")

	// ErrDuplicateRuleName is returned when two rules of a config file share a name.
	ErrDuplicateRuleName = zerr.New("duplicate rule name")

	// ErrUnknownOutputMode is returned for an --output-mode other than auto, tui or linear.
	ErrUnknownOutputMode = zerr.New("unknown output mode, expected 'auto', 'tui' or 'linear'")

	// ErrRunFailed is returned when one or more rules could not be stopped cleanly.
	ErrRunFailed = zerr.New("run failed")
)

// WithFields attaches key/value pairs to a sentinel error while keeping it
// matchable with errors.Is.
func WithFields(sentinel error, kv ...any) error {
	err := zerr.Wrap(sentinel, "")
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		err = zerr.With(err, key, kv[i+1])
	}
	return err
}
