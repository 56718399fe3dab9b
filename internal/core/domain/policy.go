package domain

import "time"

// Default policy values.
const (
	DefaultDebounce           = 500 * time.Millisecond
	DefaultReglob             = 2000 * time.Millisecond
	DefaultExecVariablePrefix = "@"

	DefaultKillSignal        = "SIGTERM"
	DefaultKillCheckInterval = 20 * time.Millisecond
	DefaultKillRetryInterval = 500 * time.Millisecond
	DefaultKillRetryCount    = 5
	DefaultKillTimeout       = 5000 * time.Millisecond
)

// KillOptions tunes the termination of a process tree.
type KillOptions struct {
	// Signal is sent to every process of the tree, e.g. "SIGTERM".
	Signal string
	// FinalSignal, when set, replaces Signal on the last attempt.
	FinalSignal   string
	CheckInterval time.Duration
	RetryInterval time.Duration
	RetryCount    int
	Timeout       time.Duration
}

// DefaultKillOptions returns the default termination settings.
func DefaultKillOptions() KillOptions {
	return KillOptions{
		Signal:        DefaultKillSignal,
		CheckInterval: DefaultKillCheckInterval,
		RetryInterval: DefaultKillRetryInterval,
		RetryCount:    DefaultKillRetryCount,
		Timeout:       DefaultKillTimeout,
	}
}

// Validate checks the termination settings.
func (k KillOptions) Validate() error {
	switch {
	case k.Signal == "":
		return WithFields(ErrInvalidPolicy, "field", "killSignal")
	case k.CheckInterval <= 0:
		return WithFields(ErrInvalidPolicy, "field", "killCheckInterval")
	case k.RetryInterval <= 0:
		return WithFields(ErrInvalidPolicy, "field", "killRetryInterval")
	case k.RetryCount < 1:
		return WithFields(ErrInvalidPolicy, "field", "killRetryCount")
	case k.Timeout <= 0:
		return WithFields(ErrInvalidPolicy, "field", "killTimeout")
	}
	return nil
}

// Policy is the full option set of a rule.
type Policy struct {
	Debounce      time.Duration
	Throttle      time.Duration
	Reglob        time.Duration
	CombineEvents bool
	WaitDone      bool
	// ParallelLimit caps concurrent invocations of the rule. Zero means no limit.
	ParallelLimit  int
	Events         ActionSet
	ChecksumVerify bool
	MtimeCheck     bool

	RestartOnError   bool
	RestartOnSuccess bool

	Shell              Shell
	WriteToConsole     bool
	Terminal           bool
	ExecVariablePrefix string
	Debug              bool

	Kill KillOptions
}

// DefaultPolicy returns the policy used when a rule sets nothing.
func DefaultPolicy() Policy {
	return Policy{
		Debounce:           DefaultDebounce,
		Reglob:             DefaultReglob,
		Events:             AllActions(),
		MtimeCheck:         true,
		WriteToConsole:     true,
		ExecVariablePrefix: DefaultExecVariablePrefix,
		Kill:               DefaultKillOptions(),
	}
}

// Validate checks that the policy values are usable.
func (p *Policy) Validate() error {
	switch {
	case p.Debounce < 0:
		return WithFields(ErrInvalidPolicy, "field", "debounce")
	case p.Throttle < 0:
		return WithFields(ErrInvalidPolicy, "field", "throttle")
	case p.Reglob <= 0:
		return WithFields(ErrInvalidPolicy, "field", "reglob")
	case p.ParallelLimit < 0:
		return WithFields(ErrInvalidPolicy, "field", "parallelLimit")
	case p.ExecVariablePrefix == "":
		return WithFields(ErrInvalidPolicy, "field", "execVariablePrefix")
	}
	return p.Kill.Validate()
}
