package domain

// RuleState is the lifecycle state of a rule.
type RuleState int

const (
	RuleStopped RuleState = iota
	RuleStarting
	RuleRunning
	RuleStopping
)

func (s RuleState) String() string {
	switch s {
	case RuleStarting:
		return "starting"
	case RuleRunning:
		return "running"
	case RuleStopping:
		return "stopping"
	default:
		return "stopped"
	}
}

// ProcessState is the state of a rule's process supervisor.
type ProcessState int

const (
	ProcessIdle ProcessState = iota
	ProcessSpawning
	ProcessRunning
	ProcessTerminating
)

func (s ProcessState) String() string {
	switch s {
	case ProcessSpawning:
		return "spawning"
	case ProcessRunning:
		return "running"
	case ProcessTerminating:
		return "terminating"
	default:
		return "idle"
	}
}
