package app

import (
	"time"

	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/engine/rule"
)

// RuleSnapshot is the serializable form of a registered rule. Handler
// commands appear as domain.FunctionMarker.
type RuleSnapshot struct {
	ID       uint64          `json:"id"`
	Name     string          `json:"name"`
	Mode     string          `json:"mode"`
	Patterns []string        `json:"patterns"`
	Command  string          `json:"command"`
	Dir      string          `json:"dir"`
	Started  bool            `json:"started"`
	Options  OptionsSnapshot `json:"options"`
}

// OptionsSnapshot is the serializable policy of a rule. Durations are in
// milliseconds.
type OptionsSnapshot struct {
	Debounce           int64    `json:"debounce"`
	Throttle           int64    `json:"throttle"`
	Reglob             int64    `json:"reglob"`
	CombineEvents      bool     `json:"combineEvents"`
	WaitDone           bool     `json:"waitDone"`
	ParallelLimit      int      `json:"parallelLimit"`
	Events             []string `json:"events"`
	ChecksumVerify     bool     `json:"checksumVerify"`
	MtimeCheck         bool     `json:"mtimeCheck"`
	RestartOnError     bool     `json:"restartOnError"`
	RestartOnSuccess   bool     `json:"restartOnSuccess"`
	Shell              string   `json:"shell"`
	WriteToConsole     bool     `json:"writeToConsole"`
	Terminal           bool     `json:"terminal"`
	ExecVariablePrefix string   `json:"execVariablePrefix"`
	Debug              bool     `json:"debug"`
	KillSignal         string   `json:"killSignal"`
	KillFinalSignal    string   `json:"killFinalSignal,omitempty"`
	KillCheckInterval  int64    `json:"killCheckInterval"`
	KillRetryInterval  int64    `json:"killRetryInterval"`
	KillRetryCount     int      `json:"killRetryCount"`
	KillTimeout        int64    `json:"killTimeout"`
}

// Snapshot returns the serializable form of every registered rule in id order.
func (a *App) Snapshot() []RuleSnapshot {
	rules := a.Rules()
	out := make([]RuleSnapshot, 0, len(rules))
	for _, r := range rules {
		out = append(out, snapshotRule(r))
	}
	return out
}

func snapshotRule(r *rule.Rule) RuleSnapshot {
	spec := r.Spec()
	p := spec.Policy
	return RuleSnapshot{
		ID:       r.ID(),
		Name:     spec.Name,
		Mode:     spec.Mode.String(),
		Patterns: spec.Patterns,
		Command:  spec.Command.String(),
		Dir:      spec.Dir,
		Started:  r.State() != domain.RuleStopped,
		Options: OptionsSnapshot{
			Debounce:           millis(p.Debounce),
			Throttle:           millis(p.Throttle),
			Reglob:             millis(p.Reglob),
			CombineEvents:      p.CombineEvents,
			WaitDone:           p.WaitDone,
			ParallelLimit:      p.ParallelLimit,
			Events:             p.Events.List(),
			ChecksumVerify:     p.ChecksumVerify,
			MtimeCheck:         p.MtimeCheck,
			RestartOnError:     p.RestartOnError,
			RestartOnSuccess:   p.RestartOnSuccess,
			Shell:              p.Shell.String(),
			WriteToConsole:     p.WriteToConsole,
			Terminal:           p.Terminal,
			ExecVariablePrefix: p.ExecVariablePrefix,
			Debug:              p.Debug,
			KillSignal:         p.Kill.Signal,
			KillFinalSignal:    p.Kill.FinalSignal,
			KillCheckInterval:  millis(p.Kill.CheckInterval),
			KillRetryInterval:  millis(p.Kill.RetryInterval),
			KillRetryCount:     p.Kill.RetryCount,
			KillTimeout:        millis(p.Kill.Timeout),
		},
	}
}

func millis(d time.Duration) int64 {
	return d.Milliseconds()
}
