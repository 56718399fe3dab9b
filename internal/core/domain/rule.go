package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// RuleSpec is the complete configuration of a rule.
type RuleSpec struct {
	Name     string
	Mode     Mode
	Patterns []string
	Command  Command
	// Dir is the directory patterns are resolved against and commands run in.
	// Empty means the process working directory.
	Dir    string
	Env    map[string]string
	Policy Policy
}

// NewRuleSpec returns a spec with the default policy.
func NewRuleSpec(mode Mode, patterns []string, cmd Command) RuleSpec {
	return RuleSpec{
		Mode:     mode,
		Patterns: patterns,
		Command:  cmd,
		Policy:   DefaultPolicy(),
	}
}

// Validate checks the spec before a rule is built from it.
func (s *RuleSpec) Validate() error {
	if len(s.Patterns) == 0 {
		return WithFields(ErrNoPatterns, "rule", s.Name)
	}
	for _, p := range s.Patterns {
		if strings.TrimSpace(p) == "" {
			return WithFields(ErrInvalidPattern, "pattern", p, "rule", s.Name)
		}
	}
	if s.Command.IsZero() {
		return WithFields(ErrNoCommand, "rule", s.Name)
	}
	if err := s.Policy.Validate(); err != nil {
		return zerr.With(err, "rule", s.Name)
	}
	return nil
}
