package config

import (
	"strconv"
	"strings"
	"time"

	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Tendfile represents the structure of the tend.yaml configuration file.
type Tendfile struct {
	Version  string            `yaml:"version"`
	Root     string            `yaml:"root"`
	Env      map[string]string `yaml:"env"`
	Defaults OptionsDTO        `yaml:"defaults"`
	Rules    []RuleDTO         `yaml:"rules"`
}

// RuleDTO represents a rule definition in the configuration.
type RuleDTO struct {
	Name       string            `yaml:"name"`
	Mode       string            `yaml:"mode"`
	Patterns   StringList        `yaml:"patterns"`
	Cmd        string            `yaml:"cmd"`
	Dir        string            `yaml:"dir"`
	Env        map[string]string `yaml:"env"`
	OptionsDTO `yaml:",inline"`
}

// OptionsDTO holds the policy keys shared by rules and the defaults section.
// Unset keys are nil so that defaults can be layered underneath.
type OptionsDTO struct {
	Debounce      *Duration  `yaml:"debounce"`
	Throttle      *Duration  `yaml:"throttle"`
	Reglob        *Duration  `yaml:"reglob"`
	CombineEvents *bool      `yaml:"combineEvents"`
	WaitDone      *bool      `yaml:"waitDone"`
	ParallelLimit *int       `yaml:"parallelLimit"`
	Events        StringList `yaml:"events"`

	ChecksumVerify *bool `yaml:"checksumVerify"`
	MtimeCheck     *bool `yaml:"mtimeCheck"`

	RestartOnError   *bool `yaml:"restartOnError"`
	RestartOnSuccess *bool `yaml:"restartOnSuccess"`

	Shell              *ShellValue `yaml:"shell"`
	WriteToConsole     *bool       `yaml:"writeToConsole"`
	Terminal           *bool       `yaml:"terminal"`
	ExecVariablePrefix *string     `yaml:"execVariablePrefix"`
	Debug              *bool       `yaml:"debug"`

	KillSignal        *string   `yaml:"killSignal"`
	KillFinalSignal   *string   `yaml:"killFinalSignal"`
	KillCheckInterval *Duration `yaml:"killCheckInterval"`
	KillRetryInterval *Duration `yaml:"killRetryInterval"`
	KillRetryCount    *int      `yaml:"killRetryCount"`
	KillTimeout       *Duration `yaml:"killTimeout"`
}

// apply overwrites the fields of p that are set in o.
func (o *OptionsDTO) apply(p *domain.Policy) error {
	setDuration(&p.Debounce, o.Debounce)
	setDuration(&p.Throttle, o.Throttle)
	setDuration(&p.Reglob, o.Reglob)
	set(&p.CombineEvents, o.CombineEvents)
	set(&p.WaitDone, o.WaitDone)
	set(&p.ParallelLimit, o.ParallelLimit)
	if o.Events != nil {
		events, err := domain.ParseActionSet(o.Events)
		if err != nil {
			return err
		}
		p.Events = events
	}
	set(&p.ChecksumVerify, o.ChecksumVerify)
	set(&p.MtimeCheck, o.MtimeCheck)
	set(&p.RestartOnError, o.RestartOnError)
	set(&p.RestartOnSuccess, o.RestartOnSuccess)
	if o.Shell != nil {
		p.Shell = domain.Shell(*o.Shell)
	}
	set(&p.WriteToConsole, o.WriteToConsole)
	set(&p.Terminal, o.Terminal)
	set(&p.ExecVariablePrefix, o.ExecVariablePrefix)
	set(&p.Debug, o.Debug)

	set(&p.Kill.Signal, o.KillSignal)
	set(&p.Kill.FinalSignal, o.KillFinalSignal)
	setDuration(&p.Kill.CheckInterval, o.KillCheckInterval)
	setDuration(&p.Kill.RetryInterval, o.KillRetryInterval)
	set(&p.Kill.RetryCount, o.KillRetryCount)
	setDuration(&p.Kill.Timeout, o.KillTimeout)
	return nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *Duration) {
	if src != nil {
		*dst = time.Duration(*src)
	}
}

// Duration accepts an integer number of milliseconds or a Go duration string.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return zerr.With(zerr.New("duration must be a scalar"), "line", node.Line)
	}
	if node.Tag == "!!int" {
		ms, err := strconv.ParseInt(node.Value, 10, 64)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "invalid duration"), "line", node.Line)
		}
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "invalid duration"), "line", node.Line)
	}
	*d = Duration(parsed)
	return nil
}

// StringList accepts either a YAML sequence or a comma separated string.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		list := StringList{}
		for _, part := range strings.Split(node.Value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				list = append(list, part)
			}
		}
		*s = list
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*s = append(StringList{}, list...)
		return nil
	default:
		return zerr.With(zerr.New("expected a list or a comma separated string"), "line", node.Line)
	}
}

// ShellValue accepts true, false or an interpreter command line.
type ShellValue domain.Shell

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *ShellValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return zerr.With(zerr.New("shell must be a boolean or a string"), "line", node.Line)
	}
	*v = ShellValue(domain.ParseShell(node.Value))
	return nil
}
