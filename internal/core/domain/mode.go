package domain

import "strings"

// Mode selects how a rule drives its command.
type Mode int

const (
	// ModeRestart keeps one long-lived process and restarts it on every trigger.
	ModeRestart Mode = iota
	// ModeExec runs the command once per trigger.
	ModeExec
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeExec:
		return "exec"
	case ModeRestart:
		return "restart"
	default:
		return "unknown"
	}
}

// ParseMode converts a configuration value into a Mode. An empty value selects restart.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "restart":
		return ModeRestart, nil
	case "exec":
		return ModeExec, nil
	default:
		return 0, WithFields(ErrUnknownMode, "mode", s)
	}
}

// ShellKind selects how a command line is turned into a process.
type ShellKind int

const (
	// ShellDefault runs the command through /bin/sh -c.
	ShellDefault ShellKind = iota
	// ShellCustom runs the command through a user supplied interpreter.
	ShellCustom
	// ShellNone splits the command into words and executes it directly.
	ShellNone
)

// Shell is the spawn strategy of a rule.
type Shell struct {
	Kind ShellKind
	// Command is the interpreter with its leading arguments, e.g. "node -e".
	// Only set for ShellCustom.
	Command string
}

// ParseShell converts the configuration forms "true", "false" and a custom
// interpreter string into a Shell.
func ParseShell(s string) Shell {
	switch strings.TrimSpace(s) {
	case "", "true":
		return Shell{Kind: ShellDefault}
	case "false":
		return Shell{Kind: ShellNone}
	default:
		return Shell{Kind: ShellCustom, Command: strings.TrimSpace(s)}
	}
}

// String returns the configuration form of the shell.
func (s Shell) String() string {
	switch s.Kind {
	case ShellNone:
		return "false"
	case ShellCustom:
		return s.Command
	default:
		return "true"
	}
}
