// Package detector selects the console renderer for the current environment.
package detector

import (
	"os"
	"strings"

	"go.trai.ch/tend/internal/core/domain"
	"golang.org/x/term"
)

// OutputMode represents the rendering mode for the application.
type OutputMode int

const (
	// ModeAuto automatically detects the appropriate mode.
	ModeAuto OutputMode = iota
	// ModeTUI selects the interactive rule dashboard.
	ModeTUI
	// ModeLinear selects prefixed line output.
	ModeLinear
)

func (m OutputMode) String() string {
	switch m {
	case ModeTUI:
		return "tui"
	case ModeLinear:
		return "linear"
	default:
		return "auto"
	}
}

// Environment is what detection looks at.
type Environment struct {
	// IsTerminal reports whether stdout is attached to a terminal.
	IsTerminal bool
	// Getenv looks up environment variables.
	Getenv func(string) string
}

// CurrentEnvironment inspects the running process.
func CurrentEnvironment() Environment {
	return Environment{
		IsTerminal: term.IsTerminal(int(os.Stdout.Fd())),
		Getenv:     os.Getenv,
	}
}

// Detect returns the recommended output mode. CI systems and redirected
// output get linear logs; interactive terminals get the dashboard.
func Detect(env Environment) OutputMode {
	ci := ""
	if env.Getenv != nil {
		ci = strings.ToLower(env.Getenv("CI"))
	}
	if !env.IsTerminal || ci == "true" || ci == "1" {
		return ModeLinear
	}
	return ModeTUI
}

// ParseMode converts an --output-mode value. "ci" is an alias of linear.
func ParseMode(flag string) (OutputMode, error) {
	switch strings.ToLower(strings.TrimSpace(flag)) {
	case "", "auto":
		return ModeAuto, nil
	case "tui":
		return ModeTUI, nil
	case "linear", "ci":
		return ModeLinear, nil
	default:
		return ModeAuto, domain.WithFields(domain.ErrUnknownOutputMode, "mode", flag)
	}
}

// Resolve applies a user choice to the detected mode.
func Resolve(detected, requested OutputMode) OutputMode {
	if requested == ModeAuto {
		return detected
	}
	return requested
}
