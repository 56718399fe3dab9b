// Package output builds termenv outputs that honor the NO_COLOR and
// FORCE_COLOR conventions.
package output

import (
	"io"
	"os"

	"github.com/muesli/termenv"
)

// ColorProfile returns the profile for interactive output: Ascii when
// NO_COLOR is set, ANSI256 when FORCE_COLOR is set, and the detected
// terminal capabilities otherwise.
func ColorProfile() termenv.Profile {
	return selectProfile(termenv.EnvColorProfile)
}

// ColorProfileANSI is ColorProfile with plain ANSI as the fallback, which
// CI log viewers render reliably.
func ColorProfileANSI() termenv.Profile {
	return selectProfile(func() termenv.Profile { return termenv.ANSI })
}

func selectProfile(fallback func() termenv.Profile) termenv.Profile {
	switch {
	case os.Getenv("NO_COLOR") != "":
		return termenv.Ascii
	case os.Getenv("FORCE_COLOR") != "":
		return termenv.ANSI256
	default:
		return fallback()
	}
}

// New creates an output on w using ColorProfile. A nil w writes to stderr.
func New(w io.Writer, opts ...termenv.OutputOption) *termenv.Output {
	return NewWithProfile(w, ColorProfile, opts...)
}

// NewWithProfile creates an output on w with the profile returned by profileFn.
// Color is emitted regardless of whether w is a terminal.
func NewWithProfile(w io.Writer, profileFn func() termenv.Profile, opts ...termenv.OutputOption) *termenv.Output {
	if w == nil {
		w = os.Stderr
	}

	opts = append(opts,
		termenv.WithProfile(profileFn()),
		termenv.WithTTY(true),
	)
	return termenv.NewOutput(w, opts...)
}
