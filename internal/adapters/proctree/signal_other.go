//go:build !unix

package proctree

import (
	"os"
	"strings"

	"go.trai.ch/tend/internal/core/domain"
)

type signal = os.Signal

// ParseSignal accepts only the signals the platform can deliver. Both
// terminate the process forcibly.
func ParseSignal(name string) (os.Signal, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "SIGKILL", "KILL", "SIGTERM", "TERM", "SIGINT", "INT":
		return os.Kill, nil
	default:
		return nil, domain.WithFields(domain.ErrUnknownSignal, "signal", name)
	}
}

func send(pid int, _ signal) (bool, error) {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false, nil
	}
	if err := p.Kill(); err != nil {
		if !isAlive(pid) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
