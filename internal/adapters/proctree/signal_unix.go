//go:build unix

package proctree

import (
	"errors"
	"strconv"
	"strings"

	"go.trai.ch/tend/internal/core/domain"
	"golang.org/x/sys/unix"
)

type signal = unix.Signal

// ParseSignal resolves "SIGTERM", "term" or "15" to a signal.
func ParseSignal(name string) (unix.Signal, error) {
	s := strings.ToUpper(strings.TrimSpace(name))
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return unix.Signal(n), nil
	}
	if !strings.HasPrefix(s, "SIG") {
		s = "SIG" + s
	}
	if sig := unix.SignalNum(s); sig != 0 {
		return sig, nil
	}
	return 0, domain.WithFields(domain.ErrUnknownSignal, "signal", name)
}

// send delivers sig to pid. It reports false when the process is already gone.
func send(pid int, sig signal) (bool, error) {
	if err := unix.Kill(pid, sig); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
