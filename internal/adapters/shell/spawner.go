// Package shell starts child processes through a shell, a custom interpreter
// or directly, optionally attached to a pseudo-terminal.
package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/creack/pty"
	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/core/ports"
	"go.trai.ch/zerr"
	"mvdan.cc/sh/v3/shell"
)

// DefaultShell is the interpreter used for domain.ShellDefault.
const DefaultShell = "/bin/sh"

// drainTimeout bounds how long Wait keeps copying output after the process
// exited. Descendants that inherited the output keep it open indefinitely.
const drainTimeout = 500 * time.Millisecond

var _ ports.Spawner = (*Spawner)(nil)

// Spawner implements ports.Spawner using os/exec and pty.
type Spawner struct {
	logger ports.Logger
}

// NewSpawner creates a new Spawner.
func NewSpawner(logger ports.Logger) *Spawner {
	return &Spawner{logger: logger}
}

// Spawn starts the command line described by spec. The process is not bound
// to ctx: it lives until it exits or is killed.
func (s *Spawner) Spawn(ctx context.Context, spec ports.SpawnSpec) (ports.Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, zerr.Wrap(err, domain.ErrSpawnFailed.Error())
	}

	env := resolveEnvironment(os.Environ(), spec.Env)
	argv, err := Argv(spec.CommandLine, spec.Shell, env)
	if err != nil {
		return nil, err
	}

	executable := argv[0]
	if !filepath.IsAbs(executable) && !strings.ContainsRune(executable, filepath.Separator) {
		lp, err := lookPath(executable, env)
		if err != nil {
			return nil, domain.WithFields(domain.ErrSpawnFailed, "command", spec.CommandLine, "executable", executable)
		}
		executable = lp
	}

	cmd := exec.Command(executable, argv[1:]...) //nolint:gosec // user provided command
	cmd.Args[0] = argv[0]
	cmd.Dir = spec.Dir
	cmd.Env = env
	cmd.WaitDelay = drainTimeout

	var proc ports.Process
	if spec.Terminal {
		proc, err = startPTY(cmd, spec.Stdout)
	} else {
		proc, err = startPiped(cmd, spec.Stdout, spec.Stderr)
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrSpawnFailed.Error()), "command", spec.CommandLine)
	}

	s.logger.Debug("process spawned", "pid", proc.PID(), "argv", argv)
	return proc, nil
}

// Argv turns a command line into the argument vector for the given shell
// strategy. Words are split with POSIX shell rules.
func Argv(commandLine string, sh domain.Shell, env []string) ([]string, error) {
	switch sh.Kind {
	case domain.ShellDefault:
		return []string{DefaultShell, "-c", commandLine}, nil
	case domain.ShellCustom:
		words, err := split(sh.Command, env)
		if err != nil {
			return nil, err
		}
		return append(words, commandLine), nil
	case domain.ShellNone:
		return split(commandLine, env)
	default:
		return nil, domain.WithFields(domain.ErrSpawnFailed, "shell", sh.String())
	}
}

func split(s string, env []string) ([]string, error) {
	words, err := shell.Fields(s, lookupEnv(env))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrSpawnFailed.Error()), "command", s)
	}
	if len(words) == 0 {
		return nil, domain.WithFields(domain.ErrSpawnFailed, "command", s)
	}
	return words, nil
}

func lookupEnv(env []string) func(string) string {
	return func(name string) string {
		prefix := name + "="
		for i := len(env) - 1; i >= 0; i-- {
			if v, ok := strings.CutPrefix(env[i], prefix); ok {
				return v
			}
		}
		return ""
	}
}

type process struct {
	cmd  *exec.Cmd
	wait func() error
}

func (p *process) PID() int {
	return p.cmd.Process.Pid
}

// Wait returns the exit code. A signal termination yields -1 and no error.
func (p *process) Wait() (int, error) {
	err := p.wait()
	if p.cmd.ProcessState == nil {
		return -1, err
	}

	code := p.cmd.ProcessState.ExitCode()
	var exitErr *exec.ExitError
	if err == nil || errors.As(err, &exitErr) || errors.Is(err, exec.ErrWaitDelay) {
		return code, nil
	}
	return code, err
}

func startPiped(cmd *exec.Cmd, stdout, stderr io.Writer) (*process, error) {
	cmd.Stdout = orDiscard(stdout)
	cmd.Stderr = orDiscard(stderr)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &process{cmd: cmd, wait: cmd.Wait}, nil
}

func startPTY(cmd *exec.Cmd, stdout io.Writer) (*process, error) {
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to start pty")
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		// PTYs merge stdout and stderr.
		_, _ = io.Copy(orDiscard(stdout), ptmx)
	}()

	wait := func() error {
		err := cmd.Wait()
		select {
		case <-ioDone:
		case <-time.After(drainTimeout):
		}
		_ = ptmx.Close()
		<-ioDone
		return err
	}
	return &process{cmd: cmd, wait: wait}, nil
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

// resolveEnvironment applies the rule overrides on top of the inherited
// environment. Later entries win.
func resolveEnvironment(sysEnv, overrides []string) []string {
	envMap := make(map[string]string, len(sysEnv)+len(overrides))
	order := make([]string, 0, len(sysEnv)+len(overrides))
	for _, list := range [][]string{sysEnv, overrides} {
		for _, entry := range list {
			k, v, ok := strings.Cut(entry, "=")
			if !ok {
				continue
			}
			if _, seen := envMap[k]; !seen {
				order = append(order, k)
			}
			envMap[k] = v
		}
	}

	result := make([]string, 0, len(order))
	for _, k := range order {
		result = append(result, k+"="+envMap[k])
	}
	return result
}

// lookPath searches for an executable in the directories named by the PATH
// entry of env.
func lookPath(file string, env []string) (string, error) {
	path := lookupEnv(env)("PATH")
	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
