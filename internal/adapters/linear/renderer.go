// Package linear provides a synchronous, line-buffered renderer for CI environments.
package linear

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/ui/output"
	"go.trai.ch/tend/internal/ui/style"
)

// Renderer implements ports.Renderer for CI/non-interactive environments.
// It prints process output and rule activity chronologically, one line at a
// time, prefixed with the rule name.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	output *termenv.Output

	mu      sync.Mutex
	runs    map[string]*runState // spanID -> run
	buffers map[string]*bytes.Buffer
}

type runState struct {
	name      string
	startTime time.Time
}

// NewRenderer creates a new linear Renderer.
func NewRenderer(stdout, stderr io.Writer) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return &Renderer{
		stdout:  stdout,
		stderr:  stderr,
		output:  output.NewWithProfile(stderr, output.ColorProfileANSI),
		runs:    make(map[string]*runState),
		buffers: make(map[string]*bytes.Buffer),
	}
}

// Start is a no-op for linear renderer (synchronous).
func (r *Renderer) Start(_ context.Context) error {
	return nil
}

// Stop flushes all remaining buffers.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for spanID := range r.buffers {
		r.flushBufferLocked(spanID)
	}

	return nil
}

// Wait is a no-op for linear renderer (synchronous).
func (r *Renderer) Wait() error {
	return nil
}

// OnRulesLoaded prints the rules about to start.
func (r *Renderer) OnRulesLoaded(rules []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.stderr, "Watching %d rule(s): %s\n", len(rules), strings.Join(rules, ", "))
}

// OnRuleEvent prints the rule activity that is not already visible as a run.
func (r *Renderer) OnRuleEvent(rule string, ev domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prefix := r.prefix(rule)
	switch ev.Kind {
	case domain.EventCreate, domain.EventChange, domain.EventDelete:
		line := fmt.Sprintf("%s %s %s", style.Tilde, ev.Kind, ev.Path)
		_, _ = fmt.Fprintf(r.stderr, "%s %s\n", prefix, r.output.String(line).Faint())
	case domain.EventRestart:
		_, _ = fmt.Fprintf(r.stderr, "%s %s Restarting...\n", prefix, style.Restart)
	case domain.EventCrash:
		symbol := r.output.String(style.Cross).Foreground(termenv.ANSIRed)
		_, _ = fmt.Fprintf(r.stderr, "%s %s Crashed with exit code %d\n", prefix, symbol, ev.ExitCode)
	case domain.EventError:
		symbol := r.output.String(style.Cross).Foreground(termenv.ANSIRed)
		_, _ = fmt.Fprintf(r.stderr, "%s %s %v\n", prefix, symbol, ev.Err)
	}
}

// OnRunStart prints a run start message.
func (r *Renderer) OnRunStart(spanID, name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs[spanID] = &runState{
		name:      name,
		startTime: startTime,
	}
	r.buffers[spanID] = new(bytes.Buffer)

	_, _ = fmt.Fprintf(r.stderr, "%s Starting...\n", r.prefix(name))
}

// OnRunLog buffers output and prints complete lines with the rule prefix.
func (r *Renderer) OnRunLog(spanID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.runs[spanID]
	if !ok {
		return
	}

	buf := r.buffers[spanID]
	buf.Write(data)

	for {
		line, err := buf.ReadBytes('\n')
		if err != nil {
			// Incomplete line, keep it for the next chunk.
			if len(line) > 0 {
				newBuf := new(bytes.Buffer)
				newBuf.Write(line)
				r.buffers[spanID] = newBuf
			}
			break
		}
		r.printLineLocked(run.name, line)
	}
}

// OnRunComplete flushes the remaining output and prints the result.
func (r *Renderer) OnRunComplete(spanID string, endTime time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.runs[spanID]
	if !ok {
		return
	}

	r.flushBufferLocked(spanID)

	duration := endTime.Sub(run.startTime).Round(time.Millisecond)
	prefix := r.prefix(run.name)

	if err != nil {
		symbol := r.output.String(style.Cross).Foreground(termenv.ANSIRed).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s Failed after %v: %v\n", prefix, symbol, duration, err)
	} else {
		symbol := r.output.String(style.Check).Foreground(termenv.ANSIGreen).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s Completed in %v\n", prefix, symbol, duration)
	}

	delete(r.runs, spanID)
	delete(r.buffers, spanID)
}

func (r *Renderer) prefix(name string) string {
	return r.output.String(fmt.Sprintf("[%s]", name)).Faint().String()
}

// flushBufferLocked prints any remaining partial line of a run.
// Must be called with r.mu held.
func (r *Renderer) flushBufferLocked(spanID string) {
	run, ok := r.runs[spanID]
	if !ok {
		return
	}

	buf := r.buffers[spanID]
	if buf.Len() > 0 {
		r.printLineLocked(run.name, buf.Bytes())
		buf.Reset()
	}
}

// printLineLocked prints a line with the rule name prefix.
// Must be called with r.mu held.
func (r *Renderer) printLineLocked(name string, line []byte) {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))

	if len(line) == 0 {
		return
	}

	_, _ = fmt.Fprintf(r.stdout, "[%s] %s\n", name, string(line))
}
