package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/tend/internal/core/domain"
)

// Renderer wraps the Bubble Tea dashboard as a ports.Renderer.
type Renderer struct {
	program *tea.Program
	model   *Model
	errCh   chan error
}

// NewRenderer creates a new TUI renderer.
func NewRenderer(model *Model, opts ...tea.ProgramOption) *Renderer {
	return &Renderer{
		program: tea.NewProgram(model, opts...),
		model:   model,
		errCh:   make(chan error, 1),
	}
}

// Start launches the TUI in a background goroutine.
func (r *Renderer) Start(_ context.Context) error {
	go func() {
		_, err := r.program.Run()
		r.errCh <- err
	}()
	return nil
}

// Stop signals the TUI to quit.
func (r *Renderer) Stop() error {
	r.program.Quit()
	return nil
}

// Wait blocks until the TUI has terminated, either through Stop or because
// the user quit.
func (r *Renderer) Wait() error {
	return <-r.errCh
}

// OnRulesLoaded initializes the rule list.
func (r *Renderer) OnRulesLoaded(rules []string) {
	r.program.Send(MsgRulesLoaded{Rules: rules})
}

// OnRuleEvent forwards a rule event.
func (r *Renderer) OnRuleEvent(rule string, ev domain.Event) {
	r.program.Send(MsgRuleEvent{Rule: rule, Event: ev})
}

// OnRunStart forwards run start events.
func (r *Renderer) OnRunStart(spanID, name string, startTime time.Time) {
	r.program.Send(MsgRunStart{SpanID: spanID, Name: name, StartTime: startTime})
}

// OnRunLog forwards run output.
func (r *Renderer) OnRunLog(spanID string, data []byte) {
	r.program.Send(MsgRunLog{SpanID: spanID, Data: data})
}

// OnRunComplete forwards run completion events.
func (r *Renderer) OnRunComplete(spanID string, endTime time.Time, err error) {
	r.program.Send(MsgRunComplete{SpanID: spanID, EndTime: endTime, Err: err})
}
