package domain

import "context"

// FunctionMarker stands in for a handler command in serialized rule configuration.
const FunctionMarker = "<FUNCTION>"

// Handler is an in-process command invoked with the triggering change set.
type Handler func(ctx context.Context, inv Invocation) error

// Command is what a rule runs: either a shell template or an in-process handler.
// Exactly one of the two is set.
type Command struct {
	Template string
	Handler  Handler
}

// TemplateCommand returns a command running the given command line.
func TemplateCommand(tmpl string) Command {
	return Command{Template: tmpl}
}

// HandlerCommand returns a command calling fn.
func HandlerCommand(fn Handler) Command {
	return Command{Handler: fn}
}

// IsHandler reports whether the command is an in-process handler.
func (c Command) IsHandler() bool {
	return c.Handler != nil
}

// IsZero reports whether no command was set.
func (c Command) IsZero() bool {
	return c.Handler == nil && c.Template == ""
}

// String returns the template, or FunctionMarker for handlers.
func (c Command) String() string {
	if c.Handler != nil {
		return FunctionMarker
	}
	return c.Template
}
