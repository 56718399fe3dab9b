package domain

import "strings"

// Action is the kind of change observed on a watched path.
type Action string

const (
	// ActionCreate is reported when a path starts matching the rule's patterns.
	ActionCreate Action = "create"
	// ActionChange is reported when a watched path is modified.
	ActionChange Action = "change"
	// ActionDelete is reported when a watched path disappears.
	ActionDelete Action = "delete"
)

// Actions lists every action in reporting order.
var Actions = []Action{ActionCreate, ActionChange, ActionDelete}

// String returns the action name.
func (a Action) String() string {
	return string(a)
}

// ParseAction converts a user supplied action name. "remove" is accepted as an
// alias of "delete".
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "create":
		return ActionCreate, nil
	case "change":
		return ActionChange, nil
	case "delete", "remove":
		return ActionDelete, nil
	default:
		return "", WithFields(ErrUnknownAction, "action", s)
	}
}

// ActionSet is the set of actions a rule forwards.
type ActionSet map[Action]struct{}

// AllActions returns a set containing every action.
func AllActions() ActionSet {
	return NewActionSet(Actions...)
}

// NewActionSet builds a set from the given actions.
func NewActionSet(actions ...Action) ActionSet {
	set := make(ActionSet, len(actions))
	for _, a := range actions {
		set[a] = struct{}{}
	}
	return set
}

// ParseActionSet parses a list of action names.
func ParseActionSet(names []string) (ActionSet, error) {
	set := make(ActionSet, len(names))
	for _, name := range names {
		a, err := ParseAction(name)
		if err != nil {
			return nil, err
		}
		set[a] = struct{}{}
	}
	return set, nil
}

// Has reports whether the action is in the set. A nil set contains every action.
func (s ActionSet) Has(a Action) bool {
	if s == nil {
		return true
	}
	_, ok := s[a]
	return ok
}

// List returns the actions of the set in reporting order.
func (s ActionSet) List() []string {
	out := make([]string, 0, len(Actions))
	for _, a := range Actions {
		if s.Has(a) {
			out = append(out, a.String())
		}
	}
	return out
}
