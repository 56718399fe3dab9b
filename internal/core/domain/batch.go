package domain

// Change is a single filtered notification from the watch set.
type Change struct {
	Path   string
	Action Action
}

// Batch accumulates changes in first-seen order. A path appears once; its
// latest action wins.
type Batch struct {
	changes []Change
	index   map[string]int
}

// Add records a change, replacing the action of an already pending path.
func (b *Batch) Add(c Change) {
	if b.index == nil {
		b.index = make(map[string]int)
	}
	if i, ok := b.index[c.Path]; ok {
		b.changes[i].Action = c.Action
		return
	}
	b.index[c.Path] = len(b.changes)
	b.changes = append(b.changes, c)
}

// Len returns the number of distinct pending paths.
func (b *Batch) Len() int {
	return len(b.changes)
}

// Changes returns a copy of the pending changes.
func (b *Batch) Changes() []Change {
	out := make([]Change, len(b.changes))
	copy(out, b.changes)
	return out
}

// Invocation is one dispatched unit of work.
type Invocation struct {
	RuleID   uint64
	Changes  []Change
	Combined bool
}

// Paths returns the affected paths in order.
func (i Invocation) Paths() []string {
	out := make([]string, len(i.Changes))
	for n, c := range i.Changes {
		out[n] = c.Path
	}
	return out
}

// Path returns the first affected path, or "" for an invocation without changes.
func (i Invocation) Path() string {
	if len(i.Changes) == 0 {
		return ""
	}
	return i.Changes[0].Path
}

// Action returns the action of the most recent change.
func (i Invocation) Action() Action {
	if len(i.Changes) == 0 {
		return ""
	}
	return i.Changes[len(i.Changes)-1].Action
}
