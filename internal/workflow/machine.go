// Package workflow implements the transition-table state machine shared by
// the application and settlement lifecycles. Each entity kind declares its own
// closed Status type and builds a Machine over it, so a status of the wrong
// kind cannot reach the wrong table.
package workflow

// Machine is an acyclic-with-branches finite state machine described by a
// fixed adjacency table. It holds no state beyond the tables themselves; the
// current status lives on the entity record.
type Machine[S comparable] struct {
	transitions map[S][]S
	advance     map[S]S
}

// New builds a Machine from an adjacency table and an authored happy-path
// table. The advance table is authored per kind, not derived: a status with
// several non-terminal branches and no canonical next step is simply absent
// from it.
func New[S comparable](transitions map[S][]S, advance map[S]S) Machine[S] {
	return Machine[S]{transitions: transitions, advance: advance}
}

// CanTransition reports whether from -> to is a legal transition.
// Self-transitions are always illegal, and terminal statuses admit nothing.
func (m Machine[S]) CanTransition(from, to S) bool {
	if from == to {
		return false
	}
	for _, next := range m.transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns every status legally reachable from the given one.
// Terminal statuses return an empty slice. The returned slice is a copy;
// callers may not mutate the table through it.
func (m Machine[S]) NextStatuses(from S) []S {
	next := m.transitions[from]
	out := make([]S, len(next))
	copy(out, next)
	return out
}

// IsTerminal reports whether the status has no further legal transitions.
func (m Machine[S]) IsTerminal(s S) bool {
	return len(m.transitions[s]) == 0
}

// AutoAdvance returns the single forward-progress status for workflow
// automation buttons, distinct from the full set of legal transitions (which
// may include side branches like cancellation). The second return is false at
// terminal statuses and wherever no canonical next step was authored.
func (m Machine[S]) AutoAdvance(from S) (S, bool) {
	next, ok := m.advance[from]
	return next, ok
}
