// Package selection tracks the bubble pending a second click to form a link.
package selection

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/bubbletime/internal/domain"
)

// Linker creates a link between two bubbles.
type Linker interface {
	Create(ctx context.Context, aID, bID string) (*domain.Link, error)
}

// Outcome is the transition taken by Select.
type Outcome int

const (
	// Rejected never reached the machine; the state is unchanged.
	Rejected Outcome = iota
	// Selected moved Empty to Pending.
	Selected
	// Deselected re-clicked the pending bubble.
	Deselected
	// Linked created a link between the pending and the selected bubble.
	Linked
	// AlreadyLinked found the pair linked and reset the selection.
	AlreadyLinked
	// Failed could not create the link; the selection was reset anyway.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Rejected:
		return "rejected"
	case Selected:
		return "selected"
	case Deselected:
		return "deselected"
	case Linked:
		return "linked"
	case AlreadyLinked:
		return "already_linked"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Result describes a Select call.
type Result struct {
	Outcome Outcome `json:"outcome"`
	// Pending is the bubble now pending, empty when the state is Empty.
	Pending string `json:"pending,omitempty"`
	// Link is set when Outcome is Linked.
	Link *domain.Link `json:"link,omitempty"`
}

// Machine holds the states Empty and Pending(bubbleID).
// It is not safe for concurrent use; callers serialize access.
type Machine struct {
	linker  Linker
	pending string
}

// New returns a Machine in the Empty state.
func New(linker Linker) *Machine {
	return &Machine{linker: linker}
}

// Pending returns the pending bubble id, if any.
func (m *Machine) Pending() (string, bool) {
	return m.pending, m.pending != ""
}

// Select applies the transition for a click on bubbleID:
//
//	Empty      + select(B) -> Pending(B)
//	Pending(A) + select(A) -> Empty
//	Pending(A) + select(B) -> create(A, B), then Empty
//
// An existing link is not an error: the selection resets and the outcome is
// AlreadyLinked. Any other creation error is returned, and the selection
// still resets.
func (m *Machine) Select(ctx context.Context, bubbleID string) (Result, error) {
	switch m.pending {
	case "":
		m.pending = bubbleID
		return Result{Outcome: Selected, Pending: bubbleID}, nil
	case bubbleID:
		m.pending = ""
		return Result{Outcome: Deselected}, nil
	}

	first := m.pending
	m.pending = ""

	l, err := m.linker.Create(ctx, first, bubbleID)
	switch {
	case errors.Is(err, domain.ErrDuplicateLink):
		return Result{Outcome: AlreadyLinked}, nil
	case err != nil:
		return Result{Outcome: Failed}, err
	}
	return Result{Outcome: Linked, Link: l}, nil
}

// Clear resets to Empty.
func (m *Machine) Clear() {
	m.pending = ""
}

// ClearIf resets to Empty when bubbleID is pending and reports whether it did.
func (m *Machine) ClearIf(bubbleID string) bool {
	if m.pending == "" || m.pending != bubbleID {
		return false
	}
	m.pending = ""
	return true
}
