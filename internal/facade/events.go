package facade

import (
	"sync"
	"time"
)

// EventKind names a state change.
type EventKind string

const (
	BubbleAdded      EventKind = "bubble_added"
	BubbleRenamed    EventKind = "bubble_renamed"
	BubbleRemoved    EventKind = "bubble_removed"
	LinkCreated      EventKind = "link_created"
	LinkRemoved      EventKind = "link_removed"
	SelectionChanged EventKind = "selection_changed"
	TimesRefreshed   EventKind = "times_refreshed"
)

// Event is delivered to subscribers after a mutation is committed.
type Event struct {
	Kind     EventKind `json:"kind"`
	BubbleID string    `json:"bubble_id,omitempty"`
	LinkID   string    `json:"link_id,omitempty"`
	At       time.Time `json:"at"`
}

// hub fans events out to subscribers.
type hub struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(Event)
}

func newHub() *hub {
	return &hub{subs: make(map[int]func(Event))}
}

func (h *hub) subscribe(fn func(Event)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	h.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
		})
	}
}

func (h *hub) publish(events ...Event) {
	if len(events) == 0 {
		return
	}

	h.mu.RLock()
	subs := make([]func(Event), 0, len(h.subs))
	for _, fn := range h.subs {
		subs = append(subs, fn)
	}
	h.mu.RUnlock()

	for _, e := range events {
		for _, fn := range subs {
			fn(e)
		}
	}
}
