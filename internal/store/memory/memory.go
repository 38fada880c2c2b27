package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/MrSnakeDoc/bubbletime/internal/domain"
	"github.com/MrSnakeDoc/bubbletime/internal/store"
)

// Store keeps bubbles and links in process memory.
// Records are cloned on the way in and out so callers never share state
// with the store.
type Store struct {
	mu      sync.RWMutex
	bubbles map[string]*domain.Bubble // ID -> Bubble
	links   map[string]*domain.Link   // ID -> Link
	pairs   map[string]string         // PairKey -> Link ID
}

var _ store.Repository = (*Store)(nil)

// New creates an empty memory store.
func New() *Store {
	return &Store{
		bubbles: make(map[string]*domain.Bubble),
		links:   make(map[string]*domain.Link),
		pairs:   make(map[string]string),
	}
}

// ─────────────────────────────────────────────────────────────────
// Bubble methods
// ─────────────────────────────────────────────────────────────────

// SaveBubble adds or replaces a bubble.
func (s *Store) SaveBubble(_ context.Context, b *domain.Bubble) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bubbles[b.ID] = b.Clone()
	return nil
}

// GetBubble retrieves a bubble by ID.
func (s *Store) GetBubble(_ context.Context, id string) (*domain.Bubble, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bubbles[id]
	if !ok {
		return nil, fmt.Errorf("bubble %s: %w", id, domain.ErrNotFound)
	}
	return b.Clone(), nil
}

// ListBubbles returns all bubbles ordered by name.
func (s *Store) ListBubbles(_ context.Context) ([]*domain.Bubble, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bubbles := make([]*domain.Bubble, 0, len(s.bubbles))
	for _, b := range s.bubbles {
		bubbles = append(bubbles, b.Clone())
	}
	store.SortBubbles(bubbles)
	return bubbles, nil
}

// DeleteBubble removes a bubble and every link touching it.
func (s *Store) DeleteBubble(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bubbles[id]; !ok {
		return fmt.Errorf("bubble %s: %w", id, domain.ErrNotFound)
	}
	s.deleteLinksForBubbleLocked(id)
	delete(s.bubbles, id)
	return nil
}

// ─────────────────────────────────────────────────────────────────
// Link methods
// ─────────────────────────────────────────────────────────────────

// SaveLink inserts a link; the unordered pair must not be linked yet.
func (s *Store) SaveLink(_ context.Context, l *domain.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := l.PairKey()
	if existing, ok := s.pairs[key]; ok && existing != l.ID {
		return fmt.Errorf("link %s: %w", key, domain.ErrDuplicateLink)
	}
	if prev, ok := s.links[l.ID]; ok {
		delete(s.pairs, prev.PairKey())
	}
	s.links[l.ID] = l.Clone()
	s.pairs[key] = l.ID
	return nil
}

// GetLink retrieves a link by ID.
func (s *Store) GetLink(_ context.Context, id string) (*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.links[id]
	if !ok {
		return nil, fmt.Errorf("link %s: %w", id, domain.ErrNotFound)
	}
	return l.Clone(), nil
}

// LinkForPair retrieves the link joining a and b in either order.
func (s *Store) LinkForPair(_ context.Context, a, b string) (*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.pairs[domain.PairKey(a, b)]
	if !ok {
		return nil, fmt.Errorf("link %s: %w", domain.PairKey(a, b), domain.ErrNotFound)
	}
	return s.links[id].Clone(), nil
}

// ListLinks returns all links ordered by creation.
func (s *Store) ListLinks(_ context.Context) ([]*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	links := make([]*domain.Link, 0, len(s.links))
	for _, l := range s.links {
		links = append(links, l.Clone())
	}
	store.SortLinks(links)
	return links, nil
}

// LinksForBubble returns the links touching bubbleID.
func (s *Store) LinksForBubble(_ context.Context, bubbleID string) ([]*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var links []*domain.Link
	for _, l := range s.links {
		if l.Touches(bubbleID) {
			links = append(links, l.Clone())
		}
	}
	store.SortLinks(links)
	return links, nil
}

// DeleteLink removes a link.
func (s *Store) DeleteLink(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.links[id]
	if !ok {
		return fmt.Errorf("link %s: %w", id, domain.ErrNotFound)
	}
	delete(s.pairs, l.PairKey())
	delete(s.links, id)
	return nil
}

// DeleteLinksForBubble removes every link touching bubbleID.
func (s *Store) DeleteLinksForBubble(_ context.Context, bubbleID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteLinksForBubbleLocked(bubbleID), nil
}

func (s *Store) deleteLinksForBubbleLocked(bubbleID string) int {
	removed := 0
	for id, l := range s.links {
		if l.Touches(bubbleID) {
			delete(s.pairs, l.PairKey())
			delete(s.links, id)
			removed++
		}
	}
	return removed
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Count returns the number of bubbles and links held.
func (s *Store) Count() (bubbles, links int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.bubbles), len(s.links)
}
