// Package store defines the persistence boundary of bubbles and links.
//
// Implementations live in the memory, redis and sqlite subpackages. All of
// them honor the same contract:
//   - Get/Delete on a missing id return domain.ErrNotFound
//   - SaveLink rejects a second link for the same unordered pair with
//     domain.ErrDuplicateLink
//   - DeleteBubble removes every link referencing the bubble in the same
//     atomic unit
package store

import (
	"context"
	"sort"

	"github.com/MrSnakeDoc/bubbletime/internal/domain"
)

// BubbleRepository persists bubble records keyed by id.
type BubbleRepository interface {
	SaveBubble(ctx context.Context, b *domain.Bubble) error
	GetBubble(ctx context.Context, id string) (*domain.Bubble, error)
	// ListBubbles returns bubbles ordered by name, then id.
	ListBubbles(ctx context.Context) ([]*domain.Bubble, error)
	DeleteBubble(ctx context.Context, id string) error
}

// LinkRepository persists link records keyed by id, with lookup by endpoint.
type LinkRepository interface {
	SaveLink(ctx context.Context, l *domain.Link) error
	GetLink(ctx context.Context, id string) (*domain.Link, error)
	ListLinks(ctx context.Context) ([]*domain.Link, error)
	LinksForBubble(ctx context.Context, bubbleID string) ([]*domain.Link, error)
	// LinkForPair returns the link joining the unordered pair, or domain.ErrNotFound.
	LinkForPair(ctx context.Context, aID, bID string) (*domain.Link, error)
	DeleteLink(ctx context.Context, id string) error
	// DeleteLinksForBubble removes every link touching bubbleID and returns
	// how many were removed.
	DeleteLinksForBubble(ctx context.Context, bubbleID string) (int, error)
}

// Repository is the full durable store required by the core.
type Repository interface {
	BubbleRepository
	LinkRepository
	Ping(ctx context.Context) error
	Close() error
}

// Kind names a Repository implementation.
type Kind string

const (
	KindMemory Kind = "memory"
	KindRedis  Kind = "redis"
	KindSQLite Kind = "sqlite"
)

// ParseKind validates a backend name.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindMemory, KindRedis, KindSQLite:
		return k, true
	default:
		return "", false
	}
}

// SortBubbles orders bubbles by name, then id.
func SortBubbles(bubbles []*domain.Bubble) {
	sort.Slice(bubbles, func(i, j int) bool {
		if bubbles[i].Name != bubbles[j].Name {
			return bubbles[i].Name < bubbles[j].Name
		}
		return bubbles[i].ID < bubbles[j].ID
	})
}

// SortLinks orders links by creation time, then id.
func SortLinks(links []*domain.Link) {
	sort.Slice(links, func(i, j int) bool {
		if !links[i].CreatedAt.Equal(links[j].CreatedAt) {
			return links[i].CreatedAt.Before(links[j].CreatedAt)
		}
		return links[i].ID < links[j].ID
	})
}
