package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bubbletime/internal/domain"
	"github.com/MrSnakeDoc/bubbletime/internal/store"
)

// maxTxRetries bounds optimistic transaction retries when a watched key
// changes under us.
const maxTxRetries = 3

// Store handles Redis operations for bubbles and links
type Store struct {
	client *redis.Client
}

var _ store.Repository = (*Store)(nil)

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// watch runs fn in an optimistic transaction on keys, retrying on conflict.
func (s *Store) watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error {
	var err error
	for i := 0; i < maxTxRetries; i++ {
		err = s.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("redis transaction kept conflicting: %w", err)
}

// ─────────────────────────────────────────────────────────────────
// Bubble methods
// ─────────────────────────────────────────────────────────────────

// SaveBubble stores a bubble in Redis
func (s *Store) SaveBubble(ctx context.Context, b *domain.Bubble) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal bubble: %w", err)
	}

	// Writes are detached from cancellation: once started they complete.
	ctx = context.WithoutCancel(ctx)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, BubbleKey(b.ID), data, 0)
		pipe.SAdd(ctx, KeyAllBubbles, b.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save bubble: %w", err)
	}
	return nil
}

// GetBubble retrieves a bubble from Redis by ID
func (s *Store) GetBubble(ctx context.Context, id string) (*domain.Bubble, error) {
	return getBubble(ctx, s.client, id)
}

func getBubble(ctx context.Context, c redis.Cmdable, id string) (*domain.Bubble, error) {
	data, err := c.Get(ctx, BubbleKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("bubble %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get bubble: %w", err)
	}

	var b domain.Bubble
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bubble: %w", err)
	}
	return &b, nil
}

// ListBubbles retrieves all bubbles from Redis ordered by name
func (s *Store) ListBubbles(ctx context.Context) ([]*domain.Bubble, error) {
	ids, err := s.client.SMembers(ctx, KeyAllBubbles).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bubble IDs: %w", err)
	}

	bubbles := make([]*domain.Bubble, 0, len(ids))
	for _, id := range ids {
		b, err := s.GetBubble(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Skip ids whose record is gone
				continue
			}
			return nil, err
		}
		bubbles = append(bubbles, b)
	}

	store.SortBubbles(bubbles)
	return bubbles, nil
}

// DeleteBubble removes a bubble and every link touching it in one transaction
func (s *Store) DeleteBubble(ctx context.Context, id string) error {
	ctx = context.WithoutCancel(ctx)
	return s.watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, BubbleKey(id)).Result()
		if err != nil {
			return fmt.Errorf("failed to check bubble: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("bubble %s: %w", id, domain.ErrNotFound)
		}

		links, err := linksForBubble(ctx, tx, id)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, l := range links {
				queueLinkDelete(ctx, pipe, l)
			}
			pipe.Del(ctx, BubbleKey(id), BubbleLinksKey(id))
			pipe.SRem(ctx, KeyAllBubbles, id)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to delete bubble: %w", err)
		}
		return nil
	}, BubbleKey(id), BubbleLinksKey(id))
}

// ─────────────────────────────────────────────────────────────────
// Link methods
// ─────────────────────────────────────────────────────────────────

// SaveLink stores a link; the unordered pair must not be linked yet
func (s *Store) SaveLink(ctx context.Context, l *domain.Link) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("failed to marshal link: %w", err)
	}
	pair := PairKey(l.PairKey())
	ctx = context.WithoutCancel(ctx)

	return s.watch(ctx, func(tx *redis.Tx) error {
		existing, err := tx.Get(ctx, pair).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to check link pair: %w", err)
		}
		if err == nil && existing != l.ID {
			return fmt.Errorf("link %s: %w", l.PairKey(), domain.ErrDuplicateLink)
		}

		prev, err := getLink(ctx, tx, l.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if prev != nil {
				queueLinkDelete(ctx, pipe, prev)
			}
			pipe.Set(ctx, LinkKey(l.ID), data, 0)
			pipe.Set(ctx, pair, l.ID, 0)
			pipe.SAdd(ctx, KeyAllLinks, l.ID)
			pipe.SAdd(ctx, BubbleLinksKey(l.BubbleAID), l.ID)
			pipe.SAdd(ctx, BubbleLinksKey(l.BubbleBID), l.ID)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to save link: %w", err)
		}
		return nil
	}, pair, LinkKey(l.ID))
}

// GetLink retrieves a link from Redis by ID
func (s *Store) GetLink(ctx context.Context, id string) (*domain.Link, error) {
	return getLink(ctx, s.client, id)
}

func getLink(ctx context.Context, c redis.Cmdable, id string) (*domain.Link, error) {
	data, err := c.Get(ctx, LinkKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("link %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	var l domain.Link
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to unmarshal link: %w", err)
	}
	return &l, nil
}

// LinkForPair retrieves the link joining a and b in either order
func (s *Store) LinkForPair(ctx context.Context, a, b string) (*domain.Link, error) {
	id, err := s.client.Get(ctx, PairKey(domain.PairKey(a, b))).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("link %s: %w", domain.PairKey(a, b), domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get link pair: %w", err)
	}
	return s.GetLink(ctx, id)
}

// ListLinks retrieves all links from Redis ordered by creation
func (s *Store) ListLinks(ctx context.Context) ([]*domain.Link, error) {
	ids, err := s.client.SMembers(ctx, KeyAllLinks).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get link IDs: %w", err)
	}
	return collectLinks(ctx, s.client, ids)
}

// LinksForBubble retrieves the links touching bubbleID
func (s *Store) LinksForBubble(ctx context.Context, bubbleID string) ([]*domain.Link, error) {
	return linksForBubble(ctx, s.client, bubbleID)
}

func linksForBubble(ctx context.Context, c redis.Cmdable, bubbleID string) ([]*domain.Link, error) {
	ids, err := c.SMembers(ctx, BubbleLinksKey(bubbleID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bubble link IDs: %w", err)
	}
	return collectLinks(ctx, c, ids)
}

func collectLinks(ctx context.Context, c redis.Cmdable, ids []string) ([]*domain.Link, error) {
	links := make([]*domain.Link, 0, len(ids))
	for _, id := range ids {
		l, err := getLink(ctx, c, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		links = append(links, l)
	}
	store.SortLinks(links)
	return links, nil
}

// DeleteLink removes a link from Redis
func (s *Store) DeleteLink(ctx context.Context, id string) error {
	ctx = context.WithoutCancel(ctx)
	return s.watch(ctx, func(tx *redis.Tx) error {
		l, err := getLink(ctx, tx, id)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			queueLinkDelete(ctx, pipe, l)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to delete link: %w", err)
		}
		return nil
	}, LinkKey(id))
}

// DeleteLinksForBubble removes every link touching bubbleID
func (s *Store) DeleteLinksForBubble(ctx context.Context, bubbleID string) (int, error) {
	ctx = context.WithoutCancel(ctx)
	removed := 0
	err := s.watch(ctx, func(tx *redis.Tx) error {
		links, err := linksForBubble(ctx, tx, bubbleID)
		if err != nil {
			return err
		}
		if len(links) == 0 {
			removed = 0
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, l := range links {
				queueLinkDelete(ctx, pipe, l)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to delete bubble links: %w", err)
		}
		removed = len(links)
		return nil
	}, BubbleLinksKey(bubbleID))
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// queueLinkDelete queues every key mutation that removes l.
func queueLinkDelete(ctx context.Context, pipe redis.Pipeliner, l *domain.Link) {
	pipe.Del(ctx, LinkKey(l.ID))
	pipe.SRem(ctx, KeyAllLinks, l.ID)
	pipe.SRem(ctx, BubbleLinksKey(l.BubbleAID), l.ID)
	pipe.SRem(ctx, BubbleLinksKey(l.BubbleBID), l.ID)
	pipe.Del(ctx, PairKey(l.PairKey()))
}
