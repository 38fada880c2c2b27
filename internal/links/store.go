// Package links owns the links between bubble pairs.
package links

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/bubbletime/internal/domain"
	"github.com/MrSnakeDoc/bubbletime/internal/logger"
	"github.com/MrSnakeDoc/bubbletime/internal/store"
)

// BubbleResolver looks bubbles up by id; ok is false for a missing bubble.
type BubbleResolver interface {
	Get(ctx context.Context, id string) (b *domain.Bubble, ok bool, err error)
}

// TimeService is the subset of timezone.Service the link store needs.
type TimeService interface {
	Now() time.Time
	HourDifference(zoneA, zoneB string) (int, error)
}

// Store creates and removes links. Endpoints are re-resolved through the
// BubbleResolver on every read that needs bubble data.
type Store struct {
	repo    store.LinkRepository
	bubbles BubbleResolver
	times   TimeService
	log     logger.Logger
	newID   func() string
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces uuid generation, for tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// New creates a link store.
func New(repo store.LinkRepository, bubbles BubbleResolver, times TimeService, log logger.Logger, opts ...Option) *Store {
	s := &Store{
		repo:    repo,
		bubbles: bubbles,
		times:   times,
		log:     log,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Exists reports whether a live link joins the unordered pair {aID, bID}.
func (s *Store) Exists(ctx context.Context, aID, bID string) (bool, error) {
	_, err := s.repo.LinkForPair(ctx, aID, bID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create links aID to bID. It fails with domain.ErrSelfLink when both ids
// are equal, domain.ErrDuplicateLink when the pair is already linked and
// *domain.UnknownBubbleError when an endpoint does not resolve.
// TimeDifferenceHours is how many hours bID is ahead of aID.
func (s *Store) Create(ctx context.Context, aID, bID string) (*domain.Link, error) {
	if aID == bID {
		return nil, fmt.Errorf("bubble %s: %w", aID, domain.ErrSelfLink)
	}

	exists, err := s.Exists(ctx, aID, bID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("link %s: %w", domain.PairKey(aID, bID), domain.ErrDuplicateLink)
	}

	a, err := s.resolve(ctx, aID)
	if err != nil {
		return nil, err
	}
	b, err := s.resolve(ctx, bID)
	if err != nil {
		return nil, err
	}

	diff, err := s.times.HourDifference(a.TimeZoneID, b.TimeZoneID)
	if err != nil {
		return nil, err
	}

	l := &domain.Link{
		ID:                  s.newID(),
		BubbleAID:           aID,
		BubbleBID:           bID,
		TimeDifferenceHours: diff,
		CreatedAt:           s.times.Now(),
	}
	// The repository re-checks the pair atomically.
	if err := s.repo.SaveLink(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Store) resolve(ctx context.Context, id string) (*domain.Bubble, error) {
	b, ok, err := s.bubbles.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &domain.UnknownBubbleError{ID: id}
	}
	return b, nil
}

// Get returns a link by id.
func (s *Store) Get(ctx context.Context, id string) (*domain.Link, error) {
	return s.repo.GetLink(ctx, id)
}

// List returns all links ordered by creation.
func (s *Store) List(ctx context.Context) ([]*domain.Link, error) {
	return s.repo.ListLinks(ctx)
}

// Remove deletes a link. Removing a missing link changes nothing and
// returns domain.ErrNotFound.
func (s *Store) Remove(ctx context.Context, id string) error {
	return s.repo.DeleteLink(ctx, id)
}

// RemoveAllForBubble deletes every link touching bubbleID and returns how
// many were removed.
func (s *Store) RemoveAllForBubble(ctx context.Context, bubbleID string) (int, error) {
	return s.repo.DeleteLinksForBubble(ctx, bubbleID)
}

// Views returns every link with both endpoints resolved. Links whose
// endpoints no longer resolve are left out.
func (s *Store) Views(ctx context.Context) ([]domain.LinkView, error) {
	all, err := s.repo.ListLinks(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]domain.LinkView, 0, len(all))
	for _, l := range all {
		a, okA, err := s.bubbles.Get(ctx, l.BubbleAID)
		if err != nil {
			return nil, err
		}
		b, okB, err := s.bubbles.Get(ctx, l.BubbleBID)
		if err != nil {
			return nil, err
		}
		if !okA || !okB {
			s.log.Debug("skipping link with unresolved endpoint", logger.String("link_id", l.ID))
			continue
		}
		views = append(views, domain.LinkView{Link: *l, BubbleA: *a, BubbleB: *b})
	}
	return views, nil
}

// SweepOrphans deletes links with an endpoint that is no longer live and
// returns how many were removed.
func (s *Store) SweepOrphans(ctx context.Context) (int, error) {
	all, err := s.repo.ListLinks(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, l := range all {
		orphan := false
		for _, id := range []string{l.BubbleAID, l.BubbleBID} {
			_, ok, err := s.bubbles.Get(ctx, id)
			if err != nil {
				return removed, err
			}
			if !ok {
				orphan = true
			}
		}
		if !orphan {
			continue
		}
		err := s.repo.DeleteLink(ctx, l.ID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return removed, err
		}
		s.log.Info("removed orphan link",
			logger.String("link_id", l.ID),
			logger.String("bubble_a_id", l.BubbleAID),
			logger.String("bubble_b_id", l.BubbleBID))
		removed++
	}
	return removed, nil
}
