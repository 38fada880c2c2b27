// Package bubbles owns the set of bubble records.
package bubbles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/bubbletime/internal/domain"
	"github.com/MrSnakeDoc/bubbletime/internal/logger"
	"github.com/MrSnakeDoc/bubbletime/internal/store"
)

// DefaultConcurrency bounds parallel per-bubble refreshes.
const DefaultConcurrency = 8

// TimeService is the subset of timezone.Service the bubble store needs.
type TimeService interface {
	Now() time.Time
	LocalTime(zoneID string) (string, error)
}

// Store creates, renames, refreshes and removes bubbles.
type Store struct {
	repo        store.BubbleRepository
	times       TimeService
	log         logger.Logger
	concurrency int
	newID       func() string
}

// Option configures a Store.
type Option func(*Store)

// WithConcurrency sets how many bubbles RefreshAll updates at once.
func WithConcurrency(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithIDGenerator replaces uuid generation, for tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// New creates a bubble store over repo.
func New(repo store.BubbleRepository, times TimeService, log logger.Logger, opts ...Option) *Store {
	s := &Store{
		repo:        repo,
		times:       times,
		log:         log,
		concurrency: DefaultConcurrency,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add validates zoneID, then creates and persists a bubble. An empty name
// defaults to DefaultName(zoneID). Nothing is written on an invalid zone.
func (s *Store) Add(ctx context.Context, zoneID, name string) (*domain.Bubble, error) {
	zoneID = strings.TrimSpace(zoneID)
	localTime, err := s.times.LocalTime(zoneID)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = domain.DefaultName(zoneID)
	}

	now := s.times.Now()
	b := &domain.Bubble{
		ID:          s.newID(),
		TimeZoneID:  zoneID,
		Name:        name,
		LocalTime:   localTime,
		CreatedAt:   now,
		RefreshedAt: now,
	}
	if err := s.repo.SaveBubble(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to save bubble: %w", err)
	}
	return b, nil
}

// Get looks a bubble up. A missing bubble is reported by ok == false, not
// by an error; err is reserved for storage failures.
func (s *Store) Get(ctx context.Context, id string) (b *domain.Bubble, ok bool, err error) {
	b, err = s.repo.GetBubble(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Exists reports whether id is a live bubble.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	_, ok, err := s.Get(ctx, id)
	return ok, err
}

// List returns all bubbles ordered by name.
func (s *Store) List(ctx context.Context) ([]*domain.Bubble, error) {
	return s.repo.ListBubbles(ctx)
}

// Rename changes the display name. An empty name restores the default
// derived from the zone.
func (s *Store) Rename(ctx context.Context, id, name string) (*domain.Bubble, error) {
	b, err := s.repo.GetBubble(ctx, id)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = domain.DefaultName(b.TimeZoneID)
	}
	b.Name = name

	if err := s.repo.SaveBubble(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to save bubble: %w", err)
	}
	return b, nil
}

// Remove deletes a bubble. The repository drops the links touching it in
// the same atomic unit. Returns domain.ErrNotFound when id is not live.
func (s *Store) Remove(ctx context.Context, id string) error {
	return s.repo.DeleteBubble(ctx, id)
}

// ─────────────────────────────────────────────────────────────────
// Refresh
// ─────────────────────────────────────────────────────────────────

// RefreshFailure describes one bubble RefreshAll could not update.
type RefreshFailure struct {
	BubbleID string `json:"bubble_id"`
	Zone     string `json:"zone"`
	Err      error  `json:"-"`
	Message  string `json:"error"`
}

// RefreshReport summarizes a RefreshAll batch.
type RefreshReport struct {
	Refreshed int              `json:"refreshed"`
	Failures  []RefreshFailure `json:"failures"`
}

// RefreshAll recomputes LocalTime for every bubble. Bubbles are updated
// independently: a failing bubble keeps its previous LocalTime, is listed
// in the report and does not stop the others. The error is non-nil only
// when the bubble list itself cannot be read.
func (s *Store) RefreshAll(ctx context.Context) (RefreshReport, error) {
	all, err := s.repo.ListBubbles(ctx)
	if err != nil {
		return RefreshReport{}, fmt.Errorf("failed to list bubbles: %w", err)
	}

	var (
		mu     sync.Mutex
		report = RefreshReport{Failures: []RefreshFailure{}}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, b := range all {
		g.Go(func() error {
			updated, err := s.refreshOne(gctx, b)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				report.Failures = append(report.Failures, RefreshFailure{
					BubbleID: b.ID,
					Zone:     b.TimeZoneID,
					Err:      err,
					Message:  err.Error(),
				})
				s.log.Warn("bubble refresh failed",
					logger.String("bubble_id", b.ID),
					logger.String("zone", b.TimeZoneID),
					logger.Error(err))
			case updated:
				report.Refreshed++
			}
			// Never fail the group: one bubble must not cancel the batch.
			return nil
		})
	}
	_ = g.Wait()

	return report, nil
}

// refreshOne updates a single bubble. It reports false without error when
// the bubble disappeared in the meantime.
func (s *Store) refreshOne(ctx context.Context, b *domain.Bubble) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	localTime, err := s.times.LocalTime(b.TimeZoneID)
	if err != nil {
		return false, err
	}

	current, err := s.repo.GetBubble(ctx, b.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	current.LocalTime = localTime
	current.RefreshedAt = s.times.Now()
	if err := s.repo.SaveBubble(ctx, current); err != nil {
		return false, fmt.Errorf("failed to save bubble: %w", err)
	}
	return true, nil
}
