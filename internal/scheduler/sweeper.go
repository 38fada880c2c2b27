package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/bubbletime/internal/logger"
)

// OrphanSweeper removes links whose endpoints are gone.
type OrphanSweeper interface {
	SweepOrphanLinks(ctx context.Context) (int, error)
}

// Sweeper periodically removes orphan links. Every store drops a bubble's
// links together with the bubble, so this only catches records written by
// older versions or edited by hand.
type Sweeper struct {
	target   OrphanSweeper
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewSweeper creates a sweeper running every interval.
func NewSweeper(target OrphanSweeper, log logger.Logger, interval time.Duration) *Sweeper {
	return &Sweeper{
		target:   target,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start sweeps once, then keeps sweeping in the background.
func (s *Sweeper) Start(ctx context.Context) {
	if _, err := s.Sweep(ctx); err != nil {
		s.logger.Warn("initial orphan sweep failed", logger.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := s.Sweep(ctx); err != nil {
					s.logger.Error("orphan sweep failed", logger.Error(err))
				}
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the background loop. It is safe to call more than once.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Sweep runs one pass and returns how many links were removed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	n, err := s.target.SweepOrphanLinks(ctx)
	if err != nil {
		return n, err
	}

	if n > 0 {
		s.logger.Info("orphan sweep completed", logger.Int("links_deleted", n))
	} else {
		s.logger.Debug("no orphan links to sweep")
	}
	return n, nil
}
