package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/bubbletime/internal/bubbles"
	"github.com/MrSnakeDoc/bubbletime/internal/logger"
)

// TimesRefresher recomputes every bubble's local time.
type TimesRefresher interface {
	RefreshAllTimes(ctx context.Context) (bubbles.RefreshReport, error)
}

// Refresher periodically refreshes bubble times. A manual refresh can be
// requested with Trigger.
type Refresher struct {
	target        TimesRefresher
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}
}

// NewRefresher creates a refresher ticking every interval.
func NewRefresher(target TimesRefresher, log logger.Logger, interval time.Duration) *Refresher {
	return &Refresher{
		target:        target,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: make(chan struct{}, 1),
	}
}

// Start refreshes once, then keeps refreshing in the background until Stop
// is called or ctx is done.
func (r *Refresher) Start(ctx context.Context) {
	r.Refresh(ctx)

	ticker := time.NewTicker(r.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Refresh(ctx)
			case <-r.manualTrigger:
				r.logger.Info("manual refresh triggered")
				r.Refresh(ctx)
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the background loop. It is safe to call more than once.
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// Trigger requests a refresh without waiting for it. It reports false when
// a request is already queued.
func (r *Refresher) Trigger() bool {
	select {
	case r.manualTrigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Refresh runs one batch and logs its outcome.
func (r *Refresher) Refresh(ctx context.Context) bubbles.RefreshReport {
	report, err := r.target.RefreshAllTimes(ctx)
	if err != nil {
		r.logger.Error("failed to refresh bubble times", logger.Error(err))
		return report
	}

	if len(report.Failures) > 0 {
		r.logger.Warn("some bubbles could not be refreshed",
			logger.Int("refreshed", report.Refreshed),
			logger.Int("failed", len(report.Failures)))
	} else {
		r.logger.Debug("bubble times refreshed",
			logger.Int("refreshed", report.Refreshed))
	}
	return report
}
