// Package facade composes the bubble store, the link store and the selection
// machine into the operations offered to the presentation layer.
//
// Every mutation runs under one facade-wide lock, so a reader never sees a
// link whose endpoint was just removed. Subscribers are notified after the
// lock is released and may call back into the Facade.
package facade

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/bubbletime/internal/bubbles"
	"github.com/MrSnakeDoc/bubbletime/internal/domain"
	"github.com/MrSnakeDoc/bubbletime/internal/links"
	"github.com/MrSnakeDoc/bubbletime/internal/logger"
	"github.com/MrSnakeDoc/bubbletime/internal/selection"
)

// ZoneCatalog lists and searches zone identifiers.
type ZoneCatalog interface {
	Zones() []string
	Search(query string, limit int) []string
}

// Facade is the domain entry point. Create one with New; independent
// instances share nothing but what their stores share.
type Facade struct {
	mu        sync.RWMutex
	bubbles   *bubbles.Store
	links     *links.Store
	selection *selection.Machine
	zones     ZoneCatalog
	log       logger.Logger
	now       func() time.Time
	events    *hub
}

// New wires a Facade. The selection machine creates links through ls.
func New(bs *bubbles.Store, ls *links.Store, zones ZoneCatalog, log logger.Logger) *Facade {
	return &Facade{
		bubbles:   bs,
		links:     ls,
		selection: selection.New(ls),
		zones:     zones,
		log:       log,
		now:       time.Now,
		events:    newHub(),
	}
}

// Subscribe registers fn for every committed change and returns a function
// that unregisters it.
func (f *Facade) Subscribe(fn func(Event)) (cancel func()) {
	return f.events.subscribe(fn)
}

func (f *Facade) event(kind EventKind, bubbleID, linkID string) Event {
	return Event{Kind: kind, BubbleID: bubbleID, LinkID: linkID, At: f.now()}
}

// ─────────────────────────────────────────────────────────────────
// Mutations
// ─────────────────────────────────────────────────────────────────

// AddBubble creates a bubble in zoneID. An empty name derives one from the
// zone. Fails with *domain.InvalidZoneError without changing state.
func (f *Facade) AddBubble(ctx context.Context, zoneID, name string) (*domain.Bubble, error) {
	f.mu.Lock()
	b, err := f.bubbles.Add(ctx, zoneID, name)
	f.mu.Unlock()

	if err != nil {
		f.log.Warn("add bubble rejected", logger.String("zone", zoneID), logger.Error(err))
		return nil, err
	}

	f.log.Info("bubble added",
		logger.String("bubble_id", b.ID),
		logger.String("zone", b.TimeZoneID),
		logger.String("name", b.Name))
	f.events.publish(f.event(BubbleAdded, b.ID, ""))
	return b, nil
}

// RenameBubble changes a bubble's display name; an empty name restores the
// default.
func (f *Facade) RenameBubble(ctx context.Context, id, name string) (*domain.Bubble, error) {
	f.mu.Lock()
	b, err := f.bubbles.Rename(ctx, id, name)
	f.mu.Unlock()

	if err != nil {
		f.log.Warn("rename bubble rejected", logger.String("bubble_id", id), logger.Error(err))
		return nil, err
	}

	f.log.Info("bubble renamed", logger.String("bubble_id", id), logger.String("name", b.Name))
	f.events.publish(f.event(BubbleRenamed, id, ""))
	return b, nil
}

// RemoveBubble deletes a bubble, every link touching it and, when it was
// pending, the selection. It returns the number of links removed, or
// domain.ErrNotFound for a missing bubble.
func (f *Facade) RemoveBubble(ctx context.Context, id string) (int, error) {
	f.mu.Lock()
	removed, cleared, err := f.removeBubbleLocked(ctx, id)
	f.mu.Unlock()

	if err != nil {
		f.log.Warn("remove bubble rejected", logger.String("bubble_id", id), logger.Error(err))
		return 0, err
	}

	f.log.Info("bubble removed",
		logger.String("bubble_id", id),
		logger.Int("links_removed", removed),
		logger.Bool("selection_cleared", cleared))

	events := []Event{f.event(BubbleRemoved, id, "")}
	if cleared {
		events = append(events, f.event(SelectionChanged, "", ""))
	}
	f.events.publish(events...)
	return removed, nil
}

func (f *Facade) removeBubbleLocked(ctx context.Context, id string) (removed int, cleared bool, err error) {
	ok, err := f.bubbles.Exists(ctx, id)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, fmt.Errorf("bubble %s: %w", id, domain.ErrNotFound)
	}

	// The links go first: if the bubble delete fails afterwards, nothing
	// dangles.
	removed, err = f.links.RemoveAllForBubble(ctx, id)
	if err != nil {
		return 0, false, fmt.Errorf("failed to remove links of bubble: %w", err)
	}
	if err := f.bubbles.Remove(ctx, id); err != nil {
		return removed, false, err
	}
	return removed, f.selection.ClearIf(id), nil
}

// ToggleSelection clicks bubbleID in the selection machine. Selecting a
// second bubble creates a link. An already linked pair resets the selection
// without error; other link errors are returned after the reset.
func (f *Facade) ToggleSelection(ctx context.Context, bubbleID string) (selection.Result, error) {
	f.mu.Lock()
	res, err := f.toggleLocked(ctx, bubbleID)
	f.mu.Unlock()

	if res.Outcome == selection.Rejected {
		f.log.Warn("selection rejected", logger.String("bubble_id", bubbleID), logger.Error(err))
		return res, err
	}

	events := []Event{f.event(SelectionChanged, bubbleID, "")}
	switch {
	case err != nil:
		f.log.Warn("link creation failed", logger.String("bubble_id", bubbleID), logger.Error(err))
	case res.Outcome == selection.Linked:
		f.log.Info("link created",
			logger.String("link_id", res.Link.ID),
			logger.String("bubble_a_id", res.Link.BubbleAID),
			logger.String("bubble_b_id", res.Link.BubbleBID),
			logger.Int("hours", res.Link.TimeDifferenceHours))
		events = append(events, f.event(LinkCreated, "", res.Link.ID))
	default:
		f.log.Debug("selection changed",
			logger.String("bubble_id", bubbleID),
			logger.String("outcome", res.Outcome.String()))
	}
	f.events.publish(events...)
	return res, err
}

func (f *Facade) toggleLocked(ctx context.Context, bubbleID string) (selection.Result, error) {
	// With a bubble pending, the link store resolves bubbleID and the
	// machine resets the selection on failure.
	if _, pending := f.selection.Pending(); pending {
		return f.selection.Select(ctx, bubbleID)
	}

	ok, err := f.bubbles.Exists(ctx, bubbleID)
	if err != nil {
		return selection.Result{Outcome: selection.Rejected}, err
	}
	if !ok {
		return selection.Result{Outcome: selection.Rejected}, &domain.UnknownBubbleError{ID: bubbleID}
	}
	return f.selection.Select(ctx, bubbleID)
}

// ClearSelection drops the pending bubble, if any. It reports whether
// there was one.
func (f *Facade) ClearSelection() bool {
	f.mu.Lock()
	pending, ok := f.selection.Pending()
	f.selection.Clear()
	f.mu.Unlock()

	if ok {
		f.log.Debug("selection cleared", logger.String("bubble_id", pending))
		f.events.publish(f.event(SelectionChanged, pending, ""))
	}
	return ok
}

// LinkBubbles links aID to bID directly, bypassing the selection. Unlike
// ToggleSelection, an already linked pair is an error
// (domain.ErrDuplicateLink).
func (f *Facade) LinkBubbles(ctx context.Context, aID, bID string) (*domain.Link, error) {
	f.mu.Lock()
	l, err := f.links.Create(ctx, aID, bID)
	f.mu.Unlock()

	if err != nil {
		f.log.Warn("link rejected",
			logger.String("bubble_a_id", aID),
			logger.String("bubble_b_id", bID),
			logger.Error(err))
		return nil, err
	}

	f.log.Info("link created",
		logger.String("link_id", l.ID),
		logger.String("bubble_a_id", aID),
		logger.String("bubble_b_id", bID),
		logger.Int("hours", l.TimeDifferenceHours))
	f.events.publish(f.event(LinkCreated, "", l.ID))
	return l, nil
}

// RemoveLink deletes a link. A missing link returns domain.ErrNotFound and
// changes nothing.
func (f *Facade) RemoveLink(ctx context.Context, id string) error {
	f.mu.Lock()
	err := f.links.Remove(ctx, id)
	f.mu.Unlock()

	if err != nil {
		f.log.Warn("remove link rejected", logger.String("link_id", id), logger.Error(err))
		return err
	}

	f.log.Info("link removed", logger.String("link_id", id))
	f.events.publish(f.event(LinkRemoved, "", id))
	return nil
}

// RefreshAllTimes recomputes every bubble's local time. Per-bubble failures
// are in the report and do not fail the call.
func (f *Facade) RefreshAllTimes(ctx context.Context) (bubbles.RefreshReport, error) {
	f.mu.Lock()
	report, err := f.bubbles.RefreshAll(ctx)
	f.mu.Unlock()

	if err != nil {
		f.log.Error("refresh failed", logger.Error(err))
		return report, err
	}

	f.log.Debug("times refreshed",
		logger.Int("refreshed", report.Refreshed),
		logger.Int("failed", len(report.Failures)))
	f.events.publish(f.event(TimesRefreshed, "", ""))
	return report, nil
}

// SweepOrphanLinks removes links whose endpoints are gone and returns how
// many were removed.
func (f *Facade) SweepOrphanLinks(ctx context.Context) (int, error) {
	f.mu.Lock()
	n, err := f.links.SweepOrphans(ctx)
	f.mu.Unlock()

	if err != nil {
		return n, err
	}
	if n > 0 {
		f.events.publish(f.event(LinkRemoved, "", ""))
	}
	return n, nil
}

// ─────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────

// Bubbles returns all bubbles ordered by name.
func (f *Facade) Bubbles(ctx context.Context) ([]*domain.Bubble, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bubbles.List(ctx)
}

// Bubble returns one bubble or domain.ErrNotFound.
func (f *Facade) Bubble(ctx context.Context, id string) (*domain.Bubble, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	b, ok, err := f.bubbles.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("bubble %s: %w", id, domain.ErrNotFound)
	}
	return b, nil
}

// Links returns every link with its endpoints resolved.
func (f *Facade) Links(ctx context.Context) ([]domain.LinkView, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.links.Views(ctx)
}

// Selection returns the pending bubble id, if any.
func (f *Facade) Selection() (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.selection.Pending()
}

// Snapshot is a consistent view of the whole domain state.
type Snapshot struct {
	Bubbles []*domain.Bubble  `json:"bubbles"`
	Links   []domain.LinkView `json:"links"`
	Pending string            `json:"pending,omitempty"`
}

// Snapshot reads bubbles, links and selection under one lock.
func (f *Facade) Snapshot(ctx context.Context) (Snapshot, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	bs, err := f.bubbles.List(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	ls, err := f.links.Views(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	pending, _ := f.selection.Pending()
	return Snapshot{Bubbles: bs, Links: ls, Pending: pending}, nil
}

// Zones lists every valid zone identifier.
func (f *Facade) Zones() []string {
	return f.zones.Zones()
}

// SearchZones filters zones for the selector.
func (f *Facade) SearchZones(query string, limit int) []string {
	return f.zones.Search(query, limit)
}
