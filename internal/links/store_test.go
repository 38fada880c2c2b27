package links

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/MrSnakeDoc/bubbletime/internal/bubbles"
	"github.com/MrSnakeDoc/bubbletime/internal/domain"
	"github.com/MrSnakeDoc/bubbletime/internal/logger"
	"github.com/MrSnakeDoc/bubbletime/internal/store/memory"
	"github.com/MrSnakeDoc/bubbletime/internal/timezone"
)

var fixedNow = time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	links   *Store
	bubbles *bubbles.Store
	repo    *memory.Store
	times   *timezone.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := memory.New()
	times := timezone.NewService(timezone.NewIANA(), timezone.WithClock(func() time.Time { return fixedNow }))

	n := 0
	linkIDs := func() string {
		n++
		return fmt.Sprintf("link-%d", n)
	}

	bs := bubbles.New(repo, times, logger.Nop())
	return &fixture{
		links:   New(repo, bs, times, logger.Nop(), WithIDGenerator(linkIDs)),
		bubbles: bs,
		repo:    repo,
		times:   times,
	}
}

func (f *fixture) add(t *testing.T, zone string) *domain.Bubble {
	t.Helper()
	b, err := f.bubbles.Add(context.Background(), zone, "")
	if err != nil {
		t.Fatalf("Add(%s) error = %v", zone, err)
	}
	return b
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ny := f.add(t, "America/New_York")
	madrid := f.add(t, "Europe/Madrid")

	l, err := f.links.Create(ctx, ny.ID, madrid.ID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if l.ID != "link-1" || l.BubbleAID != ny.ID || l.BubbleBID != madrid.ID {
		t.Errorf("Create() = %+v", l)
	}
	if l.TimeDifferenceHours != 6 {
		t.Errorf("TimeDifferenceHours = %d, want 6", l.TimeDifferenceHours)
	}
	if !l.CreatedAt.Equal(fixedNow) {
		t.Errorf("CreatedAt = %v, want %v", l.CreatedAt, fixedNow)
	}

	for _, pair := range [][2]string{{ny.ID, madrid.ID}, {madrid.ID, ny.ID}} {
		ok, err := f.links.Exists(ctx, pair[0], pair[1])
		if err != nil || !ok {
			t.Errorf("Exists(%s, %s) = %v, %v, want true", pair[0], pair[1], ok, err)
		}
	}
}

func TestCreateMatchesHourDifference(t *testing.T) {
	zones := []string{"Pacific/Pago_Pago", "Pacific/Kiritimati", "Asia/Kolkata", "America/Los_Angeles", "Etc/UTC"}

	for _, za := range zones {
		for _, zb := range zones {
			if za == zb {
				continue
			}
			t.Run(za+"->"+zb, func(t *testing.T) {
				f := newFixture(t)
				a, b := f.add(t, za), f.add(t, zb)

				l, err := f.links.Create(context.Background(), a.ID, b.ID)
				if err != nil {
					t.Fatalf("Create() error = %v", err)
				}
				want, _ := f.times.HourDifference(za, zb)
				if l.TimeDifferenceHours != want {
					t.Errorf("TimeDifferenceHours = %d, want %d", l.TimeDifferenceHours, want)
				}
				if l.TimeDifferenceHours < -12 || l.TimeDifferenceHours > 12 {
					t.Errorf("TimeDifferenceHours = %d out of [-12, 12]", l.TimeDifferenceHours)
				}
			})
		}
	}
}

func TestCreateErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.add(t, "Europe/Madrid")
	b := f.add(t, "Asia/Tokyo")
	if _, err := f.links.Create(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	tests := []struct {
		name string
		a, b string
		want error
	}{
		{name: "self link", a: a.ID, b: a.ID, want: domain.ErrSelfLink},
		{name: "duplicate", a: a.ID, b: b.ID, want: domain.ErrDuplicateLink},
		{name: "duplicate reversed", a: b.ID, b: a.ID, want: domain.ErrDuplicateLink},
		{name: "unknown first", a: "ghost", b: b.ID, want: domain.ErrUnknownBubble},
		{name: "unknown second", a: a.ID, b: "ghost", want: domain.ErrUnknownBubble},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.links.Create(ctx, tt.a, tt.b)
			if !errors.Is(err, tt.want) {
				t.Errorf("Create(%s, %s) error = %v, want %v", tt.a, tt.b, err, tt.want)
			}
		})
	}

	var unknown *domain.UnknownBubbleError
	_, err := f.links.Create(ctx, a.ID, "ghost")
	if !errors.As(err, &unknown) || unknown.ID != "ghost" {
		t.Errorf("Create() error = %v, want UnknownBubbleError{ghost}", err)
	}

	all, _ := f.links.List(ctx)
	if len(all) != 1 {
		t.Errorf("failed creates left %d links, want 1", len(all))
	}
}

func TestRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, b := f.add(t, "Europe/Madrid"), f.add(t, "Asia/Tokyo")
	l, _ := f.links.Create(ctx, a.ID, b.ID)

	if err := f.links.Remove(ctx, l.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := f.links.Remove(ctx, l.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second Remove() error = %v, want ErrNotFound", err)
	}
	if ok, _ := f.links.Exists(ctx, a.ID, b.ID); ok {
		t.Error("pair still linked after Remove()")
	}
	if _, err := f.links.Create(ctx, b.ID, a.ID); err != nil {
		t.Errorf("re-linking after Remove() error = %v", err)
	}
}

func TestRemoveAllForBubble(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, b, c := f.add(t, "Europe/Madrid"), f.add(t, "Asia/Tokyo"), f.add(t, "Etc/UTC")
	for _, pair := range [][2]string{{a.ID, b.ID}, {c.ID, a.ID}, {b.ID, c.ID}} {
		if _, err := f.links.Create(ctx, pair[0], pair[1]); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	n, err := f.links.RemoveAllForBubble(ctx, a.ID)
	if err != nil {
		t.Fatalf("RemoveAllForBubble() error = %v", err)
	}
	if n != 2 {
		t.Errorf("RemoveAllForBubble() = %d, want 2", n)
	}
	all, _ := f.links.List(ctx)
	if len(all) != 1 || all[0].Touches(a.ID) {
		t.Errorf("remaining links = %+v", all)
	}
}

func TestViews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, b := f.add(t, "Europe/Madrid"), f.add(t, "Asia/Tokyo")
	if _, err := f.links.Create(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	// A record pointing at a bubble that is gone.
	if err := f.repo.SaveLink(ctx, &domain.Link{ID: "orphan", BubbleAID: a.ID, BubbleBID: "ghost"}); err != nil {
		t.Fatalf("SaveLink() error = %v", err)
	}

	views, err := f.links.Views(ctx)
	if err != nil {
		t.Fatalf("Views() error = %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("Views() = %d views, want 1", len(views))
	}
	v := views[0]
	if v.BubbleA.Name != "Madrid" || v.BubbleB.Name != "Tokyo" || v.TimeDifferenceHours != 8 {
		t.Errorf("Views()[0] = %+v", v)
	}

	// Renames show up without touching the link.
	if _, err := f.bubbles.Rename(ctx, b.ID, "Office"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	views, _ = f.links.Views(ctx)
	if views[0].BubbleB.Name != "Office" {
		t.Errorf("view should re-resolve endpoints, got %q", views[0].BubbleB.Name)
	}
}

func TestSweepOrphans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, b := f.add(t, "Europe/Madrid"), f.add(t, "Asia/Tokyo")
	if _, err := f.links.Create(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	for _, l := range []*domain.Link{
		{ID: "o1", BubbleAID: a.ID, BubbleBID: "ghost"},
		{ID: "o2", BubbleAID: "ghost-1", BubbleBID: "ghost-2"},
	} {
		if err := f.repo.SaveLink(ctx, l); err != nil {
			t.Fatalf("SaveLink() error = %v", err)
		}
	}

	n, err := f.links.SweepOrphans(ctx)
	if err != nil {
		t.Fatalf("SweepOrphans() error = %v", err)
	}
	if n != 2 {
		t.Errorf("SweepOrphans() = %d, want 2", n)
	}
	all, _ := f.links.List(ctx)
	if len(all) != 1 || all[0].ID != "link-1" {
		t.Errorf("remaining links = %+v, want only link-1", all)
	}

	n, _ = f.links.SweepOrphans(ctx)
	if n != 0 {
		t.Errorf("second SweepOrphans() = %d, want 0", n)
	}
}
