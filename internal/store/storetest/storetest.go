// Package storetest holds the behavior every store.Repository must share.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/bubbletime/internal/domain"
	"github.com/MrSnakeDoc/bubbletime/internal/store"
)

// Factory returns a fresh, empty repository.
type Factory func(t *testing.T) store.Repository

// Run executes the repository contract against factory.
func Run(t *testing.T, factory Factory) {
	t.Run("bubble round trip", func(t *testing.T) { testBubbleRoundTrip(t, factory(t)) })
	t.Run("bubbles ordered by name", func(t *testing.T) { testBubbleOrder(t, factory(t)) })
	t.Run("missing ids", func(t *testing.T) { testMissing(t, factory(t)) })
	t.Run("link pair uniqueness", func(t *testing.T) { testPairUniqueness(t, factory(t)) })
	t.Run("links for bubble", func(t *testing.T) { testLinksForBubble(t, factory(t)) })
	t.Run("delete bubble cascades", func(t *testing.T) { testCascade(t, factory(t)) })
	t.Run("delete link frees pair", func(t *testing.T) { testDeleteLinkFreesPair(t, factory(t)) })
	t.Run("resaving a link moves its pair", func(t *testing.T) { testResaveMovesPair(t, factory(t)) })
	t.Run("canceled context still writes", func(t *testing.T) { testCanceledContext(t, factory(t)) })
}

var created = time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)

func bubble(id, name, zone string) *domain.Bubble {
	return &domain.Bubble{
		ID:          id,
		Name:        name,
		TimeZoneID:  zone,
		LocalTime:   "12:00",
		CreatedAt:   created,
		RefreshedAt: created,
	}
}

func link(id, a, b string, diff int, offset time.Duration) *domain.Link {
	return &domain.Link{
		ID:                  id,
		BubbleAID:           a,
		BubbleBID:           b,
		TimeDifferenceHours: diff,
		CreatedAt:           created.Add(offset),
	}
}

func seedBubbles(t *testing.T, repo store.Repository, bubbles ...*domain.Bubble) {
	t.Helper()
	for _, b := range bubbles {
		if err := repo.SaveBubble(context.Background(), b); err != nil {
			t.Fatalf("SaveBubble(%s) error = %v", b.ID, err)
		}
	}
}

func testBubbleRoundTrip(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	b := bubble("b1", "Madrid", "Europe/Madrid")
	b.Temperature = "21C"
	seedBubbles(t, repo, b)

	got, err := repo.GetBubble(ctx, "b1")
	if err != nil {
		t.Fatalf("GetBubble() error = %v", err)
	}
	if got.Name != "Madrid" || got.TimeZoneID != "Europe/Madrid" || got.LocalTime != "12:00" || got.Temperature != "21C" {
		t.Errorf("GetBubble() = %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}

	// Upsert replaces.
	b.LocalTime = "13:37"
	seedBubbles(t, repo, b)
	got, err = repo.GetBubble(ctx, "b1")
	if err != nil {
		t.Fatalf("GetBubble() error = %v", err)
	}
	if got.LocalTime != "13:37" {
		t.Errorf("LocalTime after upsert = %q, want 13:37", got.LocalTime)
	}

	// Returned records are copies.
	got.Name = "Mutated"
	again, _ := repo.GetBubble(ctx, "b1")
	if again.Name != "Madrid" {
		t.Errorf("store shares state with caller: Name = %q", again.Name)
	}

	all, err := repo.ListBubbles(ctx)
	if err != nil {
		t.Fatalf("ListBubbles() error = %v", err)
	}
	if len(all) != 1 {
		t.Errorf("ListBubbles() = %d bubbles, want 1", len(all))
	}
}

func testBubbleOrder(t *testing.T, repo store.Repository) {
	seedBubbles(t, repo,
		bubble("3", "Tokyo", "Asia/Tokyo"),
		bubble("1", "Madrid", "Europe/Madrid"),
		bubble("2", "Buenos Aires", "America/Argentina/Buenos_Aires"),
		bubble("0", "Madrid", "Europe/Madrid"),
	)

	all, err := repo.ListBubbles(context.Background())
	if err != nil {
		t.Fatalf("ListBubbles() error = %v", err)
	}
	want := []string{"2", "0", "1", "3"}
	if len(all) != len(want) {
		t.Fatalf("ListBubbles() = %d bubbles, want %d", len(all), len(want))
	}
	for i, id := range want {
		if all[i].ID != id {
			t.Errorf("ListBubbles()[%d] = %s, want %s", i, all[i].ID, id)
		}
	}
}

func testMissing(t *testing.T, repo store.Repository) {
	ctx := context.Background()

	if _, err := repo.GetBubble(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetBubble(missing) error = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteBubble(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("DeleteBubble(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetLink(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetLink(missing) error = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteLink(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("DeleteLink(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := repo.LinkForPair(ctx, "a", "b"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("LinkForPair(missing) error = %v, want ErrNotFound", err)
	}

	bubbles, err := repo.ListBubbles(ctx)
	if err != nil || len(bubbles) != 0 {
		t.Errorf("ListBubbles() on empty store = %v, %v", bubbles, err)
	}
	links, err := repo.ListLinks(ctx)
	if err != nil || len(links) != 0 {
		t.Errorf("ListLinks() on empty store = %v, %v", links, err)
	}
}

func testPairUniqueness(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	seedBubbles(t, repo, bubble("a", "A", "Etc/UTC"), bubble("b", "B", "Europe/Madrid"))

	if err := repo.SaveLink(ctx, link("l1", "a", "b", 1, 0)); err != nil {
		t.Fatalf("SaveLink() error = %v", err)
	}
	if err := repo.SaveLink(ctx, link("l2", "b", "a", -1, time.Second)); !errors.Is(err, domain.ErrDuplicateLink) {
		t.Errorf("SaveLink(reversed pair) error = %v, want ErrDuplicateLink", err)
	}

	got, err := repo.LinkForPair(ctx, "b", "a")
	if err != nil {
		t.Fatalf("LinkForPair() error = %v", err)
	}
	if got.ID != "l1" || got.BubbleAID != "a" || got.BubbleBID != "b" || got.TimeDifferenceHours != 1 {
		t.Errorf("LinkForPair() = %+v", got)
	}

	links, _ := repo.ListLinks(ctx)
	if len(links) != 1 {
		t.Errorf("ListLinks() = %d links, want 1", len(links))
	}
}

func testLinksForBubble(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	seedBubbles(t, repo,
		bubble("a", "A", "Etc/UTC"),
		bubble("b", "B", "Europe/Madrid"),
		bubble("c", "C", "Asia/Tokyo"),
	)
	for _, l := range []*domain.Link{
		link("ab", "a", "b", 1, 0),
		link("ca", "c", "a", -9, time.Second),
		link("bc", "b", "c", 8, 2*time.Second),
	} {
		if err := repo.SaveLink(ctx, l); err != nil {
			t.Fatalf("SaveLink(%s) error = %v", l.ID, err)
		}
	}

	links, err := repo.LinksForBubble(ctx, "a")
	if err != nil {
		t.Fatalf("LinksForBubble() error = %v", err)
	}
	if len(links) != 2 || links[0].ID != "ab" || links[1].ID != "ca" {
		t.Errorf("LinksForBubble(a) = %v, want [ab ca]", linkIDs(links))
	}

	all, _ := repo.ListLinks(ctx)
	if ids := linkIDs(all); len(ids) != 3 || ids[0] != "ab" || ids[2] != "bc" {
		t.Errorf("ListLinks() = %v, want creation order", ids)
	}
}

func testCascade(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	seedBubbles(t, repo,
		bubble("a", "A", "Etc/UTC"),
		bubble("b", "B", "Europe/Madrid"),
		bubble("c", "C", "Asia/Tokyo"),
	)
	for _, l := range []*domain.Link{
		link("ab", "a", "b", 1, 0),
		link("ac", "a", "c", 9, time.Second),
		link("bc", "b", "c", 8, 2*time.Second),
	} {
		if err := repo.SaveLink(ctx, l); err != nil {
			t.Fatalf("SaveLink(%s) error = %v", l.ID, err)
		}
	}

	if err := repo.DeleteBubble(ctx, "a"); err != nil {
		t.Fatalf("DeleteBubble() error = %v", err)
	}

	links, _ := repo.ListLinks(ctx)
	if ids := linkIDs(links); len(ids) != 1 || ids[0] != "bc" {
		t.Errorf("ListLinks() after cascade = %v, want [bc]", ids)
	}
	if _, err := repo.GetLink(ctx, "ab"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetLink(ab) after cascade error = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetBubble(ctx, "b"); err != nil {
		t.Errorf("other endpoint should survive, GetBubble(b) error = %v", err)
	}

	// DeleteLinksForBubble on its own.
	n, err := repo.DeleteLinksForBubble(ctx, "c")
	if err != nil {
		t.Fatalf("DeleteLinksForBubble() error = %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteLinksForBubble() = %d, want 1", n)
	}
	n, _ = repo.DeleteLinksForBubble(ctx, "c")
	if n != 0 {
		t.Errorf("second DeleteLinksForBubble() = %d, want 0", n)
	}
}

func testDeleteLinkFreesPair(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	seedBubbles(t, repo, bubble("a", "A", "Etc/UTC"), bubble("b", "B", "Europe/Madrid"))

	if err := repo.SaveLink(ctx, link("l1", "a", "b", 1, 0)); err != nil {
		t.Fatalf("SaveLink() error = %v", err)
	}
	if err := repo.DeleteLink(ctx, "l1"); err != nil {
		t.Fatalf("DeleteLink() error = %v", err)
	}
	if err := repo.DeleteLink(ctx, "l1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second DeleteLink() error = %v, want ErrNotFound", err)
	}
	if err := repo.SaveLink(ctx, link("l2", "b", "a", -1, time.Second)); err != nil {
		t.Errorf("SaveLink() after delete error = %v", err)
	}
}

func testResaveMovesPair(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	seedBubbles(t, repo,
		bubble("a", "A", "Etc/UTC"),
		bubble("b", "B", "Europe/Madrid"),
		bubble("c", "C", "Asia/Tokyo"),
	)

	if err := repo.SaveLink(ctx, link("l1", "a", "b", 1, 0)); err != nil {
		t.Fatalf("SaveLink() error = %v", err)
	}
	if err := repo.SaveLink(ctx, link("l1", "a", "c", 9, 0)); err != nil {
		t.Fatalf("SaveLink(same id, new pair) error = %v", err)
	}

	if _, err := repo.LinkForPair(ctx, "a", "b"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("LinkForPair(a, b) error = %v, want ErrNotFound", err)
	}
	if got, err := repo.LinkForPair(ctx, "c", "a"); err != nil || got.ID != "l1" {
		t.Errorf("LinkForPair(c, a) = %v, %v, want l1", got, err)
	}
	if links, _ := repo.LinksForBubble(ctx, "b"); len(links) != 0 {
		t.Errorf("LinksForBubble(b) = %v, want none", linkIDs(links))
	}

	if err := repo.SaveLink(ctx, link("l2", "b", "a", -1, time.Second)); err != nil {
		t.Errorf("SaveLink() on the freed pair error = %v", err)
	}
	if all, _ := repo.ListLinks(ctx); len(all) != 2 {
		t.Errorf("ListLinks() = %v, want [l1 l2]", linkIDs(all))
	}
}

func testCanceledContext(t *testing.T, repo store.Repository) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Writes must complete or not happen at all; a canceled caller is not
	// allowed to leave a half-written record behind.
	err := repo.SaveBubble(ctx, bubble("a", "A", "Etc/UTC"))
	got, getErr := repo.GetBubble(context.Background(), "a")
	switch {
	case err == nil && getErr != nil:
		t.Errorf("SaveBubble succeeded but bubble is missing: %v", getErr)
	case err != nil && getErr == nil:
		t.Errorf("SaveBubble failed (%v) but bubble %+v was written", err, got)
	}
}

func linkIDs(links []*domain.Link) []string {
	ids := make([]string, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.ID)
	}
	return ids
}
