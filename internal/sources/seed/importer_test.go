package seed

import (
	"context"
	"testing"
	"time"

	"github.com/MrSnakeDoc/bubbletime/internal/bubbles"
	"github.com/MrSnakeDoc/bubbletime/internal/facade"
	"github.com/MrSnakeDoc/bubbletime/internal/links"
	"github.com/MrSnakeDoc/bubbletime/internal/logger"
	"github.com/MrSnakeDoc/bubbletime/internal/store/memory"
	"github.com/MrSnakeDoc/bubbletime/internal/timezone"
)

func newTarget() *facade.Facade {
	repo := memory.New()
	now := time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)
	times := timezone.NewService(timezone.NewIANA(), timezone.WithClock(func() time.Time { return now }))
	bs := bubbles.New(repo, times, logger.Nop())
	ls := links.New(repo, bs, times, logger.Nop())
	return facade.New(bs, ls, times, logger.Nop())
}

func TestImport(t *testing.T) {
	path := writeSeed(t, `bubbles:
  - key: home
    zone: Europe/Madrid
    name: Home
  - key: office
    zone: America/New_York
  - key: broken
    zone: Atlantis/Capital
  - key: tokyo
    zone: Asia/Tokyo
links:
  - [home, office]
  - [office, home]
  - [home, broken]
  - [tokyo, home]
`)
	target := newTarget()
	ctx := context.Background()

	res, err := NewImporter(path, logger.Nop()).Import(ctx, target)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Skipped || res.Bubbles != 3 || res.Links != 2 {
		t.Errorf("Import() = %+v, want 3 bubbles and 2 links", res)
	}

	bs, _ := target.Bubbles(ctx)
	names := make(map[string]bool, len(bs))
	for _, b := range bs {
		names[b.Name] = true
	}
	for _, want := range []string{"Home", "New York", "Tokyo"} {
		if !names[want] {
			t.Errorf("bubble %q not imported, got %v", want, names)
		}
	}

	views, _ := target.Links(ctx)
	if len(views) != 2 {
		t.Errorf("Links() = %d, want 2", len(views))
	}
}

func TestImportSkipsNonEmptyTarget(t *testing.T) {
	path := writeSeed(t, `bubbles:
  - key: home
    zone: Europe/Madrid
`)
	target := newTarget()
	ctx := context.Background()

	if _, err := target.AddBubble(ctx, "Etc/UTC", ""); err != nil {
		t.Fatalf("AddBubble() error = %v", err)
	}

	res, err := NewImporter(path, logger.Nop()).Import(ctx, target)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if !res.Skipped {
		t.Error("Import() into a non-empty target should be skipped")
	}
	bs, _ := target.Bubbles(ctx)
	if len(bs) != 1 {
		t.Errorf("Bubbles() = %d, want 1", len(bs))
	}
}

func TestImportInvalidFile(t *testing.T) {
	path := writeSeed(t, `bubbles:
  - key: a
`)
	target := newTarget()

	if _, err := NewImporter(path, logger.Nop()).Import(context.Background(), target); err == nil {
		t.Error("Import() of an invalid seed should fail")
	}
	bs, _ := target.Bubbles(context.Background())
	if len(bs) != 0 {
		t.Errorf("invalid seed wrote %d bubbles", len(bs))
	}
}
