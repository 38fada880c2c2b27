package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/bubbletime/internal/domain"
	"github.com/MrSnakeDoc/bubbletime/internal/logger"
)

// Target receives imported bubbles and links.
type Target interface {
	Bubbles(ctx context.Context) ([]*domain.Bubble, error)
	AddBubble(ctx context.Context, zoneID, name string) (*domain.Bubble, error)
	LinkBubbles(ctx context.Context, aID, bID string) (*domain.Link, error)
}

// Result counts what an import created.
type Result struct {
	Bubbles int
	Links   int
	Skipped bool
}

// Importer loads a seed file into an empty target.
type Importer struct {
	loader *Loader
	mapper *Mapper
	logger logger.Logger
}

// NewImporter creates an importer for filePath.
func NewImporter(filePath string, log logger.Logger) *Importer {
	return &Importer{
		loader: NewLoader(filePath),
		mapper: NewMapper(),
		logger: log,
	}
}

// Import seeds target when it holds no bubble yet; otherwise it does
// nothing and reports Skipped. Bubbles with an invalid zone are skipped
// along with their links. An already linked pair is skipped too.
func (im *Importer) Import(ctx context.Context, target Target) (Result, error) {
	existing, err := target.Bubbles(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list bubbles: %w", err)
	}
	if len(existing) > 0 {
		im.logger.Info("store not empty, skipping seed import",
			logger.Int("bubbles", len(existing)))
		return Result{Skipped: true}, nil
	}

	file, err := im.loader.Load()
	if err != nil {
		return Result{}, err
	}
	plan, err := im.mapper.Map(file)
	if err != nil {
		return Result{}, err
	}

	var res Result
	ids := make(map[string]string, len(plan.Bubbles))
	for _, entry := range plan.Bubbles {
		b, err := target.AddBubble(ctx, entry.Zone, entry.Name)
		if errors.Is(err, domain.ErrInvalidZone) {
			im.logger.Warn("skipping seed bubble with invalid zone",
				logger.String("key", entry.Key),
				logger.String("zone", entry.Zone))
			continue
		}
		if err != nil {
			return res, fmt.Errorf("failed to add bubble %q: %w", entry.Key, err)
		}
		ids[entry.Key] = b.ID
		res.Bubbles++
	}

	for _, entry := range plan.Links {
		a, okA := ids[entry[0]]
		b, okB := ids[entry[1]]
		if !okA || !okB {
			continue
		}
		_, err := target.LinkBubbles(ctx, a, b)
		if errors.Is(err, domain.ErrDuplicateLink) {
			continue
		}
		if err != nil {
			return res, fmt.Errorf("failed to link %q and %q: %w", entry[0], entry[1], err)
		}
		res.Links++
	}

	im.logger.Info("seed imported",
		logger.Int("bubbles", res.Bubbles),
		logger.Int("links", res.Links))
	return res, nil
}
