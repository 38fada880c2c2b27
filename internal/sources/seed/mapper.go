package seed

import (
	"errors"
	"fmt"
	"strings"
)

// Plan is a validated seed, ready to import.
type Plan struct {
	Bubbles []BubbleEntry
	Links   []LinkEntry
}

// Mapper validates seed files.
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// Map checks that every bubble has a unique key and a zone, and that every
// link joins two distinct declared keys. Zones themselves are validated at
// import time. All problems are reported together.
func (m *Mapper) Map(file *File) (*Plan, error) {
	if file == nil || len(file.Bubbles) == 0 {
		return nil, fmt.Errorf("no bubbles found in seed file")
	}

	var errs []error
	plan := &Plan{}
	keys := make(map[string]bool, len(file.Bubbles))

	for i, b := range file.Bubbles {
		b.Key = strings.TrimSpace(b.Key)
		b.Zone = strings.TrimSpace(b.Zone)
		b.Name = strings.TrimSpace(b.Name)

		switch {
		case b.Key == "":
			errs = append(errs, fmt.Errorf("bubble #%d: missing key", i+1))
			continue
		case keys[b.Key]:
			errs = append(errs, fmt.Errorf("bubble %q: duplicate key", b.Key))
			continue
		case b.Zone == "":
			errs = append(errs, fmt.Errorf("bubble %q: missing zone", b.Key))
			continue
		}
		keys[b.Key] = true
		plan.Bubbles = append(plan.Bubbles, b)
	}

	for i, l := range file.Links {
		a, b := strings.TrimSpace(l[0]), strings.TrimSpace(l[1])
		switch {
		case !keys[a] || !keys[b]:
			errs = append(errs, fmt.Errorf("link #%d: unknown bubble key in [%s, %s]", i+1, a, b))
		case a == b:
			errs = append(errs, fmt.Errorf("link #%d: bubble %q linked to itself", i+1, a))
		default:
			plan.Links = append(plan.Links, LinkEntry{a, b})
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid seed file: %w", err)
	}
	return plan, nil
}
