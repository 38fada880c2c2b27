package timezone

import (
	"time"
)

// LocalTimeLayout is the HH:MM 24h layout of Bubble.LocalTime.
const LocalTimeLayout = "15:04"

// Service computes live wall-clock times and hour differences between zones.
// It never caches times; every call reads the clock.
type Service struct {
	db  Database
	now func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a TimeService over db.
func NewService(db Database, opts ...Option) *Service {
	s := &Service{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the current instant from the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}

// Validate returns *domain.InvalidZoneError when zoneID is not recognized.
func (s *Service) Validate(zoneID string) error {
	_, err := s.db.Load(zoneID)
	return err
}

// LocalTime returns the current wall-clock time in zoneID as HH:MM.
func (s *Service) LocalTime(zoneID string) (string, error) {
	loc, err := s.db.Load(zoneID)
	if err != nil {
		return "", err
	}
	return s.now().In(loc).Format(LocalTimeLayout), nil
}

// HourDifference returns how many whole hours zoneB is ahead of zoneA at the
// current instant, normalized into [-12, 12].
//
// The difference is taken from the UTC offsets of both zones, so it equals
// the wall-clock delta including the calendar date. Fractional offsets
// (e.g. +05:45) truncate toward zero, keeping the result antisymmetric.
func (s *Service) HourDifference(zoneA, zoneB string) (int, error) {
	locA, err := s.db.Load(zoneA)
	if err != nil {
		return 0, err
	}
	locB, err := s.db.Load(zoneB)
	if err != nil {
		return 0, err
	}

	now := s.now()
	_, offA := now.In(locA).Zone()
	_, offB := now.In(locB).Zone()

	return NormalizeHours((offB - offA) / 3600), nil
}

// NormalizeHours folds a raw hour difference into [-12, 12]:
// above 12 subtracts 24, below -12 adds 24.
func NormalizeHours(h int) int {
	switch {
	case h > 12:
		return h - 24
	case h < -12:
		return h + 24
	default:
		return h
	}
}

// Zones lists every valid zone identifier, sorted.
func (s *Service) Zones() []string {
	return s.db.Zones()
}

// Search filters the zone list for the selector. See Search.
func (s *Service) Search(query string, limit int) []string {
	return Search(s.db.Zones(), query, limit)
}
