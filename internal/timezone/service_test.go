package timezone

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/MrSnakeDoc/bubbletime/internal/domain"
)

// fixedNow is 2026-01-15 12:00 UTC, outside any northern DST window.
var fixedNow = time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)

func newFixedService() *Service {
	return NewService(NewIANA(), WithClock(func() time.Time { return fixedNow }))
}

func TestLocalTime(t *testing.T) {
	svc := newFixedService()

	tests := []struct {
		name     string
		zone     string
		expected string
	}{
		{name: "utc", zone: "Etc/UTC", expected: "12:00"},
		{name: "madrid", zone: "Europe/Madrid", expected: "13:00"},
		{name: "new york", zone: "America/New_York", expected: "07:00"},
		{name: "half hour offset", zone: "Asia/Kolkata", expected: "17:30"},
		{name: "next calendar day", zone: "Pacific/Kiritimati", expected: "02:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.LocalTime(tt.zone)
			if err != nil {
				t.Fatalf("LocalTime(%q) error = %v", tt.zone, err)
			}
			if got != tt.expected {
				t.Errorf("LocalTime(%q) = %q, want %q", tt.zone, got, tt.expected)
			}
		})
	}
}

func TestLocalTimeInvalidZone(t *testing.T) {
	svc := newFixedService()

	for _, zone := range []string{"", "Local", "Mars/Olympus_Mons", "europe/nowhere"} {
		_, err := svc.LocalTime(zone)
		if !errors.Is(err, domain.ErrInvalidZone) {
			t.Errorf("LocalTime(%q) error = %v, want ErrInvalidZone", zone, err)
		}
		var ize *domain.InvalidZoneError
		if errors.As(err, &ize) && ize.Zone != zone {
			t.Errorf("InvalidZoneError.Zone = %q, want %q", ize.Zone, zone)
		}
	}
}

func TestNormalizeHours(t *testing.T) {
	tests := []struct {
		raw      int
		expected int
	}{
		{raw: 0, expected: 0},
		{raw: 12, expected: 12},
		{raw: -12, expected: -12},
		{raw: 13, expected: -11},
		{raw: 14, expected: -10},
		{raw: -14, expected: 10},
		{raw: 26, expected: 2},
		{raw: -26, expected: -2},
	}

	for _, tt := range tests {
		if got := NormalizeHours(tt.raw); got != tt.expected {
			t.Errorf("NormalizeHours(%d) = %d, want %d", tt.raw, got, tt.expected)
		}
	}
}

func TestHourDifference(t *testing.T) {
	svc := newFixedService()

	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{name: "same zone", a: "Europe/Madrid", b: "Europe/Madrid", expected: 0},
		{name: "b ahead", a: "America/New_York", b: "Europe/Madrid", expected: 6},
		{name: "b behind", a: "Europe/Madrid", b: "America/New_York", expected: -6},
		{name: "fourteen hours folds to minus ten", a: "Etc/UTC", b: "Pacific/Kiritimati", expected: -10},
		{name: "half hour truncates", a: "Etc/UTC", b: "Asia/Kolkata", expected: 5},
		{name: "quarter hour truncates", a: "Etc/UTC", b: "Asia/Kathmandu", expected: 5},
		{name: "widest spread", a: "Pacific/Pago_Pago", b: "Pacific/Kiritimati", expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.HourDifference(tt.a, tt.b)
			if err != nil {
				t.Fatalf("HourDifference() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("HourDifference(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestHourDifferenceAcrossMidnight(t *testing.T) {
	// 23:00 in London is 01:00 the next day in Moscow (+3 vs +0 in winter);
	// a time-of-day delta would report -22.
	late := time.Date(2026, time.January, 15, 23, 0, 0, 0, time.UTC)
	svc := NewService(NewIANA(), WithClock(func() time.Time { return late }))

	got, err := svc.HourDifference("Europe/London", "Europe/Moscow")
	if err != nil {
		t.Fatalf("HourDifference() error = %v", err)
	}
	if got != 3 {
		t.Errorf("HourDifference() = %d, want 3", got)
	}
}

func TestHourDifferenceAntisymmetricAndBounded(t *testing.T) {
	svc := newFixedService()
	zones := []string{
		"Etc/UTC", "Europe/Madrid", "America/New_York", "America/St_Johns",
		"Asia/Kolkata", "Asia/Kathmandu", "Asia/Tokyo", "Australia/Adelaide",
		"Pacific/Kiritimati", "Pacific/Pago_Pago", "Pacific/Chatham",
		"America/Argentina/Buenos_Aires", "Pacific/Honolulu",
	}

	for _, a := range zones {
		for _, b := range zones {
			ab, err := svc.HourDifference(a, b)
			if err != nil {
				t.Fatalf("HourDifference(%q, %q) error = %v", a, b, err)
			}
			ba, err := svc.HourDifference(b, a)
			if err != nil {
				t.Fatalf("HourDifference(%q, %q) error = %v", b, a, err)
			}
			if ab != -ba {
				t.Errorf("HourDifference(%q, %q) = %d but reverse = %d", a, b, ab, ba)
			}
			if ab < -12 || ab > 12 {
				t.Errorf("HourDifference(%q, %q) = %d out of [-12, 12]", a, b, ab)
			}
		}
	}
}

func TestHourDifferenceInvalidZone(t *testing.T) {
	svc := newFixedService()

	if _, err := svc.HourDifference("Europe/Madrid", "Nowhere/Land"); !errors.Is(err, domain.ErrInvalidZone) {
		t.Errorf("HourDifference() error = %v, want ErrInvalidZone", err)
	}
	if _, err := svc.HourDifference("Nowhere/Land", "Europe/Madrid"); !errors.Is(err, domain.ErrInvalidZone) {
		t.Errorf("HourDifference() error = %v, want ErrInvalidZone", err)
	}
}

func TestZonesAreValidAndSorted(t *testing.T) {
	db := NewIANA()
	zones := db.Zones()
	if len(zones) == 0 {
		t.Fatal("Zones() returned no zones")
	}
	if !sort.StringsAreSorted(zones) {
		t.Error("Zones() should be sorted")
	}

	found := false
	for _, z := range zones {
		if z == "Europe/Madrid" {
			found = true
		}
		if _, err := db.Load(z); err != nil {
			t.Errorf("listed zone %q does not load: %v", z, err)
		}
	}
	if !found {
		t.Error("Zones() should contain Europe/Madrid")
	}

	// Mutating the result must not affect the database.
	zones[0] = "Broken/Zone"
	if db.Zones()[0] == "Broken/Zone" {
		t.Error("Zones() should return a copy")
	}
}

func TestBuiltinZonesFallback(t *testing.T) {
	db := NewIANA()
	db.dirs = []string{t.TempDir()}

	zones := db.Zones()
	if len(zones) != len(builtinZones) {
		t.Errorf("Zones() fallback = %d zones, want %d", len(zones), len(builtinZones))
	}
}

func TestLoadAcceptsExactlyListedZones(t *testing.T) {
	hosted := NewIANA()
	fallback := NewIANA()
	fallback.dirs = []string{t.TempDir()}

	for name, db := range map[string]*IANA{"host": hosted, "fallback": fallback} {
		t.Run(name, func(t *testing.T) {
			svc := NewService(db, WithClock(func() time.Time { return fixedNow }))

			listed := make(map[string]bool)
			for _, z := range db.Zones() {
				listed[z] = true
				if _, err := svc.LocalTime(z); err != nil {
					t.Errorf("LocalTime(%q) error = %v for a listed zone", z, err)
				}
			}

			for _, z := range []string{
				"", "Local", "posixrules", "localtime",
				"posix/Europe/Madrid", "right/Europe/Madrid", "zone.tab",
				"Nowhere/Land",
			} {
				_, err := svc.LocalTime(z)
				if listed[z] {
					t.Errorf("Zones() lists %q", z)
				}
				if !errors.Is(err, domain.ErrInvalidZone) {
					t.Errorf("LocalTime(%q) error = %v, want ErrInvalidZone", z, err)
				}
			}
		})
	}
}

func TestBuiltinZonesCoverEmbeddedAliases(t *testing.T) {
	db := NewIANA()
	db.dirs = []string{t.TempDir()}

	for _, z := range []string{"Europe/Dublin", "Asia/Calcutta", "US/Eastern", "Etc/GMT+5", "UTC"} {
		if _, err := db.Load(z); err != nil {
			t.Errorf("Load(%q) on fallback database error = %v", z, err)
		}
	}
}
