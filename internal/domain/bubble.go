package domain

import (
	"strings"
	"time"
)

// Bubble represents a named time-zone observation point tracked by the user.
//
// A Bubble is uniquely identified by its ID. Two bubbles may reference
// the same zone.
type Bubble struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the opaque unique identifier assigned at creation.
	ID string `json:"id"`

	// TimeZoneID is the canonical zone identifier.
	// Example: America/Argentina/Buenos_Aires
	TimeZoneID string `json:"time_zone_id"`

	// ─────────────────────────────
	// Presentation
	// ─────────────────────────────

	// Name is the display label. Defaults to DefaultName(TimeZoneID).
	// Example: Buenos Aires
	Name string `json:"name"`

	// Temperature is auxiliary and unused by the core.
	Temperature string `json:"temperature,omitempty"`

	// ─────────────────────────────
	// Derived (recomputed on refresh)
	// ─────────────────────────────

	// LocalTime is the last computed wall-clock time, HH:MM (24h).
	LocalTime string `json:"local_time"`

	// CreatedAt is the creation instant.
	CreatedAt time.Time `json:"created_at"`

	// RefreshedAt is the instant LocalTime was last computed.
	RefreshedAt time.Time `json:"refreshed_at"`
}

// Clone returns a copy safe to hand out of a store.
func (b *Bubble) Clone() *Bubble {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

// DefaultName derives a display label from a zone identifier: the last
// path segment with underscores replaced by spaces.
// Example: "America/Argentina/Buenos_Aires" -> "Buenos Aires"
func DefaultName(zoneID string) string {
	name := zoneID
	if i := strings.LastIndex(zoneID, "/"); i >= 0 {
		name = zoneID[i+1:]
	}
	return strings.ReplaceAll(name, "_", " ")
}
