package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidZone is returned for an identifier unknown to the zone database.
	ErrInvalidZone = errors.New("invalid time zone")
	// ErrSelfLink is returned when a link is attempted from a bubble to itself.
	ErrSelfLink = errors.New("cannot link a bubble to itself")
	// ErrDuplicateLink is returned when the pair is already linked.
	ErrDuplicateLink = errors.New("link already exists")
	// ErrUnknownBubble is returned when a link references a nonexistent bubble.
	ErrUnknownBubble = errors.New("unknown bubble")
	// ErrNotFound is returned by remove/update on a missing id.
	ErrNotFound = errors.New("not found")
)

// InvalidZoneError carries the rejected zone identifier.
type InvalidZoneError struct {
	Zone string
	Err  error
}

func (e *InvalidZoneError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid time zone %q: %v", e.Zone, e.Err)
	}
	return fmt.Sprintf("invalid time zone %q", e.Zone)
}

func (e *InvalidZoneError) Is(target error) bool { return target == ErrInvalidZone }
func (e *InvalidZoneError) Unwrap() error        { return e.Err }

// UnknownBubbleError carries the bubble id that did not resolve.
type UnknownBubbleError struct {
	ID string
}

func (e *UnknownBubbleError) Error() string {
	return fmt.Sprintf("unknown bubble %q", e.ID)
}

func (e *UnknownBubbleError) Is(target error) bool { return target == ErrUnknownBubble }
