package domain

import "time"

// Link is a persisted pairing of two bubbles with their signed hour
// difference. It holds bubble ids, never bubble copies.
type Link struct {
	ID string `json:"id"`

	// BubbleAID is the bubble selected first, BubbleBID the second.
	BubbleAID string `json:"bubble_a_id"`
	BubbleBID string `json:"bubble_b_id"`

	// TimeDifferenceHours is how many hours B is ahead of A, in [-12, 12],
	// computed at creation.
	TimeDifferenceHours int `json:"time_difference_hours"`

	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a copy safe to hand out of a store.
func (l *Link) Clone() *Link {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}

// Touches reports whether bubbleID is one of the link endpoints.
func (l *Link) Touches(bubbleID string) bool {
	return l.BubbleAID == bubbleID || l.BubbleBID == bubbleID
}

// PairKey returns the order-independent key of the endpoint pair.
func (l *Link) PairKey() string {
	return PairKey(l.BubbleAID, l.BubbleBID)
}

// PairKey returns a key identifying the unordered pair {a, b}.
// PairKey(a, b) == PairKey(b, a).
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// LinkView is a link with both endpoints resolved through the bubble store.
type LinkView struct {
	Link
	BubbleA Bubble `json:"bubble_a"`
	BubbleB Bubble `json:"bubble_b"`
}
