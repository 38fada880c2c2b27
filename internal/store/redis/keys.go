package redis

const (
	// KeyPrefixBubble is the prefix for bubble keys
	KeyPrefixBubble = "bubbletime:bubble:"
	// KeyPrefixLink is the prefix for link keys
	KeyPrefixLink = "bubbletime:link:"
	// KeyPrefixPair is the prefix for the unordered pair -> link id index
	KeyPrefixPair = "bubbletime:pair:"
	// KeyAllBubbles is the key for the set of all bubble IDs
	KeyAllBubbles = "bubbletime:bubbles:all"
	// KeyAllLinks is the key for the set of all link IDs
	KeyAllLinks = "bubbletime:links:all"
)

// BubbleKey returns the Redis key for a bubble by ID
func BubbleKey(id string) string {
	return KeyPrefixBubble + id
}

// BubbleLinksKey returns the key of the set of link IDs touching a bubble
func BubbleLinksKey(bubbleID string) string {
	return KeyPrefixBubble + bubbleID + ":links"
}

// LinkKey returns the Redis key for a link by ID
func LinkKey(id string) string {
	return KeyPrefixLink + id
}

// PairKey returns the key holding the link ID of an unordered bubble pair
func PairKey(pair string) string {
	return KeyPrefixPair + pair
}
