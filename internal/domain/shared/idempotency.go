package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers processed delivery IDs so duplicate webhook
// deliveries can be short-circuited cheaply. It is a fast path only: the
// authoritative duplicate protection is the conditional update guard on the
// order row, which stays correct even when this store loses state.
type IdempotencyStore interface {
	// MarkProcessed marks a delivery as processed with a TTL.
	// Returns true if the delivery was newly marked, false if already seen.
	MarkProcessed(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a delivery has already been processed
	IsProcessed(ctx context.Context, deliveryID string) (bool, error)

	// Close closes the store and releases resources
	Close() error
}
