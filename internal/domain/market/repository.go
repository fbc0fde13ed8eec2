package market

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListingRepository persists listings and bids.
//
// PlaceBid and DecrementQuantity are conditional storage operations: they
// commit only when the guard they carry still holds, and report
// shared.ErrConcurrencyConflict (PlaceBid) or affect zero rows otherwise.
// Request handlers run concurrently with no in-process locks, so these guards
// are the only concurrency primitive.
type ListingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error

	// ListActive returns active listings, newest first
	ListActive(ctx context.Context, limit, offset int) ([]Listing, error)

	// FindExpiredActiveAuctions returns active auction listings whose
	// deadline has elapsed, candidates for conditional closing.
	FindExpiredActiveAuctions(ctx context.Context, now time.Time, limit int) ([]Listing, error)

	// PlaceBid inserts the bid and advances the listing's recorded highest
	// bid in one transaction, conditioned on the highest bid still being
	// prevHighCents (nil = no bids). Returns shared.ErrConcurrencyConflict
	// when another bid won the race; the caller re-reads and re-validates.
	PlaceBid(ctx context.Context, listingID uuid.UUID, prevHighCents *int64, bid *Bid) error

	HighestBid(ctx context.Context, listingID uuid.UUID) (*Bid, error)
	BidsByListing(ctx context.Context, listingID uuid.UUID) ([]Bid, error)

	// DecrementQuantity subtracts qty from the available quantity, flooring
	// at zero, and pauses the listing when it reaches zero.
	DecrementQuantity(ctx context.Context, listingID uuid.UUID, qty int) error
}
