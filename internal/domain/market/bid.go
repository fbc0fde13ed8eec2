package market

import (
	"time"

	"github.com/google/uuid"

	"github.com/bazargo/backend/internal/domain/shared"
)

// Bid is an accepted proxy bid. Rows are append-only: never mutated or
// deleted. AmountCents is the displayed bid (the minimum required at
// acceptance time); MaxBidCents is the bidder's ceiling.
type Bid struct {
	ID          uuid.UUID
	ListingID   uuid.UUID
	BidderID    uuid.UUID
	AmountCents int64
	MaxBidCents int64
	CreatedAt   time.Time
}

// NewBid creates a bid at the given accepted amount
func NewBid(listingID, bidderID uuid.UUID, amountCents, maxBidCents int64) (*Bid, error) {
	if listingID == uuid.Nil || bidderID == uuid.Nil {
		return nil, shared.ErrInvalidInput
	}
	if amountCents <= 0 || maxBidCents < amountCents {
		return nil, shared.ErrInvalidBid
	}
	return &Bid{
		ID:          uuid.New(),
		ListingID:   listingID,
		BidderID:    bidderID,
		AmountCents: amountCents,
		MaxBidCents: maxBidCents,
		CreatedAt:   time.Now(),
	}, nil
}
