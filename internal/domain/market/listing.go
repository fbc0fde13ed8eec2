package market

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bazargo/backend/internal/domain/shared"
)

// ListingType distinguishes fixed-price listings from proxy-bid auctions
type ListingType string

const (
	ListingTypeNow     ListingType = "now"
	ListingTypeAuction ListingType = "auction"
)

// ListingStatus represents the publication status of a listing
type ListingStatus string

const (
	ListingStatusActive ListingStatus = "active"
	ListingStatusPaused ListingStatus = "paused"
	ListingStatusClosed ListingStatus = "closed"
)

// IsValid checks if the status is a valid ListingStatus
func (s ListingStatus) IsValid() bool {
	switch s {
	case ListingStatusActive, ListingStatusPaused, ListingStatusClosed:
		return true
	}
	return false
}

// PackageDimensions describes the parcel used for shipping label quotes
type PackageDimensions struct {
	WeightGrams int
	HeightCm    int
	WidthCm     int
	LengthCm    int
}

// Listing is a seller's offer. Fixed-price listings sell immediately at
// PriceCents; auction listings collect bids until AuctionEndAt and are closed
// by the auction engine, which records the winner exactly once.
//
// AuctionHighBidCents mirrors the current highest accepted bid and is the
// compare-and-set anchor for concurrent bid acceptance: a bid insert only
// commits together with an update of this column conditioned on the value the
// bidder validated against.
type Listing struct {
	shared.BaseEntity
	SellerID          uuid.UUID
	Title             string
	PriceCents        int64
	QuantityAvailable int
	Type              ListingType
	Status            ListingStatus
	ShippingEnabled   bool
	Package           PackageDimensions `gorm:"embedded;embeddedPrefix:package_"`

	AuctionEndAt            *time.Time
	AuctionIncrementPercent decimal.Decimal `gorm:"type:numeric(6,2)"`
	AuctionClosedAt         *time.Time
	AuctionWinnerUserID     *uuid.UUID
	AuctionFinalBidCents    *int64
	AuctionHighBidCents     *int64
	AuctionBidCount         int
}

// NewListing creates a fixed-price listing
func NewListing(sellerID uuid.UUID, title string, priceCents int64, quantity int) (*Listing, error) {
	if sellerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SELLER", "Seller ID cannot be empty")
	}
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Title cannot be empty")
	}
	if priceCents <= 0 {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price must be positive")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	return &Listing{
		BaseEntity:        shared.NewBaseEntity(),
		SellerID:          sellerID,
		Title:             title,
		PriceCents:        priceCents,
		QuantityAvailable: quantity,
		Type:              ListingTypeNow,
		Status:            ListingStatusActive,
	}, nil
}

// NewAuctionListing creates an auction listing with a starting price,
// deadline and minimum-increment percentage
func NewAuctionListing(sellerID uuid.UUID, title string, startPriceCents int64, endAt time.Time, incrementPercent decimal.Decimal) (*Listing, error) {
	l, err := NewListing(sellerID, title, startPriceCents, 1)
	if err != nil {
		return nil, err
	}
	if !endAt.After(time.Now()) {
		return nil, shared.NewDomainError("INVALID_DEADLINE", "Auction deadline must be in the future")
	}
	if incrementPercent.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INCREMENT", "Increment percent cannot be negative")
	}

	l.Type = ListingTypeAuction
	l.AuctionEndAt = &endAt
	l.AuctionIncrementPercent = incrementPercent
	return l, nil
}

// IsAuction returns true for auction-typed listings
func (l *Listing) IsAuction() bool {
	return l.Type == ListingTypeAuction
}

// IsClosed returns true once the auction has been closed
func (l *Listing) IsClosed() bool {
	return l.AuctionClosedAt != nil || l.Status == ListingStatusClosed
}

// IsPastDeadline reports whether the auction deadline has elapsed
func (l *Listing) IsPastDeadline(now time.Time) bool {
	return l.AuctionEndAt != nil && !now.Before(*l.AuctionEndAt)
}

// MinimumNextBidCents computes the minimum acceptable bid: the current
// highest bid raised by the increment percentage (rounded up), or the start
// price when no bids exist yet.
func (l *Listing) MinimumNextBidCents() int64 {
	if l.AuctionHighBidCents == nil {
		return l.PriceCents
	}
	high := decimal.NewFromInt(*l.AuctionHighBidCents)
	factor := decimal.NewFromInt(100).Add(l.AuctionIncrementPercent).Div(decimal.NewFromInt(100))
	return high.Mul(factor).Ceil().IntPart()
}

// ValidateBid checks that a proxy bid with the given ceiling is acceptable
// right now. The accepted amount is the minimum next bid; the ceiling only
// has to cover it.
func (l *Listing) ValidateBid(bidderID uuid.UUID, maxBidCents int64, now time.Time) error {
	if !l.IsAuction() {
		return shared.NewDomainError("NOT_AUCTION", "Listing does not accept bids")
	}
	if l.Status != ListingStatusActive || l.IsClosed() {
		return shared.NewDomainError("AUCTION_CLOSED", "Auction is not accepting bids")
	}
	if l.IsPastDeadline(now) {
		return shared.NewDomainError("AUCTION_ENDED", "Auction deadline has passed")
	}
	if bidderID == l.SellerID {
		return shared.NewDomainError("SELF_BID", "Sellers cannot bid on their own listing")
	}
	if maxBidCents < l.MinimumNextBidCents() {
		return shared.ErrInvalidBid
	}
	return nil
}
