package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazargo/backend/internal/domain/market"
	"github.com/bazargo/backend/internal/domain/order"
	"github.com/bazargo/backend/internal/domain/shared"
)

// GormListingRepository implements market.ListingRepository using GORM.
// It also implements the auction close storage used by the auction engine:
// the conditional close and the winner order insert commit in one transaction.
type GormListingRepository struct {
	db *gorm.DB
}

// NewGormListingRepository creates a new GormListingRepository
func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

// FindByID finds a listing by its ID
func (r *GormListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*market.Listing, error) {
	var listing market.Listing
	if err := r.db.WithContext(ctx).First(&listing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &listing, nil
}

// Save creates or updates a listing
func (r *GormListingRepository) Save(ctx context.Context, listing *market.Listing) error {
	return r.db.WithContext(ctx).Save(listing).Error
}

// ListActive returns active listings, newest first
func (r *GormListingRepository) ListActive(ctx context.Context, limit, offset int) ([]market.Listing, error) {
	var listings []market.Listing
	err := r.db.WithContext(ctx).
		Where("status = ?", market.ListingStatusActive).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&listings).Error
	if err != nil {
		return nil, err
	}
	return listings, nil
}

// FindExpiredActiveAuctions returns active auctions whose deadline has elapsed
func (r *GormListingRepository) FindExpiredActiveAuctions(ctx context.Context, now time.Time, limit int) ([]market.Listing, error) {
	var listings []market.Listing
	err := r.db.WithContext(ctx).
		Where("type = ? AND status = ? AND auction_closed_at IS NULL AND auction_end_at <= ?",
			market.ListingTypeAuction, market.ListingStatusActive, now).
		Order("auction_end_at asc").
		Limit(limit).
		Find(&listings).Error
	if err != nil {
		return nil, err
	}
	return listings, nil
}

// PlaceBid inserts the bid and advances the listing's recorded highest bid in
// one transaction. The update is conditioned on auction_high_bid_cents still
// holding the value the bid was validated against; losing the race rolls the
// insert back and reports shared.ErrConcurrencyConflict.
func (r *GormListingRepository) PlaceBid(ctx context.Context, listingID uuid.UUID, prevHighCents *int64, bid *market.Bid) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(bid).Error; err != nil {
			return err
		}

		query := tx.Model(&market.Listing{}).
			Where("id = ? AND type = ? AND status = ? AND auction_closed_at IS NULL",
				listingID, market.ListingTypeAuction, market.ListingStatusActive)
		if prevHighCents == nil {
			query = query.Where("auction_high_bid_cents IS NULL")
		} else {
			query = query.Where("auction_high_bid_cents = ?", *prevHighCents)
		}

		result := query.Updates(map[string]interface{}{
			"auction_high_bid_cents": bid.AmountCents,
			"auction_bid_count":      gorm.Expr("auction_bid_count + 1"),
			"updated_at":             time.Now(),
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return nil
	})
}

// HighestBid returns the highest accepted bid for a listing.
// Ties on amount go to the earlier bid.
func (r *GormListingRepository) HighestBid(ctx context.Context, listingID uuid.UUID) (*market.Bid, error) {
	var bid market.Bid
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("amount_cents desc, created_at asc").
		First(&bid).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &bid, nil
}

// BidsByListing returns all bids for a listing, newest first
func (r *GormListingRepository) BidsByListing(ctx context.Context, listingID uuid.UUID) ([]market.Bid, error) {
	var bids []market.Bid
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("created_at desc").
		Find(&bids).Error
	if err != nil {
		return nil, err
	}
	return bids, nil
}

// DecrementQuantity subtracts qty from the available quantity, flooring at
// zero. A listing that reaches zero is paused so it stops selling. Written as
// two conditional updates so it stays portable across postgres and sqlite.
func (r *GormListingRepository) DecrementQuantity(ctx context.Context, listingID uuid.UUID, qty int) error {
	result := r.db.WithContext(ctx).Model(&market.Listing{}).
		Where("id = ? AND quantity_available >= ?", listingID, qty).
		Updates(map[string]interface{}{
			"quantity_available": gorm.Expr("quantity_available - ?", qty),
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// less stock than requested, clamp to zero
		clamp := r.db.WithContext(ctx).Model(&market.Listing{}).
			Where("id = ? AND quantity_available > 0", listingID).
			Updates(map[string]interface{}{
				"quantity_available": 0,
				"updated_at":         time.Now(),
			})
		if clamp.Error != nil {
			return clamp.Error
		}
	}

	return r.db.WithContext(ctx).Model(&market.Listing{}).
		Where("id = ? AND quantity_available = 0 AND status = ?", listingID, market.ListingStatusActive).
		Update("status", market.ListingStatusPaused).Error
}

// CloseWithWinner closes an expired auction and records the winner order in
// one transaction. The close is conditioned on the auction not having been
// closed yet, so of N concurrent closers exactly one creates the order.
// Returns false when another closer already won.
func (r *GormListingRepository) CloseWithWinner(ctx context.Context, listingID uuid.UUID, winnerID uuid.UUID, finalBidCents int64, o *order.Order) (bool, error) {
	performed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Model(&market.Listing{}).
			Where("id = ? AND type = ? AND auction_closed_at IS NULL",
				listingID, market.ListingTypeAuction).
			Updates(map[string]interface{}{
				"auction_closed_at":       now,
				"status":                  market.ListingStatusClosed,
				"auction_winner_user_id":  winnerID,
				"auction_final_bid_cents": finalBidCents,
				"updated_at":              now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil // already closed by a concurrent caller
		}

		if err := tx.Create(o).Error; err != nil {
			return err
		}
		performed = true
		return nil
	})
	return performed, err
}

// CloseWithoutWinner closes an expired auction that received no bids.
// Returns false when another closer already won.
func (r *GormListingRepository) CloseWithoutWinner(ctx context.Context, listingID uuid.UUID) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&market.Listing{}).
		Where("id = ? AND type = ? AND auction_closed_at IS NULL",
			listingID, market.ListingTypeAuction).
		Updates(map[string]interface{}{
			"auction_closed_at": now,
			"status":            market.ListingStatusClosed,
			"updated_at":        now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

var _ market.ListingRepository = (*GormListingRepository)(nil)
