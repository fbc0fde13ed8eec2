package auction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bazargo/backend/internal/domain/identity"
	"github.com/bazargo/backend/internal/domain/market"
	"github.com/bazargo/backend/internal/domain/notification"
	"github.com/bazargo/backend/internal/domain/order"
	"github.com/bazargo/backend/internal/domain/shared"
)

// placeBidRetries bounds the re-read/re-validate loop after a CAS miss
const placeBidRetries = 3

// defaultSweepBatch caps one expired-auction sweep when no batch is configured
const defaultSweepBatch = 100

// Closer is the auction close storage: the conditional close and the winner
// order insert commit atomically. false means another closer already won.
type Closer interface {
	CloseWithWinner(ctx context.Context, listingID uuid.UUID, winnerID uuid.UUID, finalBidCents int64, o *order.Order) (bool, error)
	CloseWithoutWinner(ctx context.Context, listingID uuid.UUID) (bool, error)
}

// AuctionService runs the proxy-bid auction engine: bid acceptance and the
// exactly-once close that turns the highest bid into an order. There is no
// background ownership of an auction; any caller may attempt a close and the
// storage guard picks the single winner.
type AuctionService struct {
	listings      market.ListingRepository
	closer        Closer
	profiles      identity.ProfileRepository
	notifier      notification.Sink
	feePercent    decimal.Decimal
	paymentWindow time.Duration
	sweepBatch    int
	logger        *zap.Logger
}

// NewAuctionService creates a new AuctionService
func NewAuctionService(
	listings market.ListingRepository,
	closer Closer,
	profiles identity.ProfileRepository,
	notifier notification.Sink,
	feePercent decimal.Decimal,
	paymentWindow time.Duration,
	sweepBatch int,
	logger *zap.Logger,
) *AuctionService {
	if sweepBatch <= 0 {
		sweepBatch = defaultSweepBatch
	}
	return &AuctionService{
		listings:      listings,
		closer:        closer,
		profiles:      profiles,
		notifier:      notifier,
		feePercent:    feePercent,
		paymentWindow: paymentWindow,
		sweepBatch:    sweepBatch,
		logger:        logger,
	}
}

// PlaceProxyBid validates and accepts a bid with the given ceiling. The
// accepted amount is the minimum next bid, never the ceiling (proxy rule).
// A CAS miss means another bid landed between read and write; the listing is
// re-read and the bid re-validated against the new state, a bounded number of
// times.
func (s *AuctionService) PlaceProxyBid(ctx context.Context, listingID, bidderID uuid.UUID, maxBidCents int64) (*market.Bid, error) {
	now := time.Now()

	for attempt := 0; attempt < placeBidRetries; attempt++ {
		listing, err := s.listings.FindByID(ctx, listingID)
		if err != nil {
			return nil, err
		}

		if err := listing.ValidateBid(bidderID, maxBidCents, now); err != nil {
			return nil, err
		}

		bid, err := market.NewBid(listingID, bidderID, listing.MinimumNextBidCents(), maxBidCents)
		if err != nil {
			return nil, err
		}

		err = s.listings.PlaceBid(ctx, listingID, listing.AuctionHighBidCents, bid)
		if err == nil {
			s.logger.Info("bid accepted",
				zap.String("listing_id", listingID.String()),
				zap.String("bidder_id", bidderID.String()),
				zap.Int64("amount_cents", bid.AmountCents),
			)
			return bid, nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, err
		}
		// lost the race, loop re-reads the listing
	}

	return nil, shared.ErrConcurrencyConflict
}

// CloseExpiredAuctions closes every active auction whose deadline has
// elapsed. Safe under N concurrent callers: each close is guarded, losers
// skip. Returns the number of auctions this call actually closed.
func (s *AuctionService) CloseExpiredAuctions(ctx context.Context) (int, error) {
	expired, err := s.listings.FindExpiredActiveAuctions(ctx, time.Now(), s.sweepBatch)
	if err != nil {
		return 0, err
	}

	closed := 0
	for i := range expired {
		performed, err := s.close(ctx, &expired[i])
		if err != nil {
			s.logger.Error("failed to close auction",
				zap.String("listing_id", expired[i].ID.String()),
				zap.Error(err),
			)
			continue
		}
		if performed {
			closed++
		}
	}
	return closed, nil
}

// CloseAuctionByID closes one auction early, on behalf of its seller or an
// admin. Returns shared.ErrGuardSkip when the auction is already closed.
func (s *AuctionService) CloseAuctionByID(ctx context.Context, listingID, requesterID uuid.UUID) error {
	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return err
	}
	if !listing.IsAuction() {
		return shared.NewDomainError("NOT_AUCTION", "Listing is not an auction")
	}
	if listing.IsClosed() {
		return shared.ErrGuardSkip
	}

	if listing.SellerID != requesterID {
		profile, err := s.profiles.FindByUserID(ctx, requesterID)
		if err != nil || !profile.IsAdmin {
			return shared.ErrForbidden
		}
	}

	performed, err := s.close(ctx, listing)
	if err != nil {
		return err
	}
	if !performed {
		return shared.ErrGuardSkip
	}
	return nil
}

// close resolves the winner and performs the guarded close. The winner order
// is created in the same transaction as the close, so of N racing closers
// exactly one produces an order.
func (s *AuctionService) close(ctx context.Context, listing *market.Listing) (bool, error) {
	highest, err := s.listings.HighestBid(ctx, listing.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return s.closer.CloseWithoutWinner(ctx, listing.ID)
		}
		return false, err
	}

	winnerOrder, err := order.NewOrder(
		listing.ID, highest.BidderID, listing.SellerID,
		1, highest.AmountCents, s.feePercent, order.SourceAuction,
	)
	if err != nil {
		return false, err
	}
	deadline := time.Now().Add(s.paymentWindow)
	winnerOrder.PaymentDeadlineAt = &deadline

	performed, err := s.closer.CloseWithWinner(ctx, listing.ID, highest.BidderID, highest.AmountCents, winnerOrder)
	if err != nil {
		return false, err
	}
	if !performed {
		return false, nil
	}

	s.logger.Info("auction closed",
		zap.String("listing_id", listing.ID.String()),
		zap.String("winner_id", highest.BidderID.String()),
		zap.Int64("final_bid_cents", highest.AmountCents),
	)

	s.notifier.Notify(ctx, notification.New(highest.BidderID, notification.TypeAuction,
		"You won the auction",
		fmt.Sprintf("You won %q. Complete the payment before the deadline.", listing.Title),
		"/orders/"+winnerOrder.ID.String(),
	))
	s.notifier.Notify(ctx, notification.New(listing.SellerID, notification.TypeAuction,
		"Your auction has ended",
		fmt.Sprintf("%q sold for the highest bid.", listing.Title),
		"/orders/"+winnerOrder.ID.String(),
	))

	return true, nil
}
