package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bazargo/backend/internal/domain/market"
	"github.com/bazargo/backend/internal/interfaces/http/dto"
	"github.com/bazargo/backend/internal/interfaces/http/middleware"
)

const defaultPageSize = 20

// AuctionEngine is the slice of the auction service the HTTP layer uses
type AuctionEngine interface {
	PlaceProxyBid(ctx context.Context, listingID, bidderID uuid.UUID, maxBidCents int64) (*market.Bid, error)
	CloseExpiredAuctions(ctx context.Context) (int, error)
	CloseAuctionByID(ctx context.Context, listingID, requesterID uuid.UUID) error
}

// ListingHandler serves listing browse/create and the auction bid/close
// endpoints. Reads double as the lazy close trigger: before answering, the
// handler sweeps expired auctions so a browse after the deadline never shows
// a stale open auction. The sweep is guarded storage-side, so concurrent
// readers are harmless.
type ListingHandler struct {
	BaseHandler
	listings market.ListingRepository
	auctions AuctionEngine
}

// NewListingHandler creates a new ListingHandler
func NewListingHandler(listings market.ListingRepository, auctions AuctionEngine, logger *zap.Logger) *ListingHandler {
	return &ListingHandler{
		BaseHandler: NewBaseHandler(logger),
		listings:    listings,
		auctions:    auctions,
	}
}

// CreateListingRequest is the payload for creating a listing
type CreateListingRequest struct {
	Title            string     `json:"title" binding:"required,max=200"`
	Type             string     `json:"type" binding:"required,oneof=now auction"`
	PriceCents       int64      `json:"price_cents" binding:"required,gt=0"`
	Quantity         int        `json:"quantity" binding:"omitempty,gt=0"`
	AuctionEndAt     *time.Time `json:"auction_end_at"`
	IncrementPercent float64    `json:"increment_percent" binding:"omitempty,gte=0"`
	ShippingEnabled  bool       `json:"shipping_enabled"`
	Package          *struct {
		WeightGrams int `json:"weight_grams" binding:"required,gt=0"`
		HeightCm    int `json:"height_cm" binding:"required,gt=0"`
		WidthCm     int `json:"width_cm" binding:"required,gt=0"`
		LengthCm    int `json:"length_cm" binding:"required,gt=0"`
	} `json:"package"`
}

// PlaceBidRequest carries the bidder's ceiling; the accepted amount is
// computed server-side by the proxy rule.
type PlaceBidRequest struct {
	MaxBidCents int64 `json:"max_bid_cents" binding:"required,gt=0"`
}

// ListingResponse is the read model for a listing
type ListingResponse struct {
	ID                  string     `json:"id"`
	SellerID            string     `json:"seller_id"`
	Title               string     `json:"title"`
	Type                string     `json:"type"`
	Status              string     `json:"status"`
	PriceCents          int64      `json:"price_cents"`
	QuantityAvailable   int        `json:"quantity_available"`
	ShippingEnabled     bool       `json:"shipping_enabled"`
	AuctionEndAt        *time.Time `json:"auction_end_at,omitempty"`
	AuctionClosedAt     *time.Time `json:"auction_closed_at,omitempty"`
	AuctionBidCount     int        `json:"auction_bid_count,omitempty"`
	HighBidCents        *int64     `json:"high_bid_cents,omitempty"`
	MinimumNextBidCents *int64     `json:"minimum_next_bid_cents,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// BidResponse is the read model for an accepted bid
type BidResponse struct {
	ID          string    `json:"id"`
	ListingID   string    `json:"listing_id"`
	BidderID    string    `json:"bidder_id"`
	AmountCents int64     `json:"amount_cents"`
	CreatedAt   time.Time `json:"created_at"`
}

func toListingResponse(l *market.Listing) ListingResponse {
	resp := ListingResponse{
		ID:                l.ID.String(),
		SellerID:          l.SellerID.String(),
		Title:             l.Title,
		Type:              string(l.Type),
		Status:            string(l.Status),
		PriceCents:        l.PriceCents,
		QuantityAvailable: l.QuantityAvailable,
		ShippingEnabled:   l.ShippingEnabled,
		AuctionEndAt:      l.AuctionEndAt,
		AuctionClosedAt:   l.AuctionClosedAt,
		AuctionBidCount:   l.AuctionBidCount,
		HighBidCents:      l.AuctionHighBidCents,
		CreatedAt:         l.CreatedAt,
	}
	if l.IsAuction() && !l.IsClosed() {
		min := l.MinimumNextBidCents()
		resp.MinimumNextBidCents = &min
	}
	return resp
}

// sweepExpired opportunistically closes expired auctions before a read.
// Failures are logged and never block the read path.
func (h *ListingHandler) sweepExpired(c *gin.Context) {
	if _, err := h.auctions.CloseExpiredAuctions(c.Request.Context()); err != nil {
		h.logger.Warn("lazy auction sweep failed", zap.Error(err))
	}
}

// List returns active listings, newest first
// GET /api/v1/listings
func (h *ListingHandler) List(c *gin.Context) {
	h.sweepExpired(c)

	var query struct {
		Limit  int `form:"limit" binding:"omitempty,gt=0,lte=100"`
		Offset int `form:"offset" binding:"omitempty,gte=0"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, dto.ErrCodeInvalidInput, "Invalid pagination parameters")
		return
	}
	if query.Limit == 0 {
		query.Limit = defaultPageSize
	}

	listings, err := h.listings.ListActive(c.Request.Context(), query.Limit, query.Offset)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]ListingResponse, 0, len(listings))
	for i := range listings {
		items = append(items, toListingResponse(&listings[i]))
	}
	h.Success(c, items)
}

// Get returns a single listing
// GET /api/v1/listings/:id
func (h *ListingHandler) Get(c *gin.Context) {
	h.sweepExpired(c)

	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, dto.ErrCodeInvalidInput, "Invalid listing ID")
		return
	}
	id := uuid.MustParse(req.ID)

	listing, err := h.listings.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toListingResponse(listing))
}

// Create publishes a new listing owned by the authenticated user
// POST /api/v1/listings
func (h *ListingHandler) Create(c *gin.Context) {
	var req CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, dto.ErrCodeInvalidJSON, "Invalid request body: "+err.Error())
		return
	}
	sellerID := middleware.GetUserID(c)

	var listing *market.Listing
	var err error
	switch req.Type {
	case string(market.ListingTypeAuction):
		if req.AuctionEndAt == nil {
			h.BadRequest(c, dto.ErrCodeInvalidInput, "auction_end_at is required for auction listings")
			return
		}
		listing, err = market.NewAuctionListing(sellerID, req.Title, req.PriceCents,
			*req.AuctionEndAt, decimal.NewFromFloat(req.IncrementPercent))
	default:
		quantity := req.Quantity
		if quantity == 0 {
			quantity = 1
		}
		listing, err = market.NewListing(sellerID, req.Title, req.PriceCents, quantity)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	listing.ShippingEnabled = req.ShippingEnabled
	if req.Package != nil {
		listing.Package = market.PackageDimensions{
			WeightGrams: req.Package.WeightGrams,
			HeightCm:    req.Package.HeightCm,
			WidthCm:     req.Package.WidthCm,
			LengthCm:    req.Package.LengthCm,
		}
	}

	if err := h.listings.Save(c.Request.Context(), listing); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toListingResponse(listing))
}

// PlaceBid accepts a proxy bid on an auction listing
// POST /api/v1/listings/:id/bids
func (h *ListingHandler) PlaceBid(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, dto.ErrCodeInvalidInput, "Invalid listing ID")
		return
	}
	var req PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, dto.ErrCodeInvalidJSON, "Invalid request body: "+err.Error())
		return
	}

	bid, err := h.auctions.PlaceProxyBid(c.Request.Context(),
		uuid.MustParse(uri.ID), middleware.GetUserID(c), req.MaxBidCents)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, BidResponse{
		ID:          bid.ID.String(),
		ListingID:   bid.ListingID.String(),
		BidderID:    bid.BidderID.String(),
		AmountCents: bid.AmountCents,
		CreatedAt:   bid.CreatedAt,
	})
}

// ListBids returns the bid history of a listing, newest first. Ceilings are
// never exposed; only the accepted amounts are.
// GET /api/v1/listings/:id/bids
func (h *ListingHandler) ListBids(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, dto.ErrCodeInvalidInput, "Invalid listing ID")
		return
	}

	bids, err := h.listings.BidsByListing(c.Request.Context(), uuid.MustParse(uri.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]BidResponse, 0, len(bids))
	for i := range bids {
		items = append(items, BidResponse{
			ID:          bids[i].ID.String(),
			ListingID:   bids[i].ListingID.String(),
			BidderID:    bids[i].BidderID.String(),
			AmountCents: bids[i].AmountCents,
			CreatedAt:   bids[i].CreatedAt,
		})
	}
	h.Success(c, items)
}

// Close ends an auction early on behalf of its seller or an admin
// POST /api/v1/listings/:id/close
func (h *ListingHandler) Close(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, dto.ErrCodeInvalidInput, "Invalid listing ID")
		return
	}

	err := h.auctions.CloseAuctionByID(c.Request.Context(), uuid.MustParse(uri.ID), middleware.GetUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"closed": true})
}
