package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bazargo/backend/internal/domain/order"
	"github.com/bazargo/backend/internal/domain/shared"
	"github.com/bazargo/backend/internal/interfaces/http/dto"
	"github.com/bazargo/backend/internal/interfaces/http/middleware"
)

// LabelReader is the slice of the label saga the HTTP layer uses
type LabelReader interface {
	ReleaseLabel(ctx context.Context, orderID uuid.UUID) error
	RefreshTracking(ctx context.Context, orderID uuid.UUID) error
}

// Canceller is the slice of the cancellation workflow the HTTP layer uses
type Canceller interface {
	RequestBuyerCancellation(ctx context.Context, orderID, buyerID uuid.UUID, reason string) error
	CancelUnpaidAuctionOrder(ctx context.Context, orderID, sellerID uuid.UUID) error
}

// OrderHandler serves the order read model and the order-scoped actions:
// cancellation requests, unpaid-auction cancellation and the shipping label
// release retry.
type OrderHandler struct {
	BaseHandler
	orders         order.Repository
	labels         LabelReader
	cancellations  Canceller
	payoutHoldDays int
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(
	orders order.Repository,
	labels LabelReader,
	cancellations Canceller,
	payoutHoldDays int,
	logger *zap.Logger,
) *OrderHandler {
	return &OrderHandler{
		BaseHandler:    NewBaseHandler(logger),
		orders:         orders,
		labels:         labels,
		cancellations:  cancellations,
		payoutHoldDays: payoutHoldDays,
	}
}

// CancelRequestBody carries the buyer's cancellation reason
type CancelRequestBody struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// OrderResponse is the read model for an order
type OrderResponse struct {
	ID       string `json:"id"`
	ListingID string `json:"listing_id"`
	BuyerID  string `json:"buyer_id"`
	SellerID string `json:"seller_id"`
	Quantity int    `json:"quantity"`
	Source   string `json:"source"`

	AmountCents int64 `json:"amount_cents"`
	FeeCents    int64 `json:"fee_cents"`

	Status            string     `json:"status"`
	PaymentDeadlineAt *time.Time `json:"payment_deadline_at,omitempty"`
	ApprovedAt        *time.Time `json:"approved_at,omitempty"`

	ShippingStatus         string     `json:"shipping_status"`
	ShippingTracking       string     `json:"shipping_tracking,omitempty"`
	ShippingPrintURL       string     `json:"shipping_print_url,omitempty"`
	ShippingPostDeadlineAt *time.Time `json:"shipping_post_deadline_at,omitempty"`
	ShippingLabelError     string     `json:"shipping_label_error,omitempty"`

	DeliveredAt             *time.Time `json:"delivered_at,omitempty"`
	BuyerApprovalDeadlineAt *time.Time `json:"buyer_approval_deadline_at,omitempty"`

	PayoutStatus    string     `json:"payout_status"`
	PayoutReleaseAt *time.Time `json:"payout_release_at,omitempty"`

	CancelStatus      string     `json:"cancel_status"`
	CancelReason      string     `json:"cancel_reason,omitempty"`
	CancelRequestedAt *time.Time `json:"cancel_requested_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (h *OrderHandler) toOrderResponse(o *order.Order) OrderResponse {
	return OrderResponse{
		ID:        o.ID.String(),
		ListingID: o.ListingID.String(),
		BuyerID:   o.BuyerID.String(),
		SellerID:  o.SellerID.String(),
		Quantity:  o.Quantity,
		Source:    string(o.Source),

		AmountCents: o.AmountCents,
		FeeCents:    o.FeeCents,

		Status:            string(o.Status),
		PaymentDeadlineAt: o.PaymentDeadlineAt,
		ApprovedAt:        o.ApprovedAt,

		ShippingStatus:         string(o.ShippingStatus),
		ShippingTracking:       o.ShippingTracking,
		ShippingPrintURL:       o.ShippingPrintURL,
		ShippingPostDeadlineAt: o.ShippingPostDeadlineAt,
		ShippingLabelError:     o.SuperfreteLastError,

		DeliveredAt:             o.DeliveredAt,
		BuyerApprovalDeadlineAt: o.BuyerApprovalDeadlineAt,

		PayoutStatus:    string(o.PayoutStatus),
		PayoutReleaseAt: o.PayoutReleaseTime(h.payoutHoldDays),

		CancelStatus:      string(o.CancelStatus),
		CancelReason:      o.CancelReason,
		CancelRequestedAt: o.CancelRequestedAt,

		CreatedAt: o.CreatedAt,
	}
}

// List returns the authenticated user's purchases
// GET /api/v1/orders
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.orders.FindByBuyer(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, h.toOrderResponse(&orders[i]))
	}
	h.Success(c, items)
}

// Get returns one order, visible to its buyer and seller only. Tracking is
// refreshed from the shipping provider best-effort before the read, so the
// response reflects a posted or delivered parcel without waiting for a sweep.
// GET /api/v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	o, ok := h.loadOwnOrder(c)
	if !ok {
		return
	}

	if o.HasLabel() && o.ShippingStatus != order.ShippingDelivered && o.ShippingStatus != order.ShippingCancelled {
		if err := h.labels.RefreshTracking(c.Request.Context(), o.ID); err != nil {
			h.logger.Warn("tracking refresh failed",
				zap.String("order_id", o.ID.String()),
				zap.Error(err),
			)
		} else if refreshed, err := h.orders.FindByID(c.Request.Context(), o.ID); err == nil {
			o = refreshed
		}
	}

	h.Success(c, h.toOrderResponse(o))
}

// RequestCancellation opens a buyer cancellation request
// POST /api/v1/orders/:id/cancel-request
func (h *OrderHandler) RequestCancellation(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, dto.ErrCodeInvalidInput, "Invalid order ID")
		return
	}
	var body CancelRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, dto.ErrCodeInvalidJSON, "Invalid request body: "+err.Error())
		return
	}

	err := h.cancellations.RequestBuyerCancellation(c.Request.Context(),
		uuid.MustParse(uri.ID), middleware.GetUserID(c), body.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"requested": true})
}

// CancelUnpaid cancels an auction order whose winner never paid
// POST /api/v1/orders/:id/cancel-unpaid
func (h *OrderHandler) CancelUnpaid(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, dto.ErrCodeInvalidInput, "Invalid order ID")
		return
	}

	err := h.cancellations.CancelUnpaidAuctionOrder(c.Request.Context(),
		uuid.MustParse(uri.ID), middleware.GetUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"cancelled": true})
}

// RetryLabelRelease re-runs the label release for the seller, typically after
// topping up the shipping provider balance.
// POST /api/v1/orders/:id/label/release
func (h *OrderHandler) RetryLabelRelease(c *gin.Context) {
	o, ok := h.loadOwnOrder(c)
	if !ok {
		return
	}
	if o.SellerID != middleware.GetUserID(c) {
		h.HandleError(c, shared.ErrForbidden)
		return
	}

	if err := h.labels.ReleaseLabel(c.Request.Context(), o.ID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"released": true})
}

// loadOwnOrder binds the id, loads the order and enforces that the caller is
// its buyer or seller. Writes the error response itself when it returns false.
func (h *OrderHandler) loadOwnOrder(c *gin.Context) (*order.Order, bool) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, dto.ErrCodeInvalidInput, "Invalid order ID")
		return nil, false
	}

	o, err := h.orders.FindByID(c.Request.Context(), uuid.MustParse(uri.ID))
	if err != nil {
		h.HandleError(c, err)
		return nil, false
	}

	userID := middleware.GetUserID(c)
	if o.BuyerID != userID && o.SellerID != userID {
		h.HandleError(c, shared.ErrForbidden)
		return nil, false
	}
	return o, true
}
