package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bazargo/backend/internal/application/payment"
	"github.com/bazargo/backend/internal/domain/order"
	"github.com/bazargo/backend/internal/interfaces/http/dto"
	"github.com/bazargo/backend/internal/interfaces/http/middleware"
)

// CheckoutCreator is the slice of the checkout service the HTTP layer uses
type CheckoutCreator interface {
	CreateBuyNowOrder(ctx context.Context, listingID, buyerID uuid.UUID, quantity int) (*order.Order, error)
	CreateOrderPreference(ctx context.Context, orderID, buyerID uuid.UUID) (*order.Preference, error)
	CreateCartCheckout(ctx context.Context, buyerID uuid.UUID, items []payment.CartItem) (*order.CartCheckout, *order.Preference, error)
}

// PaymentRechecker re-verifies a payment by id, outside a webhook delivery
type PaymentRechecker interface {
	ProcessNotification(ctx context.Context, paymentID, deliveryID, rawPayload string) error
}

// CheckoutHandler serves the purchase entry points: buy-now orders, cart
// checkout and the payment-return recheck.
type CheckoutHandler struct {
	BaseHandler
	checkout   CheckoutCreator
	reconciler PaymentRechecker
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(checkout CheckoutCreator, reconciler PaymentRechecker, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		BaseHandler: NewBaseHandler(logger),
		checkout:    checkout,
		reconciler:  reconciler,
	}
}

// BuyNowRequest is the payload for a fixed-price purchase
type BuyNowRequest struct {
	ListingID string `json:"listing_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"omitempty,gt=0"`
}

// CartCheckoutRequest groups multiple listing purchases into one payment
type CartCheckoutRequest struct {
	Items []struct {
		ListingID string `json:"listing_id" binding:"required,uuid"`
		Quantity  int    `json:"quantity" binding:"omitempty,gt=0"`
	} `json:"items" binding:"required,min=1,dive"`
}

// CheckoutResponse hands the client the provider's checkout URL
type CheckoutResponse struct {
	OrderID        string `json:"order_id,omitempty"`
	CartCheckoutID string `json:"cart_checkout_id,omitempty"`
	PreferenceID   string `json:"preference_id"`
	InitPoint      string `json:"init_point"`
}

// BuyNow creates a pending order for a fixed-price listing and opens its
// payment preference in one call.
// POST /api/v1/checkout/buy-now
func (h *CheckoutHandler) BuyNow(c *gin.Context) {
	var req BuyNowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, dto.ErrCodeInvalidJSON, "Invalid request body: "+err.Error())
		return
	}
	buyerID := middleware.GetUserID(c)
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	o, err := h.checkout.CreateBuyNowOrder(c.Request.Context(), uuid.MustParse(req.ListingID), buyerID, quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	pref, err := h.checkout.CreateOrderPreference(c.Request.Context(), o.ID, buyerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, CheckoutResponse{
		OrderID:      o.ID.String(),
		PreferenceID: pref.ID,
		InitPoint:    pref.InitPoint,
	})
}

// CreatePreference opens (or reopens) the payment preference for an existing
// pending order. Auction winners land here: their order exists before any
// payment does.
// POST /api/v1/orders/:id/preference
func (h *CheckoutHandler) CreatePreference(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, dto.ErrCodeInvalidInput, "Invalid order ID")
		return
	}

	pref, err := h.checkout.CreateOrderPreference(c.Request.Context(), uuid.MustParse(uri.ID), middleware.GetUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, CheckoutResponse{
		OrderID:      uri.ID,
		PreferenceID: pref.ID,
		InitPoint:    pref.InitPoint,
	})
}

// CartCheckout creates one order per cart item under a single payment
// preference.
// POST /api/v1/checkout/cart
func (h *CheckoutHandler) CartCheckout(c *gin.Context) {
	var req CartCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, dto.ErrCodeInvalidJSON, "Invalid request body: "+err.Error())
		return
	}

	items := make([]payment.CartItem, 0, len(req.Items))
	for _, it := range req.Items {
		quantity := it.Quantity
		if quantity == 0 {
			quantity = 1
		}
		items = append(items, payment.CartItem{
			ListingID: uuid.MustParse(it.ListingID),
			Quantity:  quantity,
		})
	}

	cart, pref, err := h.checkout.CreateCartCheckout(c.Request.Context(), middleware.GetUserID(c), items)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, CheckoutResponse{
		CartCheckoutID: cart.ID.String(),
		PreferenceID:   pref.ID,
		InitPoint:      pref.InitPoint,
	})
}

// Return is where the provider redirects the buyer after checkout. The query
// carries a payment id; the handler rechecks it through the same reconciler
// path the webhook uses, without a delivery id so no dedupe slot is consumed.
// The redirect is a hint, not a delivery: webhooks remain the source of truth.
// GET /api/v1/checkout/return
func (h *CheckoutHandler) Return(c *gin.Context) {
	paymentID := c.Query("payment_id")
	if paymentID == "" || paymentID == "null" {
		// buyer backed out before paying
		h.Success(c, gin.H{"status": c.Query("status")})
		return
	}

	if err := h.reconciler.ProcessNotification(c.Request.Context(), paymentID, "", ""); err != nil {
		h.logger.Warn("return recheck failed",
			zap.String("payment_id", paymentID),
			zap.Error(err),
		)
	}
	h.Success(c, gin.H{"status": c.Query("status")})
}
