package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bazargo/backend/internal/domain/market"
	"github.com/bazargo/backend/internal/domain/order"
	"github.com/bazargo/backend/internal/domain/shared"
)

// Paths the provider calls back on, as mounted under the versioned API group
// by the router. Stamped absolute on every preference.
const (
	checkoutReturnPath = "/api/v1/checkout/return"
	webhookPath        = "/api/v1/webhooks/mercadopago"
)

// CheckoutConfig carries the URLs and fee policy the checkout flow stamps on
// every preference.
type CheckoutConfig struct {
	BaseURL    string
	FeePercent decimal.Decimal
}

// CheckoutService creates orders and their payment preferences. Single-order
// and cart checkout run through one parametrized preference flow; the only
// difference is the external reference the webhook hands back.
type CheckoutService struct {
	orders   order.Repository
	carts    order.CartCheckoutRepository
	listings market.ListingRepository
	provider order.PaymentProvider
	cfg      CheckoutConfig
	logger   *zap.Logger
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(
	orders order.Repository,
	carts order.CartCheckoutRepository,
	listings market.ListingRepository,
	provider order.PaymentProvider,
	cfg CheckoutConfig,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		orders:   orders,
		carts:    carts,
		listings: listings,
		provider: provider,
		cfg:      cfg,
		logger:   logger,
	}
}

// CartItem is one listing purchase inside a cart checkout
type CartItem struct {
	ListingID uuid.UUID
	Quantity  int
}

// CreateBuyNowOrder creates a pending order for a fixed-price listing
func (s *CheckoutService) CreateBuyNowOrder(ctx context.Context, listingID, buyerID uuid.UUID, quantity int) (*order.Order, error) {
	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Type != market.ListingTypeNow {
		return nil, shared.NewDomainError("NOT_BUY_NOW", "Auction listings are purchased by winning the auction")
	}
	if listing.Status != market.ListingStatusActive {
		return nil, shared.NewDomainError("LISTING_UNAVAILABLE", "Listing is not active")
	}
	if quantity <= 0 || quantity > listing.QuantityAvailable {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity is not available")
	}

	o, err := order.NewOrder(listingID, buyerID, listing.SellerID, quantity,
		listing.PriceCents*int64(quantity), s.cfg.FeePercent, order.SourceCheckout)
	if err != nil {
		return nil, err
	}
	if listing.ShippingEnabled {
		o.ShippingStatus = order.ShippingNone
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// CreateOrderPreference creates the payment preference for a single order and
// persists its id. Works for checkout orders and auction winner orders alike.
func (s *CheckoutService) CreateOrderPreference(ctx context.Context, orderID, buyerID uuid.UUID) (*order.Preference, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.BuyerID != buyerID {
		return nil, shared.ErrForbidden
	}
	if o.Status != order.StatusPending {
		return nil, shared.NewDomainError("NOT_PENDING", "Order is not awaiting payment")
	}

	listing, err := s.listings.FindByID(ctx, o.ListingID)
	if err != nil {
		return nil, err
	}

	pref, err := s.createPreference(ctx, "order:"+o.ID.String(), []order.PreferenceItem{
		{Title: listing.Title, Quantity: 1, UnitPriceCents: o.AmountCents},
	})
	if err != nil {
		return nil, err
	}

	if err := s.orders.RecordPayment(ctx, o.ID, "", pref.ID); err != nil {
		return nil, err
	}
	return pref, nil
}

// CreateCartCheckout creates one order per cart item plus the grouping cart
// checkout, then a single preference covering all of them. The provider
// reports one status for the whole group.
func (s *CheckoutService) CreateCartCheckout(ctx context.Context, buyerID uuid.UUID, items []CartItem) (*order.CartCheckout, *order.Preference, error) {
	if len(items) == 0 {
		return nil, nil, shared.ErrInvalidInput
	}

	var (
		prefItems []order.PreferenceItem
		orders    []*order.Order
		total     int64
	)
	for _, item := range items {
		listing, err := s.listings.FindByID(ctx, item.ListingID)
		if err != nil {
			return nil, nil, err
		}
		if listing.Type != market.ListingTypeNow || listing.Status != market.ListingStatusActive {
			return nil, nil, shared.NewDomainError("LISTING_UNAVAILABLE",
				fmt.Sprintf("Listing %s cannot be purchased right now", item.ListingID))
		}
		if item.Quantity <= 0 || item.Quantity > listing.QuantityAvailable {
			return nil, nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity is not available")
		}

		amount := listing.PriceCents * int64(item.Quantity)
		o, err := order.NewOrder(item.ListingID, buyerID, listing.SellerID, item.Quantity,
			amount, s.cfg.FeePercent, order.SourceCheckout)
		if err != nil {
			return nil, nil, err
		}
		orders = append(orders, o)
		total += amount
		prefItems = append(prefItems, order.PreferenceItem{
			Title:          listing.Title,
			Quantity:       item.Quantity,
			UnitPriceCents: listing.PriceCents,
		})
	}

	cart, err := order.NewCartCheckout(buyerID, total)
	if err != nil {
		return nil, nil, err
	}
	if err := s.carts.Create(ctx, cart); err != nil {
		return nil, nil, err
	}
	for _, o := range orders {
		o.CartCheckoutID = &cart.ID
		if err := s.orders.Create(ctx, o); err != nil {
			return nil, nil, err
		}
	}

	pref, err := s.createPreference(ctx, "cart:"+cart.ID.String(), prefItems)
	if err != nil {
		return nil, nil, err
	}

	if err := s.carts.SetPreference(ctx, cart.ID, pref.ID); err != nil {
		return nil, nil, err
	}
	for _, o := range orders {
		if err := s.orders.RecordPayment(ctx, o.ID, "", pref.ID); err != nil {
			return nil, nil, err
		}
	}

	cart.PreferenceID = &pref.ID
	return cart, pref, nil
}

func (s *CheckoutService) createPreference(ctx context.Context, externalReference string, items []order.PreferenceItem) (*order.Preference, error) {
	pref, err := s.provider.CreatePreference(ctx, order.CreatePreferenceRequest{
		ExternalReference: externalReference,
		Items:             items,
		SuccessURL:        s.cfg.BaseURL + checkoutReturnPath,
		FailureURL:        s.cfg.BaseURL + checkoutReturnPath,
		PendingURL:        s.cfg.BaseURL + checkoutReturnPath,
		NotificationURL:   s.cfg.BaseURL + webhookPath,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment preference created",
		zap.String("external_reference", externalReference),
		zap.String("preference_id", pref.ID),
	)
	return pref, nil
}
