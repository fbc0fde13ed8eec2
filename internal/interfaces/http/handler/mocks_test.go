package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/bazargo/backend/internal/application/payment"
	"github.com/bazargo/backend/internal/domain/market"
	"github.com/bazargo/backend/internal/domain/order"
)

type MockAuctionEngine struct {
	mock.Mock
}

func (m *MockAuctionEngine) PlaceProxyBid(ctx context.Context, listingID, bidderID uuid.UUID, maxBidCents int64) (*market.Bid, error) {
	args := m.Called(ctx, listingID, bidderID, maxBidCents)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*market.Bid), args.Error(1)
}

func (m *MockAuctionEngine) CloseExpiredAuctions(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockAuctionEngine) CloseAuctionByID(ctx context.Context, listingID, requesterID uuid.UUID) error {
	args := m.Called(ctx, listingID, requesterID)
	return args.Error(0)
}

type MockCheckoutCreator struct {
	mock.Mock
}

func (m *MockCheckoutCreator) CreateBuyNowOrder(ctx context.Context, listingID, buyerID uuid.UUID, quantity int) (*order.Order, error) {
	args := m.Called(ctx, listingID, buyerID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockCheckoutCreator) CreateOrderPreference(ctx context.Context, orderID, buyerID uuid.UUID) (*order.Preference, error) {
	args := m.Called(ctx, orderID, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Preference), args.Error(1)
}

func (m *MockCheckoutCreator) CreateCartCheckout(ctx context.Context, buyerID uuid.UUID, items []payment.CartItem) (*order.CartCheckout, *order.Preference, error) {
	args := m.Called(ctx, buyerID, items)
	var cart *order.CartCheckout
	var pref *order.Preference
	if args.Get(0) != nil {
		cart = args.Get(0).(*order.CartCheckout)
	}
	if args.Get(1) != nil {
		pref = args.Get(1).(*order.Preference)
	}
	return cart, pref, args.Error(2)
}

type MockRechecker struct {
	mock.Mock
}

func (m *MockRechecker) ProcessNotification(ctx context.Context, paymentID, deliveryID, rawPayload string) error {
	args := m.Called(ctx, paymentID, deliveryID, rawPayload)
	return args.Error(0)
}

type MockLabelReader struct {
	mock.Mock
}

func (m *MockLabelReader) ReleaseLabel(ctx context.Context, orderID uuid.UUID) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *MockLabelReader) RefreshTracking(ctx context.Context, orderID uuid.UUID) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

type MockCanceller struct {
	mock.Mock
}

func (m *MockCanceller) RequestBuyerCancellation(ctx context.Context, orderID, buyerID uuid.UUID, reason string) error {
	args := m.Called(ctx, orderID, buyerID, reason)
	return args.Error(0)
}

func (m *MockCanceller) CancelUnpaidAuctionOrder(ctx context.Context, orderID, sellerID uuid.UUID) error {
	args := m.Called(ctx, orderID, sellerID)
	return args.Error(0)
}

type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*market.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*market.Listing), args.Error(1)
}

func (m *MockListingRepository) Save(ctx context.Context, listing *market.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *MockListingRepository) ListActive(ctx context.Context, limit, offset int) ([]market.Listing, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]market.Listing), args.Error(1)
}

func (m *MockListingRepository) FindExpiredActiveAuctions(ctx context.Context, now time.Time, limit int) ([]market.Listing, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]market.Listing), args.Error(1)
}

func (m *MockListingRepository) PlaceBid(ctx context.Context, listingID uuid.UUID, prevHighCents *int64, bid *market.Bid) error {
	args := m.Called(ctx, listingID, prevHighCents, bid)
	return args.Error(0)
}

func (m *MockListingRepository) HighestBid(ctx context.Context, listingID uuid.UUID) (*market.Bid, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*market.Bid), args.Error(1)
}

func (m *MockListingRepository) BidsByListing(ctx context.Context, listingID uuid.UUID) ([]market.Bid, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]market.Bid), args.Error(1)
}

func (m *MockListingRepository) DecrementQuantity(ctx context.Context, listingID uuid.UUID, qty int) error {
	args := m.Called(ctx, listingID, qty)
	return args.Error(0)
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByCartCheckoutID(ctx context.Context, cartID uuid.UUID) ([]order.Order, error) {
	args := m.Called(ctx, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByBuyer(ctx context.Context, buyerID uuid.UUID) ([]order.Order, error) {
	args := m.Called(ctx, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) MarkApproved(ctx context.Context, id uuid.UUID, upd order.ApproveUpdate) (bool, error) {
	args := m.Called(ctx, id, upd)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) RecordPayment(ctx context.Context, id uuid.UUID, paymentID, preferenceID string) error {
	args := m.Called(ctx, id, paymentID, preferenceID)
	return args.Error(0)
}

func (m *MockOrderRepository) AssignLabel(ctx context.Context, id uuid.UUID, tagID, raw string) (bool, error) {
	args := m.Called(ctx, id, tagID, raw)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) SetLabelError(ctx context.Context, id uuid.UUID, message string) error {
	args := m.Called(ctx, id, message)
	return args.Error(0)
}

func (m *MockOrderRepository) RecordLabelRetry(ctx context.Context, id uuid.UUID, message string) error {
	args := m.Called(ctx, id, message)
	return args.Error(0)
}

func (m *MockOrderRepository) MarkLabelReleased(ctx context.Context, id uuid.UUID, tracking, printURL string) (bool, error) {
	args := m.Called(ctx, id, tracking, printURL)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) UpdateShippingStatus(ctx context.Context, id uuid.UUID, from []order.ShippingStatus, to order.ShippingStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) MarkShippingCancelled(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) SetShippingCancelFailed(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOrderRepository) SetShippingManualAction(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOrderRepository) MarkShipped(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time, buyerApprovalDeadline time.Time) (bool, error) {
	args := m.Called(ctx, id, at, buyerApprovalDeadline)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) RequestCancellation(ctx context.Context, id uuid.UUID, requestedBy uuid.UUID, reason string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, requestedBy, reason, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) CancelOrder(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	args := m.Called(ctx, id, reason)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) AdvancePayout(ctx context.Context, id uuid.UUID, from, to order.PayoutStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}
