package shipping

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/bazargo/backend/internal/domain/identity"
	"github.com/bazargo/backend/internal/domain/market"
	"github.com/bazargo/backend/internal/domain/notification"
	"github.com/bazargo/backend/internal/domain/order"
	"github.com/bazargo/backend/internal/domain/shipping"
)

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

type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*identity.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Profile), args.Error(1)
}

func (m *MockProfileRepository) Save(ctx context.Context, p *identity.Profile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProfileRepository) FindAdmins(ctx context.Context) ([]identity.Profile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.Profile), args.Error(1)
}

type MockOrderEventRepository struct {
	mock.Mock
}

func (m *MockOrderEventRepository) Append(ctx context.Context, e *order.OrderEvent) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockOrderEventRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]order.OrderEvent, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.OrderEvent), args.Error(1)
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) CreateLabel(ctx context.Context, req shipping.CreateLabelRequest) (*shipping.Label, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.Label), args.Error(1)
}

func (m *MockProvider) Checkout(ctx context.Context, labelID string) error {
	args := m.Called(ctx, labelID)
	return args.Error(0)
}

func (m *MockProvider) GetOrderInfo(ctx context.Context, labelID string) (*shipping.LabelInfo, error) {
	args := m.Called(ctx, labelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.LabelInfo), args.Error(1)
}

func (m *MockProvider) GetPrintLink(ctx context.Context, labelID string) (string, error) {
	args := m.Called(ctx, labelID)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) Cancel(ctx context.Context, labelID, reason string) (*shipping.LabelInfo, error) {
	args := m.Called(ctx, labelID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.LabelInfo), args.Error(1)
}

type MockSink struct {
	mock.Mock
}

func (m *MockSink) Notify(ctx context.Context, n *notification.Notification) {
	m.Called(ctx, n)
}
