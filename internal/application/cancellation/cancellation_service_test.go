package cancellation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bazargo/backend/internal/domain/identity"
	"github.com/bazargo/backend/internal/domain/notification"
	"github.com/bazargo/backend/internal/domain/order"
	"github.com/bazargo/backend/internal/domain/shared"
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

type MockSink struct {
	mock.Mock
}

func (m *MockSink) Notify(ctx context.Context, n *notification.Notification) {
	m.Called(ctx, n)
}

type cancellationFixture struct {
	orders      *MockOrderRepository
	orderEvents *MockOrderEventRepository
	profiles    *MockProfileRepository
	notifier    *MockSink
	service     *CancellationService
}

func newCancellationFixture() *cancellationFixture {
	f := &cancellationFixture{
		orders:      new(MockOrderRepository),
		orderEvents: new(MockOrderEventRepository),
		profiles:    new(MockProfileRepository),
		notifier:    new(MockSink),
	}
	f.service = NewCancellationService(f.orders, f.orderEvents, f.profiles, f.notifier, zap.NewNop())
	return f
}

func checkoutOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.NewOrder(uuid.New(), uuid.New(), uuid.New(), 1, 8000,
		decimal.NewFromInt(10), order.SourceCheckout)
	require.NoError(t, err)
	return o
}

func unpaidAuctionOrder(t *testing.T, deadline time.Time) *order.Order {
	t.Helper()
	o, err := order.NewOrder(uuid.New(), uuid.New(), uuid.New(), 1, 15000,
		decimal.NewFromInt(10), order.SourceAuction)
	require.NoError(t, err)
	o.PaymentDeadlineAt = &deadline
	return o
}

func TestCancellationService_RequestBuyerCancellation(t *testing.T) {
	ctx := context.Background()

	t.Run("opens the request and notifies seller and admins", func(t *testing.T) {
		f := newCancellationFixture()
		o := checkoutOrder(t)
		admin := identity.Profile{UserID: uuid.New(), IsAdmin: true}

		f.orders.On("FindByID", ctx, o.ID).Return(o, nil)
		f.orders.On("RequestCancellation", ctx, o.ID, o.BuyerID, "changed my mind",
			mock.AnythingOfType("time.Time")).Return(true, nil)
		f.orderEvents.On("Append", ctx, mock.MatchedBy(func(e *order.OrderEvent) bool {
			return e.Kind == order.OrderEventBuyerCancelRequest && *e.ActorID == o.BuyerID
		})).Return(nil)
		f.profiles.On("FindAdmins", ctx).Return([]identity.Profile{admin}, nil)
		f.notifier.On("Notify", ctx, mock.Anything).Return()

		err := f.service.RequestBuyerCancellation(ctx, o.ID, o.BuyerID, "changed my mind")
		require.NoError(t, err)

		f.orderEvents.AssertExpectations(t)
		f.notifier.AssertNumberOfCalls(t, "Notify", 2) // seller + one admin
	})

	t.Run("only the buyer can request", func(t *testing.T) {
		f := newCancellationFixture()
		o := checkoutOrder(t)

		f.orders.On("FindByID", ctx, o.ID).Return(o, nil)

		err := f.service.RequestBuyerCancellation(ctx, o.ID, uuid.New(), "x")
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("rejected once the parcel was posted", func(t *testing.T) {
		f := newCancellationFixture()
		o := checkoutOrder(t)
		o.ShippingStatus = order.ShippingShipped

		f.orders.On("FindByID", ctx, o.ID).Return(o, nil)

		err := f.service.RequestBuyerCancellation(ctx, o.ID, o.BuyerID, "x")
		assert.Error(t, err)
		f.orders.AssertNotCalled(t, "RequestCancellation",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejected when a request is already open", func(t *testing.T) {
		f := newCancellationFixture()
		o := checkoutOrder(t)
		o.CancelStatus = order.CancelRequested

		f.orders.On("FindByID", ctx, o.ID).Return(o, nil)

		err := f.service.RequestBuyerCancellation(ctx, o.ID, o.BuyerID, "x")
		assert.Error(t, err)
	})

	t.Run("delivered orders only inside the approval window", func(t *testing.T) {
		f := newCancellationFixture()
		o := checkoutOrder(t)
		o.ShippingStatus = order.ShippingDelivered
		closed := time.Now().Add(-time.Hour)
		o.BuyerApprovalDeadlineAt = &closed

		f.orders.On("FindByID", ctx, o.ID).Return(o, nil)

		err := f.service.RequestBuyerCancellation(ctx, o.ID, o.BuyerID, "x")
		assert.Error(t, err)
	})

	t.Run("losing the guard reports a skip", func(t *testing.T) {
		f := newCancellationFixture()
		o := checkoutOrder(t)

		f.orders.On("FindByID", ctx, o.ID).Return(o, nil)
		f.orders.On("RequestCancellation", ctx, o.ID, o.BuyerID, "x",
			mock.AnythingOfType("time.Time")).Return(false, nil)

		err := f.service.RequestBuyerCancellation(ctx, o.ID, o.BuyerID, "x")
		assert.ErrorIs(t, err, shared.ErrGuardSkip)
		f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	})
}

func TestCancellationService_CancelUnpaidAuctionOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels after the payment window elapsed", func(t *testing.T) {
		f := newCancellationFixture()
		o := unpaidAuctionOrder(t, time.Now().Add(-time.Hour))

		f.orders.On("FindByID", ctx, o.ID).Return(o, nil)
		f.orders.On("CancelOrder", ctx, o.ID, "auction payment window elapsed").Return(true, nil)
		f.orderEvents.On("Append", ctx, mock.MatchedBy(func(e *order.OrderEvent) bool {
			return e.Kind == order.OrderEventUnpaidCancellation && *e.ActorID == o.SellerID
		})).Return(nil)
		f.profiles.On("FindAdmins", ctx).Return([]identity.Profile{}, nil)
		f.notifier.On("Notify", ctx, mock.Anything).Return()

		err := f.service.CancelUnpaidAuctionOrder(ctx, o.ID, o.SellerID)
		require.NoError(t, err)
		f.orderEvents.AssertExpectations(t)
	})

	t.Run("rejected before the deadline", func(t *testing.T) {
		f := newCancellationFixture()
		o := unpaidAuctionOrder(t, time.Now().Add(time.Hour))

		f.orders.On("FindByID", ctx, o.ID).Return(o, nil)

		err := f.service.CancelUnpaidAuctionOrder(ctx, o.ID, o.SellerID)
		assert.Error(t, err)
		f.orders.AssertNotCalled(t, "CancelOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejected when a payment is already attached", func(t *testing.T) {
		f := newCancellationFixture()
		o := unpaidAuctionOrder(t, time.Now().Add(-time.Hour))
		paymentID := "pay-1"
		o.PaymentID = &paymentID

		f.orders.On("FindByID", ctx, o.ID).Return(o, nil)

		err := f.service.CancelUnpaidAuctionOrder(ctx, o.ID, o.SellerID)
		assert.Error(t, err)
	})

	t.Run("only the seller can cancel", func(t *testing.T) {
		f := newCancellationFixture()
		o := unpaidAuctionOrder(t, time.Now().Add(-time.Hour))

		f.orders.On("FindByID", ctx, o.ID).Return(o, nil)

		err := f.service.CancelUnpaidAuctionOrder(ctx, o.ID, uuid.New())
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("checkout orders are not eligible", func(t *testing.T) {
		f := newCancellationFixture()
		o := checkoutOrder(t)

		f.orders.On("FindByID", ctx, o.ID).Return(o, nil)

		err := f.service.CancelUnpaidAuctionOrder(ctx, o.ID, o.SellerID)
		assert.Error(t, err)
	})
}
