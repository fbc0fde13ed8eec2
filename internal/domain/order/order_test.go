package order

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazargo/backend/internal/domain/shared"
)

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	o, err := NewOrder(uuid.New(), uuid.New(), uuid.New(), 1, 10000, decimal.NewFromInt(10), SourceCheckout)
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	t.Run("computes fee from percent", func(t *testing.T) {
		o := newTestOrder(t)
		assert.Equal(t, int64(1000), o.FeeCents)
		assert.Equal(t, StatusPending, o.Status)
		assert.Equal(t, PayoutHold, o.PayoutStatus)
		assert.Equal(t, ShippingNone, o.ShippingStatus)
	})

	t.Run("rejects self purchase", func(t *testing.T) {
		u := uuid.New()
		_, err := NewOrder(uuid.New(), u, u, 1, 1000, decimal.Zero, SourceCheckout)
		assert.Error(t, err)
	})
}

func TestFeeFor(t *testing.T) {
	assert.Equal(t, int64(1250), FeeFor(10000, decimal.NewFromFloat(12.5)))
	assert.Equal(t, int64(0), FeeFor(10000, decimal.Zero))
	// 333 * 10% = 33.3, rounds to 33
	assert.Equal(t, int64(33), FeeFor(333, decimal.NewFromInt(10)))
}

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		allowed  bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusApproved, StatusShipped, true},
		{StatusApproved, StatusPending, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusDispute, true},
		{StatusCancelled, StatusApproved, false},
		{StatusDispute, StatusApproved, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestPayoutStatusAdvance(t *testing.T) {
	assert.True(t, PayoutHold.CanAdvanceTo(PayoutRequested))
	assert.True(t, PayoutRequested.CanAdvanceTo(PayoutPaid))
	assert.False(t, PayoutHold.CanAdvanceTo(PayoutPaid))
	assert.False(t, PayoutPaid.CanAdvanceTo(PayoutHold))
	assert.False(t, PayoutRequested.CanAdvanceTo(PayoutHold))
}

func TestPayoutReleaseTime(t *testing.T) {
	now := time.Now()

	t.Run("available_at wins", func(t *testing.T) {
		o := newTestOrder(t)
		o.AvailableAt = &now
		deadline := now.Add(48 * time.Hour)
		o.BuyerApprovalDeadlineAt = &deadline
		got := o.PayoutReleaseTime(7)
		require.NotNil(t, got)
		assert.Equal(t, now, *got)
	})

	t.Run("falls back to buyer approval deadline", func(t *testing.T) {
		o := newTestOrder(t)
		deadline := now.Add(48 * time.Hour)
		o.BuyerApprovalDeadlineAt = &deadline
		got := o.PayoutReleaseTime(7)
		require.NotNil(t, got)
		assert.Equal(t, deadline, *got)
	})

	t.Run("falls back to delivered_at plus hold days", func(t *testing.T) {
		o := newTestOrder(t)
		o.DeliveredAt = &now
		got := o.PayoutReleaseTime(7)
		require.NotNil(t, got)
		assert.Equal(t, now.Add(7*24*time.Hour), *got)
	})

	t.Run("nil when nothing is set", func(t *testing.T) {
		o := newTestOrder(t)
		assert.Nil(t, o.PayoutReleaseTime(7))
	})
}

func TestValidateBuyerCancellation(t *testing.T) {
	now := time.Now()

	t.Run("allowed while pending", func(t *testing.T) {
		o := newTestOrder(t)
		assert.NoError(t, o.ValidateBuyerCancellation(o.BuyerID, now))
	})

	t.Run("forbidden for non-buyer", func(t *testing.T) {
		o := newTestOrder(t)
		assert.ErrorIs(t, o.ValidateBuyerCancellation(uuid.New(), now), shared.ErrForbidden)
	})

	t.Run("rejected once posted", func(t *testing.T) {
		o := newTestOrder(t)
		o.ShippingStatus = ShippingShipped
		err := o.ValidateBuyerCancellation(o.BuyerID, now)
		require.Error(t, err)
		assert.Equal(t, "ALREADY_POSTED", err.(*shared.DomainError).Code)
	})

	t.Run("delivered inside approval window is allowed", func(t *testing.T) {
		o := newTestOrder(t)
		o.ShippingStatus = ShippingDelivered
		deadline := now.Add(24 * time.Hour)
		o.BuyerApprovalDeadlineAt = &deadline
		assert.NoError(t, o.ValidateBuyerCancellation(o.BuyerID, now))
	})

	t.Run("delivered outside approval window is rejected", func(t *testing.T) {
		o := newTestOrder(t)
		o.ShippingStatus = ShippingDelivered
		deadline := now.Add(-time.Hour)
		o.BuyerApprovalDeadlineAt = &deadline
		err := o.ValidateBuyerCancellation(o.BuyerID, now)
		require.Error(t, err)
		assert.Equal(t, "APPROVAL_WINDOW_CLOSED", err.(*shared.DomainError).Code)
	})

	t.Run("rejected when already requested", func(t *testing.T) {
		o := newTestOrder(t)
		o.CancelStatus = CancelRequested
		assert.Error(t, o.ValidateBuyerCancellation(o.BuyerID, now))
	})
}

func TestValidateUnpaidAuctionCancellation(t *testing.T) {
	now := time.Now()

	auctionOrder := func(t *testing.T) *Order {
		o, err := NewOrder(uuid.New(), uuid.New(), uuid.New(), 1, 10000, decimal.NewFromInt(10), SourceAuction)
		require.NoError(t, err)
		past := now.Add(-time.Hour)
		o.PaymentDeadlineAt = &past
		return o
	}

	t.Run("allowed after deadline with no payment", func(t *testing.T) {
		o := auctionOrder(t)
		assert.NoError(t, o.ValidateUnpaidAuctionCancellation(o.SellerID, now))
	})

	t.Run("rejected before deadline", func(t *testing.T) {
		o := auctionOrder(t)
		future := now.Add(time.Hour)
		o.PaymentDeadlineAt = &future
		err := o.ValidateUnpaidAuctionCancellation(o.SellerID, now)
		require.Error(t, err)
		assert.Equal(t, "DEADLINE_NOT_REACHED", err.(*shared.DomainError).Code)
	})

	t.Run("rejected when a payment exists", func(t *testing.T) {
		o := auctionOrder(t)
		pid := "pay-123"
		o.PaymentID = &pid
		err := o.ValidateUnpaidAuctionCancellation(o.SellerID, now)
		require.Error(t, err)
		assert.Equal(t, "PAYMENT_STARTED", err.(*shared.DomainError).Code)
	})

	t.Run("rejected for checkout orders", func(t *testing.T) {
		o := newTestOrder(t)
		past := now.Add(-time.Hour)
		o.PaymentDeadlineAt = &past
		assert.Error(t, o.ValidateUnpaidAuctionCancellation(o.SellerID, now))
	})

	t.Run("forbidden for non-seller", func(t *testing.T) {
		o := auctionOrder(t)
		assert.ErrorIs(t, o.ValidateUnpaidAuctionCancellation(uuid.New(), now), shared.ErrForbidden)
	})
}

func TestNormalizePaymentStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want PaymentStatus
	}{
		{"approved", PaymentApproved},
		{"APPROVED", PaymentApproved},
		{"cancelled", PaymentCancelled},
		{"canceled", PaymentCancelled},
		{"charged_back", PaymentChargedBack},
		{"in_process", PaymentInProcess},
		{"something_else", PaymentUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePaymentStatus(tt.raw), tt.raw)
	}

	assert.True(t, PaymentRefunded.IsTerminalNegative())
	assert.True(t, PaymentChargedBack.IsTerminalNegative())
	assert.False(t, PaymentApproved.IsTerminalNegative())
	assert.False(t, PaymentRejected.IsTerminalNegative())
}
