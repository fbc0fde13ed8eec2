package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bazargo/backend/internal/domain/shared"
)

// Order is the single authoritative record per purchase. The payment
// reconciler, shipping saga and cancellation workflow all mutate the same row
// from concurrent request handlers, so every state-bearing field here is only
// ever written through a conditional update in the repository.
type Order struct {
	shared.BaseEntity
	ListingID uuid.UUID
	BuyerID   uuid.UUID
	SellerID  uuid.UUID
	Quantity  int
	Source    OrderSource

	AmountCents int64
	FeeCents    int64

	Status            OrderStatus
	PaymentID         *string
	PreferenceID      *string
	CartCheckoutID    *uuid.UUID
	PaymentDeadlineAt *time.Time

	ApprovedAt              *time.Time
	DeliveredAt             *time.Time
	BuyerApprovalDeadlineAt *time.Time
	AvailableAt             *time.Time
	ShippingPostDeadlineAt  *time.Time

	PayoutStatus PayoutStatus

	ShippingServiceID    int
	ShippingServiceName  string
	ShippingCostCents    int64
	ShippingPaidBy       string
	ShippingStatus       ShippingStatus
	ShippingTracking     string
	ShippingPrintURL     string
	ShippingCancelFailed bool
	ShippingManualAction bool

	SuperfreteTagID     *string
	SuperfreteStatus    LabelStatus
	SuperfreteRaw       string
	SuperfreteLastError string

	CancelStatus      CancelStatus
	CancelRequestedBy *uuid.UUID
	CancelRequestedAt *time.Time
	CancelDeadlineAt  *time.Time
	CancelReason      string
}

// NewOrder creates a pending order for a listing purchase
func NewOrder(listingID, buyerID, sellerID uuid.UUID, quantity int, amountCents int64, feePercent decimal.Decimal, source OrderSource) (*Order, error) {
	if listingID == uuid.Nil || buyerID == uuid.Nil || sellerID == uuid.Nil {
		return nil, shared.ErrInvalidInput
	}
	if buyerID == sellerID {
		return nil, shared.NewDomainError("SELF_PURCHASE", "Buyers cannot purchase their own listing")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if amountCents <= 0 {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}

	return &Order{
		BaseEntity:   shared.NewBaseEntity(),
		ListingID:    listingID,
		BuyerID:      buyerID,
		SellerID:     sellerID,
		Quantity:     quantity,
		Source:       source,
		AmountCents:  amountCents,
		FeeCents:     FeeFor(amountCents, feePercent),
		Status:       StatusPending,
		PayoutStatus: PayoutHold,
		ShippingStatus: ShippingNone,
		CancelStatus:   CancelNone,
	}, nil
}

// FeeFor computes the platform fee in cents, rounded to the nearest cent
func FeeFor(amountCents int64, feePercent decimal.Decimal) int64 {
	return decimal.NewFromInt(amountCents).
		Mul(feePercent).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

// IsApproved reports whether payment approval has been applied
func (o *Order) IsApproved() bool {
	return o.ApprovedAt != nil
}

// HasLabel reports whether a shipping tag was ever assigned. Once assigned
// the tag is reused for all later shipping operations on this order.
func (o *Order) HasLabel() bool {
	return o.SuperfreteTagID != nil && *o.SuperfreteTagID != ""
}

// IsAuctionDerived reports whether the order came from an auction close
func (o *Order) IsAuctionDerived() bool {
	return o.Source == SourceAuction
}

// PaymentDeadlinePassed reports whether the winner's payment window elapsed
func (o *Order) PaymentDeadlinePassed(now time.Time) bool {
	return o.PaymentDeadlineAt != nil && now.After(*o.PaymentDeadlineAt)
}

// InBuyerApprovalWindow reports whether a delivered order is still inside the
// buyer-approval window.
func (o *Order) InBuyerApprovalWindow(now time.Time) bool {
	return o.BuyerApprovalDeadlineAt != nil && now.Before(*o.BuyerApprovalDeadlineAt)
}

// PayoutReleaseTime resolves when the seller's net proceeds become payable.
// Three-way fallback: available_at, else the buyer-approval deadline, else
// delivered_at plus the hold period. Orders predating one field fall through
// to the next; none of the sources is treated as exclusively authoritative.
func (o *Order) PayoutReleaseTime(holdDays int) *time.Time {
	if o.AvailableAt != nil {
		return o.AvailableAt
	}
	if o.BuyerApprovalDeadlineAt != nil {
		return o.BuyerApprovalDeadlineAt
	}
	if o.DeliveredAt != nil {
		t := o.DeliveredAt.Add(time.Duration(holdDays) * 24 * time.Hour)
		return &t
	}
	return nil
}

// ValidateBuyerCancellation checks the guards for a buyer-initiated
// cancellation request: not already cancelled or requested, parcel not
// posted, and if delivered only inside the buyer-approval window.
func (o *Order) ValidateBuyerCancellation(buyerID uuid.UUID, now time.Time) error {
	if o.BuyerID != buyerID {
		return shared.ErrForbidden
	}
	if o.Status == StatusCancelled {
		return shared.NewDomainError("ALREADY_CANCELLED", "Order is already cancelled")
	}
	if o.CancelStatus == CancelRequested {
		return shared.NewDomainError("CANCEL_ALREADY_REQUESTED", "A cancellation request is already open")
	}
	if o.ShippingStatus == ShippingShipped {
		return shared.NewDomainError("ALREADY_POSTED", "Order was already posted and cannot be cancelled")
	}
	if o.ShippingStatus == ShippingDelivered && !o.InBuyerApprovalWindow(now) {
		return shared.NewDomainError("APPROVAL_WINDOW_CLOSED", "Buyer approval window has closed")
	}
	return nil
}

// ValidateUnpaidAuctionCancellation checks the guards for the seller-initiated
// cancellation of an unpaid auction order: auction-derived, still pending with
// no payment id, and only after the payment deadline has passed.
func (o *Order) ValidateUnpaidAuctionCancellation(sellerID uuid.UUID, now time.Time) error {
	if o.SellerID != sellerID {
		return shared.ErrForbidden
	}
	if !o.IsAuctionDerived() {
		return shared.NewDomainError("NOT_AUCTION_ORDER", "Order was not created by an auction")
	}
	if o.Status != StatusPending {
		return shared.NewDomainError("NOT_PENDING", "Only pending orders can be cancelled as unpaid")
	}
	if o.PaymentID != nil && *o.PaymentID != "" {
		return shared.NewDomainError("PAYMENT_STARTED", "A payment is already associated with this order")
	}
	if !o.PaymentDeadlinePassed(now) {
		return shared.NewDomainError("DEADLINE_NOT_REACHED", "Payment deadline has not passed yet")
	}
	return nil
}
