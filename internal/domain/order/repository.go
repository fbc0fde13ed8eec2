package order

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ApproveUpdate carries the fields written when a payment approval lands
type ApproveUpdate struct {
	ApprovedAt             time.Time
	PaymentID              string
	PreferenceID           string
	ShippingPostDeadlineAt time.Time
}

// Repository persists orders. Methods returning (bool, error) are
// conditional updates: true means this call performed the transition, false
// means the guard no longer held (already done by a concurrent caller, or
// state moved on) and nothing was written. Callers treat false as a guard
// skip, never as a failure.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByCartCheckoutID(ctx context.Context, cartID uuid.UUID) ([]Order, error)
	FindByBuyer(ctx context.Context, buyerID uuid.UUID) ([]Order, error)

	// MarkApproved applies payment approval once: guarded on approved_at
	// still being unset. Also records payment ids, puts the payout on hold
	// and stamps the seller's posting deadline.
	MarkApproved(ctx context.Context, id uuid.UUID, upd ApproveUpdate) (bool, error)

	// RecordPayment attaches provider payment/preference ids without any
	// state transition (pending and rejected deliveries).
	RecordPayment(ctx context.Context, id uuid.UUID, paymentID, preferenceID string) error

	// AssignLabel persists a freshly created shipping tag, guarded on no tag
	// having been assigned yet. The tag is immutable afterwards.
	AssignLabel(ctx context.Context, id uuid.UUID, tagID, raw string) (bool, error)

	// SetLabelError records a non-fatal label failure on the order
	SetLabelError(ctx context.Context, id uuid.UUID, message string) error

	// RecordLabelRetry notes a recoverable label failure without leaving the
	// pending state, so a later release attempt retries the same tag.
	RecordLabelRetry(ctx context.Context, id uuid.UUID, message string) error

	// MarkLabelReleased records a successful postage purchase, guarded on the
	// label not having been released yet.
	MarkLabelReleased(ctx context.Context, id uuid.UUID, tracking, printURL string) (bool, error)

	// UpdateShippingStatus moves shipping_status from one of the given states
	// to the target state.
	UpdateShippingStatus(ctx context.Context, id uuid.UUID, from []ShippingStatus, to ShippingStatus) (bool, error)

	// MarkShippingCancelled cancels the label, guarded on the parcel not
	// having been posted; clears the manual-action and cancel-failed flags.
	MarkShippingCancelled(ctx context.Context, id uuid.UUID) (bool, error)

	SetShippingCancelFailed(ctx context.Context, id uuid.UUID) error
	SetShippingManualAction(ctx context.Context, id uuid.UUID) error

	MarkShipped(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time, buyerApprovalDeadline time.Time) (bool, error)

	// RequestCancellation opens a cancellation request, guarded on no request
	// being open and the order not being cancelled.
	RequestCancellation(ctx context.Context, id uuid.UUID, requestedBy uuid.UUID, reason string, at time.Time) (bool, error)

	// CancelOrder moves the order to cancelled, guarded on it not already
	// being cancelled.
	CancelOrder(ctx context.Context, id uuid.UUID, reason string) (bool, error)

	// AdvancePayout advances payout_status along hold → requested → paid
	AdvancePayout(ctx context.Context, id uuid.UUID, from, to PayoutStatus) (bool, error)
}

// CartCheckoutRepository persists cart checkouts
type CartCheckoutRepository interface {
	Create(ctx context.Context, c *CartCheckout) error
	FindByID(ctx context.Context, id uuid.UUID) (*CartCheckout, error)
	SetPreference(ctx context.Context, id uuid.UUID, preferenceID string) error

	// MarkApproved mirrors the member orders' approval on the group, guarded
	// on approved_at still being unset.
	MarkApproved(ctx context.Context, id uuid.UUID, at time.Time, paymentID string) (bool, error)
}

// PaymentEventRepository is the append-only webhook audit trail
type PaymentEventRepository interface {
	Append(ctx context.Context, e *PaymentEvent) error
	ListByReference(ctx context.Context, externalReference string) ([]PaymentEvent, error)
}

// OrderEventRepository is the append-only per-order audit trail
type OrderEventRepository interface {
	Append(ctx context.Context, e *OrderEvent) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderEvent, error)
}
