package order

import (
	"time"

	"github.com/google/uuid"

	"github.com/bazargo/backend/internal/domain/shared"
)

// CartCheckout groups N orders under a single payment preference. The
// provider reports one status for the whole group; the reconciler fans it out
// to every member order, each guarded by its own approved_at.
type CartCheckout struct {
	shared.BaseEntity
	BuyerID      uuid.UUID
	Status       OrderStatus
	PreferenceID *string
	PaymentID    *string
	ApprovedAt   *time.Time
	TotalCents   int64
}

// NewCartCheckout creates a pending cart checkout
func NewCartCheckout(buyerID uuid.UUID, totalCents int64) (*CartCheckout, error) {
	if buyerID == uuid.Nil {
		return nil, shared.ErrInvalidInput
	}
	if totalCents <= 0 {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Cart total must be positive")
	}
	return &CartCheckout{
		BaseEntity: shared.NewBaseEntity(),
		BuyerID:    buyerID,
		Status:     StatusPending,
		TotalCents: totalCents,
	}, nil
}

// IsApproved reports whether the cart-level approval has been applied
func (c *CartCheckout) IsApproved() bool {
	return c.ApprovedAt != nil
}
