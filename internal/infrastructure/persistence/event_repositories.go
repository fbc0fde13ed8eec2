package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazargo/backend/internal/domain/order"
)

// GormPaymentEventRepository implements the append-only webhook audit trail
type GormPaymentEventRepository struct {
	db *gorm.DB
}

// NewGormPaymentEventRepository creates a new GormPaymentEventRepository
func NewGormPaymentEventRepository(db *gorm.DB) *GormPaymentEventRepository {
	return &GormPaymentEventRepository{db: db}
}

// Append inserts an audit row. Rows are never updated or deleted.
func (r *GormPaymentEventRepository) Append(ctx context.Context, e *order.PaymentEvent) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// ListByReference returns the audit trail for an external reference, oldest first
func (r *GormPaymentEventRepository) ListByReference(ctx context.Context, externalReference string) ([]order.PaymentEvent, error) {
	var events []order.PaymentEvent
	err := r.db.WithContext(ctx).
		Where("external_reference = ?", externalReference).
		Order("received_at asc").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

var _ order.PaymentEventRepository = (*GormPaymentEventRepository)(nil)

// GormOrderEventRepository implements the append-only per-order audit trail
type GormOrderEventRepository struct {
	db *gorm.DB
}

// NewGormOrderEventRepository creates a new GormOrderEventRepository
func NewGormOrderEventRepository(db *gorm.DB) *GormOrderEventRepository {
	return &GormOrderEventRepository{db: db}
}

// Append inserts an audit row
func (r *GormOrderEventRepository) Append(ctx context.Context, e *order.OrderEvent) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// ListByOrder returns the audit trail for an order, oldest first
func (r *GormOrderEventRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]order.OrderEvent, error) {
	var events []order.OrderEvent
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at asc").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

var _ order.OrderEventRepository = (*GormOrderEventRepository)(nil)
