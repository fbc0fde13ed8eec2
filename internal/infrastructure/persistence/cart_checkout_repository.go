package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazargo/backend/internal/domain/order"
	"github.com/bazargo/backend/internal/domain/shared"
)

// GormCartCheckoutRepository implements order.CartCheckoutRepository using GORM
type GormCartCheckoutRepository struct {
	db *gorm.DB
}

// NewGormCartCheckoutRepository creates a new GormCartCheckoutRepository
func NewGormCartCheckoutRepository(db *gorm.DB) *GormCartCheckoutRepository {
	return &GormCartCheckoutRepository{db: db}
}

// Create inserts a new cart checkout
func (r *GormCartCheckoutRepository) Create(ctx context.Context, c *order.CartCheckout) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// FindByID finds a cart checkout by its ID
func (r *GormCartCheckoutRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.CartCheckout, error) {
	var c order.CartCheckout
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// SetPreference records the payment preference created for the cart
func (r *GormCartCheckoutRepository) SetPreference(ctx context.Context, id uuid.UUID, preferenceID string) error {
	return r.db.WithContext(ctx).Model(&order.CartCheckout{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"preference_id": preferenceID,
			"updated_at":    time.Now(),
		}).Error
}

// MarkApproved mirrors the member orders' approval on the group, guarded on
// approved_at still being unset.
func (r *GormCartCheckoutRepository) MarkApproved(ctx context.Context, id uuid.UUID, at time.Time, paymentID string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&order.CartCheckout{}).
		Where("id = ? AND approved_at IS NULL", id).
		Updates(map[string]interface{}{
			"status":      order.StatusApproved,
			"approved_at": at,
			"payment_id":  paymentID,
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

var _ order.CartCheckoutRepository = (*GormCartCheckoutRepository)(nil)
