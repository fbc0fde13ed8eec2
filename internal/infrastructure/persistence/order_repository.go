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

// GormOrderRepository implements order.Repository using GORM.
//
// Every state transition is a conditional update carrying its guard in the
// WHERE clause; RowsAffected tells the caller whether this call performed the
// transition. There is no read-modify-write anywhere in this file.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create inserts a new order
func (r *GormOrderRepository) Create(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindByCartCheckoutID returns all member orders of a cart checkout
func (r *GormOrderRepository) FindByCartCheckoutID(ctx context.Context, cartID uuid.UUID) ([]order.Order, error) {
	var orders []order.Order
	err := r.db.WithContext(ctx).
		Where("cart_checkout_id = ?", cartID).
		Order("created_at asc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// FindByBuyer returns a buyer's orders, newest first
func (r *GormOrderRepository) FindByBuyer(ctx context.Context, buyerID uuid.UUID) ([]order.Order, error) {
	var orders []order.Order
	err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// MarkApproved applies payment approval exactly once. Guarded on approved_at
// still being unset and the order still pending, so duplicate approval
// deliveries and approvals racing a cancellation both skip cleanly.
func (r *GormOrderRepository) MarkApproved(ctx context.Context, id uuid.UUID, upd order.ApproveUpdate) (bool, error) {
	result := r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ? AND approved_at IS NULL AND status = ?", id, order.StatusPending).
		Updates(map[string]interface{}{
			"status":                    order.StatusApproved,
			"approved_at":               upd.ApprovedAt,
			"payment_id":                upd.PaymentID,
			"preference_id":             upd.PreferenceID,
			"payout_status":             order.PayoutHold,
			"shipping_post_deadline_at": upd.ShippingPostDeadlineAt,
			"updated_at":                time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RecordPayment attaches provider ids without any state transition
func (r *GormOrderRepository) RecordPayment(ctx context.Context, id uuid.UUID, paymentID, preferenceID string) error {
	updates := map[string]interface{}{"updated_at": time.Now()}
	if paymentID != "" {
		updates["payment_id"] = paymentID
	}
	if preferenceID != "" {
		updates["preference_id"] = preferenceID
	}
	return r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// AssignLabel persists a freshly created shipping tag, guarded on no tag
// having been assigned yet. The tag is immutable afterwards; later label
// operations reuse it instead of creating a second one.
func (r *GormOrderRepository) AssignLabel(ctx context.Context, id uuid.UUID, tagID, raw string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ? AND superfrete_tag_id IS NULL", id).
		Updates(map[string]interface{}{
			"superfrete_tag_id":     tagID,
			"superfrete_raw":        raw,
			"superfrete_status":     order.LabelStatusPending,
			"superfrete_last_error": "",
			"shipping_status":       order.ShippingLabelCreated,
			"updated_at":            time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SetLabelError records a non-fatal label failure on the order
func (r *GormOrderRepository) SetLabelError(ctx context.Context, id uuid.UUID, message string) error {
	return r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"superfrete_status":     order.LabelStatusError,
			"superfrete_last_error": message,
			"updated_at":            time.Now(),
		}).Error
}

// RecordLabelRetry notes a recoverable label failure. The label status stays
// pending so the next release attempt reuses the tag.
func (r *GormOrderRepository) RecordLabelRetry(ctx context.Context, id uuid.UUID, message string) error {
	return r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"superfrete_last_error": message,
			"updated_at":            time.Now(),
		}).Error
}

// MarkLabelReleased records a successful postage purchase, guarded on a tag
// existing and the label not having been released yet.
func (r *GormOrderRepository) MarkLabelReleased(ctx context.Context, id uuid.UUID, tracking, printURL string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ? AND superfrete_tag_id IS NOT NULL AND superfrete_status <> ?", id, order.LabelStatusReleased).
		Updates(map[string]interface{}{
			"superfrete_status":     order.LabelStatusReleased,
			"superfrete_last_error": "",
			"shipping_status":       order.ShippingReleased,
			"shipping_tracking":     tracking,
			"shipping_print_url":    printURL,
			"updated_at":            time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateShippingStatus moves shipping_status from one of the given states to
// the target state.
func (r *GormOrderRepository) UpdateShippingStatus(ctx context.Context, id uuid.UUID, from []order.ShippingStatus, to order.ShippingStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ? AND shipping_status IN ?", id, from).
		Updates(map[string]interface{}{
			"shipping_status": to,
			"updated_at":      time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkShippingCancelled cancels the label, guarded on the parcel not having
// been posted. Clears the cancel-failed and manual-action flags; the tag is
// kept for audit.
func (r *GormOrderRepository) MarkShippingCancelled(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ? AND shipping_status NOT IN ?", id,
			[]order.ShippingStatus{order.ShippingShipped, order.ShippingDelivered, order.ShippingCancelled}).
		Updates(map[string]interface{}{
			"shipping_status":        order.ShippingCancelled,
			"shipping_cancel_failed": false,
			"shipping_manual_action": false,
			"updated_at":             time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SetShippingCancelFailed flags that the provider refused the label cancel
func (r *GormOrderRepository) SetShippingCancelFailed(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"shipping_cancel_failed": true,
			"updated_at":             time.Now(),
		}).Error
}

// SetShippingManualAction flags the order for operator attention
func (r *GormOrderRepository) SetShippingManualAction(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"shipping_manual_action": true,
			"updated_at":             time.Now(),
		}).Error
}

// MarkShipped records the parcel posting, guarded on the order being approved
func (r *GormOrderRepository) MarkShipped(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ? AND status = ?", id, order.StatusApproved).
		Updates(map[string]interface{}{
			"status":          order.StatusShipped,
			"shipping_status": order.ShippingShipped,
			"updated_at":      at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkDelivered records delivery and opens the buyer-approval window,
// guarded on the order being shipped.
func (r *GormOrderRepository) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time, buyerApprovalDeadline time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ? AND status = ?", id, order.StatusShipped).
		Updates(map[string]interface{}{
			"status":                     order.StatusDelivered,
			"shipping_status":            order.ShippingDelivered,
			"delivered_at":               at,
			"buyer_approval_deadline_at": buyerApprovalDeadline,
			"updated_at":                 time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RequestCancellation opens a cancellation request, guarded on no request
// being open and the order not being cancelled.
func (r *GormOrderRepository) RequestCancellation(ctx context.Context, id uuid.UUID, requestedBy uuid.UUID, reason string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ? AND cancel_status = ? AND status <> ?", id, order.CancelNone, order.StatusCancelled).
		Updates(map[string]interface{}{
			"cancel_status":       order.CancelRequested,
			"cancel_requested_by": requestedBy,
			"cancel_requested_at": at,
			"cancel_reason":       reason,
			"updated_at":          time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CancelOrder moves the order to cancelled, guarded on it not already being
// cancelled.
func (r *GormOrderRepository) CancelOrder(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	updates := map[string]interface{}{
		"status":        order.StatusCancelled,
		"cancel_status": order.CancelCompleted,
		"updated_at":    time.Now(),
	}
	if reason != "" {
		updates["cancel_reason"] = reason
	}
	result := r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ? AND status <> ?", id, order.StatusCancelled).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// AdvancePayout advances payout_status along hold → requested → paid
func (r *GormOrderRepository) AdvancePayout(ctx context.Context, id uuid.UUID, from, to order.PayoutStatus) (bool, error) {
	if !from.CanAdvanceTo(to) {
		return false, shared.ErrInvalidState
	}
	result := r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ? AND payout_status = ?", id, from).
		Updates(map[string]interface{}{
			"payout_status": to,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

var _ order.Repository = (*GormOrderRepository)(nil)
