package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bazargo/backend/internal/domain/identity"
	"github.com/bazargo/backend/internal/domain/market"
	"github.com/bazargo/backend/internal/domain/notification"
	"github.com/bazargo/backend/internal/domain/order"
	"github.com/bazargo/backend/internal/domain/shared"
)

// LabelSaga is the shipping side of payment reconciliation: approval kicks off
// label creation, a provider-side cancellation tears the label down. Both are
// best-effort from the reconciler's point of view; the saga owns its own
// recovery.
type LabelSaga interface {
	EnsureLabel(ctx context.Context, orderID uuid.UUID) error
	CancelLabel(ctx context.Context, orderID uuid.UUID, reason string) error
}

// ReconcilerConfig carries the reconciler's policy knobs
type ReconcilerConfig struct {
	// SellerPostWindow is how long the seller has to post after approval
	SellerPostWindow time.Duration
	// DeliveryTTL bounds how long processed delivery ids are remembered
	DeliveryTTL time.Duration
}

// ReconcilerService turns at-least-once, possibly out-of-order payment
// notifications into exactly-once order transitions. The delivery-id store is
// a cheap duplicate filter; correctness rests on the conditional update guards
// in the order repository, so a lost store entry costs one redundant provider
// lookup, never a double transition.
type ReconcilerService struct {
	orders      order.Repository
	carts       order.CartCheckoutRepository
	listings    market.ListingRepository
	events      order.PaymentEventRepository
	orderEvents order.OrderEventRepository
	provider    order.PaymentProvider
	deliveries  shared.IdempotencyStore
	labels      LabelSaga
	notifier    notification.Sink
	profiles    identity.ProfileRepository
	cfg         ReconcilerConfig
	logger      *zap.Logger
}

// NewReconcilerService creates a new ReconcilerService
func NewReconcilerService(
	orders order.Repository,
	carts order.CartCheckoutRepository,
	listings market.ListingRepository,
	events order.PaymentEventRepository,
	orderEvents order.OrderEventRepository,
	provider order.PaymentProvider,
	deliveries shared.IdempotencyStore,
	labels LabelSaga,
	notifier notification.Sink,
	profiles identity.ProfileRepository,
	cfg ReconcilerConfig,
	logger *zap.Logger,
) *ReconcilerService {
	return &ReconcilerService{
		orders:      orders,
		carts:       carts,
		listings:    listings,
		events:      events,
		orderEvents: orderEvents,
		provider:    provider,
		deliveries:  deliveries,
		labels:      labels,
		notifier:    notifier,
		profiles:    profiles,
		cfg:         cfg,
		logger:      logger,
	}
}

// ProcessNotification handles one inbound payment notification: duplicate
// filter, provider lookup, audit row, then the status transition. A provider
// lookup failure aborts before any mutation; the webhook handler still ACKs
// and the provider retries later. deliveryID may be empty for manual rechecks
// (checkout return page, admin resync), which skip the duplicate filter.
func (s *ReconcilerService) ProcessNotification(ctx context.Context, paymentID, deliveryID, rawPayload string) error {
	if paymentID == "" {
		return shared.ErrInvalidInput
	}

	if deliveryID != "" {
		fresh, err := s.deliveries.MarkProcessed(ctx, deliveryID, s.cfg.DeliveryTTL)
		if err != nil {
			// fast path only; fall through to the guarded transition
			s.logger.Warn("idempotency store unavailable", zap.Error(err))
		} else if !fresh {
			s.logger.Debug("duplicate delivery skipped", zap.String("delivery_id", deliveryID))
			return nil
		}
	}

	info, err := s.provider.GetPayment(ctx, paymentID)
	if err != nil {
		s.logger.Error("payment lookup failed",
			zap.String("payment_id", paymentID),
			zap.Error(err),
		)
		return err
	}

	if err := s.events.Append(ctx, order.NewPaymentEvent(
		"mercadopago", info.ID, info.Status, info.ExternalReference, rawPayload,
	)); err != nil {
		// the audit row must exist before any transition is attempted
		return err
	}

	return s.ApplyPaymentStatus(ctx, info.ExternalReference, info.Status, info.ID, info.PreferenceID)
}

// ApplyPaymentStatus resolves the external reference to its member order(s)
// and applies the status to each independently. A cart reference fans out: the
// group approval is mirrored on the cart row, then every member order goes
// through the same guarded per-order path as a single checkout.
func (s *ReconcilerService) ApplyPaymentStatus(ctx context.Context, externalReference string, status order.PaymentStatus, paymentID, preferenceID string) error {
	kind, id, err := parseReference(externalReference)
	if err != nil {
		return err
	}

	if kind == refOrder {
		o, err := s.orders.FindByID(ctx, id)
		if err != nil {
			return err
		}
		return s.applyToOrder(ctx, o, status, paymentID, preferenceID)
	}

	members, err := s.orders.FindByCartCheckoutID(ctx, id)
	if err != nil {
		return err
	}
	if status == order.PaymentApproved {
		if _, err := s.carts.MarkApproved(ctx, id, time.Now(), paymentID); err != nil {
			return err
		}
	}

	var errs []error
	for i := range members {
		if err := s.applyToOrder(ctx, &members[i], status, paymentID, preferenceID); err != nil {
			s.logger.Error("cart member reconciliation failed",
				zap.String("cart_id", id.String()),
				zap.String("order_id", members[i].ID.String()),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *ReconcilerService) applyToOrder(ctx context.Context, o *order.Order, status order.PaymentStatus, paymentID, preferenceID string) error {
	switch {
	case status == order.PaymentApproved:
		return s.approve(ctx, o, paymentID, preferenceID)
	case status.IsTerminalNegative():
		return s.cancelFromProvider(ctx, o, status, paymentID, preferenceID)
	case status == order.PaymentPending || status == order.PaymentInProcess || status == order.PaymentRejected:
		// recorded for visibility, no state transition; a rejected payment can
		// still be retried against the same preference
		return s.orders.RecordPayment(ctx, o.ID, paymentID, preferenceID)
	default:
		s.logger.Warn("unknown payment status ignored",
			zap.String("order_id", o.ID.String()),
			zap.String("status", string(status)),
		)
		return nil
	}
}

// approve applies the approval transition once. The MarkApproved guard makes
// every side effect below it exactly-once: of N concurrent deliveries for the
// same payment, one performs and the rest observe performed=false.
func (s *ReconcilerService) approve(ctx context.Context, o *order.Order, paymentID, preferenceID string) error {
	now := time.Now()
	performed, err := s.orders.MarkApproved(ctx, o.ID, order.ApproveUpdate{
		ApprovedAt:             now,
		PaymentID:              paymentID,
		PreferenceID:           preferenceID,
		ShippingPostDeadlineAt: now.Add(s.cfg.SellerPostWindow),
	})
	if err != nil {
		return err
	}
	if !performed {
		s.logger.Debug("approval already applied", zap.String("order_id", o.ID.String()))
		return nil
	}

	if err := s.listings.DecrementQuantity(ctx, o.ListingID, o.Quantity); err != nil {
		// approval is already committed; the quantity drift is logged for the
		// operator rather than unwinding the payment
		s.logger.Error("failed to decrement listing quantity",
			zap.String("listing_id", o.ListingID.String()),
			zap.String("order_id", o.ID.String()),
			zap.Error(err),
		)
	}

	s.logger.Info("payment approved",
		zap.String("order_id", o.ID.String()),
		zap.String("payment_id", paymentID),
	)

	link := "/orders/" + o.ID.String()
	s.notifier.Notify(ctx, notification.New(o.BuyerID, notification.TypePayment,
		"Payment confirmed",
		"Your payment was approved. The seller is preparing your order.",
		link,
	))
	s.notifier.Notify(ctx, notification.New(o.SellerID, notification.TypePayment,
		"You made a sale",
		"Payment received. Post the parcel before the deadline.",
		link,
	))
	s.notifyAdmins(ctx, "Order paid",
		fmt.Sprintf("Order %s was paid (%s).", o.ID, paymentID), link)

	if err := s.labels.EnsureLabel(ctx, o.ID); err != nil {
		// never fails the payment; the saga records the failure on the order
		s.logger.Error("label creation after approval failed",
			zap.String("order_id", o.ID.String()),
			zap.Error(err),
		)
	}
	return nil
}

// cancelFromProvider handles refunded / cancelled / charged_back. The cancel
// is guarded, so a replayed terminal delivery is a no-op.
func (s *ReconcilerService) cancelFromProvider(ctx context.Context, o *order.Order, status order.PaymentStatus, paymentID, preferenceID string) error {
	if err := s.orders.RecordPayment(ctx, o.ID, paymentID, preferenceID); err != nil {
		return err
	}

	reason := "payment " + string(status)
	performed, err := s.orders.CancelOrder(ctx, o.ID, reason)
	if err != nil {
		return err
	}
	if !performed {
		return nil
	}

	if err := s.orderEvents.Append(ctx, order.NewOrderEvent(
		o.ID, nil, order.OrderEventProviderCancelled, reason,
	)); err != nil {
		s.logger.Error("failed to record cancellation event",
			zap.String("order_id", o.ID.String()), zap.Error(err))
	}

	if err := s.labels.CancelLabel(ctx, o.ID, reason); err != nil {
		s.logger.Error("label cancellation after provider cancel failed",
			zap.String("order_id", o.ID.String()),
			zap.Error(err),
		)
	}

	link := "/orders/" + o.ID.String()
	s.notifier.Notify(ctx, notification.New(o.BuyerID, notification.TypePayment,
		"Payment "+string(status),
		fmt.Sprintf("Your payment was reported as %s and the order was cancelled.", status),
		link,
	))
	s.notifier.Notify(ctx, notification.New(o.SellerID, notification.TypePayment,
		"Order cancelled",
		fmt.Sprintf("The buyer's payment was reported as %s; the order was cancelled.", status),
		link,
	))
	return nil
}

// notifyAdmins fans a notification out to every admin profile; lookup
// failures are logged and swallowed.
func (s *ReconcilerService) notifyAdmins(ctx context.Context, title, body, link string) {
	admins, err := s.profiles.FindAdmins(ctx)
	if err != nil {
		s.logger.Warn("admin lookup for notification failed", zap.Error(err))
		return
	}
	for i := range admins {
		s.notifier.Notify(ctx, notification.New(admins[i].UserID, notification.TypePayment, title, body, link))
	}
}

type referenceKind int

const (
	refOrder referenceKind = iota
	refCart
)

// parseReference splits "order:<uuid>" / "cart:<uuid>" external references
func parseReference(ref string) (referenceKind, uuid.UUID, error) {
	kind, rawID, found := strings.Cut(ref, ":")
	if !found {
		return 0, uuid.Nil, shared.NewDomainError("BAD_REFERENCE", "Unrecognized external reference")
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return 0, uuid.Nil, shared.NewDomainError("BAD_REFERENCE", "External reference id is not a UUID")
	}
	switch kind {
	case "order":
		return refOrder, id, nil
	case "cart":
		return refCart, id, nil
	}
	return 0, uuid.Nil, shared.NewDomainError("BAD_REFERENCE", "Unrecognized external reference")
}
