package cancellation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bazargo/backend/internal/domain/identity"
	"github.com/bazargo/backend/internal/domain/notification"
	"github.com/bazargo/backend/internal/domain/order"
	"github.com/bazargo/backend/internal/domain/shared"
)

// CancellationService handles the two human-initiated cancellation paths:
// the buyer opening a cancellation request and the seller cancelling an
// auction order the winner never paid. Provider-driven cancellations
// (refunds, chargebacks) run through the payment reconciler instead.
type CancellationService struct {
	orders      order.Repository
	orderEvents order.OrderEventRepository
	profiles    identity.ProfileRepository
	notifier    notification.Sink
	logger      *zap.Logger
}

// NewCancellationService creates a new CancellationService
func NewCancellationService(
	orders order.Repository,
	orderEvents order.OrderEventRepository,
	profiles identity.ProfileRepository,
	notifier notification.Sink,
	logger *zap.Logger,
) *CancellationService {
	return &CancellationService{
		orders:      orders,
		orderEvents: orderEvents,
		profiles:    profiles,
		notifier:    notifier,
		logger:      logger,
	}
}

// RequestBuyerCancellation opens a cancellation request on the order. The
// request is a flag, not a cancellation: the actual refund arrives later as a
// provider webhook and is applied by the reconciler, which also tears the
// label down. The label is deliberately untouched here.
func (s *CancellationService) RequestBuyerCancellation(ctx context.Context, orderID, buyerID uuid.UUID, reason string) error {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}

	now := time.Now()
	if err := o.ValidateBuyerCancellation(buyerID, now); err != nil {
		return err
	}

	performed, err := s.orders.RequestCancellation(ctx, o.ID, buyerID, reason, now)
	if err != nil {
		return err
	}
	if !performed {
		return shared.ErrGuardSkip
	}

	if err := s.orderEvents.Append(ctx, order.NewOrderEvent(
		o.ID, &buyerID, order.OrderEventBuyerCancelRequest, reason,
	)); err != nil {
		s.logger.Error("failed to record cancellation request",
			zap.String("order_id", o.ID.String()), zap.Error(err))
	}

	s.logger.Info("buyer cancellation requested",
		zap.String("order_id", o.ID.String()),
		zap.String("buyer_id", buyerID.String()),
	)

	link := "/orders/" + o.ID.String()
	s.notifier.Notify(ctx, notification.New(o.SellerID, notification.TypeCancel,
		"Cancellation requested",
		"The buyer asked to cancel this order. Review the request.",
		link,
	))
	s.notifyAdmins(ctx, "Cancellation requested",
		fmt.Sprintf("Order %s has an open cancellation request.", o.ID), link)
	return nil
}

// CancelUnpaidAuctionOrder cancels an auction winner order whose payment
// window elapsed without a payment. Seller-only, and rejected while the
// deadline has not passed; a payment id on the order blocks it entirely, as
// the payment may still land.
func (s *CancellationService) CancelUnpaidAuctionOrder(ctx context.Context, orderID, sellerID uuid.UUID) error {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}

	if err := o.ValidateUnpaidAuctionCancellation(sellerID, time.Now()); err != nil {
		return err
	}

	performed, err := s.orders.CancelOrder(ctx, o.ID, "auction payment window elapsed")
	if err != nil {
		return err
	}
	if !performed {
		return shared.ErrGuardSkip
	}

	if err := s.orderEvents.Append(ctx, order.NewOrderEvent(
		o.ID, &sellerID, order.OrderEventUnpaidCancellation, "auction payment window elapsed",
	)); err != nil {
		s.logger.Error("failed to record unpaid cancellation",
			zap.String("order_id", o.ID.String()), zap.Error(err))
	}

	s.logger.Info("unpaid auction order cancelled",
		zap.String("order_id", o.ID.String()),
		zap.String("seller_id", sellerID.String()),
	)

	link := "/orders/" + o.ID.String()
	s.notifier.Notify(ctx, notification.New(o.BuyerID, notification.TypeCancel,
		"Order cancelled",
		"The payment window elapsed and the seller cancelled the order.",
		link,
	))
	s.notifyAdmins(ctx, "Unpaid auction order cancelled",
		fmt.Sprintf("Order %s was cancelled for non-payment.", o.ID), link)
	return nil
}

func (s *CancellationService) notifyAdmins(ctx context.Context, title, body, link string) {
	admins, err := s.profiles.FindAdmins(ctx)
	if err != nil {
		s.logger.Warn("admin lookup for notification failed", zap.Error(err))
		return
	}
	for i := range admins {
		s.notifier.Notify(ctx, notification.New(admins[i].UserID, notification.TypeCancel, title, body, link))
	}
}
