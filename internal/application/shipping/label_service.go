package shipping

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bazargo/backend/internal/domain/identity"
	"github.com/bazargo/backend/internal/domain/market"
	"github.com/bazargo/backend/internal/domain/notification"
	"github.com/bazargo/backend/internal/domain/order"
	"github.com/bazargo/backend/internal/domain/shared"
	"github.com/bazargo/backend/internal/domain/shipping"
)

// LabelConfig carries the label saga's policy knobs
type LabelConfig struct {
	// DefaultServiceID is the shipping service used when the order does not
	// pin one.
	DefaultServiceID int
	// BuyerApprovalWindow is how long after delivery the buyer can still
	// open a cancellation.
	BuyerApprovalWindow time.Duration
}

// LabelService runs the shipping-label saga against the external label
// provider. Provider calls are not transactional with our storage, so every
// step persists its outcome through a guarded update and every failure leaves
// the order in a state the next trigger (webhook replay, page refresh, admin
// retry) can pick up from. A created tag is immutable: all later operations
// reuse it, never create a second one.
type LabelService struct {
	orders      order.Repository
	listings    market.ListingRepository
	profiles    identity.ProfileRepository
	orderEvents order.OrderEventRepository
	provider    shipping.Provider
	notifier    notification.Sink
	cfg         LabelConfig
	logger      *zap.Logger
}

// NewLabelService creates a new LabelService
func NewLabelService(
	orders order.Repository,
	listings market.ListingRepository,
	profiles identity.ProfileRepository,
	orderEvents order.OrderEventRepository,
	provider shipping.Provider,
	notifier notification.Sink,
	cfg LabelConfig,
	logger *zap.Logger,
) *LabelService {
	return &LabelService{
		orders:      orders,
		listings:    listings,
		profiles:    profiles,
		orderEvents: orderEvents,
		provider:    provider,
		notifier:    notifier,
		cfg:         cfg,
		logger:      logger,
	}
}

// EnsureLabel creates the provider label for an order if it does not have one
// yet, then attempts the postage purchase. Safe to call from every approval
// delivery: an existing tag short-circuits, and the AssignLabel guard keeps a
// provider race from attaching two tags. Failures are recorded on the order
// and returned; the caller decides whether they are fatal (the payment
// reconciler treats them as not).
func (s *LabelService) EnsureLabel(ctx context.Context, orderID uuid.UUID) error {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}

	listing, err := s.listings.FindByID(ctx, o.ListingID)
	if err != nil {
		return err
	}
	if !listing.ShippingEnabled {
		return nil
	}

	if o.HasLabel() {
		// tag is immutable; resume the saga from where it stopped
		return s.ReleaseLabel(ctx, orderID)
	}

	if _, err := s.orders.UpdateShippingStatus(ctx, o.ID,
		[]order.ShippingStatus{order.ShippingNone}, order.ShippingLabelPending); err != nil {
		return err
	}

	req, err := s.buildLabelRequest(ctx, o, listing)
	if err != nil {
		return s.recordLabelFailure(ctx, o.ID, err)
	}

	label, err := s.provider.CreateLabel(ctx, *req)
	if err != nil {
		return s.recordLabelFailure(ctx, o.ID, err)
	}

	performed, err := s.orders.AssignLabel(ctx, o.ID, label.ID, label.Raw)
	if err != nil {
		return err
	}
	if !performed {
		// a concurrent caller won the guard; the extra provider-side label is
		// left for the operator, the order keeps the first tag
		s.logger.Warn("label already assigned, orphan tag at provider",
			zap.String("order_id", o.ID.String()),
			zap.String("orphan_tag_id", label.ID),
		)
		return nil
	}

	if _, err := s.orders.UpdateShippingStatus(ctx, o.ID,
		[]order.ShippingStatus{order.ShippingLabelPending}, order.ShippingLabelCreated); err != nil {
		return err
	}

	s.logger.Info("shipping label created",
		zap.String("order_id", o.ID.String()),
		zap.String("tag_id", label.ID),
	)

	return s.ReleaseLabel(ctx, orderID)
}

// ReleaseLabel purchases postage for the order's label and records tracking
// and the print link. An insufficient provider balance is left on the order
// as a retryable failure: topping the account up and retrying resumes here
// with the same tag.
func (s *LabelService) ReleaseLabel(ctx context.Context, orderID uuid.UUID) error {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !o.HasLabel() {
		return shared.NewDomainError("NO_LABEL", "Order has no shipping label to release")
	}
	if o.ShippingStatus != order.ShippingLabelCreated {
		return nil
	}
	tagID := *o.SuperfreteTagID

	if err := s.provider.Checkout(ctx, tagID); err != nil {
		return s.recordLabelFailure(ctx, o.ID, err)
	}

	tracking := ""
	if info, err := s.provider.GetOrderInfo(ctx, tagID); err == nil {
		tracking = info.Tracking
	} else {
		s.logger.Warn("tracking lookup after checkout failed",
			zap.String("order_id", o.ID.String()), zap.Error(err))
	}

	printURL, err := s.provider.GetPrintLink(ctx, tagID)
	if err != nil {
		s.logger.Warn("print link lookup failed",
			zap.String("order_id", o.ID.String()), zap.Error(err))
	}

	performed, err := s.orders.MarkLabelReleased(ctx, o.ID, tracking, printURL)
	if err != nil {
		return err
	}
	if !performed {
		return nil
	}

	s.logger.Info("shipping label released",
		zap.String("order_id", o.ID.String()),
		zap.String("tag_id", tagID),
	)

	s.notifier.Notify(ctx, notification.New(o.SellerID, notification.TypeShipping,
		"Shipping label ready",
		"Print the label and post the parcel before the deadline.",
		"/orders/"+o.ID.String(),
	))
	return nil
}

// CancelLabel tears the label down when the order dies. A posted parcel is
// never cancelled automatically: the order is flagged for manual action
// instead. A provider failure flags the order as cancel-failed and leaves an
// audit row; the order cancellation itself has already happened and stands.
func (s *LabelService) CancelLabel(ctx context.Context, orderID uuid.UUID, reason string) error {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !o.HasLabel() {
		return nil
	}
	if o.ShippingStatus == order.ShippingCancelled {
		return nil
	}

	if o.ShippingStatus.IsPosted() {
		s.logger.Warn("cancel requested for a posted parcel, flagging for manual action",
			zap.String("order_id", o.ID.String()))
		return s.orders.SetShippingManualAction(ctx, o.ID)
	}

	if _, err := s.provider.Cancel(ctx, *o.SuperfreteTagID, reason); err != nil {
		if setErr := s.orders.SetShippingCancelFailed(ctx, o.ID); setErr != nil {
			s.logger.Error("failed to flag label cancel failure",
				zap.String("order_id", o.ID.String()), zap.Error(setErr))
		}
		if appendErr := s.orderEvents.Append(ctx, order.NewOrderEvent(
			o.ID, nil, order.OrderEventLabelCancelFailed, err.Error(),
		)); appendErr != nil {
			s.logger.Error("failed to record label cancel failure",
				zap.String("order_id", o.ID.String()), zap.Error(appendErr))
		}
		return err
	}

	if _, err := s.orders.MarkShippingCancelled(ctx, o.ID); err != nil {
		return err
	}

	s.logger.Info("shipping label cancelled",
		zap.String("order_id", o.ID.String()),
		zap.String("reason", reason),
	)
	return nil
}

// RefreshTracking reads the provider's view of the label and promotes the
// order's shipping state. Called opportunistically from order page reads, so
// it has to tolerate being raced against itself: every promotion is guarded.
func (s *LabelService) RefreshTracking(ctx context.Context, orderID uuid.UUID) error {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !o.HasLabel() || o.ShippingStatus == order.ShippingCancelled {
		return nil
	}

	info, err := s.provider.GetOrderInfo(ctx, *o.SuperfreteTagID)
	if err != nil {
		return err
	}

	now := time.Now()
	switch info.Status {
	case shipping.LabelStatusReleased:
		if o.ShippingStatus == order.ShippingLabelCreated {
			_, err = s.orders.MarkLabelReleased(ctx, o.ID, info.Tracking, o.ShippingPrintURL)
		}
	case shipping.LabelStatusPosted:
		var performed bool
		performed, err = s.orders.MarkShipped(ctx, o.ID, now)
		if err == nil && performed {
			s.notifier.Notify(ctx, notification.New(o.BuyerID, notification.TypeShipping,
				"Your order was posted",
				"The seller posted your parcel. Track it from the order page.",
				"/orders/"+o.ID.String(),
			))
		}
	case shipping.LabelStatusDelivered:
		// a delivery observed from a released label still implies posting
		if _, err = s.orders.MarkShipped(ctx, o.ID, now); err != nil {
			return err
		}
		var performed bool
		performed, err = s.orders.MarkDelivered(ctx, o.ID, now, now.Add(s.cfg.BuyerApprovalWindow))
		if err == nil && performed {
			s.notifier.Notify(ctx, notification.New(o.BuyerID, notification.TypeShipping,
				"Your order was delivered",
				"Confirm everything arrived as expected.",
				"/orders/"+o.ID.String(),
			))
		}
	}
	return err
}

// recordLabelFailure persists a non-fatal saga failure on the order and hands
// the original error back to the caller.
func (s *LabelService) recordLabelFailure(ctx context.Context, orderID uuid.UUID, cause error) error {
	// a balance failure is recoverable: note the cause but keep the label
	// pending, the next release attempt retries the same tag
	if shared.ProviderReasonOf(cause) == shared.ReasonInsufficientBalance {
		if err := s.orders.RecordLabelRetry(ctx, orderID, cause.Error()); err != nil {
			s.logger.Error("failed to record label retry",
				zap.String("order_id", orderID.String()), zap.Error(err))
		}
		return cause
	}
	if err := s.orders.SetLabelError(ctx, orderID, cause.Error()); err != nil {
		s.logger.Error("failed to record label error",
			zap.String("order_id", orderID.String()), zap.Error(err))
	}
	return cause
}

// buildLabelRequest assembles the provider payload from the seller and buyer
// profiles and the listing's parcel dimensions.
func (s *LabelService) buildLabelRequest(ctx context.Context, o *order.Order, listing *market.Listing) (*shipping.CreateLabelRequest, error) {
	seller, err := s.profiles.FindByUserID(ctx, o.SellerID)
	if err != nil {
		return nil, errors.Join(shared.NewDomainError("SELLER_PROFILE_MISSING", "Seller profile is incomplete"), err)
	}
	buyer, err := s.profiles.FindByUserID(ctx, o.BuyerID)
	if err != nil {
		return nil, errors.Join(shared.NewDomainError("BUYER_PROFILE_MISSING", "Buyer profile is incomplete"), err)
	}

	serviceID := o.ShippingServiceID
	if serviceID == 0 {
		serviceID = s.cfg.DefaultServiceID
	}

	return &shipping.CreateLabelRequest{
		ServiceID:    serviceID,
		From:         toParty(seller),
		To:           toParty(buyer),
		Parcel:       toParcel(listing.Package),
		InsuredCents: o.AmountCents,
		Reference:    "order:" + o.ID.String(),
	}, nil
}

func toParty(p *identity.Profile) shipping.Party {
	return shipping.Party{
		Name:       p.FullName,
		Document:   p.Document,
		Phone:      p.Phone,
		Email:      p.Email,
		Street:     p.Street,
		Number:     p.Number,
		Complement: p.Complement,
		District:   p.District,
		City:       p.City,
		State:      p.State,
		PostalCode: p.PostalCode,
	}
}

func toParcel(d market.PackageDimensions) shipping.Parcel {
	return shipping.Parcel{
		WeightGrams: d.WeightGrams,
		HeightCm:    d.HeightCm,
		WidthCm:     d.WidthCm,
		LengthCm:    d.LengthCm,
	}
}
