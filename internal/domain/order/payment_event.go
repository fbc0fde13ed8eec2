package order

import (
	"time"

	"github.com/google/uuid"
)

// PaymentEvent is an append-only audit row for every inbound payment
// notification, recorded before any transition is attempted. Operators read
// this trail when the webhook handler swallows an internal failure.
type PaymentEvent struct {
	ID                uuid.UUID
	Provider          string
	PaymentID         string
	Status            PaymentStatus
	ExternalReference string
	RawPayload        string
	ReceivedAt        time.Time
}

// NewPaymentEvent creates an audit row for an inbound notification
func NewPaymentEvent(provider, paymentID string, status PaymentStatus, externalReference, rawPayload string) *PaymentEvent {
	return &PaymentEvent{
		ID:                uuid.New(),
		Provider:          provider,
		PaymentID:         paymentID,
		Status:            status,
		ExternalReference: externalReference,
		RawPayload:        rawPayload,
		ReceivedAt:        time.Now(),
	}
}

// OrderEventKind classifies order audit entries
type OrderEventKind string

const (
	OrderEventUnpaidCancellation OrderEventKind = "unpaid_auction_cancellation"
	OrderEventBuyerCancelRequest OrderEventKind = "buyer_cancel_request"
	OrderEventProviderCancelled  OrderEventKind = "provider_cancelled"
	OrderEventLabelCancelFailed  OrderEventKind = "label_cancel_failed"
)

// OrderEvent is an append-only audit row attached to an order
type OrderEvent struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ActorID   *uuid.UUID
	Kind      OrderEventKind
	Detail    string
	CreatedAt time.Time
}

// NewOrderEvent creates an order audit row
func NewOrderEvent(orderID uuid.UUID, actorID *uuid.UUID, kind OrderEventKind, detail string) *OrderEvent {
	return &OrderEvent{
		ID:        uuid.New(),
		OrderID:   orderID,
		ActorID:   actorID,
		Kind:      kind,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
}
