package order

import "context"

// PreferenceItem is a line item inside a payment preference
type PreferenceItem struct {
	Title          string
	Quantity       int
	UnitPriceCents int64
}

// CreatePreferenceRequest describes a checkout preference: line items, the
// URLs the buyer returns to, the webhook notification URL and an external
// reference the webhook hands back ("order:<id>" or "cart:<id>").
type CreatePreferenceRequest struct {
	ExternalReference string
	Items             []PreferenceItem
	SuccessURL        string
	FailureURL        string
	PendingURL        string
	NotificationURL   string
	Metadata          map[string]string
}

// Preference is the provider-side checkout handle
type Preference struct {
	ID        string
	InitPoint string
}

// PaymentInfo is the result of the follow-up payment lookup a webhook
// delivery triggers.
type PaymentInfo struct {
	ID                string
	Status            PaymentStatus
	ExternalReference string
	PreferenceID      string
}

// PaymentProvider is the payment gateway as seen by the core: create a
// preference at checkout time, look a payment up when the webhook only hands
// us an id. Calls are synchronous, unbounded-latency I/O; nothing is
// persisted between a provider call and its outcome.
type PaymentProvider interface {
	CreatePreference(ctx context.Context, req CreatePreferenceRequest) (*Preference, error)
	GetPayment(ctx context.Context, paymentID string) (*PaymentInfo, error)
}
