package shipping

import "context"

// Party is one side of a shipment. Validation mirrors what the label
// provider rejects: full name must contain a surname, the district cannot be
// empty, and some services require the recipient's document.
type Party struct {
	Name       string `validate:"required"`
	Document   string
	Phone      string
	Email      string `validate:"omitempty,email"`
	Street     string `validate:"required"`
	Number     string `validate:"required"`
	Complement string
	District   string `validate:"required"`
	City       string `validate:"required"`
	State      string `validate:"required,len=2"`
	PostalCode string `validate:"required"`
}

// Parcel is the package being shipped
type Parcel struct {
	WeightGrams int `validate:"required,gt=0"`
	HeightCm    int `validate:"required,gt=0"`
	WidthCm     int `validate:"required,gt=0"`
	LengthCm    int `validate:"required,gt=0"`
}

// CreateLabelRequest is the cart payload sent to the label provider
type CreateLabelRequest struct {
	ServiceID     int    `validate:"required,gt=0"`
	From          Party  `validate:"required"`
	To            Party  `validate:"required"`
	Parcel        Parcel `validate:"required"`
	InsuredCents  int64
	Reference     string
	NonCommercial bool
}

// Label is the provider-side handle for a not-yet-posted shipment
type Label struct {
	ID  string
	Raw string
}

// LabelInfo is the provider's view of a label's lifecycle
type LabelInfo struct {
	Status   string
	Tracking string
	Raw      string
}

// Provider-side label statuses
const (
	LabelStatusPending   = "pending"
	LabelStatusReleased  = "released"
	LabelStatusPosted    = "posted"
	LabelStatusDelivered = "delivered"
	LabelStatusCanceled  = "canceled"
)

// Provider is the shipping-label provider lifecycle: create a label, check
// it out (purchase postage), read tracking, fetch the print link, cancel.
// Every operation here is re-driven by webhook deliveries and page refreshes,
// so callers condition each call on persisted state.
type Provider interface {
	CreateLabel(ctx context.Context, req CreateLabelRequest) (*Label, error)
	Checkout(ctx context.Context, labelID string) error
	GetOrderInfo(ctx context.Context, labelID string) (*LabelInfo, error)
	GetPrintLink(ctx context.Context, labelID string) (string, error)
	Cancel(ctx context.Context, labelID, reason string) (*LabelInfo, error)
}
