package order

// OrderStatus represents the authoritative state of an order.
// Transitions are monotonic: pending → approved → (shipped → delivered) |
// cancelled; dispute is entered from delivered.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusApproved  OrderStatus = "approved"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
	StatusDispute   OrderStatus = "dispute"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusShipped, StatusDelivered, StatusCancelled, StatusDispute:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case StatusPending:
		return target == StatusApproved || target == StatusCancelled
	case StatusApproved:
		return target == StatusShipped || target == StatusCancelled
	case StatusShipped:
		return target == StatusDelivered
	case StatusDelivered:
		return target == StatusDispute || target == StatusCancelled
	case StatusCancelled, StatusDispute:
		return false
	}
	return false
}

// ShippingStatus tracks the label saga per order:
// none → label_pending → label_created → released → shipped → delivered,
// with cancelled reachable until the parcel is posted.
type ShippingStatus string

const (
	ShippingNone         ShippingStatus = "none"
	ShippingLabelPending ShippingStatus = "label_pending"
	ShippingLabelCreated ShippingStatus = "label_created"
	ShippingReleased     ShippingStatus = "released"
	ShippingShipped      ShippingStatus = "shipped"
	ShippingDelivered    ShippingStatus = "delivered"
	ShippingCancelled    ShippingStatus = "cancelled"
)

// IsPosted reports whether the parcel already left the seller; once posted,
// labels are never cancelled automatically.
func (s ShippingStatus) IsPosted() bool {
	return s == ShippingShipped || s == ShippingDelivered
}

// PayoutStatus only ever advances hold → requested → paid
type PayoutStatus string

const (
	PayoutHold      PayoutStatus = "hold"
	PayoutRequested PayoutStatus = "requested"
	PayoutPaid      PayoutStatus = "paid"
)

// CanAdvanceTo checks the hold → requested → paid progression
func (s PayoutStatus) CanAdvanceTo(target PayoutStatus) bool {
	switch s {
	case PayoutHold:
		return target == PayoutRequested
	case PayoutRequested:
		return target == PayoutPaid
	}
	return false
}

// CancelStatus tracks buyer/seller cancellation requests on an order
type CancelStatus string

const (
	CancelNone      CancelStatus = "none"
	CancelRequested CancelStatus = "requested"
	CancelCompleted CancelStatus = "completed"
)

// OrderSource records how the order came to exist
type OrderSource string

const (
	SourceCheckout OrderSource = "checkout"
	SourceAuction  OrderSource = "auction"
)

// LabelStatus is the shipping-provider side status recorded on the order
type LabelStatus string

const (
	LabelStatusNone     LabelStatus = ""
	LabelStatusPending  LabelStatus = "pending"
	LabelStatusReleased LabelStatus = "released"
	LabelStatusError    LabelStatus = "error"
)
