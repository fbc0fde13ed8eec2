package order

import "strings"

// PaymentStatus is the provider-reported payment state consumed by the
// reconciler. Delivery is at-least-once and possibly out of order; every
// transition derived from it is guarded at the storage layer.
type PaymentStatus string

const (
	PaymentApproved    PaymentStatus = "approved"
	PaymentPending     PaymentStatus = "pending"
	PaymentInProcess   PaymentStatus = "in_process"
	PaymentRejected    PaymentStatus = "rejected"
	PaymentRefunded    PaymentStatus = "refunded"
	PaymentCancelled   PaymentStatus = "cancelled"
	PaymentChargedBack PaymentStatus = "charged_back"
	PaymentUnknown     PaymentStatus = "unknown"
)

// NormalizePaymentStatus maps raw provider strings (including the US spelling
// "canceled") onto the known set.
func NormalizePaymentStatus(raw string) PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approved":
		return PaymentApproved
	case "pending":
		return PaymentPending
	case "in_process", "in_mediation":
		return PaymentInProcess
	case "rejected":
		return PaymentRejected
	case "refunded":
		return PaymentRefunded
	case "cancelled", "canceled":
		return PaymentCancelled
	case "charged_back", "chargeback":
		return PaymentChargedBack
	}
	return PaymentUnknown
}

// IsTerminalNegative reports the statuses that cancel an order outright
func (s PaymentStatus) IsTerminalNegative() bool {
	return s == PaymentRefunded || s == PaymentCancelled || s == PaymentChargedBack
}
