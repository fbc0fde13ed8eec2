package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInvalidBid          = NewDomainError("INVALID_BID", "Bid is below the minimum acceptable amount")
)

// ErrGuardSkip signals that a guarded transition found its condition already
// satisfied by an earlier (possibly concurrent) call. It is a recognized
// no-op, not a failure: callers log it and move on.
var ErrGuardSkip = NewDomainError("GUARD_SKIP", "Transition already applied by a previous call")

// ProviderReason is a machine-readable reason code attached to provider
// failures, so callers branch on codes instead of matching message substrings.
type ProviderReason string

const (
	ReasonInsufficientBalance ProviderReason = "insufficient_balance"
	ReasonInvalidPayload      ProviderReason = "invalid_payload"
	ReasonNotFound            ProviderReason = "not_found"
	ReasonRejected            ProviderReason = "rejected"
	ReasonUnavailable         ProviderReason = "unavailable"
)

// ProviderError represents a failed call to an external provider (payment or
// shipping). It is recorded on the affected order and is non-fatal to an
// already-committed payment.
type ProviderError struct {
	Provider   string
	Reason     ProviderReason
	Message    string
	HTTPStatus int
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Message, e.Reason)
}

// NewProviderError creates a new provider error
func NewProviderError(provider string, reason ProviderReason, message string, httpStatus int) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Reason:     reason,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// ProviderReasonOf extracts the reason code from an error chain, or "" when
// the error is not a provider error.
func ProviderReasonOf(err error) ProviderReason {
	if err == nil {
		return ""
	}
	if pe, ok := err.(*ProviderError); ok {
		return pe.Reason
	}
	return ""
}
