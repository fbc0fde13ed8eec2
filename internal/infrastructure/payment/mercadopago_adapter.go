package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bazargo/backend/internal/domain/order"
	"github.com/bazargo/backend/internal/domain/shared"
)

const mercadoPagoProviderName = "mercadopago"

// MercadoPagoAdapter implements order.PaymentProvider against the Mercado
// Pago REST API.
type MercadoPagoAdapter struct {
	config     *MercadoPagoConfig
	httpClient *http.Client
}

// NewMercadoPagoAdapter creates a new Mercado Pago adapter
func NewMercadoPagoAdapter(config *MercadoPagoConfig) (*MercadoPagoAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &MercadoPagoAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// CreatePreference creates a checkout preference. The external reference is
// handed back verbatim by webhook deliveries and is the only join key between
// provider payments and our orders.
func (a *MercadoPagoAdapter) CreatePreference(ctx context.Context, req order.CreatePreferenceRequest) (*order.Preference, error) {
	if len(req.Items) == 0 {
		return nil, shared.NewProviderError(mercadoPagoProviderName, shared.ReasonInvalidPayload, "preference requires at least one item", 0)
	}

	body := mpCreatePreferenceRequest{
		ExternalReference: req.ExternalReference,
		NotificationURL:   req.NotificationURL,
		Metadata:          req.Metadata,
	}
	for _, item := range req.Items {
		body.Items = append(body.Items, mpPreferenceItem{
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: float64(item.UnitPriceCents) / 100.0,
		})
	}
	if req.SuccessURL != "" || req.FailureURL != "" || req.PendingURL != "" {
		body.BackURLs = &mpBackURLs{
			Success: req.SuccessURL,
			Failure: req.FailureURL,
			Pending: req.PendingURL,
		}
		if req.SuccessURL != "" {
			body.AutoReturn = "approved"
		}
	}

	var resp mpPreferenceResponse
	if err := a.doRequest(ctx, http.MethodPost, "/checkout/preferences", body, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, shared.NewProviderError(mercadoPagoProviderName, shared.ReasonRejected, "preference response missing id", 0)
	}

	return &order.Preference{
		ID:        resp.ID,
		InitPoint: resp.InitPoint,
	}, nil
}

// GetPayment looks up a payment by id. Webhook deliveries only carry the
// payment id; the status and external reference come from this call.
func (a *MercadoPagoAdapter) GetPayment(ctx context.Context, paymentID string) (*order.PaymentInfo, error) {
	if paymentID == "" {
		return nil, shared.NewProviderError(mercadoPagoProviderName, shared.ReasonInvalidPayload, "payment id is empty", 0)
	}

	var resp mpPaymentResponse
	if err := a.doRequest(ctx, http.MethodGet, "/v1/payments/"+paymentID, nil, &resp); err != nil {
		return nil, err
	}

	return &order.PaymentInfo{
		ID:                resp.ID.String(),
		Status:            order.NormalizePaymentStatus(resp.Status),
		ExternalReference: resp.ExternalReference,
		PreferenceID:      resp.PreferenceID,
	}, nil
}

func (a *MercadoPagoAdapter) doRequest(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("mercadopago: failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("mercadopago: failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.config.AccessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return shared.NewProviderError(mercadoPagoProviderName, shared.ReasonUnavailable, err.Error(), 0)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return shared.NewProviderError(mercadoPagoProviderName, shared.ReasonUnavailable, err.Error(), resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return a.asProviderError(resp.StatusCode, data)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return shared.NewProviderError(mercadoPagoProviderName, shared.ReasonInvalidPayload,
				fmt.Sprintf("failed to decode response: %v", err), resp.StatusCode)
		}
	}
	return nil
}

// asProviderError maps API failures onto machine-readable reason codes
func (a *MercadoPagoAdapter) asProviderError(status int, data []byte) error {
	var apiErr mpErrorResponse
	_ = json.Unmarshal(data, &apiErr)
	message := apiErr.Message
	if message == "" {
		message = http.StatusText(status)
	}

	reason := shared.ReasonRejected
	switch {
	case status == http.StatusNotFound:
		reason = shared.ReasonNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		reason = shared.ReasonInvalidPayload
	case status >= 500:
		reason = shared.ReasonUnavailable
	}

	return shared.NewProviderError(mercadoPagoProviderName, reason, message, status)
}

var _ order.PaymentProvider = (*MercadoPagoAdapter)(nil)
