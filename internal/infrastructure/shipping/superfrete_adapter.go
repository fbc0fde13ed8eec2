package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bazargo/backend/internal/domain/shared"
	"github.com/bazargo/backend/internal/domain/shipping"
)

const superFreteProviderName = "superfrete"

// SuperFreteAdapter implements shipping.Provider against the SuperFrete REST
// API. Provider failures come back as shared.ProviderError with a
// machine-readable reason code; callers branch on the code, never on message
// text.
type SuperFreteAdapter struct {
	config     *SuperFreteConfig
	httpClient *http.Client
	validate   *validator.Validate
}

// NewSuperFreteAdapter creates a new SuperFrete adapter
func NewSuperFreteAdapter(config *SuperFreteConfig) (*SuperFreteAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &SuperFreteAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		validate: validator.New(),
	}, nil
}

// CreateLabel creates a label in the provider's cart. The payload is
// validated locally first so predictable rejections never burn an API call.
func (a *SuperFreteAdapter) CreateLabel(ctx context.Context, req shipping.CreateLabelRequest) (*shipping.Label, error) {
	if err := a.validate.Struct(req); err != nil {
		return nil, shared.NewProviderError(superFreteProviderName, shared.ReasonInvalidPayload, err.Error(), 0)
	}
	if !strings.Contains(strings.TrimSpace(req.To.Name), " ") {
		return nil, shared.NewProviderError(superFreteProviderName, shared.ReasonInvalidPayload,
			"recipient name must include a surname", 0)
	}
	if a.config.RequiresDocument(req.ServiceID) && req.To.Document == "" {
		return nil, shared.NewProviderError(superFreteProviderName, shared.ReasonInvalidPayload,
			fmt.Sprintf("service %d requires the recipient document", req.ServiceID), 0)
	}

	body := sfCartRequest{
		Service: req.ServiceID,
		From:    toSFParty(req.From),
		To:      toSFParty(req.To),
		Package: sfPackage{
			WeightKg: float64(req.Parcel.WeightGrams) / 1000.0,
			Height:   req.Parcel.HeightCm,
			Width:    req.Parcel.WidthCm,
			Length:   req.Parcel.LengthCm,
		},
		Options: sfOptions{
			InsuranceValue: float64(req.InsuredCents) / 100.0,
			NonCommercial:  req.NonCommercial,
		},
		Tag: req.Reference,
	}

	raw, resp, err := a.doRequest(ctx, http.MethodPost, "/api/v0/cart", body)
	if err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, shared.NewProviderError(superFreteProviderName, shared.ReasonRejected, "cart response missing id", 0)
	}

	return &shipping.Label{ID: resp.ID, Raw: raw}, nil
}

// Checkout purchases postage for an existing label. An account without
// balance is a structured insufficient_balance failure, left on the order for
// retry after topping up.
func (a *SuperFreteAdapter) Checkout(ctx context.Context, labelID string) error {
	_, _, err := a.doRequest(ctx, http.MethodPost, "/api/v0/checkout", sfCheckoutRequest{Orders: []string{labelID}})
	return err
}

// GetOrderInfo reads the provider's view of a label
func (a *SuperFreteAdapter) GetOrderInfo(ctx context.Context, labelID string) (*shipping.LabelInfo, error) {
	raw, resp, err := a.doRequest(ctx, http.MethodGet, "/api/v0/order/info/"+labelID, nil)
	if err != nil {
		return nil, err
	}
	return &shipping.LabelInfo{
		Status:   resp.Status,
		Tracking: resp.Tracking,
		Raw:      raw,
	}, nil
}

// GetPrintLink fetches the label's print URL
func (a *SuperFreteAdapter) GetPrintLink(ctx context.Context, labelID string) (string, error) {
	payload, err := json.Marshal(sfPrintRequest{Orders: []string{labelID}})
	if err != nil {
		return "", fmt.Errorf("superfrete: failed to marshal request: %w", err)
	}

	data, status, err := a.send(ctx, http.MethodPost, "/api/v0/tag/print", payload)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", a.asProviderError(status, data)
	}

	var resp sfPrintResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", shared.NewProviderError(superFreteProviderName, shared.ReasonInvalidPayload,
			fmt.Sprintf("failed to decode print response: %v", err), status)
	}
	return resp.URL, nil
}

// Cancel cancels a label at the provider
func (a *SuperFreteAdapter) Cancel(ctx context.Context, labelID, reason string) (*shipping.LabelInfo, error) {
	raw, resp, err := a.doRequest(ctx, http.MethodPost, "/api/v0/order/cancel", sfCancelRequest{
		Order: sfCancelOrder{ID: labelID, Description: reason},
	})
	if err != nil {
		return nil, err
	}
	return &shipping.LabelInfo{
		Status:   resp.Status,
		Tracking: resp.Tracking,
		Raw:      raw,
	}, nil
}

// doRequest sends a request and decodes the shared order envelope
func (a *SuperFreteAdapter) doRequest(ctx context.Context, method, path string, body interface{}) (string, *sfOrderResponse, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return "", nil, fmt.Errorf("superfrete: failed to marshal request: %w", err)
		}
	}

	data, status, err := a.send(ctx, method, path, payload)
	if err != nil {
		return "", nil, err
	}
	if status < 200 || status >= 300 {
		return "", nil, a.asProviderError(status, data)
	}

	var resp sfOrderResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", nil, shared.NewProviderError(superFreteProviderName, shared.ReasonInvalidPayload,
			fmt.Sprintf("failed to decode response: %v", err), status)
	}
	return string(data), &resp, nil
}

func (a *SuperFreteAdapter) send(ctx context.Context, method, path string, payload []byte) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.BaseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("superfrete: failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.config.Token)
	req.Header.Set("User-Agent", a.config.UserAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, 0, shared.NewProviderError(superFreteProviderName, shared.ReasonUnavailable, err.Error(), 0)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, shared.NewProviderError(superFreteProviderName, shared.ReasonUnavailable, err.Error(), resp.StatusCode)
	}
	return data, resp.StatusCode, nil
}

// asProviderError maps API failures onto machine-readable reason codes. The
// balance check is the one place message text is inspected; everything
// downstream sees only the code.
func (a *SuperFreteAdapter) asProviderError(status int, data []byte) error {
	var apiErr sfErrorResponse
	_ = json.Unmarshal(data, &apiErr)
	message := apiErr.Message
	if message == "" {
		message = apiErr.Error
	}
	if message == "" {
		message = http.StatusText(status)
	}

	reason := shared.ReasonRejected
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "insufficient") || strings.Contains(lower, "saldo"):
		reason = shared.ReasonInsufficientBalance
	case status == http.StatusNotFound:
		reason = shared.ReasonNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		reason = shared.ReasonInvalidPayload
	case status >= 500:
		reason = shared.ReasonUnavailable
	}

	return shared.NewProviderError(superFreteProviderName, reason, message, status)
}

func toSFParty(p shipping.Party) sfParty {
	return sfParty{
		Name:       p.Name,
		Document:   p.Document,
		Phone:      p.Phone,
		Email:      p.Email,
		Address:    p.Street,
		Number:     p.Number,
		Complement: p.Complement,
		District:   p.District,
		City:       p.City,
		StateAbbr:  p.State,
		PostalCode: p.PostalCode,
	}
}

var _ shipping.Provider = (*SuperFreteAdapter)(nil)
