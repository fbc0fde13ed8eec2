package payment

import "encoding/json"

// mpPreferenceItem is a line item in a checkout preference request
type mpPreferenceItem struct {
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id,omitempty"`
}

// mpBackURLs are the browser return URLs after checkout
type mpBackURLs struct {
	Success string `json:"success,omitempty"`
	Failure string `json:"failure,omitempty"`
	Pending string `json:"pending,omitempty"`
}

// mpCreatePreferenceRequest is the POST /checkout/preferences payload
type mpCreatePreferenceRequest struct {
	Items             []mpPreferenceItem `json:"items"`
	ExternalReference string             `json:"external_reference"`
	BackURLs          *mpBackURLs        `json:"back_urls,omitempty"`
	NotificationURL   string             `json:"notification_url,omitempty"`
	AutoReturn        string             `json:"auto_return,omitempty"`
	Metadata          map[string]string  `json:"metadata,omitempty"`
}

// mpPreferenceResponse is the preference creation response
type mpPreferenceResponse struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

// mpPaymentResponse is the GET /v1/payments/{id} response.
// The payment id comes back as a JSON number.
type mpPaymentResponse struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"`
	StatusDetail      string      `json:"status_detail"`
	ExternalReference string      `json:"external_reference"`
	PreferenceID      string      `json:"preference_id"`
}

// mpErrorResponse is the error envelope the API returns on failures
type mpErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Status  int    `json:"status"`
}
