package payment

import (
	"errors"
	"time"
)

const mercadoPagoDefaultBaseURL = "https://api.mercadopago.com"

// MercadoPagoConfig contains configuration for the Mercado Pago REST API
type MercadoPagoConfig struct {
	// BaseURL is the API endpoint, overridable for tests
	BaseURL string
	// AccessToken is the bearer token for all API calls
	AccessToken string
	// Timeout is the per-request HTTP timeout
	Timeout time.Duration
}

// Errors for configuration validation
var (
	ErrMercadoPagoMissingToken = errors.New("mercadopago: missing access token")
)

// Validate validates the configuration and fills defaults
func (c *MercadoPagoConfig) Validate() error {
	if c.AccessToken == "" {
		return ErrMercadoPagoMissingToken
	}
	if c.BaseURL == "" {
		c.BaseURL = mercadoPagoDefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	return nil
}
