package shipping

import (
	"errors"
	"time"
)

const superFreteDefaultBaseURL = "https://api.superfrete.com"

// SuperFreteConfig contains configuration for the SuperFrete REST API
type SuperFreteConfig struct {
	// BaseURL is the API endpoint, overridable for tests
	BaseURL string
	// Token is the bearer token for all API calls
	Token string
	// Timeout is the per-request HTTP timeout
	Timeout time.Duration
	// UserAgent identifies the integration; the API rejects anonymous clients
	UserAgent string
	// DocumentRequiredServiceIDs lists shipping services that refuse labels
	// without the recipient's document (e.g. Mini Envios)
	DocumentRequiredServiceIDs []int
}

// Errors for configuration validation
var (
	ErrSuperFreteMissingToken = errors.New("superfrete: missing API token")
)

// Validate validates the configuration and fills defaults
func (c *SuperFreteConfig) Validate() error {
	if c.Token == "" {
		return ErrSuperFreteMissingToken
	}
	if c.BaseURL == "" {
		c.BaseURL = superFreteDefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "bazargo-backend"
	}
	return nil
}

// RequiresDocument reports whether the given service refuses labels without
// the recipient's document
func (c *SuperFreteConfig) RequiresDocument(serviceID int) bool {
	for _, id := range c.DocumentRequiredServiceIDs {
		if id == serviceID {
			return true
		}
	}
	return false
}
