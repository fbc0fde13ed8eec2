package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazargo/backend/internal/domain/order"
	"github.com/bazargo/backend/internal/domain/shared"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *MercadoPagoAdapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter, err := NewMercadoPagoAdapter(&MercadoPagoConfig{
		BaseURL:     server.URL,
		AccessToken: "test-token",
	})
	require.NoError(t, err)
	return adapter
}

func TestNewMercadoPagoAdapter_RequiresToken(t *testing.T) {
	_, err := NewMercadoPagoAdapter(&MercadoPagoConfig{})
	assert.ErrorIs(t, err, ErrMercadoPagoMissingToken)
}

func TestMercadoPagoAdapter_CreatePreference(t *testing.T) {
	t.Run("builds the request and returns the handle", func(t *testing.T) {
		var captured mpCreatePreferenceRequest
		adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/checkout/preferences", r.URL.Path)
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

			json.NewEncoder(w).Encode(mpPreferenceResponse{
				ID:        "pref-123",
				InitPoint: "https://mp.example/init/pref-123",
			})
		})

		pref, err := adapter.CreatePreference(context.Background(), order.CreatePreferenceRequest{
			ExternalReference: "order:abc",
			Items: []order.PreferenceItem{
				{Title: "vintage camera", Quantity: 1, UnitPriceCents: 12500},
			},
			SuccessURL:      "https://bazargo.example/return",
			NotificationURL: "https://bazargo.example/webhooks/mercadopago",
		})
		require.NoError(t, err)

		assert.Equal(t, "pref-123", pref.ID)
		assert.Equal(t, "https://mp.example/init/pref-123", pref.InitPoint)

		assert.Equal(t, "order:abc", captured.ExternalReference)
		require.Len(t, captured.Items, 1)
		assert.Equal(t, 125.0, captured.Items[0].UnitPrice) // cents to currency units
		assert.Equal(t, "approved", captured.AutoReturn)
		assert.Equal(t, "https://bazargo.example/webhooks/mercadopago", captured.NotificationURL)
	})

	t.Run("rejects empty item list", func(t *testing.T) {
		adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("no request expected")
		})

		_, err := adapter.CreatePreference(context.Background(), order.CreatePreferenceRequest{
			ExternalReference: "order:abc",
		})
		assert.Equal(t, shared.ReasonInvalidPayload, shared.ProviderReasonOf(err))
	})

	t.Run("maps API rejection", func(t *testing.T) {
		adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(mpErrorResponse{Message: "invalid items"})
		})

		_, err := adapter.CreatePreference(context.Background(), order.CreatePreferenceRequest{
			ExternalReference: "order:abc",
			Items:             []order.PreferenceItem{{Title: "x", Quantity: 1, UnitPriceCents: 100}},
		})
		require.Error(t, err)
		assert.Equal(t, shared.ReasonInvalidPayload, shared.ProviderReasonOf(err))
	})
}

func TestMercadoPagoAdapter_GetPayment(t *testing.T) {
	t.Run("maps payment fields and normalizes status", func(t *testing.T) {
		adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/payments/42", r.URL.Path)
			// the API returns the id as a number and "canceled" in US spelling
			w.Write([]byte(`{"id":42,"status":"canceled","external_reference":"order:abc"}`))
		})

		info, err := adapter.GetPayment(context.Background(), "42")
		require.NoError(t, err)
		assert.Equal(t, "42", info.ID)
		assert.Equal(t, order.PaymentCancelled, info.Status)
		assert.Equal(t, "order:abc", info.ExternalReference)
	})

	t.Run("maps 404 to not_found", func(t *testing.T) {
		adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(mpErrorResponse{Message: "payment not found"})
		})

		_, err := adapter.GetPayment(context.Background(), "999")
		require.Error(t, err)
		assert.Equal(t, shared.ReasonNotFound, shared.ProviderReasonOf(err))
	})

	t.Run("maps server errors to unavailable", func(t *testing.T) {
		adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := adapter.GetPayment(context.Background(), "42")
		require.Error(t, err)
		assert.Equal(t, shared.ReasonUnavailable, shared.ProviderReasonOf(err))
	})

	t.Run("rejects empty id without calling the API", func(t *testing.T) {
		adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("no request expected")
		})

		_, err := adapter.GetPayment(context.Background(), "")
		assert.Equal(t, shared.ReasonInvalidPayload, shared.ProviderReasonOf(err))
	})
}
