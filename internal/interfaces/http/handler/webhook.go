package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxWebhookBody bounds how much of a webhook payload is read and archived
const maxWebhookBody = 64 << 10

// WebhookHandler receives MercadoPago payment notifications. Deliveries are
// at-least-once and unordered; the handler extracts the payment id, hands it
// to the reconciler and ACKs. The response is 200 even when processing fails:
// a non-2xx would make the provider retry a delivery whose failure is on our
// side (provider lookup down, database error), and every transition behind it
// is guarded, so a later delivery or the periodic sweep repairs the state.
type WebhookHandler struct {
	BaseHandler
	reconciler PaymentRechecker
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(reconciler PaymentRechecker, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler: NewBaseHandler(logger),
		reconciler:  reconciler,
	}
}

// webhookBody is the v2 notification payload
type webhookBody struct {
	Action string `json:"action"`
	Type   string `json:"type"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

// MercadoPago handles both the current POST body format and the legacy GET
// query format (?id=...&topic=payment).
// POST|GET /api/v1/webhooks/mercadopago
func (h *WebhookHandler) MercadoPago(c *gin.Context) {
	paymentID, topic, raw := h.extractDelivery(c)

	if topic != "" && topic != "payment" {
		// merchant_order and friends carry no payment transition
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	if paymentID == "" {
		h.logger.Warn("webhook without payment id",
			zap.String("topic", topic),
			zap.String("method", c.Request.Method),
		)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	deliveryID := c.GetHeader("x-request-id")

	if err := h.reconciler.ProcessNotification(c.Request.Context(), paymentID, deliveryID, raw); err != nil {
		h.logger.Error("webhook processing failed",
			zap.String("payment_id", paymentID),
			zap.String("delivery_id", deliveryID),
			zap.Error(err),
		)
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// extractDelivery pulls the payment id and topic out of whichever format the
// delivery uses, and returns the raw body for the audit trail.
func (h *WebhookHandler) extractDelivery(c *gin.Context) (paymentID, topic, raw string) {
	topic = c.Query("topic")
	if topic == "" {
		topic = c.Query("type")
	}

	if c.Request.Method == http.MethodGet {
		paymentID = c.Query("data.id")
		if paymentID == "" {
			paymentID = c.Query("id")
		}
		return paymentID, topic, ""
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		h.logger.Warn("failed to read webhook body", zap.Error(err))
		return "", topic, ""
	}
	raw = string(body)

	var payload webhookBody
	if err := json.Unmarshal(body, &payload); err == nil {
		paymentID = payload.Data.ID
		if topic == "" {
			topic = payload.Type
		}
	}
	if paymentID == "" {
		// some deliveries carry the id only in the query
		paymentID = c.Query("data.id")
		if paymentID == "" {
			paymentID = c.Query("id")
		}
	}
	return paymentID, topic, raw
}
