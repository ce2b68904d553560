package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/bus-seat-reservation/internal/booking"
	"github.com/iliyamo/bus-seat-reservation/internal/pkg/logger"
)

// EventDeduper filters repeated webhook deliveries.  MarkProcessed
// records the event and reports whether this call was the first to see
// it.  payment.IdempotencyStore is the production implementation.
type EventDeduper interface {
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
}

// WebhookHandler receives payment provider callbacks.  Providers retry
// aggressively, so every event carries an event_id that is checked
// against the idempotency store before any state changes.
type WebhookHandler struct {
	Orch *booking.Orchestrator
	Idem EventDeduper
}

// NewWebhookHandler constructs a WebhookHandler.
func NewWebhookHandler(orch *booking.Orchestrator, idem EventDeduper) *WebhookHandler {
	if orch == nil || idem == nil {
		panic("nil dependency passed to NewWebhookHandler")
	}
	return &WebhookHandler{Orch: orch, Idem: idem}
}

// webhookEnvelope is the part of the callback body this handler needs;
// the verifier re-parses the raw bytes for the signed fields.
type webhookEnvelope struct {
	EventID   string `json:"event_id"`
	HoldID    string `json:"hold_id"`
	Reference string `json:"reference"`
}

// HandlePayment handles POST /v1/payments/webhook/:provider.  The raw
// body is the signed payload; the signature arrives in X-Signature.
// Duplicate events are acknowledged with 200 so providers stop
// retrying.
func (h *WebhookHandler) HandlePayment(c echo.Context) error {
	provider := c.Param("provider")
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
	}
	var env webhookEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.HoldID == "" || env.EventID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id and hold_id are required"})
	}

	first, err := h.Idem.MarkProcessed(c.Request().Context(), provider, env.EventID)
	if err != nil {
		logger.Warn("webhook idempotency check failed",
			zap.String("provider", provider), zap.Error(err))
		// Proceed: double confirmation is caught by the convert guard.
	} else if !first {
		return c.JSON(http.StatusOK, echo.Map{"status": "duplicate"})
	}

	proof := booking.PaymentProof{
		Provider:  provider,
		Reference: env.Reference,
		Signature: c.Request().Header.Get("X-Signature"),
		Payload:   raw,
	}
	res, err := h.Orch.ConfirmPayment(c.Request().Context(), env.HoldID, proof)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, reservationResponse(res))
}
