package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bus-seat-reservation/internal/booking"
	"github.com/iliyamo/bus-seat-reservation/internal/payment"
)

// fakeDeduper remembers (provider, event_id) pairs in memory; err, when
// set, simulates an unreachable idempotency store.
type fakeDeduper struct {
	seen map[string]bool
	err  error
}

func newFakeDeduper() *fakeDeduper {
	return &fakeDeduper{seen: make(map[string]bool)}
}

func (f *fakeDeduper) MarkProcessed(_ context.Context, provider, eventID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	key := provider + ":" + eventID
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

// newWebhookServer wires the webhook route and the hold route over one
// orchestrator so tests can acquire a hold and confirm it via callback.
func newWebhookServer(t *testing.T, dedup EventDeduper) *echo.Echo {
	t.Helper()
	store := newStubStore("A1", "A2", "A3")
	locks := booking.NewTripLocks()
	ledger := booking.NewLedger(store, store, locks)
	registry := booking.NewSeatMapRegistry(store)
	holds := booking.NewHoldManager(registry, ledger, store, locks, nil, 10*time.Minute, nil)
	verifier := payment.NewHMACVerifier(map[string]string{"mtn": testSecret})
	orch := booking.NewOrchestrator(holds, ledger, verifier, nil, nil)

	e := echo.New()
	e.Validator = NewValidator()
	e.POST("/v1/trips/:id/holds", NewBookingHandler(orch).HoldSeats)
	e.POST("/v1/payments/webhook/:provider", NewWebhookHandler(orch, dedup).HandlePayment)
	return e
}

func webhookBody(holdID, eventID string) string {
	return fmt.Sprintf(
		`{"event_id":"%s","hold_id":"%s","reference":"MTN-42","amount_cents":25000,"status":"successful"}`,
		eventID, holdID)
}

// doWebhook posts the raw body with the given X-Signature header, the
// way a provider delivers callbacks.
func doWebhook(e *echo.Echo, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook/mtn", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if signature != "" {
		req.Header.Set("X-Signature", signature)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func doSignedWebhook(e *echo.Echo, body string) (int, map[string]any) {
	rec := doWebhook(e, body, payment.Sign(testSecret, []byte(body)))
	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec.Code, resp
}

func TestWebhookConfirmsHold(t *testing.T) {
	e := newWebhookServer(t, newFakeDeduper())
	holdID := holdSeats(t, e, `["A1","A2"]`)

	code, resp := doSignedWebhook(e, webhookBody(holdID, "evt-1"))
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "CONFIRMED", resp["status"])
	assert.Equal(t, float64(25000), resp["amount_cents"])
	assert.Regexp(t, `^TKT-`, resp["ticket_number"])
	assert.Equal(t, []any{"A1", "A2"}, resp["seats"])
}

func TestWebhookDuplicateAcknowledged(t *testing.T) {
	e := newWebhookServer(t, newFakeDeduper())
	holdID := holdSeats(t, e, `["A1"]`)

	code, _ := doSignedWebhook(e, webhookBody(holdID, "evt-1"))
	require.Equal(t, http.StatusCreated, code)

	// The provider retries the same event; it gets a 200 so it stops,
	// and no second confirmation is attempted.
	code, resp := doSignedWebhook(e, webhookBody(holdID, "evt-1"))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "duplicate", resp["status"])
}

func TestWebhookBadEnvelope(t *testing.T) {
	e := newWebhookServer(t, newFakeDeduper())

	// Missing event_id.
	code, _ := doSignedWebhook(e, `{"hold_id":"h-1","reference":"r"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	// Missing hold_id.
	code, _ = doSignedWebhook(e, `{"event_id":"evt-1","reference":"r"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	// Unparseable body.
	code, _ = doSignedWebhook(e, "not json")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestWebhookBadSignature(t *testing.T) {
	e := newWebhookServer(t, newFakeDeduper())
	holdID := holdSeats(t, e, `["A1"]`)

	rec := doWebhook(e, webhookBody(holdID, "evt-1"), "deadbeef")
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)

	// The failed payment released the hold.
	recHold := doJSON(e, http.MethodPost, "/v1/trips/1/holds", `{"seat_labels":["A1"]}`)
	assert.Equal(t, http.StatusCreated, recHold.Code)
}

func TestWebhookDeduperFailureStillConfirms(t *testing.T) {
	dedup := newFakeDeduper()
	dedup.err = errors.New("redis down")
	e := newWebhookServer(t, dedup)
	holdID := holdSeats(t, e, `["A1"]`)

	// With the dedup store unreachable the event is processed anyway;
	// the convert guard makes a double confirmation harmless.
	code, _ := doSignedWebhook(e, webhookBody(holdID, "evt-1"))
	assert.Equal(t, http.StatusCreated, code)

	code, _ = doSignedWebhook(e, webhookBody(holdID, "evt-1"))
	assert.Equal(t, http.StatusNotFound, code)
}
