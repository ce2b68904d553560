// Package payment adapts external payment providers into the boolean
// gate the booking core expects.  Providers deliver a signed payload;
// verification is an HMAC-SHA256 check against the provider's shared
// secret, so no network round-trip happens here.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/bus-seat-reservation/internal/booking"
)

var (
	// ErrUnknownProvider is returned for providers without a configured
	// secret.
	ErrUnknownProvider = errors.New("unknown payment provider")
	// ErrBadSignature is returned when the payload signature does not
	// match the provider secret.
	ErrBadSignature = errors.New("invalid payment signature")
	// ErrDeclined is returned when the provider reports the payment as
	// anything but successful.
	ErrDeclined = errors.New("payment declined by provider")
)

// payload is the provider-agnostic callback body.  Providers differ in
// envelope details upstream; the gateway normalizes to this shape.
type payload struct {
	Reference   string `json:"reference"`
	AmountCents uint32 `json:"amount_cents"`
	Status      string `json:"status"`
}

// HMACVerifier verifies provider payloads against per-provider shared
// secrets (e.g. flutterwave, mtn, airtel).
type HMACVerifier struct {
	secrets map[string]string // provider name (lowercase) -> secret
}

// NewHMACVerifier builds a verifier from the configured secrets.
// Providers with empty secrets are dropped, effectively disabling them.
func NewHMACVerifier(secrets map[string]string) *HMACVerifier {
	s := make(map[string]string, len(secrets))
	for name, secret := range secrets {
		if secret != "" {
			s[strings.ToLower(name)] = secret
		}
	}
	return &HMACVerifier{secrets: s}
}

// Verify checks the proof's signature and provider-reported status and
// returns the verified amount and reference.  Any error means the
// proof was rejected; the orchestrator maps that to PaymentFailed.
func (v *HMACVerifier) Verify(_ context.Context, proof booking.PaymentProof) (booking.VerifiedPayment, error) {
	secret, ok := v.secrets[strings.ToLower(proof.Provider)]
	if !ok {
		return booking.VerifiedPayment{}, fmt.Errorf("%w: %s", ErrUnknownProvider, proof.Provider)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(proof.Payload)
	computed := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(computed), []byte(strings.ToLower(proof.Signature))) {
		return booking.VerifiedPayment{}, ErrBadSignature
	}

	var p payload
	if err := json.Unmarshal(proof.Payload, &p); err != nil {
		return booking.VerifiedPayment{}, fmt.Errorf("malformed payment payload: %w", err)
	}
	if !strings.EqualFold(p.Status, "successful") {
		return booking.VerifiedPayment{}, fmt.Errorf("%w: status=%s", ErrDeclined, p.Status)
	}
	ref := p.Reference
	if ref == "" {
		ref = proof.Reference
	}
	return booking.VerifiedPayment{AmountCents: p.AmountCents, Reference: ref}, nil
}

// Sign computes the signature a provider would attach to a payload.
// Used by tests and by the sandbox replay tooling.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
