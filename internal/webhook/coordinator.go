package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Tuwebai/tuwebai-sub002/internal/audit"
	"github.com/Tuwebai/tuwebai-sub002/internal/domain"
	"github.com/Tuwebai/tuwebai-sub002/internal/ledger"
)

// Delivery captures one inbound webhook request after the HTTP response has
// already been sent. Everything here is untrusted.
type Delivery struct {
	Body       []byte
	Headers    http.Header
	Signature  string // x-signature header, may be empty
	RequestID  string
	RemoteIP   string
	ReceivedAt time.Time
}

// Coordinator runs the webhook processing pipeline. The HTTP handler
// acknowledges the provider first and then calls Process on a detached
// goroutine; from that point every outcome is observable only through the
// audit sink, never through an HTTP response.
type Coordinator struct {
	gateway       domain.PaymentGateway
	ledger        ledger.Store
	audit         audit.Sink
	secret        string
	credentialSet bool
}

// NewCoordinator wires the pipeline. secret may be empty, in which case
// signature verification is skipped; credentialSet reports whether the
// Mercado Pago access token is configured.
func NewCoordinator(gateway domain.PaymentGateway, store ledger.Store, sink audit.Sink, secret string, credentialSet bool) *Coordinator {
	return &Coordinator{
		gateway:       gateway,
		ledger:        store,
		audit:         sink,
		secret:        secret,
		credentialSet: credentialSet,
	}
}

// Process runs the pipeline for one delivery:
// audit raw delivery, verify signature, filter event type, claim idempotency,
// fetch authoritative payment details, audit the outcome. Each stage exits
// early on failure; nothing propagates to any caller.
func (c *Coordinator) Process(ctx context.Context, d Delivery) {
	// Process runs on a detached goroutine outside any HTTP middleware, so a
	// panic here would take down the whole server.
	defer func() {
		if r := recover(); r != nil {
			c.audit.Record("webhook_panic", map[string]any{
				"request_id": d.RequestID,
				"panic":      fmt.Sprint(r),
			})
		}
	}()

	c.audit.Record("webhook_received", map[string]any{
		"request_id":              d.RequestID,
		"remote_ip":               d.RemoteIP,
		"headers":                 d.Headers,
		"body":                    string(d.Body),
		"signature_present":       d.Signature != "",
		"signature_check_enabled": c.secret != "",
	})

	if c.secret != "" {
		if !VerifySignature(d.Body, d.Signature, c.secret) {
			c.audit.Record("webhook_invalid_signature", map[string]any{
				"request_id": d.RequestID,
				"remote_ip":  d.RemoteIP,
			})
			return
		}
	}

	var event domain.WebhookEvent
	if err := json.Unmarshal(d.Body, &event); err != nil || event.Type == "" || event.Data.ID == "" {
		fields := map[string]any{"request_id": d.RequestID}
		if err != nil {
			fields["error"] = err.Error()
		}
		c.audit.Record("webhook_malformed", fields)
		return
	}

	if event.Type != "payment" {
		// Non-payment notifications are expected traffic, not errors.
		c.audit.Record("webhook_ignored_event", map[string]any{
			"request_id": d.RequestID,
			"event_type": event.Type,
		})
		return
	}

	claimed, err := c.ledger.Claim(ctx, event.Data.ID, map[string]any{
		"request_id": d.RequestID,
		"remote_ip":  d.RemoteIP,
	})
	if err != nil {
		// Without a working ledger we cannot guarantee at-most-once side
		// effects, so processing stops here and the provider's redelivery
		// gets another chance.
		c.audit.Record("webhook_processing_failed", map[string]any{
			"request_id": d.RequestID,
			"payment_id": event.Data.ID,
			"stage":      "claim",
			"error":      err.Error(),
		})
		return
	}
	if !claimed {
		c.audit.Record("webhook_duplicate_ignored", map[string]any{
			"request_id": d.RequestID,
			"payment_id": event.Data.ID,
		})
		return
	}

	if !c.credentialSet || c.gateway == nil {
		c.audit.Record("webhook_config_error", map[string]any{
			"request_id": d.RequestID,
			"payment_id": event.Data.ID,
			"error":      domain.ErrMissingCredential.Error(),
		})
		return
	}

	details, err := c.gateway.GetPaymentDetails(ctx, event.Data.ID)
	if err != nil {
		c.audit.Record("webhook_processing_failed", map[string]any{
			"request_id": d.RequestID,
			"payment_id": event.Data.ID,
			"stage":      "payment_lookup",
			"timeout":    errors.Is(err, domain.ErrGatewayTimeout),
			"error":      err.Error(),
		})
		// The claim is already committed and is never released, so a later
		// redelivery will be treated as a duplicate. Flag the payment for
		// the reconciliation sweep instead.
		c.audit.Record("webhook_reconcile_required", map[string]any{
			"payment_id": event.Data.ID,
		})
		return
	}

	c.audit.Record("webhook_processed", map[string]any{
		"request_id":         d.RequestID,
		"payment_id":         details.PaymentID,
		"status":             details.Status,
		"status_detail":      details.StatusDetail,
		"transaction_amount": details.TransactionAmount,
		"currency_id":        details.Currency,
		"payment_method_id":  details.PaymentMethodID,
		"payer_email":        details.PayerEmail,
		"external_reference": details.ExternalReference,
		"elapsed_ms":         time.Since(d.ReceivedAt).Milliseconds(),
	})
}
