// Package mercadopago implements the domain.PaymentGateway interface using
// the official Mercado Pago SDK, wrapping every call in a fixed timeout and
// a small bounded retry policy.
package mercadopago

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	sdkconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"

	"github.com/Tuwebai/tuwebai-sub002/internal/audit"
	"github.com/Tuwebai/tuwebai-sub002/internal/domain"
)

// Narrow views of the SDK clients, satisfied by preference.Client and
// payment.Client and replaceable in tests.
type preferenceAPI interface {
	Create(ctx context.Context, request preference.Request) (*preference.Response, error)
}

type paymentAPI interface {
	Get(ctx context.Context, id int) (*payment.Response, error)
}

// Options configures the client.
type Options struct {
	AccessToken   string
	Timeout       time.Duration // per-attempt deadline
	RetryAttempts int           // total attempts, not extra retries
	RetryDelay    time.Duration // fixed inter-attempt delay, no backoff
	Audit         audit.Sink
}

// Client implements domain.PaymentGateway.
type Client struct {
	preferences preferenceAPI
	payments    paymentAPI
	timeout     time.Duration
	attempts    int
	delay       time.Duration
	audit       audit.Sink
}

// NewClient creates a gateway client. It fails when the access token is
// missing; callers that must keep serving without a credential should handle
// that before construction.
func NewClient(opts Options) (*Client, error) {
	if opts.AccessToken == "" {
		return nil, domain.ErrMissingCredential
	}

	cfg, err := sdkconfig.New(opts.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create MP config: %w", err)
	}

	c := &Client{
		preferences: preference.NewClient(cfg),
		payments:    payment.NewClient(cfg),
		timeout:     opts.Timeout,
		attempts:    opts.RetryAttempts,
		delay:       opts.RetryDelay,
		audit:       opts.Audit,
	}
	if c.timeout <= 0 {
		c.timeout = 8 * time.Second
	}
	if c.attempts <= 0 {
		c.attempts = 2
	}
	if c.delay <= 0 {
		c.delay = 350 * time.Millisecond
	}
	if c.audit == nil {
		c.audit = audit.NopSink{}
	}
	return c, nil
}

// CreatePreference creates a Checkout Pro preference.
func (c *Client) CreatePreference(ctx context.Context, order domain.PreferenceOrder) (*domain.PreferenceResult, error) {
	request := preference.Request{
		Items: []preference.ItemRequest{
			{
				Title:      order.Title,
				Quantity:   1,
				UnitPrice:  order.UnitPrice,
				CurrencyID: order.Currency,
			},
		},
		ExternalReference: order.ExternalReference,
		AutoReturn:        "approved",
		BackURLs: &preference.BackURLsRequest{
			Success: order.SuccessURL,
			Failure: order.FailureURL,
			Pending: order.PendingURL,
		},
		NotificationURL: order.NotificationURL,
	}

	var result *preference.Response
	err := c.withRetry(ctx, "create_preference", func(callCtx context.Context) error {
		res, err := c.preferences.Create(callCtx, request)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &domain.PreferenceResult{
		PreferenceID:      result.ID,
		InitPoint:         result.InitPoint,
		ExternalReference: order.ExternalReference,
	}, nil
}

// GetPaymentDetails retrieves payment details from Mercado Pago.
func (c *Client) GetPaymentDetails(ctx context.Context, paymentID string) (*domain.PaymentDetails, error) {
	// The SDK takes an int payment ID; webhook data.id arrives as a string.
	id, err := strconv.Atoi(paymentID)
	if err != nil {
		return nil, domain.NewPaymentError(domain.ErrGatewayRejected,
			fmt.Sprintf("invalid payment ID %q", paymentID), "INVALID_PAYMENT_ID")
	}

	var result *payment.Response
	err = c.withRetry(ctx, "get_payment_details", func(callCtx context.Context) error {
		res, err := c.payments.Get(callCtx, id)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &domain.PaymentDetails{
		PaymentID:         paymentID,
		Status:            result.Status,
		StatusDetail:      result.StatusDetail,
		TransactionAmount: result.TransactionAmount,
		Currency:          result.CurrencyID,
		DateApproved:      result.DateApproved,
		PaymentMethodID:   result.PaymentMethodID,
		PaymentTypeID:     result.PaymentTypeID,
		PayerEmail:        result.Payer.Email,
		ExternalReference: result.ExternalReference,
	}, nil
}

// withRetry runs call up to c.attempts times, each under its own deadline,
// sleeping a fixed delay between attempts. The last error propagates to the
// caller; timeouts are wrapped so they stay distinguishable from provider
// rejections.
func (c *Client) withRetry(ctx context.Context, operation string, call func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := call(callCtx)
		timedOut := callCtx.Err() == context.DeadlineExceeded
		cancel()
		if err == nil {
			return nil
		}

		if timedOut || errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s: %v", domain.ErrGatewayTimeout, c.timeout, err)
		}
		lastErr = err

		c.audit.Record("gateway_retry", map[string]any{
			"operation":   operation,
			"attempt":     attempt,
			"maxAttempts": c.attempts,
			"error":       err.Error(),
		})

		if attempt < c.attempts {
			time.Sleep(c.delay)
		}
	}
	return lastErr
}
