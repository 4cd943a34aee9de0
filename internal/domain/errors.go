// Package domain contains the core business entities and interfaces for the payment service.
package domain

import "errors"

// Domain errors represent business rule violations and infrastructure conditions
// the callers are expected to branch on.
var (
	// ErrInvalidPlan is returned when a requested plan is not in the catalog.
	// Unknown plans are a hard rejection, never a default.
	ErrInvalidPlan = errors.New("unknown payment plan")

	// ErrGatewayTimeout is returned when a Mercado Pago call exceeds its deadline.
	ErrGatewayTimeout = errors.New("payment gateway timeout")

	// ErrGatewayRejected is returned when Mercado Pago rejects a request.
	ErrGatewayRejected = errors.New("payment gateway rejected the request")

	// ErrInvalidSignature is returned when webhook signature validation fails.
	ErrInvalidSignature = errors.New("webhook signature validation failed")

	// ErrMissingCredential is returned when the Mercado Pago access token is not configured.
	ErrMissingCredential = errors.New("mercado pago access token is not configured")
)

// PaymentError wraps a domain error with additional context.
type PaymentError struct {
	Err     error
	Message string
	Code    string
}

// Error implements the error interface.
func (e *PaymentError) Error() string {
	if e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// Unwrap allows errors.Is and errors.As to work with PaymentError.
func (e *PaymentError) Unwrap() error {
	return e.Err
}

// NewPaymentError creates a new PaymentError with the given error and message.
func NewPaymentError(err error, message, code string) *PaymentError {
	return &PaymentError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}
