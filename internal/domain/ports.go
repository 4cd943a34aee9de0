// Package domain contains the core business entities and interfaces for the payment service.
package domain

import "context"

// PaymentGateway defines the interface for interacting with the payment provider.
// This abstracts away the details of the Mercado Pago SDK, including the
// timeout and retry policy applied to every call.
type PaymentGateway interface {
	// CreatePreference creates a checkout preference in Mercado Pago and
	// returns the init_point URL for redirecting the user.
	CreatePreference(ctx context.Context, order PreferenceOrder) (*PreferenceResult, error)

	// GetPaymentDetails retrieves the authoritative payment state by provider
	// payment ID. Used when processing webhook notifications.
	GetPaymentDetails(ctx context.Context, paymentID string) (*PaymentDetails, error)
}
