// Package domain contains the core business entities and interfaces for the payment service.
// This is the innermost layer - it has no dependencies on external frameworks or infrastructure.
package domain

import "time"

// PlanSpec describes a payment plan from the closed catalog.
// Prices are configuration, not business logic.
type PlanSpec struct {
	Title     string  `json:"title"`
	UnitPrice float64 `json:"unit_price"`
	Currency  string  `json:"currency"`
}

// PreferenceOrder represents a fully-resolved request to create a checkout preference.
// It is built by the checkout service from a validated plan and the configured URLs.
type PreferenceOrder struct {
	Title             string  `json:"title"`
	UnitPrice         float64 `json:"unit_price"`
	Currency          string  `json:"currency"`
	ExternalReference string  `json:"external_reference"`
	SuccessURL        string  `json:"success_url"`
	FailureURL        string  `json:"failure_url"`
	PendingURL        string  `json:"pending_url"`
	NotificationURL   string  `json:"notification_url"`
}

// PreferenceResult represents a created Mercado Pago preference.
type PreferenceResult struct {
	PreferenceID      string `json:"preference_id"`
	InitPoint         string `json:"init_point"` // URL to redirect the user for payment
	ExternalReference string `json:"external_reference"`
}

// WebhookEvent represents an incoming webhook notification from Mercado Pago.
// It is untrusted until the signature check accepts the delivery.
type WebhookEvent struct {
	Type   string `json:"type"`   // "payment", "merchant_order", etc.
	Action string `json:"action"` // "payment.created", "payment.updated", etc.
	Data   struct {
		ID string `json:"id"` // provider payment identifier
	} `json:"data"`
	LiveMode    bool   `json:"live_mode"`
	DateCreated string `json:"date_created"`
}

// PaymentDetails is the authoritative payment state fetched from Mercado Pago.
// It is read-through only: logged to the audit sink, never persisted here.
type PaymentDetails struct {
	PaymentID         string    `json:"id"`
	Status            string    `json:"status"` // "approved", "pending", "rejected", etc.
	StatusDetail      string    `json:"status_detail"`
	TransactionAmount float64   `json:"transaction_amount"`
	Currency          string    `json:"currency_id"`
	DateApproved      time.Time `json:"date_approved"`
	PaymentMethodID   string    `json:"payment_method_id"`
	PaymentTypeID     string    `json:"payment_type_id"`
	PayerEmail        string    `json:"payer_email"`
	ExternalReference string    `json:"external_reference"`
}
