// Package api contains the HTTP handlers and routing for the payment service.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Tuwebai/tuwebai-sub002/internal/checkout"
	"github.com/Tuwebai/tuwebai-sub002/internal/domain"
	"github.com/Tuwebai/tuwebai-sub002/internal/ledger"
	"github.com/Tuwebai/tuwebai-sub002/internal/webhook"
)

// Handler contains the HTTP handlers for the payment API.
type Handler struct {
	checkout    *checkout.Service
	coordinator *webhook.Coordinator
	gateway     domain.PaymentGateway
	ledger      ledger.Store
	logger      logrus.FieldLogger
}

// NewHandler creates a new API handler.
func NewHandler(checkoutSvc *checkout.Service, coordinator *webhook.Coordinator, gateway domain.PaymentGateway, store ledger.Store) *Handler {
	return &Handler{
		checkout:    checkoutSvc,
		coordinator: coordinator,
		gateway:     gateway,
		ledger:      store,
		logger:      logrus.StandardLogger().WithField("component", "api"),
	}
}

// PreferenceRequest represents the JSON body for the preference endpoint.
type PreferenceRequest struct {
	Plan string `json:"plan"`
}

// PreferenceResponse represents a successful preference creation.
type PreferenceResponse struct {
	InitPoint string `json:"init_point"`
}

// CreatePreference handles POST /crear-preferencia.
// Creates a Mercado Pago preference and returns the init_point URL.
func (h *Handler) CreatePreference(c *gin.Context) {
	var req PreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Plan == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Plan invalido"})
		return
	}

	result, err := h.checkout.CreatePreference(c.Request.Context(), req.Plan)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPlan) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Plan invalido"})
			return
		}
		h.logger.WithError(err).Error("Preference creation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al crear la preferencia de pago"})
		return
	}

	c.JSON(http.StatusOK, PreferenceResponse{InitPoint: result.InitPoint})
}

// PaymentStatus handles GET /api/payments/status/:paymentId.
// Fetches the authoritative payment state from Mercado Pago.
func (h *Handler) PaymentStatus(c *gin.Context) {
	paymentID := c.Param("paymentId")

	if h.gateway == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "payment gateway is not configured",
		})
		return
	}

	details, err := h.gateway.GetPaymentDetails(c.Request.Context(), paymentID)
	if err != nil {
		if errors.Is(err, domain.ErrGatewayTimeout) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"error":   "payment provider timed out",
			})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "payment not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"id":                 details.PaymentID,
			"status":             details.Status,
			"status_detail":      details.StatusDetail,
			"transaction_amount": details.TransactionAmount,
			"currency_id":        details.Currency,
			"date_approved":      details.DateApproved,
			"payment_method_id":  details.PaymentMethodID,
		},
	})
}

// Webhook handles POST /webhook/mercadopago.
// The acknowledgment is written before any processing starts: Mercado Pago
// enforces a response deadline shorter than the full pipeline (which includes
// a provider round trip), and a late response triggers redelivery storms.
// Processing continues on a detached goroutine with its own context; its
// outcome is observable only through the audit sink.
func (h *Handler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to read webhook body")
		body = nil
	}

	delivery := webhook.Delivery{
		Body:       body,
		Headers:    c.Request.Header.Clone(),
		Signature:  c.GetHeader("x-signature"),
		RequestID:  c.GetString("request_id"),
		RemoteIP:   c.ClientIP(),
		ReceivedAt: time.Now(),
	}

	c.JSON(http.StatusOK, gin.H{"received": true})

	go h.coordinator.Process(context.Background(), delivery)
}

// WebhookHealth handles GET /webhook/mercadopago/health.
// Liveness probe with no side effects.
func (h *Handler) WebhookHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "tuwebai-payments",
		"ledger":  h.ledger.Name(),
	})
}
