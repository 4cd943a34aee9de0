// Package api contains the HTTP handlers and routing for the payment service.
package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRouter configures the Gin router with all routes and middleware.
func SetupRouter(handler *Handler, ginMode, frontendOrigin string) *gin.Engine {
	// Set Gin mode
	gin.SetMode(ginMode)

	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(CORSMiddleware(frontendOrigin))
	router.Use(RequestIDMiddleware())

	// Health check endpoint
	router.GET("/health", handler.Health)

	// Checkout: called by the frontend
	router.POST("/crear-preferencia", handler.CreatePreference)

	// Payment status lookup
	router.GET("/api/payments/status/:paymentId", handler.PaymentStatus)

	// Webhook endpoints: called by Mercado Pago, no auth. Security is the
	// signature check inside the processing pipeline.
	router.POST("/webhook/mercadopago", handler.Webhook)
	router.GET("/webhook/mercadopago/health", handler.WebhookHealth)

	return router
}
