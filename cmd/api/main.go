// TuWebAI Payments Service
//
// This is the main entry point for the payment confirmation service.
// It wires up all dependencies and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/Tuwebai/tuwebai-sub002/config"
	"github.com/Tuwebai/tuwebai-sub002/internal/api"
	"github.com/Tuwebai/tuwebai-sub002/internal/audit"
	"github.com/Tuwebai/tuwebai-sub002/internal/checkout"
	"github.com/Tuwebai/tuwebai-sub002/internal/domain"
	"github.com/Tuwebai/tuwebai-sub002/internal/gateway/mercadopago"
	"github.com/Tuwebai/tuwebai-sub002/internal/ledger"
	"github.com/Tuwebai/tuwebai-sub002/internal/webhook"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.Info("Starting TuWebAI Payments Service...")

	// Load configuration
	cfg := config.Load()
	logrus.WithFields(logrus.Fields{
		"port":     cfg.Server.Port,
		"frontend": cfg.URLs.Frontend,
		"backend":  cfg.URLs.Backend,
	}).Info("Configuration loaded")

	validateConfig(cfg)

	// Wire up dependencies (manual dependency injection)
	//
	// Audit sink
	sink := buildAuditSink(cfg)

	// Idempotency ledger: Firestore primary when configured, exclusive-create
	// file store as fallback.
	primary := buildFirestoreLedger(cfg)
	fileStore, err := ledger.NewFileStore(cfg.Ledger.Dir)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize file ledger")
	}
	store := ledger.NewFallbackStore(primary, fileStore)
	logrus.WithField("backend", store.Name()).Info("Idempotency ledger ready")

	// Payment gateway
	var gateway domain.PaymentGateway
	if cfg.Mercadopago.AccessToken != "" {
		client, err := mercadopago.NewClient(mercadopago.Options{
			AccessToken:   cfg.Mercadopago.AccessToken,
			Timeout:       cfg.Mercadopago.Timeout,
			RetryAttempts: cfg.Mercadopago.RetryAttempts,
			RetryDelay:    cfg.Mercadopago.RetryDelay,
			Audit:         sink,
		})
		if err != nil {
			logrus.WithError(err).Fatal("Failed to initialize Mercado Pago client")
		}
		gateway = client
	}

	// Service layer
	checkoutSvc := checkout.NewService(gateway, cfg.Plans, cfg.URLs.Frontend, cfg.URLs.Backend)
	coordinator := webhook.NewCoordinator(gateway, store, sink,
		cfg.Mercadopago.WebhookSecret, cfg.Mercadopago.AccessToken != "")

	// API layer
	handler := api.NewHandler(checkoutSvc, coordinator, gateway, store)
	router := api.SetupRouter(handler, cfg.Server.GinMode, cfg.URLs.Frontend)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logrus.WithField("addr", server.Addr).Info("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}
	logrus.Info("Server stopped")
}

// buildAuditSink assembles the audit pipeline: always the local log sink,
// plus the remote collector behind a circuit breaker when configured.
func buildAuditSink(cfg *config.Config) audit.Sink {
	sinks := []audit.Sink{audit.NewLogSink()}
	if cfg.Audit.RemoteURL != "" {
		breaker := audit.NewBreaker(5, 2*time.Minute)
		sinks = append(sinks, audit.NewRemoteSink(cfg.Audit.RemoteURL, breaker))
		logrus.WithField("url", cfg.Audit.RemoteURL).Info("Remote audit sink enabled")
	}
	if len(sinks) == 1 {
		return sinks[0]
	}
	return audit.NewMultiSink(sinks...)
}

// buildFirestoreLedger initializes the primary ledger backend, or returns nil
// when Firestore is not configured or unreachable. The service still provides
// best-effort idempotency through the file fallback.
func buildFirestoreLedger(cfg *config.Config) ledger.Store {
	if cfg.Ledger.FirestoreProjectID == "" && cfg.Ledger.FirebaseCredentialsFile == "" {
		return nil
	}

	ctx := context.Background()
	var opts []option.ClientOption
	if cfg.Ledger.FirebaseCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Ledger.FirebaseCredentialsFile))
	}

	var fbCfg *firebase.Config
	if cfg.Ledger.FirestoreProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.Ledger.FirestoreProjectID}
	}

	app, err := firebase.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		logrus.WithError(err).Warn("Firebase init failed, ledger will use file fallback only")
		return nil
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		logrus.WithError(err).Warn("Firestore init failed, ledger will use file fallback only")
		return nil
	}
	return ledger.NewFirestoreStore(client, cfg.Ledger.Collection)
}

// validateConfig warns about missing operator-facing configuration. Missing
// credentials do not prevent startup: the webhook endpoint must keep
// acknowledging deliveries even in a partially configured deployment.
func validateConfig(cfg *config.Config) {
	if cfg.Mercadopago.AccessToken == "" {
		logrus.Warn("MERCADOPAGO_ACCESS_TOKEN not set: preference creation and payment lookups are disabled")
	}
	if cfg.Mercadopago.WebhookSecret == "" {
		logrus.Warn("MERCADOPAGO_WEBHOOK_SECRET not set: webhook signature verification is DISABLED")
	}
}
