// Package config handles loading and managing application configuration.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Server configuration
	Server ServerConfig

	// Mercado Pago credentials and tuning
	Mercadopago MercadopagoConfig

	// Public URLs used to build redirect and notification links
	URLs URLConfig

	// Idempotency ledger backends
	Ledger LedgerConfig

	// Audit sink configuration
	Audit AuditConfig

	// Payment plan catalog
	Plans map[string]PlanConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port    string
	GinMode string // "debug", "release", or "test"
}

// MercadopagoConfig holds Mercado Pago API configuration.
type MercadopagoConfig struct {
	AccessToken   string
	WebhookSecret string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// URLConfig holds the public base URLs of the frontend and this backend.
type URLConfig struct {
	Frontend string
	Backend  string
}

// LedgerConfig holds the idempotency ledger configuration.
// Firestore is optional; the file fallback is always available.
type LedgerConfig struct {
	FirebaseCredentialsFile string
	FirestoreProjectID      string
	Collection              string
	Dir                     string
}

// AuditConfig holds the audit sink configuration.
type AuditConfig struct {
	RemoteURL string
}

// PlanConfig describes one entry of the payment plan catalog.
type PlanConfig struct {
	Title     string
	UnitPrice float64
	Currency  string
}

// Load reads configuration from environment variables.
// A .env file is loaded first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		Mercadopago: MercadopagoConfig{
			AccessToken:   getEnv("MERCADOPAGO_ACCESS_TOKEN", ""),
			WebhookSecret: getEnv("MERCADOPAGO_WEBHOOK_SECRET", ""),
			Timeout:       time.Duration(getEnvInt("MP_TIMEOUT_MS", 8000)) * time.Millisecond,
			RetryAttempts: getEnvInt("MP_RETRY_ATTEMPTS", 2),
			RetryDelay:    time.Duration(getEnvInt("MP_RETRY_DELAY_MS", 350)) * time.Millisecond,
		},
		URLs: URLConfig{
			Frontend: getEnv("FRONTEND_URL", "https://tuweb-ai.com"),
			Backend:  getEnv("BACKEND_URL", "https://api.tuweb-ai.com"),
		},
		Ledger: LedgerConfig{
			FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
			FirestoreProjectID:      getEnv("FIRESTORE_PROJECT_ID", ""),
			Collection:              getEnv("LEDGER_COLLECTION", "processed_payments"),
			Dir:                     getEnv("LEDGER_DIR", "data/processed-payments"),
		},
		Audit: AuditConfig{
			RemoteURL: getEnv("AUDIT_REMOTE_URL", ""),
		},
		Plans: map[string]PlanConfig{
			"esencial": {
				Title:     "Plan Esencial",
				UnitPrice: getEnvFloat("PLAN_ESENCIAL_PRICE", 299000),
				Currency:  getEnv("PLAN_CURRENCY", "ARS"),
			},
			"avanzado": {
				Title:     "Plan Avanzado",
				UnitPrice: getEnvFloat("PLAN_AVANZADO_PRICE", 499000),
				Currency:  getEnv("PLAN_CURRENCY", "ARS"),
			},
			"premium": {
				Title:     "Plan Premium",
				UnitPrice: getEnvFloat("PLAN_PREMIUM_PRICE", 799000),
				Currency:  getEnv("PLAN_CURRENCY", "ARS"),
			},
		},
	}
}

// getEnv retrieves an environment variable with a fallback default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as an integer with a fallback.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat retrieves an environment variable as a float with a fallback.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
