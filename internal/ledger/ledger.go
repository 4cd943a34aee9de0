// Package ledger implements the idempotency ledger: a durable, append-only
// record of payment IDs that have already been processed. Claims are
// create-only; atomicity is delegated entirely to the backing store's
// create-if-absent primitive.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrUnavailable marks a backend as structurally unable to serve a claim.
// It is distinct from a duplicate claim: an infrastructure error must never
// be reinterpreted as "already processed".
var ErrUnavailable = errors.New("ledger backend unavailable")

// ErrEmptyKey is returned when a payment ID sanitizes down to nothing.
var ErrEmptyKey = errors.New("payment id is empty after sanitization")

// Store claims payment IDs exactly once.
type Store interface {
	// Claim atomically records the payment ID. It returns true when this
	// caller is the first to claim it, false when a prior claim exists.
	// Errors are genuine failures, never duplicates.
	Claim(ctx context.Context, paymentID string, metadata map[string]any) (bool, error)

	// Name identifies the backend for health reporting and logging.
	Name() string
}

// Record is the durable claim entity written by every backend.
type Record struct {
	PaymentID   string         `json:"paymentId" firestore:"paymentId"`
	ProcessedAt time.Time      `json:"processedAt" firestore:"processedAt"`
	Source      string         `json:"source" firestore:"source"`
	Metadata    map[string]any `json:"metadata,omitempty" firestore:"metadata,omitempty"`
}

func newRecord(paymentID string, metadata map[string]any) Record {
	return Record{
		PaymentID:   paymentID,
		ProcessedAt: time.Now().UTC(),
		Source:      "mercadopago_webhook",
		Metadata:    metadata,
	}
}

// FallbackStore prefers a primary store and falls back to a secondary one
// when the primary is unavailable. Duplicate results from the primary are
// final and never re-checked against the fallback.
type FallbackStore struct {
	primary  Store
	fallback Store
	logger   logrus.FieldLogger
}

// NewFallbackStore creates a composite store. primary may be nil when no
// shared document store is configured for the deployment.
func NewFallbackStore(primary, fallback Store) *FallbackStore {
	return &FallbackStore{
		primary:  primary,
		fallback: fallback,
		logger:   logrus.StandardLogger().WithField("component", "ledger"),
	}
}

// Claim implements Store.
func (s *FallbackStore) Claim(ctx context.Context, paymentID string, metadata map[string]any) (bool, error) {
	if s.primary != nil {
		claimed, err := s.primary.Claim(ctx, paymentID, metadata)
		if err == nil {
			return claimed, nil
		}
		if !errors.Is(err, ErrUnavailable) {
			return false, err
		}
		s.logger.WithError(err).Warn("Primary ledger unavailable, falling back to local file store")
	}
	return s.fallback.Claim(ctx, paymentID, metadata)
}

// Name implements Store.
func (s *FallbackStore) Name() string {
	if s.primary != nil {
		return s.primary.Name() + "+" + s.fallback.Name()
	}
	return s.fallback.Name()
}
