package ledger

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore is the primary ledger backend. Firestore's Create operation
// fails with AlreadyExists when the document is present, which gives the
// create-if-absent atomicity the claim relies on.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreStore creates a store writing claims into the given collection.
func NewFirestoreStore(client *firestore.Client, collection string) *FirestoreStore {
	return &FirestoreStore{client: client, collection: collection}
}

// Claim implements Store.
func (s *FirestoreStore) Claim(ctx context.Context, paymentID string, metadata map[string]any) (bool, error) {
	key := SanitizeKey(paymentID)
	if key == "" {
		return false, ErrEmptyKey
	}

	record := newRecord(paymentID, metadata)
	_, err := s.client.Collection(s.collection).Doc(key).Create(ctx, record)
	if err == nil {
		return true, nil
	}
	if status.Code(err) == codes.AlreadyExists {
		// A prior claim exists. Expected outcome, not an error.
		return false, nil
	}
	// Anything else means the primary could not serve this claim. It is
	// reported as unavailable so the caller can fall back, never as a
	// duplicate.
	return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// Name implements Store.
func (s *FirestoreStore) Name() string { return "firestore" }
