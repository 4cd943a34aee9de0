package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore is the fallback ledger backend: one file per claimed payment ID
// under a dedicated directory. The exclusive-create open is what makes the
// claim atomic; there is no read-then-write window.
type FileStore struct {
	dir string

	write func(f *os.File, data []byte) error
}

// NewFileStore creates the ledger directory if needed and returns the store.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory %s: %w", dir, err)
	}
	return &FileStore{
		dir: dir,
		write: func(f *os.File, data []byte) error {
			_, err := f.Write(data)
			return err
		},
	}, nil
}

// Claim implements Store using O_CREATE|O_EXCL.
func (s *FileStore) Claim(_ context.Context, paymentID string, metadata map[string]any) (bool, error) {
	key := SanitizeKey(paymentID)
	if key == "" {
		return false, ErrEmptyKey
	}

	record := newRecord(paymentID, metadata)
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return false, fmt.Errorf("failed to encode ledger record: %w", err)
	}

	path := filepath.Join(s.dir, key+".json")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			// A prior claim exists. Expected outcome, not an error.
			return false, nil
		}
		return false, fmt.Errorf("failed to create ledger file: %w", err)
	}

	// On a failed write the half-created file must not stay behind: it would
	// turn every redelivery of this payment into a false duplicate. Removal
	// cannot race another claimant, the exclusive create made this caller the
	// sole owner of the path.
	if err := s.write(f, data); err != nil {
		f.Close()
		os.Remove(path)
		return false, fmt.Errorf("failed to write ledger file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return false, fmt.Errorf("failed to close ledger file: %w", err)
	}
	return true, nil
}

// Name implements Store.
func (s *FileStore) Name() string { return "file" }
