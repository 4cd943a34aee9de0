package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestFileStoreFirstClaimWins(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	claimed, err := store.Claim(context.Background(), "12345", map[string]any{"request_id": "r1"})
	if err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	if !claimed {
		t.Fatal("expected first claim to succeed")
	}

	claimed, err = store.Claim(context.Background(), "12345", map[string]any{"request_id": "r2"})
	if err != nil {
		t.Fatalf("second claim errored: %v", err)
	}
	if claimed {
		t.Fatal("expected second claim to be a duplicate")
	}
}

func TestFileStoreRecordContents(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.Claim(context.Background(), "987", map[string]any{"request_id": "abc"}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "987.json"))
	if err != nil {
		t.Fatalf("record file missing: %v", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("record is not valid JSON: %v", err)
	}
	if rec.PaymentID != "987" {
		t.Errorf("paymentId = %q, want %q", rec.PaymentID, "987")
	}
	if rec.ProcessedAt.IsZero() {
		t.Error("processedAt not set")
	}
	if rec.Metadata["request_id"] != "abc" {
		t.Errorf("metadata request_id = %v, want abc", rec.Metadata["request_id"])
	}
}

func TestFileStoreConcurrentClaims(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	const n = 20
	results := make(chan bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := store.Claim(context.Background(), "555", nil)
			if err != nil {
				t.Errorf("claim errored: %v", err)
				return
			}
			results <- claimed
		}()
	}
	wg.Wait()
	close(results)

	winners := 0
	for claimed := range results {
		if claimed {
			winners++
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly 1 winning claim, got %d", winners)
	}
}

func TestFileStoreUnsafeIDStaysInDirectory(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	claimed, err := store.Claim(context.Background(), "../../etc/passwd", nil)
	if err != nil {
		t.Fatalf("claim of unsafe id errored: %v", err)
	}
	if !claimed {
		t.Fatal("expected claim to succeed")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 ledger file, found %d", len(entries))
	}
	if entries[0].Name() != "etcpasswd.json" {
		t.Errorf("ledger file = %q, want sanitized name", entries[0].Name())
	}
	if _, err := os.Stat(filepath.Join(dir, "..", "passwd.json")); !os.IsNotExist(err) {
		t.Error("ledger file escaped the storage directory")
	}
}

func TestFileStoreEmptyKeyRejected(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.Claim(context.Background(), "/../;", nil); err != ErrEmptyKey {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
}

func TestFileStoreFailedWriteDoesNotConsumeSlot(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	diskFull := errors.New("no space left on device")
	store.write = func(*os.File, []byte) error { return diskFull }

	_, err = store.Claim(context.Background(), "777", nil)
	if !errors.Is(err, diskFull) {
		t.Fatalf("expected write error to propagate, got %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("half-written ledger file left behind: %v", entries[0].Name())
	}

	// The slot must still be claimable once the store recovers.
	store.write = func(f *os.File, data []byte) error {
		_, err := f.Write(data)
		return err
	}
	claimed, err := store.Claim(context.Background(), "777", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !claimed {
		t.Fatal("failed write permanently consumed the idempotency slot")
	}
}

func TestFileStoreSameKeyAfterSanitization(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	// Two raw IDs collapsing to the same key share one idempotency slot.
	claimed, err := store.Claim(context.Background(), "abc/123", nil)
	if err != nil || !claimed {
		t.Fatalf("first claim = (%v, %v), want (true, nil)", claimed, err)
	}
	claimed, err = store.Claim(context.Background(), "abc123", nil)
	if err != nil {
		t.Fatal(err)
	}
	if claimed {
		t.Fatal("expected sanitized collision to be treated as duplicate")
	}
}
