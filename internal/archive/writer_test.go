package archive

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"orderflow/internal/model"
)

func makeRecords(n int) []model.ArchiveRecord {
	out := make([]model.ArchiveRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.ArchiveRecord{
			TxHash:          fmt.Sprintf("0x%04x", i),
			LogIndexChainID: model.LogIndexChainID(uint64(i), 1),
			EventSig:        "0xabc",
			ChainID:         1,
		})
	}
	return out
}

func TestWriterChunksAtLimit(t *testing.T) {
	store := NewMemoryStore()
	w := NewWriter(store)

	if err := w.Write(context.Background(), makeRecords(30)); err != nil {
		t.Fatalf("write: %v", err)
	}

	if store.Batches() != 2 {
		t.Fatalf("expected 2 batch writes for 30 records, got %d", store.Batches())
	}
	if store.Len() != 30 {
		t.Fatalf("expected 30 records archived, got %d", store.Len())
	}
}

func TestWriterEmptyIsNoop(t *testing.T) {
	store := NewMemoryStore()
	w := NewWriter(store)

	if err := w.Write(context.Background(), nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if store.Batches() != 0 {
		t.Fatalf("expected no batch calls, got %d", store.Batches())
	}
}

func TestWriterIdempotentReplay(t *testing.T) {
	store := NewMemoryStore()
	w := NewWriter(store)
	records := makeRecords(5)

	if err := w.Write(context.Background(), records); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := w.Write(context.Background(), records); err != nil {
		t.Fatalf("replay write: %v", err)
	}

	if store.Len() != 5 {
		t.Fatalf("replay duplicated records: %d", store.Len())
	}
}

type failingStore struct {
	mu       sync.Mutex
	failHash string
	calls    int
	written  int
}

func (s *failingStore) PutBatch(_ context.Context, records []model.ArchiveRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	for _, record := range records {
		if record.TxHash == s.failHash {
			return errors.New("throttled")
		}
	}
	s.written += len(records)
	return nil
}

func TestWriterPartialFailureDoesNotBlockSiblings(t *testing.T) {
	// Record 0 sits in the first chunk of 25; its failure must not stop the
	// other two chunks.
	store := &failingStore{failHash: "0x0000"}
	w := NewWriter(store)

	err := w.Write(context.Background(), makeRecords(60))
	if err == nil {
		t.Fatalf("expected chunk failure to surface")
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if store.calls != 3 {
		t.Fatalf("expected all 3 chunks attempted, got %d", store.calls)
	}
	if store.written != 35 {
		t.Fatalf("expected surviving chunks written (35), got %d", store.written)
	}
}
