package archive

import (
	"context"
	"sync"

	"orderflow/internal/model"
)

type recordKey struct {
	txHash          string
	logIndexChainID uint64
}

// MemoryStore is an in-process archive with the Postgres store's
// idempotency semantics. Used by tests and local runs.
type MemoryStore struct {
	mu      sync.Mutex
	records map[recordKey]model.ArchiveRecord
	batches int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[recordKey]model.ArchiveRecord)}
}

func (s *MemoryStore) PutBatch(_ context.Context, records []model.ArchiveRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batches++
	for _, record := range records {
		key := recordKey{txHash: record.TxHash, logIndexChainID: record.LogIndexChainID}
		if _, ok := s.records[key]; ok {
			continue
		}
		s.records[key] = record
	}
	return nil
}

// Len reports distinct archived records.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Batches reports how many PutBatch calls were issued.
func (s *MemoryStore) Batches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batches
}
