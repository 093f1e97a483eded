package archive

import (
	"context"

	"orderflow/internal/model"
)

// MaxBatchWrite is the archive store's hard limit on records per batch
// write. The writer chunks at this size.
const MaxBatchWrite = 25

// Store is an append-only sink for audit records. PutBatch must be
// idempotent on the (tx_hash, log_index_chain_id) key so redelivered
// batches never duplicate entries.
type Store interface {
	PutBatch(ctx context.Context, records []model.ArchiveRecord) error
}
