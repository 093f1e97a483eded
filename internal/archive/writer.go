package archive

import (
	"context"

	"golang.org/x/sync/errgroup"

	"orderflow/internal/batch"
	"orderflow/internal/model"
)

// Writer splits archive batches at the store's write limit and issues the
// chunk writes concurrently. Chunks are independent: one chunk failing does
// not stop the others, and nothing is rolled back.
type Writer struct {
	store Store
}

func NewWriter(store Store) *Writer {
	return &Writer{store: store}
}

// Write archives all records. The first chunk error is returned after every
// chunk has completed.
func (w *Writer) Write(ctx context.Context, records []model.ArchiveRecord) error {
	if len(records) == 0 {
		return nil
	}

	var group errgroup.Group
	for _, chunk := range batch.Chunk(records, MaxBatchWrite) {
		chunk := chunk
		group.Go(func() error {
			return w.store.PutBatch(ctx, chunk)
		})
	}
	return group.Wait()
}
