package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"orderflow/internal/archive"
	"orderflow/internal/decoder"
	"orderflow/internal/metrics"
	"orderflow/internal/model"
	"orderflow/internal/queue"
	"orderflow/internal/reconcile"
)

// Summary reports one consumer invocation. Stale reconciles and skipped
// envelopes are normal outcomes; FailedIndices only holds messages whose
// store or archive call failed and that should be redelivered.
type Summary struct {
	Total         int
	Decoded       int
	Skipped       int
	Applied       int
	Stale         int
	FailedIndices []int
	Errors        []error
}

// Failed reports whether any message needs redelivery.
func (s Summary) Failed() bool {
	return len(s.FailedIndices) > 0
}

// Runner drives one consumer invocation over a delivery batch: decode each
// envelope, archive every raw log whether or not it decodes, and apply the
// decoded events through the reconciler. Reconciles and the archive write
// run concurrently; one item's failure never aborts the others.
type Runner struct {
	decoder    *decoder.Decoder
	reconciler *reconcile.Reconciler
	archive    *archive.Writer
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

func NewRunner(d *decoder.Decoder, r *reconcile.Reconciler, a *archive.Writer, logger *zap.Logger, m *metrics.Metrics) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{decoder: d, reconciler: r, archive: a, logger: logger, metrics: m}
}

type decodedItem struct {
	index int
	event model.DomainEvent
}

// Process handles one delivery batch and returns its summary.
func (r *Runner) Process(ctx context.Context, messages []queue.Message) Summary {
	summary := Summary{Total: len(messages)}
	r.metrics.ConsumerBatch(len(messages))

	records := make([]model.ArchiveRecord, 0, len(messages))
	var decoded []decodedItem

	for i, msg := range messages {
		env, err := model.DecodeEnvelope(msg.Body)
		if err != nil {
			// A body that never parses would poison the batch if we kept
			// redelivering it; log it loudly and drop it from this run.
			summary.Skipped++
			summary.Errors = append(summary.Errors, err)
			r.logger.Error("unparseable queue body", zap.Error(err), zap.Int64("receipt", msg.Receipt))
			continue
		}

		// Archive first: the audit log captures every ingested log, decoded
		// or not.
		records = append(records, model.NewArchiveRecord(env))

		event, err := r.decoder.Decode(env)
		if err != nil {
			summary.Skipped++
			r.metrics.EventSkipped()
			r.logger.Warn("undecodable log archived without reconcile",
				zap.Error(err),
				zap.String("tx_hash", env.Log.TxHash),
				zap.Uint64("chain_id", env.ChainID),
			)
			continue
		}
		if event == nil {
			summary.Skipped++
			r.metrics.EventSkipped()
			continue
		}

		summary.Decoded++
		r.metrics.EventDecoded()
		decoded = append(decoded, decodedItem{index: i, event: event})
	}

	type reconcileResult struct {
		index  int
		result reconcile.Result
		err    error
	}

	results := make([]reconcileResult, len(decoded))
	var archiveErr error

	var wg sync.WaitGroup
	for slot, item := range decoded {
		slot, item := slot, item
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := r.reconciler.Apply(ctx, item.event)
			results[slot] = reconcileResult{index: item.index, result: result, err: err}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		archiveErr = r.archive.Write(ctx, records)
	}()
	wg.Wait()

	for _, res := range results {
		if res.err != nil {
			summary.FailedIndices = append(summary.FailedIndices, res.index)
			summary.Errors = append(summary.Errors, res.err)
			r.metrics.Reconcile("failed")
			continue
		}
		switch res.result {
		case reconcile.ResultApplied:
			summary.Applied++
			r.metrics.Reconcile("applied")
		case reconcile.ResultStale:
			summary.Stale++
			r.metrics.Reconcile("stale")
		}
	}

	if archiveErr != nil {
		// Redeliver the whole batch: archive chunks are not attributable to
		// single messages, and replays are idempotent on the archive key.
		summary.Errors = append(summary.Errors, archiveErr)
		for i := range messages {
			summary.FailedIndices = appendUnique(summary.FailedIndices, i)
		}
		r.logger.Error("archive write failed", zap.Error(archiveErr))
	} else {
		r.metrics.ArchiveRecords(len(records))
	}

	r.logger.Info("batch processed",
		zap.Int("total", summary.Total),
		zap.Int("decoded", summary.Decoded),
		zap.Int("skipped", summary.Skipped),
		zap.Int("applied", summary.Applied),
		zap.Int("stale", summary.Stale),
		zap.Int("failed", len(summary.FailedIndices)),
	)
	return summary
}

func appendUnique(indices []int, index int) []int {
	for _, existing := range indices {
		if existing == index {
			return indices
		}
	}
	return append(indices, index)
}
