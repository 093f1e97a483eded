package producer

import (
	"context"

	"golang.org/x/sync/errgroup"

	"orderflow/internal/batch"
	"orderflow/internal/metrics"
	"orderflow/internal/queue"
)

// Publisher splits queue entries at the queue's send limit and issues the
// chunk sends concurrently. Sends are independent: a failed chunk never
// blocks or rolls back its siblings, the first error surfaces after all
// chunks complete.
type Publisher struct {
	queue   queue.Publisher
	metrics *metrics.Metrics
}

func NewPublisher(q queue.Publisher, m *metrics.Metrics) *Publisher {
	return &Publisher{queue: q, metrics: m}
}

// Publish sends all entries. Chunk order matches input order, completion
// order across chunks is not guaranteed; per-group FIFO is preserved by the
// queue's enqueue sequencing.
func (p *Publisher) Publish(ctx context.Context, entries []queue.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	var group errgroup.Group
	for _, chunk := range batch.Chunk(entries, queue.MaxSendBatch) {
		chunk := chunk
		group.Go(func() error {
			p.metrics.QueueSendBatch()
			return p.queue.SendBatch(ctx, chunk)
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}
	p.metrics.LogsQueued(len(entries))
	return nil
}
