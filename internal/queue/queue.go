package queue

import "context"

// MaxSendBatch is the queue's hard limit on entries per SendBatch call.
// Publishers must chunk at this size.
const MaxSendBatch = 10

// Entry is one message to publish.
type Entry struct {
	// ID is the caller-assigned message id, unique within one batch.
	ID string
	// GroupKey bounds the FIFO guarantee: entries sharing a group key are
	// delivered in publish order, entries in different groups have no
	// relative ordering.
	GroupKey string
	// DedupKey collapses duplicate publishes of the same logical message.
	// Empty disables deduplication for the entry.
	DedupKey string
	Body     []byte
}

// Message is one delivered queue message. Receipt identifies the delivery
// for acknowledgment.
type Message struct {
	Receipt  int64
	GroupKey string
	Body     []byte
}

// Publisher is the producer-side queue contract.
type Publisher interface {
	SendBatch(ctx context.Context, entries []Entry) error
}

// Source is the consumer-side queue contract. Delivery is at-least-once:
// messages not acked before the visibility deadline are redelivered.
type Source interface {
	ReceiveBatch(ctx context.Context, max int) ([]Message, error)
	Ack(ctx context.Context, messages []Message) error
}
