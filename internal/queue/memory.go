package queue

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memoryMessage struct {
	seq           int64
	groupKey      string
	body          []byte
	inFlightUntil time.Time
}

// MemoryQueue is an in-process queue with the same delivery contract as the
// Postgres queue: FIFO per group key, dedup by key, at-least-once with a
// visibility timeout. Used by tests and local runs.
type MemoryQueue struct {
	mu         sync.Mutex
	nextSeq    int64
	messages   []*memoryMessage
	dedup      map[string]struct{}
	visibility time.Duration
	now        func() time.Time
}

func NewMemoryQueue(visibility time.Duration) *MemoryQueue {
	if visibility <= 0 {
		visibility = 30 * time.Second
	}
	return &MemoryQueue{
		dedup:      make(map[string]struct{}),
		visibility: visibility,
		now:        time.Now,
	}
}

// SendBatch enqueues entries in order. Entries whose dedup key was already
// seen are collapsed silently.
func (q *MemoryQueue) SendBatch(_ context.Context, entries []Entry) error {
	if len(entries) > MaxSendBatch {
		return fmt.Errorf("batch of %d exceeds send limit %d", len(entries), MaxSendBatch)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for _, entry := range entries {
		if entry.DedupKey != "" {
			if _, seen := q.dedup[entry.DedupKey]; seen {
				continue
			}
			q.dedup[entry.DedupKey] = struct{}{}
		}
		q.nextSeq++
		body := make([]byte, len(entry.Body))
		copy(body, entry.Body)
		q.messages = append(q.messages, &memoryMessage{
			seq:      q.nextSeq,
			groupKey: entry.GroupKey,
			body:     body,
		})
	}
	return nil
}

// ReceiveBatch returns up to max messages in enqueue order, skipping groups
// that still have an in-flight delivery ahead of them.
func (q *MemoryQueue) ReceiveBatch(_ context.Context, max int) ([]Message, error) {
	if max <= 0 {
		max = 1
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	blocked := make(map[string]struct{})
	for _, msg := range q.messages {
		if msg.inFlightUntil.After(now) {
			blocked[msg.groupKey] = struct{}{}
		}
	}

	out := make([]Message, 0, max)
	for _, msg := range q.messages {
		if len(out) >= max {
			break
		}
		if msg.inFlightUntil.After(now) {
			continue
		}
		if _, ok := blocked[msg.groupKey]; ok {
			continue
		}
		msg.inFlightUntil = now.Add(q.visibility)
		out = append(out, Message{Receipt: msg.seq, GroupKey: msg.groupKey, Body: msg.body})
	}
	return out, nil
}

// Ack removes delivered messages.
func (q *MemoryQueue) Ack(_ context.Context, messages []Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	acked := make(map[int64]struct{}, len(messages))
	for _, msg := range messages {
		acked[msg.Receipt] = struct{}{}
	}

	kept := q.messages[:0]
	for _, msg := range q.messages {
		if _, ok := acked[msg.seq]; !ok {
			kept = append(kept, msg)
		}
	}
	q.messages = kept
	return nil
}

// Len reports messages still held, including in-flight ones.
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages)
}
