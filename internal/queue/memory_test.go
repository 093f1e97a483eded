package queue

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestMemoryQueueFIFOPerGroup(t *testing.T) {
	q := NewMemoryQueue(time.Minute)
	ctx := context.Background()

	entries := []Entry{
		{ID: "1", GroupKey: "1", Body: []byte("a1")},
		{ID: "2", GroupKey: "56", Body: []byte("b1")},
		{ID: "3", GroupKey: "1", Body: []byte("a2")},
		{ID: "4", GroupKey: "56", Body: []byte("b2")},
	}
	if err := q.SendBatch(ctx, entries); err != nil {
		t.Fatalf("send: %v", err)
	}

	msgs, err := q.ReceiveBatch(ctx, 10)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}

	lastSeq := map[string]int64{}
	for _, msg := range msgs {
		if msg.Receipt <= lastSeq[msg.GroupKey] {
			t.Fatalf("group %s out of order", msg.GroupKey)
		}
		lastSeq[msg.GroupKey] = msg.Receipt
	}
}

func TestMemoryQueueInFlightGroupBlocks(t *testing.T) {
	q := NewMemoryQueue(time.Minute)
	ctx := context.Background()

	if err := q.SendBatch(ctx, []Entry{
		{ID: "1", GroupKey: "1", Body: []byte("a1")},
		{ID: "2", GroupKey: "1", Body: []byte("a2")},
	}); err != nil {
		t.Fatalf("send: %v", err)
	}

	first, err := q.ReceiveBatch(ctx, 1)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if len(first) != 1 || string(first[0].Body) != "a1" {
		t.Fatalf("unexpected first delivery: %+v", first)
	}

	// a2 must not be delivered while a1 is in flight in the same group.
	second, err := q.ReceiveBatch(ctx, 1)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("expected group to be blocked, got %+v", second)
	}

	if err := q.Ack(ctx, first); err != nil {
		t.Fatalf("ack: %v", err)
	}
	third, err := q.ReceiveBatch(ctx, 1)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if len(third) != 1 || string(third[0].Body) != "a2" {
		t.Fatalf("expected a2 after ack, got %+v", third)
	}
}

func TestMemoryQueueDedupCollapses(t *testing.T) {
	q := NewMemoryQueue(time.Minute)
	ctx := context.Background()

	entry := Entry{ID: "1", GroupKey: "1", DedupKey: "1:100:0xabc:3", Body: []byte("x")}
	if err := q.SendBatch(ctx, []Entry{entry}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := q.SendBatch(ctx, []Entry{entry}); err != nil {
		t.Fatalf("resend: %v", err)
	}

	msgs, err := q.ReceiveBatch(ctx, 10)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected duplicate publish to collapse, got %d deliveries", len(msgs))
	}
}

func TestMemoryQueueRedeliversAfterVisibility(t *testing.T) {
	q := NewMemoryQueue(time.Minute)
	ctx := context.Background()

	current := time.Unix(1_700_000_000, 0)
	q.now = func() time.Time { return current }

	if err := q.SendBatch(ctx, []Entry{{ID: "1", GroupKey: "1", Body: []byte("a")}}); err != nil {
		t.Fatalf("send: %v", err)
	}

	first, _ := q.ReceiveBatch(ctx, 1)
	if len(first) != 1 {
		t.Fatalf("expected delivery")
	}

	// Not acked; after the visibility deadline it comes back.
	current = current.Add(2 * time.Minute)
	again, _ := q.ReceiveBatch(ctx, 1)
	if len(again) != 1 {
		t.Fatalf("expected redelivery after visibility timeout")
	}
}

func TestMemoryQueueRejectsOversizeBatch(t *testing.T) {
	q := NewMemoryQueue(time.Minute)
	entries := make([]Entry, MaxSendBatch+1)
	for i := range entries {
		entries[i] = Entry{ID: fmt.Sprint(i), GroupKey: "1", Body: []byte("x")}
	}
	if err := q.SendBatch(context.Background(), entries); err == nil {
		t.Fatalf("expected oversize batch to be rejected")
	}
}
