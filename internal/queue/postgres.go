package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresQueue is a durable outbox-style queue. Ordering is FIFO per group
// key: only the oldest remaining message of a group is ever claimable, so a
// message is not delivered until everything before it in its group has been
// acked. Dedup keys are enforced with a unique index, so duplicate publishes
// collapse on insert.
type PostgresQueue struct {
	pool       *pgxpool.Pool
	visibility time.Duration
}

func NewPostgresQueue(ctx context.Context, dsn string, visibility time.Duration) (*PostgresQueue, error) {
	if dsn == "" {
		return nil, fmt.Errorf("queue dsn is required")
	}
	if visibility <= 0 {
		visibility = 30 * time.Second
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresQueue{pool: pool, visibility: visibility}, nil
}

// NewPostgresQueueFromPool wraps an existing pool, for deployments sharing
// one database between queue and stores.
func NewPostgresQueueFromPool(pool *pgxpool.Pool, visibility time.Duration) *PostgresQueue {
	if visibility <= 0 {
		visibility = 30 * time.Second
	}
	return &PostgresQueue{pool: pool, visibility: visibility}
}

func (q *PostgresQueue) Close() {
	if q.pool != nil {
		q.pool.Close()
	}
}

// EnsureSchema creates the queue table and indexes.
func (q *PostgresQueue) EnsureSchema(ctx context.Context) error {
	_, err := q.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS queue_messages (
			id BIGSERIAL PRIMARY KEY,
			group_key TEXT NOT NULL,
			dedup_key TEXT NOT NULL DEFAULT '',
			body JSONB NOT NULL,
			enqueued_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			in_flight_until TIMESTAMPTZ
		)
	`)
	if err != nil {
		return fmt.Errorf("create queue table: %w", err)
	}
	_, err = q.pool.Exec(ctx, `
		CREATE UNIQUE INDEX IF NOT EXISTS queue_messages_dedup_idx
		ON queue_messages (dedup_key) WHERE dedup_key <> ''
	`)
	if err != nil {
		return fmt.Errorf("create dedup index: %w", err)
	}
	_, err = q.pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS queue_messages_group_idx
		ON queue_messages (group_key, id)
	`)
	if err != nil {
		return fmt.Errorf("create group index: %w", err)
	}
	return nil
}

// SendBatch inserts entries in order. Duplicate dedup keys are dropped by
// the unique index, never reported as errors.
func (q *PostgresQueue) SendBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if len(entries) > MaxSendBatch {
		return fmt.Errorf("batch of %d exceeds send limit %d", len(entries), MaxSendBatch)
	}

	batch := &pgx.Batch{}
	for _, entry := range entries {
		batch.Queue(`
			INSERT INTO queue_messages (group_key, dedup_key, body)
			VALUES ($1, $2, $3)
			ON CONFLICT (dedup_key) WHERE dedup_key <> '' DO NOTHING
		`, entry.GroupKey, entry.DedupKey, entry.Body)
	}

	br := q.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range entries {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("enqueue: %w", err)
		}
	}
	return nil
}

// ReceiveBatch claims up to max messages in enqueue order, at most one per
// group: only the head of each group qualifies. Acked messages are deleted,
// so the head predicate needs no visibility state on earlier rows. That
// keeps the claim safe under concurrent consumers, where a row another
// session has locked but not yet committed still blocks its group-mates by
// mere existence even though SKIP LOCKED passes over the row itself.
func (q *PostgresQueue) ReceiveBatch(ctx context.Context, max int) ([]Message, error) {
	if max <= 0 {
		max = 1
	}

	tx, err := q.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT q.id, q.group_key, q.body
		FROM queue_messages q
		WHERE (q.in_flight_until IS NULL OR q.in_flight_until < now())
		  AND NOT EXISTS (
			SELECT 1 FROM queue_messages p
			WHERE p.group_key = q.group_key
			  AND p.id < q.id
		  )
		ORDER BY q.id
		LIMIT $1
		FOR UPDATE OF q SKIP LOCKED
	`, max)
	if err != nil {
		return nil, fmt.Errorf("claim messages: %w", err)
	}

	var out []Message
	var ids []int64
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.Receipt, &msg.GroupKey, &msg.Body); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, msg)
		ids = append(ids, msg.Receipt)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) > 0 {
		_, err = tx.Exec(ctx, `
			UPDATE queue_messages
			SET in_flight_until = now() + $1::interval
			WHERE id = ANY($2)
		`, q.visibility, ids)
		if err != nil {
			return nil, fmt.Errorf("mark in flight: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

// Ack deletes delivered messages.
func (q *PostgresQueue) Ack(ctx context.Context, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(messages))
	for _, msg := range messages {
		ids = append(ids, msg.Receipt)
	}
	_, err := q.pool.Exec(ctx, `DELETE FROM queue_messages WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("ack: %w", err)
	}
	return nil
}
