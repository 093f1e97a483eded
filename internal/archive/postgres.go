package archive

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"orderflow/internal/model"
)

// PostgresStore is the durable audit log. Records are never updated or
// deleted; redelivered writes land on ON CONFLICT DO NOTHING.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func NewPostgresStoreFromPool(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the archive table and the audit query index.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS archive_records (
			tx_hash TEXT NOT NULL,
			log_index_chain_id BIGINT NOT NULL,
			msg_sender TEXT NOT NULL,
			event_sig TEXT NOT NULL,
			ts BIGINT NOT NULL,
			chain_id BIGINT NOT NULL,
			contract_address TEXT NOT NULL,
			topics TEXT[] NOT NULL,
			data TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (tx_hash, log_index_chain_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("create archive table: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS archive_records_sender_sig_ts_idx
		ON archive_records (msg_sender, event_sig, ts)
	`)
	if err != nil {
		return fmt.Errorf("create archive index: %w", err)
	}
	return nil
}

// PutBatch appends up to MaxBatchWrite records in one batched call.
func (s *PostgresStore) PutBatch(ctx context.Context, records []model.ArchiveRecord) error {
	if len(records) == 0 {
		return nil
	}
	if len(records) > MaxBatchWrite {
		return fmt.Errorf("batch of %d exceeds write limit %d", len(records), MaxBatchWrite)
	}

	pgxBatch := &pgx.Batch{}
	for _, record := range records {
		pgxBatch.Queue(`
			INSERT INTO archive_records (
				tx_hash, log_index_chain_id, msg_sender, event_sig, ts,
				chain_id, contract_address, topics, data
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (tx_hash, log_index_chain_id) DO NOTHING
		`,
			record.TxHash,
			int64(record.LogIndexChainID),
			record.MsgSender,
			record.EventSig,
			int64(record.Timestamp),
			int64(record.ChainID),
			record.ContractAddress,
			record.Topics,
			record.Data,
		)
	}

	br := s.pool.SendBatch(ctx, pgxBatch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("archive write: %w", err)
		}
	}
	return nil
}
