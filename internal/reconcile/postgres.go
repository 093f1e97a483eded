package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"orderflow/internal/model"
)

// PostgresStore persists order aggregates. The status guard lives in the
// upsert's WHERE clause, so concurrent writers to one key commute without
// any in-process locking.
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

// EnsureSchema creates the orders table.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS orders (
			order_id NUMERIC(78,0) NOT NULL,
			chain_id BIGINT NOT NULL,
			maker TEXT NOT NULL,
			taker TEXT NOT NULL DEFAULT '',
			deposit_amount NUMERIC(78,0) NOT NULL,
			desired_amount NUMERIC(78,0) NOT NULL,
			status SMALLINT NOT NULL,
			dst_chain_id BIGINT NOT NULL,
			block_number BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (order_id, chain_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("create orders table: %w", err)
	}
	return nil
}

// Put performs the conditional upsert: insert when absent, overwrite only
// when the stored status is strictly less than the incoming one. Returns
// false when the guard rejects the write.
func (s *PostgresStore) Put(ctx context.Context, order model.OrderAggregate) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO orders (
			order_id, chain_id, maker, taker, deposit_amount, desired_amount,
			status, dst_chain_id, block_number, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		ON CONFLICT (order_id, chain_id)
		DO UPDATE SET
			maker = EXCLUDED.maker,
			taker = EXCLUDED.taker,
			deposit_amount = EXCLUDED.deposit_amount,
			desired_amount = EXCLUDED.desired_amount,
			status = EXCLUDED.status,
			dst_chain_id = EXCLUDED.dst_chain_id,
			block_number = EXCLUDED.block_number,
			updated_at = now()
		WHERE orders.status < EXCLUDED.status
	`,
		order.OrderID,
		int64(order.ChainID),
		order.Maker,
		order.Taker,
		order.DepositAmount,
		order.DesiredAmount,
		int16(order.Status),
		int64(order.DstChainID),
		int64(order.BlockNumber),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) Get(ctx context.Context, key model.OrderKey) (model.OrderAggregate, bool, error) {
	var order model.OrderAggregate
	var chainID, dstChainID, blockNumber int64
	var status int16

	row := s.pool.QueryRow(ctx, `
		SELECT order_id::text, chain_id, maker, taker, deposit_amount::text,
		       desired_amount::text, status, dst_chain_id, block_number,
		       created_at, updated_at
		FROM orders
		WHERE order_id = $1 AND chain_id = $2
	`, key.OrderID, int64(key.ChainID))

	err := row.Scan(
		&order.OrderID,
		&chainID,
		&order.Maker,
		&order.Taker,
		&order.DepositAmount,
		&order.DesiredAmount,
		&status,
		&dstChainID,
		&blockNumber,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.OrderAggregate{}, false, nil
		}
		return model.OrderAggregate{}, false, err
	}

	order.ChainID = uint64(chainID)
	order.DstChainID = uint64(dstChainID)
	order.BlockNumber = uint64(blockNumber)
	order.Status = model.Status(status)
	return order, true, nil
}
