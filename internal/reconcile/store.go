package reconcile

import (
	"context"

	"orderflow/internal/model"
)

// OrderStore persists order aggregates. Put must be a single atomic
// conditional write: the record is created or fully overwritten only when no
// record exists for the key or the stored status is strictly less than the
// incoming one. Put returns false when the condition rejects the write.
type OrderStore interface {
	Put(ctx context.Context, order model.OrderAggregate) (bool, error)
	Get(ctx context.Context, key model.OrderKey) (model.OrderAggregate, bool, error)
}
