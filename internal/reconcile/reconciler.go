package reconcile

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"orderflow/internal/model"
)

// Result classifies one reconciliation attempt. A stale rejection is a
// normal outcome of at-least-once, out-of-order delivery, not an error.
type Result int

const (
	ResultApplied Result = iota
	ResultStale
)

func (r Result) String() string {
	switch r {
	case ResultApplied:
		return "applied"
	case ResultStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Reconciler applies decoded order events to the aggregate store through
// the store's conditional write. Final state for a key is independent of
// arrival order: the highest status always wins.
type Reconciler struct {
	store  OrderStore
	logger *zap.Logger
	now    func() time.Time
}

func NewReconciler(store OrderStore, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{store: store, logger: logger, now: time.Now}
}

// Apply issues the conditional write for one event.
func (r *Reconciler) Apply(ctx context.Context, event model.DomainEvent) (Result, error) {
	if event == nil {
		return ResultStale, fmt.Errorf("nil event")
	}

	order, err := r.aggregateFrom(event)
	if err != nil {
		return ResultStale, err
	}

	applied, err := r.store.Put(ctx, order)
	if err != nil {
		return ResultStale, fmt.Errorf("put order %s/%d: %w", order.OrderID, order.ChainID, err)
	}
	if !applied {
		r.logger.Debug("stale order event rejected",
			zap.String("order_id", order.OrderID),
			zap.Uint64("chain_id", order.ChainID),
			zap.String("status", order.Status.String()),
		)
		return ResultStale, nil
	}
	return ResultApplied, nil
}

func (r *Reconciler) aggregateFrom(event model.DomainEvent) (model.OrderAggregate, error) {
	now := r.now().UTC()
	key := event.Key()

	order := model.OrderAggregate{
		OrderID:   key.OrderID,
		ChainID:   key.ChainID,
		Status:    event.EffectiveStatus(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	switch e := event.(type) {
	case model.CreateSrcOrder:
		order.Maker = e.Maker
		order.DepositAmount = e.DepositAmount
		order.DesiredAmount = e.DesiredAmount
		order.DstChainID = e.DstChainID
		order.BlockNumber = e.BlockNumber
	case model.CreateDstOrder:
		order.Maker = e.Maker
		order.DepositAmount = e.DepositAmount
		order.DesiredAmount = e.DesiredAmount
		order.DstChainID = e.DstChainID
		order.BlockNumber = e.BlockNumber
	case model.UpdateSrcOrder:
		order.Maker = e.Maker
		order.Taker = e.Taker
		order.DepositAmount = e.DepositAmount
		order.DesiredAmount = e.DesiredAmount
		order.DstChainID = e.DstChainID
		order.BlockNumber = e.BlockNumber
	case model.UpdateDstOrder:
		order.Maker = e.Maker
		order.Taker = e.Taker
		order.DepositAmount = e.DepositAmount
		order.DesiredAmount = e.DesiredAmount
		order.DstChainID = e.DstChainID
		order.BlockNumber = e.BlockNumber
	default:
		return model.OrderAggregate{}, fmt.Errorf("unsupported event type %T", event)
	}

	return order, nil
}
