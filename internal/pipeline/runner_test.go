package pipeline

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"orderflow/internal/archive"
	"orderflow/internal/decoder"
	"orderflow/internal/model"
	"orderflow/internal/queue"
	"orderflow/internal/reconcile"
)

type fixture struct {
	runner *Runner
	orders *reconcile.MemoryStore
	audit  *archive.MemoryStore
}

func newFixture(t *testing.T, store reconcile.OrderStore) fixture {
	t.Helper()

	d, err := decoder.New()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	orders, _ := store.(*reconcile.MemoryStore)
	audit := archive.NewMemoryStore()
	runner := NewRunner(
		d,
		reconcile.NewReconciler(store, zap.NewNop()),
		archive.NewWriter(audit),
		zap.NewNop(),
		nil,
	)
	return fixture{runner: runner, orders: orders, audit: audit}
}

func packedCreateSrc(t *testing.T, eid uint32) []byte {
	t.Helper()
	events, err := decoder.OrderEventsABI()
	if err != nil {
		t.Fatalf("abi: %v", err)
	}
	data, err := events.Events["CreateSrcOrder"].Inputs.NonIndexed().Pack(big.NewInt(100), big.NewInt(200), eid)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	return data
}

func packedUpdateSrc(t *testing.T, status uint8, eid uint32) []byte {
	t.Helper()
	events, err := decoder.OrderEventsABI()
	if err != nil {
		t.Fatalf("abi: %v", err)
	}
	data, err := events.Events["UpdateSrcOrder"].Inputs.NonIndexed().Pack(big.NewInt(100), big.NewInt(200), status, eid)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	return data
}

func envelopeMessage(t *testing.T, receipt int64, chainID uint64, eventName string, topics []common.Hash, data []byte, txIndex uint64) queue.Message {
	t.Helper()

	events, err := decoder.OrderEventsABI()
	if err != nil {
		t.Fatalf("abi: %v", err)
	}
	hexTopics := []string{events.Events[eventName].ID.Hex()}
	for _, topic := range topics {
		hexTopics = append(hexTopics, topic.Hex())
	}

	env := model.QueueEnvelope{
		BlockNumber: 555,
		ChainID:     chainID,
		Timestamp:   1_700_000_000,
		Log: model.RawLog{
			Data:            hexutil.Encode(data),
			Topics:          hexTopics,
			ContractAddress: "0x4444444444444444444444444444444444444444",
			TxHash:          "0xfeed",
			TxIndex:         txIndex,
			Sender:          "0x5555555555555555555555555555555555555555",
			BlockNumber:     555,
			Timestamp:       1_700_000_000,
		},
	}
	body, err := model.EncodeEnvelope(env)
	if err != nil {
		t.Fatalf("encode envelope: %v", err)
	}
	return queue.Message{Receipt: receipt, GroupKey: "1", Body: body}
}

func orderTopics(orderID int64) []common.Hash {
	maker := common.HexToAddress("0x2222222222222222222222222222222222222222")
	return []common.Hash{common.BigToHash(big.NewInt(orderID)), common.BytesToHash(maker.Bytes())}
}

func TestProcessReconcilesAndArchives(t *testing.T) {
	fx := newFixture(t, reconcile.NewMemoryStore())

	messages := []queue.Message{
		envelopeMessage(t, 1, 1, "CreateSrcOrder", orderTopics(7), packedCreateSrc(t, 30110), 0),
		envelopeMessage(t, 2, 1, "UpdateSrcOrder", orderTopics(7), packedUpdateSrc(t, 3, 30110), 1),
	}

	summary := fx.runner.Process(context.Background(), messages)
	if summary.Failed() {
		t.Fatalf("unexpected failures: %+v", summary)
	}
	if summary.Decoded != 2 || summary.Applied != 2 {
		t.Fatalf("summary mismatch: %+v", summary)
	}

	order, ok, _ := fx.orders.Get(context.Background(), model.OrderKey{OrderID: "7", ChainID: 1})
	if !ok || order.Status != model.StatusExecuteOrder {
		t.Fatalf("order state mismatch: ok=%v %+v", ok, order)
	}
	if fx.audit.Len() != 2 {
		t.Fatalf("expected 2 archive records, got %d", fx.audit.Len())
	}
}

func TestProcessOutOfOrderConverges(t *testing.T) {
	fx := newFixture(t, reconcile.NewMemoryStore())
	ctx := context.Background()

	// Higher status arrives first; the late create must be rejected stale.
	first := fx.runner.Process(ctx, []queue.Message{
		envelopeMessage(t, 1, 1, "UpdateSrcOrder", orderTopics(7), packedUpdateSrc(t, 2, 30110), 1),
	})
	if first.Applied != 1 {
		t.Fatalf("first invocation: %+v", first)
	}

	second := fx.runner.Process(ctx, []queue.Message{
		envelopeMessage(t, 2, 1, "CreateSrcOrder", orderTopics(7), packedCreateSrc(t, 30110), 0),
	})
	if second.Stale != 1 || second.Applied != 0 {
		t.Fatalf("late create should be stale: %+v", second)
	}

	order, _, _ := fx.orders.Get(ctx, model.OrderKey{OrderID: "7", ChainID: 1})
	if order.Status != model.StatusCreateOrderReceive {
		t.Fatalf("final status mismatch: %v", order.Status)
	}
}

func TestProcessArchivesUndecodableLogs(t *testing.T) {
	fx := newFixture(t, reconcile.NewMemoryStore())

	env := model.QueueEnvelope{
		BlockNumber: 555,
		ChainID:     1,
		Timestamp:   1_700_000_000,
		Log: model.RawLog{
			Data:   "0x",
			Topics: []string{"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"},
			TxHash: "0xdead",
		},
	}
	body, _ := model.EncodeEnvelope(env)

	summary := fx.runner.Process(context.Background(), []queue.Message{{Receipt: 1, Body: body}})
	if summary.Skipped != 1 || summary.Decoded != 0 {
		t.Fatalf("summary mismatch: %+v", summary)
	}
	if summary.Failed() {
		t.Fatalf("skip must not be a failure: %+v", summary)
	}
	if fx.audit.Len() != 1 {
		t.Fatalf("undecodable log must still be archived, got %d records", fx.audit.Len())
	}
	if fx.orders.Len() != 0 {
		t.Fatalf("undecodable log must not touch the order store")
	}
}

func TestProcessUnparseableBodySkips(t *testing.T) {
	fx := newFixture(t, reconcile.NewMemoryStore())

	summary := fx.runner.Process(context.Background(), []queue.Message{{Receipt: 1, Body: []byte("garbage")}})
	if summary.Skipped != 1 || summary.Failed() {
		t.Fatalf("summary mismatch: %+v", summary)
	}
	if len(summary.Errors) != 1 {
		t.Fatalf("parse error must be reported: %+v", summary.Errors)
	}
}

type failingOrderStore struct {
	inner   *reconcile.MemoryStore
	failKey string
}

func (s *failingOrderStore) Put(ctx context.Context, order model.OrderAggregate) (bool, error) {
	if order.OrderID == s.failKey {
		return false, errors.New("store timeout")
	}
	return s.inner.Put(ctx, order)
}

func (s *failingOrderStore) Get(ctx context.Context, key model.OrderKey) (model.OrderAggregate, bool, error) {
	return s.inner.Get(ctx, key)
}

func TestProcessPartialFailureIsIsolated(t *testing.T) {
	store := &failingOrderStore{inner: reconcile.NewMemoryStore(), failKey: "7"}
	fx := newFixture(t, store)

	messages := []queue.Message{
		envelopeMessage(t, 1, 1, "CreateSrcOrder", orderTopics(7), packedCreateSrc(t, 30110), 0),
		envelopeMessage(t, 2, 1, "CreateSrcOrder", orderTopics(8), packedCreateSrc(t, 30110), 1),
	}

	summary := fx.runner.Process(context.Background(), messages)
	if summary.Applied != 1 {
		t.Fatalf("sibling must still apply: %+v", summary)
	}
	if len(summary.FailedIndices) != 1 || summary.FailedIndices[0] != 0 {
		t.Fatalf("failed index mismatch: %+v", summary.FailedIndices)
	}
	if _, ok, _ := store.inner.Get(context.Background(), model.OrderKey{OrderID: "8", ChainID: 1}); !ok {
		t.Fatalf("sibling order missing")
	}
}

func TestLoopAcksProcessedAndKeepsFailed(t *testing.T) {
	q := queue.NewMemoryQueue(time.Minute)
	ctx := context.Background()

	store := &failingOrderStore{inner: reconcile.NewMemoryStore(), failKey: "7"}
	fx := newFixture(t, store)

	good := envelopeMessage(t, 0, 1, "CreateSrcOrder", orderTopics(8), packedCreateSrc(t, 30110), 1)
	bad := envelopeMessage(t, 0, 1, "CreateSrcOrder", orderTopics(7), packedCreateSrc(t, 30110), 0)
	if err := q.SendBatch(ctx, []queue.Entry{
		{ID: "1", GroupKey: "1", Body: bad.Body},
		{ID: "2", GroupKey: "56", Body: good.Body},
	}); err != nil {
		t.Fatalf("send: %v", err)
	}

	loop := NewLoop(LoopConfig{BatchSize: 10}, q, fx.runner, zap.NewNop())
	summary, err := loop.RunOnce(ctx)
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if summary.Applied != 1 || len(summary.FailedIndices) != 1 {
		t.Fatalf("summary mismatch: %+v", summary)
	}

	// The failed message stays queued for redelivery, the applied one is
	// acked.
	if q.Len() != 1 {
		t.Fatalf("expected 1 message left for redelivery, got %d", q.Len())
	}
}
