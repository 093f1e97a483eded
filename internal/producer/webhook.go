package producer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"orderflow/internal/chains"
	"orderflow/internal/decoder"
	"orderflow/internal/model"
	"orderflow/internal/queue"
)

// ErrBadRequest marks webhook bodies that cannot be parsed. Callers map it
// to a client error; everything else is a server-side failure.
var ErrBadRequest = errors.New("bad request")

// WebhookPayload is the indexer's block notification shape.
type WebhookPayload struct {
	Event struct {
		Network string `json:"network"`
		Data    struct {
			Block struct {
				Number    uint64       `json:"number"`
				Timestamp uint64       `json:"timestamp"`
				Logs      []WebhookLog `json:"logs"`
			} `json:"block"`
		} `json:"data"`
	} `json:"event"`
}

// WebhookLog is one log entry inside a block notification.
type WebhookLog struct {
	Data    string   `json:"data"`
	Topics  []string `json:"topics"`
	Index   uint64   `json:"index"`
	Account struct {
		Address string `json:"address"`
	} `json:"account"`
	Transaction struct {
		Hash  string `json:"hash"`
		Index uint64 `json:"index"`
		From  struct {
			Address string `json:"address"`
		} `json:"from"`
	} `json:"transaction"`
}

// ParsePayload decodes a webhook body. Any parse failure is terminal for
// the request and wrapped as ErrBadRequest.
func ParsePayload(body []byte) (WebhookPayload, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return WebhookPayload{}, fmt.Errorf("%w: parse webhook body: %v", ErrBadRequest, err)
	}
	return payload, nil
}

// Mapper filters a block's logs down to supported order events and reshapes
// them into queue entries routed by chain id.
type Mapper struct {
	logger *zap.Logger
}

func NewMapper(logger *zap.Logger) *Mapper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mapper{logger: logger}
}

// Map builds one queue entry per supported log. Logs whose topic0 is not a
// supported signature are dropped. An unknown network maps to chain id 0 so
// its traffic is still queued and inspectable rather than lost. Returns the
// entries and the count of filtered logs.
func (m *Mapper) Map(payload WebhookPayload) ([]queue.Entry, int) {
	block := payload.Event.Data.Block
	chainID := chains.ChainIDForNetwork(payload.Event.Network)
	if chainID == 0 {
		m.logger.Warn("unknown network, tagging chain id 0", zap.String("network", payload.Event.Network))
	}
	groupKey := strconv.FormatUint(chainID, 10)

	entries := make([]queue.Entry, 0, len(block.Logs))
	filtered := 0
	for i, log := range block.Logs {
		if len(log.Topics) == 0 || !decoder.SupportedTopic(log.Topics[0]) {
			filtered++
			continue
		}

		env := model.QueueEnvelope{
			BlockNumber: block.Number,
			ChainID:     chainID,
			Timestamp:   block.Timestamp,
			Log: model.RawLog{
				Data:            log.Data,
				Topics:          log.Topics,
				LogIndex:        log.Index,
				ContractAddress: log.Account.Address,
				TxHash:          log.Transaction.Hash,
				TxIndex:         log.Transaction.Index,
				Sender:          log.Transaction.From.Address,
				BlockNumber:     block.Number,
				Timestamp:       block.Timestamp,
			},
		}

		body, err := model.EncodeEnvelope(env)
		if err != nil {
			m.logger.Warn("skip unencodable log",
				zap.Error(err),
				zap.String("tx_hash", log.Transaction.Hash),
				zap.Uint64("log_index", log.Index),
			)
			filtered++
			continue
		}

		entries = append(entries, queue.Entry{
			ID:       strconv.Itoa(i),
			GroupKey: groupKey,
			DedupKey: dedupKey(chainID, block.Number, log.Topics[0], log.Transaction.Index),
			Body:     body,
		})
	}
	return entries, filtered
}

// dedupKey fingerprints one log so duplicate webhook deliveries collapse in
// the queue.
func dedupKey(chainID, blockNumber uint64, topic0 string, txIndex uint64) string {
	return fmt.Sprintf("%d:%d:%s:%d", chainID, blockNumber, strings.ToLower(topic0), txIndex)
}
