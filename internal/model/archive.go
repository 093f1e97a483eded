package model

// logIndexChainIDBase spreads tx index and chain id into one sort key.
// Chain ids in the endpoint table are all far below 1e9.
const logIndexChainIDBase = 1_000_000_000

// ArchiveRecord is one append-only audit entry per ingested log, keyed by
// (tx_hash, log_index_chain_id).
type ArchiveRecord struct {
	TxHash          string   `json:"tx_hash"`
	LogIndexChainID uint64   `json:"log_index_chain_id"`
	MsgSender       string   `json:"msg_sender"`
	EventSig        string   `json:"event_sig"`
	Timestamp       uint64   `json:"timestamp"`
	ChainID         uint64   `json:"chain_id"`
	ContractAddress string   `json:"contract_address"`
	Topics          []string `json:"topics"`
	Data            string   `json:"data"`
}

// LogIndexChainID derives the composite range key that keeps archive entries
// for the same transaction unique across chains.
func LogIndexChainID(txIndex, chainID uint64) uint64 {
	return txIndex*logIndexChainIDBase + chainID
}

// NewArchiveRecord builds the audit entry for one envelope's log.
func NewArchiveRecord(env QueueEnvelope) ArchiveRecord {
	return ArchiveRecord{
		TxHash:          env.Log.TxHash,
		LogIndexChainID: LogIndexChainID(env.Log.TxIndex, env.ChainID),
		MsgSender:       env.Log.Sender,
		EventSig:        env.Log.Topic0(),
		Timestamp:       env.Timestamp,
		ChainID:         env.ChainID,
		ContractAddress: env.Log.ContractAddress,
		Topics:          env.Log.Topics,
		Data:            env.Log.Data,
	}
}
