package model

// RawLog is the normalized representation of one emitted contract event as
// delivered by the webhook indexer.
type RawLog struct {
	Data            string   `json:"data"`
	Topics          []string `json:"topics"`
	LogIndex        uint64   `json:"log_index"`
	ContractAddress string   `json:"contract_address"`
	TxHash          string   `json:"tx_hash"`
	TxIndex         uint64   `json:"tx_index"`
	Sender          string   `json:"sender"`
	BlockNumber     uint64   `json:"block_number"`
	Timestamp       uint64   `json:"timestamp"`
}

// Topic0 returns the event signature hash, or "" when topics are missing.
func (l RawLog) Topic0() string {
	if len(l.Topics) == 0 {
		return ""
	}
	return l.Topics[0]
}
