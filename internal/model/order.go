package model

import "time"

// OrderAggregate is the reconciled cross-chain record for one order, keyed
// by (order_id, chain_id). Status never decreases for a given key.
type OrderAggregate struct {
	OrderID       string    `json:"order_id"`
	ChainID       uint64    `json:"chain_id"`
	Maker         string    `json:"maker"`
	Taker         string    `json:"taker"`
	DepositAmount string    `json:"deposit_amount"`
	DesiredAmount string    `json:"desired_amount"`
	Status        Status    `json:"status"`
	DstChainID    uint64    `json:"dst_chain_id"`
	BlockNumber   uint64    `json:"block_number"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
