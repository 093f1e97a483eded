package model

// OrderKey identifies one order aggregate. ChainID is always the source
// chain of the order, regardless of which chain emitted the event.
type OrderKey struct {
	OrderID string
	ChainID uint64
}

// DomainEvent is one of the four supported order events. The set is closed:
// the decoder only ever produces these variants, and the reconciler switches
// over them exhaustively.
type DomainEvent interface {
	Key() OrderKey
	// EffectiveStatus is the status the event drives the aggregate toward.
	// Create events imply their status, update events carry it.
	EffectiveStatus() Status

	domainEvent()
}

// CreateSrcOrder is the order creation observed on the source chain.
type CreateSrcOrder struct {
	OrderID       string
	Maker         string
	DepositAmount string
	DesiredAmount string
	ChainID       uint64
	DstChainID    uint64
	BlockNumber   uint64
	Timestamp     uint64
}

// CreateDstOrder is the creation receipt observed on the destination chain.
// ChainID is the source chain resolved from the trailing endpoint id.
type CreateDstOrder struct {
	OrderID       string
	Maker         string
	DepositAmount string
	DesiredAmount string
	ChainID       uint64
	DstChainID    uint64
	BlockNumber   uint64
	Timestamp     uint64
}

// UpdateSrcOrder is a status transition observed on the source chain.
type UpdateSrcOrder struct {
	OrderID       string
	Maker         string
	Taker         string
	DepositAmount string
	DesiredAmount string
	Status        Status
	ChainID       uint64
	DstChainID    uint64
	BlockNumber   uint64
	Timestamp     uint64
}

// UpdateDstOrder is a status transition observed on the destination chain.
type UpdateDstOrder struct {
	OrderID       string
	Maker         string
	Taker         string
	DepositAmount string
	DesiredAmount string
	Status        Status
	ChainID       uint64
	DstChainID    uint64
	BlockNumber   uint64
	Timestamp     uint64
}

func (e CreateSrcOrder) Key() OrderKey { return OrderKey{OrderID: e.OrderID, ChainID: e.ChainID} }
func (e CreateDstOrder) Key() OrderKey { return OrderKey{OrderID: e.OrderID, ChainID: e.ChainID} }
func (e UpdateSrcOrder) Key() OrderKey { return OrderKey{OrderID: e.OrderID, ChainID: e.ChainID} }
func (e UpdateDstOrder) Key() OrderKey { return OrderKey{OrderID: e.OrderID, ChainID: e.ChainID} }

func (e CreateSrcOrder) EffectiveStatus() Status { return StatusCreateOrder }
func (e CreateDstOrder) EffectiveStatus() Status { return StatusCreateOrderReceive }
func (e UpdateSrcOrder) EffectiveStatus() Status { return e.Status }
func (e UpdateDstOrder) EffectiveStatus() Status { return e.Status }

func (CreateSrcOrder) domainEvent() {}
func (CreateDstOrder) domainEvent() {}
func (UpdateSrcOrder) domainEvent() {}
func (UpdateDstOrder) domainEvent() {}
