package model

// Status is the order lifecycle ordinal. The reconciler only ever moves an
// order to a strictly greater status, so the numeric values define the
// total order used by the conditional write.
type Status uint8

const (
	StatusNone                Status = 0
	StatusCreateOrder         Status = 1
	StatusCreateOrderReceive  Status = 2
	StatusExecuteOrder        Status = 3
	StatusExecuteOrderReceive Status = 4
	StatusClaim               Status = 5
	StatusClaimReceive        Status = 6
	StatusCanceled            Status = 7
	StatusCanceledReceive     Status = 8
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusCreateOrder:
		return "createOrder"
	case StatusCreateOrderReceive:
		return "createOrderReceive"
	case StatusExecuteOrder:
		return "executeOrder"
	case StatusExecuteOrderReceive:
		return "executeOrderReceive"
	case StatusClaim:
		return "claim"
	case StatusClaimReceive:
		return "claimReceive"
	case StatusCanceled:
		return "canceled"
	case StatusCanceledReceive:
		return "canceledReceive"
	default:
		return "unknown"
	}
}
