package decoder

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// The order contract emits the same event shapes on every chain. The
// trailing uint32 endpoint id is part of the wire contract: it always
// occupies the last 32-byte word of data (see trailingEndpointID). Changing
// the upstream event layout is a breaking change here.
const orderEventsABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "orderId", "type": "uint256"},
      {"indexed": true, "internalType": "address", "name": "maker", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "depositAmount", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "desiredAmount", "type": "uint256"},
      {"indexed": false, "internalType": "uint32", "name": "dstEid", "type": "uint32"}
    ],
    "name": "CreateSrcOrder",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "orderId", "type": "uint256"},
      {"indexed": true, "internalType": "address", "name": "maker", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "depositAmount", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "desiredAmount", "type": "uint256"},
      {"indexed": false, "internalType": "uint32", "name": "srcEid", "type": "uint32"}
    ],
    "name": "CreateDstOrder",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "orderId", "type": "uint256"},
      {"indexed": true, "internalType": "address", "name": "maker", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "taker", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "depositAmount", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "desiredAmount", "type": "uint256"},
      {"indexed": false, "internalType": "uint8", "name": "status", "type": "uint8"},
      {"indexed": false, "internalType": "uint32", "name": "dstEid", "type": "uint32"}
    ],
    "name": "UpdateSrcOrder",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "orderId", "type": "uint256"},
      {"indexed": true, "internalType": "address", "name": "maker", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "taker", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "depositAmount", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "desiredAmount", "type": "uint256"},
      {"indexed": false, "internalType": "uint8", "name": "status", "type": "uint8"},
      {"indexed": false, "internalType": "uint32", "name": "srcEid", "type": "uint32"}
    ],
    "name": "UpdateDstOrder",
    "type": "event"
  }
]`

var (
	orderEventsABI     abi.ABI
	orderEventsABIOnce sync.Once
	orderEventsABIErr  error
)

// OrderEventsABI returns the parsed order events ABI.
func OrderEventsABI() (abi.ABI, error) {
	orderEventsABIOnce.Do(func() {
		orderEventsABI, orderEventsABIErr = abi.JSON(strings.NewReader(orderEventsABIJSON))
	})
	return orderEventsABI, orderEventsABIErr
}

var (
	supportedTopics     map[string]string
	supportedTopicsOnce sync.Once
)

// SupportedTopic reports whether topic0 is one of the four order event
// signatures. The compare is case-insensitive on the hex string.
func SupportedTopic(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := topicNames()[strings.ToLower(topic0)]
	return ok
}

func topicNames() map[string]string {
	supportedTopicsOnce.Do(func() {
		parsed, err := OrderEventsABI()
		if err != nil {
			supportedTopics = map[string]string{}
			return
		}
		supportedTopics = make(map[string]string, len(parsed.Events))
		for name, event := range parsed.Events {
			supportedTopics[strings.ToLower(event.ID.Hex())] = name
		}
	})
	return supportedTopics
}
