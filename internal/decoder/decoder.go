package decoder

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"orderflow/internal/chains"
	"orderflow/internal/model"
)

// Decoder turns queue envelopes into typed order events. Dispatch is purely
// on topic0. Unsupported signatures and unmapped endpoint ids decode to nil
// without error: those logs are archived but never reconciled.
type Decoder struct {
	events abi.ABI
	names  map[string]string
}

func New() (*Decoder, error) {
	events, err := OrderEventsABI()
	if err != nil {
		return nil, err
	}
	return &Decoder{events: events, names: topicNames()}, nil
}

// Decode converts an envelope's raw log into a DomainEvent, or nil when the
// log is not one of the supported events.
func (d *Decoder) Decode(env model.QueueEnvelope) (model.DomainEvent, error) {
	name, ok := d.names[strings.ToLower(env.Log.Topic0())]
	if !ok {
		return nil, nil
	}

	orderID, maker, taker, err := parseOrderTopics(env.Log.Topics)
	if err != nil {
		return nil, fmt.Errorf("%s topics: %w", name, err)
	}

	data, err := hexutil.Decode(env.Log.Data)
	if err != nil {
		return nil, fmt.Errorf("%s data: %w", name, err)
	}

	eid, err := trailingEndpointID(data)
	if err != nil {
		return nil, fmt.Errorf("%s endpoint id: %w", name, err)
	}
	counterpartChain, ok := chains.ChainIDForEndpoint(eid)
	if !ok {
		return nil, nil
	}

	switch name {
	case "CreateSrcOrder", "CreateDstOrder":
		deposit, desired, err := d.unpackCreate(name, data)
		if err != nil {
			return nil, err
		}
		if name == "CreateSrcOrder" {
			return model.CreateSrcOrder{
				OrderID:       orderID,
				Maker:         maker,
				DepositAmount: deposit.String(),
				DesiredAmount: desired.String(),
				ChainID:       env.ChainID,
				DstChainID:    counterpartChain,
				BlockNumber:   env.BlockNumber,
				Timestamp:     env.Timestamp,
			}, nil
		}
		// On the destination chain the trailing endpoint id names the
		// order's source chain, and the envelope's chain is the destination.
		return model.CreateDstOrder{
			OrderID:       orderID,
			Maker:         maker,
			DepositAmount: deposit.String(),
			DesiredAmount: desired.String(),
			ChainID:       counterpartChain,
			DstChainID:    env.ChainID,
			BlockNumber:   env.BlockNumber,
			Timestamp:     env.Timestamp,
		}, nil

	case "UpdateSrcOrder", "UpdateDstOrder":
		deposit, desired, status, err := d.unpackUpdate(name, data)
		if err != nil {
			return nil, err
		}
		if name == "UpdateSrcOrder" {
			return model.UpdateSrcOrder{
				OrderID:       orderID,
				Maker:         maker,
				Taker:         taker,
				DepositAmount: deposit.String(),
				DesiredAmount: desired.String(),
				Status:        status,
				ChainID:       env.ChainID,
				DstChainID:    counterpartChain,
				BlockNumber:   env.BlockNumber,
				Timestamp:     env.Timestamp,
			}, nil
		}
		return model.UpdateDstOrder{
			OrderID:       orderID,
			Maker:         maker,
			Taker:         taker,
			DepositAmount: deposit.String(),
			DesiredAmount: desired.String(),
			Status:        status,
			ChainID:       counterpartChain,
			DstChainID:    env.ChainID,
			BlockNumber:   env.BlockNumber,
			Timestamp:     env.Timestamp,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported event name: %s", name)
	}
}

func (d *Decoder) unpackCreate(name string, data []byte) (*big.Int, *big.Int, error) {
	values, err := d.events.Events[name].Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, nil, fmt.Errorf("unpack %s: %w", name, err)
	}
	if len(values) != 3 {
		return nil, nil, fmt.Errorf("unexpected %s values: %d", name, len(values))
	}
	deposit, err := asBigInt(values[0])
	if err != nil {
		return nil, nil, err
	}
	desired, err := asBigInt(values[1])
	if err != nil {
		return nil, nil, err
	}
	return deposit, desired, nil
}

func (d *Decoder) unpackUpdate(name string, data []byte) (*big.Int, *big.Int, model.Status, error) {
	values, err := d.events.Events[name].Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("unpack %s: %w", name, err)
	}
	if len(values) != 4 {
		return nil, nil, 0, fmt.Errorf("unexpected %s values: %d", name, len(values))
	}
	deposit, err := asBigInt(values[0])
	if err != nil {
		return nil, nil, 0, err
	}
	desired, err := asBigInt(values[1])
	if err != nil {
		return nil, nil, 0, err
	}
	status, ok := values[2].(uint8)
	if !ok {
		return nil, nil, 0, fmt.Errorf("status type %T", values[2])
	}
	return deposit, desired, model.Status(status), nil
}

// parseOrderTopics reads orderId from topics[1], maker from topics[2], and
// taker from topics[3]. A missing taker topic yields the zero address.
func parseOrderTopics(topics []string) (orderID, maker, taker string, err error) {
	if len(topics) < 3 {
		return "", "", "", fmt.Errorf("expected at least 3 topics, got %d", len(topics))
	}

	orderWord, err := topicWord(topics[1])
	if err != nil {
		return "", "", "", fmt.Errorf("orderId: %w", err)
	}
	orderID = new(big.Int).SetBytes(orderWord.Bytes()).String()

	makerWord, err := topicWord(topics[2])
	if err != nil {
		return "", "", "", fmt.Errorf("maker: %w", err)
	}
	maker = common.BytesToAddress(makerWord.Bytes()).Hex()

	taker = (common.Address{}).Hex()
	if len(topics) > 3 {
		takerWord, err := topicWord(topics[3])
		if err != nil {
			return "", "", "", fmt.Errorf("taker: %w", err)
		}
		taker = common.BytesToAddress(takerWord.Bytes()).Hex()
	}
	return orderID, maker, taker, nil
}

func topicWord(topic string) (common.Hash, error) {
	raw, err := hexutil.Decode(topic)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid topic: %w", err)
	}
	if len(raw) > 32 {
		return common.Hash{}, fmt.Errorf("topic length %d", len(raw))
	}
	return common.BytesToHash(raw), nil
}

// trailingEndpointID reads the endpoint id from the last 32-byte word of
// data. This fixed offset is the contract's ABI layout for every supported
// event, not general ABI slicing.
func trailingEndpointID(data []byte) (uint32, error) {
	if len(data) < 32 || len(data)%32 != 0 {
		return 0, fmt.Errorf("data length %d", len(data))
	}
	word := data[len(data)-32:]
	value := new(big.Int).SetBytes(word)
	if !value.IsUint64() || value.Uint64() > 0xFFFFFFFF {
		return 0, fmt.Errorf("endpoint id out of range: %s", value)
	}
	return uint32(value.Uint64()), nil
}

func asBigInt(value interface{}) (*big.Int, error) {
	out, ok := value.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("expected *big.Int, got %T", value)
	}
	return out, nil
}
