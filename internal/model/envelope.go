package model

import "encoding/json"

// QueueEnvelope is the message body carried between producer and consumer.
type QueueEnvelope struct {
	BlockNumber uint64 `json:"block_number"`
	ChainID     uint64 `json:"chain_id"`
	Timestamp   uint64 `json:"timestamp"`
	Log         RawLog `json:"log"`
}

// EncodeEnvelope serializes an envelope for the queue body.
func EncodeEnvelope(env QueueEnvelope) ([]byte, error) {
	return json.Marshal(env)
}

// DecodeEnvelope parses a queue body back into an envelope.
func DecodeEnvelope(body []byte) (QueueEnvelope, error) {
	var env QueueEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return QueueEnvelope{}, err
	}
	return env, nil
}
