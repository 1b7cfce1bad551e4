package protocol

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

type Envelope struct {
	TopicID string      `msgpack:"topicId,omitempty" json:"topicId,omitempty"`
	Type    MessageType `msgpack:"type" json:"type"`
	Body    any         `msgpack:"body" json:"body"`
}

func NewEnvelope(topicID string, msgType MessageType, body any) *Envelope {
	return &Envelope{
		TopicID: topicID,
		Type:    msgType,
		Body:    body,
	}
}

func (e *Envelope) Encode() ([]byte, error) {
	data, err := msgpack.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return data, nil
}

func DecodeEnvelope(data []byte) (*Envelope, error) {
	var e Envelope
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return &e, nil
}

// DecodeBody decodes the envelope body into the given type. Bodies arrive as
// map[string]any after msgpack decoding; re-encoding converts them to the
// concrete struct.
func DecodeBody[T any](e *Envelope) (*T, error) {
	if typed, ok := e.Body.(T); ok {
		return &typed, nil
	}

	data, err := msgpack.Marshal(e.Body)
	if err != nil {
		return nil, fmt.Errorf("re-encode body: %w", err)
	}

	var result T
	if err := msgpack.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode body to %T: %w", result, err)
	}
	return &result, nil
}
