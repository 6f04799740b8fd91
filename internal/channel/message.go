package channel

import (
	"encoding/json"
	"fmt"
)

// InboundMessage is the payload of one received frame. Value holds the
// decoded JSON value when the frame parses as well-formed JSON, otherwise
// the raw text unchanged. A decode failure is not a channel error.
type InboundMessage struct {
	Raw     string
	Value   any
	Decoded bool
}

// EnvelopeType returns the "type" field when the message decoded as a JSON
// object envelope, else the empty string. Backend events carry
// {"type", "project_id", "data", "timestamp"} envelopes; the client itself
// never interprets them.
func (m InboundMessage) EnvelopeType() string {
	obj, ok := m.Value.(map[string]any)
	if !ok {
		return ""
	}
	kind, _ := obj["type"].(string)

	return kind
}

func decodeInbound(payload []byte) InboundMessage {
	msg := InboundMessage{Raw: string(payload)}

	var value any
	if err := json.Unmarshal(payload, &value); err != nil {
		msg.Value = msg.Raw

		return msg
	}
	msg.Value = value
	msg.Decoded = true

	return msg
}

// encodeOutbound renders a Send payload as one outbound frame. Strings and
// byte slices pass through untouched; everything else is JSON-marshalled.
func encodeOutbound(payload any) ([]byte, error) {
	switch v := payload.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}

		return data, nil
	}
}
