package notifelect

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageExchange is the sole wire record exchanged on the channel. Its JSON
// encoding is canonical: stable field names, an RFC3339 timestamp (always
// carrying an explicit offset), and no extra fields.
type MessageExchange struct {
	Channel   Channel     `json:"channel"`
	MessageID uuid.UUID   `json:"message_id"`
	Namespace Namespace   `json:"namespace"`
	ProcessID uuid.UUID   `json:"process_id"`
	SentAt    time.Time   `json:"sent_at"`
	Sequence  Sequence    `json:"sequence"`
	Type      MessageType `json:"type"`
}

// requiredFields lists every MessageExchange JSON key that must be present
// on the wire, independent of whether the value happens to be the zero
// value — a Sequence of 0 is legal (the yield probe) but an absent
// "sequence" key is not.
var requiredFields = []string{
	"channel", "message_id", "namespace", "process_id", "sent_at", "sequence", "type",
}

// Encode renders m as canonical JSON for publication on the channel.
func (m MessageExchange) Encode() ([]byte, error) {
	encoded, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("notifelect: encode: %w", err)
	}
	return encoded, nil
}

// Decode parses and structurally validates a payload received on the
// channel. It rejects payloads that fail to parse, that are missing a
// required field, that carry an unrecognized type, or whose identifiers are
// not valid UUIDs or whose timestamp lacks a timezone offset. Decode imposes
// no cross-field semantic checks (namespace filtering, sequence sanity) —
// those live in the dispatcher.
func Decode(payload []byte) (MessageExchange, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return MessageExchange{}, fmt.Errorf("notifelect: decode: invalid json: %w", err)
	}

	for _, field := range requiredFields {
		if _, ok := raw[field]; !ok {
			return MessageExchange{}, fmt.Errorf("notifelect: decode: missing field %q", field)
		}
	}

	var msg MessageExchange
	if err := json.Unmarshal(payload, &msg); err != nil {
		return MessageExchange{}, fmt.Errorf("notifelect: decode: %w", err)
	}

	switch msg.Type {
	case Ping, Pong:
	default:
		return MessageExchange{}, fmt.Errorf("notifelect: decode: unrecognized type %q", msg.Type)
	}

	return msg, nil
}
