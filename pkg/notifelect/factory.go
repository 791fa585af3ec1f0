package notifelect

import (
	"time"

	"github.com/google/uuid"
)

// MessageFactory stamps outbound messages with the local peer's identity.
// It is stateless beyond that identity and the channel name — every message
// it creates gets a fresh message_id and the current wall-clock time.
type MessageFactory struct {
	ProcessID uuid.UUID
	Namespace Namespace
	Channel   Channel
}

// NewMessageFactory builds a MessageFactory for the given local identity.
func NewMessageFactory(processID uuid.UUID, namespace Namespace, channel Channel) MessageFactory {
	return MessageFactory{ProcessID: processID, Namespace: namespace, Channel: channel}
}

// New stamps a message of the given kind carrying sequence. sequence is
// normally the local peer's own Sequence, except for the terminal yield
// probe, which always carries the zero sentinel.
func (f MessageFactory) New(kind MessageType, sequence Sequence) MessageExchange {
	return MessageExchange{
		Channel:   f.Channel,
		MessageID: uuid.New(),
		Namespace: f.Namespace,
		ProcessID: f.ProcessID,
		SentAt:    time.Now().UTC(),
		Sequence:  sequence,
		Type:      kind,
	}
}

// Ping stamps an outbound Ping carrying sequence.
func (f MessageFactory) Ping(sequence Sequence) MessageExchange {
	return f.New(Ping, sequence)
}

// Pong stamps an outbound Pong carrying sequence.
func (f MessageFactory) Pong(sequence Sequence) MessageExchange {
	return f.New(Pong, sequence)
}
