package notifelect

import (
	"os"

	"github.com/google/uuid"
)

// Sequence is the total-order identity a peer obtains once, at startup, from
// the database counter. Value 0 is a reserved sentinel meaning "not a
// candidate" — the counter itself never issues it (it starts at 1).
type Sequence int64

// Namespace scopes peers into independent elections. Two peers are in the
// same election iff they share a Namespace; messages tagged with any other
// namespace are discarded.
type Namespace string

// Channel is the database-visible NOTIFY/LISTEN channel name.
type Channel string

// MessageType is the wire value of MessageExchange.Type.
type MessageType string

// The two message kinds exchanged on the channel.
const (
	Ping MessageType = "Ping"
	Pong MessageType = "Pong"
)

// NewProcessID generates a fresh, locally unique identifier for a peer. It
// distinguishes peers that happen to share other attributes but is never
// used for ordering — only Sequence is.
func NewProcessID() uuid.UUID {
	return uuid.New()
}

// addPrefix prepends the NOTIFELECT_PREFIX environment variable (if any) to
// name, so multiple deployments can share one database without colliding on
// the sequence or channel name.
func addPrefix(name string) string {
	return os.Getenv("NOTIFELECT_PREFIX") + name
}
