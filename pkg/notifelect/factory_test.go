package notifelect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageFactoryStampsIdentity(t *testing.T) {
	processID := NewProcessID()
	factory := NewMessageFactory(processID, "ns", "ch")

	ping := factory.Ping(9)
	assert.Equal(t, Ping, ping.Type)
	assert.Equal(t, Sequence(9), ping.Sequence)
	assert.Equal(t, processID, ping.ProcessID)
	assert.Equal(t, Namespace("ns"), ping.Namespace)
	assert.Equal(t, Channel("ch"), ping.Channel)
	assert.False(t, ping.SentAt.IsZero())

	pong := factory.Pong(0)
	assert.Equal(t, Pong, pong.Type)
	assert.Equal(t, Sequence(0), pong.Sequence)
}

func TestMessageFactoryEachMessageGetsAFreshID(t *testing.T) {
	factory := NewMessageFactory(NewProcessID(), "ns", "ch")
	a := factory.Ping(1)
	b := factory.Ping(1)
	assert.NotEqual(t, a.MessageID, b.MessageID)
}
