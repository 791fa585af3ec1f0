package notifelect

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newTestEngine(localSequence Sequence) *engine {
	return newEngine(DefaultSettings(), nil, MessageFactory{}, localSequence)
}

func TestTallySoleHighestSequenceWins(t *testing.T) {
	e := newTestEngine(5)
	e.recordPong(MessageExchange{ProcessID: uuid.New(), Sequence: 5})
	e.recordPong(MessageExchange{ProcessID: uuid.New(), Sequence: 2})

	e.tally()

	assert.True(t, e.outcome.Winner())
	assert.Empty(t, e.ballots, "tally must clear the ballot set")
}

func TestTallyLowerSequenceLoses(t *testing.T) {
	e := newTestEngine(2)
	e.recordPong(MessageExchange{ProcessID: uuid.New(), Sequence: 5})
	e.recordPong(MessageExchange{ProcessID: uuid.New(), Sequence: 2})

	e.tally()

	assert.False(t, e.outcome.Winner())
}

func TestTallyDuplicatePongsFromSameSenderAreNotATie(t *testing.T) {
	sender := uuid.New()
	e := newTestEngine(5)
	e.recordPong(MessageExchange{ProcessID: sender, Sequence: 5})
	e.recordPong(MessageExchange{ProcessID: sender, Sequence: 5})

	e.tally()

	assert.True(t, e.outcome.Winner())
}

func TestTallyGenuineTieAcrossDistinctSendersHasNoWinner(t *testing.T) {
	e := newTestEngine(5)
	e.recordPong(MessageExchange{ProcessID: uuid.New(), Sequence: 5})
	e.recordPong(MessageExchange{ProcessID: uuid.New(), Sequence: 5})

	e.tally()

	assert.False(t, e.outcome.Winner())
}

func TestTallyNoBallotsHasNoWinner(t *testing.T) {
	e := newTestEngine(1)

	e.tally()

	assert.False(t, e.outcome.Winner(), "no Pongs at all means no one — including self — confirmed the sequence")
}

func TestRequestStopIsIdempotent(t *testing.T) {
	e := newTestEngine(1)
	e.requestStop()
	assert.NotPanics(t, e.requestStop)
}
