package notifelect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCoordinator(t *testing.T, localSequence Sequence) (*Coordinator, *fakeExecutor) {
	t.Helper()
	exec := &fakeExecutor{}
	builder := NewQueryBuilder("")
	queries := NewQueries(exec, builder)

	c := &Coordinator{
		settings:      Settings{Namespace: "default"},
		queries:       queries,
		processID:     NewProcessID(),
		factory:       NewMessageFactory(NewProcessID(), "default", builder.Channel),
		localSequence: localSequence,
		started:       true,
	}
	return c, exec
}

func TestHandlePingRepliesWhenLocalSequenceDominates(t *testing.T) {
	c, exec := newTestCoordinator(t, 5)

	c.handlePing(MessageExchange{Namespace: "default", Sequence: 3, ProcessID: NewProcessID()})
	require.NoError(t, c.tasks.Wait())

	require.Len(t, exec.executed, 1)
	assert.Contains(t, exec.executed[0], "pg_notify")
}

func TestHandlePingRepliesToItsOwnSequence(t *testing.T) {
	c, exec := newTestCoordinator(t, 5)

	c.handlePing(MessageExchange{Namespace: "default", Sequence: 5, ProcessID: NewProcessID()})
	require.NoError(t, c.tasks.Wait())

	assert.Len(t, exec.executed, 1)
}

func TestHandlePingIgnoresHigherIncomingSequence(t *testing.T) {
	c, exec := newTestCoordinator(t, 2)

	c.handlePing(MessageExchange{Namespace: "default", Sequence: 5, ProcessID: NewProcessID()})
	require.NoError(t, c.tasks.Wait())

	assert.Empty(t, exec.executed)
}

func TestHandlePingIgnoresZeroLocalSequence(t *testing.T) {
	c, exec := newTestCoordinator(t, 0)

	c.handlePing(MessageExchange{Namespace: "default", Sequence: 0, ProcessID: NewProcessID()})
	require.NoError(t, c.tasks.Wait())

	assert.Empty(t, exec.executed, "a peer with no acquired sequence must never answer Pings, including the yield probe")
}

func TestDispatchIgnoresForeignNamespace(t *testing.T) {
	c, exec := newTestCoordinator(t, 5)
	c.engine = newEngine(c.settings, c.queries, c.factory, c.localSequence)

	factory := NewMessageFactory(NewProcessID(), "other-namespace", c.queries.Builder.Channel)
	payload, err := factory.Ping(1).Encode()
	require.NoError(t, err)

	c.dispatch(string(payload))
	require.NoError(t, c.tasks.Wait())

	assert.Empty(t, exec.executed)
	assert.Empty(t, c.engine.ballots)
}

func TestDispatchIgnoresMalformedPayload(t *testing.T) {
	c, _ := newTestCoordinator(t, 5)
	c.engine = newEngine(c.settings, c.queries, c.factory, c.localSequence)

	assert.NotPanics(t, func() {
		c.dispatch("{not valid json")
	})
	assert.Empty(t, c.engine.ballots)
}

func TestDispatchRoutesPongToEngine(t *testing.T) {
	c, _ := newTestCoordinator(t, 5)
	c.engine = newEngine(c.settings, c.queries, c.factory, c.localSequence)

	factory := NewMessageFactory(NewProcessID(), "default", c.queries.Builder.Channel)
	payload, err := factory.Pong(5).Encode()
	require.NoError(t, err)

	c.dispatch(string(payload))

	assert.Len(t, c.engine.ballots, 1)
}

func TestDispatchRoutesPingThroughHandlePing(t *testing.T) {
	c, exec := newTestCoordinator(t, 9)
	c.engine = newEngine(c.settings, c.queries, c.factory, c.localSequence)

	factory := NewMessageFactory(NewProcessID(), "default", c.queries.Builder.Channel)
	payload, err := factory.Ping(1).Encode()
	require.NoError(t, err)

	c.dispatch(string(payload))
	require.NoError(t, c.tasks.Wait())

	assert.Len(t, exec.executed, 1)
}

func TestStopIsSafeBeforeStart(t *testing.T) {
	c := &Coordinator{}
	assert.NoError(t, c.Stop(context.Background()))
}
