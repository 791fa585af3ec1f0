package notifelect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Coordinator is the top-level scoped handle: it ties the Query Layer, the
// Message Factory, and the Electoral engine to a live database subscription,
// and guarantees teardown. Construct one with NewCoordinator, call Start to
// join the election, and defer Stop.
type Coordinator struct {
	settings  Settings
	queries   *Queries
	processID uuid.UUID

	factory       MessageFactory
	localSequence Sequence
	engine        *engine
	tasks         TaskManager

	started bool
}

// NewCoordinator builds a Coordinator bound to queries. settings.Namespace
// scopes this peer's election; a zero ElectionInterval/ElectionTimeout falls
// back to the package defaults.
func NewCoordinator(queries *Queries, settings Settings) *Coordinator {
	if settings.ElectionInterval == 0 {
		settings.ElectionInterval = DefaultElectionInterval
	}
	if settings.ElectionTimeout == 0 {
		settings.ElectionTimeout = DefaultElectionTimeout
	}
	return &Coordinator{
		settings:  settings,
		queries:   queries,
		processID: NewProcessID(),
	}
}

// ProcessID returns this peer's locally generated identity.
func (c *Coordinator) ProcessID() uuid.UUID {
	return c.processID
}

// Start obtains this peer's Sequence, subscribes to the channel, spawns the
// Electoral loop, and publishes an initial Ping so a new joiner triggers
// immediate reconvergence instead of waiting a full interval. It returns the
// Outcome handle the caller reads "am I the leader?" from.
//
// If Start fails partway, everything it had already set up is unwound before
// returning, since there is no automatic scope-exit pairing to rely on here.
func (c *Coordinator) Start(ctx context.Context) (*Outcome, error) {
	sequence, err := c.queries.NextSequence(ctx)
	if err != nil {
		return nil, fmt.Errorf("notifelect: start: %w", err)
	}
	c.localSequence = sequence
	c.factory = NewMessageFactory(c.processID, c.settings.Namespace, c.queries.Builder.Channel)
	c.engine = newEngine(c.settings, c.queries, c.factory, sequence)

	if err := c.queries.Subscribe(ctx, c.dispatch); err != nil {
		return nil, fmt.Errorf("notifelect: start: %w", err)
	}

	c.tasks.Go(func() error {
		return c.engine.run(context.Background())
	})

	if err := c.queries.Notify(ctx, c.factory.Ping(sequence)); err != nil {
		c.engine.requestStop()
		_ = c.queries.Unsubscribe(ctx)
		_ = c.tasks.Wait()
		return nil, fmt.Errorf("notifelect: start: %w", err)
	}

	c.started = true
	return &c.engine.outcome, nil
}

// Stop signals the Electoral loop to stop, unregisters the channel listener,
// publishes a terminal yield Ping (sequence 0, best-effort) so the remaining
// peers reconverge promptly, and awaits every background task, surfacing the
// first error any of them produced. It is always safe to call, including
// after a failed Start.
func (c *Coordinator) Stop(ctx context.Context) error {
	if !c.started {
		return nil
	}

	c.engine.requestStop()

	var unsubErr error
	if err := c.queries.Unsubscribe(ctx); err != nil {
		unsubErr = fmt.Errorf("notifelect: stop: unsubscribe: %w", err)
		slog.Error("notifelect: failed to unsubscribe on shutdown", "error", err)
	}

	if err := c.queries.Notify(ctx, c.factory.Ping(0)); err != nil {
		// Best-effort: the remaining peers simply wait out the next
		// scheduled interval instead of reconverging early.
		slog.Warn("notifelect: failed to publish yield probe", "error", err)
	}

	taskErr := c.tasks.Wait()

	return errors.Join(unsubErr, taskErr)
}

// dispatch parses an inbound payload and routes it by namespace and type,
// per the message's namespace and type. It runs on pgconn's receive-loop
// goroutine, so it must never block.
func (c *Coordinator) dispatch(payload string) {
	msg, err := Decode([]byte(payload))
	if err != nil {
		slog.Error("notifelect: failed to decode payload", "error", err)
		return
	}

	if msg.Namespace != c.settings.Namespace {
		slog.Warn("notifelect: ignoring message due to namespace mismatch",
			"expected", c.settings.Namespace, "received", msg.Namespace)
		return
	}

	switch msg.Type {
	case Ping:
		c.handlePing(msg)
	case Pong:
		c.engine.recordPong(msg)
	default:
		// Unreachable: Decode already rejects any type other than Ping/Pong.
		panic(fmt.Sprintf("notifelect: unsupported message type %q reached dispatch", msg.Type))
	}
}

// handlePing responds with a Pong iff this peer's sequence dominates the
// incoming Ping's (local >= incoming) and this peer actually has a sequence
// (local > 0). The >= — not > — is what lets a lone peer win its own
// election by responding to itself, and lets the highest-sequence peer
// respond to every Ping including its own.
func (c *Coordinator) handlePing(ping MessageExchange) {
	if c.localSequence >= ping.Sequence && c.localSequence > 0 {
		pong := c.factory.Pong(c.localSequence)
		c.tasks.Go(func() error {
			return c.queries.Notify(context.Background(), pong)
		})
	}
}
