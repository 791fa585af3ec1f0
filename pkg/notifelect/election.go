package notifelect

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultElectionInterval is the time between election rounds.
const DefaultElectionInterval = 20 * time.Second

// DefaultElectionTimeout bounds how long a round waits for Pong replies.
const DefaultElectionTimeout = 5 * time.Second

// Settings configures one Coordinator's election behavior.
type Settings struct {
	Namespace        Namespace
	ElectionInterval time.Duration
	ElectionTimeout  time.Duration
}

// DefaultSettings returns Settings with the package's default timings and
// an unscoped (empty) namespace.
func DefaultSettings() Settings {
	return Settings{
		ElectionInterval: DefaultElectionInterval,
		ElectionTimeout:  DefaultElectionTimeout,
	}
}

// Outcome is the single observable datum the host application reads: whether
// this peer currently believes itself the leader. It starts false and is
// mutated only by the Electoral engine at the close of a completed round.
type Outcome struct {
	mu     sync.RWMutex
	winner bool
}

// Winner reports the outcome of the most recently completed round. Readers
// should treat it as eventually consistent — a missed round simply leaves
// the previous value in place.
func (o *Outcome) Winner() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.winner
}

func (o *Outcome) setWinner(v bool) {
	o.mu.Lock()
	o.winner = v
	o.mu.Unlock()
}

// engine drives the periodic Idle → Probing → Collecting → Tallying state
// machine. The ballot set is guarded by mu, and Outcome by its own lock,
// because the channel
// dispatcher (invoked from pgconn's receive-loop goroutine) and this
// engine's round loop (its own goroutine) run concurrently.
type engine struct {
	settings      Settings
	queries       *Queries
	factory       MessageFactory
	localSequence Sequence

	outcome Outcome

	mu      sync.Mutex
	ballots []MessageExchange

	stop     chan struct{}
	stopOnce sync.Once
}

func newEngine(settings Settings, queries *Queries, factory MessageFactory, localSequence Sequence) *engine {
	return &engine{
		settings:      settings,
		queries:       queries,
		factory:       factory,
		localSequence: localSequence,
		stop:          make(chan struct{}),
	}
}

// recordPong appends pong to the current round's ballot set. Called by the
// Coordinator's dispatcher whenever an inbound Pong is routed in.
func (e *engine) recordPong(pong MessageExchange) {
	e.mu.Lock()
	e.ballots = append(e.ballots, pong)
	e.mu.Unlock()
}

// requestStop signals the run loop to abandon any in-progress wait and
// return without mutating Outcome.
func (e *engine) requestStop() {
	e.stopOnce.Do(func() { close(e.stop) })
}

// run drives election rounds until requestStop is called or ctx is
// cancelled. It is meant to be registered with a TaskManager.
func (e *engine) run(ctx context.Context) error {
	for {
		// Idle: wait election_interval for the next round to begin.
		if stopped := e.wait(ctx, e.settings.ElectionInterval); stopped {
			return nil
		}

		// Probing: publish a Ping stamped with our own sequence.
		slog.Debug("notifelect: election ping emitted", "sequence", e.localSequence)
		if err := e.queries.Notify(ctx, e.factory.Ping(e.localSequence)); err != nil {
			return fmt.Errorf("notifelect: election round: %w", err)
		}

		// Collecting: wait election_timeout for Pong replies to accumulate.
		if stopped := e.wait(ctx, e.settings.ElectionTimeout); stopped {
			return nil
		}

		// Tallying: pick the winner and clear the ballot set.
		e.tally()
	}
}

// wait blocks for d or until requestStop/ctx cancellation, returning true if
// the wait was cut short by a stop signal.
func (e *engine) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-e.stop:
		return true
	case <-ctx.Done():
		return true
	case <-timer.C:
		return false
	}
}

// tally computes the round's winner from the accumulated ballot set and
// clears it. Sequences are unique by construction, so a tie
// across distinct senders is only possible in anomalous conditions; the
// conservative policy treats it as indeterminate (no winner) rather than
// guessing.
func (e *engine) tally() {
	e.mu.Lock()
	ballots := e.ballots
	e.ballots = nil
	e.mu.Unlock()

	var maxSequence Sequence = -1
	holders := make(map[uuid.UUID]bool)

	for _, ballot := range ballots {
		switch {
		case ballot.Sequence > maxSequence:
			maxSequence = ballot.Sequence
			holders = map[uuid.UUID]bool{ballot.ProcessID: true}
		case ballot.Sequence == maxSequence:
			holders[ballot.ProcessID] = true
		}
	}

	tie := len(holders) > 1
	winner := !tie && maxSequence == e.localSequence
	e.outcome.setWinner(winner)

	slog.Debug("notifelect: election concluded",
		"winner", winner, "sequence", e.localSequence, "max_sequence", maxSequence, "ballots", len(ballots))
}
