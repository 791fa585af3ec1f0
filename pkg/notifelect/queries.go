package notifelect

import (
	"context"
	"fmt"
	"sync"
)

// Executor is the narrow database-facing interface the Query Layer consumes
// — the database collaborator contract. pkg/pgconn.Conn is the
// concrete, pgx-backed implementation wired in by the CLI; tests substitute
// a fake.
type Executor interface {
	Execute(ctx context.Context, sql string, args ...any) error
	FetchOne(ctx context.Context, sql string, args ...any) (int64, error)
	Subscribe(ctx context.Context, channel string, callback func(payload string)) error
	Unsubscribe(ctx context.Context, channel string) error
}

// QueryBuilder renders the SQL text for the shared sequence and channel,
// applying an optional process-wide prefix so multiple deployments can
// coexist in one database.
type QueryBuilder struct {
	Channel      Channel
	SequenceName string
}

// NewQueryBuilder builds a QueryBuilder from the NOTIFELECT_PREFIX
// environment variable. An explicit prefix argument, if non-empty,
// overrides the environment.
func NewQueryBuilder(prefix string) QueryBuilder {
	apply := addPrefix
	if prefix != "" {
		apply = func(name string) string { return prefix + name }
	}
	return QueryBuilder{
		Channel:      Channel(apply("ch_notifelect")),
		SequenceName: apply("seq_notifelect"),
	}
}

// InstallSQL returns the statement that creates the shared sequence.
func (b QueryBuilder) InstallSQL() string {
	return fmt.Sprintf("CREATE SEQUENCE %s START 1;", b.SequenceName)
}

// UninstallSQL returns the statement that drops the shared sequence.
func (b QueryBuilder) UninstallSQL() string {
	return fmt.Sprintf("DROP SEQUENCE %s;", b.SequenceName)
}

// nextSequenceSQL returns the statement that advances and returns the
// shared sequence.
func (b QueryBuilder) nextSequenceSQL() string {
	return fmt.Sprintf("SELECT nextval('%s');", b.SequenceName)
}

// Queries is the narrow facade over the database:
// it acquires a fresh Sequence, publishes messages, and installs/removes the
// shared counter. Every operation holds lock for the duration of the call,
// serializing access to the single-plex connection — on top of the
// serialization pgconn.Conn already performs internally by running all
// traffic through one goroutine, this mirrors the explicit
// per-Queries-instance lock.
type Queries struct {
	Builder  QueryBuilder
	executor Executor
	lock     sync.Mutex
}

// NewQueries constructs a Queries instance bound to executor.
func NewQueries(executor Executor, builder QueryBuilder) *Queries {
	return &Queries{Builder: builder, executor: executor}
}

// Install creates the shared sequence. It is NOT idempotent: running it
// twice surfaces the database's "already exists" error unchanged.
func (q *Queries) Install(ctx context.Context) error {
	q.lock.Lock()
	defer q.lock.Unlock()
	if err := q.executor.Execute(ctx, q.Builder.InstallSQL()); err != nil {
		return fmt.Errorf("notifelect: install: %w", err)
	}
	return nil
}

// Uninstall drops the shared sequence.
func (q *Queries) Uninstall(ctx context.Context) error {
	q.lock.Lock()
	defer q.lock.Unlock()
	if err := q.executor.Execute(ctx, q.Builder.UninstallSQL()); err != nil {
		return fmt.Errorf("notifelect: uninstall: %w", err)
	}
	return nil
}

// NextSequence atomically returns the next counter value (always >= 1).
func (q *Queries) NextSequence(ctx context.Context) (Sequence, error) {
	q.lock.Lock()
	defer q.lock.Unlock()
	val, err := q.executor.FetchOne(ctx, q.Builder.nextSequenceSQL())
	if err != nil {
		return 0, fmt.Errorf("notifelect: next sequence: %w", err)
	}
	return Sequence(val), nil
}

// Notify encodes message and publishes it on its Channel via pg_notify.
func (q *Queries) Notify(ctx context.Context, message MessageExchange) error {
	payload, err := message.Encode()
	if err != nil {
		return err
	}

	q.lock.Lock()
	defer q.lock.Unlock()
	if err := q.executor.Execute(ctx, "SELECT pg_notify($1, $2)", string(message.Channel), string(payload)); err != nil {
		return fmt.Errorf("notifelect: notify: %w", err)
	}
	return nil
}

// Subscribe registers callback to be invoked with every message received on
// the builder's channel.
func (q *Queries) Subscribe(ctx context.Context, callback func(payload string)) error {
	if err := q.executor.Subscribe(ctx, string(q.Builder.Channel), callback); err != nil {
		return fmt.Errorf("notifelect: subscribe: %w", err)
	}
	return nil
}

// Unsubscribe removes the channel registration installed by Subscribe.
func (q *Queries) Unsubscribe(ctx context.Context) error {
	if err := q.executor.Unsubscribe(ctx, string(q.Builder.Channel)); err != nil {
		return fmt.Errorf("notifelect: unsubscribe: %w", err)
	}
	return nil
}
