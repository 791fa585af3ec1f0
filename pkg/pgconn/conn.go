package pgconn

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
)

// pollInterval bounds how long WaitForNotification blocks before the receive
// loop checks for pending commands again: a single pgx connection cannot run
// WaitForNotification and Exec concurrently, so any Execute/FetchOne/Notify/
// Subscribe call must be interleaved through the same goroutine that owns
// the connection, and that goroutine re-polls its command channel every
// 100ms to stay responsive.
const pollInterval = 100 * time.Millisecond

// cmdKind distinguishes the operations the receive loop executes.
type cmdKind int

const (
	cmdExecute cmdKind = iota
	cmdFetchOne
	cmdSubscribe
	cmdUnsubscribe
)

type command struct {
	kind     cmdKind
	sql      string
	args     []any
	channel  string
	callback func(payload string)
	result   chan cmdResult
}

type cmdResult struct {
	val int64
	err error
}

// Conn is a single dedicated PostgreSQL connection that serializes all
// traffic — regular statements as well as LISTEN/NOTIFY — through one
// goroutine. This is the single-plex connection a Coordinator assumes:
// one physical connection per Coordinator, never shared or pooled.
type Conn struct {
	connString string
	conn       *pgx.Conn

	cmdCh   chan command
	running atomic.Bool

	channelMu sync.Mutex
	channel   string // the channel currently LISTENing, empty if none
	callback  func(payload string)

	cancelLoop context.CancelFunc
	loopDone   chan struct{}
}

// Connect dials PostgreSQL and starts the dedicated receive loop.
func Connect(ctx context.Context, cfg Config) (*Conn, error) {
	connString := cfg.ConnString()
	pgxConn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("pgconn: connect: %w", err)
	}

	c := &Conn{
		connString: connString,
		conn:       pgxConn,
		cmdCh:      make(chan command, 16),
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	c.cancelLoop = cancel
	c.loopDone = make(chan struct{})
	c.running.Store(true)

	go func() {
		defer close(c.loopDone)
		c.receiveLoop(loopCtx)
	}()

	return c, nil
}

// Close stops the receive loop and closes the underlying connection.
func (c *Conn) Close(ctx context.Context) error {
	if !c.running.CompareAndSwap(true, false) {
		return nil
	}
	c.cancelLoop()
	<-c.loopDone
	return c.conn.Close(ctx)
}

// Execute runs a statement with no result, e.g. CREATE/DROP SEQUENCE.
func (c *Conn) Execute(ctx context.Context, sql string, args ...any) error {
	res, err := c.submit(ctx, command{kind: cmdExecute, sql: sql, args: args})
	if err != nil {
		return err
	}
	return res.err
}

// FetchOne runs a statement expected to return a single integer column,
// e.g. SELECT nextval(...).
func (c *Conn) FetchOne(ctx context.Context, sql string, args ...any) (int64, error) {
	res, err := c.submit(ctx, command{kind: cmdFetchOne, sql: sql, args: args})
	if err != nil {
		return 0, err
	}
	return res.val, res.err
}

// Notify publishes payload on channel via pg_notify. It is a thin wrapper
// over Execute; the notifelect Query Layer does not call it and publishes
// through Execute directly.
func (c *Conn) Notify(ctx context.Context, channel, payload string) error {
	return c.Execute(ctx, "SELECT pg_notify($1, $2)", channel, payload)
}

// Subscribe issues LISTEN on channel and registers callback to be invoked
// (on the receive-loop goroutine) whenever a NOTIFY arrives on it. Only one
// channel/callback pair is supported at a time, matching the Coordinator's
// single-channel usage: one Conn serves exactly one election channel.
func (c *Conn) Subscribe(ctx context.Context, channel string, callback func(payload string)) error {
	sanitized := pgx.Identifier{channel}.Sanitize()
	res, err := c.submit(ctx, command{
		kind:     cmdSubscribe,
		sql:      "LISTEN " + sanitized,
		channel:  channel,
		callback: callback,
	})
	if err != nil {
		return err
	}
	return res.err
}

// Unsubscribe issues UNLISTEN on channel and clears the registered callback.
func (c *Conn) Unsubscribe(ctx context.Context, channel string) error {
	sanitized := pgx.Identifier{channel}.Sanitize()
	res, err := c.submit(ctx, command{kind: cmdUnsubscribe, sql: "UNLISTEN " + sanitized, channel: channel})
	if err != nil {
		return err
	}
	return res.err
}

// submit enqueues a command for the receive loop and waits for its result.
func (c *Conn) submit(ctx context.Context, cmd command) (cmdResult, error) {
	if !c.running.Load() {
		return cmdResult{}, fmt.Errorf("pgconn: connection closed")
	}
	cmd.result = make(chan cmdResult, 1)

	select {
	case c.cmdCh <- cmd:
	case <-ctx.Done():
		return cmdResult{}, ctx.Err()
	}

	select {
	case res := <-cmd.result:
		return res, nil
	case <-ctx.Done():
		return cmdResult{}, ctx.Err()
	}
}

// receiveLoop is the sole goroutine that touches conn. It alternates between
// draining pending commands and polling for NOTIFY delivery, since pgx does
// not allow WaitForNotification and Exec to run concurrently on one
// connection.
func (c *Conn) receiveLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		c.processPendingCommands(ctx)

		waitCtx, cancel := context.WithTimeout(ctx, pollInterval)
		notification, err := c.conn.WaitForNotification(waitCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if waitCtx.Err() != nil {
				continue // timeout — loop back to process commands
			}
			slog.Error("notifelect: NOTIFY receive error", "error", err)
			continue
		}

		c.channelMu.Lock()
		cb := c.callback
		activeChannel := c.channel
		c.channelMu.Unlock()

		if cb != nil && notification.Channel == activeChannel {
			cb(notification.Payload)
		}
	}
}

func (c *Conn) processPendingCommands(ctx context.Context) {
	for {
		select {
		case cmd := <-c.cmdCh:
			c.runCommand(ctx, cmd)
		default:
			return
		}
	}
}

func (c *Conn) runCommand(ctx context.Context, cmd command) {
	switch cmd.kind {
	case cmdExecute:
		_, err := c.conn.Exec(ctx, cmd.sql, cmd.args...)
		cmd.result <- cmdResult{err: err}

	case cmdFetchOne:
		row := c.conn.QueryRow(ctx, cmd.sql, cmd.args...)
		var val int64
		err := row.Scan(&val)
		cmd.result <- cmdResult{val: val, err: err}

	case cmdSubscribe:
		_, err := c.conn.Exec(ctx, cmd.sql)
		if err == nil {
			c.channelMu.Lock()
			c.channel = cmd.channel
			c.callback = cmd.callback
			c.channelMu.Unlock()
		}
		cmd.result <- cmdResult{err: err}

	case cmdUnsubscribe:
		_, err := c.conn.Exec(ctx, cmd.sql)
		c.channelMu.Lock()
		if c.channel == cmd.channel {
			c.channel = ""
			c.callback = nil
		}
		c.channelMu.Unlock()
		cmd.result <- cmdResult{err: err}
	}
}
