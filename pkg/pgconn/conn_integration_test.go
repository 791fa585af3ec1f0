package pgconn_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janbjorge/notifelect/pkg/pgconn"
	"github.com/janbjorge/notifelect/test/util"
)

func TestConnExecuteAndFetchOne(t *testing.T) {
	cfg := util.SetupTestDatabase(t)
	ctx := context.Background()

	conn, err := pgconn.Connect(ctx, cfg)
	require.NoError(t, err)
	defer func() { _ = conn.Close(ctx) }()

	require.NoError(t, conn.Execute(ctx, "CREATE SEQUENCE s1 START 1"))
	val, err := conn.FetchOne(ctx, "SELECT nextval('s1')")
	require.NoError(t, err)
	assert.Equal(t, int64(1), val)

	val, err = conn.FetchOne(ctx, "SELECT nextval('s1')")
	require.NoError(t, err)
	assert.Equal(t, int64(2), val)
}

func TestConnSubscribeReceivesOwnNotify(t *testing.T) {
	cfg := util.SetupTestDatabase(t)
	ctx := context.Background()

	conn, err := pgconn.Connect(ctx, cfg)
	require.NoError(t, err)
	defer func() { _ = conn.Close(ctx) }()

	received := make(chan string, 1)
	require.NoError(t, conn.Subscribe(ctx, "test_channel", func(payload string) {
		received <- payload
	}))

	require.NoError(t, conn.Notify(ctx, "test_channel", "hello"))

	select {
	case payload := <-received:
		assert.Equal(t, "hello", payload)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for self-delivered NOTIFY")
	}
}

func TestConnUnsubscribeStopsDelivery(t *testing.T) {
	cfg := util.SetupTestDatabase(t)
	ctx := context.Background()

	conn, err := pgconn.Connect(ctx, cfg)
	require.NoError(t, err)
	defer func() { _ = conn.Close(ctx) }()

	received := make(chan string, 1)
	require.NoError(t, conn.Subscribe(ctx, "test_channel", func(payload string) {
		received <- payload
	}))
	require.NoError(t, conn.Unsubscribe(ctx, "test_channel"))
	require.NoError(t, conn.Notify(ctx, "test_channel", "should not arrive"))

	select {
	case payload := <-received:
		t.Fatalf("unexpected delivery after Unsubscribe: %s", payload)
	case <-time.After(1 * time.Second):
	}
}
