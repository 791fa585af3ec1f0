// Package database provides a shared-schema test fixture for exercising
// multiple notifelect peers against one database, the way production
// deployments run many independent processes against a single instance.
package database

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"

	"github.com/janbjorge/notifelect/pkg/notifelect"
	"github.com/janbjorge/notifelect/pkg/pgconn"
	"github.com/janbjorge/notifelect/test/util"
)

// SharedTestDB provisions a single schema, installs the election sequence
// inside it once, and lets multiple peers dial independent connections that
// all resolve to that schema — enabling tests that exercise real PostgreSQL
// NOTIFY/LISTEN delivery across several simulated peers.
type SharedTestDB struct {
	connStr     string
	baseConnStr string
	schemaName  string
	builder     notifelect.QueryBuilder
}

// NewSharedTestDB creates a shared test schema, installs the election
// sequence inside it, and registers t.Cleanup to drop the schema.
// Call Connect to obtain an independent connection per simulated peer.
func NewSharedTestDB(t *testing.T) *SharedTestDB {
	t.Helper()
	ctx := context.Background()

	baseConnStr := util.GetBaseConnectionString(t)
	schemaName := util.GenerateSchemaName(t)

	db, err := stdsql.Open("pgx", baseConnStr)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA %s", schemaName))
	require.NoError(t, err)
	t.Logf("SharedTestDB: created schema %s", schemaName)
	_ = db.Close()

	connStr := util.AddSearchPathToConnString(baseConnStr, schemaName)
	builder := notifelect.NewQueryBuilder("")

	setup, err := pgconn.Connect(ctx, pgconn.Config{DSN: connStr})
	require.NoError(t, err)
	require.NoError(t, notifelect.NewQueries(setup, builder).Install(ctx))
	require.NoError(t, setup.Close(ctx))

	s := &SharedTestDB{
		connStr:     connStr,
		baseConnStr: baseConnStr,
		schemaName:  schemaName,
		builder:     builder,
	}

	// Drop the schema after all peers have shut down (LIFO cleanup order
	// guarantees peer connections close before this runs).
	t.Cleanup(func() {
		cleanDB, err := stdsql.Open("pgx", baseConnStr)
		if err != nil {
			t.Logf("SharedTestDB: warning: could not connect to drop schema %s: %v", schemaName, err)
			return
		}
		defer func() { _ = cleanDB.Close() }()
		if _, err := cleanDB.ExecContext(context.Background(), fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName)); err != nil {
			t.Logf("SharedTestDB: warning: failed to drop schema %s: %v", schemaName, err)
		}
	})

	return s
}

// Builder returns the query builder matching the sequence and channel
// installed in this fixture's schema.
func (s *SharedTestDB) Builder() notifelect.QueryBuilder {
	return s.builder
}

// Connect dials a fresh, independent connection to the shared schema —
// one connection per simulated peer — closed via t.Cleanup.
func (s *SharedTestDB) Connect(t *testing.T, ctx context.Context) *pgconn.Conn {
	t.Helper()
	conn, err := pgconn.Connect(ctx, pgconn.Config{DSN: s.connStr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(context.Background()) })
	return conn
}
