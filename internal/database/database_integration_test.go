//go:build integration

package database

import (
	"context"
	"testing"

	"github.com/cloo-solutions/aliasgen/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateAndNewPool(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	require.NoError(t, Migrate(pc.ConnectionString(), "../../migrations"))
	require.NoError(t, Migrate(pc.ConnectionString(), "../../migrations"), "second run is a no-op")

	pool, err := NewPool(ctx, Config{URL: pc.ConnectionString(), MaxConns: 4})
	require.NoError(t, err)
	defer pool.Close()

	var exists bool
	err = pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'alias_runs')`).Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists)
}
