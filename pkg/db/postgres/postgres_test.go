package postgres_test

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinboard/pkg/db/postgres"
)

func TestParseConfig(t *testing.T) {
	t.Run("applies pool limits", func(t *testing.T) {
		cfg, err := postgres.ParseConfig("postgres://u:p@localhost:5432/pins?sslmode=disable", 2, 8)
		require.NoError(t, err)
		assert.Equal(t, int32(2), cfg.MinConns)
		assert.Equal(t, int32(8), cfg.MaxConns)
		assert.Equal(t, "pins", cfg.ConnConfig.Database)
	})

	t.Run("rejects inverted limits", func(t *testing.T) {
		_, err := postgres.ParseConfig("postgres://localhost/pins", 5, 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), postgres.ErrPoolLimits)
	})

	t.Run("rejects malformed dsn", func(t *testing.T) {
		_, err := postgres.ParseConfig("postgres://%zz", 1, 2)
		require.Error(t, err)
		assert.Contains(t, err.Error(), postgres.ErrParseConfig)
	})
}

func TestNew_Unreachable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool, err := postgres.New(ctx, "postgres://u:p@127.0.0.1:1/pins?sslmode=disable&connect_timeout=1", 0, 1)
	require.Error(t, err)
	assert.Nil(t, pool)
}

func TestMigrate_MissingDirectory(t *testing.T) {
	_, err := postgres.Migrate(context.Background(), "postgres://localhost/pins", fstest.MapFS{}, "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), postgres.ErrOpenMigrations)
}
