package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taleweave/taleweave/pkg/config"
)

func TestNewRedis(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("returns nil without a url", func(t *testing.T) {
		rdb, err := NewRedis(ctx, config.NewForTest())
		require.NoError(t, err)
		assert.Nil(t, rdb)
	})

	t.Run("connects to the configured server", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := config.NewForTest()
		cfg.RedisURL = "redis://" + mr.Addr()

		rdb, err := NewRedis(ctx, cfg)
		require.NoError(t, err)
		require.NotNil(t, rdb)
		t.Cleanup(func() { rdb.Close() })
		assert.NoError(t, rdb.Set(ctx, "k", "v", 0).Err())
	})

	t.Run("rejects bad urls", func(t *testing.T) {
		cfg := config.NewForTest()
		cfg.RedisURL = "mysql://nope"
		_, err := NewRedis(ctx, cfg)
		assert.Error(t, err)
	})
}
