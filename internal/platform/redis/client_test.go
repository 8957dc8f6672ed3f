package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycflow/internal/platform/config"
	"kycflow/pkg/platform/sentinel"
)

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("unconfigured", func(t *testing.T) {
		client, err := New(ctx, config.RedisConfig{})
		require.NoError(t, err)
		assert.Nil(t, client)
	})

	t.Run("connects", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client, err := New(ctx, config.RedisConfig{URL: "redis://" + mr.Addr(), PoolSize: 2})
		require.NoError(t, err)
		defer client.Close()
		assert.NoError(t, client.Health(ctx))
	})

	t.Run("unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()
		_, err := New(ctx, config.RedisConfig{URL: "redis://" + addr})
		assert.True(t, errors.Is(err, sentinel.ErrUnavailable))
	})

	t.Run("bad url", func(t *testing.T) {
		_, err := New(ctx, config.RedisConfig{URL: "::nope"})
		assert.Error(t, err)
	})
}
