package redis

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lifeboard/pkg/config"
)

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := NewRedisClient(config.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, rdb)
	defer rdb.Close()
}

func TestNewRedisClientDisabled(t *testing.T) {
	rdb, err := NewRedisClient(config.RedisConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, rdb)
}

func TestNewRedisClientUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClient(config.RedisConfig{Addr: addr}, zap.NewNop())
	assert.Error(t, err)
}
