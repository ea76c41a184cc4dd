package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cached struct {
	Nome string `json:"nome"`
}

func TestRedisJSON(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := NewRedisClient(mr.Addr(), "", 0)
	defer func() { _ = rdb.Close() }()
	ctx := context.Background()

	var got cached
	ok, err := RedisGetJSON(ctx, rdb, "usuario:1", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, RedisSetJSON(ctx, rdb, "usuario:1", cached{Nome: "Ana"}, time.Minute))
	ok, err = RedisGetJSON(ctx, rdb, "usuario:1", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Ana", got.Nome)
	assert.Equal(t, time.Minute, mr.TTL("usuario:1"))

	require.NoError(t, mr.Set("usuario:2", "{not json"))
	ok, err = RedisGetJSON(ctx, rdb, "usuario:2", &got)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("usuario:2"), "corrupt entry is dropped")

	require.NoError(t, RedisDel(ctx, rdb, "usuario:1"))
	assert.False(t, mr.Exists("usuario:1"))
	assert.NoError(t, RedisDel(ctx, rdb))
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)
	assert.True(t, CompareHashAndPassword(hash, "secret1"))
	assert.False(t, CompareHashAndPassword(hash, "secret2"))
}

func TestNewLogger(t *testing.T) {
	dev := NewLogger("usuarios-api", "development", "")
	assert.Equal(t, logrus.DebugLevel, dev.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, dev.Formatter)

	prod := NewLogger("usuarios-api", "production", "warn")
	assert.Equal(t, logrus.WarnLevel, prod.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, prod.Formatter)

	bad := NewLogger("usuarios-api", "production", "loud")
	assert.Equal(t, logrus.InfoLevel, bad.GetLevel())
}
