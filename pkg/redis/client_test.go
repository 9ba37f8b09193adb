package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/config"
)

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.RedisConfig{
		URL:          "redis://localhost:6379/2",
		Password:     "secret",
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}

	opts, err := optionsFromConfig(cfg)
	require.NoError(t, err)
	require.Equal(t, 2, opts.DB)
	require.Equal(t, "secret", opts.Password)
	require.Equal(t, 10, opts.PoolSize)
	require.Equal(t, 2, opts.MinIdleConns)
}

func TestOptionsFromConfigMissingURL(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	require.Error(t, err)
}

func TestOptionsFromConfigBadURL(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{URL: "://bad"})
	require.Error(t, err)
}

func TestKeyBuilders(t *testing.T) {
	c := &Client{}

	require.Equal(t, "mz:session:access:abc-123", c.AccessSessionKey("abc-123"))
	require.Equal(t, "mz:quiz_attempt:user-1:quiz-9", c.QuizAttemptKey("user-1", "quiz-9"))
	require.Equal(t, "mz:session:access", c.AccessSessionKey("  "))
}

func TestUninitializedClient(t *testing.T) {
	ctx := context.Background()
	c := &Client{}

	require.Error(t, c.Ping(ctx))
	require.Error(t, c.Set(ctx, "k", "v", 0))
	_, err := c.Get(ctx, "k")
	require.Error(t, err)
	require.NoError(t, c.Close())
}
