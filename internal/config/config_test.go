package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("DEFAULT_PAYMENT_PROCESSOR_URL", "http://default")
	t.Setenv("FALLBACK_PAYMENT_PROCESSOR_URL", "http://fallback")
}

func TestLoad_AppliesDefaultsWhenOptionalVarsUnset(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.WorkerPoolSize)
	assert.Equal(t, 60*time.Second, cfg.ServerKeepalive)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_MissingRequiredVarIsError(t *testing.T) {
	t.Setenv("DEFAULT_PAYMENT_PROCESSOR_URL", "http://default")
	t.Setenv("FALLBACK_PAYMENT_PROCESSOR_URL", "http://fallback")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsNonPositiveWorkerPoolSize(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WORKER_POOL_SIZE", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ReadsOverriddenValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WORKER_POOL_SIZE", "8")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.WorkerPoolSize)
	assert.Equal(t, "debug", cfg.LogLevel)
}
