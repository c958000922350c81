package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "commerceops-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "memory", cfg.Sync.LockBackend)
	assert.Equal(t, 5*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 3, cfg.Webhook.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.Webhook.RetryDelay)
	assert.Equal(t, 10*time.Second, cfg.Webhook.AttemptTimeout)
	assert.False(t, cfg.IsProduction())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("OPS_DATABASE_PASSWORD", "s3cret")
	t.Setenv("OPS_SYNC_LOCK_BACKEND", "redis")
	t.Setenv("OPS_WEBHOOK_ENDPOINT", "https://hooks.example.com/orders")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "redis", cfg.Sync.LockBackend)
	assert.Equal(t, "https://hooks.example.com/orders", cfg.Webhook.Endpoint)
}

func TestValidateRejectsUnknownLockBackend(t *testing.T) {
	t.Setenv("OPS_SYNC_LOCK_BACKEND", "zookeeper")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lock_backend")
}

func TestValidateRejectsPlainHTTPWebhookInProduction(t *testing.T) {
	t.Setenv("OPS_APP_ENV", "production")
	t.Setenv("OPS_WEBHOOK_ENDPOINT", "http://hooks.example.com/orders")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "https")
}

func TestDatabaseDSN(t *testing.T) {
	c := DatabaseConfig{
		Host: "db", Port: 5433, User: "ops", Password: "pw",
		DBName: "orders", SSLMode: "require",
	}
	assert.Equal(t, "host=db port=5433 user=ops password=pw dbname=orders sslmode=require", c.DSN())
}
