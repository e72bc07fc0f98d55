package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(New())
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, int64(30), cfg.Billing.MinMinutes)
	assert.Equal(t, int64(1500), cfg.Billing.CommissionBPS)
	assert.Equal(t, 10*time.Second, cfg.Tracking.PollInterval)
	assert.Equal(t, 24*time.Hour, cfg.Auth.JWTTTL)
	assert.Empty(t, cfg.Redis.Addr)
	assert.False(t, cfg.IsProdLike())
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("BILLING_COMMISSION_BPS", "1000")
	t.Setenv("TRACKING_POLL_INTERVAL", "5s")
	t.Setenv("JWT_SECRET", "from-legacy-name")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("SERVER_CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Parse(New())
	require.NoError(t, err)

	assert.Equal(t, int64(1000), cfg.Billing.CommissionBPS)
	assert.Equal(t, 5*time.Second, cfg.Tracking.PollInterval)
	assert.Equal(t, "from-legacy-name", cfg.Auth.JWTSecret)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestParse_RejectsDefaultSecretsInProd(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := Parse(New())
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "real-secret")
	_, err = Parse(New())
	assert.ErrorContains(t, err, "INTERNAL_TOKEN")

	t.Setenv("INTERNAL_TOKEN", "real-token")
	cfg, err := Parse(New())
	require.NoError(t, err)
	assert.True(t, cfg.IsProdLike())
}

func TestParse_RejectsBadCommission(t *testing.T) {
	t.Setenv("BILLING_COMMISSION_BPS", "12000")

	_, err := Parse(New())
	assert.ErrorContains(t, err, "BILLING_COMMISSION_BPS")
}

func TestParse_RejectsZeroMinMinutes(t *testing.T) {
	t.Setenv("BILLING_MIN_MINUTES", "0")

	_, err := Parse(New())
	assert.ErrorContains(t, err, "BILLING_MIN_MINUTES")
}
