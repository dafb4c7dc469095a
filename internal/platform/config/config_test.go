package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"KYC_ADDR", "TOKEN_TTL", "MAX_ATTEMPTS", "MAX_UPLOAD_BYTES", "PHOTO_MATCH_THRESHOLD", "KAFKA_BROKERS", "ENVIRONMENT", "LOG_FORMAT", "JWT_SIGNING_KEY", "ADMIN_EMAIL", "RATE_LIMIT_AUTH_REQUESTS", "RATE_LIMIT_AUTH_WINDOW"} {
		t.Setenv(k, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 3, cfg.Workflow.MaxAttempts)
	assert.Equal(t, int64(5<<20), cfg.Workflow.MaxUploadBytes)
	assert.Equal(t, 60, cfg.Workflow.PhotoMatchThreshold)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, DevJWTSigningKey, cfg.JWTSigningKey)
	assert.False(t, cfg.Admin.Enabled())
	assert.Equal(t, 20, cfg.RateLimit.AuthRequests)
	assert.Equal(t, time.Minute, cfg.RateLimit.AuthWindow)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MAX_ATTEMPTS", "5")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Workflow.MaxAttempts)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
}

func TestAdminSeedRequiresAllFields(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("ADMIN_EMAIL", "root@example.com")
	t.Setenv("ADMIN_MOBILE", "+10000000000")
	t.Setenv("ADMIN_PASSWORD", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.False(t, cfg.Admin.Enabled())

	t.Setenv("ADMIN_PASSWORD", "hunter22")
	cfg, err = FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.Admin.Enabled())
}

func TestFromEnvRejectsMalformedNumbers(t *testing.T) {
	t.Setenv("MAX_ATTEMPTS", "three")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_ATTEMPTS")
}

func TestValidate(t *testing.T) {
	base := Server{
		Environment:   "production",
		LogFormat:     "json",
		JWTSigningKey: "a-real-key",
		TokenTTL:      time.Hour,
		Workflow:      WorkflowConfig{MaxAttempts: 3, MaxUploadBytes: 1, PhotoMatchThreshold: 60},
	}
	require.NoError(t, base.Validate())

	t.Run("dev key refused in production", func(t *testing.T) {
		cfg := base
		cfg.JWTSigningKey = DevJWTSigningKey
		assert.Error(t, cfg.Validate())
	})

	t.Run("dev key allowed in development", func(t *testing.T) {
		cfg := base
		cfg.Environment = "development"
		cfg.JWTSigningKey = DevJWTSigningKey
		assert.NoError(t, cfg.Validate())
	})

	t.Run("threshold out of range", func(t *testing.T) {
		cfg := base
		cfg.Workflow.PhotoMatchThreshold = 101
		assert.Error(t, cfg.Validate())
	})

	t.Run("rate limit without window", func(t *testing.T) {
		cfg := base
		cfg.RateLimit = RateLimitConfig{AuthRequests: 10}
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero attempts", func(t *testing.T) {
		cfg := base
		cfg.Workflow.MaxAttempts = 0
		assert.Error(t, cfg.Validate())
	})
}
