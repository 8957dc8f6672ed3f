package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "http://localhost:8000", cfg.BackendURL)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Empty(t, cfg.Redis.URL)
	assert.Empty(t, cfg.Kafka.Brokers)
	require.NoError(t, cfg.Validate())
}

func TestFromEnv(t *testing.T) {
	t.Setenv("KYCFLOW_BACKEND_URL", "https://api.example.com")
	t.Setenv("KYCFLOW_BACKEND_RETRIES", "4")
	t.Setenv("KYCFLOW_SESSION_TTL", "2h")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("KYCFLOW_SEAL_KEY", strings.Repeat("ab", 32))

	cfg := FromEnv()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 4, cfg.BackendRetries)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Len(t, cfg.SealKeyBytes(), 32)
}

func TestValidateRejectsMalformedValues(t *testing.T) {
	t.Setenv("KYCFLOW_BACKEND_URL", "not a url")
	t.Setenv("KYCFLOW_BACKEND_TIMEOUT", "soon")
	t.Setenv("KYCFLOW_SEAL_KEY", "abcd")

	err := FromEnv().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KYCFLOW_BACKEND_URL")
	assert.Contains(t, err.Error(), "KYCFLOW_BACKEND_TIMEOUT")
	assert.Contains(t, err.Error(), "KYCFLOW_SEAL_KEY")
}
