package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/capsuled")
	t.Setenv("API_KEY_HASH", "$2a$10$abcdefghijklmnopqrstuv")
	t.Setenv("GEMINI_API_KEY", "test-gemini-key")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "4500", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.GeminiModel)
	assert.Equal(t, 10*time.Second, cfg.WorkerInterval)
	assert.Equal(t, 5, cfg.WorkerBatchSize)
	assert.True(t, cfg.SecureCookies)
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("WORKER_INTERVAL", "30s")
	t.Setenv("WORKER_BATCH_SIZE", "20")
	t.Setenv("SECURE_COOKIES", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.WorkerInterval)
	assert.Equal(t, 20, cfg.WorkerBatchSize)
	assert.False(t, cfg.SecureCookies)
}

func TestLoadMissingRequired(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{"database url", "DATABASE_URL"},
		{"api key hash", "API_KEY_HASH"},
		{"gemini api key", "GEMINI_API_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.unset, "")

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.unset)
		})
	}
}

func TestLoadFileVariant(t *testing.T) {
	setRequiredEnv(t)

	secretFile := filepath.Join(t.TempDir(), "gemini_key")
	require.NoError(t, os.WriteFile(secretFile, []byte("file-secret\n"), 0o600))
	t.Setenv("GEMINI_API_KEY_FILE", secretFile)

	cfg, err := Load()
	require.NoError(t, err)

	// _FILE variant wins over the plain env var, trailing whitespace trimmed
	assert.Equal(t, "file-secret", cfg.GeminiAPIKey)
}

func TestLoadBadDuration(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WORKER_INTERVAL", "not-a-duration")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WORKER_INTERVAL")
}
