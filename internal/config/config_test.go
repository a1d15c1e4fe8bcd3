package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "passbook.yaml")

	cfg := Default("Metro Savings")
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Metro Savings", got.Bank.Name)
	assert.Equal(t, "info", got.Log.Level)
	assert.Equal(t, 3, got.Retry.Attempts)
	assert.Equal(t, 50*time.Millisecond, got.RetryBackoff())
	assert.Equal(t, "admin", got.Admin.Actor)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "passbook.yaml"))
	require.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "passbook.yaml")
	require.NoError(t, Save(path, Default("Metro Savings")))

	t.Setenv("PASSBOOK_LOG_LEVEL", "debug")
	t.Setenv("PASSBOOK_RETRY_BACKOFF", "200ms")

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", got.Log.Level)
	assert.Equal(t, 200*time.Millisecond, got.RetryBackoff())
}

func TestLoad_InvalidBackoff(t *testing.T) {
	path := filepath.Join(t.TempDir(), "passbook.yaml")
	data := "retry:\n  attempts: 2\n  backoff: banana\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestRetryBackoff_Default(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, 50*time.Millisecond, cfg.RetryBackoff())
}
