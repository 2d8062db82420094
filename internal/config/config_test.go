package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "biotrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "shipment-api", cfg.Breaker.Name)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
api_url: https://biobank.example.org/api
timeout: 5s
cache_db: /tmp/cache.db
log_level: debug
breaker:
  failure_threshold: 3
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://biobank.example.org/api", cfg.APIURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "/tmp/cache.db", cfg.CacheDB)
	assert.Equal(t, uint32(3), cfg.Breaker.FailureThreshold)
	assert.Equal(t, "shipment-api", cfg.Breaker.Name, "unset keys keep defaults")
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "api_url: http://file\ntoken: from-file\n")
	t.Setenv(EnvAPIURL, "http://env:9000")
	t.Setenv(EnvToken, "from-env")
	t.Setenv(EnvTimeout, "12")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env:9000", cfg.APIURL)
	assert.Equal(t, "from-env", cfg.Token)
	assert.Equal(t, 12*time.Second, cfg.Timeout)
}

func TestInvalidEnvTimeout(t *testing.T) {
	t.Setenv(EnvTimeout, "soon")
	_, err := Load("")
	assert.ErrorContains(t, err, EnvTimeout)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.APIURL = "not a url"
	assert.ErrorContains(t, cfg.Validate(), "APIURL")

	cfg = Default()
	cfg.LogLevel = "loud"
	assert.ErrorContains(t, cfg.Validate(), "LogLevel")

	for _, level := range []string{"warning", "WARN", "debug"} {
		cfg = Default()
		cfg.LogLevel = level
		assert.NoError(t, cfg.Validate(), level)
	}

	cfg = Default()
	cfg.Timeout = 0
	assert.Error(t, cfg.Validate())
}
