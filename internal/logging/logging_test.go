package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}

func TestLevelRouting(t *testing.T) {
	defer slog.SetDefault(slog.Default())
	var stdout, stderr bytes.Buffer
	logger, cleanup, err := Setup(Config{Level: "info", Service: "biotrack", Stdout: &stdout, Stderr: &stderr})
	require.NoError(t, err)
	defer cleanup()

	logger.Debug("hidden")
	logger.Info("shipment added", "shipment", "s1")
	logger.Error("request failed")

	assert.NotContains(t, stdout.String(), "hidden")
	assert.Contains(t, stdout.String(), "shipment added")
	assert.Contains(t, stdout.String(), "service=biotrack")
	assert.NotContains(t, stdout.String(), "request failed")
	assert.Contains(t, stderr.String(), "request failed")
}

func TestLogFileGetsEveryLevel(t *testing.T) {
	defer slog.SetDefault(slog.Default())
	path := filepath.Join(t.TempDir(), "biotrack.log")
	var sink bytes.Buffer
	logger, cleanup, err := Setup(Config{Level: "debug", JSON: true, LogPath: path, Stdout: &sink, Stderr: &sink})
	require.NoError(t, err)

	logger.Debug("one")
	logger.Error("two")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"one"`)
	assert.Contains(t, string(data), `"msg":"two"`)
}

func TestValidLevel(t *testing.T) {
	for _, name := range []string{"debug", "INFO", "warn", "warning", "error"} {
		assert.True(t, ValidLevel(name), name)
	}
	assert.False(t, ValidLevel("loud"))
	assert.False(t, ValidLevel(""))
}
