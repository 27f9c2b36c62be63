package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesServiceAndRunID(t *testing.T) {
	out := filepath.Join(t.TempDir(), "etl.log")

	logger, err := New(Config{Level: "debug", OutputPaths: []string{out}, RunID: "run-1"})
	require.NoError(t, err)
	logger.Debug("file processed")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry))
	assert.Equal(t, "file processed", entry["msg"])
	assert.Equal(t, ServiceName, entry["service"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Contains(t, entry, "ts")
}

func TestNew_GeneratesRunID(t *testing.T) {
	out := filepath.Join(t.TempDir(), "etl.log")

	logger, err := New(Config{OutputPaths: []string{out}})
	require.NoError(t, err)
	logger.Info("hello")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	_, err = uuid.Parse(entry["run_id"].(string))
	assert.NoError(t, err)
}

func TestNew_LevelFilters(t *testing.T) {
	out := filepath.Join(t.TempDir(), "etl.log")

	logger, err := New(Config{Level: "warn", OutputPaths: []string{out}})
	require.NoError(t, err)
	logger.Info("dropped")
	logger.Warn("kept")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNormalizeFormat(t *testing.T) {
	assert.Equal(t, "console", normalizeFormat("Console"))
	assert.Equal(t, "console", normalizeFormat("text"))
	assert.Equal(t, "json", normalizeFormat(""))
	assert.Equal(t, "json", normalizeFormat("json"))
}
