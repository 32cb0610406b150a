package logging

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRespectsLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Format: "json", Output: &buf})

	logger.Info("hidden")
	logger.Warn("item failed", "index", 2)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "item failed", record["msg"])
	assert.Equal(t, float64(2), record["index"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestOpenFileCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "stripdrop.log")
	f, err := OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	New(Config{Output: f}).Info("batch started")
	require.NoError(t, f.Sync())
	assert.FileExists(t, path)
}
