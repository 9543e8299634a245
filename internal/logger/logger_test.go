package logger

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLoggerWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.log")
	l := New(Options{FilePath: path})
	l.Info("backend", "chat settled", map[string]interface{}{"status": 200})
	l.Error("backend", "chat failed", map[string]interface{}{"error": errors.New("boom")})
	l.Debug("backend", "dropped at info level", nil)
	_ = l.Sync()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	require.Len(t, entries, 2)
	assert.Equal(t, "INFO", entries[0]["level"])
	assert.Equal(t, "chat settled", entries[0]["message"])
	assert.Equal(t, "backend", entries[0]["module"])
	assert.Equal(t, "ERROR", entries[1]["level"])
	assert.Equal(t, "boom", entries[1]["error_ref"])
}

func TestNopLogger(t *testing.T) {
	l := Nop()
	l.Warn("x", "nothing", nil)
	assert.NoError(t, l.Sync())

	empty := New(Options{})
	empty.Info("x", "nothing", nil)
	assert.NoError(t, empty.Sync())
}

func TestWarnKeepsErrorText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.log")
	l := New(Options{FilePath: path})
	l.Warn("backend", "backend call failed", map[string]interface{}{
		"error":    errors.New("dial tcp: connection refused"),
		"endpoint": "/chat",
	})
	_ = l.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &entry))
	assert.Equal(t, "WARN", entry["level"])
	details, ok := entry["details"].(map[string]interface{})
	require.True(t, ok, "details should be an object: %s", raw)
	assert.Equal(t, "dial tcp: connection refused", details["error"])
	assert.Equal(t, "/chat", details["endpoint"])
}
