package tools

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestErrorLogger(t *testing.T) *ToolErrorLogger {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tool-errors.log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	require.NoError(t, err)
	logger := &ToolErrorLogger{enabled: true, logFile: file, filePath: path}
	t.Cleanup(func() { _ = logger.Close() })
	return logger
}

func TestLogToolErrorWritesEntry(t *testing.T) {
	logger := newTestErrorLogger(t)

	args := map[string]any{"file_id": "abc123", "range": "Sheet1!A1:B2"}
	logger.LogToolError("read_range", "req-7", args, errors.New("range not found"), "stdio")

	data, err := os.ReadFile(logger.GetLogFilePath())
	require.NoError(t, err)

	var entry ToolErrorLogEntry
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry))

	assert.Equal(t, "read_range", entry.ToolName)
	assert.Equal(t, "req-7", entry.RequestID)
	assert.Equal(t, "range not found", entry.Error)
	assert.Equal(t, "stdio", entry.Transport)
	assert.Equal(t, "abc123", entry.Arguments["file_id"])

	// Timestamp must round-trip so rotation can evaluate it later
	_, err = time.Parse(time.RFC3339, entry.Timestamp)
	assert.NoError(t, err)
}

func TestLogToolErrorAppendsOnePerLine(t *testing.T) {
	logger := newTestErrorLogger(t)

	logger.LogToolError("update_range", "req-1", nil, errors.New("first"), "http")
	logger.LogToolError("append_rows", "req-2", nil, errors.New("second"), "http")

	data, err := os.ReadFile(logger.GetLogFilePath())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "first")
	assert.Contains(t, lines[1], "second")
}

func TestLogToolErrorDisabled(t *testing.T) {
	logger := &ToolErrorLogger{enabled: false}

	// Must not panic with no file open
	logger.LogToolError("read_range", "req-1", nil, errors.New("boom"), "stdio")

	assert.False(t, logger.IsEnabled())
	assert.NoError(t, logger.Close())
}

func TestGetGlobalErrorLoggerUninitialised(t *testing.T) {
	logger := GetGlobalErrorLogger()
	require.NotNil(t, logger)
	assert.False(t, logger.IsEnabled())
}

func TestRotateOldLogsPrunesExpiredEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tool-errors.log")

	stale := ToolErrorLogEntry{
		Timestamp: time.Now().AddDate(0, 0, -(DefaultLogRetentionDays + 30)).Format(time.RFC3339),
		ToolName:  "append_rows",
		Error:     "stale failure",
	}
	recent := ToolErrorLogEntry{
		Timestamp: time.Now().Format(time.RFC3339),
		ToolName:  "read_range",
		Error:     "recent failure",
	}
	staleJSON, err := json.Marshal(stale)
	require.NoError(t, err)
	recentJSON, err := json.Marshal(recent)
	require.NoError(t, err)

	contents := string(staleJSON) + "\n" + string(recentJSON) + "\nnot json at all\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	require.NoError(t, err)
	logger := &ToolErrorLogger{enabled: true, logFile: file, filePath: path}
	t.Cleanup(func() { _ = logger.Close() })

	require.NoError(t, logger.rotateOldLogs())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "stale failure")
	assert.Contains(t, string(data), "recent failure")
	// Malformed lines survive rotation rather than being silently dropped
	assert.Contains(t, string(data), "not json at all")

	// The logger keeps accepting entries after rotation
	logger.LogToolError("write_formula", "req-9", nil, errors.New("after rotation"), "sse")
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "after rotation")
}
