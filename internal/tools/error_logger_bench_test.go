package tools

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Benchmarks for the tool error logging pipeline. The per-entry cost sits on
// the request path of every failed tool call, so it should stay cheap.

func benchmarkArgs() map[string]any {
	return map[string]any{
		"file_id": "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms",
		"range":   "Sheet1!A1:D10",
		"values": [][]any{
			{"name", "age", "city", "active"},
			{"alice", 34, "lyon", true},
		},
	}
}

func newBenchErrorLogger(b *testing.B) *ToolErrorLogger {
	b.Helper()
	path := filepath.Join(b.TempDir(), "tool-errors.log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		b.Fatalf("failed to open bench log file: %v", err)
	}
	b.Cleanup(func() { _ = file.Close() })
	return &ToolErrorLogger{enabled: true, logFile: file, filePath: path}
}

// BenchmarkLogToolError measures a full entry write including the disk sync.
func BenchmarkLogToolError(b *testing.B) {
	logger := newBenchErrorLogger(b)
	args := benchmarkArgs()
	err := errors.New("range not found: no sheet named Missing")

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		logger.LogToolError("read_range", "req-1", args, err, "stdio")
	}
}

// BenchmarkLogToolErrorDisabled measures the fast path taken when error
// logging is off, which is the default.
func BenchmarkLogToolErrorDisabled(b *testing.B) {
	logger := &ToolErrorLogger{enabled: false}
	args := benchmarkArgs()
	err := errors.New("range not found")

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		logger.LogToolError("read_range", "req-1", args, err, "stdio")
	}
}

// BenchmarkErrorEntryMarshal isolates the serialisation cost from the disk write.
func BenchmarkErrorEntryMarshal(b *testing.B) {
	entry := ToolErrorLogEntry{
		Timestamp: time.Now().Format(time.RFC3339),
		ToolName:  "update_range",
		RequestID: "req-42",
		Arguments: benchmarkArgs(),
		Error:     "permission denied for spreadsheet",
		Transport: "http",
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := json.Marshal(entry); err != nil {
			b.Fatal(err)
		}
	}
}
