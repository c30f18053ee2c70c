package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func decodeEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("malformed log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)
	ctx := context.Background()

	logger.Info(ctx, "artifact loaded", Field{Key: "path", Value: "/opt/build/gemm/lib.so"})

	entries := decodeEntries(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}

	entry := entries[0]
	if entry["msg"] != "artifact loaded" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v", entry["level"])
	}
	if entry["path"] != "/opt/build/gemm/lib.so" {
		t.Errorf("path = %v", entry["path"])
	}
	if entry["timestamp"] == nil {
		t.Error("timestamp missing")
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf)
	ctx := context.Background()

	logger.Debug(ctx, "dropped")
	logger.Info(ctx, "dropped")
	logger.Warn(ctx, "kept")
	logger.Error(ctx, "kept")

	entries := decodeEntries(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0]["level"] != "warn" || entries[1]["level"] != "error" {
		t.Errorf("levels = %v, %v", entries[0]["level"], entries[1]["level"])
	}
}

func TestLogger_WithKernel(t *testing.T) {
	var buf bytes.Buffer
	base := NewLoggerWithWriter("info", &buf)
	ctx := context.Background()

	logger := base.WithKernel(KernelMeta{
		FuncID:    "gemm_2ae42d67",
		Base:      "gemm",
		Subfolder: "gemm_fp16",
	})
	logger.Info(ctx, "cache hit")

	entries := decodeEntries(t, &buf)
	entry := entries[0]
	if entry["kernel.func_id"] != "gemm_2ae42d67" {
		t.Errorf("kernel.func_id = %v", entry["kernel.func_id"])
	}
	if entry["kernel.base"] != "gemm" {
		t.Errorf("kernel.base = %v", entry["kernel.base"])
	}
	if entry["kernel.subfolder"] != "gemm_fp16" {
		t.Errorf("kernel.subfolder = %v", entry["kernel.subfolder"])
	}

	// The parent logger stays unscoped.
	buf.Reset()
	base.Info(ctx, "unscoped")
	entry = decodeEntries(t, &buf)[0]
	if _, ok := entry["kernel.func_id"]; ok {
		t.Error("parent logger should not carry kernel context")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
