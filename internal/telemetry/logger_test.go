package telemetry

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestLogger(t *testing.T) (*Logger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "telemetry.jsonl")
	l, err := NewLogger(path)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l, path
}

func readLines(t *testing.T, path string) []map[string]interface{} {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()

	var entries []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("line is not JSON: %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestRecordWritesOneJSONObjectPerLine(t *testing.T) {
	l, path := newTestLogger(t)

	l.Record(LevelInfo, "turn_completed", map[string]interface{}{
		"session_id": "sess_1",
		"latency_ms": 42,
	})
	l.Record(LevelError, "turn_failed", map[string]interface{}{
		"error_code": "provider_timeout",
	})

	entries := readLines(t, path)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	first := entries[0]
	if first["event"] != "turn_completed" || first["level"] != "info" {
		t.Fatalf("unexpected first entry: %v", first)
	}
	if first["session_id"] != "sess_1" {
		t.Fatalf("payload field missing: %v", first)
	}
	if _, err := time.Parse(time.RFC3339, first["timestamp"].(string)); err != nil {
		t.Fatalf("timestamp not RFC3339: %v", first["timestamp"])
	}

	if entries[1]["event"] != "turn_failed" || entries[1]["level"] != "error" {
		t.Fatalf("append order broken: %v", entries[1])
	}
}

func TestRecordAppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.jsonl")

	l1, err := NewLogger(path)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	l1.Record(LevelInfo, "first", nil)
	l1.Close()

	l2, err := NewLogger(path)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer l2.Close()
	l2.Record(LevelInfo, "second", nil)

	entries := readLines(t, path)
	if len(entries) != 2 || entries[0]["event"] != "first" || entries[1]["event"] != "second" {
		t.Fatalf("reopen must append, got %v", entries)
	}
}

func TestRecordAfterCloseDoesNotPanic(t *testing.T) {
	l, _ := newTestLogger(t)
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	l.Record(LevelInfo, "late", nil)
	if err := l.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestRotateIfStaleArchivesOldFile(t *testing.T) {
	l, path := newTestLogger(t)
	l.Record(LevelInfo, "old_entry", nil)

	// Age the file past the horizon.
	l.mu.Lock()
	l.lastWrite = time.Now().Add(-8 * 24 * time.Hour)
	l.mu.Unlock()

	r := NewRotator(l, RetentionHorizon)
	if err := r.RotateIfStale(); err != nil {
		t.Fatalf("RotateIfStale failed: %v", err)
	}

	archives, err := filepath.Glob(path + ".*")
	if err != nil || len(archives) != 1 {
		t.Fatalf("expected 1 archive, got %v (err %v)", archives, err)
	}
	if entries := readLines(t, archives[0]); len(entries) != 1 || entries[0]["event"] != "old_entry" {
		t.Fatalf("archive lost entries: %v", entries)
	}

	// The active file is fresh again and recording continues.
	l.Record(LevelInfo, "new_entry", nil)
	entries := readLines(t, path)
	if len(entries) != 1 || entries[0]["event"] != "new_entry" {
		t.Fatalf("active file not reset: %v", entries)
	}
}

func TestRotateIfStaleSkipsFreshFile(t *testing.T) {
	l, path := newTestLogger(t)
	l.Record(LevelInfo, "fresh", nil)

	r := NewRotator(l, RetentionHorizon)
	if err := r.RotateIfStale(); err != nil {
		t.Fatalf("RotateIfStale failed: %v", err)
	}

	archives, _ := filepath.Glob(path + ".*")
	if len(archives) != 0 {
		t.Fatalf("fresh file must not rotate: %v", archives)
	}
}

func TestRotateIfStaleSkipsEmptyFile(t *testing.T) {
	l, path := newTestLogger(t)

	l.mu.Lock()
	l.lastWrite = time.Now().Add(-8 * 24 * time.Hour)
	l.mu.Unlock()

	r := NewRotator(l, RetentionHorizon)
	if err := r.RotateIfStale(); err != nil {
		t.Fatalf("RotateIfStale failed: %v", err)
	}
	archives, _ := filepath.Glob(path + ".*")
	if len(archives) != 0 {
		t.Fatalf("empty file must not rotate: %v", archives)
	}
}
