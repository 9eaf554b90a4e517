package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	if Default(nil) == nil {
		t.Fatal("Default(nil) should return a discard logger")
	}
	if Default(nil).Enabled(context.Background(), slog.LevelError) {
		t.Error("discard logger should not be enabled")
	}

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	if Default(logger) != logger {
		t.Error("Default should return the provided logger")
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "warn", "json")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("dropped")
	logger.Warn("kept", "field", "customer")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one record, got %d: %q", len(lines), buf.String())
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if record["msg"] != "kept" || record["field"] != "customer" {
		t.Errorf("unexpected record: %v", record)
	}
}

func TestNewRejectsInvalidInput(t *testing.T) {
	if _, err := New(&bytes.Buffer{}, "verbose", "text"); err == nil {
		t.Error("expected an error for an invalid level")
	}
	if _, err := New(&bytes.Buffer{}, "info", "xml"); err == nil {
		t.Error("expected an error for an invalid format")
	}
}
