package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNew_ReturnsUsableLogger(t *testing.T) {
	for _, env := range []string{"development", "production"} {
		t.Run(env, func(t *testing.T) {
			log := New(env)
			if log == nil {
				t.Fatal("Expected logger to be created")
			}
			if log.GetZerolog() == nil {
				t.Error("Expected zerolog instance to be available")
			}
		})
	}
}

func TestNewWithWriter_LevelByEnvironment(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "production")

	log.Debug("hidden debug", nil)
	if strings.Contains(buf.String(), "hidden debug") {
		t.Error("Debug message should not appear outside development")
	}

	log.Info("visible info", nil)
	if !strings.Contains(buf.String(), "visible info") {
		t.Error("Info message should appear in production logging")
	}

	buf.Reset()
	dev := NewWithWriter(&buf, "development")
	dev.Debug("dev debug", nil)
	if !strings.Contains(buf.String(), "dev debug") {
		t.Error("Debug message should appear in development logging")
	}
}

func TestNewWithWriter_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "production")

	log.Warn("stale response discarded", map[string]interface{}{
		"seq":    3,
		"latest": 4,
	})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected valid JSON output, got error: %v", err)
	}
	if entry["message"] != "stale response discarded" {
		t.Errorf("Unexpected message %v", entry["message"])
	}
	if entry["level"] != "warn" {
		t.Errorf("Expected warn level, got %v", entry["level"])
	}
	if entry["seq"] != float64(3) {
		t.Errorf("Expected seq field 3, got %v", entry["seq"])
	}
}

func TestError_IncludesErrorAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "production")

	log.Error("query failed", errors.New("connection refused"), map[string]interface{}{
		"endpoint": "/api/search",
	})

	output := buf.String()
	for _, want := range []string{"query failed", "connection refused", "/api/search"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected log output to contain %q, got %s", want, output)
		}
	}
}

func TestWith_ChildLoggers(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "production")

	log.With(map[string]interface{}{"version": "1.0"}).Info("with fields", nil)
	log.WithRequestID("req-12345").Info("with request", nil)
	log.WithComponent("reconcile").Info("with component", nil)

	output := buf.String()
	for _, want := range []string{`"version":"1.0"`, `"request_id":"req-12345"`, `"component":"reconcile"`} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected log output to contain %s", want)
		}
	}
}

func TestNop_DiscardsOutput(t *testing.T) {
	log := Nop()
	// Must not panic with or without fields.
	log.Info("ignored", nil)
	log.Error("ignored", errors.New("boom"), map[string]interface{}{"k": "v"})
}
