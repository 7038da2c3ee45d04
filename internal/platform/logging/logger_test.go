package logging

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/RaidenIV/dj-database/internal/platform/timeutil"
)

// captureStdout runs fn with stdout redirected and returns what was written.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	defer func() { _ = r.Close() }()

	origStdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = origStdout }()

	fn()
	_ = Logger().Sync()

	if closeErr := w.Close(); closeErr != nil {
		t.Fatalf("failed to close writer: %v", closeErr)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("failed to read log output: %v", err)
	}
	return string(data)
}

// captureLogOutput captures a single log entry emitted by logFn and returns it as a map.
func captureLogOutput(t *testing.T, logFn func(*zap.Logger)) map[string]any {
	t.Helper()
	resetLoggerForTest()

	line := strings.TrimSpace(captureStdout(t, func() { logFn(Logger()) }))
	if line == "" {
		t.Fatalf("expected log output, got empty string")
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("failed to unmarshal log JSON: %v", err)
	}
	return payload
}

// resetLoggerForTest clears the singleton state so tests can capture fresh log output.
func resetLoggerForTest() {
	loggerOnce = sync.Once{}
	baseLogger = nil
	sugarLogger = nil
	loggerErr = nil
	Configure(Options{})
}

type captureArrayEncoder struct {
	zapcore.PrimitiveArrayEncoder
	values []string
}

func (c *captureArrayEncoder) AppendString(v string) { c.values = append(c.values, v) }

func TestLoggerStructuredOutput(t *testing.T) {
	payload := captureLogOutput(t, func(l *zap.Logger) {
		l.Info("GET /health")
	})

	if got := payload["severity"]; got != "INFO" {
		t.Fatalf("expected severity INFO, got %v", got)
	}
	if _, exists := payload["level"]; exists {
		t.Fatal("did not expect level field")
	}
	if msg, ok := payload["message"].(string); !ok || msg != "GET /health" {
		t.Fatalf("expected message 'GET /health', got %v", payload["message"])
	}
	ts, ok := payload["timestamp"].(string)
	if !ok {
		t.Fatalf("expected timestamp field to be a string, got %T", payload["timestamp"])
	}
	if _, err := time.Parse(timeutil.RFC3339Micros, ts); err != nil {
		t.Fatalf("timestamp is not RFC3339Micros: %v", err)
	}
}

func TestSugarLoggerStructuredOutput(t *testing.T) {
	payload := captureLogOutput(t, func(*zap.Logger) {
		Sugar().Warnw("slow import", "rows", 120)
	})

	if got := payload["severity"]; got != "WARNING" {
		t.Fatalf("expected severity WARNING, got %v", got)
	}
	if rows, ok := payload["rows"].(float64); !ok || rows != 120 {
		t.Fatalf("expected rows 120, got %v", payload["rows"])
	}
}

func TestEncodeSeverityMapping(t *testing.T) {
	tests := []struct {
		level    zapcore.Level
		expected string
	}{
		{zapcore.DebugLevel, "DEBUG"},
		{zapcore.InfoLevel, "INFO"},
		{zapcore.WarnLevel, "WARNING"},
		{zapcore.ErrorLevel, "ERROR"},
		{zapcore.DPanicLevel, "CRITICAL"},
		{zapcore.PanicLevel, "ALERT"},
		{zapcore.FatalLevel, "EMERGENCY"},
		{zapcore.Level(99), "DEFAULT"},
	}

	for _, tt := range tests {
		enc := &captureArrayEncoder{}
		encodeSeverity(tt.level, enc)
		if len(enc.values) != 1 || enc.values[0] != tt.expected {
			t.Fatalf("encodeSeverity(%v) = %v, want %s", tt.level, enc.values, tt.expected)
		}
	}
}

func TestLoggerSingletonBehavior(t *testing.T) {
	resetLoggerForTest()

	if Logger() != Logger() {
		t.Fatal("expected Logger() to return the same instance")
	}
	if Sugar().Desugar().Core() != Logger().Core() {
		t.Fatal("expected Logger and Sugar to share the same core")
	}
	if err := Err(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestDebugLevelNotLoggedByDefault(t *testing.T) {
	resetLoggerForTest()

	out := captureStdout(t, func() {
		Logger().Debug("debug message should not appear")
	})
	if strings.Contains(out, "debug message") {
		t.Fatal("debug level messages should not be logged by default")
	}
}

func TestConfiguredDebugLevel(t *testing.T) {
	resetLoggerForTest()
	Configure(Options{Level: "debug"})
	defer resetLoggerForTest()

	out := captureStdout(t, func() {
		Logger().Debug("visible debug")
	})
	if !strings.Contains(out, "visible debug") {
		t.Fatalf("expected debug output, got %q", out)
	}
}

func TestUnknownLevelReportedByErr(t *testing.T) {
	resetLoggerForTest()
	Configure(Options{Level: "chatty"})
	defer resetLoggerForTest()

	if err := Err(); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if Logger() == nil {
		t.Fatal("expected fallback logger")
	}
}
