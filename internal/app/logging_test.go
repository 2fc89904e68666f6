package app

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: LogLevelWarn, Output: &buf, Prefix: "test"})

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("messages below the level were written:\n%s", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("warn/error messages missing:\n%s", out)
	}
}

func TestLogger_Formatting(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: LogLevelDebug, Output: &buf, Prefix: "test"})

	logger.Info("loaded %d lines from %s", 42, "main.go")

	out := buf.String()
	if !strings.Contains(out, "loaded 42 lines from main.go") {
		t.Errorf("formatted message missing:\n%s", out)
	}
	if !strings.Contains(out, "[INFO] test:") {
		t.Errorf("level and prefix missing:\n%s", out)
	}
}

func TestLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: LogLevelDebug, Output: &buf})

	logger.WithComponent("render").Warn("cache miss")

	if !strings.Contains(buf.String(), "{component=render}") {
		t.Errorf("component tag missing:\n%s", buf.String())
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LogLevelDebug},
		{"INFO", LogLevelInfo},
		{"warning", LogLevelWarn},
		{"error", LogLevelError},
		{"nonsense", LogLevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNullLogger(t *testing.T) {
	NullLogger.Error("should not panic")
}
