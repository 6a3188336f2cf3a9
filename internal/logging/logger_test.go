package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelWarn, Output: &buf})

	logger.Info("should not appear", "lp", 1)
	if buf.Len() != 0 {
		t.Fatalf("info log should be suppressed below warn level, got %q", buf.String())
	}

	logger.Warn("should appear", "lp", 1)
	if !strings.Contains(buf.String(), "should appear") {
		t.Fatalf("warn log missing from output: %q", buf.String())
	}
}

func TestDefaultLoggerRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(NewLogger(&Config{Level: LevelDebug, Output: &buf}))
	defer SetDefault(NewLogger(nil))

	Info("hello", "rank", 3)
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("Default()-routed log missing: %q", buf.String())
	}
}
