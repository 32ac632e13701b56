package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"DEBUG":   LevelDebug,
		" info ":  LevelInfo,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Fatalf("ParseLevel(%q): want=%v got=%v", input, want, got)
		}
	}
}

func TestNewLoggerHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelWarn)

	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info should be suppressed at warn level")
	}
	logger.Warn("rate limited", "wait", "31s")
	if buf.Len() == 0 {
		t.Fatal("warn record was not written")
	}
}

func TestNewLoggerNilWriterDefaultsToStderr(t *testing.T) {
	logger := NewLogger(nil, LevelInfo)
	if logger == nil {
		t.Fatal("logger must not be nil")
	}
}
