package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	return slog.New(NewHandler(buf, &Options{
		Level:      level,
		TimeFormat: "15:04:05",
		NoColor:    true,
	}))
}

func TestHandlerWritesContextAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, slog.LevelDebug)

	ctx := ContextWithRequestID(context.Background(), 42)
	ctx = ContextWithChatID(ctx, -100)
	log.With("component", "voice").ErrorContext(ctx, "leaving voice chat", Err(errors.New("boom")))

	line := buf.String()
	for _, want := range []string{"42 ", "ERROR", "leaving voice chat", "chatID=-100", "component=voice", "err=boom"} {
		if !strings.Contains(line, want) {
			t.Errorf("expected %q in log line %q", want, line)
		}
	}
	if strings.Contains(line, "\u001b[") {
		t.Errorf("expected ANSI codes to be stripped, got %q", line)
	}
}

func TestHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, slog.LevelWarn)

	log.Info("hidden")
	log.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("info record should be filtered, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("warn record should be written, got %q", buf.String())
	}
}

func TestHandlerGroups(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, slog.LevelDebug)

	log.WithGroup("calls").Info("request", "subject", "calls.join")

	if !strings.Contains(buf.String(), "calls.subject=calls.join") {
		t.Errorf("expected grouped key, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelDebug},
	}

	for _, test := range tests {
		if got := ParseLevel(test.in); got != test.want {
			t.Errorf("For level '%s', expected %v, but got %v", test.in, test.want, got)
		}
	}
}
