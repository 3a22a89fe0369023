package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"loud", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseLevel(%q) error = %v", tt.in, err)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestComponentTag(t *testing.T) {
	orig := Level()
	defer SetLevel(orig)
	defer SetOutput(&bytes.Buffer{}, FormatText)

	var buf bytes.Buffer
	SetLevel(slog.LevelDebug)
	SetOutput(&buf, FormatJSON)

	Debug(ComponentFIFO, "reserve", "want", 8)
	out := buf.String()
	if !strings.Contains(out, `"component":"fifo"`) {
		t.Errorf("missing component tag: %s", out)
	}
	if !strings.Contains(out, `"want":8`) {
		t.Errorf("missing attribute: %s", out)
	}
}

func TestLevelFilters(t *testing.T) {
	orig := Level()
	defer SetLevel(orig)
	defer SetOutput(&bytes.Buffer{}, FormatText)

	var buf bytes.Buffer
	SetLevel(slog.LevelWarn)
	SetOutput(&buf, FormatText)

	Info(ComponentBoot, "hidden")
	if buf.Len() != 0 {
		t.Errorf("info logged below warn level: %s", buf.String())
	}
	Warn(ComponentBoot, "shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("warn not logged: %s", buf.String())
	}
}
