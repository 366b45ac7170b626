package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestZerologAdapter_WritesFields(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewZerologAdapterWithLogger(zerolog.New(&buf))

	adapter.Info("frame sent",
		String("kind", "ping"),
		Uint64("seq", 7),
		Int("size", 3),
		Bool("ack", true),
		Duration("latency", 2*time.Millisecond),
		Err(errors.New("boom")),
	)

	out := buf.String()
	for _, want := range []string{`"message":"frame sent"`, `"kind":"ping"`, `"seq":7`, `"size":3`, `"ack":true`, `"error":"boom"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %s", out, want)
		}
	}
}

func TestZerologAdapter_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewZerologAdapterWithLogger(zerolog.New(&buf).Level(zerolog.WarnLevel))

	adapter.Debug("hidden")
	adapter.Info("hidden")
	adapter.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("output %q contains filtered entries", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("output %q missing warn entry", out)
	}
}

func TestNoopLogger(t *testing.T) {
	var l Logger = NewNoopLogger()
	l.Debug("x")
	l.Info("x", String("k", "v"))
	l.Warn("x")
	l.Error("x", Err(errors.New("e")))
}

func TestNewZerologAdapter_Level(t *testing.T) {
	tests := []zerolog.Level{zerolog.DebugLevel, zerolog.InfoLevel, zerolog.ErrorLevel}
	for _, lvl := range tests {
		if got := NewZerologAdapter(lvl).Logger().GetLevel(); got != lvl {
			t.Errorf("NewZerologAdapter(%s) level = %s", lvl, got)
		}
	}
}
