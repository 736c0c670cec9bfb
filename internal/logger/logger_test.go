package logger

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want *zapcore.Level
	}{
		{"debug", levelPtr(zapcore.DebugLevel)},
		{"info", levelPtr(zapcore.InfoLevel)},
		{"warn", levelPtr(zapcore.WarnLevel)},
		{"error", levelPtr(zapcore.ErrorLevel)},
		{"verbose", nil},
		{"", nil},
	}

	for _, tt := range tests {
		got := parseLevel(tt.in)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("parseLevel(%q) = %v, want nil", tt.in, *got)
		case tt.want != nil && (got == nil || *got != *tt.want):
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, *tt.want)
		}
	}
}

func TestNopLogger(t *testing.T) {
	l := NewNop()
	l.Info("ignored", String("k", "v"), Int("n", 1), Int64("id", 2), Bool("ok", true), Error(errors.New("x")))
	l.Debugf("ignored %d", 1)
	if err := l.Sync(); err != nil {
		t.Errorf("Sync() = %v", err)
	}
}

func TestNewProduction(t *testing.T) {
	if l := New("warn", false); l == nil {
		t.Fatal("New() returned nil")
	}
}

func levelPtr(l zapcore.Level) *zapcore.Level { return &l }

func TestWithAndNamed(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := wrap(zap.New(core)).Named("importer").With(String("run_id", "r1"))

	l.Info("import started", Int("rows", 3))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.LoggerName != "importer" {
		t.Errorf("logger name = %q, want importer", e.LoggerName)
	}
	fields := e.ContextMap()
	if fields["run_id"] != "r1" || fields["rows"] != int64(3) {
		t.Errorf("fields = %v", fields)
	}
}
