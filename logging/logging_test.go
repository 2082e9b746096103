package logging

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLevelString(t *testing.T) {
	cases := map[Level]string{
		DebugLevel: "DEBUG",
		InfoLevel:  "INFO",
		WarnLevel:  "WARN",
		ErrorLevel: "ERROR",
		FatalLevel: "FATAL",
		Level(99):  "UNKNOWN",
	}
	for level, want := range cases {
		if got := level.String(); got != want {
			t.Errorf("Level(%d).String() = %q, want %q", level, got, want)
		}
	}
}

func TestSetGlobalLogger_NilFallsBackToNoOp(t *testing.T) {
	original := GetGlobalLogger()
	defer SetGlobalLogger(original)

	SetGlobalLogger(nil)
	if _, ok := GetGlobalLogger().(*NoOpLogger); !ok {
		t.Errorf("global logger after SetGlobalLogger(nil) is %T, want NoOpLogger", GetGlobalLogger())
	}

	// Must not panic
	Debug("debug")
	Info("info")
	Warn("warn")
	Error(errors.New("x"), "error")
}

func TestFromContext_CarriesFields(t *testing.T) {
	original := GetGlobalLogger()
	defer SetGlobalLogger(original)

	core, observed := observer.New(zapcore.DebugLevel)
	SetGlobalLogger(NewZapLogger(zap.New(core)))

	ctx := ContextWithFields(context.Background(), Fields{"request_id": "req-1"})
	FromContext(ctx).Info("handling request")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] != "req-1" {
		t.Errorf("request_id field = %v, want req-1", fields["request_id"])
	}
}

func TestZapLogger_MergesCallFields(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	logger := NewZapLogger(zap.New(core))

	logger.WithFields(Fields{"component": "test"}).Error(
		errors.New("boom"), "operation failed", Fields{"attempt": 2})

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["component"] != "test" {
		t.Errorf("component field = %v", fields["component"])
	}
	if fields["error"] != "boom" {
		t.Errorf("error field = %v, want boom", fields["error"])
	}
}

func TestFromContext_WithoutFieldsReturnsGlobal(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Error("FromContext on a bare context returned nil")
	}
}
