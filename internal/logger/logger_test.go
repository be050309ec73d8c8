package logger

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Logger{SugaredLogger: zap.New(core).Sugar(), Redact: true}, logs
}

func TestRedactsSecretsAndHashesSessions(t *testing.T) {
	l, logs := observed()
	l.Info("upload", "session_id", "abc-123", "api_key", "sk-xyz", "rows", 10)
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if got := fields["api_key"]; got != "[REDACTED]" {
		t.Errorf("api_key = %v", got)
	}
	sid, _ := fields["session_id"].(string)
	if !strings.HasPrefix(sid, "hash:") || strings.Contains(sid, "abc-123") {
		t.Errorf("session_id = %q", sid)
	}
	if got := fields["rows"]; got != int64(10) {
		t.Errorf("rows = %v (%T)", got, got)
	}
}

func TestRedactionCanBeDisabled(t *testing.T) {
	l, logs := observed()
	l.Redact = false
	l.With("session_id", "abc").Debug("x")
	if got := logs.All()[0].ContextMap()["session_id"]; got != "abc" {
		t.Errorf("session_id = %v", got)
	}
}

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"dev", "prod"} {
		l, err := New(mode)
		if err != nil {
			t.Fatalf("New(%q): %v", mode, err)
		}
		l.Sync()
	}
	Nop().Info("discarded")
}
