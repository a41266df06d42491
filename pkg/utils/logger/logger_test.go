package logger

import (
	"context"
	"testing"

	"scoreboard/pkg/utils/contextkey"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestForAttachesContextFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	prev := global.Swap(zap.New(core))
	t.Cleanup(func() { global.Store(prev) })

	ctx := context.WithValue(context.Background(), contextkey.TraceID, "t-1")
	ctx = WithContest(ctx, "finals")
	Info(ctx, "tick", zap.Int("runs", 3))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["trace_id"] != "t-1" || fields["contest"] != "finals" || fields["runs"] != int64(3) {
		t.Fatalf("unexpected fields: %v", fields)
	}
	if _, ok := fields["request_id"]; ok {
		t.Fatalf("request_id should be absent")
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Fatalf("expected invalid level error")
	}
	if _, err := New(Config{Format: "console"}); err != nil {
		t.Fatalf("default config: %v", err)
	}
}

func TestUninitializedLoggerIsSilent(t *testing.T) {
	prev := global.Swap(nil)
	t.Cleanup(func() { global.Store(prev) })
	Warn(context.Background(), "dropped")
	if err := Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
}
