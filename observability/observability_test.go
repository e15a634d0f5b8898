package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNopTracer(t *testing.T) {
	tracer := NopTracer()
	ctx := context.Background()
	ctx2, span := tracer.StartSpan(ctx, "test")
	if ctx2 != ctx {
		t.Fatalf("nop tracer should return same context")
	}
	span.SetTag("key", "value")
	span.SetError(nil)
	span.Finish()
}

func TestFields(t *testing.T) {
	err := errors.New("boom")
	tests := []struct {
		field Field
		key   string
		value interface{}
	}{
		{String("s", "v"), "s", "v"},
		{Int("i", 7), "i", 7},
		{Float64("f", 0.5), "f", 0.5},
		{Duration("d", time.Second), "d", time.Second},
		{Error("e", err), "e", err},
	}
	for _, tt := range tests {
		if tt.field.Key() != tt.key {
			t.Fatalf("Key() = %q, want %q", tt.field.Key(), tt.key)
		}
		if tt.field.Value() != tt.value {
			t.Fatalf("Value() = %v, want %v", tt.field.Value(), tt.value)
		}
	}
}

func TestNopMetrics(t *testing.T) {
	m := NopMetrics()
	m.ObserveStage(StageRaster, OutcomeOK, time.Millisecond)
	m.SetCacheEntries(3)
	m.IncNotificationsDropped()
}
