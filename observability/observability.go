// Package observability defines the logging, tracing, and metrics seams the
// processing pipeline reports through. Library code depends only on these
// interfaces; binaries install concrete backends (see zlog and prom).
package observability

import (
	"context"
	"time"
)

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

type Field interface {
	Key() string
	Value() interface{}
}

type stringField struct{ key, val string }

func (f stringField) Key() string        { return f.key }
func (f stringField) Value() interface{} { return f.val }

type intField struct {
	key string
	val int
}

func (f intField) Key() string        { return f.key }
func (f intField) Value() interface{} { return f.val }

type float64Field struct {
	key string
	val float64
}

func (f float64Field) Key() string        { return f.key }
func (f float64Field) Value() interface{} { return f.val }

type durationField struct {
	key string
	val time.Duration
}

func (f durationField) Key() string        { return f.key }
func (f durationField) Value() interface{} { return f.val }

type errorField struct {
	key string
	err error
}

func (f errorField) Key() string        { return f.key }
func (f errorField) Value() interface{} { return f.err }

func String(key, value string) Field             { return stringField{key, value} }
func Int(key string, value int) Field            { return intField{key, value} }
func Float64(key string, value float64) Field    { return float64Field{key, value} }
func Duration(key string, d time.Duration) Field { return durationField{key, d} }
func Error(key string, err error) Field          { return errorField{key, err} }

type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (NopLogger) With(...Field) Logger   { return NopLogger{} }

// Tracer provides tracing hooks around pipeline stages.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// Span represents a tracing span.
type Span interface {
	SetTag(key string, value interface{})
	SetError(err error)
	Finish()
}

type nopTracer struct{}

func (nopTracer) StartSpan(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, nopSpan{}
}

// NopTracer returns a tracer that does nothing.
func NopTracer() Tracer { return nopTracer{} }

type nopSpan struct{}

func (nopSpan) SetTag(string, interface{}) {}
func (nopSpan) SetError(error)             {}
func (nopSpan) Finish()                    {}

// Pipeline stage names used as metric labels.
const (
	StageRaster    = "raster"
	StageRecognize = "recognize"
)

// Stage outcomes used as metric labels.
const (
	OutcomeOK       = "ok"
	OutcomeFailed   = "failed"
	OutcomeCanceled = "canceled"
)

// Metrics receives pipeline counters and timings. Implementations must be
// safe for concurrent use from worker goroutines.
type Metrics interface {
	// ObserveStage records the duration of one pipeline stage run.
	ObserveStage(stage, outcome string, d time.Duration)
	// SetCacheEntries reports the current number of page cache entries.
	SetCacheEntries(n int)
	// IncNotificationsDropped counts notifications discarded on queue overflow.
	IncNotificationsDropped()
}

type nopMetrics struct{}

func (nopMetrics) ObserveStage(string, string, time.Duration) {}
func (nopMetrics) SetCacheEntries(int)                        {}
func (nopMetrics) IncNotificationsDropped()                   {}

// NopMetrics returns a metrics sink that does nothing.
func NopMetrics() Metrics { return nopMetrics{} }
