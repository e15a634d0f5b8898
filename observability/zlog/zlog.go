// Package zlog adapts a zerolog.Logger to the observability.Logger seam so
// binaries get structured console or JSON logs from library internals.
package zlog

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/KunalKalawant/Engineering-Drawing/observability"
)

type logger struct {
	zl zerolog.Logger
}

// New wraps a zerolog.Logger as an observability.Logger.
func New(zl zerolog.Logger) observability.Logger {
	return logger{zl: zl}
}

func (l logger) Debug(msg string, fields ...observability.Field) { emit(l.zl.Debug(), msg, fields) }
func (l logger) Info(msg string, fields ...observability.Field)  { emit(l.zl.Info(), msg, fields) }
func (l logger) Warn(msg string, fields ...observability.Field)  { emit(l.zl.Warn(), msg, fields) }
func (l logger) Error(msg string, fields ...observability.Field) { emit(l.zl.Error(), msg, fields) }

func (l logger) With(fields ...observability.Field) observability.Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		ctx = ctx.Interface(f.Key(), f.Value())
	}
	return logger{zl: ctx.Logger()}
}

func emit(ev *zerolog.Event, msg string, fields []observability.Field) {
	for _, f := range fields {
		switch v := f.Value().(type) {
		case string:
			ev = ev.Str(f.Key(), v)
		case int:
			ev = ev.Int(f.Key(), v)
		case float64:
			ev = ev.Float64(f.Key(), v)
		case time.Duration:
			ev = ev.Dur(f.Key(), v)
		case error:
			ev = ev.AnErr(f.Key(), v)
		default:
			ev = ev.Interface(f.Key(), v)
		}
	}
	ev.Msg(msg)
}
