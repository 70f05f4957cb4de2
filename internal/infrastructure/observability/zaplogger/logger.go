package zaplogger

import (
	"time"

	"github.com/Zhima-Mochi/shophub/internal/observability"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type logger struct{ l *zap.Logger }

// New adapts base to the observability.Logger port. fixed fields are attached to every entry.
func New(base *zap.Logger, fixed ...observability.Field) observability.Logger {
	if base == nil {
		base = zap.L()
	}
	return &logger{l: base.With(fields(fixed)...)}
}

func (z *logger) With(fs ...observability.Field) observability.Logger {
	if len(fs) == 0 {
		return z
	}
	return &logger{l: z.l.With(fields(fs)...)}
}

func (z *logger) Debug(msg string, fs ...observability.Field) { z.l.Debug(msg, fields(fs)...) }
func (z *logger) Info(msg string, fs ...observability.Field)  { z.l.Info(msg, fields(fs)...) }
func (z *logger) Warn(msg string, fs ...observability.Field)  { z.l.Warn(msg, fields(fs)...) }
func (z *logger) Error(msg string, fs ...observability.Field) { z.l.Error(msg, fields(fs)...) }

// Sync flushes buffered entries on shutdown.
func (z *logger) Sync() error {
	return z.l.Sync()
}

// fields maps port fields to typed zap fields. Money is written as a fixed two-decimal string
// so totals read the same in logs as in API responses.
func fields(fs []observability.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fs))
	for _, f := range fs {
		switch v := f.Value.(type) {
		case error:
			out = append(out, zap.NamedError(f.Key, v))
		case decimal.Decimal:
			out = append(out, zap.String(f.Key, v.StringFixed(2)))
		case time.Duration:
			out = append(out, zap.Duration(f.Key, v))
		case time.Time:
			out = append(out, zap.Time(f.Key, v))
		default:
			out = append(out, zap.Any(f.Key, v))
		}
	}
	return out
}
