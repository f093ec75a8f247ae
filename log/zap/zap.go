// Package zap adapts go.uber.org/zap to syncache.Logger.
package zap

import (
	"go.uber.org/zap"

	"github.com/unkn0wn-root/syncache"
)

var _ syncache.Logger = Logger{}

// Logger writes through L. A nil L discards everything.
type Logger struct{ L *zap.Logger }

func New(l *zap.Logger) Logger {
	if l == nil {
		return Logger{}
	}
	return Logger{L: l.Named("syncache")}
}

func (z Logger) Debug(msg string, f syncache.Fields) { z.l().Debug(msg, fields(f)...) }
func (z Logger) Info(msg string, f syncache.Fields)  { z.l().Info(msg, fields(f)...) }
func (z Logger) Warn(msg string, f syncache.Fields)  { z.l().Warn(msg, fields(f)...) }
func (z Logger) Error(msg string, f syncache.Fields) { z.l().Error(msg, fields(f)...) }

func (z Logger) l() *zap.Logger {
	if z.L == nil {
		return zap.NewNop()
	}
	return z.L
}

func fields(f syncache.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, v))
	}
	return out
}
