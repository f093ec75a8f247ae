// Package logrus adapts sirupsen/logrus to syncache.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/syncache"
)

var _ syncache.Logger = Logger{}

// Logger writes through E. A nil E uses the logrus standard logger.
type Logger struct{ E *logrus.Entry }

func New(l *logrus.Logger) Logger {
	return Logger{E: logrus.NewEntry(l).WithField("component", "syncache")}
}

func (l Logger) Debug(msg string, f syncache.Fields) { l.with(f).Debug(msg) }
func (l Logger) Info(msg string, f syncache.Fields)  { l.with(f).Info(msg) }
func (l Logger) Warn(msg string, f syncache.Fields)  { l.with(f).Warn(msg) }
func (l Logger) Error(msg string, f syncache.Fields) { l.with(f).Error(msg) }

func (l Logger) with(f syncache.Fields) *logrus.Entry {
	e := l.E
	if e == nil {
		e = logrus.NewEntry(logrus.StandardLogger())
	}
	if len(f) == 0 {
		return e
	}
	if err, ok := f["err"].(error); ok {
		e = e.WithError(err)
		rest := make(logrus.Fields, len(f)-1)
		for k, v := range f {
			if k != "err" {
				rest[k] = v
			}
		}
		return e.WithFields(rest)
	}
	return e.WithFields(logrus.Fields(f))
}
