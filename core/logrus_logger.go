package core

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/sirupsen/logrus"
)

// LogrusAdapter satisfies Logger on top of a logrus.Logger. With Caller set,
// each entry gets a "caller" field naming the file and line that logged.
type LogrusAdapter struct {
	Logger *logrus.Logger
	Caller bool
	fields logrus.Fields
}

var _ Logger = (*LogrusAdapter)(nil)

// NewLogrusAdapter wraps l.
func NewLogrusAdapter(l *logrus.Logger) *LogrusAdapter {
	return &LogrusAdapter{Logger: l}
}

// WithFields returns an adapter that attaches fields to every entry.
func (l *LogrusAdapter) WithFields(fields logrus.Fields) *LogrusAdapter {
	merged := make(logrus.Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &LogrusAdapter{Logger: l.Logger, Caller: l.Caller, fields: merged}
}

func (l *LogrusAdapter) logf(level logrus.Level, format string, args ...any) {
	if !l.Logger.IsLevelEnabled(level) {
		return
	}

	entry := logrus.NewEntry(l.Logger)
	if len(l.fields) > 0 {
		entry = entry.WithFields(l.fields)
	}
	if l.Caller {
		if _, file, line, ok := runtime.Caller(2); ok {
			entry = entry.WithField("caller", fmt.Sprintf("%s:%d", filepath.Base(file), line))
		}
	}
	entry.Logf(level, format, args...)
}

// Criticalf logs at error level; the process is not terminated.
func (l *LogrusAdapter) Criticalf(format string, args ...any) {
	l.logf(logrus.ErrorLevel, format, args...)
}

func (l *LogrusAdapter) Debugf(format string, args ...any) {
	l.logf(logrus.DebugLevel, format, args...)
}

func (l *LogrusAdapter) Errorf(format string, args ...any) {
	l.logf(logrus.ErrorLevel, format, args...)
}

func (l *LogrusAdapter) Noticef(format string, args ...any) {
	l.logf(logrus.InfoLevel, format, args...)
}

func (l *LogrusAdapter) Warningf(format string, args ...any) {
	l.logf(logrus.WarnLevel, format, args...)
}
