// Package test holds helpers shared by the package tests.
package test

import (
	"fmt"
	"strings"
	"sync"
)

// Logger records every message so tests can assert on what was logged.
// It satisfies core.Logger.
type Logger struct {
	mu      sync.RWMutex
	entries []Entry
}

// Entry is one recorded message.
type Entry struct {
	Level   string
	Message string
}

// NewTestLogger returns an empty Logger.
func NewTestLogger() *Logger {
	return &Logger{}
}

func (l *Logger) Criticalf(format string, args ...any) { l.record("CRITICAL", format, args...) }
func (l *Logger) Debugf(format string, args ...any)    { l.record("DEBUG", format, args...) }
func (l *Logger) Errorf(format string, args ...any)    { l.record("ERROR", format, args...) }
func (l *Logger) Noticef(format string, args ...any)   { l.record("NOTICE", format, args...) }
func (l *Logger) Warningf(format string, args ...any)  { l.record("WARN", format, args...) }

func (l *Logger) record(level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{Level: level, Message: msg})
}

// Entries returns a copy of everything logged so far.
func (l *Logger) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// HasMessage reports whether any message at any level contains substr.
func (l *Logger) HasMessage(substr string) bool {
	return l.has("", substr)
}

// HasError reports whether an ERROR message contains substr.
func (l *Logger) HasError(substr string) bool {
	return l.has("ERROR", substr)
}

// HasWarning reports whether a WARN message contains substr.
func (l *Logger) HasWarning(substr string) bool {
	return l.has("WARN", substr)
}

func (l *Logger) has(level, substr string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, e := range l.entries {
		if level != "" && e.Level != level {
			continue
		}
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// Count returns how many messages were logged at level, or at all levels
// when level is empty.
func (l *Logger) Count(level string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := 0
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			n++
		}
	}
	return n
}
