/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package logging provides the tree-structured logger consumed by every
// component in the network endpoint core. It never parses or ships its own
// output; it exposes the minting of subtagged child loggers ($newId in the
// core's glossary) and structured entries, backed by logrus.
package logging

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// FuncLog is a factory for a Logger, used for dependency injection and lazy
// default-logger construction at an application's entry point.
type FuncLog func() Logger

// Logger is the logging context carried by every ControlContext in the
// component tree. Clone/WithField/NewID mint derived loggers that share the
// same underlying output but carry additional structured fields — the
// mechanism behind per-connection and per-request subtags.
type Logger interface {
	SetLevel(lvl Level)
	GetLevel() Level

	SetFields(f Fields)
	GetFields() Fields

	// Clone duplicates this logger with a shallow copy of its fields.
	Clone() Logger

	// WithField returns a derived logger carrying one extra field.
	WithField(key string, val interface{}) Logger

	// WithFields returns a derived logger carrying the merged fields.
	WithFields(f Fields) Logger

	// NewID mints a derived logger subtagged with a fresh correlation id
	// under the given tag name (e.g. "conn", "req"). It is the Go
	// equivalent of the core's logger.$newId accessor.
	NewID(tag string) Logger

	// LastContext exposes the most recently minted correlation id value
	// for this logger, mirroring logger.$meta.lastContext.
	LastContext() string

	Debug(message string, data interface{})
	Info(message string, data interface{})
	Warning(message string, data interface{})
	Error(message string, data interface{})
	Fatal(message string, data interface{})

	// Entry returns a builder for a single structured log line.
	Entry(lvl Level, message string) Entry

	// Access returns a builder pre-populated with HTTP access-log fields.
	Access(remoteAddr, remoteUser string, localtime time.Time, latency time.Duration, method, request, proto string, status int, size int64) Entry
}

type lgr struct {
	mu     sync.RWMutex
	level  Level
	fields Fields
	out    *logrus.Logger
	lastID string
}

// New returns a root Logger writing through logrus at InfoLevel.
func New() Logger {
	l := &lgr{
		level:  InfoLevel,
		fields: Fields{},
		out:    logrus.New(),
	}
	l.out.SetLevel(InfoLevel.logrus())
	return l
}

func (l *lgr) SetLevel(lvl Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = lvl
	l.out.SetLevel(lvl.logrus())
}

func (l *lgr) GetLevel() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

func (l *lgr) SetFields(f Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fields = f.Clone()
}

func (l *lgr) GetFields() Fields {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.fields.Clone()
}

func (l *lgr) Clone() Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return &lgr{
		level:  l.level,
		fields: l.fields.Clone(),
		out:    l.out,
	}
}

func (l *lgr) WithField(key string, val interface{}) Logger {
	return l.WithFields(Fields{key: val})
}

func (l *lgr) WithFields(f Fields) Logger {
	n := l.Clone().(*lgr)
	n.fields = n.fields.Merge(f)
	return n
}

func (l *lgr) NewID(tag string) Logger {
	id := newCorrelationID()

	n := l.WithField(tag, id).(*lgr)
	n.lastID = id
	return n
}

func (l *lgr) LastContext() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastID
}

func (l *lgr) Debug(message string, data interface{}) {
	l.Entry(DebugLevel, message).Field("data", data).Log()
}

func (l *lgr) Info(message string, data interface{}) {
	l.Entry(InfoLevel, message).Field("data", data).Log()
}

func (l *lgr) Warning(message string, data interface{}) {
	l.Entry(WarnLevel, message).Field("data", data).Log()
}

func (l *lgr) Error(message string, data interface{}) {
	l.Entry(ErrorLevel, message).Field("data", data).Log()
}

func (l *lgr) Fatal(message string, data interface{}) {
	l.Entry(FatalLevel, message).Field("data", data).Log()
}

func (l *lgr) Entry(lvl Level, message string) Entry {
	return newEntry(l, lvl, message)
}

func (l *lgr) Access(remoteAddr, remoteUser string, localtime time.Time, latency time.Duration, method, request, proto string, status int, size int64) Entry {
	return l.Entry(InfoLevel, "access").
		Field("remote_addr", remoteAddr).
		Field("remote_user", remoteUser).
		Field("time", localtime).
		Field("latency", latency).
		Field("method", method).
		Field("request", request).
		Field("proto", proto).
		Field("status", status).
		Field("size", size)
}
