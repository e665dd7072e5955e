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

package logging

import "github.com/sirupsen/logrus"

// Entry is a single structured log line under construction. Field/Fields
// are chainable; Log commits the entry, and errors/fields set after Log
// has no effect.
type Entry interface {
	Field(key string, val interface{}) Entry
	Fields(f Fields) Entry
	Err(err error) Entry
	Log()
}

type entry struct {
	logger  *lgr
	level   Level
	message string
	fields  Fields
	err     error
}

func newEntry(l *lgr, lvl Level, message string) Entry {
	return &entry{
		logger:  l,
		level:   lvl,
		message: message,
		fields:  Fields{},
	}
}

func (e *entry) Field(key string, val interface{}) Entry {
	e.fields[key] = val
	return e
}

func (e *entry) Fields(f Fields) Entry {
	for k, v := range f {
		e.fields[k] = v
	}
	return e
}

func (e *entry) Err(err error) Entry {
	e.err = err
	return e
}

func (e *entry) Log() {
	base := e.logger.GetFields().Merge(e.fields)

	fields := make(logrus.Fields, len(base))
	for k, v := range base {
		fields[k] = v
	}
	if e.err != nil {
		fields["error"] = e.err.Error()
	}

	l := e.logger.out.WithFields(fields)

	switch e.level {
	case DebugLevel:
		l.Debug(e.message)
	case WarnLevel:
		l.Warn(e.message)
	case ErrorLevel:
		l.Error(e.message)
	case FatalLevel:
		l.Error(e.message)
	case PanicLevel:
		l.Error(e.message)
	default:
		l.Info(e.message)
	}
}
