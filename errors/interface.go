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

// Package errors provides the error type used across every component of the
// network endpoint core: a numeric code (HTTP-status-shaped), a captured
// call site, and an optional chain of parent errors, so that the seven
// error kinds from the core's error handling design can be distinguished
// by callers without string matching.
package errors

import (
	"runtime"
	"strings"
)

// Error is the error type returned by every fallible operation in this
// module. It is never nil when returned as a non-nil value; check HasParent
// before walking GetParent.
type Error interface {
	error

	// Code returns the numeric classification of this error.
	Code() CodeError

	// IsCode reports whether this error (not its parents) carries the
	// given code.
	IsCode(code CodeError) bool

	// AddParent appends one or more causes to this error's parent chain.
	AddParent(err ...error)

	// HasParent reports whether any parent errors are attached.
	HasParent() bool

	// GetParent returns the attached parent errors, in the order added.
	GetParent() []error

	// Unwrap supports errors.Is / errors.As against the first parent.
	Unwrap() error

	// GetFile and GetLine report the call site where the error was created.
	GetFile() string
	GetLine() int
}

type ers struct {
	code    CodeError
	message string
	parents []error
	frame   runtime.Frame
}

func newError(code CodeError, message string, parent error) Error {
	e := &ers{
		code:    code,
		message: message,
		frame:   callerFrame(),
	}
	if parent != nil {
		e.parents = append(e.parents, parent)
	}
	return e
}

// New builds a bare Error with no code-specific default message.
func New(code CodeError, message string) Error {
	return newError(code, message, nil)
}

func callerFrame() runtime.Frame {
	pc := make([]uintptr, 1)
	n := runtime.Callers(4, pc)
	if n == 0 {
		return runtime.Frame{}
	}
	frame, _ := runtime.CallersFrames(pc[:n]).Next()
	return frame
}

func (e *ers) Code() CodeError {
	return e.code
}

func (e *ers) IsCode(code CodeError) bool {
	return e.code == code
}

func (e *ers) AddParent(err ...error) {
	for _, p := range err {
		if p != nil {
			e.parents = append(e.parents, p)
		}
	}
}

func (e *ers) HasParent() bool {
	return len(e.parents) > 0
}

func (e *ers) GetParent() []error {
	return e.parents
}

func (e *ers) Unwrap() error {
	if len(e.parents) == 0 {
		return nil
	}
	return e.parents[0]
}

func (e *ers) GetFile() string {
	return e.frame.File
}

func (e *ers) GetLine() int {
	return e.frame.Line
}

func (e *ers) Error() string {
	var b strings.Builder

	b.WriteString(e.message)

	for _, p := range e.parents {
		b.WriteString(": ")
		b.WriteString(p.Error())
	}

	return b.String()
}
