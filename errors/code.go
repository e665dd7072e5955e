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

package errors

// CodeError is a numeric error classification, HTTP-status-shaped.
type CodeError uint16

// The seven error kinds named by the core's error handling design:
// configuration, lifecycle protocol, admission denial, protocol,
// handler failure, shutdown race and event-chain corruption.
const (
	UnknownError CodeError = 0

	// ErrConfig: configuration error, never recoverable, aborts startup.
	ErrConfig CodeError = 400

	// ErrLifecycle: init called twice, start when not stopped, stop when
	// not running, child added to two parents.
	ErrLifecycle CodeError = 409

	// ErrAdmissionDenied: rate-limit or connection cap rejected a connection.
	ErrAdmissionDenied CodeError = 429

	// ErrProtocol: malformed HTTP, oversized body, SNI resolution failure.
	ErrProtocol CodeError = 422

	// ErrRequestEntityTooLarge: a request body exceeded the configured max.
	ErrRequestEntityTooLarge CodeError = 413

	// ErrNotFound: no handler matched the request.
	ErrNotFound CodeError = 404

	// ErrHandlerFailure: uncaught exception from an application handler.
	ErrHandlerFailure CodeError = 500

	// ErrShutdownRace: operation completed after stop was requested.
	// Never surfaced to a caller; recorded only for observability.
	ErrShutdownRace CodeError = 499

	// ErrChainCorruption: a promised chained-event successor resolved to
	// an invalid value or a type-mismatched payload.
	ErrChainCorruption CodeError = 520
)

var messages = map[CodeError]string{
	UnknownError:             "unknown error",
	ErrConfig:                "configuration error",
	ErrLifecycle:             "lifecycle protocol error",
	ErrAdmissionDenied:       "admission denied",
	ErrProtocol:              "protocol error",
	ErrRequestEntityTooLarge: "request entity too large",
	ErrNotFound:              "not found",
	ErrHandlerFailure:        "handler failure",
	ErrShutdownRace:          "shutdown race",
	ErrChainCorruption:       "event chain corruption",
}

// Message returns the default human-readable message for a code, or the
// generic "unknown error" fallback if none is registered.
func (c CodeError) Message() string {
	if m, ok := messages[c]; ok {
		return m
	}
	return messages[UnknownError]
}

// Error constructs an Error of this code with an optional wrapped cause.
func (c CodeError) Error(parent error) Error {
	return newError(c, c.Message(), parent)
}

// ErrorWithMessage constructs an Error of this code with a custom message.
func (c CodeError) ErrorWithMessage(message string, parent error) Error {
	return newError(c, message, parent)
}
