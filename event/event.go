/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

// Package event provides a singly-linked chain of immutable payloads
// with a live, one-shot appender at the tail (Source), and a
// Threadlet-backed consumer that walks the chain in order (Sink). It
// is the backbone the protocol wrangler uses to publish per-request
// access-log entries without the request path blocking on a slow log
// sink.
package event

import (
	"errors"
	"sync"
)

// ErrAlreadyEmitted is returned by a one-shot Emitter's second call.
var ErrAlreadyEmitted = errors.New("event: emitter already used")

// ErrNoEmitter is returned by TakeEmitter when no live emitter exists,
// either because one was already taken or this event's successor was
// fixed at construction.
var ErrNoEmitter = errors.New("event: no emitter available")

// Emitter is a one-shot appender bound to the event it was taken from.
type Emitter[T any] interface {
	Emit(payload T) (Event[T], error)
}

// Event is one position in a chain. Construction determines how its
// successor becomes known: absent (a fresh pending position with a
// live Emitter), a concrete Event (fixed), or a Promise of one
// (tracked asynchronously).
type Event[T any] interface {
	Payload() T

	// NextNow returns the successor if it is already known. ok is false
	// for "none known yet"; err is set only if an asynchronous successor
	// resolved to a failure.
	NextNow() (next Event[T], ok bool, err error)

	// NextPromise always returns a future of the successor.
	NextPromise() *Promise[T]

	// TakeEmitter returns the one-shot appender for this position. A
	// second call, or a call on an event with no live emitter, fails.
	TakeEmitter() (Emitter[T], error)

	// WithPayload returns a new head sharing this event's successor
	// tracking but with a different payload. The returned view has no
	// emitter of its own.
	WithPayload(payload T) Event[T]

	// WithPushedHead returns a new head whose successor is this event.
	WithPushedHead(payload T) Event[T]
}

type chainEvent[T any] struct {
	mu sync.Mutex

	payload T

	fixed    bool
	fixedNxt Event[T]

	prom *Promise[T]

	liveEmitter  bool
	emitterTaken bool
}

// New constructs a fresh, pending chain position with a live emitter.
func New[T any](payload T) Event[T] {
	return &chainEvent[T]{
		payload:     payload,
		prom:        newPromise[T](),
		liveEmitter: true,
	}
}

// NewFixed constructs an event whose successor is already known.
func NewFixed[T any](payload T, successor Event[T]) Event[T] {
	return &chainEvent[T]{
		payload:  payload,
		fixed:    true,
		fixedNxt: successor,
	}
}

// NewTracking constructs an event whose successor resolves when fut
// resolves. If fut rejects, NextNow reports the failure.
func NewTracking[T any](payload T, fut *Promise[T]) Event[T] {
	ev := &chainEvent[T]{payload: payload, prom: newPromise[T]()}
	go func() {
		next, err := fut.Wait()
		if err != nil {
			ev.prom.reject(err)
			return
		}
		ev.prom.resolve(next)
	}()
	return ev
}

func (e *chainEvent[T]) Payload() T {
	return e.payload
}

func (e *chainEvent[T]) NextNow() (Event[T], bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.fixed {
		return e.fixedNxt, e.fixedNxt != nil, nil
	}

	select {
	case <-e.prom.Done():
		v, err := e.prom.Result()
		if err != nil {
			return nil, false, err
		}
		return v, v != nil, nil
	default:
		return nil, false, nil
	}
}

func (e *chainEvent[T]) NextPromise() *Promise[T] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.fixed {
		return Resolved(e.fixedNxt)
	}
	return e.prom
}

func (e *chainEvent[T]) TakeEmitter() (Emitter[T], error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.liveEmitter || e.emitterTaken {
		return nil, ErrNoEmitter
	}
	e.emitterTaken = true
	return &emitter[T]{owner: e}, nil
}

func (e *chainEvent[T]) WithPayload(payload T) Event[T] {
	return &payloadView[T]{inner: e, payload: payload}
}

func (e *chainEvent[T]) WithPushedHead(payload T) Event[T] {
	return NewFixed[T](payload, e)
}

type emitter[T any] struct {
	mu    sync.Mutex
	owner *chainEvent[T]
	used  bool
}

func (em *emitter[T]) Emit(payload T) (Event[T], error) {
	em.mu.Lock()
	defer em.mu.Unlock()

	if em.used {
		return nil, ErrAlreadyEmitted
	}
	em.used = true

	next := New[T](payload)
	em.owner.prom.resolve(next)
	return next, nil
}

// payloadView overrides Payload while delegating successor tracking to
// the wrapped event. It never exposes an emitter of its own.
type payloadView[T any] struct {
	inner   Event[T]
	payload T
}

func (v *payloadView[T]) Payload() T { return v.payload }

func (v *payloadView[T]) NextNow() (Event[T], bool, error) { return v.inner.NextNow() }

func (v *payloadView[T]) NextPromise() *Promise[T] { return v.inner.NextPromise() }

func (v *payloadView[T]) TakeEmitter() (Emitter[T], error) { return nil, ErrNoEmitter }

func (v *payloadView[T]) WithPayload(payload T) Event[T] {
	return &payloadView[T]{inner: v.inner, payload: payload}
}

func (v *payloadView[T]) WithPushedHead(payload T) Event[T] {
	return NewFixed[T](payload, v)
}
