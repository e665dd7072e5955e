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

// Package thread provides Threadlet, the cooperative start/stop primitive
// that event sinks and the TCP accept loop are built on: an
// explicit Handle carrying both a shouldStop poll and a stop-requested
// channel, so long waits can be expressed as a select across the
// operation and the stop signal instead of a bare context.
package thread

import "sync"

// Handle is passed to both the start and main functions. Long-running
// work should periodically check ShouldStop, or select against
// WhenStopRequested for blocking operations.
type Handle interface {
	ShouldStop() bool
	WhenStopRequested() <-chan struct{}
}

// StartFunc runs once before MainFunc, useful for acquiring resources
// (e.g. binding a listening socket) that must succeed before the main
// loop begins.
type StartFunc func(h Handle) error

// MainFunc is the cooperative loop. It must return promptly after
// WhenStopRequested fires.
type MainFunc func(h Handle) error

type state uint8

const (
	stateIdle state = iota
	stateStarting
	stateRunning
	stateStopping
	stateStopped
)

// Threadlet is a cooperatively-scheduled task with an explicit
// start/stop-request/stop protocol. A stopped instance may be restarted.
type Threadlet struct {
	mu      sync.Mutex
	startFn StartFunc
	mainFn  MainFunc

	st       state
	stopCh   chan struct{}
	stopOnce *sync.Once
	started  chan struct{}
	future   *Future
}

// New constructs a Threadlet. startFn may be nil.
func New(startFn StartFunc, mainFn MainFunc) *Threadlet {
	return &Threadlet{
		startFn: startFn,
		mainFn:  mainFn,
		st:      stateIdle,
	}
}

type handle struct {
	stop chan struct{}
}

func (h *handle) ShouldStop() bool {
	select {
	case <-h.stop:
		return true
	default:
		return false
	}
}

func (h *handle) WhenStopRequested() <-chan struct{} {
	return h.stop
}

// Start transitions intent to "run" and schedules the start/main
// functions asynchronously. Redundant calls while already
// starting/running coalesce to the same Future.
func (t *Threadlet) Start() *Future {
	t.mu.Lock()

	if t.st == stateStarting || t.st == stateRunning {
		fut := t.future
		t.mu.Unlock()
		return fut
	}

	stopCh := make(chan struct{})
	started := make(chan struct{})
	fut := newFuture()

	t.stopCh = stopCh
	t.stopOnce = &sync.Once{}
	t.started = started
	t.future = fut
	t.st = stateStarting

	t.mu.Unlock()

	h := &handle{stop: stopCh}

	go func() {
		defer fut.resolve()

		if t.startFn != nil {
			if err := t.startFn(h); err != nil {
				fut.err = err
				t.setState(stateStopped)
				return
			}
		}

		close(started)
		t.setState(stateRunning)

		err := t.mainFn(h)

		t.setState(stateStopped)
		fut.err = err
	}()

	return fut
}

// Stop transitions intent to "not run" and returns the same Future as
// Start. If called before any Start, it resolves immediately to nil.
func (t *Threadlet) Stop() *Future {
	t.mu.Lock()

	if t.future == nil {
		t.mu.Unlock()
		fut := newFuture()
		fut.resolve()
		return fut
	}

	fut := t.future
	stopCh := t.stopCh
	once := t.stopOnce

	if t.st == stateRunning || t.st == stateStarting {
		t.st = stateStopping
	}
	t.mu.Unlock()

	if stopCh != nil && once != nil {
		once.Do(func() { close(stopCh) })
	}

	return fut
}

func (t *Threadlet) setState(s state) {
	t.mu.Lock()
	t.st = s
	t.mu.Unlock()
}

// IsRunning reports whether the main function is currently executing.
func (t *Threadlet) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.st == stateRunning
}

// IsStarted reports whether the start function has returned (or there
// was none) and the main function has begun.
func (t *Threadlet) IsStarted() bool {
	t.mu.Lock()
	started := t.started
	t.mu.Unlock()

	if started == nil {
		return false
	}

	select {
	case <-started:
		return true
	default:
		return false
	}
}

// WhenStarted returns a channel closed once IsStarted becomes true. It
// returns nil if Start has never been called.
func (t *Threadlet) WhenStarted() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.started
}

// CurrentFuture returns the Future of the most recent Start, or nil if
// Start has never been called.
func (t *Threadlet) CurrentFuture() *Future {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.future
}
