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

package event

import (
	"sync"

	"github.com/danfuzz/lactoserv-sub003/thread"
)

// ProcessFunc handles one event in a chain. A returned error stops the
// sink and is carried on its Threadlet future.
type ProcessFunc[T any] func(ev Event[T]) error

// Sink walks a chain in order, invoking a ProcessFunc for each event.
// The processor always runs asynchronously to the chain's producer.
type Sink[T any] struct {
	tl   *thread.Threadlet
	head Event[T]
	proc ProcessFunc[T]

	mu       sync.Mutex
	draining bool
	drainCh  chan struct{}
}

// NewSink constructs a Sink bound to head. Call Start to begin walking
// the chain.
func NewSink[T any](head Event[T], proc ProcessFunc[T]) *Sink[T] {
	s := &Sink[T]{head: head, proc: proc, drainCh: make(chan struct{})}
	s.tl = thread.New(nil, s.run)
	return s
}

// Start begins (or resumes) walking the chain from its bound head.
func (s *Sink[T]) Start() *thread.Future {
	s.mu.Lock()
	s.draining = false
	s.drainCh = make(chan struct{})
	s.mu.Unlock()
	return s.tl.Start()
}

// Stop requests an immediate halt; the processor is not invoked again.
func (s *Sink[T]) Stop() *thread.Future {
	return s.tl.Stop()
}

// DrainAndStop processes every event already appended, or appended
// before the chain runs dry, then stops without waiting further. It
// does not affect a later Start/Stop cycle.
func (s *Sink[T]) DrainAndStop() *thread.Future {
	s.mu.Lock()
	if !s.draining {
		s.draining = true
		close(s.drainCh)
	}
	s.mu.Unlock()
	return s.tl.CurrentFuture()
}

// IsRunning reports whether the sink is actively processing.
func (s *Sink[T]) IsRunning() bool {
	return s.tl.IsRunning()
}

func (s *Sink[T]) isDraining() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draining
}

func (s *Sink[T]) drainSignal() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drainCh
}

func (s *Sink[T]) run(h thread.Handle) error {
	cur := s.head

	for {
		if err := s.proc(cur); err != nil {
			return err
		}

		if s.isDraining() {
			nxt, ok, err := cur.NextNow()
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			cur = nxt
			continue
		}

		prom := cur.NextPromise()
		select {
		case <-h.WhenStopRequested():
			return nil
		case <-s.drainSignal():
			// Woken by DrainAndStop while parked waiting on a successor
			// that may since have arrived; fall through to the drain
			// check above on the next iteration either way.
			nxt, ok, err := cur.NextNow()
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			cur = nxt
		case <-prom.Done():
			nxt, err := prom.Result()
			if err != nil {
				return err
			}
			cur = nxt
		}
	}
}
