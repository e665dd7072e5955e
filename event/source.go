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

import "sync"

// Source holds the live tail of a chain and appends to it on Emit. When
// keepCount is positive, it retains only the most recent keepCount
// events, discarding older ones from EarliestEvent's perspective.
type Source[T any] struct {
	mu        sync.Mutex
	tail      Event[T]
	tailEmit  Emitter[T]
	earliest  Event[T]
	keepCount int
	retained  int
}

// NewSource constructs a Source whose chain begins at an event carrying
// initial. keepCount of zero or less means unbounded retention.
func NewSource[T any](initial T, keepCount int) *Source[T] {
	head := New[T](initial)
	emitter, _ := head.TakeEmitter()

	return &Source[T]{
		tail:      head,
		tailEmit:  emitter,
		earliest:  head,
		keepCount: keepCount,
		retained:  1,
	}
}

// Emit appends payload to the end of the chain and returns the new
// event. If a keep count is configured, the earliest retained event
// advances once the window is exceeded.
func (s *Source[T]) Emit(payload T) (Event[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.tailEmit.Emit(payload)
	if err != nil {
		return nil, err
	}

	nextEmitter, _ := next.TakeEmitter()
	s.tail = next
	s.tailEmit = nextEmitter
	s.retained++

	if s.keepCount > 0 {
		for s.retained > s.keepCount {
			if nxt, ok, _ := s.earliest.NextNow(); ok {
				s.earliest = nxt
				s.retained--
			} else {
				break
			}
		}
	}

	return next, nil
}

// EarliestEventNow returns the oldest retained event, if known.
func (s *Source[T]) EarliestEventNow() (Event[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.earliest, s.earliest != nil
}

// EarliestEvent returns a promise of the oldest retained event.
func (s *Source[T]) EarliestEvent() *Promise[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Resolved(s.earliest)
}

// CurrentEvent returns a promise of the current tail.
func (s *Source[T]) CurrentEvent() *Promise[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Resolved(s.tail)
}
