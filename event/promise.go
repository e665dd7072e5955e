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

// Promise is a future successor: it resolves at most once, either to an
// Event or to an error.
type Promise[T any] struct {
	done chan struct{}
	once sync.Once
	val  Event[T]
	err  error
}

func newPromise[T any]() *Promise[T] {
	return &Promise[T]{done: make(chan struct{})}
}

// Resolved constructs a Promise that is already satisfied with ev.
func Resolved[T any](ev Event[T]) *Promise[T] {
	p := newPromise[T]()
	p.val = ev
	p.once.Do(func() {})
	close(p.done)
	return p
}

func (p *Promise[T]) resolve(ev Event[T]) {
	p.once.Do(func() {
		p.val = ev
		close(p.done)
	})
}

func (p *Promise[T]) reject(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

// Done returns a channel closed once the promise is satisfied.
func (p *Promise[T]) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the promise is satisfied and returns its outcome.
func (p *Promise[T]) Wait() (Event[T], error) {
	<-p.done
	return p.val, p.err
}

// Result returns the outcome without blocking; callers must only call
// it after Done() has been observed closed.
func (p *Promise[T]) Result() (Event[T], error) {
	return p.val, p.err
}
