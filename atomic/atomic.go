/*
 * MIT License
 *
 * Copyright (c) 2021 Nicolas JUHEL
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

// Package atomic provides a generic, type-safe wrapper over sync/atomic.Value
// so call sites never need an interface{} type assertion.
package atomic

import "sync/atomic"

// Value is a generic, concurrency-safe holder for a single value of type T.
type Value[T any] struct {
	v atomic.Value
}

// NewValue returns an empty Value[T].
func NewValue[T any]() *Value[T] {
	return &Value[T]{}
}

// Store sets the current value.
func (a *Value[T]) Store(val T) {
	a.v.Store(boxed[T]{val: val})
}

// Load returns the current value and whether one was ever stored.
func (a *Value[T]) Load() (T, bool) {
	var zero T

	i := a.v.Load()
	if i == nil {
		return zero, false
	}

	b, ok := i.(boxed[T])
	if !ok {
		return zero, false
	}

	return b.val, true
}

// Get returns the current value, or the zero value of T if none was stored.
func (a *Value[T]) Get() T {
	val, _ := a.Load()
	return val
}

type boxed[T any] struct {
	val T
}
