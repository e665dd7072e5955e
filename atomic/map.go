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

package atomic

import "sync"

// Map is a generic, concurrency-safe key/value store keyed by a comparable
// type. It backs the name-keyed member registry of component.Manager.
type Map[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

// NewMap returns an empty Map[K, V].
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{m: make(map[K]V)}
}

func (a *Map[K, V]) Store(key K, val V) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.m[key] = val
}

func (a *Map[K, V]) Load(key K) (V, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.m[key]
	return v, ok
}

func (a *Map[K, V]) Delete(key K) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.m, key)
}

// Range calls f for every stored key/value pair, in unspecified order,
// stopping early if f returns false. It holds no lock during the callback,
// acting on a snapshot of the map taken at call time.
func (a *Map[K, V]) Range(f func(key K, val V) bool) {
	a.mu.RLock()
	snap := make(map[K]V, len(a.m))
	for k, v := range a.m {
		snap[k] = v
	}
	a.mu.RUnlock()

	for k, v := range snap {
		if !f(k, v) {
			return
		}
	}
}

// Len returns the number of stored entries.
func (a *Map[K, V]) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.m)
}

// Keys returns a snapshot of the currently stored keys.
func (a *Map[K, V]) Keys() []K {
	a.mu.RLock()
	defer a.mu.RUnlock()

	keys := make([]K, 0, len(a.m))
	for k := range a.m {
		keys = append(keys, k)
	}
	return keys
}
