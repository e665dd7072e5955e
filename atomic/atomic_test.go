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

package atomic_test

import (
	"sync"
	"testing"

	libatm "github.com/danfuzz/lactoserv-sub003/atomic"
)

func TestValueLoadStore(t *testing.T) {
	v := libatm.NewValue[string]()

	if _, ok := v.Load(); ok {
		t.Fatalf("expected empty value to report not-ok")
	}

	v.Store("hello")
	got, ok := v.Load()
	if !ok || got != "hello" {
		t.Fatalf("expected hello, got %q ok=%v", got, ok)
	}
}

func TestMapConcurrentAccess(t *testing.T) {
	m := libatm.NewMap[string, int]()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			m.Store("k", n)
		}(i)
	}
	wg.Wait()

	if m.Len() != 1 {
		t.Fatalf("expected 1 key, got %d", m.Len())
	}

	m.Delete("k")
	if _, ok := m.Load("k"); ok {
		t.Fatalf("expected key removed")
	}
}

func TestMapRangeSnapshot(t *testing.T) {
	m := libatm.NewMap[int, string]()
	m.Store(1, "a")
	m.Store(2, "b")
	m.Store(3, "c")

	seen := map[int]string{}
	m.Range(func(k int, v string) bool {
		seen[k] = v
		return true
	})

	if len(seen) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(seen))
	}
}
