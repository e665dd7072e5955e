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

package ratelimit_test

import (
	"bytes"
	"testing"

	"github.com/danfuzz/lactoserv-sub003/ratelimit"
)

func TestConnectionRateLimiterDeniesWhenExhausted(t *testing.T) {
	zero := 0.0
	b := ratelimit.New(ratelimit.Config{Capacity: 1, FlowRate: 0.0001, InitialVolume: &zero})
	limiter := ratelimit.NewConnectionRateLimiter(b, false)

	if limiter.NewConnection(nil) {
		t.Fatalf("expected denial with empty bucket")
	}
}

func TestConnectionRateLimiterCallDispatch(t *testing.T) {
	b := ratelimit.New(ratelimit.Config{Capacity: 2, FlowRate: 1})
	limiter := ratelimit.NewConnectionRateLimiter(b, false)

	v, err := limiter.Call("newConnection", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if granted, ok := v.(bool); !ok || !granted {
		t.Fatalf("expected granted=true, got %v", v)
	}

	if _, err := limiter.Call("bogus"); err == nil {
		t.Fatalf("expected error for unknown method")
	}
}

func TestDataRateLimiterThrottlesWrites(t *testing.T) {
	b := ratelimit.New(ratelimit.Config{Capacity: 1024, FlowRate: 1024})
	limiter := ratelimit.NewDataRateLimiter(b)

	var buf bytes.Buffer
	w := limiter.WrapWriter(&buf, nil)

	n, err := w.Write([]byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("unexpected write result n=%d err=%v", n, err)
	}
	if buf.String() != "hello" {
		t.Fatalf("expected proxied bytes, got %q", buf.String())
	}
}
