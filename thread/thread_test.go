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

package thread_test

import (
	"errors"
	"testing"
	"time"

	"github.com/danfuzz/lactoserv-sub003/thread"
)

func TestStopBeforeStartResolvesImmediately(t *testing.T) {
	tl := thread.New(nil, func(h thread.Handle) error { return nil })

	fut := tl.Stop()
	select {
	case <-fut.Done():
	case <-time.After(time.Second):
		t.Fatalf("expected immediate resolution")
	}
	if err := fut.Err(); err != nil {
		t.Fatalf("expected nil err, got %v", err)
	}
}

func TestStartThenStopRunsMain(t *testing.T) {
	entered := make(chan struct{})
	tl := thread.New(nil, func(h thread.Handle) error {
		close(entered)
		<-h.WhenStopRequested()
		return nil
	})

	fut := tl.Start()

	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatalf("main never entered")
	}

	if !tl.IsRunning() {
		t.Fatalf("expected IsRunning true")
	}

	stopFut := tl.Stop()
	if stopFut != fut {
		t.Fatalf("expected Stop to return the Start future")
	}

	if err := fut.Err(); err != nil {
		t.Fatalf("expected nil err, got %v", err)
	}
}

func TestRedundantStartsCoalesce(t *testing.T) {
	tl := thread.New(nil, func(h thread.Handle) error {
		<-h.WhenStopRequested()
		return nil
	})

	a := tl.Start()
	b := tl.Start()
	if a != b {
		t.Fatalf("expected coalesced future across redundant starts")
	}
	tl.Stop()
}

func TestStartFuncErrorSkipsMain(t *testing.T) {
	boom := errors.New("boom")
	mainCalled := false

	tl := thread.New(
		func(h thread.Handle) error { return boom },
		func(h thread.Handle) error { mainCalled = true; return nil },
	)

	fut := tl.Start()
	if err := fut.Err(); err != boom {
		t.Fatalf("expected start error propagated, got %v", err)
	}
	if mainCalled {
		t.Fatalf("main must not run after start failure")
	}
}

func TestRestartAfterStop(t *testing.T) {
	tl := thread.New(nil, func(h thread.Handle) error {
		<-h.WhenStopRequested()
		return nil
	})

	tl.Start()
	tl.Stop().Err()

	fut2 := tl.Start()
	if !tl.IsRunning() && !tl.IsStarted() {
		// give the goroutine a moment to reach running state
	}
	tl.Stop()
	fut2.Err()
}
