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

// Package ratelimit implements a token bucket with an optional FIFO
// waiter queue: an atomically-timestamped limiter supporting partial
// grants, bounded queue depth and pluggable time sources.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	libval "github.com/go-playground/validator/v10"

	liberr "github.com/danfuzz/lactoserv-sub003/errors"
)

// TimeSource abstracts "now" so tests can drive the bucket without
// wall-clock sleeps.
type TimeSource interface {
	Now() time.Duration
	AfterFunc(delay time.Duration, f func()) func() bool
}

type wallClock struct{ start time.Time }

// NewWallClock returns a TimeSource backed by time.Now, with its zero
// point at construction.
func NewWallClock() TimeSource {
	return &wallClock{start: time.Now()}
}

func (w *wallClock) Now() time.Duration {
	return time.Since(w.start)
}

func (w *wallClock) AfterFunc(delay time.Duration, f func()) func() bool {
	t := time.AfterFunc(delay, f)
	return t.Stop
}

// Quantity is a requested token amount: either a fixed scalar (set
// MinInclusive == MaxInclusive) or a range the bucket may partially
// satisfy.
type Quantity struct {
	MinInclusive float64
	MaxInclusive float64
}

// Exactly builds a Quantity requesting precisely n tokens.
func Exactly(n float64) Quantity {
	return Quantity{MinInclusive: n, MaxInclusive: n}
}

// Grant is the outcome of a takeNow or queued request.
type Grant struct {
	Done        bool
	Amount      float64
	MinWaitTime time.Duration
	MaxWaitTime time.Duration
	WaitTime    time.Duration
}

// Snapshot reports the bucket's instantaneous configuration and state.
type Snapshot struct {
	AvailableBurst float64
	Now            time.Duration
	Waiters        int
	Capacity       float64
	FlowRate       float64
	MaxWaiters     int
	PartialTokens  bool
}

// Config configures a Bucket at construction.
type Config struct {
	Capacity      float64 `validate:"gt=0"`
	FlowRate      float64 `validate:"gt=0"`
	InitialVolume *float64
	MaxWaiters    int `validate:"gte=0"`
	PartialTokens bool
	TimeSource    TimeSource
}

// Validate checks cfg's struct-tagged constraints, returning a
// parent-chained configuration error per field violation.
func (cfg Config) Validate() error {
	if err := libval.New().Struct(cfg); err != nil {
		out := liberr.ErrConfig.Error(nil)
		for _, fe := range err.(libval.ValidationErrors) {
			out.AddParent(fmt.Errorf("ratelimit config field %q fails constraint %q", fe.Namespace(), fe.Tag()))
		}
		return out
	}
	return nil
}

type waiter struct {
	quantity   Quantity
	startTime  time.Duration
	resultCh   chan Grant
}

// Bucket is a token bucket with a FIFO waiter queue serviced by a
// background goroutine that runs only while waiters are present.
type Bucket struct {
	mu sync.Mutex

	capacity      float64
	flowRate      float64
	maxWaiters    int
	partialTokens bool
	clock         TimeSource

	volume  float64
	lastNow time.Duration

	queue        []*waiter
	serviceRun   bool
	serviceStop  chan struct{}
	serviceAwake chan struct{}
}

// New constructs a Bucket. Capacity and FlowRate must be finite and
// positive.
func New(cfg Config) *Bucket {
	clock := cfg.TimeSource
	if clock == nil {
		clock = NewWallClock()
	}

	initial := cfg.Capacity
	if cfg.InitialVolume != nil {
		initial = *cfg.InitialVolume
	}

	return &Bucket{
		capacity:      cfg.Capacity,
		flowRate:      cfg.FlowRate,
		maxWaiters:    cfg.MaxWaiters,
		partialTokens: cfg.PartialTokens,
		clock:         clock,
		volume:        initial,
		lastNow:       clock.Now(),
	}
}

func (b *Bucket) topUp(now time.Duration) {
	elapsed := (now - b.lastNow).Seconds()
	if elapsed > 0 {
		b.volume += b.flowRate * elapsed
		if b.volume > b.capacity {
			b.volume = b.capacity
		}
	}
	b.lastNow = now
}

// TakeNow attempts an immediate, non-queued grant.
func (b *Bucket) TakeNow(q Quantity) Grant {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.takeNowLocked(q, b.clock.Now())
}

func (b *Bucket) takeNowLocked(q Quantity, now time.Duration) Grant {
	b.topUp(now)

	available := b.volume
	if !b.partialTokens {
		available = float64(int64(available))
	}

	if available < q.MinInclusive {
		shortfall := q.MinInclusive - available
		minWait := time.Duration(shortfall / b.flowRate * float64(time.Second))
		maxShortfall := q.MaxInclusive - available
		maxWait := time.Duration(maxShortfall / b.flowRate * float64(time.Second))
		return Grant{Done: false, Amount: 0, MinWaitTime: minWait, MaxWaitTime: maxWait}
	}

	grant := available
	if grant > q.MaxInclusive {
		grant = q.MaxInclusive
	}
	b.volume -= grant

	return Grant{Done: true, Amount: grant}
}

// RequestGrant enqueues a request if it cannot be satisfied immediately.
// A request whose MaxInclusive exceeds capacity can never be satisfied
// and is denied synchronously rather than queued forever.
func (b *Bucket) RequestGrant(q Quantity) <-chan Grant {
	resultCh := make(chan Grant, 1)

	b.mu.Lock()

	if q.MaxInclusive > b.capacity {
		b.mu.Unlock()
		resultCh <- Grant{Done: false, Amount: 0}
		return resultCh
	}

	if len(b.queue) == 0 {
		now := b.clock.Now()
		g := b.takeNowLocked(q, now)
		if g.Done {
			b.mu.Unlock()
			resultCh <- g
			return resultCh
		}
	}

	if b.maxWaiters > 0 && len(b.queue) >= b.maxWaiters {
		b.mu.Unlock()
		resultCh <- Grant{Done: false, Amount: 0}
		return resultCh
	}

	w := &waiter{quantity: q, startTime: b.clock.Now(), resultCh: resultCh}
	b.queue = append(b.queue, w)
	b.ensureServiceLocked()

	b.mu.Unlock()
	return resultCh
}

func (b *Bucket) ensureServiceLocked() {
	if b.serviceRun {
		return
	}
	b.serviceRun = true
	b.serviceStop = make(chan struct{})
	stop := b.serviceStop
	go b.serviceLoop(stop)
}

func (b *Bucket) serviceLoop(stop chan struct{}) {
	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			b.serviceRun = false
			b.mu.Unlock()
			return
		}

		head := b.queue[0]
		now := b.clock.Now()
		g := b.takeNowLocked(head.quantity, now)

		if g.Done {
			b.queue = b.queue[1:]
			g.WaitTime = now - head.startTime
			b.mu.Unlock()
			head.resultCh <- g
			continue
		}

		wait := g.MinWaitTime
		b.mu.Unlock()

		fired := make(chan struct{})
		cancel := b.clock.AfterFunc(wait, func() { close(fired) })
		select {
		case <-stop:
			cancel()
			return
		case <-fired:
		}
	}
}

// DenyAllRequests stops the service goroutine and completes every
// queued waiter with a denial.
func (b *Bucket) DenyAllRequests() {
	b.mu.Lock()
	queue := b.queue
	b.queue = nil
	stop := b.serviceStop
	b.serviceRun = false
	now := b.clock.Now()
	b.mu.Unlock()

	if stop != nil {
		close(stop)
	}

	for _, w := range queue {
		w.resultCh <- Grant{Done: false, Amount: 0, WaitTime: now - w.startTime}
	}
}

// SnapshotNow reports the bucket's current state without mutating it
// beyond the usual top-up.
func (b *Bucket) SnapshotNow() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock.Now()
	b.topUp(now)

	return Snapshot{
		AvailableBurst: b.volume,
		Now:            now,
		Waiters:        len(b.queue),
		Capacity:       b.capacity,
		FlowRate:       b.flowRate,
		MaxWaiters:     b.maxWaiters,
		PartialTokens:  b.partialTokens,
	}
}
