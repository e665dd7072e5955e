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

package ratelimit

import (
	"fmt"
	"io"

	"github.com/danfuzz/lactoserv-sub003/logging"
)

// Service lets the wrangler invoke a rate limiter by method name rather
// than by direct reference, so limiter implementations are swappable
// without the wrangler importing their concrete type.
type Service interface {
	Call(method string, args ...interface{}) (interface{}, error)
}

// ConnectionRateLimiter grants or denies new connection admission,
// drawing one token per connection from an underlying Bucket.
type ConnectionRateLimiter struct {
	bucket   *Bucket
	waitable bool
}

// NewConnectionRateLimiter constructs a service admitting connections
// against bucket. If waitable is false, a connection that cannot be
// granted immediately is denied rather than queued.
func NewConnectionRateLimiter(bucket *Bucket, waitable bool) *ConnectionRateLimiter {
	return &ConnectionRateLimiter{bucket: bucket, waitable: waitable}
}

// NewConnection asks for exactly one token, honoring the configured
// wait policy.
func (c *ConnectionRateLimiter) NewConnection(log logging.Logger) bool {
	if !c.waitable {
		return c.bucket.TakeNow(Exactly(1)).Done
	}

	resultCh := c.bucket.RequestGrant(Exactly(1))
	g := <-resultCh
	if log != nil {
		log.Debug("connection admission", map[string]interface{}{"granted": g.Done})
	}
	return g.Done
}

func (c *ConnectionRateLimiter) Call(method string, args ...interface{}) (interface{}, error) {
	switch method {
	case "newConnection":
		var log logging.Logger
		if len(args) > 0 {
			log, _ = args[0].(logging.Logger)
		}
		return c.NewConnection(log), nil
	default:
		return nil, fmt.Errorf("ratelimit: connection limiter has no method %q", method)
	}
}

// DataRateLimiter throttles outbound bytes on a writer by drawing one
// token per byte from an underlying Bucket before each write proceeds.
type DataRateLimiter struct {
	bucket *Bucket
}

// NewDataRateLimiter constructs a service throttling writes against
// bucket, where the bucket's unit is bytes.
func NewDataRateLimiter(bucket *Bucket) *DataRateLimiter {
	return &DataRateLimiter{bucket: bucket}
}

// WrapWriter returns a writer that transparently proxies w, delaying
// outbound bytes using the bucket. A write blocks until the bucket
// grants its tokens; closing w does not unblock a pending write. A
// write fails early only when the bucket denies the grant.
func (d *DataRateLimiter) WrapWriter(w io.Writer, log logging.Logger) io.Writer {
	return &throttledWriter{inner: w, bucket: d.bucket, log: log}
}

func (d *DataRateLimiter) Call(method string, args ...interface{}) (interface{}, error) {
	switch method {
	case "wrapWriter":
		if len(args) == 0 {
			return nil, fmt.Errorf("ratelimit: wrapWriter requires a writer argument")
		}
		w, ok := args[0].(io.Writer)
		if !ok {
			return nil, fmt.Errorf("ratelimit: wrapWriter argument is not an io.Writer")
		}
		var log logging.Logger
		if len(args) > 1 {
			log, _ = args[1].(logging.Logger)
		}
		return d.WrapWriter(w, log), nil
	default:
		return nil, fmt.Errorf("ratelimit: data limiter has no method %q", method)
	}
}

type throttledWriter struct {
	inner  io.Writer
	bucket *Bucket
	log    logging.Logger
}

func (t *throttledWriter) Write(p []byte) (int, error) {
	written := 0

	for written < len(p) {
		chunk := len(p) - written
		if chunk > int(t.bucket.capacity) && t.bucket.capacity > 0 {
			chunk = int(t.bucket.capacity)
		}

		resultCh := t.bucket.RequestGrant(Exactly(float64(chunk)))
		g := <-resultCh
		if !g.Done {
			return written, fmt.Errorf("ratelimit: write throttle denied after %d bytes", written)
		}

		n, err := t.inner.Write(p[written : written+chunk])
		written += n
		if err != nil {
			return written, err
		}
	}

	return written, nil
}
