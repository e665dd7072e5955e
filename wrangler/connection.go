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

package wrangler

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/danfuzz/lactoserv-sub003/logging"
)

// singleConnListener adapts one already-accepted net.Conn into the
// net.Listener shape net/http.Server.Serve expects, so each connection
// can run its own *http.Server instance under the wrangler's own
// accept loop and admission control.
type singleConnListener struct {
	conn     net.Conn
	once     sync.Once
	consumed chan struct{}
	closed   chan struct{}
}

func newSingleConnListener(c net.Conn) *singleConnListener {
	return &singleConnListener{conn: c, consumed: make(chan struct{}), closed: make(chan struct{})}
}

func (l *singleConnListener) Accept() (net.Conn, error) {
	select {
	case <-l.consumed:
		<-l.closed
		return nil, io.EOF
	default:
		close(l.consumed)
		return l.conn, nil
	}
}

func (l *singleConnListener) Close() error {
	l.once.Do(func() { close(l.closed) })
	return nil
}

func (l *singleConnListener) Addr() net.Addr { return l.conn.LocalAddr() }

// trackedConn wraps an accepted connection with an idle timer, a
// throttled write path (when a DataRateLimiter is configured), and
// half-close detection, releasing onClose exactly once when the
// connection is fully torn down.
type trackedConn struct {
	net.Conn
	writer io.Writer

	log logging.Logger

	idleTimeout time.Duration
	closeGrace  time.Duration
	halfGrace   time.Duration

	mu        sync.Mutex
	timer     *time.Timer
	halfSeen  bool
	closeOnce sync.Once
	onClose   func()
}

func newTrackedConn(raw net.Conn, writer io.Writer, idleTimeout, closeGrace, halfGrace time.Duration, log logging.Logger, onClose func()) *trackedConn {
	tc := &trackedConn{
		Conn:        raw,
		writer:      writer,
		log:         log,
		idleTimeout: idleTimeout,
		closeGrace:  closeGrace,
		halfGrace:   halfGrace,
		onClose:     onClose,
	}
	tc.armIdleTimer()
	return tc
}

func (c *trackedConn) armIdleTimer() {
	if c.idleTimeout <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.idleTimeout, c.onIdleTimeout)
}

func (c *trackedConn) onIdleTimeout() {
	if c.log != nil {
		c.log.Warning("connection idle timeout, destroying soon", nil)
	}
	c.Conn.SetDeadline(time.Now())

	go func() {
		time.Sleep(c.closeGrace)
		c.mu.Lock()
		alreadyClosed := c.timer == nil
		c.mu.Unlock()
		if alreadyClosed {
			return
		}
		c.Close()

		time.Sleep(c.closeGrace)
		if c.log != nil {
			c.log.Warning("giving up waiting for idle connection to close", nil)
		}
	}()
}

func (c *trackedConn) Read(p []byte) (int, error) {
	n, err := c.Conn.Read(p)
	if n > 0 {
		c.armIdleTimer()
	}
	if err == io.EOF {
		c.onHalfClose()
	}
	return n, err
}

func (c *trackedConn) Write(p []byte) (int, error) {
	n, err := c.writer.Write(p)
	if n > 0 {
		c.armIdleTimer()
	}
	return n, err
}

func (c *trackedConn) onHalfClose() {
	c.mu.Lock()
	if c.halfSeen {
		c.mu.Unlock()
		return
	}
	c.halfSeen = true
	c.mu.Unlock()

	if c.log != nil {
		c.log.Debug("peer half-closed connection", nil)
	}

	go func() {
		time.Sleep(c.halfGrace)
		c.Close()
	}()
}

func (c *trackedConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		if c.timer != nil {
			c.timer.Stop()
			c.timer = nil
		}
		c.mu.Unlock()

		err = c.Conn.Close()
		if c.onClose != nil {
			c.onClose()
		}
	})
	return err
}
