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
	"fmt"
	"net"
	"sync"
	"time"

	libval "github.com/go-playground/validator/v10"

	"github.com/danfuzz/lactoserv-sub003/duration"
	liberr "github.com/danfuzz/lactoserv-sub003/errors"
	"github.com/danfuzz/lactoserv-sub003/logging"
	"github.com/danfuzz/lactoserv-sub003/thread"
)

// Defaults for connection idle and close-grace timeouts.
var (
	DefaultIdleTimeout    = duration.Duration(3 * time.Minute)
	DefaultCloseGrace     = duration.Duration(250 * time.Millisecond)
	DefaultHalfCloseGrace = duration.Duration(10 * time.Millisecond)
)

// TCPConfig configures a TCPWrangler.
type TCPConfig struct {
	IdleTimeout    duration.Duration `validate:"gte=0"`
	CloseGrace     duration.Duration `validate:"gte=0"`
	HalfCloseGrace duration.Duration `validate:"gte=0"`

	ConnectionRateLimiter Service
	DataRateLimiter       Service
}

// Validate checks cfg's struct-tagged constraints, returning a
// parent-chained configuration error per field violation. Zero values
// are valid here (NewTCP fills in defaults), so Validate only rejects
// negative durations.
func (cfg TCPConfig) Validate() error {
	if err := libval.New().Struct(cfg); err != nil {
		out := liberr.ErrConfig.Error(nil)
		for _, fe := range err.(libval.ValidationErrors) {
			out.AddParent(fmt.Errorf("tcp config field %q fails constraint %q", fe.Namespace(), fe.Tag()))
		}
		return out
	}
	return nil
}

// ConnHandler is handed each admitted, wrapped connection; it is
// invoked on its own goroutine and must return once the connection is
// done.
type ConnHandler func(conn net.Conn, log logging.Logger)

// TCPWrangler accepts connections on a listener, applies admission
// control, idle-timeout and half-close bookkeeping, and hands each
// surviving connection to a ConnHandler, the protocol layer above it.
type TCPWrangler struct {
	ln  net.Listener
	cfg TCPConfig
	log logging.Logger

	handler ConnHandler

	tl *thread.Threadlet

	wg sync.WaitGroup
}

// NewTCP constructs a TCPWrangler bound to an already-listening ln.
func NewTCP(ln net.Listener, cfg TCPConfig, log logging.Logger, handler ConnHandler) *TCPWrangler {
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.CloseGrace == 0 {
		cfg.CloseGrace = DefaultCloseGrace
	}
	if cfg.HalfCloseGrace == 0 {
		cfg.HalfCloseGrace = DefaultHalfCloseGrace
	}

	w := &TCPWrangler{ln: ln, cfg: cfg, log: log, handler: handler}
	w.tl = thread.New(nil, w.run)
	return w
}

// Start begins accepting connections.
func (w *TCPWrangler) Start() *thread.Future {
	return w.tl.Start()
}

// Stop requests the accept loop to halt; it blocks (via the returned
// Future) until every open connection has closed.
func (w *TCPWrangler) Stop() *thread.Future {
	return w.tl.Stop()
}

// run is the accept loop. On a stop request it closes the listener and
// waits for every admitted connection's handler to return.
func (w *TCPWrangler) run(h thread.Handle) error {
	type acceptResult struct {
		conn net.Conn
		err  error
	}

	resultCh := make(chan acceptResult, 1)

	for {
		go func() {
			c, err := w.ln.Accept()
			resultCh <- acceptResult{conn: c, err: err}
		}()

		select {
		case <-h.WhenStopRequested():
			w.ln.Close()
			w.wg.Wait()
			return nil
		case r := <-resultCh:
			if r.err != nil {
				return r.err
			}
			if h.ShouldStop() {
				r.conn.Close()
				continue
			}
			w.wg.Add(1)
			go w.admit(r.conn, h)
		}
	}
}

func (w *TCPWrangler) admit(conn net.Conn, h thread.Handle) {
	defer w.wg.Done()

	log := w.log.NewID("conn")

	if w.cfg.ConnectionRateLimiter != nil {
		v, err := w.cfg.ConnectionRateLimiter.Call("newConnection", log)
		if err != nil || !truthy(v) {
			log.Debug("connection denied by rate limiter", nil)
			conn.Close()
			return
		}
	}

	var writer net.Conn = conn
	var wrapped interface{} = conn
	if w.cfg.DataRateLimiter != nil {
		v, err := w.cfg.DataRateLimiter.Call("wrapWriter", conn, log)
		if err == nil {
			wrapped = v
		}
	}

	tc := newTrackedConn(conn, asWriter(wrapped, writer), w.cfg.IdleTimeout.Time(), w.cfg.CloseGrace.Time(), w.cfg.HalfCloseGrace.Time(), log, nil)

	w.handler(tc, log)
}

func truthy(v interface{}) bool {
	b, ok := v.(bool)
	return ok && b
}

func asWriter(v interface{}, fallback net.Conn) interface {
	Write([]byte) (int, error)
} {
	if w, ok := v.(interface {
		Write([]byte) (int, error)
	}); ok {
		return w
	}
	return fallback
}
