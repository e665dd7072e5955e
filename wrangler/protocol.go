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
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/http2"

	"github.com/danfuzz/lactoserv-sub003/event"
	"github.com/danfuzz/lactoserv-sub003/logging"
)

// ErrRequestTooLarge names the condition of a request body exceeding
// ProtocolConfig.MaxRequestBodySize. The protocol layer answers such a
// request with a 413 response itself and does not return this error.
var ErrRequestTooLarge = errors.New("wrangler: request body exceeds configured maximum")

// ProtocolConfig configures a ProtocolWrangler.
type ProtocolConfig struct {
	// Name is the configured protocol name (an Endpoint passes "http",
	// "https" or "http2"). It is not consulted while serving:
	// IncomingRequest.ProtocolName comes from each request's wire
	// version. HTTP/2 is auto-negotiated via ALPN when TLSConfig is
	// non-nil and EnableHTTP2 is true.
	Name string

	TLSConfig   *tls.Config
	EnableHTTP2 bool

	MaxRequestBodySize int64

	Application Application

	// AccessLog, if set, is invoked once per completed request via
	// Call("logAccess", entry) where entry is an *AccessEntry. The call
	// happens off an event.Sink walking the request's access-log chain,
	// never on the goroutine serving the response.
	AccessLog Service
}

// AccessEntry is what gets passed to ProtocolConfig.AccessLog.
type AccessEntry struct {
	Method     string
	Path       string
	Status     int
	BytesOut   int64
	Duration   time.Duration
	OriginAddr string
	RequestID  string
}

// ProtocolWrangler drives one http.Server per accepted connection,
// bridging net/http (and, optionally, golang.org/x/net/http2) framing
// to Application.HandleRequest. The underlying library owns byte-level
// HTTP framing; this type imposes the semantic constraints around it
// (header normalization, request-target parsing, body-size limits,
// not-handled/error translation, access logging).
//
// Each completed request appends an *AccessEntry to an event chain
// rather than calling AccessLog.Call inline, so a slow log sink never
// adds latency to the response path; a dedicated event.Sink walks the
// chain and performs the actual Call.
type ProtocolWrangler struct {
	cfg ProtocolConfig

	accessEvents *event.Source[*AccessEntry]
	accessSink   *event.Sink[*AccessEntry]
}

// NewProtocol constructs a ProtocolWrangler from cfg.
func NewProtocol(cfg ProtocolConfig) *ProtocolWrangler {
	p := &ProtocolWrangler{cfg: cfg}

	if cfg.AccessLog != nil {
		p.accessEvents = event.NewSource[*AccessEntry](nil, 0)
		head, _ := p.accessEvents.EarliestEventNow()
		p.accessSink = event.NewSink[*AccessEntry](head, p.processAccessEntry)
		p.accessSink.Start()
	}

	return p
}

// Stop drains any access-log entries already emitted and halts the
// background sink. It is a no-op if no AccessLog was configured.
func (p *ProtocolWrangler) Stop() {
	if p.accessSink != nil {
		p.accessSink.DrainAndStop().Err()
	}
}

func (p *ProtocolWrangler) processAccessEntry(ev event.Event[*AccessEntry]) error {
	entry := ev.Payload()
	if entry == nil {
		return nil
	}
	_, _ = p.cfg.AccessLog.Call("logAccess", entry)
	return nil
}

// Serve runs the protocol layer over conn until the connection ends.
// It blocks until the single request/response (for a freshly dialed
// raw conn, http.Server.Serve keeps it alive for as many requests as
// the peer sends) has finished.
func (p *ProtocolWrangler) Serve(conn net.Conn, log logging.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		p.handle(w, r, log)
	})

	srv := &http.Server{
		Handler:     mux,
		ConnContext: nil,
	}

	if p.cfg.TLSConfig != nil {
		srv.TLSConfig = p.cfg.TLSConfig
	}
	if p.cfg.EnableHTTP2 && p.cfg.TLSConfig != nil {
		_ = http2.ConfigureServer(srv, &http2.Server{})
	}

	// http.Server.Serve only drives its own TLS handshake (and ALPN-based
	// HTTP/2 upgrade) when handed a *tls.Conn directly, so the handshake
	// must happen at this layer rather than inside the TCP wrangler.
	servedConn := conn
	if p.cfg.TLSConfig != nil {
		servedConn = tls.Server(conn, p.cfg.TLSConfig)
	}

	ln := newSingleConnListener(nil)
	ln.conn = &closeNotifyConn{Conn: servedConn, notify: ln.Close}
	defer ln.Close()

	if err := srv.Serve(ln); err != nil && err != io.EOF {
		log.Debug("protocol server ended", map[string]interface{}{"error": err.Error()})
	}
}

// closeNotifyConn calls notify exactly once when the connection is
// closed, so singleConnListener can unblock its second Accept call
// once http.Server tears the one connection down — it never calls
// Accept a third time, but without this the listener would only stop
// blocking once Serve itself returns, which never happens on its own.
type closeNotifyConn struct {
	net.Conn
	once   sync.Once
	notify func() error
}

func (c *closeNotifyConn) Close() error {
	err := c.Conn.Close()
	c.once.Do(func() {
		if c.notify != nil {
			c.notify()
		}
	})
	return err
}

func (p *ProtocolWrangler) handle(w http.ResponseWriter, r *http.Request, log logging.Logger) {
	start := time.Now()
	reqLog := log.NewID("req")

	var body []byte
	if r.Body != nil {
		limit := p.cfg.MaxRequestBodySize
		if limit <= 0 {
			limit = 10 << 20
		}
		reader := io.LimitReader(r.Body, limit+1)
		b, err := io.ReadAll(reader)
		if err != nil {
			p.writeError(w, http.StatusInternalServerError)
			return
		}
		if int64(len(b)) > limit {
			p.writeError(w, http.StatusRequestEntityTooLarge)
			return
		}
		body = b
	}

	protocolName := "http-1.1"
	if r.ProtoMajor == 2 {
		protocolName = "http-2.0"
	}

	req := fromHTTPRequest(r, protocolName, reqLog.LastContext(), body)

	var resp *Response
	var err error
	if p.cfg.Application != nil {
		resp, err = p.cfg.Application.HandleRequest(req, &DispatchInfo{Path: req.Path})
	}

	status := http.StatusNotFound
	bytesOut := int64(0)

	switch {
	case err != nil:
		reqLog.Error("application handler failed", map[string]interface{}{"error": err.Error()})
		status = http.StatusInternalServerError
		p.writeError(w, status)
	case resp == nil:
		p.writeError(w, status)
	default:
		status = resp.Status
		if status == 0 {
			status = http.StatusOK
		}
		for k, vs := range resp.Header {
			for _, v := range vs {
				w.Header().Add(k, v)
			}
		}
		w.WriteHeader(status)
		n, _ := w.Write(resp.Body)
		bytesOut = int64(n)
	}

	if p.accessEvents != nil {
		entry := &AccessEntry{
			Method:     req.Method,
			Path:       req.Path,
			Status:     status,
			BytesOut:   bytesOut,
			Duration:   time.Since(start),
			OriginAddr: req.OriginAddr,
			RequestID:  req.RequestID,
		}
		_, _ = p.accessEvents.Emit(entry)
	}
}

func (p *ProtocolWrangler) writeError(w http.ResponseWriter, status int) {
	w.WriteHeader(status)
	_, _ = w.Write([]byte(http.StatusText(status)))
}
