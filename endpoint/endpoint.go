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

// Package endpoint implements the Network Endpoint: binding one
// interface/protocol/hostname-set tuple to one named application and
// resolving its collaborating services by name against the root's
// managers.
package endpoint

import (
	"fmt"
	"net"

	libval "github.com/go-playground/validator/v10"

	"github.com/danfuzz/lactoserv-sub003/bytesize"
	"github.com/danfuzz/lactoserv-sub003/component"
	"github.com/danfuzz/lactoserv-sub003/duration"
	liberr "github.com/danfuzz/lactoserv-sub003/errors"
	"github.com/danfuzz/lactoserv-sub003/hostmgr"
	"github.com/danfuzz/lactoserv-sub003/logging"
	"github.com/danfuzz/lactoserv-sub003/wrangler"
)

// Config is an endpoint's validated configuration record.
type Config struct {
	// Interface is the listen address, e.g. "0.0.0.0:8443".
	Interface string `validate:"required,hostname_port"`

	// Protocol is "http", "https" or "http2".
	Protocol string `validate:"required,oneof=http https http2"`

	// Hostnames is consulted against the root HostManager unless
	// Protocol is "http". Ignored for plain http.
	Hostnames []string `validate:"dive,hostname_rfc1123"`

	Application string `validate:"required"`

	AccessLog             string
	ConnectionRateLimiter string
	DataRateLimiter       string

	IdleTimeout duration.Duration

	// MaxRequestBodySize accepts both a bare byte count and a suffixed
	// form ("8K", "4MiB") wherever it is parsed from a string; as a Go
	// value it is this module's own size type rather than a raw int64.
	MaxRequestBodySize bytesize.Size
}

// Validate checks cfg against its struct-tagged constraints, returning
// a parent-chained configuration error per field violation.
func (cfg Config) Validate() error {
	if err := libval.New().Struct(cfg); err != nil {
		out := liberr.ErrConfig.Error(nil)
		for _, fe := range err.(libval.ValidationErrors) {
			out.AddParent(fmt.Errorf("endpoint config field %q fails constraint %q", fe.Namespace(), fe.Tag()))
		}
		return out
	}
	if cfg.Protocol != "http" && len(cfg.Hostnames) == 0 {
		return liberr.ErrConfig.ErrorWithMessage(fmt.Sprintf("endpoint: protocol %q requires at least one hostname", cfg.Protocol), nil)
	}
	return nil
}

// Endpoint binds Config.Interface/Protocol/Hostnames to Config.Application,
// resolving it and its services lazily at start time against the root's
// managers.
type Endpoint struct {
	*component.BaseComponent

	cfg Config

	applications *component.Manager
	services     *component.Manager
	hosts        *hostmgr.Component

	app wrangler.Application

	ln    net.Listener
	tcp   *wrangler.TCPWrangler
	proto *wrangler.ProtocolWrangler
}

// New constructs an Endpoint under name, wired to the root managers it
// will resolve its collaborators against at start time.
func New(name string, cfg Config, applications, services *component.Manager, hosts *hostmgr.Component) *Endpoint {
	e := &Endpoint{cfg: cfg, applications: applications, services: services, hosts: hosts}
	e.BaseComponent = component.NewBase("endpoint", name, []string{"endpoint"}, component.Hooks{
		Start: e.onStart,
		Stop:  e.onStop,
	})
	return e
}

func (e *Endpoint) onStart() error {
	if err := e.cfg.Validate(); err != nil {
		return fmt.Errorf("endpoint %q: %w", e.Name(), err)
	}

	appComp, err := e.applications.Get(e.cfg.Application, "application")
	if err != nil {
		return fmt.Errorf("endpoint %q: %w", e.Name(), err)
	}
	app, ok := appComp.(wrangler.Application)
	if !ok {
		return fmt.Errorf("endpoint %q: %q does not implement the application handler shape", e.Name(), e.cfg.Application)
	}
	e.app = app

	var accessLog, connLimiter, dataLimiter wrangler.Service
	if e.cfg.AccessLog != "" {
		accessLog, err = e.resolveService(e.cfg.AccessLog, "accessLog")
		if err != nil {
			return err
		}
	}
	if e.cfg.ConnectionRateLimiter != "" {
		connLimiter, err = e.resolveService(e.cfg.ConnectionRateLimiter, "connectionRateLimiter")
		if err != nil {
			return err
		}
	}
	if e.cfg.DataRateLimiter != "" {
		dataLimiter, err = e.resolveService(e.cfg.DataRateLimiter, "dataRateLimiter")
		if err != nil {
			return err
		}
	}

	var tlsCfg *hostmgr.HostManager
	if e.cfg.Protocol != "http" {
		subset, err := e.hosts.MakeSubset(e.cfg.Hostnames)
		if err != nil {
			return fmt.Errorf("endpoint %q: %w", e.Name(), err)
		}
		tlsCfg = subset
	}

	ln, err := net.Listen("tcp", e.cfg.Interface)
	if err != nil {
		return fmt.Errorf("endpoint %q: listen %s: %w", e.Name(), e.cfg.Interface, err)
	}
	e.ln = ln

	protoCfg := wrangler.ProtocolConfig{
		Name:               e.cfg.Protocol,
		MaxRequestBodySize: e.cfg.MaxRequestBodySize.Int64(),
		Application:        e,
		AccessLog:          accessLog,
	}
	if tlsCfg != nil {
		protoCfg.TLSConfig = tlsCfg.GetSecureServerOptions()
		protoCfg.EnableHTTP2 = e.cfg.Protocol == "http2"
	}
	proto := wrangler.NewProtocol(protoCfg)
	e.proto = proto

	log := e.Logger()
	e.tcp = wrangler.NewTCP(ln, wrangler.TCPConfig{
		IdleTimeout:           e.cfg.IdleTimeout,
		ConnectionRateLimiter: connLimiter,
		DataRateLimiter:       dataLimiter,
	}, log, func(conn net.Conn, connLog logging.Logger) {
		proto.Serve(conn, connLog)
	})

	e.tcp.Start()
	return nil
}

func (e *Endpoint) resolveService(name, iface string) (wrangler.Service, error) {
	c, err := e.services.Get(name, iface)
	if err != nil {
		return nil, fmt.Errorf("endpoint %q: %w", e.Name(), err)
	}
	svc, ok := c.(wrangler.Service)
	if !ok {
		return nil, fmt.Errorf("endpoint %q: service %q does not implement Call", e.Name(), name)
	}
	return svc, nil
}

func (e *Endpoint) onStop(willReload bool) error {
	if e.tcp != nil {
		e.tcp.Stop().Err()
	}
	if e.ln != nil {
		e.ln.Close()
	}
	if e.proto != nil {
		e.proto.Stop()
	}
	return nil
}

// Addr returns the bound listen address, valid once Start has
// succeeded. It is nil beforehand.
func (e *Endpoint) Addr() net.Addr {
	if e.ln == nil {
		return nil
	}
	return e.ln.Addr()
}

// HandleRequest is the endpoint's own role as the wrangler's request
// handler: always dispatched at the root path, it builds a fresh
// DispatchInfo and forwards to the resolved application.
func (e *Endpoint) HandleRequest(req *wrangler.IncomingRequest, _ *wrangler.DispatchInfo) (*wrangler.Response, error) {
	dispatch := &wrangler.DispatchInfo{Path: req.Path}
	return e.app.HandleRequest(req, dispatch)
}
