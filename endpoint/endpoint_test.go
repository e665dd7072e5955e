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

package endpoint_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/danfuzz/lactoserv-sub003/component"
	"github.com/danfuzz/lactoserv-sub003/duration"
	"github.com/danfuzz/lactoserv-sub003/endpoint"
	"github.com/danfuzz/lactoserv-sub003/hostmgr"
	"github.com/danfuzz/lactoserv-sub003/logging"
	"github.com/danfuzz/lactoserv-sub003/wrangler"
)

type greeter struct{}

func (greeter) HandleRequest(req *wrangler.IncomingRequest, dispatch *wrangler.DispatchInfo) (*wrangler.Response, error) {
	return &wrangler.Response{Status: http.StatusOK, Body: []byte("hi " + dispatch.Path)}, nil
}

type appComponent struct {
	*component.BaseComponent
	app wrangler.Application
}

func newAppComponent(name string, app wrangler.Application) *appComponent {
	c := &appComponent{app: app}
	c.BaseComponent = component.NewBase("application", name, []string{"application"}, component.Hooks{})
	return c
}

func (c *appComponent) HandleRequest(req *wrangler.IncomingRequest, dispatch *wrangler.DispatchInfo) (*wrangler.Response, error) {
	return c.app.HandleRequest(req, dispatch)
}

func TestEndpointServesPlainHTTP(t *testing.T) {
	log := logging.New()
	rootCtx := component.NewRootContext(context.Background(), log)

	applications := component.NewManager("applicationManager", "applications", "application")
	services := component.NewManager("serviceManager", "services", "")
	hosts := hostmgr.NewComponent("hosts")

	if err := applications.Init(rootCtx); err != nil {
		t.Fatalf("init applications: %v", err)
	}
	if err := services.Init(rootCtx); err != nil {
		t.Fatalf("init services: %v", err)
	}
	if err := hosts.Init(rootCtx); err != nil {
		t.Fatalf("init hosts: %v", err)
	}

	if err := applications.AddAll(newAppComponent("greeter", greeter{})); err != nil {
		t.Fatalf("register app: %v", err)
	}
	if err := applications.Start(); err != nil {
		t.Fatalf("start applications: %v", err)
	}

	ep := endpoint.New("web", endpoint.Config{
		Interface:   "127.0.0.1:0",
		Protocol:    "http",
		Application: "greeter",
		IdleTimeout: duration.Duration(time.Minute),
	}, applications, services, hosts)

	if err := ep.Init(rootCtx); err != nil {
		t.Fatalf("init endpoint: %v", err)
	}

	if err := ep.Start(); err != nil {
		t.Fatalf("start endpoint: %v", err)
	}

	resp, err := http.Get("http://" + ep.Addr().String() + "/greet")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if string(body) != "hi /greet" {
		t.Fatalf("unexpected body %q", body)
	}

	if err := ep.Stop(false); err != nil {
		t.Fatalf("stop endpoint: %v", err)
	}
}

func TestEndpointRejectsUnknownApplication(t *testing.T) {
	log := logging.New()
	rootCtx := component.NewRootContext(context.Background(), log)

	applications := component.NewManager("applicationManager", "applications", "application")
	services := component.NewManager("serviceManager", "services", "")
	hosts := hostmgr.NewComponent("hosts")

	applications.Init(rootCtx)
	services.Init(rootCtx)
	hosts.Init(rootCtx)
	applications.Start()

	ep := endpoint.New("web", endpoint.Config{
		Interface:   "127.0.0.1:0",
		Protocol:    "http",
		Application: "missing",
	}, applications, services, hosts)

	if err := ep.Init(rootCtx); err != nil {
		t.Fatalf("init endpoint: %v", err)
	}

	if err := ep.Start(); err == nil {
		t.Fatalf("expected start to fail for an unresolvable application")
	}
}
