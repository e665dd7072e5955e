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

// Package webapp assembles the top-level component: the fixed
// four-manager tree (services, applications, hosts, endpoints) and the
// ordered startup/shutdown sequence across them.
package webapp

import (
	"github.com/danfuzz/lactoserv-sub003/component"
	"github.com/danfuzz/lactoserv-sub003/wrangler"
)

// ApplicationComponent adapts a plain wrangler.Application into a
// named, lifecycle-bearing member of the application manager.
type ApplicationComponent struct {
	*component.BaseComponent
	App wrangler.Application
}

// NewApplicationComponent wraps app under name for registration with
// an application manager.
func NewApplicationComponent(name string, app wrangler.Application) *ApplicationComponent {
	c := &ApplicationComponent{App: app}
	c.BaseComponent = component.NewBase("application", name, []string{"application"}, component.Hooks{})
	return c
}

// HandleRequest forwards to the wrapped Application.
func (c *ApplicationComponent) HandleRequest(req *wrangler.IncomingRequest, dispatch *wrangler.DispatchInfo) (*wrangler.Response, error) {
	return c.App.HandleRequest(req, dispatch)
}

// rpcService is the minimal shape ratelimit.Service and
// wrangler.Service both already satisfy structurally.
type rpcService interface {
	Call(method string, args ...interface{}) (interface{}, error)
}

// ServiceComponent adapts a plain RPC-by-name service (an access log,
// a connection rate limiter, a data rate limiter) into a named,
// lifecycle-bearing member of the service manager.
type ServiceComponent struct {
	*component.BaseComponent
	Svc rpcService
}

// NewServiceComponent wraps svc under name, declaring iface (e.g.
// "accessLog", "connectionRateLimiter", "dataRateLimiter") as its
// capability tag.
func NewServiceComponent(name, iface string, svc rpcService) *ServiceComponent {
	c := &ServiceComponent{Svc: svc}
	c.BaseComponent = component.NewBase("service", name, []string{iface}, component.Hooks{})
	return c
}

// Call forwards to the wrapped service.
func (c *ServiceComponent) Call(method string, args ...interface{}) (interface{}, error) {
	return c.Svc.Call(method, args...)
}
