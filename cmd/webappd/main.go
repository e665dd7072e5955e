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

// Command webappd wires a Root, its managers and a single plain-HTTP
// Endpoint together and runs until a termination signal arrives. It is
// a demonstration of the Root -> Managers -> Endpoint -> Wrangler
// assembly, not a production entry point: the echo application below
// stands in for whatever concrete application a real deployment would
// register.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/danfuzz/lactoserv-sub003/component"
	"github.com/danfuzz/lactoserv-sub003/endpoint"
	"github.com/danfuzz/lactoserv-sub003/logging"
	"github.com/danfuzz/lactoserv-sub003/webapp"
	"github.com/danfuzz/lactoserv-sub003/wrangler"
)

// echoApplication answers every request with its dispatch path, enough
// to prove the full tree is serving live HTTP traffic.
type echoApplication struct{}

func (echoApplication) HandleRequest(req *wrangler.IncomingRequest, dispatch *wrangler.DispatchInfo) (*wrangler.Response, error) {
	return &wrangler.Response{
		Status: http.StatusOK,
		Body:   []byte(fmt.Sprintf("webappd: %s %s\n", req.Method, dispatch.Path)),
	}, nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "webappd:", err)
		os.Exit(1)
	}
}

func run() error {
	log := logging.New()
	root := webapp.NewRoot(log)

	if err := root.Init(component.NewRootContext(context.Background(), log)); err != nil {
		return fmt.Errorf("init root: %w", err)
	}

	if err := root.Applications.AddAll(webapp.NewApplicationComponent("echo", echoApplication{})); err != nil {
		return fmt.Errorf("register application: %w", err)
	}

	ep := endpoint.New("web", endpoint.Config{
		Interface:   listenAddr(),
		Protocol:    "http",
		Application: "echo",
	}, root.Applications, root.Services, root.Hosts)

	if err := root.Endpoints.AddAll(ep); err != nil {
		return fmt.Errorf("register endpoint: %w", err)
	}

	if err := root.Start(); err != nil {
		return fmt.Errorf("start root: %w", err)
	}

	log.Info("webappd listening", map[string]interface{}{"addr": ep.Addr().String()})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info("webappd stopping", nil)
	return root.Stop(false)
}

func listenAddr() string {
	if a := os.Getenv("WEBAPPD_LISTEN"); a != "" {
		return a
	}
	return "127.0.0.1:8080"
}
