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

package webapp

import (
	"fmt"
	"time"

	"github.com/danfuzz/lactoserv-sub003/component"
	"github.com/danfuzz/lactoserv-sub003/hostmgr"
	"github.com/danfuzz/lactoserv-sub003/logging"
)

// Default grace windows for endpoint and application shutdown before
// the root simply waits out whatever remains.
const (
	DefaultEndpointStopGrace    = 250 * time.Millisecond
	DefaultApplicationStopGrace = 250 * time.Millisecond
)

// Root is the top-level component: four managers attached in the
// fixed order serviceManager, applicationManager, hostManager,
// endpointManager (this is the attachment/dependency order, not the
// start order).
type Root struct {
	*component.BaseComponent

	Services     *component.Manager
	Applications *component.Manager
	Hosts        *hostmgr.Component
	Endpoints    *component.Manager

	EndpointStopGrace    time.Duration
	ApplicationStopGrace time.Duration

	log logging.Logger
}

// NewRoot constructs the root component and its four managers, and
// attaches them in dependency order. Call Init then Start to bring the
// whole tree up.
func NewRoot(log logging.Logger) *Root {
	r := &Root{
		Services:             component.NewManager("serviceManager", "serviceManager", ""),
		Applications:         component.NewManager("applicationManager", "applicationManager", "application"),
		Hosts:                hostmgr.NewComponent("hostManager"),
		Endpoints:            component.NewManager("endpointManager", "endpointManager", "endpoint"),
		EndpointStopGrace:    DefaultEndpointStopGrace,
		ApplicationStopGrace: DefaultApplicationStopGrace,
		log:                  log,
	}

	r.BaseComponent = component.NewBase("webappRoot", "root", nil, component.Hooks{
		Start: r.onStart,
		Stop:  r.onStop,
	})

	// Attached while nascent: BaseComponent.Init will init each of
	// these in this order, but none of them is started by that call.
	_ = r.BaseComponent.AddChild(r.Services)
	_ = r.BaseComponent.AddChild(r.Applications)
	_ = r.BaseComponent.AddChild(r.Hosts)
	_ = r.BaseComponent.AddChild(r.Endpoints)

	return r
}

// onStart brings the four managers up in dependency order: hosts have
// no upstream dependency, services and applications may reference
// hosts' certificates, and endpoints depend on all three.
func (r *Root) onStart() error {
	order := []component.Component{r.Hosts, r.Services, r.Applications, r.Endpoints}
	for _, c := range order {
		if err := c.Start(); err != nil {
			return fmt.Errorf("webapp: starting %q: %w", c.Name(), err)
		}
	}
	return nil
}

// onStop requests endpoint shutdown, then application shutdown, each
// racing a grace window, then waits unconditionally for both of those
// managers to finish stopping before finally stopping services and
// hosts.
func (r *Root) onStop(willReload bool) error {
	raceStop(r.Endpoints, willReload, r.EndpointStopGrace)
	raceStop(r.Applications, willReload, r.ApplicationStopGrace)

	<-r.Endpoints.WhenStopped()
	<-r.Applications.WhenStopped()

	if err := r.Services.Stop(willReload); err != nil {
		return err
	}
	if err := r.Hosts.Stop(willReload); err != nil {
		return err
	}
	return nil
}

// raceStop requests c to stop and waits up to grace for it to finish;
// if the window elapses the stop is left running in the background and
// observed later via WhenStopped.
func raceStop(c component.Component, willReload bool, grace time.Duration) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Stop(willReload)
	}()

	select {
	case <-done:
	case <-time.After(grace):
	}
}
