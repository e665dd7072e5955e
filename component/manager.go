/*
 * MIT License
 *
 * Copyright (c) 2019 Nicolas JUHEL
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

package component

import (
	"fmt"
	"sync"

	"github.com/danfuzz/lactoserv-sub003/atomic"
)

// Manager is a component whose children are all expected to implement
// a declared interface tag: a name-keyed registry with a typed
// lookup-by-name-and-capability.
type Manager struct {
	*BaseComponent

	requiredTag string
	byName      *atomic.Map[string, Component]
}

// NewManager constructs a Manager. requiredTag, if non-empty, is
// checked by Get. Its Start/Stop hooks propagate to every registered
// member: Start in insertion order, Stop concurrently since no
// ordering among siblings is required.
func NewManager(kind, name, requiredTag string) *Manager {
	m := &Manager{requiredTag: requiredTag, byName: atomic.NewMap[string, Component]()}
	m.BaseComponent = NewBase(kind, name, []string{"manager"}, Hooks{
		Start: m.startChildren,
		Stop:  m.stopChildren,
	})
	return m
}

func (m *Manager) startChildren() error {
	for _, c := range m.Children() {
		if err := c.Start(); err != nil {
			return fmt.Errorf("component: starting member %q of %q: %w", c.Name(), m.Name(), err)
		}
	}
	return nil
}

func (m *Manager) stopChildren(willReload bool) error {
	children := m.Children()

	var wg sync.WaitGroup
	errs := make([]error, len(children))

	for i, c := range children {
		wg.Add(1)
		go func(i int, c Component) {
			defer wg.Done()
			errs[i] = c.Stop(willReload)
		}(i, c)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// AddAll registers every child under its Name, then attaches it via
// BaseComponent.AddChild (propagating init/start in insertion order).
func (m *Manager) AddAll(children ...Component) error {
	for _, c := range children {
		m.byName.Store(nameOrSynth(c), c)

		if err := m.BaseComponent.AddChild(c); err != nil {
			return err
		}
	}
	return nil
}

// Get resolves a child by name, optionally requiring it to implement
// requiredInterface.
func (m *Manager) Get(name string, requiredInterface string) (Component, error) {
	c, ok := m.byName.Load(name)
	if !ok {
		return nil, fmt.Errorf("component: manager %q has no member %q", m.Name(), name)
	}
	if m.requiredTag != "" && !c.Implements(m.requiredTag) {
		return nil, fmt.Errorf("component: %q does not implement %q", name, m.requiredTag)
	}
	if requiredInterface != "" && !c.Implements(requiredInterface) {
		return nil, fmt.Errorf("component: %q does not implement %q", name, requiredInterface)
	}
	return c, nil
}

// Names returns every registered member name.
func (m *Manager) Names() []string {
	var out []string
	m.byName.Range(func(n string, _ Component) bool {
		out = append(out, n)
		return true
	})
	return out
}
