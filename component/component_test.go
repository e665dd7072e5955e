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

package component_test

import (
	"context"
	"testing"

	"github.com/danfuzz/lactoserv-sub003/component"
	"github.com/danfuzz/lactoserv-sub003/logging"
)

func rootContext() *component.ControlContext {
	return component.NewRootContext(context.Background(), logging.New())
}

func TestLifecycleHappyPath(t *testing.T) {
	c := component.NewBase("widget", "w1", nil, component.Hooks{})

	if err := c.Init(rootContext()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if c.State() != component.StateStopped {
		t.Fatalf("expected stopped after init, got %s", c.State())
	}

	if err := c.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if c.State() != component.StateRunning {
		t.Fatalf("expected running, got %s", c.State())
	}

	if err := c.Stop(false); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if c.State() != component.StateStopped {
		t.Fatalf("expected stopped, got %s", c.State())
	}

	select {
	case <-c.WhenStopped():
	default:
		t.Fatalf("expected WhenStopped resolved")
	}
}

func TestDoubleInitFails(t *testing.T) {
	c := component.NewBase("widget", "w1", nil, component.Hooks{})
	if err := c.Init(rootContext()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := c.Init(rootContext()); err == nil {
		t.Fatalf("expected second init to fail")
	}
}

func TestStartBeforeInitFails(t *testing.T) {
	c := component.NewBase("widget", "", nil, component.Hooks{})
	if err := c.Start(); err == nil {
		t.Fatalf("expected start before init to fail")
	}
}

func TestChildAttachedAfterInitStartsIfParentRunning(t *testing.T) {
	parent := component.NewBase("parent", "p", nil, component.Hooks{})
	if err := parent.Init(rootContext()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := parent.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	started := false
	child := component.NewBase("child", "c", nil, component.Hooks{
		Start: func() error { started = true; return nil },
	})

	if err := parent.AddChild(child); err != nil {
		t.Fatalf("add child: %v", err)
	}
	if !started {
		t.Fatalf("expected child to be started when parent already running")
	}
}

func TestChildCannotHaveTwoParents(t *testing.T) {
	parentA := component.NewBase("a", "a", nil, component.Hooks{})
	parentB := component.NewBase("b", "b", nil, component.Hooks{})
	child := component.NewBase("child", "c", nil, component.Hooks{})

	if err := parentA.AddChild(child); err != nil {
		t.Fatalf("attach to A: %v", err)
	}
	if err := parentB.AddChild(child); err == nil {
		t.Fatalf("expected second parent attachment to fail")
	}
}

func TestManagerGetRequiresInterface(t *testing.T) {
	mgr := component.NewManager("manager", "svc", "doer")
	if err := mgr.Init(rootContext()); err != nil {
		t.Fatalf("init: %v", err)
	}

	member := component.NewBase("thing", "thing1", []string{"doer"}, component.Hooks{})
	if err := mgr.AddAll(member); err != nil {
		t.Fatalf("addall: %v", err)
	}

	if _, err := mgr.Get("thing1", "doer"); err != nil {
		t.Fatalf("expected resolution by interface, got %v", err)
	}
	if _, err := mgr.Get("thing1", "other"); err == nil {
		t.Fatalf("expected failure for unimplemented interface")
	}
}
