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
	"regexp"
	"sync"
	"sync/atomic"

	"github.com/danfuzz/lactoserv-sub003/logging"
)

var nameGrammar = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

var anonCounter int64

func synthesizeName(kind string) string {
	n := atomic.AddInt64(&anonCounter, 1)
	return fmt.Sprintf("%s-%d", kind, n)
}

// ValidateName checks a configured component name against the naming
// grammar (identifier-like).
func ValidateName(name string) error {
	if !nameGrammar.MatchString(name) {
		return fmt.Errorf("component: invalid name %q", name)
	}
	return nil
}

// Hooks are the subclass-provided lifecycle callbacks a component
// registers at construction, standing in for the virtual-method
// overrides of a class-based component: registration by function value
// rather than embedding.
type Hooks struct {
	Init func(ctx *ControlContext) error
	Start func() error
	Stop  func(willReload bool) error
}

// Component is anything the tree can hold: a lifecycle participant with
// a name, a state, and a declared set of implemented interface tags.
type Component interface {
	Name() string
	State() State
	Logger() logging.Logger

	Init(ctx *ControlContext) error
	Start() error
	Stop(willReload bool) error
	WhenStopped() <-chan struct{}

	Implements(tag string) bool

	setParent(p Component) error
	addChildLate(c Component) error
}

// BaseComponent implements the common lifecycle state machine; embed
// it and supply Hooks to specialize behavior.
type BaseComponent struct {
	mu sync.Mutex

	name       string
	kind       string
	interfaces map[string]bool

	hooks Hooks

	state State
	ctx   *ControlContext

	parent   Component
	children []Component

	nascentChildren []Component

	stoppedCh chan struct{}
}

// NewBase constructs a nascent component. name may be empty, in which
// case a name is synthesized from kind on attachment.
func NewBase(kind, name string, ifaces []string, hooks Hooks) *BaseComponent {
	set := make(map[string]bool, len(ifaces))
	for _, i := range ifaces {
		set[i] = true
	}

	return &BaseComponent{
		kind:       kind,
		name:       name,
		interfaces: set,
		hooks:      hooks,
		state:      StateNascent,
		stoppedCh:  make(chan struct{}),
	}
}

func (b *BaseComponent) Name() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.name
}

func (b *BaseComponent) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *BaseComponent) Logger() logging.Logger {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx == nil {
		return nil
	}
	return b.ctx.Logger
}

func (b *BaseComponent) Implements(tag string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.interfaces[tag]
}

// AddChild attaches child. Before Init, it accumulates on the nascent
// set; after Init, it is immediately initialized and, if this component
// is running, started too.
func (b *BaseComponent) AddChild(child Component) error {
	b.mu.Lock()

	if err := child.setParent(b); err != nil {
		b.mu.Unlock()
		return err
	}

	if b.state == StateNascent {
		b.nascentChildren = append(b.nascentChildren, child)
		b.mu.Unlock()
		return nil
	}

	running := b.state == StateRunning
	childCtx := b.ctx.forChild(nameOrSynth(child))
	b.children = append(b.children, child)
	b.mu.Unlock()

	if err := child.Init(childCtx); err != nil {
		return err
	}
	if running {
		return child.Start()
	}
	return nil
}

// AddAll attaches every child in order, stopping at the first error.
func (b *BaseComponent) AddAll(children ...Component) error {
	for _, c := range children {
		if err := b.AddChild(c); err != nil {
			return err
		}
	}
	return nil
}

func (b *BaseComponent) setParent(p Component) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.parent != nil {
		return fmt.Errorf("component %q already has a parent", b.name)
	}
	b.parent = p
	return nil
}

func (b *BaseComponent) addChildLate(c Component) error {
	return b.AddChild(c)
}

func nameOrSynth(c Component) string {
	if n := c.Name(); n != "" {
		return n
	}
	return synthesizeName("component")
}

// Init transitions nascent → initializing → stopped, attaching any
// children queued before Init was called. A second call fails.
func (b *BaseComponent) Init(ctx *ControlContext) error {
	b.mu.Lock()
	if b.state != StateNascent {
		b.mu.Unlock()
		return &ErrInvalidTransition{From: b.state, Op: "init"}
	}
	if b.name == "" {
		b.name = synthesizeName(b.kind)
	}
	b.state = StateInitializing
	b.ctx = ctx
	pending := b.nascentChildren
	b.nascentChildren = nil
	b.mu.Unlock()

	if b.hooks.Init != nil {
		if err := b.hooks.Init(ctx); err != nil {
			return err
		}
	}

	for _, child := range pending {
		childCtx := ctx.forChild(nameOrSynth(child))
		if err := child.Init(childCtx); err != nil {
			return err
		}
		b.mu.Lock()
		b.children = append(b.children, child)
		b.mu.Unlock()
	}

	b.mu.Lock()
	b.state = StateStopped
	b.mu.Unlock()
	return nil
}

// Start requires state stopped and transitions through starting to
// running.
func (b *BaseComponent) Start() error {
	b.mu.Lock()
	if b.state != StateStopped {
		b.mu.Unlock()
		return &ErrInvalidTransition{From: b.state, Op: "start"}
	}
	b.state = StateStarting
	b.stoppedCh = make(chan struct{})
	b.mu.Unlock()

	if b.hooks.Start != nil {
		if err := b.hooks.Start(); err != nil {
			return err
		}
	}

	b.mu.Lock()
	b.state = StateRunning
	b.mu.Unlock()
	return nil
}

// Stop requires state running and transitions through stopping back to
// stopped, resolving WhenStopped exactly once.
func (b *BaseComponent) Stop(willReload bool) error {
	b.mu.Lock()
	if b.state != StateRunning {
		b.mu.Unlock()
		return &ErrInvalidTransition{From: b.state, Op: "stop"}
	}
	b.state = StateStopping
	b.mu.Unlock()

	var err error
	if b.hooks.Stop != nil {
		err = b.hooks.Stop(willReload)
	}

	b.mu.Lock()
	b.state = StateStopped
	done := b.stoppedCh
	b.mu.Unlock()

	close(done)
	return err
}

func (b *BaseComponent) WhenStopped() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stoppedCh
}

// Children returns a snapshot of attached children, in insertion order.
func (b *BaseComponent) Children() []Component {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Component, len(b.children))
	copy(out, b.children)
	return out
}
