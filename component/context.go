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
	"context"
	"strings"

	"github.com/danfuzz/lactoserv-sub003/logging"
)

// ControlContext is handed to Init; it is the "Live" counterpart of the
// nascent placeholder a component carries before attachment (the
// nascent phase itself is just BaseComponent.nascentChildren plus a
// nil ControlContext, a plain zero value standing in for the explicit
// sum type the design notes describe).
type ControlContext struct {
	Go     context.Context
	Logger logging.Logger
	path   []string
}

// NewRootContext constructs the ControlContext for a tree root.
func NewRootContext(goCtx context.Context, log logging.Logger) *ControlContext {
	return &ControlContext{Go: goCtx, Logger: log}
}

func (c *ControlContext) forChild(name string) *ControlContext {
	path := append(append([]string{}, c.path...), name)
	return &ControlContext{
		Go:     c.Go,
		Logger: c.Logger.WithField("component", strings.Join(path, ".")),
		path:   path,
	}
}

// Path returns the dotted name path from the root to this context's
// component.
func (c *ControlContext) Path() string {
	return strings.Join(c.path, ".")
}
