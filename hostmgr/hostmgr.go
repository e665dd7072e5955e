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

// Package hostmgr resolves a TLS hostname to its certificate via an SNI
// callback, keeping an ordered prefix map from componentized DNS names
// (optionally wildcard-tailed) to a *tls.Config.
package hostmgr

import (
	"crypto/tls"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	libval "github.com/go-playground/validator/v10"

	liberr "github.com/danfuzz/lactoserv-sub003/errors"
)

var labelGrammar = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]{0,61}[A-Za-z0-9])?$`)

// Binding associates a hostname pattern with its TLS configuration.
// Pattern is either "*" (any host), "*.example.com" (wildcard tail), or
// a fully-qualified name ("a.example.com").
type Binding struct {
	Pattern string      `validate:"required"`
	TLS     *tls.Config `validate:"required"`
}

// Validate checks b's struct-tagged constraints and, beyond what tags
// can express, that Pattern conforms to the hostname grammar.
func (b Binding) Validate() error {
	if err := libval.New().Struct(b); err != nil {
		out := liberr.ErrConfig.Error(nil)
		for _, fe := range err.(libval.ValidationErrors) {
			out.AddParent(fmt.Errorf("hostmgr binding field %q fails constraint %q", fe.Namespace(), fe.Tag()))
		}
		return out
	}
	return ValidateHostname(b.Pattern)
}

// ValidateHostname checks a pattern against the hostname grammar: DNS
// labels of 1-63 chars, a leading "*" label permitted only in that
// position.
func ValidateHostname(pattern string) error {
	if pattern == "*" {
		return nil
	}

	labels := strings.Split(pattern, ".")
	for i, label := range labels {
		if label == "*" {
			if i != 0 {
				return fmt.Errorf("hostmgr: wildcard label only allowed leftmost in %q", pattern)
			}
			continue
		}
		if !labelGrammar.MatchString(label) {
			return fmt.Errorf("hostmgr: invalid label %q in %q", label, pattern)
		}
	}
	return nil
}

// HostManager resolves hostnames to *tls.Config by longest-suffix
// match, with exact labels binding before a wildcard at the same
// position.
type HostManager struct {
	mu       sync.RWMutex
	exact    map[string]*Binding
	wildcard map[string]*Binding // keyed by the suffix after "*."
	fullWild *Binding
}

// New constructs an empty HostManager.
func New() *HostManager {
	return &HostManager{
		exact:    map[string]*Binding{},
		wildcard: map[string]*Binding{},
	}
}

// Add validates and registers a binding. Duplicate patterns are
// rejected.
func (h *HostManager) Add(b Binding) error {
	if err := b.Validate(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case b.Pattern == "*":
		if h.fullWild != nil {
			return fmt.Errorf("hostmgr: duplicate binding for \"*\"")
		}
		bc := b
		h.fullWild = &bc

	case strings.HasPrefix(b.Pattern, "*."):
		suffix := strings.TrimPrefix(b.Pattern, "*.")
		if _, ok := h.wildcard[suffix]; ok {
			return fmt.Errorf("hostmgr: duplicate binding for %q", b.Pattern)
		}
		bc := b
		h.wildcard[suffix] = &bc

	default:
		if _, ok := h.exact[b.Pattern]; ok {
			return fmt.Errorf("hostmgr: duplicate binding for %q", b.Pattern)
		}
		bc := b
		h.exact[b.Pattern] = &bc
	}

	return nil
}

// FindContext returns the most specific binding for name: an exact
// match wins, then the longest matching wildcard suffix, then the full
// wildcard.
func (h *HostManager) FindContext(name string) (*Binding, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	name = strings.TrimSuffix(strings.ToLower(name), ".")

	if b, ok := h.exact[name]; ok {
		return b, true
	}

	labels := strings.Split(name, ".")
	for i := 1; i < len(labels); i++ {
		suffix := strings.Join(labels[i:], ".")
		if b, ok := h.wildcard[suffix]; ok {
			return b, true
		}
	}

	if h.fullWild != nil {
		return h.fullWild, true
	}

	return nil, false
}

// defaultBindingLocked picks the binding used when a client presents no
// SNI at all. A "*" binding always wins; absent that, a manager with
// exactly one wildcard binding falls back to it (the common single-app,
// single-cert case). With several wildcard bindings and no "*" entry
// there is no unambiguous default, so the lexicographically-first
// suffix is chosen deterministically rather than failing the
// handshake. Caller must hold h.mu for reading.
func (h *HostManager) defaultBindingLocked() *Binding {
	if h.fullWild != nil {
		return h.fullWild
	}
	if len(h.wildcard) == 0 {
		return nil
	}

	suffixes := make([]string, 0, len(h.wildcard))
	for suffix := range h.wildcard {
		suffixes = append(suffixes, suffix)
	}
	sort.Strings(suffixes)
	return h.wildcard[suffixes[0]]
}

// GetSecureServerOptions returns a *tls.Config whose GetConfigForClient
// resolves per-connection via FindContext, and whose own Certificates
// and no-SNI resolution fall back to defaultBindingLocked.
func (h *HostManager) GetSecureServerOptions() *tls.Config {
	base := &tls.Config{}

	h.mu.RLock()
	if def := h.defaultBindingLocked(); def != nil {
		base.Certificates = def.TLS.Certificates
	}
	h.mu.RUnlock()

	base.GetConfigForClient = func(hello *tls.ClientHelloInfo) (*tls.Config, error) {
		if hello.ServerName == "" {
			h.mu.RLock()
			def := h.defaultBindingLocked()
			h.mu.RUnlock()
			if def == nil {
				return nil, fmt.Errorf("hostmgr: no certificate for empty SNI")
			}
			return def.TLS, nil
		}

		b, ok := h.FindContext(hello.ServerName)
		if !ok {
			return nil, fmt.Errorf("hostmgr: no certificate for %q", hello.ServerName)
		}
		return b.TLS, nil
	}

	return base
}

// MakeSubset returns a new HostManager holding, for each entry of names,
// the one binding FindContext resolves that entry to. Less specific
// bindings that would also match an entry are not copied. Each
// requested name must resolve to a binding, or the call fails.
func (h *HostManager) MakeSubset(names []string) (*HostManager, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := New()
	for _, n := range names {
		b, ok := h.FindContext(n)
		if !ok {
			return nil, fmt.Errorf("hostmgr: %q matches no binding", n)
		}
		// Re-add under its own pattern (idempotent if already present).
		_ = out.addIfAbsent(*b)
	}
	return out, nil
}

func (h *HostManager) addIfAbsent(b Binding) error {
	// Add rejects a pattern that is already registered without changing
	// the manager, so a repeat is a no-op.
	return h.Add(b)
}
