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

package hostmgr_test

import (
	"crypto/tls"
	"testing"

	"github.com/danfuzz/lactoserv-sub003/hostmgr"
)

func cfg(tag string) *tls.Config {
	return &tls.Config{ServerName: tag}
}

func TestExactBeatsWildcard(t *testing.T) {
	h := hostmgr.New()
	if err := h.Add(hostmgr.Binding{Pattern: "a.example.com", TLS: cfg("exact")}); err != nil {
		t.Fatalf("add exact: %v", err)
	}
	if err := h.Add(hostmgr.Binding{Pattern: "*.example.com", TLS: cfg("wild")}); err != nil {
		t.Fatalf("add wildcard: %v", err)
	}

	b, ok := h.FindContext("a.example.com")
	if !ok || b.TLS.ServerName != "exact" {
		t.Fatalf("expected exact match, got %+v ok=%v", b, ok)
	}

	b, ok = h.FindContext("b.example.com")
	if !ok || b.TLS.ServerName != "wild" {
		t.Fatalf("expected wildcard match, got %+v ok=%v", b, ok)
	}
}

func TestFullWildcardIsFallback(t *testing.T) {
	h := hostmgr.New()
	h.Add(hostmgr.Binding{Pattern: "*", TLS: cfg("default")})
	h.Add(hostmgr.Binding{Pattern: "a.example.com", TLS: cfg("exact")})

	b, ok := h.FindContext("unknown.example.com")
	if !ok || b.TLS.ServerName != "default" {
		t.Fatalf("expected full wildcard fallback, got %+v ok=%v", b, ok)
	}
}

func TestDuplicateRejected(t *testing.T) {
	h := hostmgr.New()
	if err := h.Add(hostmgr.Binding{Pattern: "a.example.com", TLS: cfg("x")}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := h.Add(hostmgr.Binding{Pattern: "a.example.com", TLS: cfg("y")}); err == nil {
		t.Fatalf("expected duplicate rejection")
	}
}

func TestMakeSubsetRequiresAtLeastOneMatch(t *testing.T) {
	h := hostmgr.New()
	h.Add(hostmgr.Binding{Pattern: "a.example.com", TLS: cfg("a")})
	h.Add(hostmgr.Binding{Pattern: "b.example.com", TLS: cfg("b")})

	sub, err := h.MakeSubset([]string{"a.example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := sub.FindContext("a.example.com"); !ok {
		t.Fatalf("expected subset to contain a.example.com")
	}
	if _, ok := sub.FindContext("b.example.com"); ok {
		t.Fatalf("expected subset to exclude b.example.com")
	}

	if _, err := h.MakeSubset([]string{"nope.example.com"}); err == nil {
		t.Fatalf("expected error for unmatched name")
	}
}

func TestNoSNIFallsBackToSoleWildcardWhenNoFullWildcard(t *testing.T) {
	h := hostmgr.New()
	if err := h.Add(hostmgr.Binding{Pattern: "*.example.com", TLS: cfg("wild")}); err != nil {
		t.Fatalf("add wildcard: %v", err)
	}

	base := h.GetSecureServerOptions()
	out, err := base.GetConfigForClient(&tls.ClientHelloInfo{ServerName: ""})
	if err != nil {
		t.Fatalf("expected no-SNI to resolve via the sole wildcard, got error: %v", err)
	}
	if out.ServerName != "wild" {
		t.Fatalf("expected wildcard binding as no-SNI default, got %+v", out)
	}
}

func TestNoSNIErrorsWithoutAnyWildcard(t *testing.T) {
	h := hostmgr.New()
	if err := h.Add(hostmgr.Binding{Pattern: "a.example.com", TLS: cfg("exact")}); err != nil {
		t.Fatalf("add exact: %v", err)
	}

	base := h.GetSecureServerOptions()
	if _, err := base.GetConfigForClient(&tls.ClientHelloInfo{ServerName: ""}); err == nil {
		t.Fatalf("expected no-SNI to fail with only an exact binding registered")
	}
}

func TestInvalidHostnameRejected(t *testing.T) {
	h := hostmgr.New()
	if err := h.Add(hostmgr.Binding{Pattern: "-bad.example.com", TLS: cfg("x")}); err == nil {
		t.Fatalf("expected rejection of leading-hyphen label")
	}
}
