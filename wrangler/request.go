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

// Package wrangler implements the TCP accept loop and the HTTP/1.1,
// HTTP/2 and HTTPS protocol layer on top of it, bridging net/http and
// golang.org/x/net/http2 framing to the endpoint's request handler.
package wrangler

import (
	"net/http"
	"net/url"
	"strings"
)

// TargetKind classifies a request-target per RFC 9112 §3.2.
type TargetKind uint8

const (
	TargetOrigin TargetKind = iota
	TargetAsterisk
	TargetAbsolute
	TargetAuthority
	TargetOther
)

// Target is the parsed form of a request-target.
type Target struct {
	Kind     TargetKind
	Pathname []string // normalized path components, only for TargetOrigin
	Search   string
}

func parseTarget(raw string) Target {
	switch {
	case raw == "*":
		return Target{Kind: TargetAsterisk}
	case strings.HasPrefix(raw, "/"):
		path, search, _ := strings.Cut(raw, "?")
		return Target{Kind: TargetOrigin, Pathname: splitPath(path), Search: search}
	case strings.Contains(raw, "://"):
		return Target{Kind: TargetAbsolute}
	case isAuthorityForm(raw):
		return Target{Kind: TargetAuthority}
	default:
		return Target{Kind: TargetOther}
	}
}

func isAuthorityForm(raw string) bool {
	if strings.Contains(raw, "/") {
		return false
	}
	return strings.Contains(raw, ":")
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// IncomingRequest is the protocol-neutral view of a request the
// endpoint dispatches on.
type IncomingRequest struct {
	ProtocolName string // "http-1.1" or "http-2.0"

	Authority string
	Method    string
	Path      string
	Scheme    string

	Header  http.Header
	Cookies []*http.Cookie

	OriginAddr string
	Host       string

	Target Target

	RequestID string

	Body []byte
}

// singleValueHeaders lists header names the protocol layer collapses
// to a single value when a peer sends them repeated, per the
// allow-list carried over from the source's HTTP-1/HTTP-2 header
// normalization.
var singleValueHeaders = map[string]bool{
	"Content-Length":      true,
	"Content-Type":        true,
	"Host":                true,
	"Authorization":       true,
	"User-Agent":          true,
	"Referer":             true,
	"Location":            true,
	"Etag":                true,
	"Last-Modified":       true,
	"Expires":             true,
	"Age":                 true,
	"From":                true,
	"If-Modified-Since":   true,
	"If-Unmodified-Since": true,
	"Max-Forwards":        true,
	"Proxy-Authorization": true,
	"Retry-After":         true,
	"Server":              true,
}

func normalizeHeaders(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for k, vs := range h {
		if singleValueHeaders[k] && len(vs) > 1 {
			out[k] = vs[:1]
			continue
		}
		cp := make([]string, len(vs))
		copy(cp, vs)
		out[k] = cp
	}
	return out
}

func fromHTTPRequest(r *http.Request, protocolName, requestID string, body []byte) *IncomingRequest {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	host := r.Host
	if host == "" {
		host = r.URL.Host
	}

	return &IncomingRequest{
		ProtocolName: protocolName,
		Authority:    host,
		Method:       r.Method,
		Path:         r.URL.Path,
		Scheme:       scheme,
		Header:       normalizeHeaders(r.Header),
		Cookies:      r.Cookies(),
		OriginAddr:   r.RemoteAddr,
		Host:         host,
		Target:       parseTarget(r.RequestURI),
		RequestID:    requestID,
		Body:         body,
	}
}

// Query re-parses the target's search string into url.Values.
func (r *IncomingRequest) Query() url.Values {
	v, _ := url.ParseQuery(r.Target.Search)
	return v
}
