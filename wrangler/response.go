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

package wrangler

import "net/http"

// Response is what an Application or Endpoint returns for a request. A
// nil *Response from the endpoint means "not handled" and is rendered
// as a 404-equivalent by the wrangler.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// DispatchInfo threads routing state from the endpoint down to nested
// application dispatch; the endpoint's own call always passes a fresh
// instance pointed at the request's full path.
type DispatchInfo struct {
	Extra map[string]string
	Path  string
}

// Application is the external request handler an Endpoint forwards to.
// A nil, nil return means "not handled".
type Application interface {
	HandleRequest(req *IncomingRequest, dispatch *DispatchInfo) (*Response, error)
}

// Service lets the wrangler invoke a rate limiter or access log by
// method name, matching the RPC-by-name shape of ratelimit.Service.
type Service interface {
	Call(method string, args ...interface{}) (interface{}, error)
}
