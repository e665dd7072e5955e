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

package errors_test

import (
	stderrors "errors"
	"testing"

	liberr "github.com/danfuzz/lactoserv-sub003/errors"
)

func TestCodeAndMessage(t *testing.T) {
	e := liberr.ErrAdmissionDenied.Error(nil)

	if e.Code() != liberr.ErrAdmissionDenied {
		t.Fatalf("expected code %d, got %d", liberr.ErrAdmissionDenied, e.Code())
	}
	if !e.IsCode(liberr.ErrAdmissionDenied) {
		t.Fatalf("expected IsCode to match")
	}
	if e.HasParent() {
		t.Fatalf("expected no parent")
	}
}

func TestParentChain(t *testing.T) {
	cause := stderrors.New("socket reset")
	e := liberr.ErrProtocol.Error(cause)

	if !e.HasParent() {
		t.Fatalf("expected parent to be attached")
	}
	if !stderrors.Is(e, cause) {
		t.Fatalf("expected errors.Is to unwrap to cause")
	}

	e.AddParent(stderrors.New("second cause"))
	if len(e.GetParent()) != 2 {
		t.Fatalf("expected 2 parents, got %d", len(e.GetParent()))
	}
}

func TestDistinctCodesHaveDistinctMessages(t *testing.T) {
	if liberr.ErrProtocol == liberr.ErrConfig {
		t.Fatalf("ErrProtocol and ErrConfig must not collide as map keys")
	}
	if liberr.ErrChainCorruption == liberr.ErrHandlerFailure {
		t.Fatalf("ErrChainCorruption and ErrHandlerFailure must not collide as map keys")
	}
	if liberr.ErrProtocol.Message() == liberr.ErrConfig.Message() {
		t.Fatalf("expected ErrProtocol to have its own message, got %q", liberr.ErrProtocol.Message())
	}
	if liberr.ErrChainCorruption.Message() == liberr.ErrHandlerFailure.Message() {
		t.Fatalf("expected ErrChainCorruption to have its own message, got %q", liberr.ErrChainCorruption.Message())
	}
}

func TestCallSiteCaptured(t *testing.T) {
	e := liberr.New(liberr.ErrConfig, "bad listen address")

	if e.GetFile() == "" || e.GetLine() == 0 {
		t.Fatalf("expected a captured call site")
	}
}
