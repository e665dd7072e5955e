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

package bytesize_test

import (
	"testing"

	"github.com/danfuzz/lactoserv-sub003/bytesize"
)

func TestParsePlainInteger(t *testing.T) {
	s, err := bytesize.Parse("8")
	if err != nil || s != 8 {
		t.Fatalf("expected 8 bytes, got %v err=%v", s, err)
	}
}

func TestParseSuffixed(t *testing.T) {
	cases := map[string]bytesize.Size{
		"4K":   4 * bytesize.KiB,
		"2Mi":  2 * bytesize.MiB,
		"1GiB": bytesize.GiB,
	}
	for raw, want := range cases {
		got, err := bytesize.Parse(raw)
		if err != nil || got != want {
			t.Fatalf("%s: got %v err=%v, want %v", raw, got, err, want)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := bytesize.Parse("not-a-size"); err == nil {
		t.Fatalf("expected error for invalid size")
	}
}
