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

// Package bytesize provides a byte-count type that parses both plain
// integers and "8K"/"4MiB"-shaped strings, the accepted shape of
// EndpointConfig.maxRequestBodySize.
package bytesize

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	_           = iota
	KiB Size = 1 << (10 * iota)
	MiB
	GiB
)

// Size is a count of bytes.
type Size int64

func (s Size) Int64() int64 {
	return int64(s)
}

// Parse accepts a bare integer (bytes) or a suffixed value such as "8K",
// "4Mi", "2G", "1GiB" (case-insensitive, binary multiples).
func Parse(raw string) (Size, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}

	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Size(n), nil
	}

	upper := strings.ToUpper(raw)
	mult := Size(1)

	switch {
	case strings.HasSuffix(upper, "GIB"), strings.HasSuffix(upper, "GI"), strings.HasSuffix(upper, "G"):
		mult = GiB
		upper = trimAnySuffix(upper, "GIB", "GI", "G")
	case strings.HasSuffix(upper, "MIB"), strings.HasSuffix(upper, "MI"), strings.HasSuffix(upper, "M"):
		mult = MiB
		upper = trimAnySuffix(upper, "MIB", "MI", "M")
	case strings.HasSuffix(upper, "KIB"), strings.HasSuffix(upper, "KI"), strings.HasSuffix(upper, "K"):
		mult = KiB
		upper = trimAnySuffix(upper, "KIB", "KI", "K")
	default:
		return 0, fmt.Errorf("bytesize: invalid size %q", raw)
	}

	n, err := strconv.ParseFloat(strings.TrimSpace(upper), 64)
	if err != nil {
		return 0, fmt.Errorf("bytesize: invalid size %q: %w", raw, err)
	}

	return Size(n * float64(mult)), nil
}

func trimAnySuffix(s string, suffixes ...string) string {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return strings.TrimSuffix(s, suf)
		}
	}
	return s
}

func (s Size) String() string {
	switch {
	case s >= GiB && s%GiB == 0:
		return fmt.Sprintf("%dGiB", s/GiB)
	case s >= MiB && s%MiB == 0:
		return fmt.Sprintf("%dMiB", s/MiB)
	case s >= KiB && s%KiB == 0:
		return fmt.Sprintf("%dKiB", s/KiB)
	default:
		return strconv.FormatInt(int64(s), 10)
	}
}
