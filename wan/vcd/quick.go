// Copyright 2017 The Prometheus Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vcd

import (
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// QuickTimes implements spec.md §4.6.3's restricted scan: it never builds a
// Waveform or a scope tree, only collects the $timescale exponent and the
// ordered list of #<time> markers, for callers (merge's quick-times union)
// that need the time axis of many files without paying for a full parse.
func QuickTimes(r io.Reader) (times []uint64, timeScale int, err error) {
	lex := newLexer(r)
	for {
		tok, err := lex.next()
		if err != nil {
			if err == io.EOF {
				return times, timeScale, nil
			}
			return nil, 0, errors.Wrap(err, "vcd: quick-times scan")
		}
		switch {
		case tok == "$timescale":
			var toks []string
			for {
				t, err := lex.next()
				if err != nil {
					return nil, 0, errors.Wrap(err, "vcd: quick-times $timescale")
				}
				if t == "$end" {
					break
				}
				toks = append(toks, t)
			}
			exp, err := parseTimescale(toks)
			if err != nil {
				return nil, 0, errors.Wrapf(err, "line %d", lex.line)
			}
			timeScale = exp
		case len(tok) > 0 && tok[0] == '#':
			t, perr := strconv.ParseUint(tok[1:], 10, 64)
			if perr != nil {
				return nil, 0, errors.Wrapf(ErrBadTimeMarker, "line %d: %q", lex.line, tok)
			}
			if n := len(times); n == 0 || times[n-1] != t {
				times = append(times, t)
			}
		default:
			// Every other header/body token (scope/var declarations,
			// $date/$version/$comment text, value-change lines,
			// $dumpvars/$end wrappers) is irrelevant to the time axis and
			// is skipped without being specially parsed.
		}
	}
}
