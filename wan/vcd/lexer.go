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
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// lexer splits a VCD stream into whitespace-delimited tokens while tracking
// line numbers, so parse errors can carry the file/line context spec.md §7
// requires.
type lexer struct {
	r    *bufio.Reader
	line int
}

func newLexer(r io.Reader) *lexer {
	return &lexer{r: bufio.NewReaderSize(r, 64*1024), line: 1}
}

// next returns the next whitespace-delimited token, or io.EOF.
func (l *lexer) next() (string, error) {
	// Skip whitespace, counting newlines.
	for {
		b, err := l.r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '\n' {
			l.line++
			continue
		}
		if b == ' ' || b == '\t' || b == '\r' {
			continue
		}
		return l.readToken(b)
	}
}

func (l *lexer) readToken(first byte) (string, error) {
	buf := []byte{first}
	for {
		b, err := l.r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return string(buf), nil
			}
			return "", err
		}
		if b == ' ' || b == '\t' || b == '\r' || b == '\n' {
			if b == '\n' {
				l.line++
			}
			return string(buf), nil
		}
		buf = append(buf, b)
	}
}

// textUntilEnd reads tokens until "$end", returning them joined by single
// spaces. Used for $date/$version/$comment free-text bodies.
func (l *lexer) textUntilEnd() (string, error) {
	var parts []string
	for {
		tok, err := l.next()
		if err != nil {
			return "", errors.Wrap(err, "reading until $end")
		}
		if tok == "$end" {
			break
		}
		parts = append(parts, tok)
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " "
		}
		out += p
	}
	return out, nil
}

func (l *lexer) expect(want string) error {
	tok, err := l.next()
	if err != nil {
		return errors.Wrapf(err, "expected %q", want)
	}
	if tok != want {
		return errors.Wrapf(ErrMissingEnd, "line %d: expected %q, got %q", l.line, want, tok)
	}
	return nil
}
