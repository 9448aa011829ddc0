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

// Package logic implements the 4-valued logic algebra (0, 1, Z, X) that
// underlies every bit of every waveform value.
package logic

import "github.com/pkg/errors"

// Value is one of the four IEEE 1364 logic values. It is encoded in exactly
// two bits everywhere it is stored (see the Pack type in the signal
// package), so the ordinal values below are load-bearing.
type Value uint8

const (
	Low Value = iota
	High
	HighZ
	Unknown
)

// ErrBadLogicChar is returned by ValueFromChar for any byte outside the
// recognized set.
var ErrBadLogicChar = errors.New("logic: unrecognized value character")

// ValueFromChar maps a VCD/FST value character to a Value. '0' and '1' map
// to Low/High, 'z'/'Z' to HighZ, 'x'/'X' to Unknown.
func ValueFromChar(c byte) (Value, error) {
	switch c {
	case '0':
		return Low, nil
	case '1':
		return High, nil
	case 'z', 'Z':
		return HighZ, nil
	case 'x', 'X':
		return Unknown, nil
	default:
		return Unknown, errors.Wrapf(ErrBadLogicChar, "char %q", c)
	}
}

// Char renders v using the uppercase-for-Z/X convention used on output.
func (v Value) Char() byte {
	switch v {
	case Low:
		return '0'
	case High:
		return '1'
	case HighZ:
		return 'Z'
	default:
		return 'X'
	}
}

func (v Value) String() string { return string(v.Char()) }

// Bool projects v onto a boolean: only High is true.
func (v Value) Bool() bool { return v == High }

// Not implements the 4-valued NOT: total, Z and X propagate to X.
func (v Value) Not() Value {
	switch v {
	case Low:
		return High
	case High:
		return Low
	default:
		return Unknown
	}
}

// And implements the 4-valued AND. Any operand that is Z or X forces the
// result to X, with no attempt at absorbing-element shortcuts (0 AND X is X,
// not 0) — this matches the table in spec.md §4.1.
func (v Value) And(o Value) Value {
	if v == Low && o == Low {
		return Low
	}
	if v == High && o == High {
		return High
	}
	if isDefined(v) && isDefined(o) {
		return Low
	}
	return Unknown
}

// Or implements the 4-valued OR.
func (v Value) Or(o Value) Value {
	if isDefined(v) && isDefined(o) {
		if v == High || o == High {
			return High
		}
		return Low
	}
	return Unknown
}

// Xor implements the 4-valued XOR.
func (v Value) Xor(o Value) Value {
	if isDefined(v) && isDefined(o) {
		if v == o {
			return Low
		}
		return High
	}
	return Unknown
}

func isDefined(v Value) bool { return v == Low || v == High }
