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

package logic

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrWidthMismatch is returned by bitwise operators when operand widths
// disagree.
var ErrWidthMismatch = errors.New("logic: bit vector width mismatch")

// ErrWidthOverflow is returned when a string literal carries more bits than
// the target width allows.
var ErrWidthOverflow = errors.New("logic: value wider than signal")

// BitVector is a fixed-width, LSB-first sequence of Values. The width is
// fixed at construction; every bitwise operator requires matching widths.
type BitVector struct {
	width int
	bits  []Value // bits[0] is the least-significant bit
}

// New returns a BitVector of the given width with every bit Low.
func New(width int) *BitVector {
	if width < 1 {
		panic("logic: width must be >= 1")
	}
	return &BitVector{width: width, bits: make([]Value, width)}
}

// Parse builds a BitVector of the given width from s, a string of logic
// characters in LSB-first order within this package's own in-memory
// representation, but MSB-first as conventionally written (matching
// spec.md's "String form is written most-significant first"). Characters
// beyond width fail ErrWidthOverflow; fewer characters than width
// zero-extend on the most-significant side.
func Parse(s string, width int) (*BitVector, error) {
	if len(s) > width {
		return nil, errors.Wrapf(ErrWidthOverflow, "value %q wider than %d bits", s, width)
	}
	bv := New(width)
	// s is MSB-first; bits[0] must hold the last character.
	for i := 0; i < len(s); i++ {
		v, err := ValueFromChar(s[len(s)-1-i])
		if err != nil {
			return nil, err
		}
		bv.bits[i] = v
	}
	return bv, nil
}

// Width returns the fixed bit width.
func (b *BitVector) Width() int { return b.width }

// Bit returns bit i (0 = least significant).
func (b *BitVector) Bit(i int) Value { return b.bits[i] }

// SetBit sets bit i (0 = least significant).
func (b *BitVector) SetBit(i int, v Value) { b.bits[i] = v }

// Clone returns an independent copy.
func (b *BitVector) Clone() *BitVector {
	c := &BitVector{width: b.width, bits: make([]Value, b.width)}
	copy(c.bits, b.bits)
	return c
}

// String renders the vector most-significant bit first, using the
// uppercase-for-Z/X convention: "00100"->"00100", with 'z'/'x' normalized to
// 'Z'/'X'.
func (b *BitVector) String() string {
	var sb strings.Builder
	sb.Grow(b.width)
	for i := b.width - 1; i >= 0; i-- {
		sb.WriteByte(b.bits[i].Char())
	}
	return sb.String()
}

// Equal reports bitwise equality; widths must match.
func (b *BitVector) Equal(o *BitVector) bool {
	if b.width != o.width {
		return false
	}
	for i := range b.bits {
		if b.bits[i] != o.bits[i] {
			return false
		}
	}
	return true
}

func (b *BitVector) requireSameWidth(o *BitVector) error {
	if b.width != o.width {
		return errors.Wrapf(ErrWidthMismatch, "%d bits vs %d bits", b.width, o.width)
	}
	return nil
}

// Not returns the bitwise NOT of b.
func (b *BitVector) Not() *BitVector {
	r := New(b.width)
	for i, v := range b.bits {
		r.bits[i] = v.Not()
	}
	return r
}

// And returns the bitwise AND of b and o.
func (b *BitVector) And(o *BitVector) (*BitVector, error) {
	return b.zipWith(o, Value.And)
}

// Or returns the bitwise OR of b and o.
func (b *BitVector) Or(o *BitVector) (*BitVector, error) {
	return b.zipWith(o, Value.Or)
}

// Xor returns the bitwise XOR of b and o.
func (b *BitVector) Xor(o *BitVector) (*BitVector, error) {
	return b.zipWith(o, Value.Xor)
}

func (b *BitVector) zipWith(o *BitVector, op func(Value, Value) Value) (*BitVector, error) {
	if err := b.requireSameWidth(o); err != nil {
		return nil, err
	}
	r := New(b.width)
	for i := range b.bits {
		r.bits[i] = op(b.bits[i], o.bits[i])
	}
	return r, nil
}

// OnesCount counts bits equal to High, ignoring Z and X (spec.md §4.1).
func (b *BitVector) OnesCount() int {
	n := 0
	for _, v := range b.bits {
		if v == High {
			n++
		}
	}
	return n
}
