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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	cases := []string{"00100", "0", "1111", "zzXX"}
	for _, s := range cases {
		bv, err := Parse(s, len(s))
		require.NoError(t, err, s)
		require.Equal(t, strings.ToUpper(s), bv.String(), s)
	}
}

func TestParseZeroExtends(t *testing.T) {
	bv, err := Parse("1", 4)
	require.NoError(t, err)
	require.Equal(t, "0001", bv.String())
}

func TestParseOverflow(t *testing.T) {
	_, err := Parse("10000", 4)
	require.ErrorIs(t, err, ErrWidthOverflow)
}

func TestBitwiseOps(t *testing.T) {
	a, err := Parse("1010", 4)
	require.NoError(t, err)
	b, err := Parse("0110", 4)
	require.NoError(t, err)

	and, err := a.And(b)
	require.NoError(t, err)
	require.Equal(t, "0010", and.String())

	or, err := a.Or(b)
	require.NoError(t, err)
	require.Equal(t, "1110", or.String())

	xor, err := a.Xor(b)
	require.NoError(t, err)
	require.Equal(t, "1100", xor.String())

	require.Equal(t, "0101", a.Not().String())
}

func TestBitwiseWidthMismatch(t *testing.T) {
	a := New(4)
	b := New(5)
	_, err := a.And(b)
	require.ErrorIs(t, err, ErrWidthMismatch)
	_, err = a.Or(b)
	require.ErrorIs(t, err, ErrWidthMismatch)
	_, err = a.Xor(b)
	require.ErrorIs(t, err, ErrWidthMismatch)
}

func TestInvolutionAndIdempotence(t *testing.T) {
	a, err := Parse("10XZ", 4)
	require.NoError(t, err)

	// Z is not preserved: NOT, AND and OR all turn a Z operand into X, so
	// the defined bits survive and the Z bit comes back as X.
	require.Equal(t, "10XX", a.Not().Not().String())

	and, err := a.And(a)
	require.NoError(t, err)
	require.Equal(t, "10XX", and.String())

	or, err := a.Or(a)
	require.NoError(t, err)
	require.Equal(t, "10XX", or.String())

	allDefined, err := Parse("1010", 4)
	require.NoError(t, err)
	xor, err := allDefined.Xor(allDefined)
	require.NoError(t, err)
	require.Equal(t, 0, xor.OnesCount())

	xorWithX, err := a.Xor(a)
	require.NoError(t, err)
	// Bits 0 and 1 of a are X/Z -> X XOR X is X, not 0.
	require.Equal(t, Unknown, xorWithX.Bit(0))
}

func TestOnesCount(t *testing.T) {
	bv, err := Parse("1z1X1", 5)
	require.NoError(t, err)
	require.Equal(t, 3, bv.OnesCount())
}
