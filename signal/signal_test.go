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

package signal

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paf-sca/wan/logic"
)

// TestPackRoundTrip is scenario S1 from spec.md §8: a width-1 signal with
// 33 alternating appends packs into 3 columns (16, 16, 1 slots) and
// iterates back out exactly as written.
func TestPackRoundTrip(t *testing.T) {
	s := New(1)
	allTimes := make([]uint64, 0, 33)
	for i := uint64(0); i <= 32; i++ {
		allTimes = append(allTimes, i)
		bit := "0"
		if i%2 == 1 {
			bit = "1"
		}
		require.NoError(t, s.AppendString(uint32(i), bit))
	}

	require.Equal(t, 33, s.Len())
	require.Equal(t, 3*1, len(s.packed))

	it := NewIterator(s, allTimes)
	require.Equal(t, 33, it.Len())
	for k := 0; k < it.Len(); k++ {
		c := it.Get(k)
		require.Equal(t, uint64(k), c.Time)
		want := "0"
		if k%2 == 1 {
			want = "1"
		}
		require.Equal(t, want, c.Value.String())
	}
}

func TestAppendOverwritesSameTime(t *testing.T) {
	s := New(4)
	allTimes := []uint64{0, 5, 10}

	require.NoError(t, s.AppendString(0, "0000"))
	require.NoError(t, s.AppendString(1, "0001"))
	require.Equal(t, 2, s.Len())

	// A second write at the same timeIdx collapses to the last value.
	require.NoError(t, s.AppendString(1, "0010"))
	require.Equal(t, 2, s.Len())
	require.Equal(t, "0010", s.ValueAtChange(1).String())
	require.Equal(t, uint64(5), s.TimeAtChange(1, allTimes))
}

func TestAppendNonMonotonicFails(t *testing.T) {
	s := New(1)
	require.NoError(t, s.AppendString(5, "1"))
	err := s.AppendString(2, "0")
	require.ErrorIs(t, err, ErrNonMonotonicAppend)
}

func TestAppendWidthOverflow(t *testing.T) {
	s := New(2)
	err := s.AppendString(0, "101")
	require.ErrorIs(t, err, ErrWidthOverflow)
}

func TestChangeUpperBoundNoSuccessor(t *testing.T) {
	allTimes := []uint64{0, 5, 10}
	s := New(1)
	require.NoError(t, s.AppendString(0, "0"))
	require.NoError(t, s.AppendString(1, "1"))
	require.NoError(t, s.AppendString(2, "0"))

	require.Equal(t, 3, s.ChangeUpperBound(10, allTimes))
	require.Equal(t, 3, s.ChangeUpperBound(999, allTimes))
	require.Equal(t, 1, s.ChangeUpperBound(0, allTimes))
}

func TestValueAtTimeMatchesLowerBound(t *testing.T) {
	allTimes := []uint64{0, 5, 10, 15}
	s := New(4)
	require.NoError(t, s.AppendString(0, "0000"))
	require.NoError(t, s.AppendString(1, "0010"))
	require.NoError(t, s.AppendString(3, "1010"))

	for _, tm := range []uint64{0, 3, 5, 9, 15, 100} {
		v, ok := s.ValueAtTime(tm, allTimes)
		lb := s.ChangeLowerBound(tm, allTimes)
		if lb >= s.Len() {
			require.False(t, ok)
			continue
		}
		require.True(t, ok)
		require.Equal(t, s.ValueAtChange(lb).String(), v.String())
	}
}

func TestEqualityIgnoresNothingButStorage(t *testing.T) {
	a := New(4)
	b := New(4)
	require.NoError(t, a.AppendString(0, "0101"))
	require.NoError(t, b.AppendString(0, "0101"))
	require.True(t, a.Equal(b))

	require.NoError(t, b.AppendString(1, "0101"))
	require.False(t, a.Equal(b))
}

func TestBitVectorValue(t *testing.T) {
	s := New(4)
	bv, err := logic.Parse("1010", 4)
	require.NoError(t, err)
	require.NoError(t, s.Append(0, bv))
	require.Equal(t, "1010", s.ValueAtChange(0).String())
}
