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

package interval

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContains(t *testing.T) {
	iv := Interval{Start: 10, End: 20}
	require.True(t, iv.Contains(10))
	require.True(t, iv.Contains(19))
	require.False(t, iv.Contains(20))
	require.False(t, iv.Contains(9))
}

func TestMerge(t *testing.T) {
	a := Interval{Start: 10, End: 20}
	b := Interval{Start: 5, End: 15}
	require.Equal(t, Interval{Start: 5, End: 20}, a.Merge(b))
}

func TestSegmentsEvenSplit(t *testing.T) {
	segs := Segments(0, 10, 5)
	require.Equal(t, []Interval{
		{Start: 0, End: 2}, {Start: 2, End: 4}, {Start: 4, End: 6},
		{Start: 6, End: 8}, {Start: 8, End: 10},
	}, segs)
}

func TestSegmentsRemainderFoldsIntoLast(t *testing.T) {
	segs := Segments(0, 10, 3)
	require.Len(t, segs, 3)
	require.Equal(t, uint64(0), segs[0].Start)
	require.Equal(t, uint64(10), segs[len(segs)-1].End)
}

func TestSegmentsDegenerate(t *testing.T) {
	require.Nil(t, Segments(0, 10, 0))
	require.Nil(t, Segments(10, 10, 3))
}
