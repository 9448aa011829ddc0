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

package waveform

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paf-sca/wan/scope"
)

func TestAddTimePolicy(t *testing.T) {
	w := New(nil)

	i0, err := w.AddTime(0)
	require.NoError(t, err)
	require.Equal(t, uint32(0), i0)

	i1, err := w.AddTime(5)
	require.NoError(t, err)
	require.Equal(t, uint32(1), i1)

	// Same time reuses the index without growing AllTimes.
	i1b, err := w.AddTime(5)
	require.NoError(t, err)
	require.Equal(t, i1, i1b)
	require.Len(t, w.AllTimes, 2)

	i2, err := w.AddTime(10)
	require.NoError(t, err)
	require.Equal(t, uint32(2), i2)

	// A time strictly between two existing ones would shift index 2.
	_, err = w.AddTime(7)
	require.ErrorIs(t, err, ErrTimeOrderingBroken)

	// A time equal to an existing one is fine and doesn't grow AllTimes.
	again, err := w.AddTime(5)
	require.NoError(t, err)
	require.Equal(t, i1, again)
	require.Len(t, w.AllTimes, 3)
}

func TestAddSignalAndValueChange(t *testing.T) {
	w := New(nil)
	test := w.AddModule("test")

	idx, err := w.AddWire(test, "a_signal", 4)
	require.NoError(t, err)

	require.NoError(t, w.AddValueChangeString(idx, 0, "0000"))
	require.NoError(t, w.AddValueChangeString(idx, 5, "0010"))
	require.NoError(t, w.AddValueChangeString(idx, 10, "1010"))

	require.Equal(t, 3, w.Signal(idx).Len())
	v, ok := w.Signal(idx).ValueAtTime(7, w.AllTimes)
	require.True(t, ok)
	require.Equal(t, "0010", v.String())
}

func TestAliasMustMatchWidth(t *testing.T) {
	w := New(nil)
	m := w.AddModule("m")
	idx, err := w.AddWire(m, "w1", 1)
	require.NoError(t, err)

	_, err = w.AddWireAlias(m, "w1_alias", 2, idx)
	require.ErrorIs(t, err, ErrWidthMismatch)

	aliasIdx, err := w.AddWireAlias(m, "w1_alias", 1, idx)
	require.NoError(t, err)
	require.Equal(t, idx, aliasIdx)
	require.Len(t, w.Signals, 1) // aliasing never allocates new Signal storage
}

func TestTimeScaleString(t *testing.T) {
	w := New(nil)
	w.TimeScale = -12
	require.Equal(t, "1ps", w.TimeScaleString())

	w.TimeScale = -9
	require.Equal(t, "1ns", w.TimeScaleString())

	w.TimeScale = -8
	require.Equal(t, "10ns", w.TimeScaleString())
}

func TestCloneDeepCopiesAndPreservesData(t *testing.T) {
	w := New(nil)
	m := w.AddModule("m")
	idx, err := w.AddWire(m, "w1", 1)
	require.NoError(t, err)
	require.NoError(t, w.AddValueChangeString(idx, 0, "0"))
	require.NoError(t, w.AddValueChangeString(idx, 5, "1"))

	c := w.Clone()
	require.True(t, w.Signal(idx).Equal(c.Signal(idx)))
	require.Equal(t, w.AllTimes, c.AllTimes)

	// Mutating the clone must not affect the original.
	require.NoError(t, c.AddValueChangeString(idx, 10, "0"))
	require.NotEqual(t, w.Signal(idx).Len(), c.Signal(idx).Len())

	_, _, err = c.Root.FindSignalDesc("m", "w1")
	require.NoError(t, err)
	require.Equal(t, scope.Module, c.Root.SubScopes[0].Kind)
}
