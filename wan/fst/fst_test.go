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

package fst

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paf-sca/wan/scope"
	"github.com/paf-sca/wan/waveform"
)

// TestMinimalWriteReadRoundTrip mirrors vcd's S2 scenario: one 4-bit wire
// with five changes, written then re-read through the binary container.
func TestMinimalWriteReadRoundTrip(t *testing.T) {
	wf := waveform.New(nil)
	wf.TimeScale = -9
	top := wf.AddModule("top")
	sig, err := wf.AddWire(top, "a_signal", 4)
	require.NoError(t, err)

	changes := []struct {
		t    uint64
		bits string
	}{
		{0, "0000"},
		{5, "0010"},
		{10, "1010"},
		{15, "1000"},
		{20, "0001"},
	}
	for _, c := range changes {
		require.NoError(t, wf.AddValueChangeString(sig, c.t, c.bits))
	}

	var buf bytes.Buffer
	require.NoError(t, NewWriter(nil).Write(&buf, wf))

	reread, err := NewReader(nil).Read(bytes.NewReader(buf.Bytes()), "roundtrip.fst")
	require.NoError(t, err)
	require.Equal(t, wf.AllTimes, reread.AllTimes)
	require.Equal(t, wf.TimeScale, reread.TimeScale)
	require.True(t, wf.Signal(sig).Equal(reread.Signal(0)))
}

// TestAliasPreservedAcrossRoundTrip covers a signal declared once and
// aliased under a second scope, confirming both the decoder's alias
// resolution and the handle space encodeValueChanges shares with it.
func TestAliasPreservedAcrossRoundTrip(t *testing.T) {
	wf := waveform.New(nil)
	top := wf.AddModule("top")
	clk, err := wf.AddWire(top, "clk", 1)
	require.NoError(t, err)
	inner := top.AddScope("inner", scope.Module)
	_, err = wf.AddWireAlias(inner, "clk_alias", 1, clk)
	require.NoError(t, err)

	require.NoError(t, wf.AddValueChangeString(clk, 0, "0"))
	require.NoError(t, wf.AddValueChangeString(clk, 5, "1"))

	var buf bytes.Buffer
	require.NoError(t, NewWriter(nil).Write(&buf, wf))

	reread, err := NewReader(nil).Read(bytes.NewReader(buf.Bytes()), "alias.fst")
	require.NoError(t, err)
	require.Len(t, reread.Signals, 1)

	_, desc, err := reread.Root.FindSignalDesc("top.inner", "clk_alias")
	require.NoError(t, err)
	require.True(t, desc.Alias)
	require.Equal(t, 2, reread.Signal(desc.Idx).Len())
}

// TestQuickTimesMatchesFullParse verifies the restricted scan returns the
// same time axis and timescale as a full Read, without decoding the
// hierarchy or resolving any signal handle.
func TestQuickTimesMatchesFullParse(t *testing.T) {
	wf := waveform.New(nil)
	wf.TimeScale = -12
	top := wf.AddModule("top")
	sig, err := wf.AddWire(top, "x", 1)
	require.NoError(t, err)
	for _, ts := range []uint64{0, 3, 7, 12} {
		require.NoError(t, wf.AddValueChangeString(sig, ts, "1"))
	}

	var buf bytes.Buffer
	require.NoError(t, NewWriter(nil).Write(&buf, wf))

	times, scale, err := QuickTimes(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, wf.AllTimes, times)
	require.Equal(t, -12, scale)
}

// TestBadMagicFails checks a stream with no valid container header.
func TestBadMagicFails(t *testing.T) {
	_, err := NewReader(nil).Read(bytes.NewReader([]byte("not an fst file, just text")), "bad.fst")
	require.ErrorIs(t, err, ErrBadMagic)
}

// TestDanglingAliasFails checks decodeHierarchy's ErrDanglingFstAlias path:
// a hand-built VAR record whose alias-ref points at a handle no prior VAR
// record assigned.
func TestDanglingAliasFails(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(tagVar)
	buf.WriteByte(fstWire)
	putUvarint(&buf, 1)  // width
	putUvarint(&buf, 99) // alias-ref: handle 98, never declared
	putString(&buf, "x")
	buf.WriteByte(tagHierEnd)

	_, err := decodeHierarchy(buf.Bytes(), waveform.New(nil))
	require.ErrorIs(t, err, ErrDanglingFstAlias)
}
