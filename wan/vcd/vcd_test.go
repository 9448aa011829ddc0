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
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paf-sca/wan/waveform"
)

// TestMinimalWriteReadRoundTrip exercises spec.md's scenario S2: one 4-bit
// wire with five changes, written then re-read, with the reconstructed
// waveform equal to the original in every value it recorded.
func TestMinimalWriteReadRoundTrip(t *testing.T) {
	wf := waveform.New(nil)
	wf.TimeScale = -9 // 1ns
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
		{15, "100"},
		{20, "1"},
	}
	for _, c := range changes {
		require.NoError(t, wf.AddValueChangeString(sig, c.t, c.bits))
	}

	var buf bytes.Buffer
	require.NoError(t, NewWriter(nil).Write(&buf, wf))

	out := buf.String()
	require.Contains(t, out, "$timescale 1ns $end")
	require.Contains(t, out, "$scope module top $end")
	require.Contains(t, out, "$var wire 4 ! a_signal $end")
	require.Contains(t, out, "#0\n$dumpvars\nb0 !\n$end")
	require.Contains(t, out, "#5\nb10 !")
	require.Contains(t, out, "#10\nb1010 !")
	require.Contains(t, out, "#15\nb100 !")
	require.Contains(t, out, "#20\nb1 !")

	reread, err := NewReader(nil).Read(strings.NewReader(out), "roundtrip.vcd")
	require.NoError(t, err)
	require.Equal(t, wf.AllTimes, reread.AllTimes)
	require.True(t, wf.Signal(sig).Equal(reread.Signal(0)))
}

// TestAliasSharedIdentifier covers reading a signal declared twice under two
// scopes sharing one id (spec.md §4.6.2's alias contract).
func TestAliasSharedIdentifier(t *testing.T) {
	src := strings.Join([]string{
		"$timescale 1 ns $end",
		"$scope module top $end",
		"$var wire 1 ! clk $end",
		"$scope module inner $end",
		"$var wire 1 ! clk_alias $end",
		"$upscope $end",
		"$upscope $end",
		"$enddefinitions $end",
		"#0",
		"$dumpvars",
		"0!",
		"$end",
		"#5",
		"1!",
		"",
	}, "\n")

	wf, err := NewReader(nil).Read(strings.NewReader(src), "alias.vcd")
	require.NoError(t, err)
	require.Len(t, wf.Signals, 1)

	_, desc, err := wf.Root.FindSignalDesc("top.inner", "clk_alias")
	require.NoError(t, err)
	require.True(t, desc.Alias)
	require.Equal(t, 2, wf.Signal(desc.Idx).Len())
}

// TestAliasWidthMismatchFails checks spec.md §7's ErrAliasWidthMismatch.
func TestAliasWidthMismatchFails(t *testing.T) {
	src := strings.Join([]string{
		"$timescale 1ns $end",
		"$scope module top $end",
		"$var wire 4 ! bus $end",
		"$var wire 1 ! bus_alias $end",
		"$upscope $end",
		"$enddefinitions $end",
		"#0",
		"",
	}, "\n")
	_, err := NewReader(nil).Read(strings.NewReader(src), "bad.vcd")
	require.ErrorIs(t, err, ErrAliasWidthMismatch)
}

// TestUnknownSignalIdFails checks a value change referencing an id with no
// $var declaration.
func TestUnknownSignalIdFails(t *testing.T) {
	src := strings.Join([]string{
		"$timescale 1ns $end",
		"$enddefinitions $end",
		"#0",
		"1#",
		"",
	}, "\n")
	_, err := NewReader(nil).Read(strings.NewReader(src), "bad.vcd")
	require.ErrorIs(t, err, ErrUnknownSignalId)
}

// TestNonMonotonicTimeFails checks spec.md §7's ErrNonMonotonicTime.
func TestNonMonotonicTimeFails(t *testing.T) {
	src := strings.Join([]string{
		"$timescale 1ns $end",
		"$enddefinitions $end",
		"#10",
		"#5",
		"",
	}, "\n")
	_, err := NewReader(nil).Read(strings.NewReader(src), "bad.vcd")
	require.ErrorIs(t, err, ErrNonMonotonicTime)
}

// TestQuickTimesMatchesFullParse verifies the restricted scan returns the
// same time axis and timescale as a full Read, without building a Waveform.
func TestQuickTimesMatchesFullParse(t *testing.T) {
	wf := waveform.New(nil)
	wf.TimeScale = -9
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
	require.Equal(t, -9, scale)
}

// TestAppendExtendsWithoutHeader checks that Append emits only the new
// time-steps, reusing a precomputed id assignment.
func TestAppendExtendsWithoutHeader(t *testing.T) {
	wf := waveform.New(nil)
	top := wf.AddModule("top")
	sig, err := wf.AddWire(top, "x", 1)
	require.NoError(t, err)
	require.NoError(t, wf.AddValueChangeString(sig, 0, "0"))
	require.NoError(t, wf.AddValueChangeString(sig, 5, "1"))

	ids, order := Declarations(wf)
	var buf bytes.Buffer
	require.NoError(t, NewWriter(nil).Append(&buf, wf, ids, order, 0))
	require.Equal(t, "#5\n1!\n", buf.String())
}
