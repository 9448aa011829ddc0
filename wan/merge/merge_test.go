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

package merge

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paf-sca/wan/wan/vcd"
	"github.com/paf-sca/wan/waveform"
)

// TestMergeUnionsDisjointSignals exercises spec.md's scenario S5: two files
// with disjoint signal sets but overlapping times merge into one Waveform
// whose AllTimes is the sorted union and whose per-file signal histories
// are unchanged from a standalone read.
func TestMergeUnionsDisjointSignals(t *testing.T) {
	dir := t.TempDir()

	wfA := waveform.New(nil)
	wfA.TimeScale = -9
	topA := wfA.AddModule("top")
	sigA, err := wfA.AddWire(topA, "a", 1)
	require.NoError(t, err)
	require.NoError(t, wfA.AddValueChangeString(sigA, 0, "0"))
	require.NoError(t, wfA.AddValueChangeString(sigA, 10, "1"))

	wfB := waveform.New(nil)
	wfB.TimeScale = -9
	topB := wfB.AddModule("top")
	sigB, err := wfB.AddWire(topB, "b", 1)
	require.NoError(t, err)
	require.NoError(t, wfB.AddValueChangeString(sigB, 5, "1"))
	require.NoError(t, wfB.AddValueChangeString(sigB, 10, "0"))

	pathA := filepath.Join(dir, "a.vcd")
	pathB := filepath.Join(dir, "b.vcd")
	writeFile(t, pathA, wfA)
	writeFile(t, pathB, wfB)

	merged, err := Merge(nil, []string{pathA, pathB})
	require.NoError(t, err)
	require.Equal(t, []uint64{0, 5, 10}, merged.AllTimes)
	require.Len(t, merged.Signals, 2)

	_, descA, err := merged.Root.FindSignalDesc("top", "a")
	require.NoError(t, err)
	require.Equal(t,
		wfA.Signal(sigA).ChangesInRange(0, math.MaxUint64, wfA.AllTimes),
		merged.Signal(descA.Idx).ChangesInRange(0, math.MaxUint64, merged.AllTimes))

	_, descB, err := merged.Root.FindSignalDesc("top", "b")
	require.NoError(t, err)
	require.Equal(t,
		wfB.Signal(sigB).ChangesInRange(0, math.MaxUint64, wfB.AllTimes),
		merged.Signal(descB.Idx).ChangesInRange(0, math.MaxUint64, merged.AllTimes))
}

// TestMergeUnknownFormatFails checks the §6.3 factory's ErrUnknownFormat
// contract for a file suffix neither codec recognizes.
func TestMergeUnknownFormatFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.bin")
	require.NoError(t, os.WriteFile(path, []byte("irrelevant"), 0o644))

	_, err := Merge(nil, []string{path})
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func writeFile(t *testing.T, path string, wf *waveform.Waveform) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, vcd.NewWriter(nil).Write(&buf, wf))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}
