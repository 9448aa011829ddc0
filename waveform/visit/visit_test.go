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

package visit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paf-sca/wan/scope"
	"github.com/paf-sca/wan/waveform"
)

type recorder struct {
	entered []string
	left    int
	signals []string
}

func (r *recorder) EnterScope(s *scope.Scope) { r.entered = append(r.entered, s.FullScopeName) }
func (r *recorder) LeaveScope()               { r.left++ }
func (r *recorder) VisitSignal(full string, d *scope.SignalDesc) {
	r.signals = append(r.signals, full+"."+d.Name)
}

func buildTbench(t *testing.T) *waveform.Waveform {
	w := waveform.New(nil)
	tbench := w.AddModule("tbench")
	_, err := w.AddWire(tbench, "clk", 1)
	require.NoError(t, err)

	dut := tbench.AddScope("DUT", scope.Module)
	_, err = w.AddRegister(dut, "state", 4)
	require.NoError(t, err)
	_, err = w.AddWire(dut, "valid", 1)
	require.NoError(t, err)

	other := tbench.AddScope("other", scope.Module)
	_, err = w.AddWire(other, "x", 1)
	require.NoError(t, err)

	return w
}

func TestWalkOrderAndRootNeverAnnounced(t *testing.T) {
	w := buildTbench(t)
	r := &recorder{}
	Walk(w, r, Options{})

	require.Equal(t, []string{"tbench", "tbench.DUT", "tbench.other"}, r.entered)
	require.Equal(t, 3, r.left)
	require.Equal(t, []string{"tbench.clk", "tbench.DUT.state", "tbench.DUT.valid", "tbench.other.x"}, r.signals)
}

func TestAllSkipFlagsYieldNoSignals(t *testing.T) {
	w := buildTbench(t)
	r := &recorder{}
	Walk(w, r, Options{SkipRegisters: true, SkipWires: true, SkipIntegers: true})
	require.Empty(t, r.signals)
	require.NotEmpty(t, r.entered) // scopes are still walked
}

func TestScopeFilterDUTPrefix(t *testing.T) {
	w := buildTbench(t)
	r := &recorder{}
	Walk(w, r, Options{ScopeFilters: []string{"tbench.DUT"}})

	require.Equal(t, []string{"tbench.DUT.state", "tbench.DUT.valid"}, r.signals)
}

func TestScopeFilterRawPrefixIgnoresDotBoundary(t *testing.T) {
	// "tbench.D" is a raw (non-dotted-boundary) prefix of "tbench.DUT" and
	// still matches it (spec.md §8's example), per the original's raw
	// string-size/prefix comparison.
	w := buildTbench(t)
	r := &recorder{}
	Walk(w, r, Options{ScopeFilters: []string{"tbench.D"}})
	require.Equal(t, []string{"tbench.DUT.state", "tbench.DUT.valid"}, r.signals)
	require.NotContains(t, r.signals, "tbench.other.x")
}

func TestScopeFilterAncestorEntersOnly(t *testing.T) {
	w := buildTbench(t)
	r := &recorder{}
	Walk(w, r, Options{ScopeFilters: []string{"tbench.DUT"}})
	// "tbench" is a proper prefix of the filter -> ENTER_SCOPE_ONLY: entered
	// but its own direct signal (clk) is not emitted.
	require.Contains(t, r.entered, "tbench")
	require.NotContains(t, r.signals, "tbench.clk")
}
