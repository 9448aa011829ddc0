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

// Package diff implements the waveform comparison SPEC_FULL.md §3.2
// supplements from the original tools/wan-apps/diff.cpp: by-signal and
// by-time reports, a differing-signal/differing-change summary, and a
// re-serialization mode that writes a new Waveform carrying a synthetic
// 1-bit DIFF register per differing signal pair.
package diff

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/paf-sca/wan/scope"
	"github.com/paf-sca/wan/waveform"
	"github.com/paf-sca/wan/waveform/visit"
)

// ErrSignalCountMismatch is returned when the two waveforms declare a
// different number of signals, matching diff.cpp's hard-abort check before
// any per-signal comparison is attempted.
var ErrSignalCountMismatch = errors.New("diff: mismatching number of signals")

// ErrUncomparable is returned when the two waveforms' signal declaration
// order disagrees on scope or name, matching diff.cpp's "Scope mismatch
// while walking the maps" / "Signal name mismatch" abort.
var ErrUncomparable = errors.New("diff: waveforms are not comparable")

// entry is one (fullScopeName, signal) pair collected from a single
// waveform's visit.Walk, analogous to diff.cpp's MySignalDesc.
type entry struct {
	fullScopeName string
	name          string
	kind          scope.SignalKind
	idx           scope.Idx
}

type collector struct {
	entries []entry
}

func (c *collector) EnterScope(*scope.Scope) {}
func (c *collector) LeaveScope()             {}

func (c *collector) VisitSignal(fullScopeName string, desc *scope.SignalDesc) {
	c.entries = append(c.entries, entry{fullScopeName: fullScopeName, name: desc.Name, kind: desc.Kind, idx: desc.Idx})
}

func collect(wf *waveform.Waveform, opts visit.Options) []entry {
	c := &collector{}
	visit.Walk(wf, c, opts)
	sort.SliceStable(c.entries, func(i, j int) bool {
		return c.entries[i].fullScopeName < c.entries[j].fullScopeName
	})
	return c.entries
}

// Difference is one pair of signals (same scope/name on both sides) whose
// change logs differ.
type Difference struct {
	FullScopeName string
	SignalName    string
	Kind          scope.SignalKind
	IdxA, IdxB    scope.Idx
}

// FullSignalName renders "scope/name", matching diff.cpp's getFullSignalName.
func (d Difference) FullSignalName() string {
	return d.FullScopeName + "/" + d.SignalName
}

// Diff is the result of comparing two waveforms under a shared visitor
// filter. A Diff with no Differences means the two waveforms matched
// exactly over every visited signal.
type Diff struct {
	A, B        *waveform.Waveform
	Differences []Difference
}

// Compare walks wfA and wfB under opts and pairs up their signals in
// visitation order (sorted by full scope name, matching diff.cpp's
// multimap-keyed-by-scope iteration), failing ErrSignalCountMismatch or
// ErrUncomparable before comparing any value. A matched pair whose Signal
// content differs (per signal.Signal.Equal) is recorded as a Difference.
func Compare(wfA, wfB *waveform.Waveform, opts visit.Options) (*Diff, error) {
	ea, eb := collect(wfA, opts), collect(wfB, opts)
	if len(ea) != len(eb) {
		return nil, errors.Wrapf(ErrSignalCountMismatch, "%d vs %d", len(ea), len(eb))
	}

	d := &Diff{A: wfA, B: wfB}
	for i := range ea {
		if ea[i].fullScopeName != eb[i].fullScopeName {
			return nil, errors.Wrapf(ErrUncomparable, "scope mismatch: %q vs %q", ea[i].fullScopeName, eb[i].fullScopeName)
		}
		if ea[i].name != eb[i].name {
			return nil, errors.Wrapf(ErrUncomparable, "signal name mismatch: %q vs %q", ea[i].name, eb[i].name)
		}
		sa, sb := wfA.Signal(ea[i].idx), wfB.Signal(eb[i].idx)
		if !sa.Equal(sb) {
			d.Differences = append(d.Differences, Difference{
				FullScopeName: ea[i].fullScopeName,
				SignalName:    ea[i].name,
				Kind:          ea[i].kind,
				IdxA:          ea[i].idx,
				IdxB:          eb[i].idx,
			})
		}
	}
	return d, nil
}

// SignalSummary returns one "scope.name" line per differing signal, with
// any "[msb:lsb]" bus-range suffix stripped, matching dumpSignalSummary.
func (d *Diff) SignalSummary() []string {
	out := make([]string, 0, len(d.Differences))
	for _, diff := range d.Differences {
		name := diff.SignalName
		if i := strings.IndexByte(name, '['); i > 0 {
			name = strings.TrimRight(name[:i], " ")
		}
		out = append(out, diff.FullScopeName+"."+name)
	}
	return out
}

// ModuleSummary returns the distinct set of full scope names carrying at
// least one differing signal, matching dumpModuleSummary.
func (d *Diff) ModuleSummary() []string {
	seen := make(map[string]struct{})
	for _, diff := range d.Differences {
		seen[diff.FullScopeName] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// SignalChange pairs one side's change-log entry with the other's for a
// single mismatched time step.
type SignalChange struct {
	Time   uint64
	ValueA string
	ValueB string
}

// BySignal returns, for each Difference, the list of change steps where
// the two signals' values disagree (stepping the two change logs together
// by index, as diff.cpp's dumpBySignal does — it does not resynchronize
// times on drift, it stops at the shorter of the two logs).
func (d *Diff) BySignal(diffIdx int) []SignalChange {
	diff := d.Differences[diffIdx]
	sa, sb := d.A.Signal(diff.IdxA), d.B.Signal(diff.IdxB)
	n := sa.Len()
	if sb.Len() < n {
		n = sb.Len()
	}
	var out []SignalChange
	for i := 0; i < n; i++ {
		va, vb := sa.ValueAtChange(i), sb.ValueAtChange(i)
		if !va.Equal(vb) {
			ta := sa.TimeAtChange(i, d.A.AllTimes)
			out = append(out, SignalChange{Time: ta, ValueA: va.String(), ValueB: vb.String()})
		}
	}
	return out
}

// ByTime groups every differing time across every Difference, matching
// dumpByTime's "collect the time of differences" pass: the returned slice
// is sorted ascending by time, each entry naming every Difference that
// disagreed at that time.
type TimeGroup struct {
	Time        uint64
	DiffIndices []int
}

func (d *Diff) ByTime() []TimeGroup {
	byTime := make(map[uint64]map[int]struct{})
	addTime := func(t uint64, i int) {
		if byTime[t] == nil {
			byTime[t] = make(map[int]struct{})
		}
		byTime[t][i] = struct{}{}
	}
	for i, diff := range d.Differences {
		sa, sb := d.A.Signal(diff.IdxA), d.B.Signal(diff.IdxB)
		n := sa.Len()
		if sb.Len() < n {
			n = sb.Len()
		}
		for k := 0; k < n; k++ {
			if !sa.ValueAtChange(k).Equal(sb.ValueAtChange(k)) {
				ta := sa.TimeAtChange(k, d.A.AllTimes)
				tb := sb.TimeAtChange(k, d.B.AllTimes)
				addTime(ta, i)
				if tb != ta {
					addTime(tb, i)
				}
			}
		}
	}
	times := make([]uint64, 0, len(byTime))
	for t := range byTime {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	groups := make([]TimeGroup, 0, len(times))
	for _, t := range times {
		idxSet := byTime[t]
		idxs := make([]int, 0, len(idxSet))
		for i := range idxSet {
			idxs = append(idxs, i)
		}
		sort.Ints(idxs)
		groups = append(groups, TimeGroup{Time: t, DiffIndices: idxs})
	}
	return groups
}

// Summary is the counts dumpSignalSummary's callers typically report first:
// how many signals differed and, across them, how many individual change
// steps disagreed.
type Summary struct {
	DifferingSignals int
	DifferingChanges int
}

func (d *Diff) Summarize() Summary {
	s := Summary{DifferingSignals: len(d.Differences)}
	for i := range d.Differences {
		s.DifferingChanges += len(d.BySignal(i))
	}
	return s
}

// Reserialize builds a new Waveform (named fileName, inheriting A's
// StartTime/EndTime/TimeScale per diff.cpp's "same characteristics as W1")
// containing, for every Difference, both original signals (postfixed -A/-B)
// plus a synthetic 1-bit DIFF register sampled on the union of both
// signals' change times, matching dumpToFile.
func (d *Diff) Reserialize(fileName string) (*waveform.Waveform, error) {
	out := waveform.New(nil)
	out.FileName = fileName
	out.StartTime = d.A.StartTime
	out.EndTime = d.A.EndTime
	out.TimeScale = d.A.TimeScale

	// Collect every differing pair's change times up front and pre-populate
	// the shared time axis in one call, matching dumpToFile's single
	// "Times.insert(...)"-then-"W.addTimes(...)" pass across all
	// differences — calling AddTimes once per Difference instead would fail
	// ErrTimeOrderingBroken as soon as a later pair introduced a time below
	// an already-added pair's max.
	allTimes := make(map[uint64]struct{})
	for _, diff := range d.Differences {
		sa, sb := d.A.Signal(diff.IdxA), d.B.Signal(diff.IdxB)
		for i := 0; i < sa.Len(); i++ {
			allTimes[sa.TimeAtChange(i, d.A.AllTimes)] = struct{}{}
		}
		for i := 0; i < sb.Len(); i++ {
			allTimes[sb.TimeAtChange(i, d.B.AllTimes)] = struct{}{}
		}
	}
	sortedTimes := make([]uint64, 0, len(allTimes))
	for t := range allTimes {
		sortedTimes = append(sortedTimes, t)
	}
	sort.Slice(sortedTimes, func(i, j int) bool { return sortedTimes[i] < sortedTimes[j] })
	if err := out.AddTimes(sortedTimes); err != nil {
		return nil, errors.Wrap(err, "diff: reserialize: pre-populating times")
	}

	for _, diff := range d.Differences {
		sa, sb := d.A.Signal(diff.IdxA), d.B.Signal(diff.IdxB)

		union := make(map[uint64]struct{})
		for i := 0; i < sa.Len(); i++ {
			union[sa.TimeAtChange(i, d.A.AllTimes)] = struct{}{}
		}
		for i := 0; i < sb.Len(); i++ {
			union[sb.TimeAtChange(i, d.B.AllTimes)] = struct{}{}
		}
		times := make([]uint64, 0, len(union))
		for t := range union {
			times = append(times, t)
		}
		sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

		base := diff.FullSignalName()
		idxA, err := addSignalOfKind(out, out.Root, base+"-A", diff.Kind, sa.Width())
		if err != nil {
			return nil, err
		}
		for i := 0; i < sa.Len(); i++ {
			t := sa.TimeAtChange(i, d.A.AllTimes)
			if err := out.AddValueChange(idxA, t, sa.ValueAtChange(i)); err != nil {
				return nil, err
			}
		}

		idxB, err := addSignalOfKind(out, out.Root, base+"-B", diff.Kind, sb.Width())
		if err != nil {
			return nil, err
		}
		for i := 0; i < sb.Len(); i++ {
			t := sb.TimeAtChange(i, d.B.AllTimes)
			if err := out.AddValueChange(idxB, t, sb.ValueAtChange(i)); err != nil {
				return nil, err
			}
		}

		diffIdx, err := out.AddRegister(out.Root, base+"-Diff", 1)
		if err != nil {
			return nil, err
		}
		lastEmitted := ""
		for _, t := range times {
			va, okA := sa.ValueAtTime(t, d.A.AllTimes)
			vb, okB := sb.ValueAtTime(t, d.B.AllTimes)
			emit := "0"
			if !okA || !okB || !va.Equal(vb) {
				emit = "1"
			}
			if emit != lastEmitted {
				if err := out.AddValueChangeString(diffIdx, t, emit); err != nil {
					return nil, err
				}
				lastEmitted = emit
			}
		}
	}
	return out, nil
}

func addSignalOfKind(wf *waveform.Waveform, sc *scope.Scope, name string, kind scope.SignalKind, width int) (scope.Idx, error) {
	switch kind {
	case scope.Register:
		return wf.AddRegister(sc, name, width)
	case scope.Integer:
		return wf.AddInteger(sc, name, width)
	default:
		return wf.AddWire(sc, name, width)
	}
}

