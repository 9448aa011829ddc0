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

// Package power implements the Hamming-weight/Hamming-distance power
// estimation SPEC_FULL.md §3.2 supplements from the original
// tools/wan-apps/power.cpp: per-signal popcount collection under a scope
// filter, reduction into fixed-duration segments, and decimation.
package power

import (
	"math/rand"
	"sort"

	"github.com/pkg/errors"

	"github.com/paf-sca/wan/internal/interval"
	"github.com/paf-sca/wan/internal/report"
	"github.com/paf-sca/wan/scope"
	"github.com/paf-sca/wan/waveform"
	"github.com/paf-sca/wan/waveform/visit"
)

// Model selects the estimation function: Weight sums popcount(value) at
// every change, Distance sums popcount(value XOR previousValue).
type Model int

const (
	HammingWeight Model = iota
	HammingDistance
)

// ErrInconsistentSegmentCount is returned when the rows of an Accumulator's
// matrix do not all carry the same number of columns, matching power.cpp's
// HammingVisitor::check() post-condition.
var ErrInconsistentSegmentCount = errors.New("power: inconsistent sample count across segments")

// Accumulator collects per-time Hamming figures across one or more
// waveforms, reducing each into segment-indexed columns of a shared matrix
// keyed by time-within-segment, exactly as power.cpp's HammingVisitor does
// with its PowerTmp/Power maps.
type Accumulator struct {
	model    Model
	opts     visit.Options
	reporter report.Reporter
	power    map[uint64][]float64
}

// New returns an empty Accumulator for model, visiting signals under opts.
// rep receives a diagnostic for every signal that matched the filter but
// carried no changes (empty signals contribute nothing to either model and
// are otherwise silently skipped); a nil rep drops these diagnostics.
func New(model Model, opts visit.Options, rep report.Reporter) *Accumulator {
	return &Accumulator{model: model, opts: opts, reporter: rep, power: make(map[uint64][]float64)}
}

type collector struct {
	model    Model
	wf       *waveform.Waveform
	reporter report.Reporter
	tmp      map[uint64]float64
}

func (c *collector) EnterScope(*scope.Scope) {}
func (c *collector) LeaveScope()             {}

func (c *collector) VisitSignal(fullScopeName string, desc *scope.SignalDesc) {
	sig := c.wf.Signal(desc.Idx)
	n := sig.Len()
	if n == 0 {
		if c.reporter != nil {
			c.reporter.Error(c.wf.FileName, 0, "signal "+fullScopeName+"."+desc.Name+" has no recorded changes")
		}
		return
	}
	switch c.model {
	case HammingWeight:
		for i := 0; i < n; i++ {
			t := sig.TimeAtChange(i, c.wf.AllTimes)
			c.tmp[t] += float64(sig.ValueAtChange(i).OnesCount())
		}
	case HammingDistance:
		prev := sig.ValueAtChange(0)
		for i := 0; i < n; i++ {
			cur := sig.ValueAtChange(i)
			xor, err := cur.Xor(prev)
			if err == nil {
				t := sig.TimeAtChange(i, c.wf.AllTimes)
				c.tmp[t] += float64(xor.OnesCount())
			}
			prev = cur
		}
	}
}

// Process visits wf under the Accumulator's filter, sums every matching
// signal's contribution per absolute time, then reduces those sums into
// segments (segments == nil means the whole [wf.StartTime, wf.EndTime]
// span, EndTime included, is treated as one segment, power.cpp's
// "no run.info" fallback).
// Every call appends one new column per segment to every row of the
// shared matrix, so processing N files with R segments each yields an
// N*R-column matrix.
func (a *Accumulator) Process(wf *waveform.Waveform, segments []interval.Interval) error {
	if len(segments) == 0 {
		segments = []interval.Interval{{Start: wf.StartTime, End: wf.EndTime + 1}}
	}

	c := &collector{model: a.model, wf: wf, reporter: a.reporter, tmp: make(map[uint64]float64)}
	visit.Walk(wf, c, a.opts)

	times := make([]uint64, 0, len(c.tmp))
	for t := range c.tmp {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	existingWidth := 0
	for _, row := range a.power {
		existingWidth = len(row)
		break
	}
	newWidth := existingWidth + len(segments)
	for t, row := range a.power {
		a.power[t] = append(row, make([]float64, newWidth-len(row))...)
	}

	inSegment := false
	var cur interval.Interval
	segIdx := 0
	for _, t := range times {
		if !inSegment {
			for i, s := range segments {
				if s.Contains(t) {
					cur, segIdx, inSegment = s, i, true
					break
				}
			}
		} else if t >= cur.End {
			inSegment = false
			for i, s := range segments {
				if s.Contains(t) {
					cur, segIdx, inSegment = s, i, true
					break
				}
			}
		}
		if !inSegment {
			continue
		}
		rel := t - cur.Start
		row, ok := a.power[rel]
		if !ok {
			row = make([]float64, newWidth)
			a.power[rel] = row
		}
		row[existingWidth+segIdx] = c.tmp[t]
	}
	return nil
}

// Check verifies every row has the same column count, matching
// HammingVisitor::check()'s invariant.
func (a *Accumulator) Check() error {
	n := -1
	for t, row := range a.power {
		if n == -1 {
			n = len(row)
		} else if len(row) != n {
			return errors.Wrapf(ErrInconsistentSegmentCount, "at relative time %d: %d vs %d", t, n, len(row))
		}
	}
	return nil
}

// AddNoise adds independent Gaussian noise (mean 0, the given stddev) to
// every sample, via rng — pass a seeded *rand.Rand for reproducible tests,
// matching power.cpp's --no-noise toggle (omit the call to skip it).
func (a *Accumulator) AddNoise(stddev float64, rng *rand.Rand) {
	for _, row := range a.power {
		for i := range row {
			row[i] += rng.NormFloat64() * stddev
		}
	}
}

// Matrix renders the accumulated samples as spec.md's S6 scenario
// describes: row count equals the number of distinct relative times seen
// across every processed segment, row index ascending by relative time,
// column count equals the total number of segments reduced in.
func (a *Accumulator) Matrix() [][]float64 {
	times := make([]uint64, 0, len(a.power))
	for t := range a.power {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	out := make([][]float64, len(times))
	for i, t := range times {
		out[i] = a.power[t]
	}
	return out
}

// Decimate keeps every period-th row of rows starting at offset, matching
// power.cpp's dumpAsCSV(period, offset) output filter.
func Decimate(rows [][]float64, period, offset int) [][]float64 {
	if period <= 0 {
		period = 1
	}
	var out [][]float64
	for i, row := range rows {
		if i%period == offset {
			out = append(out, row)
		}
	}
	return out
}
