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
	"sort"

	"github.com/pkg/errors"

	"github.com/paf-sca/wan/logic"
)

var (
	// ErrNonMonotonicAppend is returned by Append when the requested time
	// index is strictly less than the last recorded one.
	ErrNonMonotonicAppend = errors.New("signal: append time index is not monotonically increasing")
	// ErrWidthOverflow is returned when a value string carries more bits
	// than the signal's width.
	ErrWidthOverflow = errors.New("signal: appended value wider than signal")
)

// Change is a materialized (time, value) pair, re-read from the packed
// storage. It is a value type so callers can buffer slices of them for
// diffing or merging without holding onto the Signal.
type Change struct {
	Time  uint64
	Value *logic.BitVector
}

// Signal is the packed change log of one waveform signal, over a shared time
// axis it never stores itself: per spec.md §9, the arena (the time axis)
// lives on the Waveform, and every operation that needs it takes the
// caller's []uint64 as a parameter instead of back-pointing into it.
type Signal struct {
	width   int
	timeIdx []uint32 // indices into the waveform's shared time axis
	packed  []Pack   // len == width * ceil(N/PackCapacity)
}

// New returns an empty Signal of the given bit width.
func New(width int) *Signal {
	if width < 1 {
		panic("signal: width must be >= 1")
	}
	return &Signal{width: width}
}

// Width returns the fixed bit width.
func (s *Signal) Width() int { return s.width }

// Len returns the number of recorded changes, N.
func (s *Signal) Len() int { return len(s.timeIdx) }

// Append records a change at the given index into the shared time axis. If
// timeIdx equals the index of the previous change, the previous change is
// overwritten (multiple writes collapse to the last one). If timeIdx is
// less than the previous one, it fails ErrNonMonotonicAppend.
func (s *Signal) Append(timeIdx uint32, v *logic.BitVector) error {
	if v.Width() != s.width {
		return errors.Wrapf(logic.ErrWidthMismatch, "signal width %d, value width %d", s.width, v.Width())
	}
	return s.appendRaw(timeIdx, func(k int) {
		for b := 0; b < s.width; b++ {
			s.setBit(k, b, v.Bit(b))
		}
	})
}

// AppendString records a change from a value string written most-significant
// bit first (its last character is bit 0), matching
// Append's monotonicity contract. Strings longer than the signal width fail
// ErrWidthOverflow; shorter strings zero-extend on the most-significant
// side.
func (s *Signal) AppendString(timeIdx uint32, bits string) error {
	if len(bits) > s.width {
		return errors.Wrapf(ErrWidthOverflow, "value %q wider than %d bits", bits, s.width)
	}
	return s.appendRaw(timeIdx, func(k int) {
		for b := 0; b < s.width; b++ {
			if b < len(bits) {
				v, err := logic.ValueFromChar(bits[len(bits)-1-b])
				if err != nil {
					v = logic.Unknown
				}
				s.setBit(k, b, v)
			} else {
				s.setBit(k, b, logic.Low)
			}
		}
	})
}

func (s *Signal) appendRaw(timeIdx uint32, write func(k int)) error {
	n := len(s.timeIdx)
	if n > 0 {
		last := s.timeIdx[n-1]
		switch {
		case timeIdx < last:
			return errors.Wrapf(ErrNonMonotonicAppend, "new index %d < last %d", timeIdx, last)
		case timeIdx == last:
			write(n - 1)
			return nil
		}
	}
	// New change at index k = n.
	k := n
	if k%PackCapacity == 0 {
		s.packed = append(s.packed, make([]Pack, s.width)...)
	}
	s.timeIdx = append(s.timeIdx, timeIdx)
	write(k)
	return nil
}

func (s *Signal) column(k int) int { return (k / PackCapacity) * s.width }

func (s *Signal) setBit(k, b int, v logic.Value) {
	idx := s.column(k) + b
	slot := k % PackCapacity
	p := s.packed[idx]
	p.setSlot(slot, v)
	s.packed[idx] = p
}

func (s *Signal) bit(k, b int) logic.Value {
	idx := s.column(k) + b
	slot := k % PackCapacity
	return s.packed[idx].slot(slot)
}

// ValueAtChange reconstructs the value recorded at change k.
func (s *Signal) ValueAtChange(k int) *logic.BitVector {
	bv := logic.New(s.width)
	for b := 0; b < s.width; b++ {
		bv.SetBit(b, s.bit(k, b))
	}
	return bv
}

// TimeAtChange returns the absolute time of change k, resolved against the
// caller-supplied shared time axis.
func (s *Signal) TimeAtChange(k int, allTimes []uint64) uint64 {
	return allTimes[s.timeIdx[k]]
}

// ChangeUpperBound returns the index of the first recorded change whose
// time is strictly greater than t, or N if none. It performs the two
// binary searches described in spec.md §4.2: first into allTimes, to find
// the first element not <= t, then into the signal's own time-index array,
// to find the first element referencing an allTimes index at or past that
// point.
func (s *Signal) ChangeUpperBound(t uint64, allTimes []uint64) int {
	timeIdx := sort.Search(len(allTimes), func(i int) bool { return allTimes[i] > t })
	return sort.Search(len(s.timeIdx), func(i int) bool { return int(s.timeIdx[i]) >= timeIdx })
}

// ChangeLowerBound returns ChangeUpperBound(t)-1, or N if the upper bound
// is 0 (no recorded change at or before t).
func (s *Signal) ChangeLowerBound(t uint64, allTimes []uint64) int {
	upper := s.ChangeUpperBound(t, allTimes)
	if upper == 0 {
		return len(s.timeIdx)
	}
	return upper - 1
}

// ChangeBounds returns both ChangeLowerBound and ChangeUpperBound in one
// pass's worth of searches.
func (s *Signal) ChangeBounds(t uint64, allTimes []uint64) (lower, upper int) {
	upper = s.ChangeUpperBound(t, allTimes)
	if upper == 0 {
		lower = len(s.timeIdx)
	} else {
		lower = upper - 1
	}
	return lower, upper
}

// ValueAtTime returns the value of the change whose time is <= t and whose
// successor's time is > t. ok is false if no such change exists (t precedes
// every recorded change).
func (s *Signal) ValueAtTime(t uint64, allTimes []uint64) (v *logic.BitVector, ok bool) {
	k := s.ChangeLowerBound(t, allTimes)
	if k >= len(s.timeIdx) {
		return nil, false
	}
	return s.ValueAtChange(k), true
}

// changeAtOrAfter returns the index of the first recorded change whose time
// is >= t, or N if none. Unlike ChangeUpperBound/ChangeLowerBound (which
// spec.md §4.2 defines in terms of strictly-greater-than t), this is an
// inclusive-of-t lookup, used for the half-open windows ChangesInRange
// needs; it avoids the uint64 underflow an off-by-one via ChangeUpperBound
// would invite at t == 0.
func (s *Signal) changeAtOrAfter(t uint64, allTimes []uint64) int {
	timeIdx := sort.Search(len(allTimes), func(i int) bool { return allTimes[i] >= t })
	return sort.Search(len(s.timeIdx), func(i int) bool { return int(s.timeIdx[i]) >= timeIdx })
}

// ChangesInRange materializes every change with fromTime <= time < toTime.
// It is not part of spec.md's core contract; it is the windowed accessor
// PAF's Signal.h exposes (see SPEC_FULL.md §3.2).
func (s *Signal) ChangesInRange(fromTime, toTime uint64, allTimes []uint64) []Change {
	from := s.changeAtOrAfter(fromTime, allTimes)
	to := s.changeAtOrAfter(toTime, allTimes)
	out := make([]Change, 0, to-from)
	for k := from; k < to; k++ {
		out = append(out, Change{Time: s.TimeAtChange(k, allTimes), Value: s.ValueAtChange(k)})
	}
	return out
}

// Equal reports whether s and o have the same width, the same number of
// changes, and byte-identical time-index and packed arrays. Names and kinds
// are not part of a Signal and so play no part in equality.
func (s *Signal) Equal(o *Signal) bool {
	if s.width != o.width || len(s.timeIdx) != len(o.timeIdx) {
		return false
	}
	for i := range s.timeIdx {
		if s.timeIdx[i] != o.timeIdx[i] {
			return false
		}
	}
	for i := range s.packed {
		if s.packed[i] != o.packed[i] {
			return false
		}
	}
	return true
}

// Iterator returns a random-access iterator over this signal's changes,
// resolved against allTimes. Per spec.md §9, this package exposes
// Get/Len rather than user-defined iterator arithmetic; callers needing
// strided or merge-scan access (the differ, the merger) manage indices
// themselves.
type Iterator struct {
	s        *Signal
	allTimes []uint64
}

// NewIterator returns an Iterator over s resolved against allTimes.
func NewIterator(s *Signal, allTimes []uint64) Iterator {
	return Iterator{s: s, allTimes: allTimes}
}

// Len returns the number of changes, N.
func (it Iterator) Len() int { return it.s.Len() }

// Get returns the change at index k.
func (it Iterator) Get(k int) Change {
	return Change{Time: it.s.TimeAtChange(k, it.allTimes), Value: it.s.ValueAtChange(k)}
}
