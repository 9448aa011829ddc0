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
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/paf-sca/wan/logic"
	"github.com/paf-sca/wan/scope"
	"github.com/paf-sca/wan/waveform"
)

type pendingChange struct {
	handle int
	width  int
	value  *logic.BitVector
}

// encodeValueChanges implements spec.md §4.7 point 2's coalescing
// algorithm: a per-signal cursor into its own change log, advanced for
// every time in ascending order, grouping all signals whose next
// unprocessed change lands on that time into one record. It asserts every
// cursor reaches its signal's length, matching the "assert at end that
// every signal iterator reached end" requirement.
func encodeValueChanges(wf *waveform.Waveform, order []scope.Idx, handles map[scope.Idx]int) ([]byte, error) {
	cursors := make([]int, len(order))

	var times []uint64
	var groups [][]pendingChange
	for _, t := range wf.AllTimes {
		var cs []pendingChange
		for i, idx := range order {
			sig := wf.Signal(idx)
			for cursors[i] < sig.Len() && sig.TimeAtChange(cursors[i], wf.AllTimes) == t {
				cs = append(cs, pendingChange{
					handle: handles[idx],
					width:  sig.Width(),
					value:  sig.ValueAtChange(cursors[i]),
				})
				cursors[i]++
			}
		}
		if len(cs) > 0 {
			times = append(times, t)
			groups = append(groups, cs)
		}
	}
	for i, idx := range order {
		if cursors[i] != wf.Signal(idx).Len() {
			return nil, errors.Wrapf(ErrIteratorNotExhausted, "signal idx %d: cursor %d of %d", idx, cursors[i], wf.Signal(idx).Len())
		}
	}

	var buf bytes.Buffer
	putUvarint(&buf, uint64(len(times)))
	for gi, t := range times {
		putUvarint(&buf, t)
		cs := groups[gi]
		putUvarint(&buf, uint64(len(cs)))
		for _, c := range cs {
			putUvarint(&buf, uint64(c.handle))
			putUvarint(&buf, uint64(c.width))
			buf.WriteString(c.value.String())
		}
	}
	return buf.Bytes(), nil
}

// decodeValueChanges replays a serialized value-change block into wf,
// resolving each record's handle through handleToIdx (populated by
// decodeHierarchy) and failing ErrDanglingFstAlias for a handle no VAR
// record ever declared.
func decodeValueChanges(data []byte, wf *waveform.Waveform, handleToIdx map[int]scope.Idx) error {
	r := bytes.NewReader(data)
	numGroups, err := binary.ReadUvarint(r)
	if err != nil {
		return errors.Wrap(ErrTruncated, "reading group count")
	}
	for g := uint64(0); g < numGroups; g++ {
		t, err := binary.ReadUvarint(r)
		if err != nil {
			return errors.Wrap(ErrTruncated, "reading group time")
		}
		numChanges, err := binary.ReadUvarint(r)
		if err != nil {
			return errors.Wrap(ErrTruncated, "reading change count")
		}
		for c := uint64(0); c < numChanges; c++ {
			handle, err := binary.ReadUvarint(r)
			if err != nil {
				return errors.Wrap(ErrTruncated, "reading handle")
			}
			width, err := binary.ReadUvarint(r)
			if err != nil {
				return errors.Wrap(ErrTruncated, "reading width")
			}
			bits := make([]byte, width)
			if _, err := io.ReadFull(r, bits); err != nil {
				return errors.Wrap(ErrTruncated, "reading value bits")
			}
			idx, ok := handleToIdx[int(handle)]
			if !ok {
				return errors.Wrapf(ErrDanglingFstAlias, "value change handle %d", handle)
			}
			if err := wf.AddValueChangeString(idx, t, string(bits)); err != nil {
				return err
			}
		}
	}
	return nil
}
