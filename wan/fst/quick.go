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
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// QuickTimes implements spec.md §4.6.3's restricted scan for the FST
// container: it reads only the magic/version/metadata header (for
// TimeScale), skips the hierarchy section whole, and then walks the
// value-change section's group records for their times, skipping over the
// handle/width/value-bit fields of every change within a group rather than
// resolving them against a hierarchy.
func QuickTimes(r io.Reader) ([]uint64, int, error) {
	br := bufio.NewReader(r)
	meta, err := readHeader(br)
	if err != nil {
		return nil, 0, errors.Wrap(err, "fst: quick-times header")
	}
	if _, err := readSection(br); err != nil {
		return nil, 0, errors.Wrap(err, "fst: quick-times skip hierarchy")
	}
	data, err := readSection(br)
	if err != nil {
		return nil, 0, errors.Wrap(err, "fst: quick-times value changes")
	}

	vr := bytes.NewReader(data)
	numGroups, err := binary.ReadUvarint(vr)
	if err != nil {
		return nil, 0, errors.Wrap(ErrTruncated, "fst: quick-times reading group count")
	}
	times := make([]uint64, 0, numGroups)
	for g := uint64(0); g < numGroups; g++ {
		t, err := binary.ReadUvarint(vr)
		if err != nil {
			return nil, 0, errors.Wrap(ErrTruncated, "fst: quick-times reading group time")
		}
		times = append(times, t)
		numChanges, err := binary.ReadUvarint(vr)
		if err != nil {
			return nil, 0, errors.Wrap(ErrTruncated, "fst: quick-times reading change count")
		}
		for c := uint64(0); c < numChanges; c++ {
			if _, err := binary.ReadUvarint(vr); err != nil { // handle
				return nil, 0, errors.Wrap(ErrTruncated, "fst: quick-times reading handle")
			}
			width, err := binary.ReadUvarint(vr)
			if err != nil {
				return nil, 0, errors.Wrap(ErrTruncated, "fst: quick-times reading width")
			}
			if _, err := vr.Seek(int64(width), io.SeekCurrent); err != nil {
				return nil, 0, errors.Wrap(ErrTruncated, "fst: quick-times skipping value bits")
			}
		}
	}
	return times, meta.timeScale, nil
}
