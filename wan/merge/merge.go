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

// Package merge implements spec.md §4.8: read N waveform files, union their
// change-times, then re-read each file's scopes/signals/changes into one
// shared-time-axis Waveform. It is grounded on the "read many, write one"
// shape of block compaction, applied here to an in-memory merge rather than
// a new on-disk block: open every input once for the cheap quick-times
// scan, then a second time for the full overlay read.
package merge

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-kit/log"
	"github.com/pkg/errors"

	"github.com/paf-sca/wan/waveform"
	"github.com/paf-sca/wan/wan/fst"
	"github.com/paf-sca/wan/wan/vcd"
)

// ErrUnknownFormat is returned by the suffix-based codec dispatch (spec.md
// §6.3's factory contract) for a file extension neither codec recognizes.
var ErrUnknownFormat = errors.New("merge: unknown waveform file format")

// reader is the common surface both wan/vcd.Reader and wan/fst.Reader
// implement, letting Merge dispatch on file suffix without a type switch at
// every call site.
type reader interface {
	Read(r io.Reader, fileName string) (*waveform.Waveform, error)
	ReadInto(r io.Reader, wf *waveform.Waveform, fileName string) error
}

func readerFor(logger log.Logger, fileName string) (reader, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".vcd":
		return vcd.NewReader(logger), nil
	case ".fst":
		return fst.NewReader(logger), nil
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "%q", fileName)
	}
}

// QuickTimes dispatches to the matching codec's restricted scan (spec.md
// §4.6.3/§4.7's quick-times contract), without building a Waveform.
func QuickTimes(r io.Reader, fileName string) (times []uint64, timeScale int, err error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".vcd":
		return vcd.QuickTimes(r)
	case ".fst":
		return fst.QuickTimes(r)
	default:
		return nil, 0, errors.Wrapf(ErrUnknownFormat, "%q", fileName)
	}
}

// unionTimes implements §4.8 point 1: collect every file's quick-times scan
// into one sorted, duplicate-free set.
func unionTimes(files []string) ([]uint64, error) {
	seen := make(map[uint64]struct{})
	for _, f := range files {
		fh, err := os.Open(f)
		if err != nil {
			return nil, errors.Wrapf(err, "merge: opening %q for quick-times scan", f)
		}
		times, _, err := QuickTimes(fh, f)
		closeErr := fh.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "merge: quick-times scan of %q", f)
		}
		if closeErr != nil {
			return nil, errors.Wrapf(closeErr, "merge: closing %q", f)
		}
		for _, t := range times {
			seen[t] = struct{}{}
		}
	}
	union := make([]uint64, 0, len(seen))
	for t := range seen {
		union = append(union, t)
	}
	sort.Slice(union, func(i, j int) bool { return union[i] < union[j] })
	return union, nil
}

// Merge implements spec.md §4.8 in full: files must be non-empty, and
// failure to read any one of them aborts the whole operation, leaving no
// usable partial result (§5's "a partially-read Waveform after an error is
// not re-usable").
func Merge(logger log.Logger, files []string) (*waveform.Waveform, error) {
	if len(files) == 0 {
		return nil, errors.New("merge: no files given")
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	union, err := unionTimes(files)
	if err != nil {
		return nil, err
	}

	wf := waveform.New(logger)
	wf.FileName = files[0]
	if err := wf.AddTimes(union); err != nil {
		return nil, errors.Wrap(err, "merge: pre-populating union time axis")
	}

	for _, f := range files {
		rd, err := readerFor(logger, f)
		if err != nil {
			return nil, err
		}
		fh, err := os.Open(f)
		if err != nil {
			return nil, errors.Wrapf(err, "merge: opening %q", f)
		}
		err = rd.ReadInto(fh, wf, f)
		closeErr := fh.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "merge: reading %q", f)
		}
		if closeErr != nil {
			return nil, errors.Wrapf(closeErr, "merge: closing %q", f)
		}
	}
	return wf, nil
}
