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
	"io"

	"github.com/go-kit/log"
	"github.com/pkg/errors"

	"github.com/paf-sca/wan/waveform"
)

// Reader parses the binary container into a *waveform.Waveform.
type Reader struct {
	logger log.Logger
}

// NewReader returns a Reader. logger may be nil.
func NewReader(logger log.Logger) *Reader {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Reader{logger: logger}
}

// Read parses r in full: header, hierarchy section, value-change section.
func (rd *Reader) Read(r io.Reader, fileName string) (*waveform.Waveform, error) {
	wf := waveform.New(rd.logger)
	wf.FileName = fileName
	if err := rd.ReadInto(r, wf, fileName); err != nil {
		return nil, err
	}
	return wf, nil
}

// ReadInto parses r against an already-populated wf, mirroring
// wan/vcd.Reader.ReadInto for wan/merge's §4.8 overlay step (the merge
// package calls ReadInto for every file). The header metadata is applied
// only while wf has no Version, Date, Comment and no Signals, so a merge
// keeps the first file's Version/Date/Comment per spec.md §4.8 point 2.
func (rd *Reader) ReadInto(r io.Reader, wf *waveform.Waveform, fileName string) error {
	br := bufio.NewReader(r)
	meta, err := readHeader(br)
	if err != nil {
		return errors.Wrapf(err, "%s: reading header", fileName)
	}
	if wf.Version == "" && wf.Date == "" && wf.Comment == "" && len(wf.Signals) == 0 {
		wf.Version = meta.version
		wf.Date = meta.date
		wf.Comment = meta.comment
		wf.TimeScale = meta.timeScale
		wf.TimeZero = meta.timeZero
		wf.StartTime = meta.startTime
		wf.EndTime = meta.endTime
	}

	hierData, err := readSection(br)
	if err != nil {
		return errors.Wrapf(err, "%s: reading hierarchy section", fileName)
	}
	handleToIdx, err := decodeHierarchy(hierData, wf)
	if err != nil {
		return errors.Wrapf(err, "%s: decoding hierarchy", fileName)
	}

	vcData, err := readSection(br)
	if err != nil {
		return errors.Wrapf(err, "%s: reading value-change section", fileName)
	}
	if err := decodeValueChanges(vcData, wf, handleToIdx); err != nil {
		return errors.Wrapf(err, "%s: decoding value changes", fileName)
	}
	return nil
}
