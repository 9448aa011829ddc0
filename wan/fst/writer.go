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

// Writer serializes a *waveform.Waveform into the binary container: a
// magic/version/metadata header, an LZ4-packed hierarchy section, and an
// LZ4-packed value-change section, each length-prefixed and CRC32-checked.
type Writer struct {
	logger log.Logger
}

// NewWriter returns a Writer. logger may be nil.
func NewWriter(logger log.Logger) *Writer {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Writer{logger: logger}
}

// Write serializes wf in full.
func (wr *Writer) Write(w io.Writer, wf *waveform.Waveform) error {
	bw := bufio.NewWriter(w)
	if err := writeHeader(bw, wf); err != nil {
		return errors.Wrap(err, "fst: writing header")
	}

	hierData, handles, order := encodeHierarchy(wf)
	if err := writeSection(bw, hierData); err != nil {
		return errors.Wrap(err, "fst: writing hierarchy section")
	}

	vcData, err := encodeValueChanges(wf, order, handles)
	if err != nil {
		return errors.Wrap(err, "fst: encoding value changes")
	}
	if err := writeSection(bw, vcData); err != nil {
		return errors.Wrap(err, "fst: writing value-change section")
	}
	return bw.Flush()
}
