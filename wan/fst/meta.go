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

	"github.com/paf-sca/wan/waveform"
)

// metadata is the container header: everything on Waveform that isn't the
// scope tree, the signal store or the time axis itself.
type metadata struct {
	version   string
	date      string
	comment   string
	timeScale int
	timeZero  uint64
	startTime uint64
	endTime   uint64
}

func writeHeader(w *bufio.Writer, wf *waveform.Waveform) error {
	var magicBuf [4]byte
	binary.BigEndian.PutUint32(magicBuf[:], MagicFST)
	if _, err := w.Write(magicBuf[:]); err != nil {
		return err
	}
	if err := w.WriteByte(formatVersion); err != nil {
		return err
	}

	var buf bytes.Buffer
	putString(&buf, wf.Version)
	putString(&buf, wf.Date)
	putString(&buf, wf.Comment)
	putUvarint(&buf, zigzagEncode(wf.TimeScale))
	putUvarint(&buf, wf.TimeZero)
	putUvarint(&buf, wf.StartTime)
	putUvarint(&buf, wf.EndTime)
	return writeSection(w, buf.Bytes())
}

func readHeader(r *bufio.Reader) (*metadata, error) {
	var magicBuf [4]byte
	if _, err := io.ReadFull(r, magicBuf[:]); err != nil {
		return nil, errors.Wrap(ErrTruncated, "reading magic")
	}
	if binary.BigEndian.Uint32(magicBuf[:]) != MagicFST {
		return nil, ErrBadMagic
	}
	verByte, err := r.ReadByte()
	if err != nil {
		return nil, errors.Wrap(ErrTruncated, "reading format version")
	}
	if verByte != formatVersion {
		return nil, ErrUnsupportedVersion
	}

	data, err := readSection(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading metadata section")
	}
	br := bytes.NewReader(data)
	version, err := readString(br)
	if err != nil {
		return nil, err
	}
	date, err := readString(br)
	if err != nil {
		return nil, err
	}
	comment, err := readString(br)
	if err != nil {
		return nil, err
	}
	tsRaw, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, errors.Wrap(ErrTruncated, "reading timescale")
	}
	timeZero, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, errors.Wrap(ErrTruncated, "reading timezero")
	}
	startTime, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, errors.Wrap(ErrTruncated, "reading start_time")
	}
	endTime, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, errors.Wrap(ErrTruncated, "reading end_time")
	}
	return &metadata{
		version: version, date: date, comment: comment,
		timeScale: zigzagDecode(tsRaw), timeZero: timeZero,
		startTime: startTime, endTime: endTime,
	}, nil
}
