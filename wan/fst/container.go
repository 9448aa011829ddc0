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
	"hash/crc32"
	"io"

	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

var crcTable = crc32.MakeTable(crc32.Castagnoli)

// writeSection LZ4-packs payload and writes it framed as
// varint(len(compressed)) + crc32(compressed) + compressed bytes, matching
// vendor/github.com/fabxc/tsdb/writer.go's length-prefixed, checksummed
// section style.
func writeSection(w *bufio.Writer, payload []byte) error {
	var compressed bytes.Buffer
	lw := lz4.NewWriter(&compressed)
	if _, err := lw.Write(payload); err != nil {
		return errors.Wrap(err, "fst: lz4 compress")
	}
	if err := lw.Close(); err != nil {
		return errors.Wrap(err, "fst: lz4 compress")
	}

	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(compressed.Len()))
	if _, err := w.Write(lenBuf[:n]); err != nil {
		return err
	}
	sum := crc32.Checksum(compressed.Bytes(), crcTable)
	var crcBuf [4]byte
	binary.BigEndian.PutUint32(crcBuf[:], sum)
	if _, err := w.Write(crcBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(compressed.Bytes())
	return err
}

// readSection reverses writeSection, verifying the checksum and returning
// the decompressed payload.
func readSection(r *bufio.Reader) ([]byte, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, errors.Wrap(ErrTruncated, "reading section length")
	}
	var crcBuf [4]byte
	if _, err := io.ReadFull(r, crcBuf[:]); err != nil {
		return nil, errors.Wrap(ErrTruncated, "reading section checksum")
	}
	compressed := make([]byte, n)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, errors.Wrap(ErrTruncated, "reading section body")
	}
	if want, got := binary.BigEndian.Uint32(crcBuf[:]), crc32.Checksum(compressed, crcTable); want != got {
		return nil, errors.Wrapf(ErrChecksumMismatch, "want %x got %x", want, got)
	}
	var out bytes.Buffer
	lr := lz4.NewReader(bytes.NewReader(compressed))
	if _, err := io.Copy(&out, lr); err != nil {
		return nil, errors.Wrap(err, "fst: lz4 decompress")
	}
	return out.Bytes(), nil
}

func putUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func putString(buf *bytes.Buffer, s string) {
	putUvarint(buf, uint64(len(s)))
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return "", errors.Wrap(ErrTruncated, "reading string length")
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", errors.Wrap(ErrTruncated, "reading string body")
	}
	return string(buf), nil
}

// zigzag encodes a signed exponent (TimeScale may be negative) as an
// unsigned varint, matching the convention binary.PutVarint uses
// internally.
func zigzagEncode(v int) uint64 {
	x := int64(v)
	return uint64((x << 1) ^ (x >> 63))
}

func zigzagDecode(u uint64) int {
	x := int64(u>>1) ^ -int64(u&1)
	return int(x)
}
