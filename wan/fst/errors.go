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

import "github.com/pkg/errors"

var (
	ErrBadMagic            = errors.New("fst: bad magic number")
	ErrUnsupportedVersion  = errors.New("fst: unsupported container format version")
	ErrChecksumMismatch    = errors.New("fst: section checksum mismatch")
	ErrTruncated           = errors.New("fst: truncated section")
	ErrUnknownScopeKind    = errors.New("fst: unrecognized scope kind tag")
	ErrUnknownSignalKind   = errors.New("fst: unrecognized signal kind tag")
	ErrUnknownRecordTag    = errors.New("fst: unrecognized hierarchy record tag")
	// ErrDanglingFstAlias is spec.md §4.7's named error: a VAR record flags
	// itself as an alias of a handle that was never previously created.
	ErrDanglingFstAlias = errors.New("fst: alias references unknown handle")
	// ErrIteratorNotExhausted is the write-time assertion failure of
	// spec.md §4.7.2: every signal's change iterator must reach its end by
	// the time the value-change pass completes.
	ErrIteratorNotExhausted = errors.New("fst: signal iterator did not reach end")
)
