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

package vcd

import "github.com/pkg/errors"

// Format errors, per spec.md §7. Each is wrapped with file/line context at
// the point of failure rather than carried as fields on a richer error
// type, matching the sentinel-plus-errors.Wrap style of
// vendor/github.com/fabxc/tsdb/reader.go.
var (
	ErrUnexpectedKeyword  = errors.New("vcd: unexpected keyword in header")
	ErrMissingEnd         = errors.New("vcd: missing $end")
	ErrBadTimescale       = errors.New("vcd: malformed $timescale")
	ErrBadTimeMarker      = errors.New("vcd: malformed time marker")
	ErrBadValueLine       = errors.New("vcd: malformed value-change line")
	ErrUnknownSignalId    = errors.New("vcd: value change references unknown identifier")
	ErrAliasWidthMismatch = errors.New("vcd: alias identifier width does not match first declaration")
	ErrNonMonotonicTime   = errors.New("vcd: time marker is not monotonically increasing")
)
