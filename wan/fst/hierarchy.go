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

	"github.com/pkg/errors"

	"github.com/paf-sca/wan/scope"
	"github.com/paf-sca/wan/waveform"
	"github.com/paf-sca/wan/waveform/visit"
)

// hierarchyEncoder is a visit.Visitor that serializes the scope tree as a
// flat tagged-record stream, assigning each distinct Signal an integer
// handle the first time it is visited and referencing that handle (rather
// than re-emitting a new one) for every alias afterward — spec.md §4.7
// point 2's "first emission ... create_var(alias=0) ... subsequent
// emissions create aliases to that handle".
type hierarchyEncoder struct {
	buf     *bytes.Buffer
	wf      *waveform.Waveform
	handles map[scope.Idx]int
	order   []scope.Idx
}

func (h *hierarchyEncoder) EnterScope(s *scope.Scope) {
	h.buf.WriteByte(tagScope)
	h.buf.WriteByte(scopeKindToFST(s.Kind))
	putString(h.buf, s.InstanceName)
}

func (h *hierarchyEncoder) LeaveScope() {
	h.buf.WriteByte(tagUpscope)
}

func (h *hierarchyEncoder) VisitSignal(_ string, desc *scope.SignalDesc) {
	h.buf.WriteByte(tagVar)
	h.buf.WriteByte(signalKindToFST(desc.Kind))
	putUvarint(h.buf, uint64(h.wf.Signal(desc.Idx).Width()))

	handle, seen := h.handles[desc.Idx]
	if !seen {
		handle = len(h.order)
		h.handles[desc.Idx] = handle
		h.order = append(h.order, desc.Idx)
		putUvarint(h.buf, 0)
	} else {
		putUvarint(h.buf, uint64(handle+1))
	}
	putString(h.buf, desc.Name)
}

// encodeHierarchy walks wf's scope tree and returns the serialized
// hierarchy block plus the idx-to-handle assignment and declaration order
// encodeValueChanges needs to emit changes in the same handle space.
func encodeHierarchy(wf *waveform.Waveform) ([]byte, map[scope.Idx]int, []scope.Idx) {
	enc := &hierarchyEncoder{buf: &bytes.Buffer{}, wf: wf, handles: make(map[scope.Idx]int)}
	visit.Walk(wf, enc, visit.Options{})
	enc.buf.WriteByte(tagHierEnd)
	return enc.buf.Bytes(), enc.handles, enc.order
}

// decodeHierarchy replays a serialized hierarchy block into wf's (empty)
// scope tree, returning the handle-to-SignalIdx map the value-change pass
// resolves against.
func decodeHierarchy(data []byte, wf *waveform.Waveform) (map[int]scope.Idx, error) {
	r := bytes.NewReader(data)
	handleToIdx := make(map[int]scope.Idx)
	scopeStack := []*scope.Scope{wf.Root}
	nextHandle := 0

	for {
		tag, err := r.ReadByte()
		if err != nil {
			return nil, errors.Wrap(ErrTruncated, "reading hierarchy tag")
		}
		switch tag {
		case tagHierEnd:
			return handleToIdx, nil
		case tagScope:
			kindByte, err := r.ReadByte()
			if err != nil {
				return nil, errors.Wrap(ErrTruncated, "reading scope kind")
			}
			kind, err := fstToScopeKind(kindByte)
			if err != nil {
				return nil, err
			}
			name, err := readString(r)
			if err != nil {
				return nil, err
			}
			top := scopeStack[len(scopeStack)-1]
			scopeStack = append(scopeStack, top.AddScope(name, kind))
		case tagUpscope:
			if len(scopeStack) <= 1 {
				return nil, errors.Wrap(ErrTruncated, "$upscope past root")
			}
			scopeStack = scopeStack[:len(scopeStack)-1]
		case tagVar:
			kindByte, err := r.ReadByte()
			if err != nil {
				return nil, errors.Wrap(ErrTruncated, "reading var kind")
			}
			kind, err := fstToSignalKind(kindByte)
			if err != nil {
				return nil, err
			}
			width, err := binary.ReadUvarint(r)
			if err != nil {
				return nil, errors.Wrap(ErrTruncated, "reading var width")
			}
			aliasRef, err := binary.ReadUvarint(r)
			if err != nil {
				return nil, errors.Wrap(ErrTruncated, "reading var alias ref")
			}
			name, err := readString(r)
			if err != nil {
				return nil, err
			}

			sc := scopeStack[len(scopeStack)-1]
			if aliasRef == 0 {
				idx, err := addSignalOfKind(wf, sc, name, kind, int(width))
				if err != nil {
					return nil, err
				}
				handleToIdx[nextHandle] = idx
				nextHandle++
			} else {
				existing, ok := handleToIdx[int(aliasRef-1)]
				if !ok {
					return nil, errors.Wrapf(ErrDanglingFstAlias, "handle %d", aliasRef-1)
				}
				if _, err := addAliasOfKind(wf, sc, name, kind, int(width), existing); err != nil {
					return nil, err
				}
			}
		default:
			return nil, errors.Wrapf(ErrUnknownRecordTag, "tag %d", tag)
		}
	}
}

func addSignalOfKind(wf *waveform.Waveform, sc *scope.Scope, name string, kind scope.SignalKind, width int) (scope.Idx, error) {
	for _, d := range sc.Signals {
		if d.Name == name {
			return d.Idx, nil
		}
	}
	switch kind {
	case scope.Register:
		return wf.AddRegister(sc, name, width)
	case scope.Integer:
		return wf.AddInteger(sc, name, width)
	default:
		return wf.AddWire(sc, name, width)
	}
}

func addAliasOfKind(wf *waveform.Waveform, sc *scope.Scope, name string, kind scope.SignalKind, width int, existing scope.Idx) (scope.Idx, error) {
	switch kind {
	case scope.Register:
		return wf.AddRegisterAlias(sc, name, width, existing)
	case scope.Integer:
		return wf.AddIntegerAlias(sc, name, width, existing)
	default:
		return wf.AddWireAlias(sc, name, width, existing)
	}
}
