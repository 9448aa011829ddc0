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

// Package fst implements the binary codec of spec.md §4.7/§6.2: a
// hierarchy-block + value-change-block container, LZ4-packed, standing in
// for the external GTKWave FST library the specification describes. There
// is no Go binding for that C library in this dependency graph, so this
// package is a from-scratch pure-Go container that preserves the same
// adaptor contract (hierarchy iterator, value-change callback pass,
// quick-times scan) rather than GTKWave's actual wire format — see
// DESIGN.md's C7 entry.
package fst

import "github.com/paf-sca/wan/scope"

// MagicFST identifies the container, analogous to
// vendor/github.com/fabxc/tsdb/writer.go's MagicSeries/MagicIndex constants.
const MagicFST uint32 = 0x46535401

// formatVersion is the only container version this package emits or reads.
const formatVersion byte = 1

// Hierarchy record tags.
const (
	tagHierEnd byte = iota
	tagScope
	tagUpscope
	tagVar
)

// Scope-kind tags, named after the FST constants spec.md §6.2 maps to:
// MODULE<->VCD_MODULE, TASK<->VCD_TASK, FUNCTION<->VCD_FUNCTION,
// BLOCK<->VCD_BEGIN.
const (
	fstModule byte = iota
	fstTask
	fstFunction
	fstBegin
)

func scopeKindToFST(k scope.Kind) byte {
	switch k {
	case scope.Task:
		return fstTask
	case scope.Function:
		return fstFunction
	case scope.Block:
		return fstBegin
	default:
		return fstModule
	}
}

func fstToScopeKind(b byte) (scope.Kind, error) {
	switch b {
	case fstModule:
		return scope.Module, nil
	case fstTask:
		return scope.Task, nil
	case fstFunction:
		return scope.Function, nil
	case fstBegin:
		return scope.Block, nil
	default:
		return 0, ErrUnknownScopeKind
	}
}

// Signal-kind tags, named after FST's VCD_REG/VCD_WIRE/VCD_INTEGER.
const (
	fstReg byte = iota
	fstWire
	fstInteger
)

func signalKindToFST(k scope.SignalKind) byte {
	switch k {
	case scope.Register:
		return fstReg
	case scope.Integer:
		return fstInteger
	default:
		return fstWire
	}
}

func fstToSignalKind(b byte) (scope.SignalKind, error) {
	switch b {
	case fstReg:
		return scope.Register, nil
	case fstWire:
		return scope.Wire, nil
	case fstInteger:
		return scope.Integer, nil
	default:
		return 0, ErrUnknownSignalKind
	}
}
