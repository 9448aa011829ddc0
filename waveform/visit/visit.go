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

// Package visit implements the depth-first Visitor/Filter protocol of
// spec.md §4.5. Per spec.md §9's design note, a Waveform-scoped visitor is
// modeled by passing the Waveform alongside the Visitor to Walk, rather than
// a Waveform::Visitor type extending Scope::Visitor.
package visit

import (
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/paf-sca/wan/scope"
	"github.com/paf-sca/wan/waveform"
)

// Visitor is the capability set a traversal drives: enter/leave a scope and
// visit a signal declared directly within the currently entered scope.
type Visitor interface {
	EnterScope(s *scope.Scope)
	LeaveScope()
	VisitSignal(fullScopeName string, desc *scope.SignalDesc)
}

// Options carries the three per-kind skip flags and the ordered list of
// scope-path filters from spec.md §4.5.
type Options struct {
	SkipRegisters bool
	SkipWires     bool
	SkipIntegers  bool
	// ScopeFilters, when non-empty, restricts which scopes emit signals
	// and which are descended into at all. No filter means VisitAll
	// everywhere.
	ScopeFilters []string
}

// decision is the outcome of matching a scope's full name against the
// filter list.
type decision int

const (
	visitAll decision = iota
	enterScopeOnly
	skipAll
)

// classify implements spec.md §4.5's three-way filter outcome, matching a
// filter against fullScopeName by raw string size/prefix comparison exactly
// as Waveform::Visitor::Options::filter does (no "." boundary check: a
// filter of "tbench.D" is a prefix of scope "tbench.DUT" and visits it). An
// empty filter list means VisitAll everywhere. Filters are tried in order
// and the first one that matches decides the outcome: equal length and
// equal value means VisitAll; a longer filter of which fullScopeName is a
// raw prefix means EnterScopeOnly (descend without emitting); a shorter
// filter that is a raw prefix of fullScopeName means VisitAll. No filter
// matching means SkipAll.
func classify(fullScopeName string, filters []string) decision {
	if len(filters) == 0 {
		return visitAll
	}
	for _, f := range filters {
		switch {
		case len(f) == len(fullScopeName):
			if f == fullScopeName {
				return visitAll
			}
		case len(f) > len(fullScopeName):
			if strings.HasPrefix(f, fullScopeName) {
				return enterScopeOnly
			}
		default:
			if strings.HasPrefix(fullScopeName, f) {
				return visitAll
			}
		}
	}
	return skipAll
}

// skip reports whether a signal of the given kind should be skipped per the
// per-kind flags.
func (o Options) skip(k scope.SignalKind) bool {
	switch k {
	case scope.Register:
		return o.SkipRegisters
	case scope.Wire:
		return o.SkipWires
	case scope.Integer:
		return o.SkipIntegers
	default:
		return false
	}
}

// filterKey hashes a scope path for fast membership checks when the filter
// list is large; xxhash is already in the pack's dependency graph (used for
// series-id hashing in the teacher's remote-write path) and is the natural
// fit for a throwaway, non-cryptographic scope-path key.
func filterKey(s string) uint64 { return xxhash.Sum64String(s) }

// Walk performs the depth-first traversal of spec.md §4.5 starting at
// w.Root: children in declaration order, signals emitted before
// sub-scopes within a visited scope, the root itself never announced via
// EnterScope (only its children are).
func Walk(w *waveform.Waveform, v Visitor, opts Options) {
	seen := make(map[uint64]decision, 8)
	walkChildren(w.Root, v, opts, seen)
}

func walkChildren(s *scope.Scope, v Visitor, opts Options, cache map[uint64]decision) {
	for _, child := range s.SubScopes {
		walk(child, v, opts, cache)
	}
}

func walk(s *scope.Scope, v Visitor, opts Options, cache map[uint64]decision) {
	key := filterKey(s.FullScopeName)
	d, ok := cache[key]
	if !ok {
		d = classify(s.FullScopeName, opts.ScopeFilters)
		cache[key] = d
	}
	if d == skipAll {
		return
	}

	v.EnterScope(s)
	if d == visitAll {
		for i := range s.Signals {
			desc := &s.Signals[i]
			if opts.skip(desc.Kind) {
				continue
			}
			v.VisitSignal(s.FullScopeName, desc)
		}
	}
	walkChildren(s, v, opts, cache)
	v.LeaveScope()
}
