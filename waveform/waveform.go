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

// Package waveform implements the aggregate data model of spec.md §3.1/§4.4:
// metadata, the shared time axis, the signal store and the scope root,
// wired together behind the monotonicity-enforcing Waveform API that every
// codec streams through.
package waveform

import (
	"fmt"
	"sort"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/paf-sca/wan/logic"
	"github.com/paf-sca/wan/scope"
	"github.com/paf-sca/wan/signal"
)

// ErrTimeOrderingBroken is returned by AddTime when inserting t would shift
// indices already handed out to signals.
var ErrTimeOrderingBroken = errors.New("waveform: time insertion would invalidate existing indices")

// Waveform is the in-memory model of one simulation run: metadata, the
// shared monotone time axis (AllTimes), the signal store, and the scope
// tree rooted at Root.
type Waveform struct {
	FileName  string
	Version   string
	Date      string
	Comment   string
	StartTime uint64
	EndTime   uint64
	TimeZero  uint64
	// TimeScale is a signed base-10 exponent in seconds, e.g. -12 for
	// picoseconds.
	TimeScale int

	AllTimes []uint64
	Signals  []*signal.Signal
	Root     *scope.Scope

	logger log.Logger
}

// New returns an empty Waveform ready for population by a builder or codec.
// logger may be nil, in which case a no-op logger is used.
func New(logger log.Logger) *Waveform {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Waveform{Root: scope.NewRoot(), logger: logger}
}

// AddTime implements the insertion policy of spec.md §4.4: times strictly
// after the last one are appended; a time equal to the last is a no-op that
// reuses its index; any other time is binary-search-inserted if doing so
// would not shift an already-issued index, and fails ErrTimeOrderingBroken
// otherwise.
func (w *Waveform) AddTime(t uint64) (uint32, error) {
	n := len(w.AllTimes)
	if n == 0 || t > w.AllTimes[n-1] {
		w.AllTimes = append(w.AllTimes, t)
		return uint32(n), nil
	}
	if t == w.AllTimes[n-1] {
		return uint32(n - 1), nil
	}

	i := sort.Search(n, func(i int) bool { return w.AllTimes[i] >= t })
	if i < n && w.AllTimes[i] == t {
		return uint32(i), nil
	}
	// Inserting at i would shift every index >= i that some signal may
	// already reference.
	level.Debug(w.logger).Log("msg", "rejecting out-of-order time insertion", "time", t, "at", i)
	return 0, errors.Wrapf(ErrTimeOrderingBroken, "time %d would insert before existing index %d", t, i)
}

// AddTimes adds every time in a sorted, strictly increasing sequence via
// AddTime, matching spec.md §4.4's invariant that add_times is itself
// strictly greater than the current last time.
func (w *Waveform) AddTimes(times []uint64) error {
	for _, t := range times {
		if _, err := w.AddTime(t); err != nil {
			return err
		}
	}
	return nil
}

// AddModule, AddTask, AddFunction and AddBlock add a child scope at the
// root, matching spec.md §4.4's public contract.
func (w *Waveform) AddModule(name string) *scope.Scope   { return w.Root.AddScope(name, scope.Module) }
func (w *Waveform) AddTask(name string) *scope.Scope     { return w.Root.AddScope(name, scope.Task) }
func (w *Waveform) AddFunction(name string) *scope.Scope { return w.Root.AddScope(name, scope.Function) }
func (w *Waveform) AddBlock(name string) *scope.Scope    { return w.Root.AddScope(name, scope.Block) }

func (w *Waveform) addSignal(sc *scope.Scope, name string, kind scope.SignalKind, width int) (scope.Idx, error) {
	idx := scope.Idx(len(w.Signals))
	w.Signals = append(w.Signals, signal.New(width))
	if _, err := sc.AddSignal(name, kind, false, idx); err != nil {
		w.Signals = w.Signals[:len(w.Signals)-1]
		return 0, err
	}
	return idx, nil
}

// AddRegister, AddWire and AddInteger create a new Signal of the given
// width, register it as a non-alias SignalDesc in sc, and return its
// SignalIdx.
func (w *Waveform) AddRegister(sc *scope.Scope, name string, width int) (scope.Idx, error) {
	return w.addSignal(sc, name, scope.Register, width)
}

func (w *Waveform) AddWire(sc *scope.Scope, name string, width int) (scope.Idx, error) {
	return w.addSignal(sc, name, scope.Wire, width)
}

func (w *Waveform) AddInteger(sc *scope.Scope, name string, width int) (scope.Idx, error) {
	return w.addSignal(sc, name, scope.Integer, width)
}

// ErrWidthMismatch is returned by the alias add-X forms when the declared
// width disagrees with the width of the Signal being aliased.
var ErrWidthMismatch = errors.New("waveform: alias width does not match referenced signal")

// AddRegisterAlias, AddWireAlias and AddIntegerAlias register a new
// SignalDesc that reuses an existing Signal by index. width must match the
// referenced Signal's width.
func (w *Waveform) AddRegisterAlias(sc *scope.Scope, name string, width int, existing scope.Idx) (scope.Idx, error) {
	return w.addAlias(sc, name, scope.Register, width, existing)
}

func (w *Waveform) AddWireAlias(sc *scope.Scope, name string, width int, existing scope.Idx) (scope.Idx, error) {
	return w.addAlias(sc, name, scope.Wire, width, existing)
}

func (w *Waveform) AddIntegerAlias(sc *scope.Scope, name string, width int, existing scope.Idx) (scope.Idx, error) {
	return w.addAlias(sc, name, scope.Integer, width, existing)
}

func (w *Waveform) addAlias(sc *scope.Scope, name string, kind scope.SignalKind, width int, existing scope.Idx) (scope.Idx, error) {
	if int(existing) < 0 || int(existing) >= len(w.Signals) {
		return 0, errors.Errorf("waveform: alias references unknown signal index %d", existing)
	}
	if w.Signals[existing].Width() != width {
		return 0, errors.Wrapf(ErrWidthMismatch, "alias %q wants width %d, signal %d has width %d", name, width, existing, w.Signals[existing].Width())
	}
	if _, err := sc.AddSignal(name, kind, true, existing); err != nil {
		return 0, err
	}
	return existing, nil
}

// AddValueChange locates or creates the AllTimes slot for t and forwards
// the change to the given Signal.
func (w *Waveform) AddValueChange(idx scope.Idx, t uint64, v *logic.BitVector) error {
	timeIdx, err := w.AddTime(t)
	if err != nil {
		return err
	}
	return w.Signals[idx].Append(timeIdx, v)
}

// AddValueChangeString is the string-valued form of AddValueChange.
func (w *Waveform) AddValueChangeString(idx scope.Idx, t uint64, bits string) error {
	timeIdx, err := w.AddTime(t)
	if err != nil {
		return err
	}
	return w.Signals[idx].AppendString(timeIdx, bits)
}

// Signal returns the Signal at idx.
func (w *Waveform) Signal(idx scope.Idx) *signal.Signal { return w.Signals[idx] }

// Clone returns a deep copy: a fresh AllTimes, fresh Signal storage, and a
// rebuilt scope tree — rebinding is implicit, since no Signal in this
// implementation holds a pointer into AllTimes (spec.md §9's "arena +
// indices" note makes rebinding on move/copy unnecessary).
func (w *Waveform) Clone() *Waveform {
	c := &Waveform{
		FileName:  w.FileName,
		Version:   w.Version,
		Date:      w.Date,
		Comment:   w.Comment,
		StartTime: w.StartTime,
		EndTime:   w.EndTime,
		TimeZero:  w.TimeZero,
		TimeScale: w.TimeScale,
		AllTimes:  append([]uint64(nil), w.AllTimes...),
		logger:    w.logger,
	}
	c.Signals = make([]*signal.Signal, len(w.Signals))
	for i, s := range w.Signals {
		cs := signal.New(s.Width())
		// Replay every change; Signal has no exported bulk-copy
		// constructor, matching spec.md's append-only lifecycle.
		it := signal.NewIterator(s, w.AllTimes)
		for k := 0; k < it.Len(); k++ {
			ch := it.Get(k)
			idx, err := c.AddTime(ch.Time)
			if err != nil {
				// AllTimes was pre-seeded above in order, so this
				// cannot fail; surfaced as a panic would hide a real
				// bug in Clone's own bookkeeping.
				panic(errors.Wrap(err, "waveform: clone replay"))
			}
			if err := cs.Append(idx, ch.Value); err != nil {
				panic(errors.Wrap(err, "waveform: clone replay"))
			}
		}
		c.Signals[i] = cs
	}
	c.Root = cloneScope(w.Root)
	return c
}

func cloneScope(s *scope.Scope) *scope.Scope {
	c := &scope.Scope{
		InstanceName:  s.InstanceName,
		FullScopeName: s.FullScopeName,
		DeclaredName:  s.DeclaredName,
		Kind:          s.Kind,
		Signals:       append([]scope.SignalDesc(nil), s.Signals...),
	}
	for _, sub := range s.SubScopes {
		c.SubScopes = append(c.SubScopes, cloneScope(sub))
	}
	return c
}

var timeScaleUnits = []struct {
	exp  int
	unit string
}{
	{0, "s"}, {-3, "ms"}, {-6, "us"}, {-9, "ns"}, {-12, "ps"}, {-15, "fs"},
}

// TimeScaleString expands TimeScale into a "<mantissa><unit>" string from
// {1,10,100,1000} x {s,ms,us,ns,ps,fs}, matching spec.md §4.4's
// get_time_scale contract.
func (w *Waveform) TimeScaleString() string {
	exp := w.TimeScale
	for _, u := range timeScaleUnits {
		d := exp - u.exp
		if d >= 0 && d <= 3 {
			mantissa := 1
			for i := 0; i < d; i++ {
				mantissa *= 10
			}
			return fmt.Sprintf("%d%s", mantissa, u.unit)
		}
	}
	return fmt.Sprintf("1e%d s", exp)
}
