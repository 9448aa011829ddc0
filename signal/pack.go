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

// Package signal implements the packed, per-signal change log described in
// spec.md §4.2: a signal owns a time-index array into the waveform's shared
// time axis plus a 2-bit-per-bit packed value array, and supports monotone
// append and random access by change index or by time.
package signal

import "github.com/paf-sca/wan/logic"

// Pack is a 32-bit word storing 16 two-bit logic slots; slot i occupies bits
// [2i, 2i+1]. Widening this to uint64 (PackCapacity=32) is the one
// implementation freedom spec.md §9 grants, but the bit order inside a slot
// must not change.
type Pack uint32

// PackCapacity is the number of two-bit slots in one Pack.
const PackCapacity = 16

func (p Pack) slot(i int) logic.Value {
	return logic.Value((p >> uint(2*i)) & 0x3)
}

func (p *Pack) setSlot(i int, v logic.Value) {
	shift := uint(2 * i)
	*p &^= Pack(0x3) << shift
	*p |= Pack(v&0x3) << shift
}
