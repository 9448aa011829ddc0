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

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var unitExponents = map[string]int{
	"s": 0, "ms": -3, "us": -6, "ns": -9, "ps": -12, "fs": -15,
}

var validMantissas = map[int]int{1: 0, 10: 1, 100: 2, 1000: 3}

// parseTimescale accepts either the two-token form ("10", "ns") or the
// single-token form ("10ns") spec.md §4.6.1 allows.
func parseTimescale(tokens []string) (int, error) {
	var mantissaStr, unit string
	switch len(tokens) {
	case 1:
		i := 0
		for i < len(tokens[0]) && (tokens[0][i] >= '0' && tokens[0][i] <= '9') {
			i++
		}
		mantissaStr, unit = tokens[0][:i], tokens[0][i:]
	case 2:
		mantissaStr, unit = tokens[0], tokens[1]
	default:
		return 0, errors.Wrapf(ErrBadTimescale, "unexpected token count %d", len(tokens))
	}

	mantissa, err := strconv.Atoi(mantissaStr)
	if err != nil {
		return 0, errors.Wrapf(ErrBadTimescale, "bad mantissa %q", mantissaStr)
	}
	decades, ok := validMantissas[mantissa]
	if !ok {
		return 0, errors.Wrapf(ErrBadTimescale, "mantissa %d not in {1,10,100,1000}", mantissa)
	}
	unitExp, ok := unitExponents[strings.ToLower(unit)]
	if !ok {
		return 0, errors.Wrapf(ErrBadTimescale, "unrecognized unit %q", unit)
	}
	return unitExp + decades, nil
}
