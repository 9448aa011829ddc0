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

package report

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordingReporterCapturesCalls(t *testing.T) {
	r := NewRecordingReporter()
	r.Error("top.vcd", 42, "signal width mismatch")

	require.Len(t, r.Calls, 1)
	require.Equal(t, "top.vcd", r.Calls[0].File)
	require.Equal(t, 42, r.Calls[0].Line)
	require.Equal(t, "top.vcd:42: signal width mismatch", r.Calls[0].String())
}

func TestNewLogReporterAcceptsNilLogger(t *testing.T) {
	r := NewLogReporter(nil)
	require.NotPanics(t, func() { r.Error("a.vcd", 1, "msg") })
}
