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

// Package report is the minimal stand-in for PAF's Error/die/warn
// collaborator (SPEC_FULL.md §3.2): a single-line diagnostic including
// file/line context, without the full diagnostics subsystem that is out of
// scope. internal/power calls Reporter for a signal that matched its filter
// but carries no recorded changes, without aborting the estimation.
package report

import (
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Reporter receives single-line diagnostics tagged with the source location
// that raised them, per spec.md §7's "single-line diagnostic including
// file/line/function" contract.
type Reporter interface {
	Error(file string, line int, msg string)
}

// logReporter logs every call at warn level through a go-kit/log.Logger.
type logReporter struct {
	logger log.Logger
}

// NewLogReporter returns a Reporter that logs through logger. A nil logger
// is replaced with a no-op one.
func NewLogReporter(logger log.Logger) Reporter {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &logReporter{logger: logger}
}

func (r *logReporter) Error(file string, line int, msg string) {
	level.Warn(r.logger).Log("msg", msg, "file", file, "line", line)
}

// Recorded is one call captured by a RecordingReporter.
type Recorded struct {
	File string
	Line int
	Msg  string
}

// RecordingReporter collects every call instead of logging it, for tests
// that need to assert on which diagnostics a comparison produced.
type RecordingReporter struct {
	Calls []Recorded
}

// NewRecordingReporter returns an empty RecordingReporter.
func NewRecordingReporter() *RecordingReporter {
	return &RecordingReporter{}
}

func (r *RecordingReporter) Error(file string, line int, msg string) {
	r.Calls = append(r.Calls, Recorded{File: file, Line: line, Msg: msg})
}

// String renders a Recorded the way logReporter would have logged it,
// useful in test failure messages.
func (c Recorded) String() string {
	return fmt.Sprintf("%s:%d: %s", c.File, c.Line, c.Msg)
}
