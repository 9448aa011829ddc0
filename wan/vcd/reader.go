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

// Package vcd implements the ASCII VCD codec of spec.md §4.6: a streaming
// reader/writer pair over the waveform package's aggregate, grounded on
// pkg/textparse's token-driven Entry/Next() shape and on the section framing
// of vendor/github.com/fabxc/tsdb/reader.go.
package vcd

import (
	"io"
	"strconv"

	"github.com/go-kit/log"
	"github.com/pkg/errors"

	"github.com/paf-sca/wan/scope"
	"github.com/paf-sca/wan/waveform"
)

// Reader parses an ASCII VCD stream into a *waveform.Waveform.
type Reader struct {
	logger log.Logger
}

// NewReader returns a Reader. logger may be nil.
func NewReader(logger log.Logger) *Reader {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Reader{logger: logger}
}

// idBinding is what a VCD identifier resolves to once its first $var
// declaration has been seen: the Signal it addresses and the width it was
// first declared at, so later aliases of the same id can be checked against
// it (spec.md §4.6.2, §7's ErrAliasWidthMismatch).
type idBinding struct {
	idx   scope.Idx
	width int
}

// Read parses r in full, returning the populated Waveform. fileName is
// recorded on the Waveform and used to annotate errors with file context.
func (rd *Reader) Read(r io.Reader, fileName string) (*waveform.Waveform, error) {
	wf := waveform.New(rd.logger)
	wf.FileName = fileName
	if err := rd.ReadInto(r, wf, fileName); err != nil {
		return nil, err
	}
	return wf, nil
}

// ReadInto parses r against an already-populated wf, for wan/merge's §4.8
// overlay step: identically named scopes are reused (scope.AddScope already
// dedups by instance name) and a $var declaring a name already present in
// its scope is bound to the existing Signal rather than creating a new one,
// so its value changes extend that Signal's history instead of erroring.
func (rd *Reader) ReadInto(r io.Reader, wf *waveform.Waveform, fileName string) error {
	lex := newLexer(r)
	ids := make(map[string]idBinding)

	// Retain the first file's metadata (spec.md §4.8 point 2): if wf
	// already carries declarations from a prior overlay, readHeader's
	// unconditional $date/$version/$comment/$timescale assignments are
	// reverted to what was already there once this file's header is done.
	firstRead := wf.Version == "" && wf.Date == "" && wf.Comment == "" && len(wf.Signals) == 0
	origVersion, origDate, origComment, origTimeScale := wf.Version, wf.Date, wf.Comment, wf.TimeScale

	if err := rd.readHeader(lex, wf, ids, fileName); err != nil {
		return err
	}
	if !firstRead {
		wf.Version, wf.Date, wf.Comment, wf.TimeScale = origVersion, origDate, origComment, origTimeScale
	}
	return rd.readBody(lex, wf, ids, fileName)
}

func (rd *Reader) readHeader(lex *lexer, wf *waveform.Waveform, ids map[string]idBinding, fileName string) error {
	scopeStack := []*scope.Scope{wf.Root}
	for {
		tok, err := lex.next()
		if err != nil {
			return errors.Wrapf(err, "%s: reading header", fileName)
		}
		switch tok {
		case "$date":
			text, err := lex.textUntilEnd()
			if err != nil {
				return errors.Wrapf(err, "%s: $date", fileName)
			}
			wf.Date = text
		case "$version":
			text, err := lex.textUntilEnd()
			if err != nil {
				return errors.Wrapf(err, "%s: $version", fileName)
			}
			wf.Version = text
		case "$comment":
			text, err := lex.textUntilEnd()
			if err != nil {
				return errors.Wrapf(err, "%s: $comment", fileName)
			}
			wf.Comment = text
		case "$timescale":
			var toks []string
			for {
				t, err := lex.next()
				if err != nil {
					return errors.Wrapf(err, "%s: $timescale", fileName)
				}
				if t == "$end" {
					break
				}
				toks = append(toks, t)
			}
			exp, err := parseTimescale(toks)
			if err != nil {
				return errors.Wrapf(err, "%s: line %d", fileName, lex.line)
			}
			wf.TimeScale = exp
		case "$scope":
			kindTok, err := lex.next()
			if err != nil {
				return errors.Wrapf(err, "%s: $scope", fileName)
			}
			nameTok, err := lex.next()
			if err != nil {
				return errors.Wrapf(err, "%s: $scope", fileName)
			}
			if err := lex.expect("$end"); err != nil {
				return err
			}
			kind, err := parseScopeKind(kindTok)
			if err != nil {
				return errors.Wrapf(err, "%s: line %d", fileName, lex.line)
			}
			top := scopeStack[len(scopeStack)-1]
			scopeStack = append(scopeStack, top.AddScope(nameTok, kind))
		case "$upscope":
			if err := lex.expect("$end"); err != nil {
				return err
			}
			if len(scopeStack) <= 1 {
				return errors.Wrapf(ErrUnexpectedKeyword, "%s: line %d: $upscope past root", fileName, lex.line)
			}
			scopeStack = scopeStack[:len(scopeStack)-1]
		case "$var":
			if err := rd.readVar(lex, wf, scopeStack[len(scopeStack)-1], ids); err != nil {
				return errors.Wrapf(err, "%s: line %d", fileName, lex.line)
			}
		case "$enddefinitions":
			return lex.expect("$end")
		default:
			return errors.Wrapf(ErrUnexpectedKeyword, "%s: line %d: %q", fileName, lex.line, tok)
		}
	}
}

func (rd *Reader) readVar(lex *lexer, wf *waveform.Waveform, sc *scope.Scope, ids map[string]idBinding) error {
	kindTok, err := lex.next()
	if err != nil {
		return err
	}
	widthTok, err := lex.next()
	if err != nil {
		return err
	}
	idTok, err := lex.next()
	if err != nil {
		return err
	}
	nameTok, err := lex.next()
	if err != nil {
		return err
	}

	width, err := strconv.Atoi(widthTok)
	if err != nil || width < 1 {
		return errors.Wrapf(ErrBadValueLine, "bad $var width %q", widthTok)
	}
	kind, err := parseSignalKind(kindTok)
	if err != nil {
		return err
	}

	// A bit-range like "[3:0]" may appear between the declared name and
	// $end; consume and discard it if present.
	next, err := lex.next()
	if err != nil {
		return err
	}
	if next != "$end" {
		if err := lex.expect("$end"); err != nil {
			return err
		}
	}

	existing, seen := ids[idTok]
	if !seen {
		idx, err := addSignalOfKind(wf, sc, nameTok, kind, width)
		if err != nil {
			return err
		}
		ids[idTok] = idBinding{idx: idx, width: width}
		return nil
	}
	if existing.width != width {
		return errors.Wrapf(ErrAliasWidthMismatch, "id %q: first declared width %d, now %d", idTok, existing.width, width)
	}
	_, err = addAliasOfKind(wf, sc, nameTok, kind, width, existing.idx)
	return err
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

func parseScopeKind(tok string) (scope.Kind, error) {
	switch tok {
	case "module":
		return scope.Module, nil
	case "task":
		return scope.Task, nil
	case "function":
		return scope.Function, nil
	case "block", "begin", "fork":
		return scope.Block, nil
	default:
		return 0, errors.Wrapf(ErrUnexpectedKeyword, "unrecognized scope kind %q", tok)
	}
}

func parseSignalKind(tok string) (scope.SignalKind, error) {
	switch tok {
	case "reg":
		return scope.Register, nil
	case "integer":
		return scope.Integer, nil
	case "wire", "net", "wand", "wor", "tri", "supply0", "supply1", "parameter", "real", "time":
		return scope.Wire, nil
	default:
		return 0, errors.Wrapf(ErrUnexpectedKeyword, "unrecognized $var kind %q", tok)
	}
}

// readBody streams the value-change section: #<time> markers, the
// $dumpvars/$dumpall/$dumpoff/$dumpon wrappers (which only gate StartTime
// promotion on the first $dumpvars — their scalar/bus lines are parsed
// exactly like unwrapped ones), and scalar/bus value-change lines.
func (rd *Reader) readBody(lex *lexer, wf *waveform.Waveform, ids map[string]idBinding, fileName string) error {
	var (
		haveTime         bool
		currentTime      uint64
		sawFirstDumpvars bool
	)
	for {
		tok, err := lex.next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return errors.Wrapf(err, "%s: reading body", fileName)
		}
		switch {
		case tok == "$dumpvars" || tok == "$dumpall" || tok == "$dumpoff" || tok == "$dumpon":
			if tok == "$dumpvars" && !sawFirstDumpvars {
				wf.StartTime = currentTime
				sawFirstDumpvars = true
			}
		case tok == "$end":
			// Closes a dump-section wrapper; no state to restore.
		case tok == "$comment":
			if _, err := lex.textUntilEnd(); err != nil {
				return errors.Wrapf(err, "%s: $comment", fileName)
			}
		case len(tok) > 0 && tok[0] == '#':
			t, perr := strconv.ParseUint(tok[1:], 10, 64)
			if perr != nil {
				return errors.Wrapf(ErrBadTimeMarker, "%s: line %d: %q", fileName, lex.line, tok)
			}
			if haveTime && t < currentTime {
				return errors.Wrapf(ErrNonMonotonicTime, "%s: line %d: %d < %d", fileName, lex.line, t, currentTime)
			}
			currentTime, haveTime = t, true
		case len(tok) > 1 && (tok[0] == 'b' || tok[0] == 'B'):
			idTok, ierr := lex.next()
			if ierr != nil {
				return errors.Wrapf(ierr, "%s: line %d: bus value missing identifier", fileName, lex.line)
			}
			if err := applyChange(wf, ids, tok[1:], idTok, currentTime); err != nil {
				return errors.Wrapf(err, "%s: line %d", fileName, lex.line)
			}
		case len(tok) >= 2:
			if err := applyChange(wf, ids, tok[:1], tok[1:], currentTime); err != nil {
				return errors.Wrapf(err, "%s: line %d", fileName, lex.line)
			}
		default:
			return errors.Wrapf(ErrBadValueLine, "%s: line %d: %q", fileName, lex.line, tok)
		}
	}
	wf.EndTime = currentTime
	return nil
}

func applyChange(wf *waveform.Waveform, ids map[string]idBinding, bits, idTok string, t uint64) error {
	b, ok := ids[idTok]
	if !ok {
		return errors.Wrapf(ErrUnknownSignalId, "identifier %q", idTok)
	}
	return wf.AddValueChangeString(b.idx, t, bits)
}
