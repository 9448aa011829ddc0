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

// Command wanfmt is a thin front end over the wan/vcd, wan/fst, wan/merge,
// internal/diff and internal/power packages: convert between VCD and FST,
// print a quick time-range scan, merge several waveform files, diff two of
// them, or run a Hamming power estimate.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/promlog"
	promlogflag "github.com/prometheus/common/promlog/flag"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
	"gopkg.in/yaml.v3"

	"github.com/paf-sca/wan/internal/diff"
	"github.com/paf-sca/wan/internal/interval"
	"github.com/paf-sca/wan/internal/power"
	"github.com/paf-sca/wan/internal/report"
	"github.com/paf-sca/wan/wan/fst"
	"github.com/paf-sca/wan/wan/merge"
	"github.com/paf-sca/wan/wan/vcd"
	"github.com/paf-sca/wan/waveform"
	"github.com/paf-sca/wan/waveform/visit"
)

var filesProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "wanfmt_files_processed_total",
	Help: "Number of waveform files read by wanfmt, by command.",
}, []string{"command"})

func main() {
	prometheus.MustRegister(filesProcessed)

	var logLevel promlog.AllowedLevel
	a := kingpin.New("wanfmt", "Waveform format conversion and analysis tool.")
	a.HelpFlag.Short('h')
	promlogflag.AddFlags(a, &logLevel)

	convertCmd := a.Command("convert", "Convert one waveform file to another format.")
	convertIn := convertCmd.Arg("input", "Input file (.vcd or .fst).").Required().String()
	convertOut := convertCmd.Arg("output", "Output file (.vcd or .fst).").Required().String()

	quickCmd := a.Command("quick-times", "Print the time range of a waveform file without fully parsing it.")
	quickIn := quickCmd.Arg("input", "Input file (.vcd or .fst).").Required().String()

	mergeCmd := a.Command("merge", "Merge several waveform files sharing a time axis.")
	mergeIn := mergeCmd.Arg("input", "Input files (.vcd or .fst).").Required().Strings()
	mergeOut := mergeCmd.Flag("output", "Output file.").Required().String()

	diffCmd := a.Command("diff", "Compare two waveform files signal by signal.")
	diffA := diffCmd.Arg("a", "First file.").Required().String()
	diffB := diffCmd.Arg("b", "Second file.").Required().String()
	diffOut := diffCmd.Flag("output", "Write a reserialized diff waveform here.").String()

	powerCmd := a.Command("power", "Estimate Hamming weight or distance over one or more files.")
	powerDistance := powerCmd.Flag("distance", "Use Hamming distance instead of Hamming weight.").Bool()
	powerSegments := powerCmd.Flag("segments", "Number of equal-duration segments per file.").Default("1").Int()
	powerSegmentsFile := powerCmd.Flag("segments-file", "YAML file listing explicit {start,end} segments, overriding --segments.").String()
	powerScope := powerCmd.Flag("scope", "Restrict to signals under this scope path (repeatable).").Strings()
	powerIn := powerCmd.Arg("input", "Input files (.vcd or .fst).").Required().Strings()

	cmd, err := a.Parse(os.Args[1:])
	if err != nil {
		kingpin.Fatalf("%v", err)
	}

	logger := promlog.New(logLevel)

	switch cmd {
	case convertCmd.FullCommand():
		err = runConvert(logger, *convertIn, *convertOut)
	case quickCmd.FullCommand():
		err = runQuickTimes(logger, *quickIn)
	case mergeCmd.FullCommand():
		err = runMerge(logger, *mergeIn, *mergeOut)
	case diffCmd.FullCommand():
		err = runDiff(logger, *diffA, *diffB, *diffOut)
	case powerCmd.FullCommand():
		err = runPower(logger, *powerIn, *powerSegments, *powerSegmentsFile, *powerDistance, *powerScope)
	}
	if err != nil {
		level.Error(logger).Log("msg", "command failed", "err", err)
		os.Exit(1)
	}
}

func readerFor(logger log.Logger, name string) (interface {
	Read(f *os.File, fileName string) (*waveform.Waveform, error)
}, error) {
	switch {
	case strings.HasSuffix(name, ".vcd"):
		return vcdAdapter{vcd.NewReader(logger)}, nil
	case strings.HasSuffix(name, ".fst"):
		return fstAdapter{fst.NewReader(logger)}, nil
	default:
		return nil, errors.Errorf("wanfmt: unrecognized file extension %q", name)
	}
}

type vcdAdapter struct{ r *vcd.Reader }

func (a vcdAdapter) Read(f *os.File, fileName string) (*waveform.Waveform, error) {
	return a.r.Read(f, fileName)
}

type fstAdapter struct{ r *fst.Reader }

func (a fstAdapter) Read(f *os.File, fileName string) (*waveform.Waveform, error) {
	return a.r.Read(f, fileName)
}

func openWaveform(logger log.Logger, name string) (*waveform.Waveform, error) {
	rd, err := readerFor(logger, name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %q", name)
	}
	defer f.Close()
	return rd.Read(f, name)
}

func writeWaveform(logger log.Logger, name string, wf *waveform.Waveform) error {
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrapf(err, "creating %q", name)
	}
	defer f.Close()

	switch {
	case strings.HasSuffix(name, ".vcd"):
		return vcd.NewWriter(logger).Write(f, wf)
	case strings.HasSuffix(name, ".fst"):
		return fst.NewWriter(logger).Write(f, wf)
	default:
		return errors.Errorf("wanfmt: unrecognized file extension %q", name)
	}
}

func runConvert(logger log.Logger, in, out string) error {
	wf, err := openWaveform(logger, in)
	if err != nil {
		return err
	}
	filesProcessed.WithLabelValues("convert").Inc()
	return writeWaveform(logger, out, wf)
}

func runQuickTimes(logger log.Logger, in string) error {
	f, err := os.Open(in)
	if err != nil {
		return errors.Wrapf(err, "opening %q", in)
	}
	defer f.Close()

	var times []uint64
	var timeScale int
	switch {
	case strings.HasSuffix(in, ".vcd"):
		times, timeScale, err = vcd.QuickTimes(f)
	case strings.HasSuffix(in, ".fst"):
		times, timeScale, err = fst.QuickTimes(f)
	default:
		err = errors.Errorf("wanfmt: unrecognized file extension %q", in)
	}
	if err != nil {
		return err
	}
	filesProcessed.WithLabelValues("quick-times").Inc()
	if len(times) == 0 {
		fmt.Println("no times recorded")
		return nil
	}
	fmt.Printf("start=%d end=%d count=%d timescale=1e%d\n", times[0], times[len(times)-1], len(times), timeScale)
	return nil
}

func runMerge(logger log.Logger, in []string, out string) error {
	wf, err := merge.Merge(logger, in)
	if err != nil {
		return err
	}
	filesProcessed.WithLabelValues("merge").Add(float64(len(in)))
	return writeWaveform(logger, out, wf)
}

func runDiff(logger log.Logger, a, b, out string) error {
	wfA, err := openWaveform(logger, a)
	if err != nil {
		return err
	}
	wfB, err := openWaveform(logger, b)
	if err != nil {
		return err
	}
	filesProcessed.WithLabelValues("diff").Add(2)

	d, err := diff.Compare(wfA, wfB, visit.Options{})
	if err != nil {
		return err
	}
	summary := d.Summarize()
	fmt.Printf("%d differing signals, %d differing changes\n", summary.DifferingSignals, summary.DifferingChanges)
	for _, name := range d.SignalSummary() {
		fmt.Println(name)
	}
	if out == "" {
		return nil
	}
	reserialized, err := d.Reserialize(out)
	if err != nil {
		return err
	}
	return writeWaveform(logger, out, reserialized)
}

// segmentFile is the YAML shape accepted by --segments-file: an explicit
// list of half-open [start,end) ranges, replacing the original C++ tool's
// comma-separated "run.info" text format with the config idiom the
// teacher's own flags use.
type segmentFile struct {
	Segments []struct {
		Start uint64 `yaml:"start"`
		End   uint64 `yaml:"end"`
	} `yaml:"segments"`
}

func loadSegmentsFile(path string) ([]interval.Interval, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", path)
	}
	var sf segmentFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, errors.Wrapf(err, "parsing %q", path)
	}
	out := make([]interval.Interval, 0, len(sf.Segments))
	for _, s := range sf.Segments {
		if s.Start >= s.End {
			return nil, errors.Errorf("%s: segment start %d >= end %d", path, s.Start, s.End)
		}
		out = append(out, interval.Interval{Start: s.Start, End: s.End})
	}
	return out, nil
}

func runPower(logger log.Logger, in []string, segments int, segmentsFile string, distance bool, scopes []string) error {
	model := power.HammingWeight
	if distance {
		model = power.HammingDistance
	}
	acc := power.New(model, visit.Options{ScopeFilters: scopes}, report.NewLogReporter(logger))

	var fixedSegs []interval.Interval
	if segmentsFile != "" {
		var err error
		fixedSegs, err = loadSegmentsFile(segmentsFile)
		if err != nil {
			return err
		}
	}

	for _, name := range in {
		wf, err := openWaveform(logger, name)
		if err != nil {
			return err
		}
		filesProcessed.WithLabelValues("power").Inc()
		segs := fixedSegs
		if segs == nil {
			segs = interval.Segments(wf.StartTime, wf.EndTime+1, segments)
		}
		if err := acc.Process(wf, segs); err != nil {
			return errors.Wrapf(err, "processing %q", name)
		}
	}
	if err := acc.Check(); err != nil {
		return err
	}
	for _, row := range acc.Matrix() {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprintf("%g", v)
		}
		fmt.Println(strings.Join(cells, ","))
	}
	return nil
}
