// Package main provides the softmax1x1 developer CLI.
//
// Usage:
//
//	softmax1x1 source -precision f32_f16 -batch -scale 2
//	softmax1x1 run -values 1,2,3,4 -metrics
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/born-ml/softmax1x1/backend/host"
	"github.com/born-ml/softmax1x1/softmax"
	"github.com/born-ml/softmax1x1/tensor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const version = "v0.1.0"

// options are the flags shared by source and run.
type options struct {
	precision string
	batch     bool
	scale     float64
	relu      bool
	reluAlpha float64
	reluClip  float64
}

func (o *options) register(fs *flag.FlagSet) {
	fs.StringVar(&o.precision, "precision", "f32", "Kernel precision: f32, f32_f16 or f16")
	fs.BoolVar(&o.batch, "batch", false, "Generate batch addressing")
	fs.Float64Var(&o.scale, "scale", 0, "Fuse a Scale with this multiplier (0 disables)")
	fs.BoolVar(&o.relu, "relu", false, "Fuse a ReLU after the softmax")
	fs.Float64Var(&o.reluAlpha, "relu-alpha", 0, "Leaky ReLU slope")
	fs.Float64Var(&o.reluClip, "relu-clip", 0, "ReLU upper clip (0 disables)")
}

// build returns the definition and linked operations described by the flags.
func (o *options) build() (softmax.Definition, []softmax.LinkedOperation, error) {
	p, err := softmax.ParsePrecision(o.precision)
	if err != nil {
		return softmax.Definition{}, nil, err
	}
	def := softmax.Definition{
		Precision:    p,
		Src:          []tensor.Descriptor{{DataType: tensor.Float32}},
		Dst:          []tensor.Descriptor{{DataType: tensor.Float32}},
		BatchSupport: o.batch,
	}

	var linked []softmax.LinkedOperation
	if o.scale != 0 {
		linked = append(linked, &softmax.Scale{Multiplier: float32(o.scale)})
	}
	if o.relu {
		linked = append(linked, &softmax.ReLU{Alpha: float32(o.reluAlpha), Clip: float32(o.reluClip)})
	}
	return def, linked, nil
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "version":
		fmt.Printf("softmax1x1 %s\n", version)
	case "source":
		err = runSource(os.Args[2:])
	case "run":
		err = runHost(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "softmax1x1: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("softmax1x1 - single-workgroup channel softmax")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  source     Print the generated WGSL kernel")
	fmt.Println("  run        Run the kernel on the host device")
}

func runSource(args []string) error {
	var o options
	fs := flag.NewFlagSet("source", flag.ExitOnError)
	o.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	def, linked, err := o.build()
	if err != nil {
		return err
	}
	fmt.Print(softmax.GenerateSource(def, linked...))
	return nil
}

func runHost(args []string) error {
	var o options
	values := "1,2,3,4"
	metrics := false
	verbose := false
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	o.register(fs)
	fs.StringVar(&values, "values", values, "Comma-separated channel values; rows separated by ';'")
	fs.BoolVar(&metrics, "metrics", false, "Print kernel metrics after the run")
	fs.BoolVar(&verbose, "v", false, "Debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	rows, err := parseRows(values)
	if err != nil {
		return err
	}
	if len(rows) > 1 {
		o.batch = true
	}
	def, linked, err := o.build()
	if err != nil {
		return err
	}

	shape := tensor.NewShape(len(rows), 1, 1, len(rows[0]))
	src, err := tensor.NewHostTensor(shape, def.Src[0])
	if err != nil {
		return err
	}
	dst, err := tensor.NewHostTensor(shape, def.Dst[0])
	if err != nil {
		return err
	}
	flat := make([]float32, 0, shape.NumElements())
	for _, r := range rows {
		flat = append(flat, r...)
	}
	if err := src.CopyFrom(flat); err != nil {
		return err
	}

	dev := host.New(host.DefaultConfig())
	cc := softmax.NewCreationContext(dev)
	defer cc.Cache.Release()

	op := softmax.Create(def)
	for _, l := range linked {
		op.AddLinkedOperation(l)
	}
	op.SetSrc(src, 0)
	op.SetDst(dst, 0)
	if err := op.Compile(cc); err != nil {
		return err
	}
	if err := op.AddToQueue(dev); err != nil {
		return err
	}

	for b := range shape.Batch {
		fmt.Printf("%d: %.6f\n", b, dst.Channels(b, 0, 0))
	}
	if metrics {
		return printMetrics()
	}
	return nil
}

// parseRows parses "1,2;3,4" into equally long rows.
func parseRows(s string) ([][]float32, error) {
	var rows [][]float32
	for _, line := range strings.Split(s, ";") {
		var row []float32
		for _, field := range strings.Split(line, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 32)
			if err != nil {
				return nil, fmt.Errorf("parse %q: %w", field, err)
			}
			row = append(row, float32(v))
		}
		if len(rows) > 0 && len(row) != len(rows[0]) {
			return nil, fmt.Errorf("row %d has %d values, want %d", len(rows), len(row), len(rows[0]))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func printMetrics() error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "kernel_") {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(os.Stdout, mf); err != nil {
			return err
		}
	}
	return nil
}
