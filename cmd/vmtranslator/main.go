// Copyright 2011 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Command vmtranslator translates VM source files into one Hack assembly program.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JSchneidler/nand2tetris/internal/translator"
	"github.com/JSchneidler/nand2tetris/internal/watcher"
	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tebeka/atexit"
	"go.opencensus.io/trace"
)

var (
	output = flag.String("o", "", "Output file.  Defaults to the first input with a .asm extension, or dir/dir.asm for a directory.")

	version = flag.Bool("version", false, "Print vmtranslator version information.")

	// Translation flags.
	stackBase        = flag.Int("stack_base", 256, "Initial stack pointer set by the bootstrap.")
	entry            = flag.String("entry", "Sys.init", "Function called by the bootstrap.")
	bootstrap        = flag.Bool("bootstrap", true, "Emit the bootstrap prologue.  Disable for single files that do not define the entry function.")
	ignoreUnknown    = flag.Bool("ignore_unknown", false, "Skip unrecognised source lines with a warning instead of failing.")
	annotate         = flag.Bool("annotate", false, "Precede the code for each instruction with its source as a comment.")
	dumpInstructions = flag.Bool("dump_instructions", false, "Dump the decoded instructions of each unit (to INFO log).")

	// Ops flags.
	watch        = flag.Bool("watch", false, "Keep running and translate again whenever a source changes.")
	pollInterval = flag.Duration("poll_interval", time.Second, "Interval between polls of the sources in -watch mode; zero relies on fsnotify alone.")
	metricsFile  = flag.String("metrics_file", "", "If set, write translation metrics in the Prometheus text format to this file after each run.")

	// Tracing.
	jaegerEndpoint    = flag.String("jaeger_endpoint", "", "If set, collector endpoint URL of jaeger thrift service")
	traceSamplePeriod = flag.Int("trace_sample_period", 0, "Sample period for traces.  If non-zero, every nth trace will be sampled.")
)

var (
	// Branch as well as Version and Revision identifies where in the git
	// history the build came from, as supplied by the linker.
	Branch   = "unknown"
	Version  = "unknown"
	Revision = "unknown"
)

func main() {
	atexit.Register(glog.Flush)
	buildInfo := translator.BuildInfo{
		Branch:   Branch,
		Version:  Version,
		Revision: Revision,
	}

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n", buildInfo.String())
		fmt.Fprintf(os.Stderr, "\nUsage: %s [flags] <file.vm|dir> ...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if *version {
		fmt.Println(buildInfo.String())
		atexit.Exit(0)
	}
	glog.Info(buildInfo.String())
	glog.Infof("Commandline: %q", os.Args)
	inputs := flag.Args()
	if len(inputs) == 0 {
		flag.Usage()
		glog.Exitf("vmtranslator requires at least one .vm file or directory to translate.")
	}
	if *output == "" {
		*output = translator.OutputPath(inputs[0])
	}

	if *traceSamplePeriod > 0 {
		trace.ApplyConfig(trace.Config{DefaultSampler: trace.ProbabilitySampler(1 / float64(*traceSamplePeriod))})
	}

	opts := []translator.Option{
		translator.StackBase(*stackBase),
		translator.Entry(*entry),
	}
	if !*bootstrap {
		opts = append(opts, translator.NoBootstrap)
	}
	if *ignoreUnknown {
		opts = append(opts, translator.IgnoreUnknown)
	}
	if *annotate {
		opts = append(opts, translator.Annotate)
	}
	if *dumpInstructions {
		opts = append(opts, translator.DumpInstructions)
	}
	if *jaegerEndpoint != "" {
		opts = append(opts, translator.JaegerReporter(*jaegerEndpoint))
	}

	reg := translator.NewRegistry(buildInfo)
	l := translator.NewLoader(inputs, *output, opts...)
	l.AfterLoad = func(error) { writeMetrics(reg) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := l.Load(ctx)
	if !*watch {
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			atexit.Exit(1)
		}
		atexit.Exit(0)
	}

	w, err := watcher.NewSourceWatcher(*pollInterval, true)
	if err != nil {
		glog.Exitf("Failed to create source watcher: %s", err)
	}
	if err := l.Watch(w); err != nil {
		glog.Exitf("Failed to watch sources: %s", err)
	}
	glog.Infof("Watching %q for changes", inputs)

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	sig := <-sigint
	glog.Infof("Received %+v, exiting...", sig)
	if err := w.Close(); err != nil {
		glog.Warning(err)
	}
	if err := l.LastError(); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

func writeMetrics(g prometheus.Gatherer) {
	if *metricsFile == "" {
		return
	}
	if err := prometheus.WriteToTextfile(*metricsFile, g); err != nil {
		glog.Warningf("Failed to write metrics to %s: %s", *metricsFile, err)
	}
}
