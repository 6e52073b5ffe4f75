// Copyright 2015 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package translator

import (
	"expvar"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/version"
)

var (
	// UnitLoads counts the number of units translated without error.
	UnitLoads = expvar.NewMap("unit_loads_total")
	// UnitLoadErrors counts the number of units that failed to translate.
	UnitLoadErrors = expvar.NewMap("unit_load_errors_total")

	instructionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vmtranslator",
		Name:      "instructions_total",
		Help:      "VM instructions translated, by kind.",
	}, []string{"kind"})

	unitTranslationDurations = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "vmtranslator",
		Subsystem: "unit",
		Name:      "translation_duration_seconds",
		Help:      "Source unit translation time distribution in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 2.0, 12),
	})
)

var expvarDescs = map[string]*prometheus.Desc{
	"unit_loads_total":       prometheus.NewDesc("unit_loads_total", "number of units translated by unit name", []string{"unit"}, nil),
	"unit_load_errors_total": prometheus.NewDesc("unit_load_errors_total", "number of failed unit translations by unit name", []string{"unit"}, nil),
}

// NewRegistry returns a registry holding the translator metrics and a
// vmtranslator_build_info metric built from b.  The expvar counters are
// exported with a vmtranslator_ prefix.
func NewRegistry(b BuildInfo) *prometheus.Registry {
	version.Branch = b.Branch
	version.Version = b.Version
	version.Revision = b.Revision
	reg := prometheus.NewRegistry()
	reg.MustRegister(instructionsTotal, unitTranslationDurations, version.NewCollector("vmtranslator"))
	prometheus.WrapRegistererWithPrefix("vmtranslator_", reg).MustRegister(
		prometheus.NewExpvarCollector(expvarDescs))
	return reg
}
