// Copyright 2011 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package translator

import (
	"sync"

	"contrib.go.opencensus.io/exporter/jaeger"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

// Option configures a Translator.
type Option interface {
	apply(*Translator) error
}

// StackBase sets the initial stack pointer loaded by the bootstrap.
type StackBase int

func (opt StackBase) apply(t *Translator) error {
	if opt < 0 || opt > 1<<15-1 {
		return errors.Errorf("stack base %d outside the address space", int(opt))
	}
	t.stackBase = int(opt)
	return nil
}

// Entry sets the function the bootstrap calls.
type Entry string

func (opt Entry) apply(t *Translator) error {
	if opt == "" {
		return errors.New("empty entry function")
	}
	t.entry = string(opt)
	return nil
}

type niladicOption struct {
	applyfunc func(t *Translator) error
}

func (n *niladicOption) apply(t *Translator) error {
	return n.applyfunc(t)
}

// NoBootstrap omits the bootstrap prologue from the output.
var NoBootstrap = &niladicOption{
	func(t *Translator) error {
		t.noBootstrap = true
		return nil
	}}

// IgnoreUnknown skips unrecognised source lines with a warning instead of
// failing the translation.
var IgnoreUnknown = &niladicOption{
	func(t *Translator) error {
		t.ignoreUnknown = true
		return nil
	}}

// Annotate precedes the code for each instruction with its source text as a comment.
var Annotate = &niladicOption{
	func(t *Translator) error {
		t.annotate = true
		return nil
	}}

// DumpInstructions logs the decoded instructions of each unit after it is translated.
var DumpInstructions = &niladicOption{
	func(t *Translator) error {
		t.dumpInstructions = true
		return nil
	}}

// JaegerReporter creates a new jaeger reporter that sends to the given Jaeger
// endpoint address.  Each endpoint is registered once per process.
type JaegerReporter string

var jaegerEndpoints sync.Map

func (opt JaegerReporter) apply(t *Translator) error {
	if _, loaded := jaegerEndpoints.LoadOrStore(string(opt), true); loaded {
		return nil
	}
	je, err := jaeger.NewExporter(jaeger.Options{
		CollectorEndpoint: string(opt),
		Process: jaeger.Process{
			ServiceName: "vmtranslator",
		},
	})
	if err != nil {
		jaegerEndpoints.Delete(string(opt))
		return err
	}
	trace.RegisterExporter(je)
	return nil
}
