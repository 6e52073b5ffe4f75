// Copyright 2015 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package translator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/JSchneidler/nand2tetris/internal/watcher"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

// Loader translates a fixed set of inputs to an output file, and translates
// them again whenever a watcher reports a source change.
type Loader struct {
	inputs  []string
	output  string
	options []Option

	// AfterLoad, if set, is called at the end of every Load with its result.
	AfterLoad func(error)

	mu      sync.Mutex // serialises loads
	lastErr error      // result of the last load
}

// NewLoader creates a Loader that writes the translation of inputs to output.
func NewLoader(inputs []string, output string, options ...Option) *Loader {
	return &Loader{inputs: inputs, output: output, options: options}
}

// Load translates the inputs and replaces the output file.  The output is
// left untouched if any unit fails.
func (l *Loader) Load(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "Loader.Load")
	defer span.End()
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.load(ctx)
	l.lastErr = err
	if l.AfterLoad != nil {
		l.AfterLoad(err)
	}
	return err
}

func (l *Loader) load(ctx context.Context) error {
	asm, err := Translate(ctx, l.inputs, l.options...)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(l.output, asm); err != nil {
		return err
	}
	glog.Infof("Wrote %s", l.output)
	return nil
}

// writeFileAtomic writes contents to a temporary file beside name and renames
// it over name.
func writeFileAtomic(name, contents string) error {
	f, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".*")
	if err != nil {
		return errors.Wrapf(err, "failed to create temporary file for %q", name)
	}
	tmp := f.Name()
	if _, err := f.WriteString(contents); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "failed to write %q", tmp)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "failed to close %q", tmp)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		glog.Warning(err)
	}
	if err := os.Rename(tmp, name); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "failed to rename %q to %q", tmp, name)
	}
	return nil
}

// LastError returns the result of the most recent Load.
func (l *Loader) LastError() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

// Watch registers the Loader with w for every input.
func (l *Loader) Watch(w watcher.Watcher) error {
	for _, input := range l.inputs {
		if err := w.Observe(input, l); err != nil {
			return err
		}
	}
	return nil
}

// ProcessFileEvent reloads on any change to a visible source file.
func (l *Loader) ProcessFileEvent(ctx context.Context, e watcher.Event) {
	name := filepath.Base(e.Pathname)
	if strings.HasPrefix(name, ".") || filepath.Ext(name) != fileExt {
		glog.V(2).Infof("Ignoring %s event for %s", e.Op, e.Pathname)
		return
	}
	glog.Infof("Retranslating after %s of %s", e.Op, e.Pathname)
	if err := l.Load(ctx); err != nil {
		glog.Warning(err)
	}
}
