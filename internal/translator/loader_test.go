// Copyright 2015 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package translator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JSchneidler/nand2tetris/internal/testutil"
	"github.com/JSchneidler/nand2tetris/internal/vm/errors"
	"github.com/JSchneidler/nand2tetris/internal/watcher"
)

func TestLoaderWritesOutput(t *testing.T) {
	dir := testutil.TestTempDir(t)
	testutil.WriteFile(t, dir, "Sys.vm", sysSource)
	testutil.WriteFile(t, dir, "Main.vm", mainSource)
	out := OutputPath(dir)

	want, err := Translate(context.Background(), []string{dir})
	testutil.FatalIfErr(t, err)

	defer testutil.ExpectMapExpvarDelta(t, "unit_loads_total", "Sys", 1)()
	l := NewLoader([]string{dir}, out)
	testutil.FatalIfErr(t, l.Load(context.Background()))
	testutil.ExpectNoDiff(t, want, testutil.ReadFile(t, out))
	if l.LastError() != nil {
		t.Errorf("LastError = %v after a clean load", l.LastError())
	}
}

func TestLoaderKeepsOutputOnFailure(t *testing.T) {
	dir := testutil.TestTempDir(t)
	src := testutil.WriteFile(t, dir, "Main.vm", "push constant 1\n")
	out := filepath.Join(dir, "Main.asm")
	l := NewLoader([]string{src}, out, NoBootstrap)
	testutil.FatalIfErr(t, l.Load(context.Background()))
	before := testutil.ReadFile(t, out)

	testutil.WriteFile(t, dir, "Main.vm", "push constant 1\npop constant 0\n")
	err := l.Load(context.Background())
	testutil.ExpectErrorIs(t, err, errors.ErrInvalidSegment)
	testutil.ExpectErrorIs(t, l.LastError(), errors.ErrInvalidSegment)
	testutil.ExpectNoDiff(t, before, testutil.ReadFile(t, out))

	entries, err := os.ReadDir(dir)
	testutil.FatalIfErr(t, err)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			t.Errorf("temporary file %s left behind", e.Name())
		}
	}
}

func TestLoaderMissingInput(t *testing.T) {
	dir := testutil.TestTempDir(t)
	l := NewLoader([]string{filepath.Join(dir, "Nope.vm")}, filepath.Join(dir, "Nope.asm"))
	err := l.Load(context.Background())
	testutil.ExpectErrorIs(t, err, errors.ErrUnreadableInput)
	if _, err := os.Stat(filepath.Join(dir, "Nope.asm")); !os.IsNotExist(err) {
		t.Errorf("output written for a failed load: %v", err)
	}
}

func TestLoaderProcessesSourceEvents(t *testing.T) {
	dir := testutil.TestTempDir(t)
	src := testutil.WriteFile(t, dir, "Main.vm", "push constant 1\n")
	out := filepath.Join(dir, "Main.asm")

	var loads []error
	l := NewLoader([]string{dir}, out, NoBootstrap)
	l.AfterLoad = func(err error) { loads = append(loads, err) }
	w := watcher.NewFakeWatcher()
	testutil.FatalIfErr(t, l.Watch(w))

	testutil.WriteFile(t, dir, "Main.vm", "push constant 2\n")
	w.Inject(watcher.Event{Op: watcher.Update, Pathname: src})
	if len(loads) != 1 || loads[0] != nil {
		t.Fatalf("loads after update: %v", loads)
	}
	if !strings.HasPrefix(testutil.ReadFile(t, out), "@2\n") {
		t.Errorf("output not retranslated:\n%s", testutil.ReadFile(t, out))
	}

	// Writes to the output, hidden files and other extensions are not sources.
	for _, name := range []string{out, filepath.Join(dir, ".Main.asm.123"), filepath.Join(dir, ".Main.vm"), filepath.Join(dir, "README")} {
		w.Inject(watcher.Event{Op: watcher.Create, Pathname: name})
	}
	if len(loads) != 1 {
		t.Errorf("non-source events caused loads: %v", loads)
	}

	second := testutil.WriteFile(t, dir, "Second.vm", "push constant 3\n")
	w.Inject(watcher.Event{Op: watcher.Create, Pathname: second})
	if len(loads) != 2 || loads[1] != nil {
		t.Fatalf("loads after create: %v", loads)
	}
	if got := testutil.ReadFile(t, out); !strings.Contains(got, "@3\n") {
		t.Errorf("new source not translated:\n%s", got)
	}
}
