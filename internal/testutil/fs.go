// Copyright 2019 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestTempDir creates a temporary directory for use during tests, returning the pathname.
func TestTempDir(tb testing.TB) string {
	tb.Helper()
	name, err := os.MkdirTemp("", "vmtranslator-test")
	if err != nil {
		tb.Fatal(err)
	}
	tb.Cleanup(func() {
		if err := os.RemoveAll(name); err != nil {
			tb.Fatalf("os.RemoveAll(%s): %s", name, err)
		}
	})
	return name
}

// WriteFile creates or replaces the file dir/name with contents, returning its path.
func WriteFile(tb testing.TB, dir, name, contents string) string {
	tb.Helper()
	p := filepath.Join(dir, name)
	FatalIfErr(tb, os.WriteFile(p, []byte(contents), 0o600))
	return p
}

// ReadFile returns the contents of the file at path.
func ReadFile(tb testing.TB, path string) string {
	tb.Helper()
	b, err := os.ReadFile(filepath.Clean(path))
	FatalIfErr(tb, err)
	return string(b)
}

// Touch moves the modification time of path forward by d, so pollers see a change.
func Touch(tb testing.TB, path string, d time.Duration) {
	tb.Helper()
	fi, err := os.Stat(path)
	FatalIfErr(tb, err)
	mt := fi.ModTime().Add(d)
	FatalIfErr(tb, os.Chtimes(path, mt, mt))
}
