// Copyright 2019 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package testutil

import (
	"errors"
	"testing"
)

// FatalIfErr fails the test with a fatal error if err is not nil.
func FatalIfErr(tb testing.TB, err error) {
	tb.Helper()
	if err != nil {
		tb.Fatal(err)
	}
}

// ExpectErrorIs fails the test if err does not match the error kind want.
func ExpectErrorIs(tb testing.TB, err, want error) {
	tb.Helper()
	if err == nil {
		tb.Fatalf("expected error %q, got nil", want)
	}
	if !errors.Is(err, want) {
		tb.Errorf("expected error %q, got %q", want, err)
	}
}
