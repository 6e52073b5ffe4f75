// Copyright 2019 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package errors_test

import (
	stderrors "errors"
	"io"
	"testing"

	"github.com/JSchneidler/nand2tetris/internal/vm/errors"
	"github.com/JSchneidler/nand2tetris/internal/vm/position"
	pkgerrors "github.com/pkg/errors"
)

func TestNilErrorPosition(t *testing.T) {
	e := errors.ErrorList{}
	e.Add(nil, errors.ErrUnknownInstruction, "bogus")
	r := e.Error()
	if r != "1: unknown instruction: bogus" {
		t.Errorf("want '1: unknown instruction: bogus', got %q", r)
	}
}

func TestErrorListJoinsLines(t *testing.T) {
	e := errors.ErrorList{}
	e.Add(&position.Position{Filename: "a.vm", Line: 1}, errors.ErrMalformedOperand, "x")
	e.Add(&position.Position{Filename: "b.vm", Line: 2}, errors.ErrInvalidSegment, "")
	want := "a.vm:2: malformed operand: x\nb.vm:3: invalid segment"
	if r := e.Error(); r != want {
		t.Errorf("want %q, got %q", want, r)
	}
	if !stderrors.Is(e, errors.ErrInvalidSegment) {
		t.Error("ErrorList should match a contained kind")
	}
	if stderrors.Is(e, errors.ErrDuplicateFunction) {
		t.Error("ErrorList should not match an absent kind")
	}
}

func TestAtKeepsKindThroughWrapping(t *testing.T) {
	err := pkgerrors.Wrap(errors.New(errors.ErrMalformedOperand, "index %q", "x"), "decode")
	err = errors.At(position.Position{Filename: "Main.vm", Line: 6}, err)
	if !stderrors.Is(err, errors.ErrMalformedOperand) {
		t.Fatalf("kind lost: %v", err)
	}
	if got := err.Error(); got != `Main.vm:7: malformed operand: index "x"` {
		t.Errorf("unexpected message %q", got)
	}
}

func TestAtWrapsReaderErrors(t *testing.T) {
	err := errors.At(position.Position{Filename: "Main.vm"}, io.ErrUnexpectedEOF)
	if !stderrors.Is(err, errors.ErrUnreadableInput) {
		t.Errorf("reader failure should be unreadable input, got %v", err)
	}
	if errors.At(position.Position{}, nil) != nil {
		t.Error("At(nil) should be nil")
	}
}
