// Copyright 2011 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package decoder_test

import (
	"testing"

	"github.com/JSchneidler/nand2tetris/internal/testutil"
	"github.com/JSchneidler/nand2tetris/internal/vm/code"
	"github.com/JSchneidler/nand2tetris/internal/vm/decoder"
	"github.com/JSchneidler/nand2tetris/internal/vm/errors"
)

var decodeTests = []struct {
	name string
	line string
	want code.Instr
}{
	{"push constant", "push constant 7", code.Instr{Kind: code.Push, Segment: code.Constant, Operand: 7}},
	{"push local", "push local 0", code.Instr{Kind: code.Push, Segment: code.Local, Operand: 0}},
	{"push argument", "push argument 2", code.Instr{Kind: code.Push, Segment: code.Argument, Operand: 2}},
	{"push this", "push this 6", code.Instr{Kind: code.Push, Segment: code.This, Operand: 6}},
	{"push that", "push that 5", code.Instr{Kind: code.Push, Segment: code.That, Operand: 5}},
	{"push pointer", "push pointer 1", code.Instr{Kind: code.Push, Segment: code.Pointer, Operand: 1}},
	{"push temp", "push temp 7", code.Instr{Kind: code.Push, Segment: code.Temp, Operand: 7}},
	{"push static", "push static 3", code.Instr{Kind: code.Push, Segment: code.Static, Operand: 3}},
	{"pop local", "pop local 1", code.Instr{Kind: code.Pop, Segment: code.Local, Operand: 1}},
	{"pop static", "pop static 8", code.Instr{Kind: code.Pop, Segment: code.Static, Operand: 8}},
	{"max constant", "push constant 32767", code.Instr{Kind: code.Push, Segment: code.Constant, Operand: 32767}},
	{"extra spaces", "push   constant\t10", code.Instr{Kind: code.Push, Segment: code.Constant, Operand: 10}},
	{"add", "add", code.Instr{Kind: code.Arithmetic, Op: "add"}},
	{"not", "not", code.Instr{Kind: code.Arithmetic, Op: "not"}},
	{"lt", "lt", code.Instr{Kind: code.Arithmetic, Op: "lt"}},
	{"label", "label LOOP_START", code.Instr{Kind: code.Label, Symbol: "LOOP_START"}},
	{"if-goto", "if-goto END", code.Instr{Kind: code.IfGoto, Symbol: "END"}},
	{"goto", "goto LOOP_START", code.Instr{Kind: code.Goto, Symbol: "LOOP_START"}},
	{"function", "function SimpleFunction.test 2", code.Instr{Kind: code.Function, Symbol: "SimpleFunction.test", Operand: 2}},
	{"call", "call Math.multiply 2", code.Instr{Kind: code.Call, Symbol: "Math.multiply", Operand: 2}},
	{"return", "return", code.Instr{Kind: code.Return}},
	{"unknown keyword", "mul", code.Instr{Kind: code.Unknown}},
	{"case sensitive", "ADD", code.Instr{Kind: code.Unknown}},
	{"push missing index", "push constant", code.Instr{Kind: code.Unknown}},
	{"label missing name", "label", code.Instr{Kind: code.Unknown}},
	{"return with operand", "return 1", code.Instr{Kind: code.Unknown}},
	{"operator with operand", "add 1", code.Instr{Kind: code.Unknown}},
}

func TestDecode(t *testing.T) {
	for _, tc := range decodeTests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := decoder.Decode(tc.line)
			testutil.FatalIfErr(t, err)
			testutil.ExpectNoDiff(t, tc.want, got)
		})
	}
}

var decodeErrorTests = []struct {
	name string
	line string
	kind error
}{
	{"non numeric index", "push local x", errors.ErrMalformedOperand},
	{"negative index", "push constant -1", errors.ErrMalformedOperand},
	{"signed index", "pop local +1", errors.ErrMalformedOperand},
	{"constant too large", "push constant 32768", errors.ErrMalformedOperand},
	{"temp out of range", "push temp 8", errors.ErrMalformedOperand},
	{"pointer out of range", "pop pointer 2", errors.ErrMalformedOperand},
	{"bad local count", "function Foo.bar n", errors.ErrMalformedOperand},
	{"bad arg count", "call Foo.bar -2", errors.ErrMalformedOperand},
	{"unknown segment", "push heap 0", errors.ErrInvalidSegment},
	{"pop constant", "pop constant 0", errors.ErrInvalidSegment},
	{"dollar label", "label L$1", errors.ErrMalformedOperand},
	{"dollar function", "function Main$top 0", errors.ErrMalformedOperand},
}

func TestDecodeErrors(t *testing.T) {
	for _, tc := range decodeErrorTests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := decoder.Decode(tc.line)
			testutil.ExpectErrorIs(t, err, tc.kind)
		})
	}
}

func TestStripComment(t *testing.T) {
	for in, want := range map[string]string{
		"Hello":                  "Hello",
		"Hello  ":                "Hello",
		"  Hello  ":              "Hello",
		"Hello // Comment":       "Hello",
		"Hello// Comment":        "Hello",
		"  Hello    // Comment":  "Hello",
		"// only a comment":      "",
		"   ":                    "",
		"push constant 1 / 2":    "push constant 1 / 2",
		"\tpush local 0\t// x\r": "push local 0",
	} {
		if got := decoder.StripComment(in); got != want {
			t.Errorf("StripComment(%q) = %q, want %q", in, got, want)
		}
	}
}
