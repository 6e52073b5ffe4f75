// Copyright 2018 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package code_test

import (
	"testing"

	"github.com/JSchneidler/nand2tetris/internal/testutil"
	"github.com/JSchneidler/nand2tetris/internal/vm/code"
)

func TestInstrString(t *testing.T) {
	for _, tc := range []struct {
		i    code.Instr
		want string
	}{
		{code.Instr{Kind: code.Push, Segment: code.Constant, Operand: 7}, "{push constant 7 0}"},
		{code.Instr{Kind: code.Arithmetic, Op: "add", SourceLine: 3}, "{arithmetic add 3}"},
		{code.Instr{Kind: code.Goto, Symbol: "LOOP"}, "{goto LOOP 0}"},
		{code.Instr{Kind: code.Call, Symbol: "Foo.bar", Operand: 2, SourceLine: 9}, "{call Foo.bar 2 9}"},
		{code.Instr{Kind: code.Return}, "{return 0}"},
	} {
		testutil.ExpectNoDiff(t, tc.want, tc.i.String())
	}
}
