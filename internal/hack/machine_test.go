// Copyright 2024 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package hack_test

import (
	"testing"

	"github.com/JSchneidler/nand2tetris/internal/hack"
	"github.com/stretchr/testify/require"
)

func TestAddConstants(t *testing.T) {
	m, err := hack.Load(`// Computes R0 = 2 + 3
@2
D=A
@3
D=D+A
@0
M=D
`)
	require.NoError(t, err)
	require.NoError(t, m.Run(100))
	require.Equal(t, int16(5), m.Peek(0))
	require.True(t, m.Halted())
	require.Equal(t, 6, m.Steps)
}

func TestLabelsAndVariables(t *testing.T) {
	m, err := hack.Load(`
@10
D=A
@counter
M=D
@total
M=0
(LOOP)
@counter
D=M
@END
D;JEQ
@total
M=M+D
@counter
M=M-1
@LOOP
0;JMP
(END)
@END
0;JMP
`)
	require.NoError(t, err)
	counter, ok := m.Address("counter")
	require.True(t, ok)
	require.Equal(t, 16, counter)
	total, ok := m.Address("total")
	require.True(t, ok)
	require.Equal(t, 17, total)

	require.NoError(t, m.RunUntil("END", 1000))
	require.Equal(t, int16(55), m.Peek(total))
	require.Equal(t, int16(0), m.Peek(counter))
}

func TestWrappingArithmetic(t *testing.T) {
	m, err := hack.Load("@32767\nD=A\nD=D+1\n@R1\nM=D\nM=!M\n")
	require.NoError(t, err)
	require.NoError(t, m.Run(10))
	require.Equal(t, int16(32767), m.Peek(1))
}

func TestStepLimit(t *testing.T) {
	m, err := hack.Load("(X)\n@X\n0;JMP\n")
	require.NoError(t, err)
	require.ErrorIs(t, m.Run(50), hack.ErrStepLimit)
	require.Equal(t, 50, m.Steps)
}

func TestLoadErrors(t *testing.T) {
	for _, src := range []string{
		"D=D*A",
		"X=D",
		"D;JXX",
		"@",
		"@99999",
		"(LOOP",
		"(A)\n(A)",
	} {
		_, err := hack.Load(src)
		require.Error(t, err, src)
	}
}

func TestPredefinedSymbols(t *testing.T) {
	m, err := hack.Load("@SP\n@R15\n@THAT\n@KBD\n")
	require.NoError(t, err)
	for sym, want := range map[string]int{"SP": 0, "R15": 15, "THAT": 4, "KBD": 24576, "SCREEN": 16384} {
		got, ok := m.Address(sym)
		require.True(t, ok, sym)
		require.Equal(t, want, got, sym)
	}
	_, ok := m.Address("nothing")
	require.False(t, ok)
}
