// Copyright 2011 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package code contains the decoded instructions of the stack virtual machine.
package code

import "fmt"

// Instr is a single decoded VM instruction.  Which of Operand, Op and Symbol
// carry meaning depends on Kind.
type Instr struct {
	Kind       Kind
	Segment    Segment
	Operand    int    // Segment index, constant, local count or argument count.
	Op         string // Arithmetic or logical operator keyword.
	Symbol     string // Label or function name.
	SourceLine int    // Line number of the original source file, zero-based numbering.
}

// debug print for instructions.
func (i Instr) String() string {
	switch i.Kind {
	case Push, Pop:
		return fmt.Sprintf("{%s %s %d %d}", i.Kind, i.Segment, i.Operand, i.SourceLine)
	case Arithmetic:
		return fmt.Sprintf("{%s %s %d}", i.Kind, i.Op, i.SourceLine)
	case Label, IfGoto, Goto:
		return fmt.Sprintf("{%s %s %d}", i.Kind, i.Symbol, i.SourceLine)
	case Function, Call:
		return fmt.Sprintf("{%s %s %d %d}", i.Kind, i.Symbol, i.Operand, i.SourceLine)
	}
	return fmt.Sprintf("{%s %d}", i.Kind, i.SourceLine)
}
