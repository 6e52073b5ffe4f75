// Copyright 2016 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package codegen lowers VM instructions to Hack assembly text.
package codegen

import (
	"fmt"
	"strings"

	"github.com/JSchneidler/nand2tetris/internal/vm/code"
	"github.com/JSchneidler/nand2tetris/internal/vm/errors"
	"github.com/golang/glog"
)

// Reserved registers, bound to fixed addresses by the assembler.
const (
	StackPointer = "SP"
	frame        = "R13" // Callee frame pointer during return.
	returnAddr   = "R14" // Return address during return.
	popAddr      = "R15" // Destination address of an indirect pop.

	tempBase  = 5
	tempSize  = 8
	frameSize = 5 // Return address plus the four saved segment pointers.
)

var indirectBase = map[code.Segment]string{
	code.Local:    "LCL",
	code.Argument: "ARG",
	code.This:     "THIS",
	code.That:     "THAT",
}

// savedPointers lists the segment pointers a call saves, in push order.
var savedPointers = []string{"LCL", "ARG", "THIS", "THAT"}

// Generator holds the translation state for one run and emits code for one
// instruction at a time.  Every fragment is also appended to Output.
type Generator struct {
	prefix    string          // Symbol prefix of the current source unit.
	function  string          // Most recently declared function.
	cmpCount  int             // Comparison labels in the current function.
	callCount int             // Return-address labels in the whole run.
	pc        int             // Emitted instructions, labels excluded.
	functions map[string]bool // Functions declared so far in the run.

	frag strings.Builder // Fragment under construction.
	out  strings.Builder // Every fragment emitted so far.
}

// New returns a Generator with fresh state.
func New() *Generator {
	return &Generator{functions: make(map[string]bool)}
}

// SetPrefix starts a new source unit.  prefix qualifies static variables and
// the labels placed before the unit's first function declaration.
func (g *Generator) SetPrefix(prefix string) {
	g.prefix = prefix
	g.function = ""
}

// Checkpoint records the generator state so that a failed unit can be
// undone with Restore.
type Checkpoint struct {
	prefix    string
	function  string
	cmpCount  int
	callCount int
	pc        int
	functions map[string]bool
	outLen    int
}

// Checkpoint returns the current state.
func (g *Generator) Checkpoint() Checkpoint {
	return Checkpoint{
		prefix:    g.prefix,
		function:  g.function,
		cmpCount:  g.cmpCount,
		callCount: g.callCount,
		pc:        g.pc,
		functions: copyFunctions(g.functions),
		outLen:    g.out.Len(),
	}
}

func copyFunctions(fs map[string]bool) map[string]bool {
	c := make(map[string]bool, len(fs))
	for f := range fs {
		c[f] = true
	}
	return c
}

// Restore discards everything generated since c was taken.
func (g *Generator) Restore(c Checkpoint) {
	g.prefix = c.prefix
	g.function = c.function
	g.cmpCount = c.cmpCount
	g.callCount = c.callCount
	g.pc = c.pc
	g.functions = copyFunctions(c.functions)
	out := g.out.String()[:c.outLen]
	g.out.Reset()
	g.out.WriteString(out)
	g.frag.Reset()
}

// CurrentFunction returns the name of the most recently declared function.
func (g *Generator) CurrentFunction() string {
	return g.function
}

// PC returns the number of instructions emitted so far, excluding labels.
func (g *Generator) PC() int {
	return g.pc
}

// Output returns all code emitted so far.
func (g *Generator) Output() string {
	return g.out.String()
}

func (g *Generator) emit(format string, args ...interface{}) {
	s := fmt.Sprintf(format, args...)
	glog.V(2).Infof("emitting `%s' at %d", s, g.pc)
	g.frag.WriteString(s)
	g.frag.WriteByte('\n')
	g.pc++
}

func (g *Generator) setLabel(l string) {
	glog.V(2).Infof("label `%s' at %d", l, g.pc)
	g.frag.WriteString("(" + l + ")\n")
}

// flush moves the pending fragment to the output and returns it.
func (g *Generator) flush() string {
	s := g.frag.String()
	g.frag.Reset()
	g.out.WriteString(s)
	return s
}

// scope is the namespace for labels: the current function, or <prefix>$top
// before the unit declares one.  VM identifiers cannot contain '$', so the
// latter never names a function.
func (g *Generator) scope() string {
	switch {
	case g.function != "":
		return g.function
	case g.prefix != "":
		return g.prefix + "$top"
	}
	return "bootstrap"
}

func (g *Generator) newComparisonLabel() string {
	l := fmt.Sprintf("%s$cmp.%d", g.scope(), g.cmpCount)
	g.cmpCount++
	return l
}

func (g *Generator) newReturnLabel() string {
	l := fmt.Sprintf("%s$ret.%d", g.scope(), g.callCount)
	g.callCount++
	return l
}

func (g *Generator) label(name string) string {
	return g.scope() + "." + name
}

// pushD pushes the D register onto the stack.
func (g *Generator) pushD() {
	g.emit("@" + StackPointer)
	g.emit("A=M")
	g.emit("M=D")
	g.emit("@" + StackPointer)
	g.emit("M=M+1")
}

// popD pops the stack top into the D register.
func (g *Generator) popD() {
	g.emit("@" + StackPointer)
	g.emit("M=M-1")
	g.emit("A=M")
	g.emit("D=M")
}

// direct returns the symbol holding the value of a direct-offset segment slot.
func (g *Generator) direct(seg code.Segment, index int) (string, error) {
	switch seg {
	case code.Pointer:
		switch index {
		case 0:
			return "THIS", nil
		case 1:
			return "THAT", nil
		}
		return "", errors.New(errors.ErrMalformedOperand, "pointer index %d out of range 0-1", index)
	case code.Temp:
		if index < 0 || index >= tempSize {
			return "", errors.New(errors.ErrMalformedOperand, "temp index %d out of range 0-%d", index, tempSize-1)
		}
		return fmt.Sprintf("R%d", tempBase+index), nil
	case code.Static:
		return fmt.Sprintf("%s.%d", g.prefix, index), nil
	}
	return "", errors.New(errors.ErrInvalidSegment, "%s is not a direct segment", seg)
}

func (g *Generator) push(seg code.Segment, index int) error {
	if index < 0 {
		return errors.New(errors.ErrMalformedOperand, "negative index %d", index)
	}
	if seg == code.Constant {
		g.emit("@%d", index)
		g.emit("D=A")
		g.pushD()
		return nil
	}
	if base, ok := indirectBase[seg]; ok {
		g.emit("@%d", index)
		g.emit("D=A")
		g.emit("@" + base)
		g.emit("A=D+M")
		g.emit("D=M")
		g.pushD()
		return nil
	}
	sym, err := g.direct(seg, index)
	if err != nil {
		return err
	}
	g.emit("@" + sym)
	g.emit("D=M")
	g.pushD()
	return nil
}

// Push emits code that pushes segment[index] onto the stack.
func (g *Generator) Push(seg code.Segment, index int) (string, error) {
	if err := g.push(seg, index); err != nil {
		return "", err
	}
	return g.flush(), nil
}

// Pop emits code that pops the stack top into segment[index].
func (g *Generator) Pop(seg code.Segment, index int) (string, error) {
	if index < 0 {
		return "", errors.New(errors.ErrMalformedOperand, "negative index %d", index)
	}
	if base, ok := indirectBase[seg]; ok {
		// The address is computed before the pop, which clobbers D.
		g.emit("@%d", index)
		g.emit("D=A")
		g.emit("@" + base)
		g.emit("D=D+M")
		g.emit("@" + popAddr)
		g.emit("M=D")
		g.popD()
		g.emit("@" + popAddr)
		g.emit("A=M")
		g.emit("M=D")
		return g.flush(), nil
	}
	sym, err := g.direct(seg, index)
	if err != nil {
		return "", err
	}
	g.popD()
	g.emit("@" + sym)
	g.emit("M=D")
	return g.flush(), nil
}

var binaryOps = map[string]string{
	"add": "M=D+M",
	"sub": "M=M-D",
	"and": "M=M&D",
	"or":  "M=M|D",
}

// skipJumps holds the jump taken past the store of true, i.e. the inverse of
// each comparison applied to second - top.
var skipJumps = map[string]string{
	"eq": "JNE",
	"gt": "JLE",
	"lt": "JGE",
}

// Arithmetic emits code for an arithmetic, logical or comparison operator.
func (g *Generator) Arithmetic(op string) (string, error) {
	if !code.IsOperator(op) {
		return "", errors.New(errors.ErrUnknownInstruction, "operator %q", op)
	}
	g.emit("@" + StackPointer)
	g.emit("M=M-1")
	g.emit("A=M")
	switch {
	case op == "neg":
		g.emit("M=-M")
	case op == "not":
		g.emit("M=!M")
	case code.IsComparison(op):
		g.emit("D=M")
		g.emit("@" + StackPointer)
		g.emit("M=M-1")
		g.emit("A=M")
		l := g.newComparisonLabel()
		g.emit("D=M-D")
		g.emit("M=0")
		g.emit("@" + l)
		g.emit("D;" + skipJumps[op])
		g.emit("@" + StackPointer)
		g.emit("A=M")
		g.emit("M=-1")
		g.setLabel(l)
	default:
		g.emit("D=M")
		g.emit("@" + StackPointer)
		g.emit("M=M-1")
		g.emit("A=M")
		g.emit(binaryOps[op])
	}
	g.emit("@" + StackPointer)
	g.emit("M=M+1")
	return g.flush(), nil
}

// Label emits a jump target scoped to the current function.
func (g *Generator) Label(name string) string {
	g.setLabel(g.label(name))
	return g.flush()
}

// IfGoto emits code that pops the stack top and jumps to the label if it is
// non-zero.
func (g *Generator) IfGoto(name string) string {
	g.popD()
	g.emit("@" + g.label(name))
	g.emit("D;JNE")
	return g.flush()
}

// Goto emits an unconditional jump to the label.
func (g *Generator) Goto(name string) string {
	g.emit("@" + g.label(name))
	g.emit("0;JMP")
	return g.flush()
}

// Function emits the entry point of a function and zeroes its locals.
func (g *Generator) Function(name string, locals int) (string, error) {
	if g.functions[name] {
		return "", errors.New(errors.ErrDuplicateFunction, "%s", name)
	}
	if locals < 0 {
		return "", errors.New(errors.ErrMalformedOperand, "negative local count %d", locals)
	}
	g.functions[name] = true
	g.function = name
	g.cmpCount = 0
	g.setLabel(name)
	for i := 0; i < locals; i++ {
		g.emit("@0")
		g.emit("D=A")
		g.pushD()
	}
	return g.flush(), nil
}

func (g *Generator) call(name string, args int) {
	ret := g.newReturnLabel()
	g.emit("@" + ret)
	g.emit("D=A")
	g.pushD()
	for _, p := range savedPointers {
		g.emit("@" + p)
		g.emit("D=M")
		g.pushD()
	}
	// ARG = SP - args - 5
	g.emit("@" + StackPointer)
	g.emit("D=M")
	g.emit("@%d", args+frameSize)
	g.emit("D=D-A")
	g.emit("@ARG")
	g.emit("M=D")
	// LCL = SP
	g.emit("@" + StackPointer)
	g.emit("D=M")
	g.emit("@LCL")
	g.emit("M=D")
	g.emit("@" + name)
	g.emit("0;JMP")
	g.setLabel(ret)
}

// Call emits a call to the named function with args arguments already pushed.
func (g *Generator) Call(name string, args int) (string, error) {
	if args < 0 {
		return "", errors.New(errors.ErrMalformedOperand, "negative argument count %d", args)
	}
	g.call(name, args)
	return g.flush(), nil
}

// Return emits the return sequence of the current function.
func (g *Generator) Return() string {
	// The frame pointer and return address are captured first: LCL is
	// overwritten by the restores, and with no arguments the return value
	// lands on the return address slot.
	g.emit("@LCL")
	g.emit("D=M")
	g.emit("@" + frame)
	g.emit("M=D")
	g.emit("@%d", frameSize)
	g.emit("A=D-A")
	g.emit("D=M")
	g.emit("@" + returnAddr)
	g.emit("M=D")
	// *ARG = pop()
	g.popD()
	g.emit("@ARG")
	g.emit("A=M")
	g.emit("M=D")
	// SP = ARG + 1
	g.emit("@ARG")
	g.emit("D=M+1")
	g.emit("@" + StackPointer)
	g.emit("M=D")
	for i := len(savedPointers) - 1; i >= 0; i-- {
		g.emit("@" + frame)
		g.emit("D=M")
		g.emit("@%d", len(savedPointers)-i)
		g.emit("A=D-A")
		g.emit("D=M")
		g.emit("@" + savedPointers[i])
		g.emit("M=D")
	}
	g.emit("@" + returnAddr)
	g.emit("A=M")
	g.emit("0;JMP")
	return g.flush()
}

// Bootstrap emits the program prologue: the stack pointer is set to stackBase
// and the entry function is called with no arguments.
func (g *Generator) Bootstrap(stackBase int, entry string) string {
	g.emit("@%d", stackBase)
	g.emit("D=A")
	g.emit("@" + StackPointer)
	g.emit("M=D")
	g.call(entry, 0)
	return g.flush()
}

// Generate emits the code for a decoded instruction.
func (g *Generator) Generate(i code.Instr) (string, error) {
	switch i.Kind {
	case code.Push:
		return g.Push(i.Segment, i.Operand)
	case code.Pop:
		return g.Pop(i.Segment, i.Operand)
	case code.Arithmetic:
		return g.Arithmetic(i.Op)
	case code.Label:
		return g.Label(i.Symbol), nil
	case code.IfGoto:
		return g.IfGoto(i.Symbol), nil
	case code.Goto:
		return g.Goto(i.Symbol), nil
	case code.Function:
		return g.Function(i.Symbol, i.Operand)
	case code.Call:
		return g.Call(i.Symbol, i.Operand)
	case code.Return:
		return g.Return(), nil
	}
	return "", errors.New(errors.ErrUnknownInstruction, "%s", i)
}
