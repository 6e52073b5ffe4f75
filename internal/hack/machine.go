// Copyright 2024 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package hack executes symbolic Hack assembly on an emulated Hack computer.
// Labels and variables are resolved the way the Hack assembler resolves them,
// so generated code can be run without assembling it to machine words.
package hack

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

const (
	// RAMSize is the number of 16-bit words of data memory.
	RAMSize = 1 << 15

	varBase = 16 // First address allocated to variables.
)

var predefined = map[string]int{
	"SP":     0,
	"LCL":    1,
	"ARG":    2,
	"THIS":   3,
	"THAT":   4,
	"SCREEN": 16384,
	"KBD":    24576,
}

func init() {
	for r := 0; r < 16; r++ {
		predefined[fmt.Sprintf("R%d", r)] = r
	}
}

// ErrStepLimit is returned when a run does not finish within its step budget.
var ErrStepLimit = errors.New("step limit exceeded")

type instr struct {
	load   bool
	value  int
	symbol string

	dest, comp, jump string

	line int // Source line, zero-based.
}

func (i instr) String() string {
	if i.load {
		if i.symbol != "" {
			return "@" + i.symbol
		}
		return "@" + strconv.Itoa(i.value)
	}
	s := i.comp
	if i.dest != "" {
		s = i.dest + "=" + s
	}
	if i.jump != "" {
		s += ";" + i.jump
	}
	return s
}

// Machine is a Hack computer loaded with a program.
type Machine struct {
	ram  [RAMSize]int16
	a, d int16
	pc   int

	prog    []instr
	symbols map[string]int
	labels  map[string]int

	// Steps counts executed instructions.
	Steps int
}

// Load parses and resolves the assembly text.
func Load(asm string) (*Machine, error) {
	m := &Machine{symbols: make(map[string]int), labels: make(map[string]int)}
	if err := m.pass1(asm); err != nil {
		return nil, err
	}
	m.pass2()
	return m, nil
}

// pass1 collects instructions and label addresses.
func (m *Machine) pass1(asm string) error {
	s := bufio.NewScanner(strings.NewReader(asm))
	for lineNo := 0; s.Scan(); lineNo++ {
		line := s.Text()
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "(") {
			if !strings.HasSuffix(line, ")") || len(line) < 3 {
				return errors.Errorf("line %d: malformed label %q", lineNo+1, line)
			}
			name := line[1 : len(line)-1]
			if _, ok := m.labels[name]; ok {
				return errors.Errorf("line %d: duplicate label %q", lineNo+1, name)
			}
			m.labels[name] = len(m.prog)
			continue
		}
		i, err := parseInstr(line)
		if err != nil {
			return errors.Wrapf(err, "line %d", lineNo+1)
		}
		i.line = lineNo
		m.prog = append(m.prog, i)
	}
	return s.Err()
}

// pass2 binds symbolic loads to labels, predefined registers or variables.
func (m *Machine) pass2() {
	next := varBase
	for n, i := range m.prog {
		if !i.load || i.symbol == "" {
			continue
		}
		if addr, ok := m.labels[i.symbol]; ok {
			m.prog[n].value = addr
			continue
		}
		if addr, ok := predefined[i.symbol]; ok {
			m.prog[n].value = addr
			continue
		}
		addr, ok := m.symbols[i.symbol]
		if !ok {
			addr = next
			next++
			m.symbols[i.symbol] = addr
			glog.V(2).Infof("allocated variable %s at %d", i.symbol, addr)
		}
		m.prog[n].value = addr
	}
}

func parseInstr(line string) (instr, error) {
	if strings.HasPrefix(line, "@") {
		v := line[1:]
		if v == "" {
			return instr{}, errors.New("empty address")
		}
		if v[0] >= '0' && v[0] <= '9' {
			n, err := strconv.Atoi(v)
			if err != nil || n >= RAMSize {
				return instr{}, errors.Errorf("bad constant %q", v)
			}
			return instr{load: true, value: n}, nil
		}
		return instr{load: true, symbol: v}, nil
	}
	var i instr
	rest := line
	if eq := strings.Index(rest, "="); eq >= 0 {
		i.dest = rest[:eq]
		rest = rest[eq+1:]
		if strings.Trim(i.dest, "AMD") != "" {
			return instr{}, errors.Errorf("bad dest %q", i.dest)
		}
	}
	if semi := strings.Index(rest, ";"); semi >= 0 {
		i.jump = rest[semi+1:]
		rest = rest[:semi]
		if _, ok := jumps[i.jump]; !ok {
			return instr{}, errors.Errorf("bad jump %q", i.jump)
		}
	}
	i.comp = rest
	if _, ok := comps[i.comp]; !ok {
		return instr{}, errors.Errorf("bad comp %q", i.comp)
	}
	return i, nil
}

// Address returns the address bound to a label, variable or predefined symbol.
func (m *Machine) Address(symbol string) (int, bool) {
	if a, ok := m.labels[symbol]; ok {
		return a, true
	}
	if a, ok := predefined[symbol]; ok {
		return a, true
	}
	a, ok := m.symbols[symbol]
	return a, ok
}

// Peek returns the word at addr.
func (m *Machine) Peek(addr int) int16 {
	return m.ram[addr]
}

// Poke stores v at addr.
func (m *Machine) Poke(addr int, v int16) {
	m.ram[addr] = v
}

// PC returns the address of the next instruction.
func (m *Machine) PC() int {
	return m.pc
}

// Halted reports whether the program counter has run off the program.
func (m *Machine) Halted() bool {
	return m.pc < 0 || m.pc >= len(m.prog)
}

// Step executes one instruction.
func (m *Machine) Step() error {
	if m.Halted() {
		return errors.Errorf("pc %d outside program of %d instructions", m.pc, len(m.prog))
	}
	i := m.prog[m.pc]
	m.Steps++
	if i.load {
		m.a = int16(i.value)
		m.pc++
		return nil
	}
	addr := int(uint16(m.a))
	var mv int16
	if strings.Contains(i.comp, "M") || strings.Contains(i.dest, "M") {
		if addr >= RAMSize {
			return errors.Errorf("pc %d (%s): address %d outside RAM", m.pc, i, addr)
		}
		mv = m.ram[addr]
	}
	r := comps[i.comp](m.a, m.d, mv)
	target := addr
	if strings.Contains(i.dest, "M") {
		m.ram[addr] = r
	}
	if strings.Contains(i.dest, "A") {
		m.a = r
	}
	if strings.Contains(i.dest, "D") {
		m.d = r
	}
	if i.jump != "" && jumps[i.jump](r) {
		m.pc = target
		return nil
	}
	m.pc++
	return nil
}

// Run executes until the program halts or maxSteps instructions have run.
func (m *Machine) Run(maxSteps int) error {
	for n := 0; n < maxSteps; n++ {
		if m.Halted() {
			return nil
		}
		if err := m.Step(); err != nil {
			return err
		}
	}
	if m.Halted() {
		return nil
	}
	return ErrStepLimit
}

// RunUntil executes until control reaches the label, the program halts, or
// maxSteps instructions have run.
func (m *Machine) RunUntil(label string, maxSteps int) error {
	stop, ok := m.labels[label]
	if !ok {
		return errors.Errorf("no label %q", label)
	}
	for n := 0; n < maxSteps; n++ {
		if m.pc == stop {
			return nil
		}
		if m.Halted() {
			return errors.Errorf("halted before reaching %q", label)
		}
		if err := m.Step(); err != nil {
			return err
		}
	}
	if m.pc == stop {
		return nil
	}
	return ErrStepLimit
}
