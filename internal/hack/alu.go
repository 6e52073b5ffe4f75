// Copyright 2024 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package hack

type compFunc func(a, d, m int16) int16

// comps is the ALU function table.  Commutative operations are accepted in
// either operand order, as the translator writes some of them M-first.
var comps = map[string]compFunc{
	"0":  func(a, d, m int16) int16 { return 0 },
	"1":  func(a, d, m int16) int16 { return 1 },
	"-1": func(a, d, m int16) int16 { return -1 },
	"D":  func(a, d, m int16) int16 { return d },
	"A":  func(a, d, m int16) int16 { return a },
	"M":  func(a, d, m int16) int16 { return m },
	"!D": func(a, d, m int16) int16 { return ^d },
	"!A": func(a, d, m int16) int16 { return ^a },
	"!M": func(a, d, m int16) int16 { return ^m },
	"-D": func(a, d, m int16) int16 { return -d },
	"-A": func(a, d, m int16) int16 { return -a },
	"-M": func(a, d, m int16) int16 { return -m },

	"D+1": func(a, d, m int16) int16 { return d + 1 },
	"A+1": func(a, d, m int16) int16 { return a + 1 },
	"M+1": func(a, d, m int16) int16 { return m + 1 },
	"D-1": func(a, d, m int16) int16 { return d - 1 },
	"A-1": func(a, d, m int16) int16 { return a - 1 },
	"M-1": func(a, d, m int16) int16 { return m - 1 },

	"D+A": func(a, d, m int16) int16 { return d + a },
	"A+D": func(a, d, m int16) int16 { return d + a },
	"D+M": func(a, d, m int16) int16 { return d + m },
	"M+D": func(a, d, m int16) int16 { return d + m },
	"D-A": func(a, d, m int16) int16 { return d - a },
	"A-D": func(a, d, m int16) int16 { return a - d },
	"D-M": func(a, d, m int16) int16 { return d - m },
	"M-D": func(a, d, m int16) int16 { return m - d },
	"D&A": func(a, d, m int16) int16 { return d & a },
	"A&D": func(a, d, m int16) int16 { return d & a },
	"D&M": func(a, d, m int16) int16 { return d & m },
	"M&D": func(a, d, m int16) int16 { return d & m },
	"D|A": func(a, d, m int16) int16 { return d | a },
	"A|D": func(a, d, m int16) int16 { return d | a },
	"D|M": func(a, d, m int16) int16 { return d | m },
	"M|D": func(a, d, m int16) int16 { return d | m },
}

var jumps = map[string]func(v int16) bool{
	"JGT": func(v int16) bool { return v > 0 },
	"JEQ": func(v int16) bool { return v == 0 },
	"JGE": func(v int16) bool { return v >= 0 },
	"JLT": func(v int16) bool { return v < 0 },
	"JNE": func(v int16) bool { return v != 0 },
	"JLE": func(v int16) bool { return v <= 0 },
	"JMP": func(v int16) bool { return true },
}
