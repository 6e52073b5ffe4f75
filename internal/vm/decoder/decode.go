// Copyright 2011 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package decoder

import (
	"strconv"
	"strings"

	"github.com/JSchneidler/nand2tetris/internal/vm/code"
	"github.com/JSchneidler/nand2tetris/internal/vm/errors"
)

const (
	// MaxOperand is the largest value an address-load instruction can carry.
	MaxOperand = 1<<15 - 1

	tempSize    = 8 // R5-R12
	pointerSize = 2 // THIS, THAT
)

// StripComment removes a trailing `//` comment and surrounding whitespace.
func StripComment(line string) string {
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

// checkSymbol rejects names containing '$', which generated labels use to
// stay clear of source symbols.
func checkSymbol(s string) error {
	if strings.ContainsRune(s, '$') {
		return errors.New(errors.ErrMalformedOperand, "symbol %q contains '$'", s)
	}
	return nil
}

// Decode converts one comment-stripped, non-blank source line into an
// instruction.  Lines that match no instruction form decode to Kind Unknown
// with a nil error; the caller decides whether that is fatal.
func Decode(line string) (code.Instr, error) {
	f := strings.Fields(line)
	if len(f) == 0 {
		return code.Instr{Kind: code.Unknown}, nil
	}
	switch f[0] {
	case "push", "pop":
		if len(f) != 3 {
			break
		}
		return decodeMemoryAccess(f[0], f[1], f[2])
	case "label", "if-goto", "goto":
		if len(f) != 2 {
			break
		}
		if err := checkSymbol(f[1]); err != nil {
			return code.Instr{}, err
		}
		kind := map[string]code.Kind{"label": code.Label, "if-goto": code.IfGoto, "goto": code.Goto}[f[0]]
		return code.Instr{Kind: kind, Symbol: f[1]}, nil
	case "function", "call":
		if len(f) != 3 {
			break
		}
		if err := checkSymbol(f[1]); err != nil {
			return code.Instr{}, err
		}
		n, err := parseOperand(f[2])
		if err != nil {
			return code.Instr{}, err
		}
		kind := code.Function
		if f[0] == "call" {
			kind = code.Call
		}
		return code.Instr{Kind: kind, Symbol: f[1], Operand: n}, nil
	case "return":
		if len(f) != 1 {
			break
		}
		return code.Instr{Kind: code.Return}, nil
	default:
		if len(f) == 1 && code.IsOperator(f[0]) {
			return code.Instr{Kind: code.Arithmetic, Op: f[0]}, nil
		}
	}
	return code.Instr{Kind: code.Unknown}, nil
}

func decodeMemoryAccess(verb, segment, index string) (code.Instr, error) {
	seg, ok := code.ParseSegment(segment)
	if !ok {
		return code.Instr{}, errors.New(errors.ErrInvalidSegment, "%q", segment)
	}
	kind := code.Push
	if verb == "pop" {
		kind = code.Pop
		if seg == code.Constant {
			return code.Instr{}, errors.New(errors.ErrInvalidSegment, "cannot pop to constant")
		}
	}
	n, err := parseOperand(index)
	if err != nil {
		return code.Instr{}, err
	}
	switch {
	case seg == code.Temp && n >= tempSize:
		return code.Instr{}, errors.New(errors.ErrMalformedOperand, "temp index %d out of range 0-%d", n, tempSize-1)
	case seg == code.Pointer && n >= pointerSize:
		return code.Instr{}, errors.New(errors.ErrMalformedOperand, "pointer index %d out of range 0-%d", n, pointerSize-1)
	}
	return code.Instr{Kind: kind, Segment: seg, Operand: n}, nil
}

// parseOperand accepts only plain decimal digits; signs are rejected.
func parseOperand(s string) (int, error) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errors.New(errors.ErrMalformedOperand, "%q is not a non-negative integer", s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n > MaxOperand {
		return 0, errors.New(errors.ErrMalformedOperand, "%q exceeds %d", s, MaxOperand)
	}
	return n, nil
}
