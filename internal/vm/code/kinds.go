// Copyright 2011 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package code

// Kind identifies the form of an instruction.
type Kind int

const (
	Unknown    Kind = iota // Line matches no known instruction form.
	Push                   // Push a segment value onto the stack.
	Pop                    // Pop the stack top into a segment.
	Arithmetic             // Arithmetic, logical or comparison operator on the stack.
	Label                  // Declare a jump target.
	IfGoto                 // Pop and jump if non-zero.
	Goto                   // Unconditional jump.
	Function               // Function declaration with a local count.
	Call                   // Call a function with an argument count.
	Return                 // Return to the caller.

	lastKind
)

var kindNames = map[Kind]string{
	Unknown:    "unknown",
	Push:       "push",
	Pop:        "pop",
	Arithmetic: "arithmetic",
	Label:      "label",
	IfGoto:     "if-goto",
	Goto:       "goto",
	Function:   "function",
	Call:       "call",
	Return:     "return",
}

func (k Kind) String() string {
	return kindNames[k]
}

// Segment names one of the VM memory segments.
type Segment int

const (
	None Segment = iota
	Constant
	Local
	Argument
	This
	That
	Pointer
	Temp
	Static

	lastSegment
)

var segmentNames = map[Segment]string{
	None:     "none",
	Constant: "constant",
	Local:    "local",
	Argument: "argument",
	This:     "this",
	That:     "that",
	Pointer:  "pointer",
	Temp:     "temp",
	Static:   "static",
}

func (s Segment) String() string {
	return segmentNames[s]
}

// ParseSegment returns the segment with the given source name.
func ParseSegment(name string) (Segment, bool) {
	for s := Constant; s < lastSegment; s++ {
		if segmentNames[s] == name {
			return s, true
		}
	}
	return None, false
}

// Operators lists the arithmetic and logical operator keywords, unary first.
var Operators = []string{"neg", "not", "add", "sub", "and", "or", "eq", "gt", "lt"}

// IsOperator reports whether word is an arithmetic or logical operator keyword.
func IsOperator(word string) bool {
	for _, op := range Operators {
		if op == word {
			return true
		}
	}
	return false
}

// IsUnary reports whether op consumes a single stack value.
func IsUnary(op string) bool {
	return op == "neg" || op == "not"
}

// IsComparison reports whether op is one of the comparison operators.
func IsComparison(op string) bool {
	return op == "eq" || op == "gt" || op == "lt"
}
