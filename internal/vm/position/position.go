// Copyright 2016 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package position locates instructions in VM source units.
package position

import "fmt"

// A Position is the location in a source unit that an instruction appears.
type Position struct {
	Filename string // Source unit in which this instruction appears.
	Line     int    // Line in the source for this instruction, zero-based.
}

func (p Position) String() string {
	if p.Filename == "" {
		return fmt.Sprintf("%d", p.Line+1)
	}
	return fmt.Sprintf("%s:%d", p.Filename, p.Line+1)
}
