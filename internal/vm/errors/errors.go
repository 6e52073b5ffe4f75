// Copyright 2015 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package errors defines the translation error kinds and a positioned error list.
package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/JSchneidler/nand2tetris/internal/vm/position"
	"github.com/pkg/errors"
)

// Error kinds.  Every Error wraps exactly one of these, so callers can test
// with errors.Is.
var (
	ErrUnreadableInput    = stderrors.New("unreadable input")
	ErrMalformedOperand   = stderrors.New("malformed operand")
	ErrInvalidSegment     = stderrors.New("invalid segment")
	ErrUnknownInstruction = stderrors.New("unknown instruction")
	ErrDuplicateFunction  = stderrors.New("duplicate function")
)

// Error is a translation error at a known source position.
type Error struct {
	Pos  position.Position
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Pos.String() + ": " + e.Kind.Error()
	}
	return e.Pos.String() + ": " + e.Kind.Error() + ": " + e.Msg
}

// Unwrap returns the error kind.
func (e *Error) Unwrap() error {
	return e.Kind
}

// New returns an Error of the given kind with no position attached.
func New(kind error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// At attaches a position to err.  Errors that are not an *Error are wrapped
// in one of kind ErrUnreadableInput, as they can only come from the reader.
func At(pos position.Position, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		c := *e
		c.Pos = pos
		return &c
	}
	return &Error{Pos: pos, Kind: ErrUnreadableInput, Msg: err.Error()}
}

// ErrorList contains a list of translation errors.
type ErrorList []*Error

// Add appends an error of kind at a position to the list of errors.
func (p *ErrorList) Add(pos *position.Position, kind error, msg string) {
	e := &Error{Kind: kind, Msg: msg}
	if pos != nil {
		e.Pos = *pos
	}
	*p = append(*p, e)
}

// Append puts an ErrorList on the end of this ErrorList.
func (p *ErrorList) Append(l ErrorList) {
	*p = append(*p, l...)
}

// ErrorList implements the error interface.
func (p ErrorList) Error() string {
	switch len(p) {
	case 0:
		return "no errors"
	case 1:
		return p[0].Error()
	}
	var r string
	for _, e := range p {
		r += fmt.Sprintf("%s\n", e)
	}
	return r[:len(r)-1]
}

// Is reports whether any error in the list is of kind target.
func (p ErrorList) Is(target error) bool {
	for _, e := range p {
		if stderrors.Is(e, target) {
			return true
		}
	}
	return false
}
