// Copyright 2011 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package decoder turns VM source text into a sequence of instructions.
package decoder

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/JSchneidler/nand2tetris/internal/vm/code"
	"github.com/JSchneidler/nand2tetris/internal/vm/errors"
	"github.com/JSchneidler/nand2tetris/internal/vm/position"
	"github.com/golang/glog"
	"github.com/golang/groupcache/lru"
	pkgerrors "github.com/pkg/errors"
)

const memoSize = 128

// Decoder is a forward-only sequence of the instructions in one source unit.
// Blank lines and comments are skipped.
type Decoder struct {
	name string
	path string // Set when the Decoder owns the file it reads.

	r     io.Reader
	c     io.Closer
	s     *bufio.Scanner
	lines int // Source lines consumed so far.
	done  bool

	cur  code.Instr
	raw  string
	line int // Zero-based source line of cur.
	err  error

	memo *lru.Cache // Decoded instructions keyed by stripped line text.
}

// New returns a Decoder reading the unit called name from r.
func New(name string, r io.Reader) *Decoder {
	d := &Decoder{name: name, memo: lru.New(memoSize)}
	d.start(r)
	return d
}

// Open returns a Decoder over the file at path.  The file is closed when the
// input is exhausted, when decoding fails, or on Close.
func Open(path string) (*Decoder, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, errors.New(errors.ErrUnreadableInput, "%s", err)
	}
	d := New(filepath.Base(path), f)
	d.path = path
	d.c = f
	return d, nil
}

func (d *Decoder) start(r io.Reader) {
	d.r = r
	d.s = bufio.NewScanner(r)
	d.lines = 0
	d.done = false
	d.err = nil
}

// Name returns the name of the source unit.
func (d *Decoder) Name() string {
	return d.name
}

// Next advances to the next instruction, returning false when the input is
// exhausted or an error occurred.
func (d *Decoder) Next() bool {
	if d.done {
		return false
	}
	for d.s.Scan() {
		lineNo := d.lines
		d.lines++
		line := StripComment(d.s.Text())
		if line == "" {
			continue
		}
		i, err := d.decode(line)
		if err != nil {
			d.err = errors.At(position.Position{Filename: d.name, Line: lineNo}, err)
			d.finish()
			return false
		}
		i.SourceLine = lineNo
		d.cur, d.raw, d.line = i, line, lineNo
		glog.V(2).Infof("%s:%d decoded %q as %s", d.name, lineNo+1, line, i)
		return true
	}
	if err := d.s.Err(); err != nil {
		d.err = errors.At(position.Position{Filename: d.name, Line: d.lines}, err)
	}
	d.finish()
	return false
}

func (d *Decoder) decode(line string) (code.Instr, error) {
	if v, ok := d.memo.Get(line); ok {
		return v.(code.Instr), nil
	}
	i, err := Decode(line)
	if err != nil {
		return i, err
	}
	d.memo.Add(line, i)
	return i, nil
}

func (d *Decoder) finish() {
	d.done = true
	if err := d.Close(); err != nil {
		glog.Warning(err)
	}
}

// Instr returns the current instruction.
func (d *Decoder) Instr() code.Instr {
	return d.cur
}

// Raw returns the comment-stripped source text of the current instruction.
func (d *Decoder) Raw() string {
	return d.raw
}

// Pos returns the source position of the current instruction.
func (d *Decoder) Pos() position.Position {
	return position.Position{Filename: d.name, Line: d.line}
}

// Err returns the error that stopped the sequence, if any.
func (d *Decoder) Err() error {
	return d.err
}

// Reset restarts the sequence from the first line.  Decoders created by Open
// reopen their file; others require the reader to be an io.Seeker.
func (d *Decoder) Reset() error {
	if d.path != "" {
		if err := d.Close(); err != nil {
			return err
		}
		f, err := os.Open(filepath.Clean(d.path))
		if err != nil {
			return errors.New(errors.ErrUnreadableInput, "%s", err)
		}
		d.c = f
		d.start(f)
		return nil
	}
	s, ok := d.r.(io.Seeker)
	if !ok {
		return pkgerrors.Errorf("cannot reset %s: input is not seekable", d.name)
	}
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		return pkgerrors.Wrapf(err, "failed to rewind %s", d.name)
	}
	d.start(d.r)
	return nil
}

// Close releases the underlying file, if the Decoder owns one.  It is safe to
// call more than once.
func (d *Decoder) Close() error {
	if d.c == nil {
		return nil
	}
	c := d.c
	d.c = nil
	return c.Close()
}
