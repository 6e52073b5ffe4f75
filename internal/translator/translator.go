// Copyright 2015 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package translator drives the translation of VM source units into a single
// Hack assembly program.
package translator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/JSchneidler/nand2tetris/internal/vm/code"
	"github.com/JSchneidler/nand2tetris/internal/vm/codegen"
	"github.com/JSchneidler/nand2tetris/internal/vm/decoder"
	"github.com/JSchneidler/nand2tetris/internal/vm/errors"
	"github.com/golang/glog"
	pkgerrors "github.com/pkg/errors"
	"go.opencensus.io/trace"
)

const (
	fileExt = ".vm"
	asmExt  = ".asm"

	defaultStackBase = 256
	defaultEntry     = "Sys.init"
)

// Translator accumulates the code for a sequence of source units.  Static
// variables are qualified by unit, and labels generated by the run are unique
// across all of its units.
type Translator struct {
	g *codegen.Generator

	prologue string           // Bootstrap code, emitted ahead of every unit.
	body     strings.Builder  // Code for the units translated so far.
	units    []string         // Prefixes of the units translated so far.
	skipped  errors.ErrorList // Unknown lines passed over under IgnoreUnknown.

	stackBase        int    // Initial stack pointer set by the bootstrap.
	entry            string // Function called by the bootstrap.
	noBootstrap      bool   // Omit the bootstrap prologue.
	ignoreUnknown    bool   // Skip unrecognised lines instead of failing.
	annotate         bool   // Emit source text comments.
	dumpInstructions bool   // Log each unit's decoded instructions.
}

// New creates a Translator configured by options.
func New(options ...Option) (*Translator, error) {
	t := &Translator{
		g:         codegen.New(),
		stackBase: defaultStackBase,
		entry:     defaultEntry,
	}
	if err := t.SetOption(options...); err != nil {
		return nil, err
	}
	if !t.noBootstrap {
		t.prologue = t.g.Bootstrap(t.stackBase, t.entry)
		if t.annotate {
			t.prologue = fmt.Sprintf("// bootstrap: SP=%d, call %s\n%s", t.stackBase, t.entry, t.prologue)
		}
	}
	return t, nil
}

// SetOption takes one or more option functions and applies them in order to the Translator.
func (t *Translator) SetOption(options ...Option) error {
	for _, option := range options {
		if err := option.apply(t); err != nil {
			return err
		}
	}
	return nil
}

// UnitName returns the static variable prefix for a source file name: its
// base name without extension.
func UnitName(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// TranslateUnit translates the source unit read from input.  The unit's
// statics are qualified with UnitName(name).
func (t *Translator) TranslateUnit(ctx context.Context, name string, input io.Reader) error {
	return t.translate(ctx, name, decoder.New(filepath.Base(name), input))
}

// TranslateFile translates the source unit in the file at path.
func (t *Translator) TranslateFile(ctx context.Context, path string) error {
	d, err := decoder.Open(path)
	if err != nil {
		UnitLoadErrors.Add(UnitName(path), 1)
		return pkgerrors.Wrapf(err, "failed to open %q", path)
	}
	return t.translate(ctx, path, d)
}

func (t *Translator) translate(ctx context.Context, name string, d *decoder.Decoder) (err error) {
	_, span := trace.StartSpan(ctx, "Translator.translate")
	defer span.End()
	defer func() {
		if cerr := d.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	unit := UnitName(name)
	start := time.Now()
	checkpoint := t.g.Checkpoint()
	t.g.SetPrefix(unit)
	defer func() {
		if err != nil {
			t.g.Restore(checkpoint)
			UnitLoadErrors.Add(unit, 1)
			span.SetStatus(trace.Status{Code: trace.StatusCodeInvalidArgument, Message: err.Error()})
		}
	}()

	var (
		body    strings.Builder
		decoded []code.Instr
		skipped errors.ErrorList
		counts  = make(map[code.Kind]int)
	)
	for d.Next() {
		i := d.Instr()
		if i.Kind == code.Unknown {
			if !t.ignoreUnknown {
				return errors.At(d.Pos(), errors.New(errors.ErrUnknownInstruction, "%q", d.Raw()))
			}
			pos := d.Pos()
			skipped.Add(&pos, errors.ErrUnknownInstruction, fmt.Sprintf("%q", d.Raw()))
			continue
		}
		frag, err := t.g.Generate(i)
		if err != nil {
			return errors.At(d.Pos(), err)
		}
		if t.annotate {
			body.WriteString("// " + d.Raw() + "\n")
		}
		body.WriteString(frag)
		decoded = append(decoded, i)
		counts[i.Kind]++
	}
	if err := d.Err(); err != nil {
		return err
	}

	t.body.WriteString(body.String())
	t.units = append(t.units, unit)
	if len(skipped) > 0 {
		glog.Warningf("Skipped %d unknown instructions in %s:\n%s", len(skipped), unit, skipped)
		t.skipped.Append(skipped)
	}
	for k, n := range counts {
		instructionsTotal.WithLabelValues(k.String()).Add(float64(n))
	}
	UnitLoads.Add(unit, 1)
	unitTranslationDurations.Observe(time.Since(start).Seconds())
	glog.V(1).Infof("Translated %s: %d instructions, pc now %d", unit, len(decoded), t.g.PC())
	if t.dumpInstructions {
		glog.Infof("Decoded instructions of %s:\n%s", unit, dumpInstructions(decoded))
	}
	return nil
}

func dumpInstructions(is []code.Instr) string {
	b := new(bytes.Buffer)
	w := new(tabwriter.Writer)
	w.Init(b, 0, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "n\tkind\tsegment\top\tsymbol\toperand\tline\t")
	for n, i := range is {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%d\t\n", n, i.Kind, i.Segment, i.Op, i.Symbol, i.Operand, i.SourceLine+1)
	}
	if err := w.Flush(); err != nil {
		glog.Infof("flush error: %s", err)
	}
	return b.String()
}

// Units returns the prefixes of the units translated so far, in order.
func (t *Translator) Units() []string {
	return t.units
}

// Skipped returns the unknown lines passed over in successfully translated
// units when IgnoreUnknown is set.
func (t *Translator) Skipped() errors.ErrorList {
	return t.skipped
}

// Output returns the program: the bootstrap, unless disabled, followed by
// the code of every unit in translation order.
func (t *Translator) Output() string {
	return t.prologue + t.body.String()
}

// Sources expands the inputs into the list of source files to translate.
// Directories contribute the .vm files directly inside them in lexical order;
// hidden files are skipped.  Files named explicitly are always included.
func Sources(inputs []string) ([]string, error) {
	var files []string
	for _, input := range inputs {
		s, err := os.Stat(input)
		if err != nil {
			return nil, errors.New(errors.ErrUnreadableInput, "%s", err)
		}
		if !s.IsDir() {
			files = append(files, input)
			continue
		}
		dirents, err := os.ReadDir(input)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "Failed to list sources in %q", input)
		}
		for _, dirent := range dirents {
			name := dirent.Name()
			switch {
			case dirent.IsDir():
				continue
			case strings.HasPrefix(name, "."):
				glog.V(2).Infof("Skipping %s because it is a hidden file.", name)
				continue
			case filepath.Ext(name) != fileExt:
				glog.V(2).Infof("Skipping %s due to file extension.", name)
				continue
			}
			files = append(files, filepath.Join(input, name))
		}
	}
	if len(files) == 0 {
		return nil, errors.New(errors.ErrUnreadableInput, "no %s sources in %s", fileExt, strings.Join(inputs, ", "))
	}
	return files, nil
}

// Translate translates every source found in inputs and returns the program.
// Nothing is returned unless all units translate.
func Translate(ctx context.Context, inputs []string, options ...Option) (string, error) {
	ctx, span := trace.StartSpan(ctx, "Translate")
	defer span.End()
	files, err := Sources(inputs)
	if err != nil {
		return "", err
	}
	t, err := New(options...)
	if err != nil {
		return "", err
	}
	for _, f := range files {
		if err := t.TranslateFile(ctx, f); err != nil {
			return "", err
		}
	}
	glog.Infof("Translated %d units from %s", len(files), strings.Join(inputs, ", "))
	return t.Output(), nil
}

// OutputPath returns the default output path for an input: Foo.vm becomes
// Foo.asm, and a directory dir becomes dir/dir.asm.
func OutputPath(input string) string {
	if s, err := os.Stat(input); (err == nil && s.IsDir()) || strings.HasSuffix(input, string(filepath.Separator)) {
		dir := filepath.Clean(input)
		name := filepath.Base(dir)
		if abs, err := filepath.Abs(dir); err == nil {
			name = filepath.Base(abs)
		}
		return filepath.Join(dir, name+asmExt)
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + asmExt
}
