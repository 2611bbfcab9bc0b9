// Package reporter implements Sif's error-emission sink. Syntax, compile
// and runtime errors all pass through it as the same Diagnostic type.
package reporter

import (
	"fmt"
	"io"

	"github.com/atjhc/sif/internal/reader"
	"github.com/atjhc/sif/internal/token"
)

// Diagnostic is one reported error: syntax, compile, or runtime.
type Diagnostic struct {
	Range   token.Range
	Message string
}

// Reporter collects diagnostics during scanning/parsing/compiling and can
// format them against the program source for display.
type Reporter struct {
	out         io.Writer
	diagnostics []Diagnostic
	colorize    bool
}

func New(out io.Writer) *Reporter { return &Reporter{out: out} }

// SetColorize enables ANSI coloring of the caret line, used by the CLI
// when stderr is a terminal.
func (r *Reporter) SetColorize(v bool) { r.colorize = v }

func (r *Reporter) Report(rng token.Range, format string, args ...interface{}) {
	r.diagnostics = append(r.diagnostics, Diagnostic{Range: rng, Message: fmt.Sprintf(format, args...)})
}

func (r *Reporter) Failed() bool { return len(r.diagnostics) > 0 }

// Count returns the number of diagnostics reported so far; paired with
// Truncate it lets the parser retract errors reported inside a speculative,
// later-backtracked grammar branch.
func (r *Reporter) Count() int { return len(r.diagnostics) }

// Truncate discards every diagnostic reported after the first n.
func (r *Reporter) Truncate(n int) {
	if n < len(r.diagnostics) {
		r.diagnostics = r.diagnostics[:n]
	}
}

func (r *Reporter) Diagnostics() []Diagnostic { return r.diagnostics }

// Reset clears accumulated diagnostics (used between REPL statements).
func (r *Reporter) Reset() { r.diagnostics = nil }

// Flush prints every diagnostic against src as
// "name:line:col: Error: <message>", followed by the offending source
// line and a caret/tilde underline.
func (r *Reporter) Flush(src reader.Reader) {
	for _, d := range r.diagnostics {
		r.print(src, d)
	}
}

func (r *Reporter) print(src reader.Reader, d Diagnostic) {
	loc := d.Range.Start
	fmt.Fprintf(r.out, "%s:%d:%d: Error: %s\n", src.Name(), loc.Line, loc.Column, d.Message)
	line, ok := src.Line(loc.Line)
	if !ok {
		return
	}
	fmt.Fprintln(r.out, line)

	width := d.Range.End.Column - d.Range.Start.Column
	if width < 1 {
		width = 1
	}
	caret := make([]byte, 0, loc.Column-1+width)
	for i := 1; i < loc.Column; i++ {
		caret = append(caret, ' ')
	}
	caret = append(caret, '^')
	for i := 1; i < width; i++ {
		caret = append(caret, '~')
	}
	if r.colorize {
		fmt.Fprintf(r.out, "\033[31m%s\033[0m\n", caret)
	} else {
		fmt.Fprintln(r.out, string(caret))
	}
}
