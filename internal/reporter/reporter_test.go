package reporter

import (
	"bytes"
	"testing"

	"github.com/atjhc/sif/internal/reader"
	"github.com/atjhc/sif/internal/token"
)

func rangeAt(line, startCol, endCol int) token.Range {
	return token.Range{
		Start: token.Location{File: "test.sif", Line: line, Column: startCol},
		End:   token.Location{File: "test.sif", Line: line, Column: endCol},
	}
}

func TestFlushFormat(t *testing.T) {
	src := reader.NewStringReader("test.sif", "set x to\nprint x\n")
	var out bytes.Buffer
	r := New(&out)
	r.Report(rangeAt(1, 5, 9), "something went %s", "wrong")
	r.Flush(src)

	want := "test.sif:1:5: Error: something went wrong\n" +
		"set x to\n" +
		"    ^~~~\n"
	if out.String() != want {
		t.Fatalf("output:\n%q\nwant:\n%q", out.String(), want)
	}
}

func TestZeroWidthRangeStillGetsACaret(t *testing.T) {
	src := reader.NewStringReader("test.sif", "x\n")
	var out bytes.Buffer
	r := New(&out)
	r.Report(rangeAt(1, 1, 1), "boom")
	r.Flush(src)

	want := "test.sif:1:1: Error: boom\nx\n^\n"
	if out.String() != want {
		t.Fatalf("output:\n%q\nwant:\n%q", out.String(), want)
	}
}

func TestFailedAndReset(t *testing.T) {
	r := New(&bytes.Buffer{})
	if r.Failed() {
		t.Fatal("fresh reporter reports failure")
	}
	r.Report(token.Range{}, "x")
	if !r.Failed() || r.Count() != 1 {
		t.Fatal("report not recorded")
	}
	r.Reset()
	if r.Failed() {
		t.Fatal("Reset did not clear diagnostics")
	}
}

func TestTruncate(t *testing.T) {
	r := New(&bytes.Buffer{})
	r.Report(token.Range{}, "keep")
	mark := r.Count()
	r.Report(token.Range{}, "speculative 1")
	r.Report(token.Range{}, "speculative 2")
	r.Truncate(mark)
	if r.Count() != 1 || r.Diagnostics()[0].Message != "keep" {
		t.Fatalf("diagnostics after truncate: %v", r.Diagnostics())
	}
	// Truncating to a larger count is a no-op.
	r.Truncate(10)
	if r.Count() != 1 {
		t.Fatal("over-long truncate mutated diagnostics")
	}
}

func TestColorizedCaret(t *testing.T) {
	src := reader.NewStringReader("test.sif", "x\n")
	var out bytes.Buffer
	r := New(&out)
	r.SetColorize(true)
	r.Report(rangeAt(1, 1, 2), "boom")
	r.Flush(src)
	if !bytes.Contains(out.Bytes(), []byte("\033[31m")) {
		t.Fatal("colorized output missing ANSI escape")
	}
}
