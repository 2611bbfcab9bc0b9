package printer_test

import (
	"io"
	"strings"
	"testing"

	"github.com/atjhc/sif/internal/ast"
	"github.com/atjhc/sif/internal/parser"
	"github.com/atjhc/sif/internal/printer"
	"github.com/atjhc/sif/internal/reader"
	"github.com/atjhc/sif/internal/reporter"
	"github.com/atjhc/sif/internal/signature"
)

func parse(t *testing.T, source string, base ...signature.Signature) *ast.Block {
	t.Helper()
	rep := reporter.New(io.Discard)
	p := parser.New(reader.NewStringReader("test.sif", source), rep, base)
	block := p.Parse()
	if rep.Failed() {
		t.Fatalf("parse failed: %v", rep.Diagnostics())
	}
	return block
}

func TestPrintSimpleProgram(t *testing.T) {
	print := signature.Signature{Terms: []signature.Term{
		signature.Word{Text: "print"},
		signature.Argument{Names: []string{"value"}},
	}}
	out := printer.Print(parse(t, "print 1", print))

	want := "(block\n" +
		"  (expr-stmt\n" +
		"    (call print (:)\n" +
		"      (int 1)\n"
	if out != want {
		t.Fatalf("printed:\n%s\nwant:\n%s", out, want)
	}
}

func TestPrintCoversStatements(t *testing.T) {
	out := printer.Print(parse(t, `set x to 1
if x = 1 then
  set x to 2
else
  set x to 3
end if
repeat while x < 5
  set x to x + 1
end repeat
try
  set y to x
end try
function nop
  return
end function
`))
	for _, fragment := range []string{
		"(set", "(target x)", "(if", "(eq", "(then", "(else",
		"(repeat", "(while", "(lt", "(try", "(function nop", "(return)",
	} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("printed form missing %q:\n%s", fragment, out)
		}
	}
}

func TestPrintExpressions(t *testing.T) {
	out := printer.Print(parse(t, `set a to [1, 2]
set b to {"k": 1}
set c to 1...5
set d to "x{a}y"
set e to -a[0]
set f to not true
`))
	for _, fragment := range []string{
		"(list", "(dictionary", "(entry", "(range-closed",
		"(interpolation \"x\"", "(negate", "(subscript", "(not", "(bool true)",
	} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("printed form missing %q:\n%s", fragment, out)
		}
	}
}
