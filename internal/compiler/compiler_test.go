package compiler_test

import (
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/atjhc/sif/internal/ast"
	"github.com/atjhc/sif/internal/bytecode"
	"github.com/atjhc/sif/internal/compiler"
	"github.com/atjhc/sif/internal/parser"
	"github.com/atjhc/sif/internal/reader"
	"github.com/atjhc/sif/internal/reporter"
	"github.com/atjhc/sif/internal/vm"
)

func parseProgram(t *testing.T, source string) *ast.Block {
	t.Helper()
	rep := reporter.New(io.Discard)
	p := parser.New(reader.NewStringReader("test.sif", source), rep, nil)
	block := p.Parse()
	if rep.Failed() {
		t.Fatalf("parse failed: %v", rep.Diagnostics())
	}
	return block
}

func compileProgram(t *testing.T, block *ast.Block) *bytecode.Bytecode {
	t.Helper()
	rep := reporter.New(io.Discard)
	c := compiler.New(rep)
	code := c.Compile(block)
	if rep.Failed() {
		t.Fatalf("compile failed: %v", rep.Diagnostics())
	}
	return code
}

func TestBytecodeDeterminism(t *testing.T) {
	source := `function twice {x}
  return x * 2
end function
set xs to [1, 2, 3]
set d to {"a": 1, "b": 2}
repeat for each n in xs
  set total to twice n
end repeat
`
	block := parseProgram(t, source)
	a := compileProgram(t, block)
	b := compileProgram(t, block)

	if diff := cmp.Diff(a.Code, b.Code); diff != "" {
		t.Fatalf("compiling the same AST twice produced different code:\n%s", diff)
	}
	if diff := cmp.Diff(
		bytecode.Disassemble(a, "program", false),
		bytecode.Disassemble(b, "program", false),
	); diff != "" {
		t.Fatalf("disassembly mismatch:\n%s", diff)
	}
}

// findFunction pulls the first *vm.Function out of a constant pool.
func findFunction(code *bytecode.Bytecode) *vm.Function {
	for _, c := range code.Constants {
		if !c.IsObject() {
			continue
		}
		if fn, ok := c.Object().(*vm.Function); ok {
			return fn
		}
	}
	return nil
}

func TestFunctionLowering(t *testing.T) {
	code := compileProgram(t, parseProgram(t, `function double {x}
  return x + x
end function
`))
	fn := findFunction(code)
	if fn == nil {
		t.Fatal("no function constant emitted")
	}
	if fn.Arity != 1 {
		t.Fatalf("arity = %d, want 1", fn.Arity)
	}
	if fn.Name != "double (:)" {
		t.Fatalf("name = %q", fn.Name)
	}
	if len(fn.CaptureDescriptors) != 0 {
		t.Fatalf("top-level function has captures: %v", fn.CaptureDescriptors)
	}
	last := bytecode.Opcode(fn.Bytecode.Code[len(fn.Bytecode.Code)-1])
	if last != bytecode.Return {
		t.Fatalf("function body must end in Return, got %v", last)
	}
}

func TestImplicitReturn(t *testing.T) {
	code := compileProgram(t, parseProgram(t, `function ping
  set x to 1
end function
`))
	fn := findFunction(code)
	n := len(fn.Bytecode.Code)
	if bytecode.Opcode(fn.Bytecode.Code[n-2]) != bytecode.GetIt ||
		bytecode.Opcode(fn.Bytecode.Code[n-1]) != bytecode.Return {
		t.Fatalf("missing implicit GetIt/Return tail: %s", bytecode.Disassemble(fn.Bytecode, "ping", false))
	}
}

func TestCaptureDescriptors(t *testing.T) {
	code := compileProgram(t, parseProgram(t, `function outer
  set base to 10
  function inner {n}
    return base + n
  end function
  return inner 1
end function
`))
	outer := findFunction(code)
	if outer == nil {
		t.Fatal("no outer function")
	}
	inner := findFunction(outer.Bytecode)
	if inner == nil {
		t.Fatal("no inner function")
	}
	if len(inner.CaptureDescriptors) != 1 {
		t.Fatalf("captures = %v, want one", inner.CaptureDescriptors)
	}
	d := inner.CaptureDescriptors[0]
	if !d.IsLocal {
		t.Fatal("a directly-enclosing local must capture with IsLocal")
	}
	// Slot 0 is outer itself; `base` is its first declared local.
	if d.Index != 1 {
		t.Fatalf("capture index = %d, want 1", d.Index)
	}
}

func TestChainedCaptureDescriptors(t *testing.T) {
	code := compileProgram(t, parseProgram(t, `function level one
  set x to 1
  function level two
    function level three
      return x
    end function
    return level three
  end function
  return level two
end function
`))
	one := findFunction(code)
	two := findFunction(one.Bytecode)
	three := findFunction(two.Bytecode)

	if len(two.CaptureDescriptors) != 1 || !two.CaptureDescriptors[0].IsLocal {
		t.Fatalf("intermediate frame must hold the IsLocal capture: %v", two.CaptureDescriptors)
	}
	if len(three.CaptureDescriptors) != 1 || three.CaptureDescriptors[0].IsLocal {
		t.Fatalf("innermost frame must chain through the intermediate capture: %v", three.CaptureDescriptors)
	}
}

func TestArgumentRangesRecorded(t *testing.T) {
	source := `function greet {who}
  return who
end function
greet "world"
`
	code := compileProgram(t, parseProgram(t, source))
	if len(code.ArgumentRanges) == 0 {
		t.Fatal("no argument ranges recorded for the call site")
	}
	for _, ranges := range code.ArgumentRanges {
		if len(ranges) != 1 {
			t.Fatalf("want one argument range, got %d", len(ranges))
		}
	}
}

func TestNoDebugInfoSkipsArgumentRanges(t *testing.T) {
	block := parseProgram(t, `function greet {who}
  return who
end function
greet "world"
`)
	rep := reporter.New(io.Discard)
	c := compiler.New(rep)
	c.SetNoDebugInfo(true)
	code := c.Compile(block)
	if rep.Failed() {
		t.Fatalf("compile failed: %v", rep.Diagnostics())
	}
	if len(code.ArgumentRanges) != 0 {
		t.Fatalf("argument ranges recorded despite -n: %v", code.ArgumentRanges)
	}
}

func TestExitRepeatOutsideLoopIsCompileError(t *testing.T) {
	block := parseProgram(t, "exit repeat")
	rep := reporter.New(io.Discard)
	compiler.New(rep).Compile(block)
	if !rep.Failed() {
		t.Fatal("exit repeat outside a loop must be a compile error")
	}
}

func TestTopLevelGlobalBinding(t *testing.T) {
	block := parseProgram(t, "set x to 1")

	rep := reporter.New(io.Discard)
	c := compiler.New(rep)
	c.SetTopLevelGlobal(true)
	code := c.Compile(block)
	foundSetGlobal := false
	for i := 0; i < len(code.Code); i += 1 + bytecode.OperandWidth(bytecode.Opcode(code.Code[i])) {
		if bytecode.Opcode(code.Code[i]) == bytecode.SetGlobal {
			foundSetGlobal = true
		}
	}
	if !foundSetGlobal {
		t.Fatal("interactive top-level set must bind a global")
	}

	code = compileProgram(t, block)
	for i := 0; i < len(code.Code); i += 1 + bytecode.OperandWidth(bytecode.Opcode(code.Code[i])) {
		if bytecode.Opcode(code.Code[i]) == bytecode.SetGlobal {
			t.Fatal("script top-level set must bind a local")
		}
	}
}
