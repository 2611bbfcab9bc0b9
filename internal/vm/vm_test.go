package vm_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atjhc/sif/internal/compiler"
	"github.com/atjhc/sif/internal/corelib"
	"github.com/atjhc/sif/internal/parser"
	"github.com/atjhc/sif/internal/reader"
	"github.com/atjhc/sif/internal/reporter"
	"github.com/atjhc/sif/internal/vm"
)

// execute compiles and runs source against a fresh VM seeded with the core
// library, returning whatever the program printed and the error (if any)
// that escaped every try handler.
func execute(t *testing.T, source string) (string, error) {
	t.Helper()
	src := reader.NewStringReader("test.sif", source)
	rep := reporter.New(io.Discard)
	p := parser.New(src, rep, corelib.Signatures())
	block := p.Parse()
	require.False(t, rep.Failed(), "parse failed: %v", rep.Diagnostics())

	c := compiler.New(rep)
	code := c.Compile(block)
	require.False(t, rep.Failed(), "compile failed: %v", rep.Diagnostics())

	machine := vm.New()
	var out bytes.Buffer
	machine.Stdout = &out
	for name, value := range corelib.Globals() {
		machine.SetGlobal(name, value)
	}
	_, err := machine.Run(code)
	return out.String(), err
}

func run(t *testing.T, source string) string {
	t.Helper()
	out, err := execute(t, source)
	require.NoError(t, err)
	return out
}

func TestPrintHello(t *testing.T) {
	require.Equal(t, "hello\n", run(t, `print "hello"`))
}

func TestArithmeticPrecedence(t *testing.T) {
	out := run(t, `set x to 1 + 2 * 3 ^ 2
print x
`)
	require.Equal(t, "19\n", out)
}

func TestSortMutatesInPlace(t *testing.T) {
	out := run(t, `set xs to [3, 1, 2]
sort xs
print xs
`)
	require.Equal(t, "[1, 2, 3]\n", out)
}

func TestFunctionWithInterpolation(t *testing.T) {
	out := run(t, `function greet {who}
  return "hi {who}"
end function
print greet "world"
`)
	require.Equal(t, "hi world\n", out)
}

func TestTryCapturesDivideByZero(t *testing.T) {
	out := run(t, `try
  set x to 1 / 0
end try
print the error
`)
	require.Contains(t, out, "division by zero")
}

func TestRepeatForEachOverRange(t *testing.T) {
	out := run(t, `set total to 0
repeat for each n in 1...5
  set total to total + n
end repeat
print total
`)
	require.Equal(t, "15\n", out)
}

func TestHalfOpenRange(t *testing.T) {
	out := run(t, `set total to 0
repeat for each n in 1..<5
  set total to total + n
end repeat
print total
`)
	require.Equal(t, "10\n", out)
}

func TestRepeatWhileAndExit(t *testing.T) {
	out := run(t, `set n to 0
repeat while n < 10
  set n to n + 1
  if n = 3 then exit repeat
end repeat
print n
`)
	require.Equal(t, "3\n", out)
}

func TestRepeatUntil(t *testing.T) {
	out := run(t, `set n to 0
repeat until n >= 4
  set n to n + 1
end repeat
print n
`)
	require.Equal(t, "4\n", out)
}

func TestNextRepeat(t *testing.T) {
	out := run(t, `set total to 0
repeat for each n in 1...5
  if n % 2 = 0 then next repeat
  set total to total + n
end repeat
print total
`)
	require.Equal(t, "9\n", out)
}

func TestRepeatForeverWithExit(t *testing.T) {
	out := run(t, `set n to 0
repeat
  set n to n + 1
  if n = 7 then exit repeat
end repeat
print n
`)
	require.Equal(t, "7\n", out)
}

func TestVariableShadowing(t *testing.T) {
	out := run(t, `set x to 1
if true then
  set local x to 2
  print x
end if
print x
`)
	require.Equal(t, "2\n1\n", out)
}

func TestAssignmentUpdatesEnclosingScope(t *testing.T) {
	out := run(t, `set x to 1
if true then
  set x to 2
end if
print x
`)
	require.Equal(t, "2\n", out)
}

func TestClosureSeesLatestValueAtCallTime(t *testing.T) {
	out := run(t, `function demo
  set base to 1
  function read base
    return base
  end function
  set base to 5
  return read base
end function
print demo
`)
	require.Equal(t, "5\n", out)
}

func TestClosureMutationVisibleAfterReturn(t *testing.T) {
	out := run(t, `function demo
  set count to 0
  function bump
    set count to count + 1
  end function
  bump
  bump
  return count
end function
print demo
`)
	require.Equal(t, "2\n", out)
}

func TestRecursion(t *testing.T) {
	out := run(t, `function fib {n}
  if n < 2 then return n
  set a to fib (n - 1)
  set b to fib (n - 2)
  return a + b
end function
print fib 10
`)
	require.Equal(t, "55\n", out)
}

func TestStructuredAssignment(t *testing.T) {
	out := run(t, `set (a, b) to [1, 2]
print a
print b
`)
	require.Equal(t, "1\n2\n", out)
}

func TestStructuredAssignmentUpdatesExisting(t *testing.T) {
	out := run(t, `set a to 0
set (a, b) to [1, 2]
print a + b
`)
	require.Equal(t, "3\n", out)
}

func TestMultiTargetAssignment(t *testing.T) {
	out := run(t, `set a, b to 7
print a + b
`)
	require.Equal(t, "14\n", out)
}

func TestDictionaryIteration(t *testing.T) {
	out := run(t, `set ages to {"ada": 36, "alan": 41}
set total to 0
repeat for each name, age in ages
  set total to total + age
end repeat
print total
`)
	require.Equal(t, "77\n", out)
}

func TestSubscripts(t *testing.T) {
	out := run(t, `set xs to [10, 20, 30]
print xs[0]
print xs[-1]
set xs[1] to 99
print xs
set s to "hello"
print s[1]
print s[1...3]
`)
	require.Equal(t, "10\n30\n[10, 99, 30]\ne\nell\n", out)
}

func TestTupleParameter(t *testing.T) {
	out := run(t, `function sum of pair {a, b}
  return a + b
end function
print sum of pair [3, 4]
`)
	require.Equal(t, "7\n", out)
}

func TestStringConcatAndComparison(t *testing.T) {
	out := run(t, `print "foo" + "bar"
print 2 < 3
print (2.5 = 2.5)
print (1 is not 2)
`)
	require.Equal(t, "foobar\ntrue\ntrue\ntrue\n", out)
}

func TestNumericPromotion(t *testing.T) {
	out := run(t, `print 1 + 2.5
print 7 / 2
print 7 % 3
print 2 ^ 8
`)
	require.Equal(t, "3.5\n3.5\n1\n256\n", out)
}

func TestShortCircuit(t *testing.T) {
	out := run(t, `set log to []
function bump counter
  append 1 to log
  return true
end function
set r to false and bump counter
print the size of log
set r to true or bump counter
print the size of log
set r to true and bump counter
print the size of log
`)
	require.Equal(t, "0\n0\n1\n", out)
}

func TestRuntimeErrorCarriesRange(t *testing.T) {
	_, err := execute(t, "set x to 1 / 0\n")
	require.Error(t, err)
	var rte *vm.RuntimeError
	require.ErrorAs(t, err, &rte)
	require.Contains(t, rte.Message, "division by zero")
	require.Equal(t, 1, rte.Range.Start.Line)
}

func TestUncaughtErrorPropagates(t *testing.T) {
	_, err := execute(t, `set xs to [1]
print xs[9]
`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "out of bounds")
}

func TestTryRestoresStackDepth(t *testing.T) {
	out := run(t, `set before to 1
try
  set a to 1
  set b to 2
  set c to [1, 2][9]
end try
print the error
print before
`)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "out of bounds")
	require.Equal(t, "1", lines[1])
}

func TestTryInsideFunction(t *testing.T) {
	out := run(t, `function safe divide {a, b}
  try
    return a / b
  end try
  return the error
end function
print safe divide [10, 2]
print safe divide [10, 0]
`)
	require.Equal(t, "5\ndivision by zero\n", out)
}

func TestErrorNativeRaises(t *testing.T) {
	out := run(t, `try
  error "boom"
end try
print the error
`)
	require.Equal(t, "boom\n", out)
}

func TestQuitHalts(t *testing.T) {
	out, err := execute(t, `print "before"
quit with 3
print "after"
`)
	require.Equal(t, "before\n", out)
	var halt *vm.HaltError
	require.ErrorAs(t, err, &halt)
	require.Equal(t, 3, halt.Code)
}

func TestInvalidRangeFailsAtRuntime(t *testing.T) {
	_, err := execute(t, "set r to 5...1\n")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid range")
}

func TestCoreNatives(t *testing.T) {
	out := run(t, `print the size of [1, 2, 3]
print the size of "hello"
print the type of 1
print the type of "s"
print the minimum of [3, 1, 2]
print the maximum of [3, 1, 2]
print the absolute value of -4
print the square root of 16
print reverse [1, 2, 3]
`)
	require.Equal(t, "3\n5\ninteger\nstring\n1\n3\n4\n4\n[3, 2, 1]\n", out)
}

func TestInsertAndRemoveNatives(t *testing.T) {
	out := run(t, `set xs to [2, 3]
insert 4 at the end of xs
insert 1 at the beginning of xs
print xs
set removed to remove item 0 from xs
print removed
print xs
`)
	require.Equal(t, "[1, 2, 3, 4]\n1\n[2, 3, 4]\n", out)
}

func TestAppendSharesList(t *testing.T) {
	out := run(t, `set xs to [1]
append 2 to xs
print xs
`)
	require.Equal(t, "[1, 2]\n", out)
}

func TestItRegister(t *testing.T) {
	out := run(t, `the size of [1, 2, 3]
print it
`)
	require.Equal(t, "3\n", out)
}

// The collector is scheduled every 1024th tracked allocation; crossing
// that threshold mid-program must never clear a container the program
// still holds — in particular not the one the triggering opcode just
// built.
func TestAllocationHeavyProgramKeepsContainers(t *testing.T) {
	out := run(t, `set xs to []
repeat for each n in 1...1500
  append [n] to xs
end repeat
print the size of xs
print xs[1023][0]
`)
	require.Equal(t, "1500\n1024\n", out)
}

func TestNativeErrorAnchorsAtArgument(t *testing.T) {
	_, err := execute(t, "sort 5\n")
	var rte *vm.RuntimeError
	require.ErrorAs(t, err, &rte)
	require.Contains(t, rte.Message, "argument 1")
	// The range covers the `5`, not the whole `sort 5` call.
	require.Equal(t, 6, rte.Range.Start.Column)

	_, err = execute(t, `append 1 to 2
`)
	require.ErrorAs(t, err, &rte)
	require.Contains(t, rte.Message, "argument 2")
	require.Equal(t, 13, rte.Range.Start.Column)
}

func TestNoDebugInfoAnchorsAtWholeCall(t *testing.T) {
	src := reader.NewStringReader("test.sif", "sort 5\n")
	rep := reporter.New(io.Discard)
	p := parser.New(src, rep, corelib.Signatures())
	p.SetNoDebugInfo(true)
	block := p.Parse()
	require.False(t, rep.Failed(), "parse failed: %v", rep.Diagnostics())

	c := compiler.New(rep)
	c.SetNoDebugInfo(true)
	code := c.Compile(block)
	require.False(t, rep.Failed(), "compile failed: %v", rep.Diagnostics())

	machine := vm.New()
	for name, value := range corelib.Globals() {
		machine.SetGlobal(name, value)
	}
	_, err := machine.Run(code)
	var rte *vm.RuntimeError
	require.ErrorAs(t, err, &rte)
	require.Contains(t, rte.Message, "argument 1")
	require.Equal(t, 1, rte.Range.Start.Column)
}

func TestStringEnumeration(t *testing.T) {
	out := run(t, `set parts to []
repeat for each ch in "abc"
  append ch to parts
end repeat
print parts
`)
	require.Equal(t, "[\"a\", \"b\", \"c\"]\n", out)
}
