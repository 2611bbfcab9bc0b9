package modules_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/atjhc/sif/internal/compiler"
	"github.com/atjhc/sif/internal/corelib"
	"github.com/atjhc/sif/internal/modules"
	"github.com/atjhc/sif/internal/object"
	"github.com/atjhc/sif/internal/parser"
	"github.com/atjhc/sif/internal/reader"
	"github.com/atjhc/sif/internal/reporter"
	"github.com/atjhc/sif/internal/vm"
)

func writeModule(t *testing.T, dir, name, source string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(source), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadExportsValuesAndSignatures(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "mathlib.sif", `function double {x}
  return x * 2
end function
set shared to 21
`)

	loader := modules.New([]string{dir}, corelib.Signatures())

	exports, err := loader.Load("mathlib")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := exports["shared"]; !ok {
		t.Fatalf("shared not exported; exports: %v", keys(exports))
	}
	if _, ok := exports["double (:)"]; !ok {
		t.Fatalf("double not exported; exports: %v", keys(exports))
	}

	sigs, err := loader.ExportedSignatures("mathlib")
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, s := range sigs {
		if s.Name() == "double (:)" {
			found = true
		}
	}
	if !found {
		t.Fatalf("double's signature not exported: %v", sigs)
	}
}

func TestLoadCachesByName(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "m.sif", "set x to 1\n")

	loader := modules.New([]string{dir}, corelib.Signatures())
	first, err := loader.Load("m")
	if err != nil {
		t.Fatal(err)
	}
	second, err := loader.Load("m.sif")
	if err != nil {
		t.Fatal(err)
	}
	// Same cache entry: mutating one is visible through the other.
	first["probe"] = second["x"]
	if _, ok := second["probe"]; !ok {
		t.Fatal("m and m.sif must share one cache entry")
	}
}

func TestCircularImportIsAnError(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "a.sif", "use \"b\"\n")
	writeModule(t, dir, "b.sif", "use \"a\"\n")

	loader := modules.New([]string{dir}, corelib.Signatures())
	if _, err := loader.Load("a"); err == nil {
		t.Fatal("circular import must fail")
	}
}

func TestMissingModuleIsAnError(t *testing.T) {
	loader := modules.New([]string{t.TempDir()}, corelib.Signatures())
	if _, err := loader.Load("ghost"); err == nil {
		t.Fatal("loading a missing module must fail")
	}
}

func TestRelativeImportResolvesAgainstImportingFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "lib"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeModule(t, dir, filepath.Join("lib", "helper.sif"), "set answer to 42\n")
	writeModule(t, dir, "main.sif", "use \"./lib/helper\"\nset reexported to answer\n")

	loader := modules.New([]string{dir}, corelib.Signatures())
	exports, err := loader.Load("main")
	if err != nil {
		t.Fatal(err)
	}
	v, ok := exports["reexported"]
	if !ok || v.Int() != 42 {
		t.Fatalf("reexported = %v (ok=%v)", v, ok)
	}
}

// TestUseThroughPipeline runs a whole program that imports a module,
// exercising the parser's grammar extension and the compiler's export
// binding together.
func TestUseThroughPipeline(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "mathlib.sif", `function double {x}
  return x * 2
end function
set shared to 21
`)

	src := reader.NewStringReader("main.sif", "use \"mathlib\"\nprint double shared\n")
	rep := reporter.New(io.Discard)
	loader := modules.New([]string{dir}, corelib.Signatures())

	p := parser.New(src, rep, corelib.Signatures())
	p.SetModuleSignatures(loader)
	block := p.Parse()
	if rep.Failed() {
		t.Fatalf("parse failed: %v", rep.Diagnostics())
	}

	c := compiler.New(rep)
	c.SetModuleLoader(loader)
	code := c.Compile(block)
	if rep.Failed() {
		t.Fatalf("compile failed: %v", rep.Diagnostics())
	}

	machine := vm.New()
	var out bytes.Buffer
	machine.Stdout = &out
	for name, value := range corelib.Globals() {
		machine.SetGlobal(name, value)
	}
	if _, err := machine.Run(code); err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if out.String() != "42\n" {
		t.Fatalf("output = %q, want %q", out.String(), "42\n")
	}
}

func TestUsingScopesImports(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "mathlib.sif", `function double {x}
  return x * 2
end function
set shared to 21
`)

	runProgram := func(source string) (string, bool) {
		src := reader.NewStringReader("main.sif", source)
		rep := reporter.New(io.Discard)
		loader := modules.New([]string{dir}, corelib.Signatures())
		p := parser.New(src, rep, corelib.Signatures())
		p.SetModuleSignatures(loader)
		block := p.Parse()
		if rep.Failed() {
			return "", false
		}
		c := compiler.New(rep)
		c.SetModuleLoader(loader)
		code := c.Compile(block)
		if rep.Failed() {
			return "", false
		}
		machine := vm.New()
		var out bytes.Buffer
		machine.Stdout = &out
		for name, value := range corelib.Globals() {
			machine.SetGlobal(name, value)
		}
		if _, err := machine.Run(code); err != nil {
			return "", false
		}
		return out.String(), true
	}

	out, ok := runProgram(`set result to 0
using "mathlib"
  set result to double shared
end using
print result
`)
	if !ok || out != "42\n" {
		t.Fatalf("using block failed: ok=%v out=%q", ok, out)
	}

	// Outside the block the module's call forms are gone from the grammar.
	if _, ok := runProgram(`using "mathlib"
  set x to 1
end using
print double 2
`); ok {
		t.Fatal("module call form leaked past the using block")
	}
}

func keys(m map[string]object.Value) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
