// Command sif runs Sif programs: from a file, a -e string, a pipe, or the
// interactive REPL. Exit codes follow the pipeline's failure stages: 0 on
// success, 1 for parse errors, 2 for compile errors, 3 for runtime errors.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/atjhc/sif/internal/bytecode"
	"github.com/atjhc/sif/internal/compiler"
	"github.com/atjhc/sif/internal/config"
	"github.com/atjhc/sif/internal/corelib"
	"github.com/atjhc/sif/internal/modules"
	"github.com/atjhc/sif/internal/parser"
	"github.com/atjhc/sif/internal/printer"
	"github.com/atjhc/sif/internal/reader"
	"github.com/atjhc/sif/internal/reporter"
	"github.com/atjhc/sif/internal/signature"
	"github.com/atjhc/sif/internal/vm"
)

const (
	exitOK           = 0
	exitParseError   = 1
	exitCompileError = 2
	exitRuntimeError = 3
)

type options struct {
	evalCode          string
	interactive       bool
	printAST          bool
	printBytecode     bool
	printBytecodeBare bool
	noDebugInfo       bool
}

func main() { os.Exit(run(os.Args[1:])) }

func run(argv []string) int {
	fs := flag.NewFlagSet("sif", flag.ExitOnError)
	var opts options
	fs.StringVar(&opts.evalCode, "e", "", "execute `code` and exit")
	fs.BoolVar(&opts.interactive, "i", false, "run the interactive REPL")
	fs.BoolVar(&opts.printAST, "p", false, "pretty-print the AST instead of executing")
	fs.BoolVar(&opts.printBytecode, "b", false, "print bytecode with source locations instead of executing")
	fs.BoolVar(&opts.printBytecodeBare, "B", false, "print bytecode without source locations instead of executing")
	fs.BoolVar(&opts.noDebugInfo, "n", false, "disable per-argument debug info")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: sif [options] [file [arguments...]]")
		fs.PrintDefaults()
	}
	fs.Parse(argv)
	args := fs.Args()

	switch {
	case opts.evalCode != "":
		corelib.CLIArguments = args
		return runSource(reader.NewStringReader("<eval>", opts.evalCode), ".", opts)
	case len(args) > 0:
		src, err := reader.NewFileReader(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitRuntimeError
		}
		corelib.CLIArguments = args[1:]
		return runSource(src, filepath.Dir(args[0]), opts)
	case opts.interactive || isatty.IsTerminal(os.Stdin.Fd()):
		return runREPL(opts)
	default:
		src, err := reader.StdinReader("<stdin>", os.Stdin)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitRuntimeError
		}
		return runSource(src, ".", opts)
	}
}

func runSource(src reader.Reader, dir string, opts options) int {
	rep := reporter.New(os.Stderr)
	rep.SetColorize(isatty.IsTerminal(os.Stderr.Fd()))

	loader, ok := newLoader(dir)
	if !ok {
		return exitRuntimeError
	}

	p := parser.New(src, rep, corelib.Signatures())
	p.SetModuleSignatures(loader)
	p.SetNoDebugInfo(opts.noDebugInfo)
	block := p.Parse()
	if rep.Failed() {
		rep.Flush(src)
		return exitParseError
	}

	if opts.printAST {
		fmt.Print(printer.Print(block))
		return exitOK
	}

	c := compiler.New(rep)
	c.SetModuleLoader(loader)
	c.SetNoDebugInfo(opts.noDebugInfo)
	code := c.Compile(block)
	if rep.Failed() {
		rep.Flush(src)
		return exitCompileError
	}

	machine := vm.New()
	machine.Stdout = os.Stdout
	for name, value := range corelib.Globals() {
		machine.SetGlobal(name, value)
	}

	if opts.printBytecode || opts.printBytecodeBare {
		fmt.Printf("sif %s session %s\n", config.Version, machine.ID())
		printBytecode(code, src.Name(), opts.printBytecode)
		return exitOK
	}

	if _, err := machine.Run(code); err != nil {
		return reportRuntimeError(rep, src, err)
	}
	return exitOK
}

// newLoader builds the module loader for programs rooted at dir, honoring
// an optional sif.yaml project file there for extra search paths and
// default arguments/environment.
func newLoader(dir string) (*modules.Loader, bool) {
	project, err := config.LoadProject(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sif: %v\n", err)
		return nil, false
	}
	if len(corelib.CLIArguments) == 0 && len(project.Arguments) > 0 {
		corelib.CLIArguments = project.Arguments
	}
	if len(project.Environment) > 0 {
		env := os.Environ()
		for k, v := range project.Environment {
			env = append(env, k+"="+v)
		}
		corelib.CLIEnvironment = env
	}
	return modules.New(project.SearchPaths(), corelib.Signatures()), true
}

// printBytecode disassembles the top-level unit and, recursively, every
// function in its constant pool.
func printBytecode(code *bytecode.Bytecode, name string, withLocations bool) {
	fmt.Print(bytecode.Disassemble(code, name, withLocations))
	for _, c := range code.Constants {
		if !c.IsObject() {
			continue
		}
		if fn, ok := c.Object().(*vm.Function); ok {
			printBytecode(fn.Bytecode, fn.Signature.Description(), withLocations)
		}
	}
}

func reportRuntimeError(rep *reporter.Reporter, src reader.Reader, err error) int {
	var halt *vm.HaltError
	if errors.As(err, &halt) {
		return halt.Code
	}
	var rte *vm.RuntimeError
	if errors.As(err, &rte) {
		rep.Report(rte.Range, "%s", rte.Message)
		rep.Flush(src)
		rep.Reset()
		return exitRuntimeError
	}
	fmt.Fprintf(os.Stderr, "sif: %v\n", err)
	return exitRuntimeError
}

// runREPL drives the interactive loop: one persistent VM so globals and
// declared functions survive across statements, a fresh parse per
// statement, and multi-line continuation whenever a parse fails only
// because the input ended mid-construct.
func runREPL(opts options) int {
	rl, err := reader.NewREPLReader("sif> ", " ..> ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitRuntimeError
	}
	defer rl.Close()

	loader, ok := newLoader(".")
	if !ok {
		return exitRuntimeError
	}

	machine := vm.New()
	machine.Stdout = os.Stdout
	for name, value := range corelib.Globals() {
		machine.SetGlobal(name, value)
	}
	fmt.Printf("sif %s (session %s)\n", config.Version, machine.ID())

	rep := reporter.New(os.Stderr)
	rep.SetColorize(isatty.IsTerminal(os.Stderr.Fd()))
	sigs := corelib.Signatures()

	var pending strings.Builder
	for {
		line, err := rl.More()
		if err != nil {
			fmt.Println()
			return exitOK
		}
		pending.WriteString(line)
		pending.WriteByte('\n')
		text := pending.String()
		if strings.TrimSpace(text) == "" {
			pending.Reset()
			rl.ResetPrompt()
			continue
		}

		rep.Reset()
		src := reader.NewStringReader("<repl>", text)
		p := parser.New(src, rep, sigs)
		p.SetModuleSignatures(loader)
		p.SetNoDebugInfo(opts.noDebugInfo)
		block := p.Parse()
		if rep.Failed() {
			if needsMoreInput(rep) {
				continue
			}
			rep.Flush(src)
			pending.Reset()
			rl.ResetPrompt()
			continue
		}
		pending.Reset()
		rl.ResetPrompt()

		if opts.printAST {
			fmt.Print(printer.Print(block))
			continue
		}

		c := compiler.New(rep)
		c.SetModuleLoader(loader)
		c.SetTopLevelGlobal(true)
		c.SetNoDebugInfo(opts.noDebugInfo)
		code := c.Compile(block)
		if rep.Failed() {
			rep.Flush(src)
			continue
		}
		if opts.printBytecode || opts.printBytecodeBare {
			printBytecode(code, "<repl>", opts.printBytecode)
		}

		result, err := machine.Run(code)
		if err != nil {
			var halt *vm.HaltError
			if errors.As(err, &halt) {
				return halt.Code
			}
			reportRuntimeError(rep, src, err)
			continue
		}
		sigs = append([]signature.Signature(nil), p.Signatures()...)
		if !result.IsEmpty() {
			fmt.Println(result.DebugDescription())
		}
	}
}

// needsMoreInput reports whether every path to a successful parse was cut
// short by the end of the buffer — the signal that the user is mid-way
// through a block or bracketed expression and the REPL should keep reading.
func needsMoreInput(rep *reporter.Reporter) bool {
	for _, d := range rep.Diagnostics() {
		if strings.Contains(d.Message, "end of input") {
			return true
		}
	}
	return false
}
