// Package modules implements Sif's module loader: resolving `use`/`using`
// names to source files, compiling and executing each module body exactly
// once on its own fresh VM, and caching the result by name.
package modules

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/atjhc/sif/internal/ast"
	"github.com/atjhc/sif/internal/compiler"
	"github.com/atjhc/sif/internal/config"
	"github.com/atjhc/sif/internal/corelib"
	"github.com/atjhc/sif/internal/object"
	"github.com/atjhc/sif/internal/parser"
	"github.com/atjhc/sif/internal/reader"
	"github.com/atjhc/sif/internal/reporter"
	"github.com/atjhc/sif/internal/signature"
	"github.com/atjhc/sif/internal/utils"
	"github.com/atjhc/sif/internal/vm"
)

// loaded is one module's cached result: the call forms its top level
// declares and the values its run exported.
type loaded struct {
	signatures []signature.Signature
	exports    map[string]object.Value
}

// Loader resolves, compiles, and caches Sif modules. It implements both
// parser.ModuleSignatures and compiler.ModuleLoader; a single instance is
// shared by the top-level parser/compiler and by every module it loads, so
// the whole program sees one cache and one circular-import detector.
type Loader struct {
	searchPaths []string
	base        []signature.Signature

	cache   map[string]*loaded
	loading map[string]bool

	// dirStack tracks the directory of whichever module is currently being
	// loaded, innermost last, so a relative `use "./foo"` resolves against
	// the importing file rather than the process's cwd.
	dirStack []string
}

var _ parser.ModuleSignatures = (*Loader)(nil)
var _ compiler.ModuleLoader = (*Loader)(nil)

// New creates a Loader resolving bare/relative module names against
// searchPaths, in order. base seeds every module's own parser grammar
// (normally corelib.Signatures()).
func New(searchPaths []string, base []signature.Signature) *Loader {
	return &Loader{
		searchPaths: searchPaths,
		base:        append([]signature.Signature(nil), base...),
		cache:       map[string]*loaded{},
		loading:     map[string]bool{},
	}
}

// ExportedSignatures satisfies parser.ModuleSignatures: the call forms a
// `use`/`using` of name adds to the importing scope's grammar.
func (l *Loader) ExportedSignatures(name string) ([]signature.Signature, error) {
	m, err := l.ensureLoaded(name)
	if err != nil {
		return nil, err
	}
	return m.signatures, nil
}

// Load satisfies compiler.ModuleLoader: the values a `use`/`using` binds
// into the importing scope.
func (l *Loader) Load(name string) (map[string]object.Value, error) {
	m, err := l.ensureLoaded(name)
	if err != nil {
		return nil, err
	}
	return m.exports, nil
}

// cacheKey normalizes `use "foo"` and `use "foo.sif"` (or any quoted path
// variant) to the same cache entry via utils.ExtractModuleName, so a module
// imported both ways is still loaded and run exactly once.
func cacheKey(name string) string {
	if config.HasSourceExt(name) {
		return utils.ExtractModuleName(name)
	}
	return name
}

func (l *Loader) ensureLoaded(name string) (*loaded, error) {
	key := cacheKey(name)
	if m, ok := l.cache[key]; ok {
		return m, nil
	}
	if l.loading[key] {
		return nil, fmt.Errorf("circular import of %q", name)
	}
	l.loading[key] = true
	defer delete(l.loading, key)

	m, err := l.load(name)
	if err != nil {
		return nil, err
	}
	l.cache[key] = m
	return m, nil
}

func (l *Loader) currentDir() string {
	if len(l.dirStack) == 0 {
		return "."
	}
	return l.dirStack[len(l.dirStack)-1]
}

func (l *Loader) resolve(name string) (string, error) {
	resolved := utils.ResolveImportPath(l.currentDir(), name)
	candidates := []string{resolved}
	if !config.HasSourceExt(resolved) {
		candidates = append(candidates, resolved+config.SourceFileExt)
	}

	// A relative import is anchored to the importing file; it never falls
	// back to the generic search paths.
	if resolved != name {
		for _, cand := range candidates {
			if info, err := os.Stat(cand); err == nil && !info.IsDir() {
				return cand, nil
			}
		}
		return "", fmt.Errorf("module %q not found relative to %q", name, l.currentDir())
	}

	for _, dir := range l.searchPaths {
		for _, cand := range candidates {
			path := filepath.Join(dir, cand)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, nil
			}
		}
	}
	return "", fmt.Errorf("module %q not found in %v", name, l.searchPaths)
}

// load parses, compiles, and runs name's module body on a fresh VM seeded
// with the same core/system native bindings as the main program, then
// collects every global the run left behind beyond the seeded natives as
// the module's exports.
func (l *Loader) load(name string) (*loaded, error) {
	path, err := l.resolve(name)
	if err != nil {
		return nil, err
	}

	l.dirStack = append(l.dirStack, utils.GetModuleDir(path))
	defer func() { l.dirStack = l.dirStack[:len(l.dirStack)-1] }()

	src, err := reader.NewFileReader(path)
	if err != nil {
		return nil, err
	}

	rep := reporter.New(os.Stderr)
	p := parser.New(src, rep, l.base)
	p.SetModuleSignatures(l)
	block := p.Parse()
	if rep.Failed() {
		return nil, fmt.Errorf("module %q failed to parse", name)
	}

	c := compiler.New(rep)
	c.SetModuleLoader(l)
	c.SetTopLevelGlobal(true)
	code := c.Compile(block)
	if rep.Failed() {
		return nil, fmt.Errorf("module %q failed to compile", name)
	}

	machine := vm.New()
	seeded := corelib.Globals()
	for k, v := range seeded {
		machine.SetGlobal(k, v)
	}
	if _, err := machine.Run(code); err != nil {
		return nil, fmt.Errorf("module %q: %w", name, err)
	}

	exports := map[string]object.Value{}
	for k, v := range machine.Exports() {
		if _, ok := seeded[k]; ok {
			continue
		}
		exports[k] = v
	}

	return &loaded{
		signatures: topLevelSignatures(block),
		exports:    exports,
	}, nil
}

// topLevelSignatures collects the call forms a module's own top-level
// `function` declarations add to the grammar; nested/local functions are
// not exported.
func topLevelSignatures(block *ast.Block) []signature.Signature {
	var sigs []signature.Signature
	for _, s := range block.Statements {
		if fn, ok := s.(*ast.FunctionDecl); ok {
			sigs = append(sigs, fn.Signature)
		}
	}
	return sigs
}
