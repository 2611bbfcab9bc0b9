// Package corelib implements the hosted natives every Sif program can
// call: the language built-ins the pipeline itself depends on (print,
// sort, "the error") and the system call forms (the arguments, the
// environment, the clock). One flat declaration list feeds both the
// parser's base grammar and the globals every VM instance — top level,
// REPL, and each module's own fresh VM — is seeded with.
package corelib

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/atjhc/sif/internal/config"
	"github.com/atjhc/sif/internal/object"
	"github.com/atjhc/sif/internal/signature"
	"github.com/atjhc/sif/internal/vm"
)

// entry pairs one native's signature with its implementation, the unit
// Register walks to build both the parser's base grammar and the VM's
// global bindings from a single declaration site.
type entry struct {
	sig signature.Signature
	fn  vm.NativeFunc
}

// CLIArguments and CLIEnvironment are read by `the arguments`/`the
// environment`; the CLI entrypoint sets them before running any program.
var (
	CLIArguments   []string
	CLIEnvironment []string
)

func word(s string) signature.Term { return signature.Word{Text: s} }
func arg(name string) signature.Term { return signature.Argument{Names: []string{name}} }

var entries []entry

func def(fn vm.NativeFunc, terms ...signature.Term) {
	entries = append(entries, entry{sig: signature.Signature{Terms: terms}, fn: fn})
}

func init() {
	def(nativePrint, word("print"), arg("value"))
	def(nativeSort, word("sort"), arg("list"))
	def(nativeTheError, word("the"), word("error"))
	def(nativeTheSizeOf, word("the"), word("size"), word("of"), arg("value"))
	def(nativeTheTypeOf, word("the"), word("type"), word("of"), arg("value"))
	def(nativeQuit, word("quit"))
	def(nativeQuitWith, word("quit"), word("with"), arg("code"))
	def(nativeError, word("error"), arg("message"))

	def(nativeMin, word("the"), word("minimum"), word("of"), arg("list"))
	def(nativeMax, word("the"), word("maximum"), word("of"), arg("list"))
	def(nativeAbs, word("the"), word("absolute"), word("value"), word("of"), arg("value"))
	def(nativeRound, word("round"), arg("value"))
	def(nativeFloor, word("floor"), arg("value"))
	def(nativeCeiling, word("ceiling"), arg("value"))
	def(nativeSqrt, word("the"), word("square"), word("root"), word("of"), arg("value"))

	def(nativeKeysOf, word("the"), word("keys"), word("of"), arg("dictionary"))
	def(nativeValuesOf, word("the"), word("values"), word("of"), arg("dictionary"))
	def(nativeAppendTo, word("append"), arg("value"), word("to"), arg("list"))
	def(nativeReverse, word("reverse"), arg("list"))
	def(nativeInsertAtEnd, word("insert"), arg("item"), word("at"), word("the"), word("end"), word("of"), arg("list"))
	def(nativeInsertAtBeginning, word("insert"), arg("item"), word("at"), word("the"), word("beginning"), word("of"), arg("list"))
	def(nativeRemoveItem, word("remove"), word("item"), arg("index"), word("from"), arg("list"))

	def(nativeArguments, word("the"), word("arguments"))
	def(nativeEnvironment, word("the"), word("environment"))
	def(nativeClock, word("the"), word("clock"))
	def(nativeSystemName, word("the"), word("system"), word("name"))
	def(nativeSystemVersion, word("the"), word("system"), word("version"))
}

// Signatures returns every corelib call form, used to seed a parser's base
// grammar.
func Signatures() []signature.Signature {
	sigs := make([]signature.Signature, len(entries))
	for i, e := range entries {
		sigs[i] = e.sig
	}
	return sigs
}

// Globals builds the name->value bindings a fresh VM is seeded with before
// running any program or module body.
func Globals() map[string]object.Value {
	out := make(map[string]object.Value, len(entries))
	for _, e := range entries {
		name := e.sig.Name()
		out[name] = object.Obj(&vm.Native{
			Name:      name,
			Signature: e.sig,
			Arity:     e.sig.Arity(),
			Fn:        e.fn,
		})
	}
	return out
}

func nativePrint(ctx *vm.NativeCallContext, args []object.Value) (object.Value, error) {
	fmt.Fprintln(ctx.Stdout(), args[0].Description())
	return object.Value{}, nil
}

func nativeTheError(ctx *vm.NativeCallContext, args []object.Value) (object.Value, error) {
	return ctx.Error(), nil
}

// nativeSort sorts a list in place (`sort xs` then `print xs` observes
// the mutation through xs's shared *object.List pointer) and returns the
// same list for chaining.
func nativeSort(ctx *vm.NativeCallContext, args []object.Value) (object.Value, error) {
	list, ok := args[0].Object().(*object.List)
	if !ok {
		return object.Value{}, ctx.RaiseArgument(0, "expected a list, got a %s", args[0].TypeName())
	}
	var sortErr error
	sort.SliceStable(list.Elements, func(i, j int) bool {
		less, err := valueLess(list.Elements[i], list.Elements[j])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return less
	})
	if sortErr != nil {
		return object.Value{}, ctx.Raise("%v", sortErr)
	}
	return args[0], nil
}

func valueLess(a, b object.Value) (bool, error) {
	if a.IsNumber() && b.IsNumber() {
		return a.AsFloat() < b.AsFloat(), nil
	}
	as, aok := a.Object().(*object.String)
	bs, bok := b.Object().(*object.String)
	if aok && bok {
		return bytes.Compare(as.Bytes, bs.Bytes) < 0, nil
	}
	return false, fmt.Errorf("cannot compare a %s and a %s", a.TypeName(), b.TypeName())
}

func nativeTheSizeOf(ctx *vm.NativeCallContext, args []object.Value) (object.Value, error) {
	switch o := args[0].Object().(type) {
	case interface{ Len() int }:
		return object.Int(int64(o.Len())), nil
	}
	return object.Value{}, ctx.RaiseArgument(0, "a %s has no size", args[0].TypeName())
}

func nativeTheTypeOf(ctx *vm.NativeCallContext, args []object.Value) (object.Value, error) {
	return object.Obj(object.NewString(args[0].TypeName())), nil
}

func nativeQuit(ctx *vm.NativeCallContext, args []object.Value) (object.Value, error) {
	ctx.Halt(0)
	return object.Value{}, nil
}

func nativeQuitWith(ctx *vm.NativeCallContext, args []object.Value) (object.Value, error) {
	if !args[0].IsInt() {
		return object.Value{}, ctx.RaiseArgument(0, "expected an integer exit code, got a %s", args[0].TypeName())
	}
	ctx.Halt(int(args[0].Int()))
	return object.Value{}, nil
}

func nativeError(ctx *vm.NativeCallContext, args []object.Value) (object.Value, error) {
	return object.Value{}, ctx.Raise("%s", args[0].Description())
}

func nativeMin(ctx *vm.NativeCallContext, args []object.Value) (object.Value, error) {
	return listExtreme(ctx, args[0], true)
}

func nativeMax(ctx *vm.NativeCallContext, args []object.Value) (object.Value, error) {
	return listExtreme(ctx, args[0], false)
}

func listExtreme(ctx *vm.NativeCallContext, v object.Value, wantMin bool) (object.Value, error) {
	list, ok := v.Object().(*object.List)
	if !ok {
		return object.Value{}, ctx.RaiseArgument(0, "expected a list, got a %s", v.TypeName())
	}
	if len(list.Elements) == 0 {
		return object.Value{}, ctx.RaiseArgument(0, "list is empty")
	}
	best := list.Elements[0]
	for _, e := range list.Elements[1:] {
		less, err := valueLess(e, best)
		if err != nil {
			return object.Value{}, ctx.Raise("%v", err)
		}
		if less == wantMin {
			best = e
		}
	}
	return best, nil
}

func nativeAbs(ctx *vm.NativeCallContext, args []object.Value) (object.Value, error) {
	v := args[0]
	if !v.IsNumber() {
		return object.Value{}, ctx.RaiseArgument(0, "expected a number, got a %s", v.TypeName())
	}
	if v.IsInt() {
		n := v.Int()
		if n < 0 {
			n = -n
		}
		return object.Int(n), nil
	}
	return object.Float(math.Abs(v.Float())), nil
}

func nativeRound(ctx *vm.NativeCallContext, args []object.Value) (object.Value, error) {
	return roundingNative(ctx, args[0], math.Round)
}

func nativeFloor(ctx *vm.NativeCallContext, args []object.Value) (object.Value, error) {
	return roundingNative(ctx, args[0], math.Floor)
}

func nativeCeiling(ctx *vm.NativeCallContext, args []object.Value) (object.Value, error) {
	return roundingNative(ctx, args[0], math.Ceil)
}

func roundingNative(ctx *vm.NativeCallContext, v object.Value, fn func(float64) float64) (object.Value, error) {
	if !v.IsNumber() {
		return object.Value{}, ctx.RaiseArgument(0, "expected a number, got a %s", v.TypeName())
	}
	if v.IsInt() {
		return v, nil
	}
	return object.Int(int64(fn(v.Float()))), nil
}

func nativeSqrt(ctx *vm.NativeCallContext, args []object.Value) (object.Value, error) {
	v := args[0]
	if !v.IsNumber() {
		return object.Value{}, ctx.RaiseArgument(0, "expected a number, got a %s", v.TypeName())
	}
	if v.AsFloat() < 0 {
		return object.Value{}, ctx.RaiseArgument(0, "cannot take the square root of a negative number")
	}
	return object.Float(math.Sqrt(v.AsFloat())), nil
}

func nativeKeysOf(ctx *vm.NativeCallContext, args []object.Value) (object.Value, error) {
	dict, ok := args[0].Object().(*object.Dictionary)
	if !ok {
		return object.Value{}, ctx.RaiseArgument(0, "expected a dictionary, got a %s", args[0].TypeName())
	}
	var keys []object.Value
	for e := dict.Enumerator(); !e.IsAtEnd(); {
		pair := e.Enumerate()
		if p, ok := pair.Object().(*object.List); ok && len(p.Elements) == 2 {
			keys = append(keys, p.Elements[0])
		}
	}
	list := object.NewList(keys)
	ctx.Track(list)
	return object.Obj(list), nil
}

func nativeValuesOf(ctx *vm.NativeCallContext, args []object.Value) (object.Value, error) {
	dict, ok := args[0].Object().(*object.Dictionary)
	if !ok {
		return object.Value{}, ctx.RaiseArgument(0, "expected a dictionary, got a %s", args[0].TypeName())
	}
	var values []object.Value
	for e := dict.Enumerator(); !e.IsAtEnd(); {
		pair := e.Enumerate()
		if p, ok := pair.Object().(*object.List); ok && len(p.Elements) == 2 {
			values = append(values, p.Elements[1])
		}
	}
	list := object.NewList(values)
	ctx.Track(list)
	return object.Obj(list), nil
}

func nativeAppendTo(ctx *vm.NativeCallContext, args []object.Value) (object.Value, error) {
	list, ok := args[1].Object().(*object.List)
	if !ok {
		return object.Value{}, ctx.RaiseArgument(1, "expected a list, got a %s", args[1].TypeName())
	}
	list.Append(args[0])
	return args[1], nil
}

func nativeReverse(ctx *vm.NativeCallContext, args []object.Value) (object.Value, error) {
	list, ok := args[0].Object().(*object.List)
	if !ok {
		return object.Value{}, ctx.RaiseArgument(0, "expected a list, got a %s", args[0].TypeName())
	}
	n := len(list.Elements)
	out := make([]object.Value, n)
	for i, v := range list.Elements {
		out[n-1-i] = v
	}
	result := object.NewList(out)
	ctx.Track(result)
	return object.Obj(result), nil
}

func nativeInsertAtEnd(ctx *vm.NativeCallContext, args []object.Value) (object.Value, error) {
	return insertNative(ctx, args, false)
}

func nativeInsertAtBeginning(ctx *vm.NativeCallContext, args []object.Value) (object.Value, error) {
	return insertNative(ctx, args, true)
}

func insertNative(ctx *vm.NativeCallContext, args []object.Value, atBeginning bool) (object.Value, error) {
	list, ok := args[1].Object().(*object.List)
	if !ok {
		return object.Value{}, ctx.RaiseArgument(1, "expected a list, got a %s", args[1].TypeName())
	}
	index := list.Len()
	if atBeginning {
		index = 0
	}
	if err := list.Insert(index, args[0]); err != nil {
		return object.Value{}, ctx.Raise("%v", err)
	}
	return args[1], nil
}

func nativeRemoveItem(ctx *vm.NativeCallContext, args []object.Value) (object.Value, error) {
	if !args[0].IsInt() {
		return object.Value{}, ctx.RaiseArgument(0, "expected an integer index, got a %s", args[0].TypeName())
	}
	list, ok := args[1].Object().(*object.List)
	if !ok {
		return object.Value{}, ctx.RaiseArgument(1, "expected a list, got a %s", args[1].TypeName())
	}
	v, err := list.RemoveAt(int(args[0].Int()))
	if err != nil {
		return object.Value{}, ctx.Raise("%v", err)
	}
	return v, nil
}

func nativeArguments(ctx *vm.NativeCallContext, args []object.Value) (object.Value, error) {
	elems := make([]object.Value, len(CLIArguments))
	for i, a := range CLIArguments {
		elems[i] = object.Obj(object.NewString(a))
	}
	list := object.NewList(elems)
	ctx.Track(list)
	return object.Obj(list), nil
}

func nativeEnvironment(ctx *vm.NativeCallContext, args []object.Value) (object.Value, error) {
	dict := object.NewDictionary()
	env := CLIEnvironment
	if env == nil {
		env = os.Environ()
	}
	for _, kv := range env {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				dict.Set(object.Obj(object.NewString(kv[:i])), object.Obj(object.NewString(kv[i+1:])))
				break
			}
		}
	}
	ctx.Track(dict)
	return object.Obj(dict), nil
}

func nativeClock(ctx *vm.NativeCallContext, args []object.Value) (object.Value, error) {
	return object.Float(float64(time.Now().UnixNano()) / 1e9), nil
}

func nativeSystemName(ctx *vm.NativeCallContext, args []object.Value) (object.Value, error) {
	return object.Obj(object.NewString("sif")), nil
}

func nativeSystemVersion(ctx *vm.NativeCallContext, args []object.Value) (object.Value, error) {
	return object.Obj(object.NewString(config.Version)), nil
}
