package vm

import "github.com/atjhc/sif/internal/object"

// collectGarbage implements Sif's cycle-breaking collector. Containers
// are otherwise owned by whichever Value holds them; this pass only
// exists to find and clear containers that have become unreachable while
// pointing at each other in a cycle (a list that contains itself, two
// dictionaries that reference each other). It marks from every live root,
// then clears (but does not deallocate — Go's own GC reclaims the memory
// once nothing points at it) every tracked container left unmarked.
//
// It runs only at the dispatch loop's instruction boundaries (see track),
// never in the middle of an allocation.
func (vm *VirtualMachine) collectGarbage() {
	for _, c := range vm.tracked {
		c.SetMarked(false)
	}

	// marked records every container this pass touched, tracked or not, so
	// all mark bits can be reset afterwards — a stale mark left on an
	// untracked container would stop the next pass from tracing through it.
	var marked []object.Container
	var mark func(object.Value)
	mark = func(v object.Value) {
		if !v.IsObject() {
			return
		}
		// Functions carry no captured values directly (those live on the
		// call frame that resolved them, marked below). Enumerators are not
		// containers but may be the only reference left to one, so they
		// trace through without a mark bit of their own.
		switch o := v.Object().(type) {
		case object.Container:
			if o.Marked() {
				return
			}
			o.SetMarked(true)
			marked = append(marked, o)
			o.Trace(mark)
		case interface{ Trace(func(object.Value)) }:
			o.Trace(mark)
		}
	}

	for _, v := range vm.globals {
		mark(v)
	}
	for _, v := range vm.stack {
		mark(v)
	}
	for _, fr := range vm.frames {
		mark(fr.it)
		mark(fr.error)
		for _, v := range fr.captures {
			mark(v)
		}
	}

	live := vm.tracked[:0]
	for _, c := range vm.tracked {
		if c.Marked() {
			live = append(live, c)
		} else {
			c.Clear()
		}
	}
	vm.tracked = live

	for _, c := range marked {
		c.SetMarked(false)
	}
}
