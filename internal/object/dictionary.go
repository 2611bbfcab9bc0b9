package object

import (
	"strings"
	"unsafe"
)

type dictEntry struct {
	key   Value
	value Value
}

// Dictionary is a mutable map from Value to Value, using Value's own
// hash/equality. Go maps can't key on an interface-holding
// struct safely when the object variant isn't itself comparable, so buckets
// are chained by hash with Equal used to resolve collisions — the same
// separate-chaining shape as a hand-rolled hash table.
type Dictionary struct {
	markBit
	buckets map[uint64][]dictEntry
	order   []uint64 // insertion-order hash sequence, for deterministic iteration within one run
	size    int
}

func NewDictionary() *Dictionary {
	return &Dictionary{buckets: map[uint64][]dictEntry{}}
}

func (d *Dictionary) TypeName() string { return "dictionary" }

func (d *Dictionary) Description() string {
	var parts []string
	d.forEach(func(k, v Value) {
		parts = append(parts, k.DebugDescription()+": "+v.DebugDescription())
	})
	return "{" + strings.Join(parts, ", ") + "}"
}

func (d *Dictionary) Equal(other Object) bool {
	o, ok := other.(*Dictionary)
	if !ok || d.size != o.size {
		return false
	}
	return dictEqual(d, o, map[[2]uintptr]bool{})
}

func dictEqual(a, b *Dictionary, visited map[[2]uintptr]bool) bool {
	if a.size != b.size {
		return false
	}
	key := [2]uintptr{uintptr(unsafe.Pointer(a)), uintptr(unsafe.Pointer(b))}
	if visited[key] {
		return true
	}
	visited[key] = true
	ok := true
	a.forEach(func(k, v Value) {
		if !ok {
			return
		}
		bv, found := b.Get(k)
		if found != nil {
			ok = false
			return
		}
		if !valueEqualGuarded(v, bv, visited) {
			ok = false
		}
	})
	return ok
}

func (d *Dictionary) Hash() uint64 {
	var h uint64 = 14695981039346656037
	d.forEach(func(k, v Value) {
		h ^= k.Hash()*31 + v.Hash()
	})
	return h
}

func (d *Dictionary) Copy() Object {
	out := NewDictionary()
	d.forEach(func(k, v Value) { out.Set(k, v) })
	return out
}

func (d *Dictionary) Trace(mark func(Value)) {
	d.forEach(func(k, v Value) {
		mark(k)
		mark(v)
	})
}

func (d *Dictionary) Clear() {
	d.buckets = map[uint64][]dictEntry{}
	d.order = nil
	d.size = 0
}

func (d *Dictionary) Len() int { return d.size }

// forEach walks entries; order is stable within one run (insertion order
// of distinct hash buckets) but unspecified across mutations, so no
// caller may depend on it.
func (d *Dictionary) forEach(fn func(k, v Value)) {
	for _, h := range d.order {
		for _, e := range d.buckets[h] {
			fn(e.key, e.value)
		}
	}
}

func (d *Dictionary) Get(key Value) (Value, error) {
	h := key.Hash()
	for _, e := range d.buckets[h] {
		if e.key.Equal(key) {
			return e.value, nil
		}
	}
	return Value{}, errKeyNotFound(key)
}

func (d *Dictionary) Set(key Value, value Value) error {
	h := key.Hash()
	bucket := d.buckets[h]
	for i, e := range bucket {
		if e.key.Equal(key) {
			bucket[i].value = value
			return nil
		}
	}
	if len(bucket) == 0 {
		d.order = append(d.order, h)
	}
	d.buckets[h] = append(bucket, dictEntry{key: key, value: value})
	d.size++
	return nil
}

func (d *Dictionary) Delete(key Value) bool {
	h := key.Hash()
	bucket := d.buckets[h]
	for i, e := range bucket {
		if e.key.Equal(key) {
			d.buckets[h] = append(bucket[:i], bucket[i+1:]...)
			d.size--
			if len(d.buckets[h]) == 0 {
				delete(d.buckets, h)
				d.removeOrder(h)
			}
			return true
		}
	}
	return false
}

func (d *Dictionary) removeOrder(h uint64) {
	for i, oh := range d.order {
		if oh == h {
			d.order = append(d.order[:i], d.order[i+1:]...)
			return
		}
	}
}

func (d *Dictionary) Has(key Value) bool {
	_, err := d.Get(key)
	return err == nil
}

// Enumerator yields [key, value] pair Lists.
func (d *Dictionary) Enumerator() Enumerator {
	var pairs []Value
	d.forEach(func(k, v Value) {
		pairs = append(pairs, Obj(NewList([]Value{k, v})))
	})
	return &listEnumerator{list: &List{Elements: pairs}}
}

func errKeyNotFound(key Value) error {
	return &dictKeyError{key: key}
}

type dictKeyError struct{ key Value }

func (e *dictKeyError) Error() string {
	return "no such key: " + e.key.DebugDescription()
}
