package object

import "fmt"

// Range is an immutable {start, end, closed} integer range.
// Size is end-start (+1 if closed). Constructing one with end < start
// fails at runtime rather than producing an empty range.
type Range struct {
	Start  int64
	End    int64
	Closed bool
}

// NewRange validates and constructs a Range.
func NewRange(start, end int64, closed bool) (*Range, error) {
	if end < start {
		return nil, fmt.Errorf("invalid range: end (%d) is less than start (%d)", end, start)
	}
	return &Range{Start: start, End: end, Closed: closed}, nil
}

func (r *Range) TypeName() string { return "range" }

func (r *Range) Description() string {
	if r.Closed {
		return fmt.Sprintf("%d...%d", r.Start, r.End)
	}
	return fmt.Sprintf("%d..<%d", r.Start, r.End)
}

func (r *Range) Equal(other Object) bool {
	o, ok := other.(*Range)
	return ok && r.Start == o.Start && r.End == o.End && r.Closed == o.Closed
}

func (r *Range) Hash() uint64 {
	h := hashUint64(uint64(r.Start))
	h ^= hashUint64(uint64(r.End)) * 31
	if r.Closed {
		h ^= 1
	}
	return h
}

func (r *Range) Copy() Object { cp := *r; return &cp }

// Size is the number of integers the range covers.
func (r *Range) Size() int64 {
	n := r.End - r.Start
	if r.Closed {
		n++
	}
	if n < 0 {
		return 0
	}
	return n
}

func (r *Range) Contains(v int64) bool {
	if r.Closed {
		return v >= r.Start && v <= r.End
	}
	return v >= r.Start && v < r.End
}

func (r *Range) Overlaps(other *Range) bool {
	if r.Size() == 0 || other.Size() == 0 {
		return false
	}
	aEnd := r.End
	if !r.Closed {
		aEnd--
	}
	bEnd := other.End
	if !other.Closed {
		bEnd--
	}
	return r.Start <= bEnd && other.Start <= aEnd
}

// Bounds converts the range into a [lo, hi) slice-index pair valid for a
// sequence of length n, honoring negative offsets the same way integer
// subscripts do.
func (r *Range) Bounds(n int) (int, int, error) {
	lo, err := resolveIndex(r.Start, n+1)
	if err != nil && r.Start != int64(n) {
		return 0, 0, err
	}
	if r.Start == int64(n) {
		lo = n
	}
	end := r.End
	if r.Closed {
		end++
	}
	hi, err := resolveIndex(end, n+1)
	if err != nil && end != int64(n) {
		return 0, 0, err
	}
	if end == int64(n) {
		hi = n
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi, nil
}

func (r *Range) Enumerator() Enumerator {
	return &rangeEnumerator{cur: r.Start, end: r.End, closed: r.Closed}
}

// Get implements Subscriptable: subscripting a Range yields the integer at
// the given offset.
func (r *Range) Get(key Value) (Value, error) {
	if !key.IsInt() {
		return Value{}, fmt.Errorf("cannot subscript a range with a %s", key.TypeName())
	}
	idx, err := resolveIndex(key.Int(), int(r.Size()))
	if err != nil {
		return Value{}, err
	}
	return Int(r.Start + int64(idx)), nil
}

func (r *Range) Set(key Value, value Value) error {
	return fmt.Errorf("a range is immutable")
}

type rangeEnumerator struct {
	cur, end int64
	closed   bool
	done     bool
}

func (e *rangeEnumerator) IsAtEnd() bool {
	if e.done {
		return true
	}
	if e.closed {
		return e.cur > e.end
	}
	return e.cur >= e.end
}

func (e *rangeEnumerator) Enumerate() Value {
	v := Int(e.cur)
	e.cur++
	return v
}

func (e *rangeEnumerator) TypeName() string    { return "range-enumerator" }
func (e *rangeEnumerator) Description() string { return "<range enumerator>" }
func (e *rangeEnumerator) Equal(o Object) bool { return e == o }
func (e *rangeEnumerator) Hash() uint64        { return hashUint64(uint64(e.cur)) ^ hashUint64(uint64(e.end)) }
