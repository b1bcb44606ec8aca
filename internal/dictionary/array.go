package dictionary

import (
	"math"
	"sort"

	"github.com/soltixdb/columnstore/internal/colerrors"
	"github.com/soltixdb/columnstore/internal/compression"
)

// ArrayDictionary stores sorted numeric values in a compressed array. Doubles
// are kept as order-preserving int64 keys so both types share the codecs.
type ArrayDictionary[T Numeric] struct {
	derived[T]
	keys compression.CompressedArray
}

// BuildArrayDictionary compresses strictly increasing values
func BuildArrayDictionary[T Numeric](sortedValues []T) (*ArrayDictionary[T], error) {
	if err := checkSortedUnique(sortedValues); err != nil {
		return nil, err
	}
	keys := make([]int64, len(sortedValues))
	for i, v := range sortedValues {
		keys[i] = toKey(v)
	}
	return newArrayDictionary[T](compression.Compress(keys)), nil
}

// NewArrayDictionary wraps an existing key array after checking it is
// strictly increasing. The check walks the keys with Get and stops at the
// first repeat, so a short payload claiming a long constant array is rejected
// without being materialized.
func NewArrayDictionary[T Numeric](keys compression.CompressedArray) (*ArrayDictionary[T], error) {
	n := keys.Len()
	if n < 2 {
		return newArrayDictionary[T](keys), nil
	}
	prev := keys.Get(0)
	for i := 1; i < n; i++ {
		k := keys.Get(i)
		if k <= prev {
			return nil, colerrors.Structural("array dictionary keys not strictly increasing at %d", i)
		}
		prev = k
	}
	return newArrayDictionary[T](keys), nil
}

func newArrayDictionary[T Numeric](keys compression.CompressedArray) *ArrayDictionary[T] {
	d := &ArrayDictionary[T]{keys: keys}
	d.derived = derived[T]{self: d}
	return d
}

// Keys returns the backing array
func (d *ArrayDictionary[T]) Keys() compression.CompressedArray { return d.keys }

func (d *ArrayDictionary[T]) Kind() Kind { return KindArray }

func (d *ArrayDictionary[T]) ColumnType() ColumnType { return ColumnTypeOf[T]() }

func (d *ArrayDictionary[T]) MaxID() (int64, bool) {
	n := d.keys.Len()
	return int64(n - 1), n > 0
}

func (d *ArrayDictionary[T]) DecompressValue(id int64) (T, error) {
	if id < 0 || id >= int64(d.keys.Len()) {
		var zero T
		return zero, colerrors.NotFound("id %d not in array dictionary of %d values", id, d.keys.Len())
	}
	return fromKey[T](d.keys.Get(int(id))), nil
}

func (d *ArrayDictionary[T]) DecompressValues(ids []int64) ([]T, error) {
	out := make([]T, len(ids))
	n := int64(d.keys.Len())
	for i, id := range ids {
		if id < 0 || id >= n {
			return nil, colerrors.NotFound("id %d not in array dictionary of %d values", id, n)
		}
		out[i] = fromKey[T](d.keys.Get(int(id)))
	}
	return out, nil
}

// search returns the index of the first key >= value's key
func (d *ArrayDictionary[T]) search(value T) (int, bool) {
	k := toKey(value)
	n := d.keys.Len()
	i := sort.Search(n, func(i int) bool { return d.keys.Get(i) >= k })
	return i, i < n && d.keys.Get(i) == k
}

func (d *ArrayDictionary[T]) FindGtEqIDOfValue(value T) (int64, bool) {
	i, exact := d.search(value)
	switch {
	case exact:
		return int64(i), true
	case i == d.keys.Len():
		return 0, false
	default:
		return EncodeNeighbor(int64(i)), true
	}
}

func (d *ArrayDictionary[T]) FindLtEqIDOfValue(value T) (int64, bool) {
	i, exact := d.search(value)
	switch {
	case exact:
		return int64(i), true
	case i == 0:
		return 0, false
	default:
		return EncodeNeighbor(int64(i - 1)), true
	}
}

func (d *ArrayDictionary[T]) FindEqualIDs(other Dictionary[T]) *IDMap {
	return d.compare(other, relEqual)
}

func (d *ArrayDictionary[T]) FindGtEqIDs(other Dictionary[T]) *IDMap {
	return d.compare(other, relGtEq)
}

func (d *ArrayDictionary[T]) FindLtEqIDs(other Dictionary[T]) *IDMap {
	return d.compare(other, relLtEq)
}

// compare merges key arrays directly when other is also an array dictionary
func (d *ArrayDictionary[T]) compare(other Dictionary[T], rel relation) *IDMap {
	o, ok := other.(*ArrayDictionary[T])
	if !ok || d.keys.Len() == 0 || o.keys.Len() == 0 {
		return crossCompare[T](d, other, rel)
	}
	sink := newOutcomeSink(rel, int64(o.keys.Len()-1), int64(d.keys.Len()))
	// keys preserve value order, so merging keys merges values
	mergeSorted(d.keys.Decompress(), o.keys.Decompress(), sink)
	return sink.finish()
}

func (d *ArrayDictionary[T]) walkValues(fn func(id int64, value T) bool) {
	for i, k := range d.keys.Decompress() {
		if !fn(int64(i), fromKey[T](k)) {
			return
		}
	}
}

func (d *ArrayDictionary[T]) ApproximateSizeInBytes() int64 {
	return 24 + d.keys.SizeInBytes()
}

// toKey maps a value to an int64 with the same ordering. Doubles flip their
// magnitude bits when negative; -0 folds onto +0.
func toKey[T Numeric](v T) int64 {
	switch x := any(v).(type) {
	case int64:
		return x
	case float64:
		if x == 0 {
			x = 0
		}
		bits := math.Float64bits(x)
		if bits>>63 == 1 {
			return int64(bits ^ math.MaxInt64)
		}
		return int64(bits)
	}
	panic("unreachable")
}

func fromKey[T Numeric](k int64) T {
	var zero T
	switch any(zero).(type) {
	case float64:
		bits := uint64(k)
		if k < 0 {
			bits ^= math.MaxInt64
		}
		return any(math.Float64frombits(bits)).(T)
	default:
		return any(k).(T)
	}
}
