package dictionary

import "github.com/soltixdb/columnstore/internal/colerrors"

// ConstantDictionary holds exactly one value with id 0
type ConstantDictionary[T Value] struct {
	derived[T]
	value T
}

// NewConstantDictionary creates a dictionary holding only value
func NewConstantDictionary[T Value](value T) *ConstantDictionary[T] {
	d := &ConstantDictionary[T]{value: value}
	d.derived = derived[T]{self: d}
	return d
}

// Value returns the single value
func (d *ConstantDictionary[T]) Value() T { return d.value }

func (d *ConstantDictionary[T]) Kind() Kind { return KindConstant }

func (d *ConstantDictionary[T]) ColumnType() ColumnType { return ColumnTypeOf[T]() }

func (d *ConstantDictionary[T]) MaxID() (int64, bool) { return 0, true }

func (d *ConstantDictionary[T]) DecompressValue(id int64) (T, error) {
	if id != 0 {
		var zero T
		return zero, colerrors.NotFound("id %d not in constant dictionary", id)
	}
	return d.value, nil
}

func (d *ConstantDictionary[T]) FindGtEqIDOfValue(value T) (int64, bool) {
	switch {
	case value == d.value:
		return 0, true
	case value < d.value:
		return EncodeNeighbor(0), true
	default:
		return 0, false
	}
}

func (d *ConstantDictionary[T]) FindLtEqIDOfValue(value T) (int64, bool) {
	switch {
	case value == d.value:
		return 0, true
	case value > d.value:
		return EncodeNeighbor(0), true
	default:
		return 0, false
	}
}

func (d *ConstantDictionary[T]) ApproximateSizeInBytes() int64 {
	return 16 + valueSize(d.value)
}

func (d *ConstantDictionary[T]) walkValues(fn func(id int64, value T) bool) {
	fn(0, d.value)
}

func valueSize[T Value](v T) int64 {
	if s, ok := any(v).(string); ok {
		return 16 + int64(len(s))
	}
	return 8
}
