package dictionary

import "github.com/soltixdb/columnstore/internal/colerrors"

// EmptyDictionary holds no values. Every lookup misses.
type EmptyDictionary[T Value] struct {
	derived[T]
}

// NewEmptyDictionary creates an empty dictionary
func NewEmptyDictionary[T Value]() *EmptyDictionary[T] {
	d := &EmptyDictionary[T]{}
	d.derived = derived[T]{self: d}
	return d
}

func (d *EmptyDictionary[T]) Kind() Kind { return KindEmpty }

func (d *EmptyDictionary[T]) ColumnType() ColumnType { return ColumnTypeOf[T]() }

func (d *EmptyDictionary[T]) MaxID() (int64, bool) { return 0, false }

func (d *EmptyDictionary[T]) DecompressValue(id int64) (T, error) {
	var zero T
	return zero, colerrors.NotFound("id %d not in empty dictionary", id)
}

func (d *EmptyDictionary[T]) FindGtEqIDOfValue(T) (int64, bool) { return 0, false }

func (d *EmptyDictionary[T]) FindLtEqIDOfValue(T) (int64, bool) { return 0, false }

func (d *EmptyDictionary[T]) ApproximateSizeInBytes() int64 { return 16 }
