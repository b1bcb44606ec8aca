// Package dictionary maps column values to dense integer ids and back.
//
// Every dictionary assigns ids 0..maxID in value order, so id1 < id2 implies
// value(id1) < value(id2). Lookups that miss report the nearest neighbor with
// the signed encoding -(n+1), where n is the neighbor's id: a non-negative
// result is an exact match, a negative one names the closest qualifying id.
// The predicate evaluation layer relies on this encoding, including for the
// cross-dictionary maps returned by FindEqualIDs, FindGtEqIDs and FindLtEqIDs.
//
// Dictionaries are immutable after construction and safe for concurrent use.
package dictionary

import "fmt"

// Value is the set of column value types
type Value interface {
	string | int64 | float64
}

// Numeric is the set of value types stored in array dictionaries
type Numeric interface {
	int64 | float64
}

// ColumnType identifies the value type of a column
type ColumnType uint8

const (
	ColumnTypeString ColumnType = 1
	ColumnTypeLong   ColumnType = 2
	ColumnTypeDouble ColumnType = 3
)

func (t ColumnType) String() string {
	switch t {
	case ColumnTypeString:
		return "STRING"
	case ColumnTypeLong:
		return "LONG"
	case ColumnTypeDouble:
		return "DOUBLE"
	default:
		return fmt.Sprintf("ColumnType(%d)", uint8(t))
	}
}

// ColumnTypeOf returns the column type storing values of T
func ColumnTypeOf[T Value]() ColumnType {
	var zero T
	switch any(zero).(type) {
	case string:
		return ColumnTypeString
	case int64:
		return ColumnTypeLong
	default:
		return ColumnTypeDouble
	}
}

// Kind identifies a dictionary variant
type Kind uint8

const (
	KindConstant Kind = 1
	KindEmpty    Kind = 2
	KindArray    Kind = 3
	KindTrie     Kind = 4
)

func (k Kind) String() string {
	switch k {
	case KindConstant:
		return "CONSTANT"
	case KindEmpty:
		return "EMPTY"
	case KindArray:
		return "ARRAY"
	case KindTrie:
		return "TRIE"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Dictionary is a bijection between ids [0, maxID] and sorted values of T
type Dictionary[T Value] interface {
	Kind() Kind
	ColumnType() ColumnType

	// MaxID returns the highest id; ok is false iff the dictionary is empty.
	MaxID() (maxID int64, ok bool)

	// DecompressValue returns the value of id, or a NOT_FOUND error.
	DecompressValue(id int64) (T, error)
	// DecompressValues resolves ids in order; any invalid id fails the call.
	DecompressValues(ids []int64) ([]T, error)

	// FindIDOfValue returns the id of value. A miss fails with NOT_FOUND and
	// still returns the encoded insertion position -(n+1), where n is the id
	// the value would take (maxID+1 past the end).
	FindIDOfValue(value T) (int64, error)
	// FindIDsOfValues looks up sorted values; absent values map to -1.
	FindIDsOfValues(sortedValues []T) []int64

	// FindGtEqIDOfValue returns the id of value, or -(n+1) where n is the id
	// of the smallest value greater than value. ok is false if there is none.
	FindGtEqIDOfValue(value T) (id int64, ok bool)
	// FindLtEqIDOfValue returns the id of value, or -(n+1) where n is the id
	// of the largest value smaller than value. ok is false if there is none.
	FindLtEqIDOfValue(value T) (id int64, ok bool)

	ContainsAnyValueGt(value T) bool
	ContainsAnyValueGtEq(value T) bool
	ContainsAnyValueLt(value T) bool
	ContainsAnyValueLtEq(value T) bool

	// FindIDsOfValuesGt and friends return the matching ids in ascending order.
	FindIDsOfValuesGt(value T) []int64
	FindIDsOfValuesGtEq(value T) []int64
	FindIDsOfValuesLt(value T) []int64
	FindIDsOfValuesLtEq(value T) []int64

	// FindEqualIDs maps each id whose value also occurs in other to other's id.
	FindEqualIDs(other Dictionary[T]) *IDMap
	// FindGtEqIDs maps each id to other.FindGtEqIDOfValue(value), for every
	// id where other holds a value greater than or equal to its value.
	FindGtEqIDs(other Dictionary[T]) *IDMap
	// FindLtEqIDs maps each id to other.FindLtEqIDOfValue(value), for every
	// id where other holds a value less than or equal to its value.
	FindLtEqIDs(other Dictionary[T]) *IDMap

	ApproximateSizeInBytes() int64
}

// EncodeNeighbor returns the negative encoding of neighbor id n
func EncodeNeighbor(n int64) int64 {
	return -(n + 1)
}

// DecodeNeighbor reverses EncodeNeighbor. Non-negative ids are returned as is.
func DecodeNeighbor(encoded int64) int64 {
	if encoded >= 0 {
		return encoded
	}
	return -encoded - 1
}

// idRange materializes [from, to]
func idRange(from, to int64) []int64 {
	if from > to {
		return nil
	}
	ids := make([]int64, 0, to-from+1)
	for id := from; id <= to; id++ {
		ids = append(ids, id)
	}
	return ids
}
