package dictionary

import "github.com/soltixdb/columnstore/internal/colerrors"

// derived implements the operations every variant answers the same way on top
// of MaxID, DecompressValue and the two neighbor lookups. Variants embed it and
// override what they can do faster.
type derived[T Value] struct {
	self Dictionary[T]
}

func (d derived[T]) DecompressValues(ids []int64) ([]T, error) {
	out := make([]T, len(ids))
	for i, id := range ids {
		v, err := d.self.DecompressValue(id)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (d derived[T]) FindIDOfValue(value T) (int64, error) {
	id, ok := d.self.FindGtEqIDOfValue(value)
	if ok && id >= 0 {
		return id, nil
	}
	if !ok {
		maxID, nonEmpty := d.self.MaxID()
		id = EncodeNeighbor(0)
		if nonEmpty {
			id = EncodeNeighbor(maxID + 1)
		}
	}
	return id, colerrors.NotFound("value %v not in dictionary", value)
}

func (d derived[T]) FindIDsOfValues(sortedValues []T) []int64 {
	out := make([]int64, len(sortedValues))
	for i, v := range sortedValues {
		id, ok := d.self.FindGtEqIDOfValue(v)
		if !ok || id < 0 {
			id = -1
		}
		out[i] = id
	}
	return out
}

func (d derived[T]) ContainsAnyValueGt(value T) bool {
	maxID, ok := d.self.MaxID()
	if !ok {
		return false
	}
	id, ok := d.self.FindGtEqIDOfValue(value)
	if !ok {
		return false
	}
	return id < 0 || id < maxID
}

func (d derived[T]) ContainsAnyValueGtEq(value T) bool {
	_, ok := d.self.FindGtEqIDOfValue(value)
	return ok
}

func (d derived[T]) ContainsAnyValueLt(value T) bool {
	id, ok := d.self.FindLtEqIDOfValue(value)
	if !ok {
		return false
	}
	return id < 0 || id > 0
}

func (d derived[T]) ContainsAnyValueLtEq(value T) bool {
	_, ok := d.self.FindLtEqIDOfValue(value)
	return ok
}

func (d derived[T]) FindIDsOfValuesGt(value T) []int64 {
	id, ok := d.self.FindGtEqIDOfValue(value)
	if !ok {
		return nil
	}
	maxID, _ := d.self.MaxID()
	if id >= 0 {
		return idRange(id+1, maxID)
	}
	return idRange(DecodeNeighbor(id), maxID)
}

func (d derived[T]) FindIDsOfValuesGtEq(value T) []int64 {
	id, ok := d.self.FindGtEqIDOfValue(value)
	if !ok {
		return nil
	}
	maxID, _ := d.self.MaxID()
	return idRange(DecodeNeighbor(id), maxID)
}

func (d derived[T]) FindIDsOfValuesLt(value T) []int64 {
	id, ok := d.self.FindLtEqIDOfValue(value)
	if !ok {
		return nil
	}
	if id >= 0 {
		return idRange(0, id-1)
	}
	return idRange(0, DecodeNeighbor(id))
}

func (d derived[T]) FindIDsOfValuesLtEq(value T) []int64 {
	id, ok := d.self.FindLtEqIDOfValue(value)
	if !ok {
		return nil
	}
	return idRange(0, DecodeNeighbor(id))
}

func (d derived[T]) FindEqualIDs(other Dictionary[T]) *IDMap {
	return crossCompare(d.self, other, relEqual)
}

func (d derived[T]) FindGtEqIDs(other Dictionary[T]) *IDMap {
	return crossCompare(d.self, other, relGtEq)
}

func (d derived[T]) FindLtEqIDs(other Dictionary[T]) *IDMap {
	return crossCompare(d.self, other, relLtEq)
}
