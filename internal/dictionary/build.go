package dictionary

import (
	"math"

	"github.com/soltixdb/columnstore/internal/colerrors"
)

// Build picks the variant for strictly increasing values: empty, constant,
// trie for strings and a compressed array for numbers.
func Build[T Value](sortedValues []T) (Dictionary[T], error) {
	if err := checkSortedUnique(sortedValues); err != nil {
		return nil, err
	}
	switch len(sortedValues) {
	case 0:
		return NewEmptyDictionary[T](), nil
	case 1:
		return NewConstantDictionary(sortedValues[0]), nil
	}

	switch values := any(sortedValues).(type) {
	case []string:
		d, err := BuildTrieDictionary(values)
		if err != nil {
			return nil, err
		}
		return any(d).(Dictionary[T]), nil
	case []int64:
		d, err := BuildArrayDictionary(values)
		if err != nil {
			return nil, err
		}
		return any(d).(Dictionary[T]), nil
	case []float64:
		d, err := BuildArrayDictionary(values)
		if err != nil {
			return nil, err
		}
		return any(d).(Dictionary[T]), nil
	}
	return nil, colerrors.Structural("unsupported value type %T", sortedValues)
}

// checkSortedUnique rejects input that is not strictly increasing, and NaN
func checkSortedUnique[T Value](values []T) error {
	for i, v := range values {
		if f, ok := any(v).(float64); ok && math.IsNaN(f) {
			return colerrors.Structural("NaN at %d cannot be ordered", i)
		}
		if i > 0 && !(values[i-1] < v) {
			return colerrors.Structural("values not strictly increasing at %d", i)
		}
	}
	return nil
}
