package compression

import (
	"sort"

	"github.com/soltixdb/columnstore/internal/codec"
	"github.com/soltixdb/columnstore/internal/colerrors"
)

// RunLengthArray stores (value, run end) pairs. ends[i] is the exclusive end
// index of run i, so Get is a binary search over ends.
type RunLengthArray struct {
	values []int64
	ends   []int
}

func newRunLengthArray(values []int64) *RunLengthArray {
	a := &RunLengthArray{}
	for i, v := range values {
		if i > 0 && v == values[i-1] {
			a.ends[len(a.ends)-1]++
			continue
		}
		a.values = append(a.values, v)
		a.ends = append(a.ends, i+1)
	}
	return a
}

// Repeat returns an array of n copies of value stored as a single run
func Repeat(value int64, n int) (*RunLengthArray, error) {
	if n < 0 || uint64(n) > maxArrayLen {
		return nil, colerrors.Structural("run length %d out of range", n)
	}
	if n == 0 {
		return &RunLengthArray{}, nil
	}
	return &RunLengthArray{values: []int64{value}, ends: []int{n}}, nil
}

func (a *RunLengthArray) Codec() Codec { return CodecRunLength }

func (a *RunLengthArray) Len() int {
	if len(a.ends) == 0 {
		return 0
	}
	return a.ends[len(a.ends)-1]
}

// Runs returns the number of runs
func (a *RunLengthArray) Runs() int { return len(a.values) }

func (a *RunLengthArray) Get(index int) int64 {
	run := sort.Search(len(a.ends), func(i int) bool { return a.ends[i] > index })
	return a.values[run]
}

func (a *RunLengthArray) Decompress() []int64 {
	out := make([]int64, a.Len())
	start := 0
	for run, end := range a.ends {
		v := a.values[run]
		for i := start; i < end; i++ {
			out[i] = v
		}
		start = end
	}
	return out
}

func (a *RunLengthArray) SizeInBytes() int64 {
	return int64(len(a.values))*16 + 48
}

func (a *RunLengthArray) marshal(enc *codec.Encoder) {
	enc.Uvarint(uint64(len(a.values)))
	start := 0
	for run, end := range a.ends {
		enc.Varint(a.values[run])
		enc.Uvarint(uint64(end - start))
		start = end
	}
}

func unmarshalRunLength(dec *codec.Decoder) (*RunLengthArray, error) {
	runs, err := dec.Count()
	if err != nil {
		return nil, err
	}
	a := &RunLengthArray{values: make([]int64, runs), ends: make([]int, runs)}
	total := uint64(0)
	for i := 0; i < runs; i++ {
		if a.values[i], err = dec.Varint(); err != nil {
			return nil, err
		}
		length, err := dec.Uvarint()
		if err != nil {
			return nil, err
		}
		if length == 0 {
			return nil, colerrors.Structural("run-length array has empty run %d", i)
		}
		total += length
		if total > maxArrayLen {
			return nil, colerrors.Structural("run-length array length %d too large", total)
		}
		a.ends[i] = int(total)
	}
	return a, nil
}
