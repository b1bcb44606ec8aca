package compression

import (
	"github.com/soltixdb/columnstore/internal/codec"
	"github.com/soltixdb/columnstore/internal/colerrors"
)

// checkpointInterval is the number of entries between random-access checkpoints
const checkpointInterval = 64

// ReferenceArray stores a reference value followed by zigzag varint deltas
// between consecutive entries. Efficient for sorted or slowly changing values
// such as column value ids of a sorted page dictionary.
type ReferenceArray struct {
	n           int
	reference   int64
	data        []byte
	checkpoints []refCheckpoint
}

// refCheckpoint holds the value of entry k*checkpointInterval and the offset
// of the delta for the entry after it.
type refCheckpoint struct {
	value  int64
	offset int
}

func newReferenceArray(values []int64) *ReferenceArray {
	a := &ReferenceArray{n: len(values)}
	if len(values) == 0 {
		return a
	}
	a.reference = values[0]
	a.data = make([]byte, 0, len(values))
	for i := 1; i < len(values); i++ {
		a.data = AppendVarint(a.data, zigzag(values[i]-values[i-1]))
	}
	// deltas were produced here, so indexing cannot fail
	_ = a.buildCheckpoints()
	return a
}

// buildCheckpoints walks the delta stream once, recording checkpoints and
// verifying that it holds exactly n-1 deltas.
func (a *ReferenceArray) buildCheckpoints() error {
	a.checkpoints = make([]refCheckpoint, 0, a.n/checkpointInterval+1)
	v, off := a.reference, 0
	for i := 0; i < a.n; i++ {
		if i > 0 {
			u, k := ReadVarint(a.data[off:])
			if k == 0 {
				return colerrors.Structural("reference array truncated at entry %d", i)
			}
			off += k
			v += unzigzag(u)
		}
		if i%checkpointInterval == 0 {
			a.checkpoints = append(a.checkpoints, refCheckpoint{value: v, offset: off})
		}
	}
	if off != len(a.data) {
		return colerrors.Structural("reference array has %d trailing bytes", len(a.data)-off)
	}
	return nil
}

func (a *ReferenceArray) Codec() Codec { return CodecReference }

func (a *ReferenceArray) Len() int { return a.n }

func (a *ReferenceArray) Get(index int) int64 {
	cp := a.checkpoints[index/checkpointInterval]
	v, off := cp.value, cp.offset
	for i := index % checkpointInterval; i > 0; i-- {
		u, k := ReadVarint(a.data[off:])
		off += k
		v += unzigzag(u)
	}
	return v
}

func (a *ReferenceArray) Decompress() []int64 {
	out := make([]int64, a.n)
	if a.n == 0 {
		return out
	}
	v, off := a.reference, 0
	out[0] = v
	for i := 1; i < a.n; i++ {
		u, k := ReadVarint(a.data[off:])
		off += k
		v += unzigzag(u)
		out[i] = v
	}
	return out
}

func (a *ReferenceArray) SizeInBytes() int64 {
	return int64(len(a.data)) + int64(len(a.checkpoints))*16 + 40
}

func (a *ReferenceArray) marshal(enc *codec.Encoder) {
	enc.Uvarint(uint64(a.n))
	enc.Varint(a.reference)
	enc.Raw(a.data)
}

func unmarshalReference(dec *codec.Decoder) (*ReferenceArray, error) {
	n, err := dec.Uvarint()
	if err != nil {
		return nil, err
	}
	reference, err := dec.Varint()
	if err != nil {
		return nil, err
	}
	data, err := dec.Raw()
	if err != nil {
		return nil, err
	}
	// every entry after the first needs at least one delta byte
	if n > 0 && n-1 > uint64(len(data)) {
		return nil, colerrors.Structural("reference array of %d entries has only %d delta bytes", n, len(data))
	}
	a := &ReferenceArray{n: int(n), reference: reference, data: append([]byte(nil), data...)}
	if err := a.buildCheckpoints(); err != nil {
		return nil, err
	}
	return a, nil
}
