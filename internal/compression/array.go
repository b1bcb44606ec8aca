package compression

import (
	"fmt"

	"github.com/soltixdb/columnstore/internal/codec"
	"github.com/soltixdb/columnstore/internal/colerrors"
)

// Codec identifies a CompressedArray backend
type Codec uint8

const (
	CodecBitPacked Codec = 1
	CodecRunLength Codec = 2
	CodecReference Codec = 3
)

func (c Codec) String() string {
	switch c {
	case CodecBitPacked:
		return "BITPACKED"
	case CodecRunLength:
		return "RUNLENGTH"
	case CodecReference:
		return "REFERENCE"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

// CompressedArray is an immutable, random-access sequence of int64 values.
// Implementations are safe for concurrent reads.
type CompressedArray interface {
	Codec() Codec
	Len() int
	// Get returns the value at index. Callers guarantee 0 <= index < Len().
	Get(index int) int64
	// Decompress returns all values in a freshly allocated slice.
	Decompress() []int64
	SizeInBytes() int64
}

// maxArrayLen bounds lengths read from serialized arrays.
const maxArrayLen = 1 << 32

// runThreshold is the minimum average run length for run-length encoding.
const runThreshold = 4

// Compress builds the backend that stores values most compactly, judged from
// the run structure and delta widths of the input.
func Compress(values []int64) CompressedArray {
	n := len(values)
	if n == 0 {
		return newBitPackedArray(values)
	}

	runs := 1
	var deltaBytes int
	for i := 1; i < n; i++ {
		if values[i] != values[i-1] {
			runs++
		}
		deltaBytes += varintLen(zigzag(values[i] - values[i-1]))
	}

	if runs*runThreshold <= n {
		return newRunLengthArray(values)
	}

	_, _, width := valueRange(values)
	packedBytes := (n*int(width) + 7) / 8
	referenceBytes := deltaBytes + (n/checkpointInterval+1)*16
	if referenceBytes < packedBytes {
		return newReferenceArray(values)
	}
	return newBitPackedArray(values)
}

// NewArray builds an array with a specific backend
func NewArray(c Codec, values []int64) (CompressedArray, error) {
	switch c {
	case CodecBitPacked:
		return newBitPackedArray(values), nil
	case CodecRunLength:
		return newRunLengthArray(values), nil
	case CodecReference:
		return newReferenceArray(values), nil
	default:
		return nil, fmt.Errorf("unsupported array codec: %d", c)
	}
}

// Bounds returns the smallest and largest value of a non-empty array
// without materializing run-length or constant bit-packed arrays.
func Bounds(arr CompressedArray) (lo, hi int64) {
	var values []int64
	switch a := arr.(type) {
	case *RunLengthArray:
		values = a.values
	case *BitPackedArray:
		if a.width == 0 && a.n > 0 {
			return a.min, a.min
		}
		values = a.Decompress()
	default:
		values = arr.Decompress()
	}
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

// MarshalArray writes the codec tag followed by the backend payload
func MarshalArray(enc *codec.Encoder, arr CompressedArray) error {
	enc.Uvarint(uint64(arr.Codec()))
	switch a := arr.(type) {
	case *BitPackedArray:
		a.marshal(enc)
	case *RunLengthArray:
		a.marshal(enc)
	case *ReferenceArray:
		a.marshal(enc)
	default:
		return fmt.Errorf("cannot serialize array type %T", arr)
	}
	return nil
}

// UnmarshalArray reads an array written by MarshalArray
func UnmarshalArray(dec *codec.Decoder) (CompressedArray, error) {
	tag, err := dec.Uvarint()
	if err != nil {
		return nil, err
	}
	switch Codec(tag) {
	case CodecBitPacked:
		return unmarshalBitPacked(dec)
	case CodecRunLength:
		return unmarshalRunLength(dec)
	case CodecReference:
		return unmarshalReference(dec)
	default:
		return nil, colerrors.Structural("unknown array codec %d", tag)
	}
}
