package compression

import (
	"math/bits"

	"github.com/soltixdb/columnstore/internal/codec"
	"github.com/soltixdb/columnstore/internal/colerrors"
)

// BitPackedArray stores value-min for every entry in a fixed number of bits
type BitPackedArray struct {
	n     int
	min   int64
	width uint8
	data  []byte
}

// valueRange returns min, max and the bit width of max-min
func valueRange(values []int64) (int64, int64, uint8) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	// unsigned subtraction keeps the full span even for [MinInt64, MaxInt64]
	return lo, hi, uint8(bits.Len64(uint64(hi) - uint64(lo)))
}

func newBitPackedArray(values []int64) *BitPackedArray {
	lo, _, width := valueRange(values)
	w := NewBitWriter((len(values)*int(width) + 7) / 8)
	for _, v := range values {
		w.WriteBits(uint64(v)-uint64(lo), width)
	}
	return &BitPackedArray{n: len(values), min: lo, width: width, data: w.Bytes()}
}

func (a *BitPackedArray) Codec() Codec { return CodecBitPacked }

func (a *BitPackedArray) Len() int { return a.n }

// Width returns the number of bits per entry
func (a *BitPackedArray) Width() uint8 { return a.width }

func (a *BitPackedArray) Get(index int) int64 {
	if a.width == 0 {
		return a.min
	}
	r := bitReaderAt(a.data, uint64(index)*uint64(a.width))
	v, _ := r.ReadBits(a.width)
	return int64(v + uint64(a.min))
}

func (a *BitPackedArray) Decompress() []int64 {
	out := make([]int64, a.n)
	if a.width == 0 {
		for i := range out {
			out[i] = a.min
		}
		return out
	}
	r := NewBitReader(a.data)
	for i := range out {
		v, _ := r.ReadBits(a.width)
		out[i] = int64(v + uint64(a.min))
	}
	return out
}

func (a *BitPackedArray) SizeInBytes() int64 {
	return int64(len(a.data)) + 24
}

func (a *BitPackedArray) marshal(enc *codec.Encoder) {
	enc.Uvarint(uint64(a.n))
	enc.Varint(a.min)
	enc.Uvarint(uint64(a.width))
	enc.Raw(a.data)
}

func unmarshalBitPacked(dec *codec.Decoder) (*BitPackedArray, error) {
	n, err := dec.Uvarint()
	if err != nil {
		return nil, err
	}
	lo, err := dec.Varint()
	if err != nil {
		return nil, err
	}
	width, err := dec.Uvarint()
	if err != nil {
		return nil, err
	}
	data, err := dec.Raw()
	if err != nil {
		return nil, err
	}
	if n > maxArrayLen {
		return nil, colerrors.Structural("bit-packed array length %d too large", n)
	}
	if width > 64 {
		return nil, colerrors.Structural("bit-packed width %d exceeds 64", width)
	}
	if want := (n*width + 7) / 8; uint64(len(data)) != want {
		return nil, colerrors.Structural("bit-packed array of %d x %d bits has %d bytes, want %d", n, width, len(data), want)
	}
	return &BitPackedArray{n: int(n), min: lo, width: uint8(width), data: append([]byte(nil), data...)}, nil
}
