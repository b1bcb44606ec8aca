package compression

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/soltixdb/columnstore/internal/codec"
	"github.com/soltixdb/columnstore/internal/colerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func arrayInputs() map[string][]int64 {
	rng := rand.New(rand.NewSource(42))
	random := make([]int64, 1000)
	for i := range random {
		random[i] = rng.Int63n(1 << 20)
	}
	sorted := make([]int64, 500)
	for i := range sorted {
		sorted[i] = int64(i * 3)
	}
	runs := make([]int64, 0, 300)
	for v := int64(0); v < 10; v++ {
		for j := 0; j < 30; j++ {
			runs = append(runs, v)
		}
	}
	return map[string][]int64{
		"empty":    {},
		"single":   {7},
		"constant": {5, 5, 5, 5, 5},
		"negative": {-10, 3, -7, 0, 12},
		"extremes": {math.MinInt64, math.MaxInt64, 0, -1},
		"random":   random,
		"sorted":   sorted,
		"runs":     runs,
	}
}

func TestArrays_GetMatchesDecompress(t *testing.T) {
	for _, c := range []Codec{CodecBitPacked, CodecRunLength, CodecReference} {
		for name, values := range arrayInputs() {
			t.Run(c.String()+"/"+name, func(t *testing.T) {
				arr, err := NewArray(c, values)
				require.NoError(t, err)
				assert.Equal(t, c, arr.Codec())
				require.Equal(t, len(values), arr.Len())

				decompressed := arr.Decompress()
				if len(values) == 0 {
					assert.Empty(t, decompressed)
					return
				}
				assert.Equal(t, values, decompressed)
				for i, want := range values {
					if got := arr.Get(i); got != want {
						t.Fatalf("Get(%d) = %d, want %d", i, got, want)
					}
				}
				assert.Positive(t, arr.SizeInBytes())
			})
		}
	}
}

func TestArrays_SerializationRoundTrip(t *testing.T) {
	for _, c := range []Codec{CodecBitPacked, CodecRunLength, CodecReference} {
		for name, values := range arrayInputs() {
			t.Run(c.String()+"/"+name, func(t *testing.T) {
				arr, err := NewArray(c, values)
				require.NoError(t, err)

				enc := codec.NewEncoder(0)
				require.NoError(t, MarshalArray(enc, arr))

				dec := codec.NewDecoder(enc.Bytes())
				restored, err := UnmarshalArray(dec)
				require.NoError(t, err)
				require.NoError(t, dec.Done())

				assert.Equal(t, arr.Codec(), restored.Codec())
				assert.Equal(t, arr.Len(), restored.Len())
				assert.Equal(t, arr.Decompress(), restored.Decompress())
			})
		}
	}
}

func TestCompress_SelectsCodecFromDistribution(t *testing.T) {
	inputs := arrayInputs()

	assert.Equal(t, CodecRunLength, Compress(inputs["runs"]).Codec())
	assert.Equal(t, CodecRunLength, Compress(inputs["constant"]).Codec())
	assert.Equal(t, CodecBitPacked, Compress(inputs["random"]).Codec())

	// Large values with small steps pack better as deltas
	wide := make([]int64, 1024)
	for i := range wide {
		wide[i] = 1<<40 + int64(i)*50
	}
	assert.Equal(t, CodecReference, Compress(wide).Codec())

	for name, values := range inputs {
		arr := Compress(values)
		if len(values) > 0 {
			assert.Equal(t, values, arr.Decompress(), name)
		}
	}
}

func TestBitPacked_Width(t *testing.T) {
	arr := newBitPackedArray([]int64{100, 101, 103})
	assert.Equal(t, uint8(2), arr.Width())
	assert.Equal(t, int64(103), arr.Get(2))

	arr = newBitPackedArray([]int64{9, 9})
	assert.Equal(t, uint8(0), arr.Width())
	assert.Equal(t, []int64{9, 9}, arr.Decompress())
}

func TestUnmarshalArray_RejectsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		write func(e *codec.Encoder)
	}{
		{"unknown codec", func(e *codec.Encoder) { e.Uvarint(99) }},
		{"bitpacked short data", func(e *codec.Encoder) {
			e.Uvarint(uint64(CodecBitPacked))
			e.Uvarint(10)
			e.Varint(0)
			e.Uvarint(8)
			e.Raw([]byte{1, 2, 3})
		}},
		{"bitpacked wide", func(e *codec.Encoder) {
			e.Uvarint(uint64(CodecBitPacked))
			e.Uvarint(1)
			e.Varint(0)
			e.Uvarint(65)
			e.Raw(make([]byte, 9))
		}},
		{"empty run", func(e *codec.Encoder) {
			e.Uvarint(uint64(CodecRunLength))
			e.Uvarint(1)
			e.Varint(4)
			e.Uvarint(0)
		}},
		{"reference trailing bytes", func(e *codec.Encoder) {
			e.Uvarint(uint64(CodecReference))
			e.Uvarint(2)
			e.Varint(0)
			e.Raw([]byte{2, 2})
		}},
		{"reference truncated", func(e *codec.Encoder) {
			e.Uvarint(uint64(CodecReference))
			e.Uvarint(3)
			e.Varint(0)
			e.Raw([]byte{0x80, 0x80})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := codec.NewEncoder(0)
			tt.write(enc)
			_, err := UnmarshalArray(codec.NewDecoder(enc.Bytes()))
			require.Error(t, err)
			assert.True(t, errors.Is(err, colerrors.ErrStructural), "got %v", err)
		})
	}
}

func BenchmarkBitPacked_Get(b *testing.B) {
	values := make([]int64, 1<<16)
	for i := range values {
		values[i] = int64(i % 1000)
	}
	arr := newBitPackedArray(values)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = arr.Get(i & (len(values) - 1))
	}
}

func BenchmarkReference_Get(b *testing.B) {
	values := make([]int64, 1<<16)
	for i := range values {
		values[i] = int64(i * 2)
	}
	arr := newReferenceArray(values)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = arr.Get(i & (len(values) - 1))
	}
}

func TestRepeatAndBounds(t *testing.T) {
	arr, err := Repeat(7, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1000, arr.Len())
	assert.Equal(t, 1, arr.Runs())
	assert.Equal(t, int64(7), arr.Get(999))

	lo, hi := Bounds(arr)
	assert.Equal(t, int64(7), lo)
	assert.Equal(t, int64(7), hi)

	lo, hi = Bounds(Compress([]int64{4, -2, 9, 0}))
	assert.Equal(t, int64(-2), lo)
	assert.Equal(t, int64(9), hi)

	_, err = Repeat(0, -1)
	assert.True(t, errors.Is(err, colerrors.ErrStructural))

	// a zero-width array answers from its minimum
	enc := codec.NewEncoder(16)
	enc.Uvarint(uint64(CodecBitPacked))
	enc.Uvarint(1 << 30)
	enc.Varint(-3)
	enc.Uvarint(0)
	enc.Raw(nil)
	constant, err := UnmarshalArray(codec.NewDecoder(enc.Bytes()))
	require.NoError(t, err)
	lo, hi = Bounds(constant)
	assert.Equal(t, int64(-3), lo)
	assert.Equal(t, int64(-3), hi)
}
