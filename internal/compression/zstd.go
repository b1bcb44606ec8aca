package compression

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ZstdCompressor implements Compressor using zstd. Encoders and decoders are
// pooled since they are expensive to create.
type ZstdCompressor struct {
	encoders sync.Pool
	decoders sync.Pool
}

// NewZstdCompressor creates a new zstd compressor
func NewZstdCompressor() *ZstdCompressor {
	zc := &ZstdCompressor{}
	zc.encoders.New = func() interface{} {
		enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		return enc
	}
	zc.decoders.New = func() interface{} {
		dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		return dec
	}
	return zc
}

// Compress compresses data using zstd
func (z *ZstdCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	enc := z.encoders.Get().(*zstd.Encoder)
	defer z.encoders.Put(enc)
	return enc.EncodeAll(data, nil), nil
}

// Decompress decompresses zstd compressed data
func (z *ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	dec := z.decoders.Get().(*zstd.Decoder)
	defer z.decoders.Put(dec)

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress failed: %w", err)
	}
	return out, nil
}

// Algorithm returns Zstd
func (z *ZstdCompressor) Algorithm() Algorithm {
	return Zstd
}
