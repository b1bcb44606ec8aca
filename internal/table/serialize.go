package table

import (
	"bytes"

	"github.com/soltixdb/columnstore/internal/codec"
	"github.com/soltixdb/columnstore/internal/colerrors"
	"github.com/soltixdb/columnstore/internal/column"
	"github.com/soltixdb/columnstore/internal/compression"
)

const (
	shardMagic   = "CSTS"
	shardVersion = 1
	headerSize   = len(shardMagic) + 2
)

// MarshalShard serializes a table shard. The header (magic, version and
// compression algorithm) is written raw; the columns follow as one payload
// compressed with algo.
func MarshalShard(ts *TableShard, algo compression.Algorithm) ([]byte, error) {
	compressor, err := compression.GetCompressor(algo)
	if err != nil {
		return nil, err
	}

	enc := codec.NewEncoder(int(ts.ApproximateSizeInBytes() / 2))
	enc.String(ts.tableName)
	columns := ts.Columns()
	enc.Uvarint(uint64(len(columns)))
	for _, c := range columns {
		err := enc.Child(func(e *codec.Encoder) error { return column.Marshal(e, c) })
		if err != nil {
			return nil, err
		}
	}

	payload, err := compressor.Compress(enc.Bytes())
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, headerSize+len(payload))
	out = append(out, shardMagic...)
	out = append(out, shardVersion, byte(algo))
	return append(out, payload...), nil
}

// UnmarshalShard reads a table shard written by MarshalShard. Every column
// is re-validated on the way in.
func UnmarshalShard(data []byte) (*TableShard, error) {
	if len(data) < headerSize || !bytes.Equal(data[:len(shardMagic)], []byte(shardMagic)) {
		return nil, colerrors.Structural("not a table shard: bad header")
	}
	if v := data[len(shardMagic)]; v != shardVersion {
		return nil, colerrors.Structural("unsupported table shard version %d", v)
	}
	compressor, err := compression.GetCompressor(compression.Algorithm(data[len(shardMagic)+1]))
	if err != nil {
		return nil, colerrors.Wrap(err, colerrors.CodeStructural, "table shard payload")
	}
	payload, err := compressor.Decompress(data[headerSize:])
	if err != nil {
		return nil, colerrors.Wrap(err, colerrors.CodeStructural, "table shard payload")
	}

	dec := codec.NewDecoder(payload)
	tableName, err := dec.String()
	if err != nil {
		return nil, err
	}
	n, err := dec.Count()
	if err != nil {
		return nil, err
	}
	columns := make([]column.Shard, n)
	for i := range columns {
		err = dec.Child(func(d *codec.Decoder) error {
			columns[i], err = column.Unmarshal(d)
			return err
		})
		if err != nil {
			return nil, err
		}
	}
	if err := dec.Done(); err != nil {
		return nil, err
	}
	return NewTableShard(tableName, columns...)
}
