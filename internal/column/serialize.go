package column

import (
	"github.com/soltixdb/columnstore/internal/codec"
	"github.com/soltixdb/columnstore/internal/colerrors"
	"github.com/soltixdb/columnstore/internal/compression"
	"github.com/soltixdb/columnstore/internal/dictionary"
)

const (
	shardStandard = 1
	shardConstant = 2
)

// Marshal writes a shard header followed by its dictionary and pages
func Marshal(enc *codec.Encoder, s Shard) error {
	enc.String(s.Name())
	enc.Uvarint(uint64(s.ColumnType()))
	enc.Varint(s.FirstRowID())
	enc.Varint(s.NumberOfRows())
	return s.marshalBody(enc)
}

// Unmarshal reads a shard written by Marshal, re-checking page coverage
func Unmarshal(dec *codec.Decoder) (Shard, error) {
	name, err := dec.String()
	if err != nil {
		return nil, err
	}
	ct, err := dec.Uvarint()
	if err != nil {
		return nil, err
	}
	first, err := dec.Varint()
	if err != nil {
		return nil, err
	}
	rows, err := dec.Varint()
	if err != nil {
		return nil, err
	}

	var s Shard
	switch dictionary.ColumnType(ct) {
	case dictionary.ColumnTypeString:
		s, err = unmarshalTyped[string](dec, name, first, rows)
	case dictionary.ColumnTypeLong:
		s, err = unmarshalTyped[int64](dec, name, first, rows)
	case dictionary.ColumnTypeDouble:
		s, err = unmarshalTyped[float64](dec, name, first, rows)
	default:
		return nil, colerrors.Structural("column %q has unknown type %d", name, ct)
	}
	if err != nil {
		return nil, err
	}
	if s.FirstRowID() != first || s.NumberOfRows() != rows {
		return nil, colerrors.Structural("column %q covers rows %d+%d, header says %d+%d",
			name, s.FirstRowID(), s.NumberOfRows(), first, rows)
	}
	return s, nil
}

func (s *StandardShard[T]) marshalBody(enc *codec.Encoder) error {
	enc.Uvarint(shardStandard)
	if err := enc.Child(func(e *codec.Encoder) error { return dictionary.Marshal(e, s.dict) }); err != nil {
		return err
	}
	enc.Uvarint(uint64(len(s.pages.pages)))
	for _, p := range s.pages.pages {
		if err := enc.Child(p.marshal); err != nil {
			return err
		}
	}
	return nil
}

func (s *ConstantShard[T]) marshalBody(enc *codec.Encoder) error {
	enc.Uvarint(shardConstant)
	return enc.Child(func(e *codec.Encoder) error {
		return dictionary.Marshal[T](e, s.dict)
	})
}

func (p *Page) marshal(enc *codec.Encoder) error {
	enc.Varint(p.firstRowID)
	if err := enc.Child(func(e *codec.Encoder) error { return dictionary.Marshal(e, p.dict) }); err != nil {
		return err
	}
	return compression.MarshalArray(enc, p.values)
}

func unmarshalPage(dec *codec.Decoder) (*Page, error) {
	first, err := dec.Varint()
	if err != nil {
		return nil, err
	}
	var dict dictionary.Dictionary[int64]
	err = dec.Child(func(d *codec.Decoder) error {
		dict, err = dictionary.Unmarshal[int64](d)
		return err
	})
	if err != nil {
		return nil, err
	}
	values, err := compression.UnmarshalArray(dec)
	if err != nil {
		return nil, err
	}
	return NewPage(first, dict, values)
}

func unmarshalTyped[T dictionary.Value](dec *codec.Decoder, name string, first, rows int64) (Shard, error) {
	kind, err := dec.Uvarint()
	if err != nil {
		return nil, err
	}
	var dict dictionary.Dictionary[T]
	err = dec.Child(func(d *codec.Decoder) error {
		dict, err = dictionary.Unmarshal[T](d)
		return err
	})
	if err != nil {
		return nil, err
	}

	switch kind {
	case shardConstant:
		c, ok := dict.(*dictionary.ConstantDictionary[T])
		if !ok {
			return nil, colerrors.Structural("constant column %q has a %s dictionary", name, dict.Kind())
		}
		s, err := NewConstantShard(name, first, rows, c.Value())
		if err != nil {
			return nil, err
		}
		return s, nil
	case shardStandard:
		n, err := dec.Count()
		if err != nil {
			return nil, err
		}
		pages := make([]*Page, n)
		for i := range pages {
			err = dec.Child(func(d *codec.Decoder) error {
				pages[i], err = unmarshalPage(d)
				return err
			})
			if err != nil {
				return nil, err
			}
		}
		s, err := NewStandardShard(name, first, dict, pages)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, colerrors.Structural("column %q has unknown shard kind %d", name, kind)
	}
}
