package dictionary

import (
	"github.com/soltixdb/columnstore/internal/codec"
	"github.com/soltixdb/columnstore/internal/colerrors"
	"github.com/soltixdb/columnstore/internal/compression"
)

const (
	nodeTerminal = 0
	nodeParent   = 1
)

// payloadMarshaler is implemented by every variant
type payloadMarshaler interface {
	marshalPayload(enc *codec.Encoder) error
}

// Marshal writes the column type, the variant kind and the variant payload
func Marshal[T Value](enc *codec.Encoder, d Dictionary[T]) error {
	m, ok := d.(payloadMarshaler)
	if !ok {
		return colerrors.Structural("dictionary %T cannot be serialized", d)
	}
	enc.Uvarint(uint64(d.ColumnType()))
	enc.Uvarint(uint64(d.Kind()))
	return m.marshalPayload(enc)
}

// Unmarshal reads a dictionary written by Marshal. The stored column type must
// match T.
func Unmarshal[T Value](dec *codec.Decoder) (Dictionary[T], error) {
	ct, err := dec.Uvarint()
	if err != nil {
		return nil, err
	}
	if want := ColumnTypeOf[T](); ColumnType(ct) != want {
		return nil, colerrors.Structural("dictionary column type %s, expected %s", ColumnType(ct), want)
	}
	kind, err := dec.Uvarint()
	if err != nil {
		return nil, err
	}

	switch Kind(kind) {
	case KindEmpty:
		return NewEmptyDictionary[T](), nil
	case KindConstant:
		v, err := readValue[T](dec)
		if err != nil {
			return nil, err
		}
		return NewConstantDictionary(v), nil
	case KindArray:
		keys, err := compression.UnmarshalArray(dec)
		if err != nil {
			return nil, err
		}
		var zero T
		switch any(zero).(type) {
		case int64:
			d, err := NewArrayDictionary[int64](keys)
			if err != nil {
				return nil, err
			}
			return any(d).(Dictionary[T]), nil
		case float64:
			d, err := NewArrayDictionary[float64](keys)
			if err != nil {
				return nil, err
			}
			return any(d).(Dictionary[T]), nil
		}
	case KindTrie:
		if _, ok := any(*new(T)).(string); ok {
			d, err := unmarshalTrie(dec)
			if err != nil {
				return nil, err
			}
			return any(d).(Dictionary[T]), nil
		}
	}
	return nil, colerrors.Structural("dictionary kind %s invalid for %s column", Kind(kind), ColumnType(ct))
}

func (d *EmptyDictionary[T]) marshalPayload(*codec.Encoder) error { return nil }

func (d *ConstantDictionary[T]) marshalPayload(enc *codec.Encoder) error {
	writeValue(enc, d.value)
	return nil
}

func (d *ArrayDictionary[T]) marshalPayload(enc *codec.Encoder) error {
	return compression.MarshalArray(enc, d.keys)
}

func (d *TrieDictionary) marshalPayload(enc *codec.Encoder) error {
	enc.Uvarint(uint64(d.lastID))
	enc.String(d.firstValue)
	enc.String(d.lastValue)
	return enc.Child(func(e *codec.Encoder) error {
		return marshalNode(e, d.root)
	})
}

func marshalNode(enc *codec.Encoder, n TrieNode) error {
	switch node := n.(type) {
	case *TerminalNode:
		enc.Uvarint(nodeTerminal)
		enc.Uvarint(uint64(node.id))
	case *ParentNode:
		enc.Uvarint(nodeParent)
		enc.Uvarint(uint64(node.minID))
		enc.Uvarint(uint64(node.maxID))
		enc.Uvarint(uint64(len(node.keys)))
		for i, key := range node.keys {
			enc.String(key)
			child := node.children[i]
			if err := enc.Child(func(e *codec.Encoder) error { return marshalNode(e, child) }); err != nil {
				return err
			}
		}
	default:
		return colerrors.Structural("unknown trie node %T", n)
	}
	return nil
}

func unmarshalTrie(dec *codec.Decoder) (*TrieDictionary, error) {
	lastID, err := dec.Uvarint()
	if err != nil {
		return nil, err
	}
	first, err := dec.String()
	if err != nil {
		return nil, err
	}
	last, err := dec.String()
	if err != nil {
		return nil, err
	}
	var root TrieNode
	err = dec.Child(func(d *codec.Decoder) error {
		root, err = unmarshalNode(d)
		return err
	})
	if err != nil {
		return nil, err
	}
	// the constructor re-validates the whole structure
	return NewTrieDictionary(root, int64(lastID), first, last)
}

func unmarshalNode(dec *codec.Decoder) (TrieNode, error) {
	tag, err := dec.Uvarint()
	if err != nil {
		return nil, err
	}
	switch tag {
	case nodeTerminal:
		id, err := dec.Uvarint()
		if err != nil {
			return nil, err
		}
		return NewTerminalNode(int64(id)), nil
	case nodeParent:
		minID, err := dec.Uvarint()
		if err != nil {
			return nil, err
		}
		maxID, err := dec.Uvarint()
		if err != nil {
			return nil, err
		}
		n, err := dec.Count()
		if err != nil {
			return nil, err
		}
		p := &ParentNode{
			keys:     make([]string, n),
			children: make([]TrieNode, n),
			minID:    int64(minID),
			maxID:    int64(maxID),
		}
		for i := 0; i < n; i++ {
			if p.keys[i], err = dec.String(); err != nil {
				return nil, err
			}
			err = dec.Child(func(d *codec.Decoder) error {
				p.children[i], err = unmarshalNode(d)
				return err
			})
			if err != nil {
				return nil, err
			}
		}
		return p, nil
	default:
		return nil, colerrors.Structural("unknown trie node tag %d", tag)
	}
}

func writeValue[T Value](enc *codec.Encoder, v T) {
	switch x := any(v).(type) {
	case string:
		enc.String(x)
	case int64:
		enc.Varint(x)
	case float64:
		enc.Float64(x)
	}
}

func readValue[T Value](dec *codec.Decoder) (T, error) {
	var zero T
	var v any
	var err error
	switch any(zero).(type) {
	case string:
		v, err = dec.String()
	case int64:
		v, err = dec.Varint()
	case float64:
		v, err = dec.Float64()
	}
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}
