// Package codec is the recursive child serialization helper used by
// dictionaries, column shards and table shards. Values are written in a fixed
// order with protobuf wire primitives; nested objects are length-delimited
// children so a decoder can verify it consumed each child completely.
package codec

import (
	"math"

	"github.com/soltixdb/columnstore/internal/colerrors"
	"google.golang.org/protobuf/encoding/protowire"
)

// Encoder appends wire primitives to a buffer
type Encoder struct {
	buf []byte
}

// NewEncoder creates an encoder with the given initial capacity
func NewEncoder(capacity int) *Encoder {
	return &Encoder{buf: make([]byte, 0, capacity)}
}

// Bytes returns the encoded buffer
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes written so far
func (e *Encoder) Len() int {
	return len(e.buf)
}

// Uvarint writes an unsigned varint
func (e *Encoder) Uvarint(v uint64) {
	e.buf = protowire.AppendVarint(e.buf, v)
}

// Varint writes a zigzag-encoded signed varint
func (e *Encoder) Varint(v int64) {
	e.buf = protowire.AppendVarint(e.buf, protowire.EncodeZigZag(v))
}

// Bool writes a boolean as a single varint byte
func (e *Encoder) Bool(v bool) {
	e.buf = protowire.AppendVarint(e.buf, protowire.EncodeBool(v))
}

// Float64 writes a fixed 8-byte float
func (e *Encoder) Float64(v float64) {
	e.buf = protowire.AppendFixed64(e.buf, math.Float64bits(v))
}

// String writes a length-delimited string
func (e *Encoder) String(s string) {
	e.buf = protowire.AppendString(e.buf, s)
}

// Raw writes a length-delimited byte slice
func (e *Encoder) Raw(b []byte) {
	e.buf = protowire.AppendBytes(e.buf, b)
}

// Int64s writes a count followed by zigzag varints
func (e *Encoder) Int64s(values []int64) {
	e.Uvarint(uint64(len(values)))
	for _, v := range values {
		e.Varint(v)
	}
}

// Child serializes a nested object as a length-delimited block
func (e *Encoder) Child(fn func(*Encoder) error) error {
	sub := &Encoder{}
	if err := fn(sub); err != nil {
		return err
	}
	e.buf = protowire.AppendBytes(e.buf, sub.buf)
	return nil
}

// Decoder consumes wire primitives in the order they were written
type Decoder struct {
	buf []byte
}

// NewDecoder creates a decoder over data
func NewDecoder(data []byte) *Decoder {
	return &Decoder{buf: data}
}

// Remaining returns the number of unread bytes
func (d *Decoder) Remaining() int {
	return len(d.buf)
}

func malformed(what string, n int) error {
	return colerrors.Wrap(protowire.ParseError(n), colerrors.CodeStructural, "malformed "+what)
}

// Uvarint reads an unsigned varint
func (d *Decoder) Uvarint() (uint64, error) {
	v, n := protowire.ConsumeVarint(d.buf)
	if n < 0 {
		return 0, malformed("varint", n)
	}
	d.buf = d.buf[n:]
	return v, nil
}

// Varint reads a zigzag-encoded signed varint
func (d *Decoder) Varint() (int64, error) {
	v, err := d.Uvarint()
	if err != nil {
		return 0, err
	}
	return protowire.DecodeZigZag(v), nil
}

// Bool reads a boolean
func (d *Decoder) Bool() (bool, error) {
	v, err := d.Uvarint()
	if err != nil {
		return false, err
	}
	return protowire.DecodeBool(v), nil
}

// Float64 reads a fixed 8-byte float
func (d *Decoder) Float64() (float64, error) {
	v, n := protowire.ConsumeFixed64(d.buf)
	if n < 0 {
		return 0, malformed("fixed64", n)
	}
	d.buf = d.buf[n:]
	return math.Float64frombits(v), nil
}

// String reads a length-delimited string
func (d *Decoder) String() (string, error) {
	v, n := protowire.ConsumeString(d.buf)
	if n < 0 {
		return "", malformed("string", n)
	}
	d.buf = d.buf[n:]
	return v, nil
}

// Raw reads a length-delimited byte slice. The result aliases the input.
func (d *Decoder) Raw() ([]byte, error) {
	v, n := protowire.ConsumeBytes(d.buf)
	if n < 0 {
		return nil, malformed("bytes", n)
	}
	d.buf = d.buf[n:]
	return v, nil
}

// Count reads an element count. Every element takes at least one byte, so a
// count larger than the remaining input is rejected before any allocation.
func (d *Decoder) Count() (int, error) {
	v, err := d.Uvarint()
	if err != nil {
		return 0, err
	}
	if v > uint64(len(d.buf)) {
		return 0, colerrors.Structural("malformed count %d with %d bytes left", v, len(d.buf))
	}
	return int(v), nil
}

// Int64s reads values written by Encoder.Int64s
func (d *Decoder) Int64s() ([]int64, error) {
	n, err := d.Count()
	if err != nil {
		return nil, err
	}
	values := make([]int64, n)
	for i := range values {
		if values[i], err = d.Varint(); err != nil {
			return nil, err
		}
	}
	return values, nil
}

// Child decodes a nested object written by Encoder.Child. The child must
// consume its block exactly.
func (d *Decoder) Child(fn func(*Decoder) error) error {
	block, err := d.Raw()
	if err != nil {
		return err
	}
	sub := NewDecoder(block)
	if err := fn(sub); err != nil {
		return err
	}
	return sub.Done()
}

// Done fails if unread bytes remain
func (d *Decoder) Done() error {
	if len(d.buf) != 0 {
		return colerrors.Structural("%d trailing bytes after decode", len(d.buf))
	}
	return nil
}
