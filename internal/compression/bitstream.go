package compression

// BitWriter writes bits MSB-first into a byte buffer.
// Used by the bit-packed array backend.
type BitWriter struct {
	buf     []byte
	current byte  // current byte being filled
	bitPos  uint8 // bits written in current byte (0-7)
}

// NewBitWriter creates a BitWriter with the given initial capacity in bytes.
func NewBitWriter(capacity int) *BitWriter {
	return &BitWriter{
		buf: make([]byte, 0, capacity),
	}
}

// WriteBits writes the lowest nbits bits of val (MSB first). nbits must be <= 64.
func (w *BitWriter) WriteBits(val uint64, nbits uint8) {
	remaining := nbits
	for remaining > 0 {
		bitsAvail := 8 - w.bitPos
		if remaining >= bitsAvail {
			// Fill the rest of the current byte
			shift := remaining - bitsAvail
			w.current |= byte(val >> shift)
			if shift < 64 {
				val &= (1 << shift) - 1
			}
			remaining -= bitsAvail
			w.buf = append(w.buf, w.current)
			w.current = 0
			w.bitPos = 0
		} else {
			shift := bitsAvail - remaining
			w.current |= byte(val << shift)
			w.bitPos += remaining
			remaining = 0
		}
	}
}

// Bytes returns the final byte buffer, flushing any partial byte.
func (w *BitWriter) Bytes() []byte {
	if w.bitPos > 0 {
		return append(w.buf, w.current)
	}
	return w.buf
}

// BitLen returns total number of bits written.
func (w *BitWriter) BitLen() int {
	return len(w.buf)*8 + int(w.bitPos)
}

// BitReader reads bits MSB-first from a byte buffer.
type BitReader struct {
	data    []byte
	byteOff int   // current byte offset
	bitOff  uint8 // current bit offset within byte (0-7)
}

// NewBitReader creates a BitReader over the given data.
func NewBitReader(data []byte) *BitReader {
	return &BitReader{data: data}
}

// bitReaderAt returns a reader positioned at an absolute bit offset.
func bitReaderAt(data []byte, bit uint64) BitReader {
	return BitReader{data: data, byteOff: int(bit / 8), bitOff: uint8(bit % 8)}
}

// ReadBits reads nbits bits and returns them right-aligned in a uint64.
// nbits must be <= 64. Returns ok=false if not enough data.
func (r *BitReader) ReadBits(nbits uint8) (uint64, bool) {
	var val uint64
	remaining := nbits
	for remaining > 0 {
		if r.byteOff >= len(r.data) {
			return 0, false
		}
		bitsAvail := 8 - r.bitOff
		if remaining >= bitsAvail {
			mask := byte((1 << bitsAvail) - 1)
			val = (val << bitsAvail) | uint64(r.data[r.byteOff]&mask)
			remaining -= bitsAvail
			r.bitOff = 0
			r.byteOff++
		} else {
			shift := bitsAvail - remaining
			mask := byte((1 << remaining) - 1)
			val = (val << remaining) | uint64((r.data[r.byteOff]>>shift)&mask)
			r.bitOff += remaining
			remaining = 0
		}
	}
	return val, true
}
