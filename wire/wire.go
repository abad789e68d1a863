// Package wire implements the length-checked byte-stream primitives shared
// by every codec in this module (tlv, lldp, alme, cmdu): extract/insert of
// u8/u16/u32/fixed-size groups/MACs, each advancing a cursor and decrementing
// a remaining-length counter, failing cleanly without advancing on underflow.
//
// Grounded on common/interfaces/packet_tools.h (_E1BL/_I1BL/_E2BL/_I2BL/
// _E4BL/_I4BL/_EnBL/_InBL/_EmBL/_ImBL) from the original source.
package wire

import "encoding/binary"

// NetworkOrder is the byte order used on the wire by every codec in this
// module. The 1905 wire format is always big-endian; this is exposed as a
// value (not hardcoded at each call site) so the intent reads the same way
// the original's compile-time endianness selector did.
var NetworkOrder = binary.BigEndian

// MACLen is the length in bytes of a 48-bit MAC address.
const MACLen = 6

// MAC is a 48-bit hardware address.
type MAC [MACLen]byte

// IsZero reports whether mac is the all-zero address.
func (m MAC) IsZero() bool {
	return m == MAC{}
}

// String renders the MAC in colon-separated hex, e.g. "02:00:00:00:00:01".
func (m MAC) String() string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 0, 17)
	for i, b := range m {
		if i > 0 {
			buf = append(buf, ':')
		}
		buf = append(buf, hexDigits[b>>4], hexDigits[b&0xf])
	}
	return string(buf)
}

// Reader walks a byte slice front-to-back, failing cleanly (returning false,
// leaving the cursor untouched) when a read would run past the end.
type Reader struct {
	buf []byte
}

// NewReader wraps buf for sequential reads.
func NewReader(buf []byte) *Reader { return &Reader{buf: buf} }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) }

// Bytes returns the unread tail of the buffer, without consuming it.
func (r *Reader) Bytes() []byte { return r.buf }

// U8 reads one byte.
func (r *Reader) U8() (byte, bool) {
	if len(r.buf) < 1 {
		return 0, false
	}
	v := r.buf[0]
	r.buf = r.buf[1:]
	return v, true
}

// U16 reads a big-endian uint16.
func (r *Reader) U16() (uint16, bool) {
	if len(r.buf) < 2 {
		return 0, false
	}
	v := NetworkOrder.Uint16(r.buf)
	r.buf = r.buf[2:]
	return v, true
}

// U32 reads a big-endian uint32.
func (r *Reader) U32() (uint32, bool) {
	if len(r.buf) < 4 {
		return 0, false
	}
	v := NetworkOrder.Uint32(r.buf)
	r.buf = r.buf[4:]
	return v, true
}

// N reads n raw bytes (endianness-agnostic), returning a fresh copy.
func (r *Reader) N(n int) ([]byte, bool) {
	if len(r.buf) < n {
		return nil, false
	}
	v := make([]byte, n)
	copy(v, r.buf[:n])
	r.buf = r.buf[n:]
	return v, true
}

// MAC reads a 6-byte MAC address.
func (r *Reader) MAC() (MAC, bool) {
	if len(r.buf) < MACLen {
		return MAC{}, false
	}
	var m MAC
	copy(m[:], r.buf[:MACLen])
	r.buf = r.buf[MACLen:]
	return m, true
}

// Skip discards n bytes, failing cleanly like the other readers.
func (r *Reader) Skip(n int) bool {
	if len(r.buf) < n {
		return false
	}
	r.buf = r.buf[n:]
	return true
}

// Writer accumulates bytes for forging.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer, optionally pre-sizing its backing array.
func NewWriter(sizeHint int) *Writer {
	return &Writer{buf: make([]byte, 0, sizeHint)}
}

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// U8 appends one byte.
func (w *Writer) U8(v byte) { w.buf = append(w.buf, v) }

// U16 appends a big-endian uint16.
func (w *Writer) U16(v uint16) {
	var b [2]byte
	NetworkOrder.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// U32 appends a big-endian uint32.
func (w *Writer) U32(v uint32) {
	var b [4]byte
	NetworkOrder.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// N appends raw bytes verbatim.
func (w *Writer) N(b []byte) { w.buf = append(w.buf, b...) }

// MAC appends a 6-byte MAC address.
func (w *Writer) MAC(m MAC) { w.buf = append(w.buf, m[:]...) }
