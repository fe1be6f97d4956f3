package mp4

import (
	"encoding/binary"
)

// Write writes len(p) bytes.
func Write(buf []byte, pos *int, p []byte) {
	*pos += copy(buf[*pos:], p)
}

// WriteByte writes 1 byte.
func WriteByte(buf []byte, pos *int, byt byte) {
	buf[*pos] = byt
	*pos++
}

// WriteUint16 writes 16 bits, big-endian.
func WriteUint16(buf []byte, pos *int, r uint16) {
	binary.BigEndian.PutUint16(buf[*pos:], r)
	*pos += 2
}

// WriteUint24 writes the low 24 bits of r, big-endian.
func WriteUint24(buf []byte, pos *int, r uint32) {
	buf[*pos] = byte(r >> 16)
	buf[*pos+1] = byte(r >> 8)
	buf[*pos+2] = byte(r)
	*pos += 3
}

// WriteUint32 writes 32 bits, big-endian.
func WriteUint32(buf []byte, pos *int, r uint32) {
	binary.BigEndian.PutUint32(buf[*pos:], r)
	*pos += 4
}

// WriteUint64 writes 64 bits, big-endian.
func WriteUint64(buf []byte, pos *int, r uint64) {
	binary.BigEndian.PutUint64(buf[*pos:], r)
	*pos += 8
}

// WriteInt16 writes a signed 16-bit integer, big-endian.
func WriteInt16(buf []byte, pos *int, r int16) {
	WriteUint16(buf, pos, uint16(r))
}

// WriteInt32 writes a signed 32-bit integer, big-endian.
func WriteInt32(buf []byte, pos *int, r int32) {
	WriteUint32(buf, pos, uint32(r))
}

// WriteString writes str followed by a terminating NUL byte.
func WriteString(buf []byte, pos *int, str string) {
	Write(buf, pos, []byte(str))
	WriteByte(buf, pos, 0x00) // null character
}

// WriteFixed88 writes a signed 8.8 fixed-point number.
func WriteFixed88(buf []byte, pos *int, v float64) {
	WriteInt16(buf, pos, int16(v*256))
}

// WriteFixed1616 writes an unsigned 16.16 fixed-point number.
func WriteFixed1616(buf []byte, pos *int, v float64) {
	WriteUint32(buf, pos, uint32(v*65536))
}

// WriteFixed0230 writes a signed 2.30 fixed-point number, used by the
// third entry of each row of an ISOBMFF transformation matrix.
func WriteFixed0230(buf []byte, pos *int, v float64) {
	WriteInt32(buf, pos, int32(v*1073741824))
}

// VarIntSize returns the number of bytes WriteVarInt would use to encode
// v, padded up to at least minBytes groups.
func VarIntSize(v uint64, minBytes int) int {
	n := 1
	for rest := v >> 7; rest > 0; rest >>= 7 {
		n++
	}
	if n < minBytes {
		n = minBytes
	}
	return n
}

// WriteVarInt writes v as a base-128 variable-length integer: every byte
// but the last has its high bit set. minBytes pads the encoding with
// leading zero groups so the width is predictable, as required by the
// MPEG-4 descriptor length fields used in esds.
func WriteVarInt(buf []byte, pos *int, v uint64, minBytes int) {
	n := VarIntSize(v, minBytes)
	for i := n - 1; i >= 0; i-- {
		b := byte(v>>(uint(i)*7)) & 0x7f
		if i != 0 {
			b |= 0x80
		}
		WriteByte(buf, pos, b)
	}
}

// IdentityMatrix is the ISOBMFF unity transformation matrix.
var IdentityMatrix = [9]int32{1 << 16, 0, 0, 0, 1 << 16, 0, 0, 0, 1 << 30}

// RotationMatrix returns the 9-element ISOBMFF transformation matrix for a
// clockwise rotation of degrees (0, 90, 180 or 270); all entries are
// fixed-16.16 except the third entry of each row, which is fixed-2.30.
func RotationMatrix(degrees int) [9]int32 {
	switch degrees {
	case 90:
		return [9]int32{0, 1 << 16, 0, -(1 << 16), 0, 0, 0, 0, 1 << 30}
	case 180:
		return [9]int32{-(1 << 16), 0, 0, 0, -(1 << 16), 0, 0, 0, 1 << 30}
	case 270:
		return [9]int32{0, -(1 << 16), 0, 1 << 16, 0, 0, 0, 0, 1 << 30}
	default:
		return IdentityMatrix
	}
}
