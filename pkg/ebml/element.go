package ebml

import "math"

// masterSizeWidth is the byte width reserved for a master element's
// size field (SeekHead/Segment/Info/Tracks/TrackEntry/Cluster/...): a
// fixed 4 bytes, wide enough for any realistic file, so those elements
// can always be measured and written in one pass without having to
// first know their own content length, matching spec.md's "reserve 4
// bytes, or 1 for unknown size" rule.
const masterSizeWidth = 4

// Value is the payload of a leaf element: one of UInt, SInt, ASCII,
// Binary, Float32Value or Float64Value.
type Value interface {
	Size() int
	Marshal(buf []byte, pos *int)
}

// UInt is a big-endian unsigned integer value, encoded in the minimal
// number of bytes that hold it (at least 1).
type UInt uint64

// Size returns the minimal byte width needed to represent the value.
func (v UInt) Size() int {
	n := 1
	x := uint64(v)
	for x > 0xFF {
		x >>= 8
		n++
	}
	return n
}

// Marshal writes the value big-endian in Size() bytes.
func (v UInt) Marshal(buf []byte, pos *int) {
	w := v.Size()
	x := uint64(v)
	for i := w - 1; i >= 0; i-- {
		buf[*pos+i] = byte(x)
		x >>= 8
	}
	*pos += w
}

// SInt is a signed integer, encoded as its two's-complement bit pattern
// in the minimal number of bytes that represent it without ambiguity
// (i.e. the sign bit of the top byte matches the value's sign).
type SInt int64

// Size returns the minimal two's-complement byte width.
func (v SInt) Size() int {
	x := int64(v)
	n := 1
	for {
		top := x >> (8*uint(n) - 1)
		if top == 0 || top == -1 {
			return n
		}
		n++
	}
}

// Marshal writes the two's-complement value in Size() bytes.
func (v SInt) Marshal(buf []byte, pos *int) {
	w := v.Size()
	x := uint64(v)
	for i := w - 1; i >= 0; i-- {
		buf[*pos+i] = byte(x)
		x >>= 8
	}
	*pos += w
}

// ASCII is a plain-text string value written verbatim, no terminator.
type ASCII string

// Size returns the string length in bytes.
func (v ASCII) Size() int { return len(v) }

// Marshal writes the string bytes.
func (v ASCII) Marshal(buf []byte, pos *int) {
	*pos += copy(buf[*pos:], v)
}

// Binary is an opaque byte string, e.g. codec private data or a block
// payload, written verbatim.
type Binary []byte

// Size returns len(v).
func (v Binary) Size() int { return len(v) }

// Marshal writes the bytes verbatim.
func (v Binary) Marshal(buf []byte, pos *int) {
	*pos += copy(buf[*pos:], v)
}

// Float32Value is a 4-byte IEEE-754 float.
type Float32Value float32

// Size is always 4.
func (Float32Value) Size() int { return 4 }

// Marshal writes the value big-endian.
func (v Float32Value) Marshal(buf []byte, pos *int) {
	bits := math.Float32bits(float32(v))
	buf[*pos] = byte(bits >> 24)
	buf[*pos+1] = byte(bits >> 16)
	buf[*pos+2] = byte(bits >> 8)
	buf[*pos+3] = byte(bits)
	*pos += 4
}

// FixedUInt is a big-endian unsigned integer padded out to an explicit
// byte width rather than the minimal one UInt would choose, so its
// payload offset is known before the value itself is: used for
// SeekHead's SeekPos entries and Info's Duration, which are written as
// zeroed placeholders at Start and patched once the real position or
// duration is known (the same reserve-then-patch shape ReserveElement
// gives master elements, applied to a leaf value).
type FixedUInt struct {
	V uint64
	W int
}

// Size returns the fixed width W.
func (f FixedUInt) Size() int { return f.W }

// Marshal writes V big-endian in exactly W bytes.
func (f FixedUInt) Marshal(buf []byte, pos *int) {
	x := f.V
	for i := f.W - 1; i >= 0; i-- {
		buf[*pos+i] = byte(x)
		x >>= 8
	}
	*pos += f.W
}

// Float64Value is an 8-byte IEEE-754 float.
type Float64Value float64

// Size is always 8.
func (Float64Value) Size() int { return 8 }

// Marshal writes the value big-endian.
func (v Float64Value) Marshal(buf []byte, pos *int) {
	bits := math.Float64bits(float64(v))
	for i := 0; i < 8; i++ {
		buf[*pos+i] = byte(bits >> uint(56-8*i))
	}
	*pos += 8
}

// Element is one EBML element: either a leaf carrying a Value, or a
// master element carrying Children (Value is ignored when Children is
// non-empty, mirroring pkg/mp4.Boxes's nil-children convention).
type Element struct {
	ID       uint32
	Value    Value
	Children []*Element

	// Unknown marks a top-level master element (Segment, Cluster in
	// streamable mode) whose size is never written, per the §6.3
	// streamable-mode rule. Such an element must not be measured or
	// marshaled through this in-memory path; it is only ever written
	// incrementally through Writer.
	Unknown bool
}

// Size returns the element's total encoded size: ID, size field, and
// content (recursively, for a master element).
func (e *Element) Size() int {
	idW := idWidth(e.ID)
	if e.Unknown {
		return idW + 1
	}
	if len(e.Children) > 0 {
		return idW + masterSizeWidth + e.contentSize()
	}
	content := 0
	if e.Value != nil {
		content = e.Value.Size()
	}
	return idW + varintWidth(uint64(content)) + content
}

func (e *Element) contentSize() int {
	total := 0
	for _, c := range e.Children {
		if c == nil {
			continue
		}
		total += c.Size()
	}
	return total
}

// Marshal writes the element, header and content, to buf at *pos.
func (e *Element) Marshal(buf []byte, pos *int) {
	idW := idWidth(e.ID)
	encodeID(buf, pos, e.ID, idW)

	if e.Unknown {
		encodeUnknownSize(buf, pos)
		for _, c := range e.Children {
			if c == nil {
				continue
			}
			c.Marshal(buf, pos)
		}
		return
	}

	if len(e.Children) > 0 {
		encodeVarInt(buf, pos, uint64(e.contentSize()), masterSizeWidth)
		for _, c := range e.Children {
			if c == nil {
				continue
			}
			c.Marshal(buf, pos)
		}
		return
	}

	content := 0
	if e.Value != nil {
		content = e.Value.Size()
	}
	encodeVarInt(buf, pos, uint64(content), varintWidth(uint64(content)))
	if e.Value != nil {
		e.Value.Marshal(buf, pos)
	}
}

// UIntElement builds a leaf UInt element.
func UIntElement(id uint32, v uint64) *Element { return &Element{ID: id, Value: UInt(v)} }

// SIntElement builds a leaf SInt element.
func SIntElement(id uint32, v int64) *Element { return &Element{ID: id, Value: SInt(v)} }

// ASCIIElement builds a leaf ASCII string element.
func ASCIIElement(id uint32, v string) *Element { return &Element{ID: id, Value: ASCII(v)} }

// BinaryElement builds a leaf opaque-bytes element.
func BinaryElement(id uint32, v []byte) *Element { return &Element{ID: id, Value: Binary(v)} }

// Float32Element builds a leaf 4-byte float element.
func Float32Element(id uint32, v float32) *Element {
	return &Element{ID: id, Value: Float32Value(v)}
}

// Float64Element builds a leaf 8-byte float element.
func Float64Element(id uint32, v float64) *Element {
	return &Element{ID: id, Value: Float64Value(v)}
}

// MasterElement builds a container element from its children. A nil
// entry in children is skipped at Size/Marshal time.
func MasterElement(id uint32, children ...*Element) *Element {
	return &Element{ID: id, Children: children}
}

// FixedUIntElement builds a leaf UInt element padded to an explicit
// width bytes, for a value that will be patched in place later.
func FixedUIntElement(id uint32, v uint64, width int) *Element {
	return &Element{ID: id, Value: FixedUInt{V: v, W: width}}
}

// IDWidth returns how many bytes id occupies on the wire (its class
// width marker bits are already baked into the numeric constant).
func IDWidth(id uint32) int { return idWidth(id) }

// EncodeID returns id's big-endian encoding at its natural width, the
// form SeekID stores a target element's ID in.
func EncodeID(id uint32) []byte {
	w := idWidth(id)
	buf := make([]byte, w)
	pos := 0
	encodeID(buf, &pos, id, w)
	return buf
}
