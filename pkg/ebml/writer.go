package ebml

import (
	"mediamux/pkg/iowriter"
	"mediamux/pkg/muxerr"
)

// Writer drives an iowriter.Writer with EBML-specific reserve-and-patch
// support for master elements whose size is not measured before being
// written: Segment and Cluster, whose content grows incrementally as
// blocks stream in, and the SeekHead/Seek/Info headers pkg/mkvmux writes
// the same way. It plays the role pkg/mp4.BoxWriter plays for mdat.
type Writer struct {
	w   *iowriter.Writer
	err error
}

// NewWriter wraps w.
func NewWriter(w *iowriter.Writer) *Writer { return &Writer{w: w} }

// Offset returns the writer's current absolute position.
func (ew *Writer) Offset() int64 { return ew.w.Pos() }

// Err returns the first error encountered, from either the underlying
// Writer or an ebml-level invariant (e.g. a reserved size field that
// turned out to be too narrow).
func (ew *Writer) Err() error {
	if ew.err != nil {
		return ew.err
	}
	return ew.w.Err()
}

// WriteElement marshals a fully-measured Element tree and writes it in
// one call. Every element except the reserved masters (Segment, Cluster,
// SeekHead, Seek, Info) is built this way.
func (ew *Writer) WriteElement(e *Element) {
	if ew.w.Err() != nil {
		return
	}
	buf := make([]byte, e.Size())
	pos := 0
	e.Marshal(buf, &pos)
	ew.w.Write(buf)
}

// WriteRaw writes data verbatim, e.g. a pre-encoded block.
func (ew *Writer) WriteRaw(data []byte) {
	ew.w.Write(data)
}

// Reservation records where a reserved master-element header's size
// field lives, for a later PatchElementSize call.
type Reservation struct {
	headerOffset int64
	contentStart int64
	id           uint32
}

// ReserveElement writes id's ID bytes plus a 4-byte zeroed size
// placeholder and returns a Reservation. Used for Segment and Cluster
// when streamable mode is off: their content is written incrementally
// as blocks arrive, then the size is patched in at finalize (Segment)
// or when the next Cluster opens (Cluster). pkg/mkvmux also uses it in
// every mode for SeekHead, its Seek entries and Info, patching each
// right after its content is written.
func (ew *Writer) ReserveElement(id uint32) Reservation {
	headerOffset := ew.w.Pos()
	idW := idWidth(id)
	buf := make([]byte, idW+masterSizeWidth)
	pos := 0
	encodeID(buf, &pos, id, idW)
	ew.w.Write(buf)
	return Reservation{headerOffset: headerOffset, contentStart: ew.w.Pos(), id: id}
}

// WriteUnknownSizeHeader writes id's ID bytes followed by the single
// 0xFF unknown-size marker, for Segment/Cluster in streamable mode.
// This element is never patched.
func (ew *Writer) WriteUnknownSizeHeader(id uint32) {
	idW := idWidth(id)
	buf := make([]byte, idW+1)
	pos := 0
	encodeID(buf, &pos, id, idW)
	encodeUnknownSize(buf, &pos)
	ew.w.Write(buf)
}

// PatchElementSize seeks back to r's size field and fills in the
// content length now that the writer sits at the end of that content,
// then restores the writer's position. Only valid on a seekable target.
func (ew *Writer) PatchElementSize(r Reservation) {
	if ew.Err() != nil {
		return
	}
	end := ew.w.Pos()
	size := uint64(end - r.contentStart)
	if size >= (uint64(1)<<(7*masterSizeWidth))-1 {
		ew.err = muxerr.New(muxerr.InternalInvariant,
			"ebml element id %#x exceeded the 4-byte reserved size field (%d bytes)", r.id, size)
		return
	}

	ew.w.Seek(r.contentStart - masterSizeWidth)
	if ew.w.Err() != nil {
		return
	}
	buf := make([]byte, masterSizeWidth)
	pos := 0
	encodeVarInt(buf, &pos, size, masterSizeWidth)
	ew.w.Write(buf)
	ew.w.Seek(end)
	ew.w.EnsureMonotonicity()
}

// PatchUint64At overwrites an already-written 8-byte big-endian field
// (a FixedUIntElement placeholder's payload) once its true value is
// known, e.g. a SeekHead SeekPos once the element it points to has been
// written. offset is the absolute position of the payload's first byte,
// not the element's header.
func (ew *Writer) PatchUint64At(offset int64, v uint64) {
	ew.patchRawAt(offset, func(buf []byte) {
		x := v
		for i := 7; i >= 0; i-- {
			buf[i] = byte(x)
			x >>= 8
		}
	})
}

// PatchFloat64At overwrites an already-written 8-byte Float64Value
// payload (e.g. Info's Duration placeholder) with v's true value.
func (ew *Writer) PatchFloat64At(offset int64, v float64) {
	ew.patchRawAt(offset, func(buf []byte) {
		pos := 0
		Float64Value(v).Marshal(buf, &pos)
	})
}

func (ew *Writer) patchRawAt(offset int64, fill func(buf []byte)) {
	if ew.Err() != nil {
		return
	}
	cur := ew.w.Pos()
	ew.w.Seek(offset)
	buf := make([]byte, 8)
	fill(buf)
	ew.w.Write(buf)
	ew.w.Seek(cur)
	ew.w.EnsureMonotonicity()
}

// Finalize flushes and closes the underlying target.
func (ew *Writer) Finalize() error {
	if err := ew.w.Err(); err != nil {
		return muxerr.Wrap(muxerr.InternalInvariant, err, "ebml writer")
	}
	return ew.w.Finalize()
}
