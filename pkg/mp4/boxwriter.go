package mp4

import (
	"mediamux/pkg/iowriter"
	"mediamux/pkg/muxerr"
)

// BoxWriter drives an iowriter.Writer with ISOBMFF-specific helpers: it
// can write a fully-measured Boxes subtree in one shot, or reserve an
// 8/16-byte header whose size is patched in once the caller knows how
// much content followed it. The latter is how the streaming layout
// writes mdat on a seekable target, before it knows the final size; on a
// non-seekable target the streaming layout uses WriteUnknownSizeHeader
// instead and never patches. The in-memory fast-start layout writes mdat
// with WriteBox, since every sample is already buffered by then.
type BoxWriter struct {
	w *iowriter.Writer
}

// NewBoxWriter wraps w.
func NewBoxWriter(w *iowriter.Writer) *BoxWriter {
	return &BoxWriter{w: w}
}

// Offset returns the writer's current absolute position, used to record
// chunk offsets for stco/co64 as samples are appended to mdat.
func (bw *BoxWriter) Offset() int64 { return bw.w.Pos() }

// Err returns the first error the underlying writer hit.
func (bw *BoxWriter) Err() error { return bw.w.Err() }

// WriteBox marshals a fully-measured Boxes subtree and writes it in one
// call. Every part of the moov tree is built this way: its full
// contents are known before any byte reaches the target.
func (bw *BoxWriter) WriteBox(tree *Boxes) {
	if bw.w.Err() != nil {
		return
	}
	buf := make([]byte, tree.Size())
	pos := 0
	tree.Marshal(buf, &pos)
	bw.w.Write(buf)
}

// WriteRaw writes data verbatim at the current position, advancing it.
// Used for sample bytes inside mdat, which never go through the Boxes
// tree.
func (bw *BoxWriter) WriteRaw(data []byte) {
	bw.w.Write(data)
}

// Reservation is a placeholder box header whose size field is not yet
// known.
type Reservation struct {
	headerOffset int64
	contentStart int64
	large        bool
	boxType      BoxType
}

// ReserveBox writes a zeroed box header (8 bytes, or 16 if large is
// true) for boxType and returns a Reservation recording where the size
// field lives. Only valid when the underlying target supports patching
// (BufferTarget, FileTarget); callers on a streaming target must use
// WriteUnknownSizeHeader instead.
func (bw *BoxWriter) ReserveBox(boxType BoxType, large bool) Reservation {
	headerOffset := bw.w.Pos()
	if large {
		bw.w.Write(make([]byte, largeHeaderSize))
	} else {
		bw.w.Write(make([]byte, smallHeaderSize))
	}
	return Reservation{
		headerOffset: headerOffset,
		contentStart: bw.w.Pos(),
		large:        large,
		boxType:      boxType,
	}
}

// PatchBox seeks back to r's header and fills in the real size now that
// the caller has finished writing the box's contents (the writer must
// currently sit at the end of those contents), then restores the
// writer to that end position.
func (bw *BoxWriter) PatchBox(r Reservation) {
	if bw.w.Err() != nil {
		return
	}
	end := bw.w.Pos()
	size := uint64(end - r.headerOffset)

	bw.w.Seek(r.headerOffset)
	if bw.w.Err() != nil {
		return
	}
	buf := make([]byte, r.contentStart-r.headerOffset)
	pos := 0
	if r.large {
		WriteUint32(buf, &pos, 1)
		Write(buf, &pos, r.boxType[:])
		WriteUint64(buf, &pos, size)
	} else {
		WriteUint32(buf, &pos, uint32(size))
		Write(buf, &pos, r.boxType[:])
	}
	bw.w.Write(buf)
	bw.w.Seek(end)
	bw.w.EnsureMonotonicity()
}

// WriteUnknownSizeHeader writes an 8-byte box header with size field 0,
// meaning "this box extends to the end of the file" per ISOBMFF §4.2.
// This is how the streaming layout writes its single mdat on a
// non-seekable target: no patch is ever needed.
func (bw *BoxWriter) WriteUnknownSizeHeader(boxType BoxType) {
	buf := make([]byte, smallHeaderSize)
	pos := 0
	WriteUint32(buf, &pos, 0)
	Write(buf, &pos, boxType[:])
	bw.w.Write(buf)
}

// Finalize flushes and closes the underlying target.
func (bw *BoxWriter) Finalize() error {
	if err := bw.w.Err(); err != nil {
		return muxerr.Wrap(muxerr.InternalInvariant, err, "box writer")
	}
	return bw.w.Finalize()
}
