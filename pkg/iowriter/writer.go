package iowriter

import (
	"mediamux/pkg/muxerr"
)

// Writer is a seekable cursor over a Target. It accumulates the first
// error any operation hits (the teacher's sticky-error idiom) so a long
// chain of Write/Seek calls during box assembly can skip individual
// error checks and be verified once at the end with Err.
type Writer struct {
	target Target
	pos    int64
	high   int64 // highest offset ever written, for Slice bounds and EnsureMonotonicity
	err    error
}

// New wraps target in a Writer positioned at offset 0.
func New(target Target) *Writer {
	return &Writer{target: target}
}

// Err returns the first error encountered by any Write/Seek/Flush call,
// or nil if none occurred yet.
func (w *Writer) Err() error { return w.err }

// Pos returns the writer's current logical offset.
func (w *Writer) Pos() int64 { return w.pos }

// Write writes data at the current position and advances it. Once Err
// is non-nil, Write is a no-op so callers can chain writes without
// checking each one.
func (w *Writer) Write(data []byte) {
	if w.err != nil || len(data) == 0 {
		return
	}
	if err := w.target.WriteAt(w.pos, data); err != nil {
		w.err = err
		return
	}
	w.pos += int64(len(data))
	if w.pos > w.high {
		w.high = w.pos
	}
}

// Seek moves the writer to an absolute offset, for patching a
// previously-written placeholder (box size, sample table length). It is
// only valid for a Target whose Seekable() is true, or for offsets at
// or beyond the writer's current high-water mark (plain forward
// seeking within a target that has not flushed yet does not apply
// here, since every Target implementation here is append-style up to
// high); attempting to seek backward on a non-seekable target is a
// muxerr.LifecycleMisuse, since those bytes have already left the
// process.
func (w *Writer) Seek(offset int64) {
	if w.err != nil {
		return
	}
	if offset < w.pos && !w.target.Seekable() {
		w.err = muxerr.New(muxerr.LifecycleMisuse,
			"cannot seek backward to %d on a non-seekable target (at %d)", offset, w.pos)
		return
	}
	w.pos = offset
}

// EnsureMonotonicity asserts the writer's position has not regressed
// past what was already flushed to a non-seekable target; callers that
// finished a patch-back sequence call this before resuming forward
// writes to catch a missed Seek back to the high-water mark.
func (w *Writer) EnsureMonotonicity() {
	if w.err != nil {
		return
	}
	if w.pos < w.high && !w.target.Seekable() {
		w.err = muxerr.New(muxerr.InternalInvariant,
			"writer position %d fell behind high-water mark %d on a non-seekable target", w.pos, w.high)
	}
}

// Flush does nothing: Writer holds no buffer of its own, and the call is
// not forwarded to the Target. A chunked StreamTarget's partial chunk is
// sent only by Finalize; the other Target implementations write
// synchronously on every WriteAt.
func (w *Writer) Flush() {}

// Finalize flushes any pending bytes and tells the Target muxing is
// complete.
func (w *Writer) Finalize() error {
	if w.err != nil {
		return w.err
	}
	return w.target.Finalize()
}

// Slice returns true if [offset, offset+length) has already been
// written at least once, i.e. it is safe to Seek there and patch it.
// It does not read bytes back; Target implementations here are
// write-only.
func (w *Writer) Slice(offset, length int64) bool {
	return offset >= 0 && offset+length <= w.high
}
