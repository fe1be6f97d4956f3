// Package iowriter implements the seekable byte sink mediamux writes
// muxed containers through: a Writer on top of a pluggable Target.
package iowriter

import (
	"fmt"
	"os"

	"mediamux/pkg/muxerr"
)

// Target is the sink a Writer flushes bytes into. WriteAt's offset is
// always absolute from the start of the output. Implementations that
// cannot seek (StreamTarget, WebSocketTarget) only ever see offsets
// equal to the next expected position; anything else is a
// muxerr.InternalInvariant, since it means the caller tried to patch a
// byte range that has already left the process.
type Target interface {
	WriteAt(offset int64, data []byte) error
	// Seekable reports whether WriteAt may be called with an offset
	// below the highest offset already written (random access).
	Seekable() bool
	Finalize() error
}

// BufferTarget accumulates the entire output in memory, growing as
// needed, and supports writing (patching) at any offset already within
// bounds. This is the target for the in-memory fast-start layout.
type BufferTarget struct {
	buf []byte
}

// NewBufferTarget returns an empty BufferTarget.
func NewBufferTarget() *BufferTarget { return &BufferTarget{} }

// WriteAt writes data at offset, growing the buffer if needed.
func (t *BufferTarget) WriteAt(offset int64, data []byte) error {
	end := offset + int64(len(data))
	if end > int64(len(t.buf)) {
		grown := make([]byte, end)
		copy(grown, t.buf)
		t.buf = grown
	}
	copy(t.buf[offset:end], data)
	return nil
}

// Seekable always returns true: the whole output lives in memory.
func (t *BufferTarget) Seekable() bool { return true }

// Finalize is a no-op; Bytes is already authoritative.
func (t *BufferTarget) Finalize() error { return nil }

// Bytes returns the accumulated output.
func (t *BufferTarget) Bytes() []byte { return t.buf }

// Default chunk sizing for a chunked StreamTarget, matching the teacher's
// convention of a generous but bounded in-flight window.
const (
	DefaultChunkSize   = 1 << 24 // 16 MiB
	MinChunkSize       = 1024
	MaxChunksInFlight  = 2
)

// OnChunk is called once a chunk has filled (or Finalize forces a
// partial flush) with its absolute start offset and bytes.
type OnChunk func(offset int64, data []byte) error

// StreamTarget forwards flushed bytes to a callback, either immediately
// (chunkSize == 0, "unchunked" mode, one call per Write) or batched into
// fixed-size chunks, each forwarded as soon as it fills; Finalize
// forwards the last partial chunk. Every write must start exactly where
// the previous one ended, so no patching is possible, not even inside
// the chunk currently being filled.
type StreamTarget struct {
	onChunk   OnChunk
	chunkSize int64
	next      int64 // offset the target expects to see next
	pending   []byte
	pendingAt int64
}

// NewStreamTarget returns an unchunked StreamTarget: every WriteAt call
// is forwarded to onChunk immediately.
func NewStreamTarget(onChunk OnChunk) *StreamTarget {
	return &StreamTarget{onChunk: onChunk}
}

// NewChunkedStreamTarget returns a StreamTarget that batches writes into
// chunkSize-byte pieces before calling onChunk. chunkSize is clamped to
// MinChunkSize.
func NewChunkedStreamTarget(onChunk OnChunk, chunkSize int64) *StreamTarget {
	if chunkSize < MinChunkSize {
		chunkSize = MinChunkSize
	}
	return &StreamTarget{onChunk: onChunk, chunkSize: chunkSize}
}

// WriteAt requires offset == the next expected position: a StreamTarget
// has no random access.
func (t *StreamTarget) WriteAt(offset int64, data []byte) error {
	if offset != t.next {
		return muxerr.New(muxerr.InternalInvariant,
			"stream target received out-of-order write at %d, expected %d", offset, t.next)
	}
	t.next += int64(len(data))
	if t.chunkSize == 0 {
		return t.onChunk(offset, data)
	}
	if t.pending == nil {
		t.pendingAt = offset
	}
	t.pending = append(t.pending, data...)
	for int64(len(t.pending)) >= t.chunkSize {
		if err := t.onChunk(t.pendingAt, t.pending[:t.chunkSize]); err != nil {
			return err
		}
		t.pending = t.pending[t.chunkSize:]
		t.pendingAt += t.chunkSize
	}
	return nil
}

// Seekable is always false: a StreamTarget is a one-way pipe.
func (t *StreamTarget) Seekable() bool { return false }

// Finalize flushes any remaining partial chunk.
func (t *StreamTarget) Finalize() error {
	if len(t.pending) == 0 {
		return nil
	}
	err := t.onChunk(t.pendingAt, t.pending)
	t.pending = nil
	return err
}

// FileTarget writes to a regular, seekable os.File using WriteAt, the
// equivalent of the browser FileSystemWritableFileStream target.
type FileTarget struct {
	f *os.File
}

// NewFileTarget opens path for writing, truncating any existing content.
func NewFileTarget(path string) (*FileTarget, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("iowriter: open file target: %w", err)
	}
	return &FileTarget{f: f}, nil
}

// WriteAt writes data at the absolute file offset.
func (t *FileTarget) WriteAt(offset int64, data []byte) error {
	_, err := t.f.WriteAt(data, offset)
	return err
}

// Seekable always returns true: a regular file supports random access.
func (t *FileTarget) Seekable() bool { return true }

// Finalize flushes and closes the file.
func (t *FileTarget) Finalize() error {
	if err := t.f.Sync(); err != nil {
		return err
	}
	return t.f.Close()
}
