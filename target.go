package mediamux

import (
	"github.com/gorilla/websocket"

	"mediamux/pkg/iowriter"
)

// Target is the byte sink an Output writes its container into (§4.1,
// §6.1). The concrete variants below are thin re-exports of
// pkg/iowriter's targets, kept at the package root since they are part
// of the public construction surface alongside Output/OutputFormat.
type Target = iowriter.Target

// BufferTarget grows an in-memory buffer; call Bytes after Finalize.
type BufferTarget = iowriter.BufferTarget

// NewBufferTarget returns an empty BufferTarget, the target for the
// in-memory fast-start MP4 layout or any small/test output.
func NewBufferTarget() *BufferTarget { return iowriter.NewBufferTarget() }

// StreamTarget forwards flushed bytes to a callback, unchunked or
// chunked.
type StreamTarget = iowriter.StreamTarget

// OnChunk is called once a span of bytes is ready to leave the process,
// with its absolute file position.
type OnChunk = iowriter.OnChunk

// NewStreamTarget returns an unchunked StreamTarget: onData fires once
// per underlying write.
func NewStreamTarget(onData OnChunk) *StreamTarget {
	return iowriter.NewStreamTarget(onData)
}

// NewChunkedStreamTarget returns a StreamTarget batching writes into
// chunkSize-byte pieces (minimum iowriter.MinChunkSize) before calling
// onData.
func NewChunkedStreamTarget(onData OnChunk, chunkSize int64) *StreamTarget {
	return iowriter.NewChunkedStreamTarget(onData, chunkSize)
}

// FileTarget writes to a regular seekable file, the Go equivalent of a
// FileSystemWritableFileStreamTarget.
type FileTarget = iowriter.FileTarget

// NewFileTarget opens path for writing, truncating any existing content.
func NewFileTarget(path string) (*FileTarget, error) {
	return iowriter.NewFileTarget(path)
}

// WebSocketTarget streams the muxed output as binary websocket frames.
type WebSocketTarget = iowriter.WebSocketTarget

// NewWebSocketTarget wraps an already-upgraded websocket connection.
func NewWebSocketTarget(conn *websocket.Conn) *WebSocketTarget {
	return iowriter.NewWebSocketTarget(conn)
}
