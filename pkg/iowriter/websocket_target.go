package iowriter

import (
	"github.com/gorilla/websocket"

	"mediamux/pkg/muxerr"
)

// WebSocketTarget streams the muxed output as binary websocket frames,
// one per flushed chunk, for a live-push use case the teacher's own
// websocket upgrader (pkg/web/routes.go) plays the server side of.
// Writes are sequential only, same as StreamTarget.
type WebSocketTarget struct {
	conn *websocket.Conn
	next int64
}

// NewWebSocketTarget wraps an already-upgraded connection.
func NewWebSocketTarget(conn *websocket.Conn) *WebSocketTarget {
	return &WebSocketTarget{conn: conn}
}

// WriteAt sends data as one binary message. offset must equal the
// number of bytes already sent.
func (t *WebSocketTarget) WriteAt(offset int64, data []byte) error {
	if offset != t.next {
		return muxerr.New(muxerr.InternalInvariant,
			"websocket target received out-of-order write at %d, expected %d", offset, t.next)
	}
	if err := t.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return muxerr.Wrap(muxerr.InternalInvariant, err, "write websocket frame")
	}
	t.next += int64(len(data))
	return nil
}

// Seekable always returns false: a websocket connection cannot rewind.
func (t *WebSocketTarget) Seekable() bool { return false }

// Finalize closes the connection with a normal closure frame.
func (t *WebSocketTarget) Finalize() error {
	return t.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
