package iowriter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferTargetWriteAndPatch(t *testing.T) {
	target := NewBufferTarget()
	w := New(target)

	w.Write([]byte{0, 0, 0, 0}) // placeholder size
	w.Write([]byte("moov"))
	sizePos := int64(0)
	payloadEnd := w.Pos()

	w.Seek(sizePos)
	w.Write([]byte{0, 0, 0, byte(payloadEnd)})
	w.Seek(payloadEnd)

	require.NoError(t, w.Err())
	require.NoError(t, w.Finalize())
	require.Equal(t, []byte{0, 0, 0, 8, 'm', 'o', 'o', 'v'}, target.Bytes())
}

func TestStreamTargetRejectsBackwardSeek(t *testing.T) {
	var flushed [][]byte
	target := NewStreamTarget(func(offset int64, data []byte) error {
		flushed = append(flushed, append([]byte(nil), data...))
		return nil
	})
	w := New(target)

	w.Write([]byte("abcd"))
	w.Seek(0)
	require.Error(t, w.Err())
}

func TestStreamTargetSequentialWritesFlushImmediately(t *testing.T) {
	var flushed []byte
	target := NewStreamTarget(func(offset int64, data []byte) error {
		require.Equal(t, int64(len(flushed)), offset)
		flushed = append(flushed, data...)
		return nil
	})
	w := New(target)

	w.Write([]byte("hello "))
	w.Write([]byte("world"))
	require.NoError(t, w.Err())
	require.NoError(t, w.Finalize())
	require.Equal(t, "hello world", string(flushed))
}

func TestChunkedStreamTargetBatches(t *testing.T) {
	var chunks [][]byte
	target := NewChunkedStreamTarget(func(offset int64, data []byte) error {
		chunks = append(chunks, append([]byte(nil), data...))
		return nil
	}, MinChunkSize)
	w := New(target)

	big := make([]byte, MinChunkSize+10)
	for i := range big {
		big[i] = byte(i)
	}
	w.Write(big)
	require.NoError(t, w.Err())
	require.Len(t, chunks, 1)
	require.Len(t, chunks[0], MinChunkSize)

	require.NoError(t, w.Finalize())
	require.Len(t, chunks, 2)
	require.Len(t, chunks[1], 10)
}

func TestEnsureMonotonicityCatchesRegression(t *testing.T) {
	target := NewStreamTarget(func(offset int64, data []byte) error { return nil })
	w := New(target)

	w.Write([]byte("abcd"))
	w.pos = 1 // simulate a bookkeeping bug bypassing Seek's guard
	w.EnsureMonotonicity()
	require.Error(t, w.Err())
}

func TestSliceReportsWrittenRanges(t *testing.T) {
	target := NewBufferTarget()
	w := New(target)
	w.Write([]byte("0123456789"))

	require.True(t, w.Slice(0, 10))
	require.False(t, w.Slice(0, 11))
	require.False(t, w.Slice(-1, 1))
}
