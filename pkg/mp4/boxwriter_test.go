package mp4

import (
	"testing"

	"github.com/stretchr/testify/require"

	"mediamux/pkg/iowriter"
)

func TestBoxWriterWriteBox(t *testing.T) {
	target := iowriter.NewBufferTarget()
	bw := NewBoxWriter(iowriter.New(target))

	bw.WriteBox(&Boxes{Box: &Free{PadSize: 3}})
	require.NoError(t, bw.Err())
	require.Equal(t, []byte{0, 0, 0, 11, 'f', 'r', 'e', 'e', 0, 0, 0}, target.Bytes())
}

func TestBoxWriterReserveAndPatch(t *testing.T) {
	target := iowriter.NewBufferTarget()
	bw := NewBoxWriter(iowriter.New(target))

	r := bw.ReserveBox(FourCC("mdat"), false)
	bw.WriteRaw([]byte{1, 2, 3, 4, 5})
	bw.PatchBox(r)

	require.NoError(t, bw.Err())
	want := []byte{0, 0, 0, 13, 'm', 'd', 'a', 't', 1, 2, 3, 4, 5}
	require.Equal(t, want, target.Bytes())
	require.Equal(t, int64(len(want)), bw.Offset())
}

func TestBoxWriterUnknownSizeHeaderNeverPatches(t *testing.T) {
	var flushed []byte
	target := iowriter.NewStreamTarget(func(offset int64, data []byte) error {
		flushed = append(flushed, data...)
		return nil
	})
	bw := NewBoxWriter(iowriter.New(target))

	bw.WriteUnknownSizeHeader(FourCC("mdat"))
	bw.WriteRaw([]byte{9, 9, 9})
	require.NoError(t, bw.Err())

	want := []byte{0, 0, 0, 0, 'm', 'd', 'a', 't', 9, 9, 9}
	require.Equal(t, want, flushed)
}

func TestBoxWriterPatchOnNonSeekableTargetErrors(t *testing.T) {
	target := iowriter.NewStreamTarget(func(offset int64, data []byte) error { return nil })
	bw := NewBoxWriter(iowriter.New(target))

	r := bw.ReserveBox(FourCC("mdat"), false)
	bw.WriteRaw([]byte{1, 2, 3})
	bw.PatchBox(r)

	require.Error(t, bw.Err())
}

// TestFullBoxEmitsVersionAndFlags pins the actual byte layout of a FullBox
// (stts), so a missing version/flags header (4 mandatory bytes before
// entry_count) fails here even though Size() and Marshal() agree with
// each other.
func TestFullBoxEmitsVersionAndFlags(t *testing.T) {
	target := iowriter.NewBufferTarget()
	bw := NewBoxWriter(iowriter.New(target))

	stts := &Stts{Entries: []SttsEntry{{SampleCount: 10, SampleDelta: 3000}}}
	bw.WriteBox(&Boxes{Box: stts})
	require.NoError(t, bw.Err())

	want := []byte{
		0, 0, 0, 24, 's', 't', 't', 's', // size, type
		0, 0, 0, 0, // FullBox: version + flags
		0, 0, 0, 1, // entry_count
		0, 0, 0, 10, 0, 0, 0x0b, 0xb8, // sample_count, sample_delta
	}
	require.Equal(t, want, target.Bytes())
}
