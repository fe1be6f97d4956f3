package ebml

import (
	"testing"

	"github.com/stretchr/testify/require"

	"mediamux/pkg/iowriter"
)

func marshal(e *Element) []byte {
	buf := make([]byte, e.Size())
	pos := 0
	e.Marshal(buf, &pos)
	return buf
}

func TestVarIntWidthBoundaries(t *testing.T) {
	require.Equal(t, 1, varintWidth(0))
	require.Equal(t, 1, varintWidth((1<<7)-2))
	require.Equal(t, 2, varintWidth((1 << 7)))
	require.Equal(t, 2, varintWidth((1<<14)-2))
	require.Equal(t, 3, varintWidth(1 << 14))
}

func TestUIntElementRoundTrip(t *testing.T) {
	e := UIntElement(IDTimestampScale, 1_000_000)
	got := marshal(e)
	require.Equal(t, e.Size(), len(got))
	require.Equal(t, []byte{
		0x2A, 0xD7, 0xB1, // id
		0x83,             // varint size = 3, width 1
		0x0F, 0x42, 0x40, // 1_000_000
	}, got)
}

func TestSIntElementNegative(t *testing.T) {
	e := SIntElement(IDBlockDuration, -1)
	got := marshal(e)
	require.Equal(t, []byte{0x9B, 0x81, 0xFF}, got)
}

func TestASCIIAndBinaryElements(t *testing.T) {
	e := ASCIIElement(IDDocType, "webm")
	got := marshal(e)
	require.Equal(t, []byte{0x42, 0x82, 0x84, 'w', 'e', 'b', 'm'}, got)

	bin := BinaryElement(IDCodecPrivate, []byte{1, 2, 3})
	gotBin := marshal(bin)
	require.Equal(t, []byte{0x63, 0xA2, 0x83, 1, 2, 3}, gotBin)
}

func TestMasterElementNilChildSkipped(t *testing.T) {
	e := MasterElement(IDTrackEntry,
		UIntElement(IDTrackNumber, 1),
		nil,
		UIntElement(IDTrackType, TrackTypeVideo),
	)
	got := marshal(e)
	require.Equal(t, e.Size(), len(got))
	// id(1) + size(4) + [trackNumber: id1+size1+val1=3] + [trackType: 3] = 11
	require.Equal(t, 1+4+3+3, len(got))
}

func TestWriterReserveAndPatchElement(t *testing.T) {
	target := iowriter.NewBufferTarget()
	ew := NewWriter(iowriter.New(target))

	r := ew.ReserveElement(IDCluster)
	ew.WriteElement(UIntElement(IDTimestamp, 1000))
	ew.PatchElementSize(r)

	require.NoError(t, ew.Err())
	got := target.Bytes()

	require.Equal(t, []byte{0x1F, 0x43, 0xB6, 0x75}, got[0:4])
	require.Equal(t, byte(0x01), got[4]>>4) // 4-byte size field's marker nibble
}

func TestWriterUnknownSizeHeaderForStreamableSegment(t *testing.T) {
	target := iowriter.NewBufferTarget()
	ew := NewWriter(iowriter.New(target))

	ew.WriteUnknownSizeHeader(IDSegment)
	require.NoError(t, ew.Err())

	got := target.Bytes()
	require.Equal(t, []byte{0x18, 0x53, 0x80, 0x67, 0xFF}, got)
}
