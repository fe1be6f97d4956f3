package mp4mux

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildGapSampleIsAnEmptyVtteBox(t *testing.T) {
	data := buildGapSample()
	require.Len(t, data, 8)
	require.Equal(t, uint32(8), binary.BigEndian.Uint32(data[0:4]))
	require.Equal(t, "vtte", string(data[4:8]))
}

func TestBuildCueSamplePayloadOnly(t *testing.T) {
	data := buildCueSample(cueText{text: "hello"})

	// vttc header (8) + payl box (8 + len("hello"))
	require.Len(t, data, 8+8+5)
	require.Equal(t, "vttc", string(data[4:8]))
	require.Equal(t, "payl", string(data[12:16]))
	require.Equal(t, "hello", string(data[16:21]))
}

func TestBuildCueSampleIncludesOptionalFields(t *testing.T) {
	data := buildCueSample(cueText{
		text:       "line one",
		identifier: "cue-1",
		settings:   "align:start",
		notes:      "a note",
	})

	require.Equal(t, "vttc", string(data[4:8]))

	var tags []string
	pos := 8
	for pos < len(data) {
		size := binary.BigEndian.Uint32(data[pos : pos+4])
		tags = append(tags, string(data[pos+4:pos+8]))
		pos += int(size)
	}
	require.Equal(t, []string{"payl", "iden", "sttg", "vtta"}, tags)
}
