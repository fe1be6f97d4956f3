package mp4mux

import (
	"testing"

	"github.com/stretchr/testify/require"

	"mediamux/pkg/mp4"
)

func TestAppendSttsMergesEqualDeltas(t *testing.T) {
	var entries []mp4.SttsEntry
	entries = appendStts(entries, 100)
	entries = appendStts(entries, 100)
	entries = appendStts(entries, 100)
	entries = appendStts(entries, 50)

	require.Equal(t, []mp4.SttsEntry{
		{SampleCount: 3, SampleDelta: 100},
		{SampleCount: 1, SampleDelta: 50},
	}, entries)
}

func TestAppendCttsMergesEqualOffsets(t *testing.T) {
	var entries []mp4.CttsEntry
	entries = appendCtts(entries, 0)
	entries = appendCtts(entries, 200)
	entries = appendCtts(entries, 200)
	entries = appendCtts(entries, 0)

	require.Equal(t, []mp4.CttsEntry{
		{SampleCount: 1, SampleOffset: 0},
		{SampleCount: 2, SampleOffset: 200},
		{SampleCount: 1, SampleOffset: 0},
	}, entries)
}

func TestHasNonZeroOffset(t *testing.T) {
	require.False(t, hasNonZeroOffset([]mp4.CttsEntry{{SampleCount: 5, SampleOffset: 0}}))
	require.True(t, hasNonZeroOffset([]mp4.CttsEntry{
		{SampleCount: 5, SampleOffset: 0},
		{SampleCount: 1, SampleOffset: 512},
	}))
}

func TestAppendStscChunkStartsNewRunOnlyWhenCountChanges(t *testing.T) {
	var entries []mp4.StscEntry
	entries = appendStscChunk(entries, 1, 1)
	entries = appendStscChunk(entries, 2, 1)
	entries = appendStscChunk(entries, 3, 2)

	require.Equal(t, []mp4.StscEntry{
		{FirstChunk: 1, SamplesPerChunk: 1, SampleDescriptionIndex: 1},
		{FirstChunk: 3, SamplesPerChunk: 2, SampleDescriptionIndex: 1},
	}, entries)
}

func TestNeedsCo64(t *testing.T) {
	require.False(t, needsCo64([]int64{0, 1024, maxChunkOffset32}))
	require.True(t, needsCo64([]int64{0, maxChunkOffset32 + 1}))
}
