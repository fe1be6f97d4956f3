package mp4mux

import "mediamux/pkg/mp4"

// appendStts runs-length-encodes one more sample of the given delta into
// a decoding-time-to-sample table (§4.4.3).
func appendStts(entries []mp4.SttsEntry, delta uint32) []mp4.SttsEntry {
	if n := len(entries); n > 0 && entries[n-1].SampleDelta == delta {
		entries[n-1].SampleCount++
		return entries
	}
	return append(entries, mp4.SttsEntry{SampleCount: 1, SampleDelta: delta})
}

// appendCtts runs-length-encodes one more sample of the given
// composition-time offset. The caller calls this for every sample of
// every track; whether the box is emitted is decided
// separately by hasNonZeroOffset once every sample has been seen, since
// an all-zero ctts table is omitted entirely.
func appendCtts(entries []mp4.CttsEntry, offset int32) []mp4.CttsEntry {
	if n := len(entries); n > 0 && entries[n-1].SampleOffset == offset {
		entries[n-1].SampleCount++
		return entries
	}
	return append(entries, mp4.CttsEntry{SampleCount: 1, SampleOffset: offset})
}

// hasNonZeroOffset reports whether any ctts entry carries a non-zero
// offset; a table that is entirely zero is dropped rather than written
// (§4.4.3).
func hasNonZeroOffset(entries []mp4.CttsEntry) bool {
	for _, e := range entries {
		if e.SampleOffset != 0 {
			return true
		}
	}
	return false
}

// appendStscChunk records the close of one chunk of sampleCount samples
// as chunkIndex (1-based). A new run starts only when the
// samples-per-chunk count changes from the previous chunk.
func appendStscChunk(entries []mp4.StscEntry, chunkIndex uint32, sampleCount uint32) []mp4.StscEntry {
	if n := len(entries); n > 0 && entries[n-1].SamplesPerChunk == sampleCount {
		return entries
	}
	return append(entries, mp4.StscEntry{
		FirstChunk:             chunkIndex,
		SamplesPerChunk:        sampleCount,
		SampleDescriptionIndex: 1,
	})
}

// maxChunkOffset32 is the largest offset stco can hold; at or beyond it
// a track's chunk offset table must be promoted to co64 (§8.4).
const maxChunkOffset32 = 1<<32 - 1

// needsCo64 reports whether any offset in offsets requires the 64-bit
// chunk-offset box.
func needsCo64(offsets []int64) bool {
	for _, o := range offsets {
		if o > maxChunkOffset32 {
			return true
		}
	}
	return false
}
