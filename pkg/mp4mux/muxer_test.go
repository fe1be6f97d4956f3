package mp4mux

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"mediamux/pkg/iowriter"
	"mediamux/pkg/mp4"
	"mediamux/pkg/mux"
)

func avcTrack() TrackConfig {
	return TrackConfig{
		Kind:  mux.KindVideo,
		Codec: mux.CodecAVC,
		Video: &mux.VideoTrackMetadata{
			FrameRate: 10,
			DecoderConfig: &mux.VideoDecoderConfig{
				Codec:       mux.CodecAVC,
				Width:       640,
				Height:      480,
				Description: []byte{0x01, 0x64, 0x00, 0x1f, 0xff, 0xe1, 0x00, 0x00},
			},
		},
	}
}

func countOccurrences(haystack []byte, tag string) int {
	n := 0
	needle := []byte(tag)
	for idx := bytes.Index(haystack, needle); idx != -1; {
		n++
		rest := haystack[idx+len(needle):]
		next := bytes.Index(rest, needle)
		if next == -1 {
			break
		}
		idx = idx + len(needle) + next
	}
	return n
}

func TestEmptyFinalizeStreaming(t *testing.T) {
	target := iowriter.NewBufferTarget()
	m := NewMuxer(target, Config{Layout: LayoutStreaming})
	require.NoError(t, m.Start())
	require.NoError(t, m.Finalize())

	out := target.Bytes()
	require.Contains(t, string(out[4:8]), "ftyp")
	require.True(t, bytes.Contains(out, []byte("moov")))
	require.True(t, bytes.Contains(out, []byte("mvhd")))
}

func TestStreamingSingleKeyFrame(t *testing.T) {
	target := iowriter.NewBufferTarget()
	m := NewMuxer(target, Config{Layout: LayoutStreaming})
	id, err := m.AddTrack(avcTrack())
	require.NoError(t, err)
	require.NoError(t, m.Start())

	require.NoError(t, m.AddEncodedVideoChunk(id, mux.EncodedUnit{
		Data:            []byte("keyframe-bytes"),
		TimestampMicros: 0,
		DurationMicros:  100_000,
		IsKeyFrame:      true,
	}))
	require.NoError(t, m.Finalize())

	out := target.Bytes()
	require.True(t, bytes.Contains(out, []byte("mdat")))
	require.True(t, bytes.Contains(out, []byte("moov")))
	require.True(t, bytes.Contains(out, []byte("stsd")))
	require.True(t, bytes.Contains(out, []byte("avc1")))
	require.True(t, bytes.Contains(out, []byte("keyframe-bytes")))
	// a single all-keyframe track omits stss entirely.
	require.False(t, bytes.Contains(out, []byte("stss")))
}

func TestFastStartWithReorderedBFrames(t *testing.T) {
	target := iowriter.NewBufferTarget()
	m := NewMuxer(target, Config{Layout: LayoutFastStart})
	id, err := m.AddTrack(avcTrack())
	require.NoError(t, err)
	require.NoError(t, m.Start())

	// presentation order 0 (I), 200000 (P), 100000 (B, reordered before P)
	require.NoError(t, m.AddEncodedVideoChunk(id, mux.EncodedUnit{
		Data: []byte("I"), TimestampMicros: 0, DurationMicros: 100_000, IsKeyFrame: true,
	}))
	require.NoError(t, m.AddEncodedVideoChunk(id, mux.EncodedUnit{
		Data: []byte("P"), TimestampMicros: 200_000, DurationMicros: 100_000, IsKeyFrame: false,
	}))
	require.NoError(t, m.AddEncodedVideoChunk(id, mux.EncodedUnit{
		Data: []byte("B"), TimestampMicros: 100_000, DurationMicros: 100_000, IsKeyFrame: false,
	}))
	require.NoError(t, m.Finalize())

	out := target.Bytes()
	require.True(t, bytes.Contains(out, []byte("ctts")))
	// fast start writes moov before mdat.
	require.Less(t, bytes.Index(out, []byte("moov")), bytes.Index(out, []byte("mdat")))
}

func TestFragmentedFlushesMultipleFragments(t *testing.T) {
	target := iowriter.NewBufferTarget()
	m := NewMuxer(target, Config{Layout: LayoutFragmented})
	id, err := m.AddTrack(avcTrack())
	require.NoError(t, err)
	require.NoError(t, m.Start())

	require.True(t, bytes.Contains(target.Bytes(), []byte("mvex")))
	require.True(t, bytes.Contains(target.Bytes(), []byte("trex")))

	for i := 0; i < 25; i++ {
		require.NoError(t, m.AddEncodedVideoChunk(id, mux.EncodedUnit{
			Data:            []byte{byte(i)},
			TimestampMicros: int64(i) * 100_000,
			DurationMicros:  100_000,
			IsKeyFrame:      i%10 == 0,
		}))
	}
	require.GreaterOrEqual(t, countOccurrences(target.Bytes(), "moof"), 2)

	require.NoError(t, m.Finalize())
	out := target.Bytes()
	require.True(t, bytes.Contains(out, []byte("mfra")))
	require.True(t, bytes.Contains(out, []byte("tfra")))
	require.True(t, bytes.Contains(out, []byte("mfro")))
}

func TestStsdRequiresDecoderConfig(t *testing.T) {
	target := iowriter.NewBufferTarget()
	m := NewMuxer(target, Config{Layout: LayoutStreaming})
	id, err := m.AddTrack(TrackConfig{
		Kind:  mux.KindVideo,
		Codec: mux.CodecAVC,
		Video: &mux.VideoTrackMetadata{FrameRate: 30},
	})
	require.NoError(t, err)
	require.NoError(t, m.Start())
	require.NoError(t, m.AddEncodedVideoChunk(id, mux.EncodedUnit{
		Data: []byte("x"), TimestampMicros: 0, DurationMicros: 1000, IsKeyFrame: true,
	}))
	require.Error(t, m.Finalize())
}

func TestCodecAllowList(t *testing.T) {
	target := iowriter.NewBufferTarget()
	m := NewMuxer(target, Config{Layout: LayoutStreaming, Codecs: []mux.Codec{mux.CodecVP9, mux.CodecOpus}})
	_, err := m.AddTrack(avcTrack())
	require.Error(t, err)
}

func TestBuildStblPromotesToCo64PastFourGiB(t *testing.T) {
	tr := &trackState{
		kind:      mux.KindVideo,
		codec:     mux.CodecAVC,
		timescale: 30,
		allSync:   true,
		video: &mux.VideoTrackMetadata{
			DecoderConfig: &mux.VideoDecoderConfig{
				Width: 640, Height: 480, Description: []byte{0x01},
			},
		},
		stts: []mp4.SttsEntry{{SampleCount: 1, SampleDelta: 1}},
		stsc: []mp4.StscEntry{{FirstChunk: 1, SamplesPerChunk: 1, SampleDescriptionIndex: 1}},
		stsz: []uint32{10},
		stco: []int64{int64(1) << 33},
	}

	tree, err := buildStbl(tr, false)
	require.NoError(t, err)
	buf := make([]byte, tree.Size())
	pos := 0
	tree.Marshal(buf, &pos)

	require.True(t, bytes.Contains(buf, []byte("co64")))
	require.False(t, bytes.Contains(buf, []byte("stco")))
}
