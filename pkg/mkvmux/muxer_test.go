package mkvmux

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"mediamux/pkg/iowriter"
	"mediamux/pkg/mux"
)

func vp8Track() TrackConfig {
	return TrackConfig{
		Kind:  mux.KindVideo,
		Codec: mux.CodecVP8,
		Video: &mux.VideoTrackMetadata{
			FrameRate: 10,
			DecoderConfig: &mux.VideoDecoderConfig{
				Codec: mux.CodecVP8, Width: 640, Height: 480,
				ColorSpace: &mux.ColorSpace{Primaries: 1, Transfer: 1, Matrix: 1},
			},
		},
	}
}

func opusTrack() TrackConfig {
	return TrackConfig{
		Kind:  mux.KindAudio,
		Codec: mux.CodecOpus,
		Audio: &mux.AudioTrackMetadata{
			DecoderConfig: &mux.AudioDecoderConfig{
				Codec: mux.CodecOpus, SampleRate: 48000, NumberOfChannels: 2,
				Description: make([]byte, 19),
			},
		},
	}
}

func TestEmptyFinalizeMatroska(t *testing.T) {
	target := iowriter.NewBufferTarget()
	m := NewMuxer(target, Config{DocType: "matroska"})
	require.NoError(t, m.Start())
	require.NoError(t, m.Finalize())

	out := target.Bytes()
	require.True(t, bytes.Contains(out, []byte("matroska")))
	require.True(t, bytes.Contains(out, []byte("\x1a\x45\xdf\xa3"))) // EBML id
}

func TestSingleKeyFrameWritesClusterAndCues(t *testing.T) {
	target := iowriter.NewBufferTarget()
	m := NewMuxer(target, Config{DocType: "webm", Codecs: webmCodecsForTest()})
	id, err := m.AddTrack(vp8Track())
	require.NoError(t, err)
	require.NoError(t, m.Start())

	require.NoError(t, m.AddEncodedVideoChunk(id, mux.EncodedUnit{
		Data: []byte("keyframe"), TimestampMicros: 0, DurationMicros: 100_000, IsKeyFrame: true,
	}))
	require.NoError(t, m.Finalize())

	out := target.Bytes()
	require.True(t, bytes.Contains(out, []byte("keyframe")))
}

func TestRejectsCodecNotInAllowList(t *testing.T) {
	target := iowriter.NewBufferTarget()
	m := NewMuxer(target, Config{DocType: "webm", Codecs: webmCodecsForTest()})
	cfg := TrackConfig{
		Kind:  mux.KindVideo,
		Codec: mux.CodecAVC,
		Video: &mux.VideoTrackMetadata{
			FrameRate:     10,
			DecoderConfig: &mux.VideoDecoderConfig{Codec: mux.CodecAVC, Width: 640, Height: 480, Description: []byte{1}},
		},
	}
	_, err := m.AddTrack(cfg)
	require.Error(t, err)
}

func TestClusterSplitsOnKeyFrameAfterSpan(t *testing.T) {
	target := iowriter.NewBufferTarget()
	m := NewMuxer(target, Config{DocType: "webm", Codecs: webmCodecsForTest()})
	id, err := m.AddTrack(vp8Track())
	require.NoError(t, err)
	require.NoError(t, m.Start())

	for i := 0; i < 15; i++ {
		require.NoError(t, m.AddEncodedVideoChunk(id, mux.EncodedUnit{
			Data:            []byte{byte(i)},
			TimestampMicros: int64(i) * 100_000,
			DurationMicros:  100_000,
			IsKeyFrame:      i%10 == 0,
		}))
	}
	require.NoError(t, m.Finalize())

	out := target.Bytes()
	n := 0
	needle := []byte{0x1f, 0x43, 0xb6, 0x75} // Cluster ID
	for idx := bytes.Index(out, needle); idx != -1; {
		n++
		rest := out[idx+len(needle):]
		next := bytes.Index(rest, needle)
		if next == -1 {
			break
		}
		idx = idx + len(needle) + next
	}
	require.GreaterOrEqual(t, n, 2)
}

func TestBlockTimeOffsetBoundEnforced(t *testing.T) {
	target := iowriter.NewBufferTarget()
	m := NewMuxer(target, Config{DocType: "matroska"})
	id, err := m.AddTrack(vp8Track())
	require.NoError(t, err)
	require.NoError(t, m.Start())

	require.NoError(t, m.AddEncodedVideoChunk(id, mux.EncodedUnit{
		Data: []byte("key"), TimestampMicros: 0, DurationMicros: 1000, IsKeyFrame: true,
	}))
	require.Error(t, m.AddEncodedVideoChunk(id, mux.EncodedUnit{
		Data: []byte("late"), TimestampMicros: 40_000_000, DurationMicros: 1000, IsKeyFrame: false,
	}))
}

func TestMultiTrackInterleaveWritesBlocksOfBothTracks(t *testing.T) {
	target := iowriter.NewBufferTarget()
	m := NewMuxer(target, Config{DocType: "webm", Codecs: webmCodecsForTest()})
	v, err := m.AddTrack(vp8Track())
	require.NoError(t, err)
	a, err := m.AddTrack(opusTrack())
	require.NoError(t, err)
	require.NoError(t, m.Start())

	require.NoError(t, m.AddEncodedVideoChunk(v, mux.EncodedUnit{
		Data: []byte("v0"), TimestampMicros: 0, DurationMicros: 100_000, IsKeyFrame: true,
	}))
	require.NoError(t, m.AddEncodedAudioChunk(a, mux.EncodedUnit{
		Data: []byte("a0"), TimestampMicros: 0, DurationMicros: 20_000, IsKeyFrame: true,
	}))
	require.NoError(t, m.Finalize())

	out := target.Bytes()
	require.True(t, bytes.Contains(out, []byte("v0")))
	require.True(t, bytes.Contains(out, []byte("a0")))
}

func webmCodecsForTest() []mux.Codec {
	return []mux.Codec{mux.CodecVP8, mux.CodecVP9, mux.CodecAV1, mux.CodecOpus, mux.CodecVorbis, mux.CodecWebVTT}
}
