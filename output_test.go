package mediamux

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"mediamux/pkg/mux"
)

func avcVideoMeta() mux.VideoTrackMetadata {
	return mux.VideoTrackMetadata{
		FrameRate: 30,
		DecoderConfig: &mux.VideoDecoderConfig{
			Codec:       mux.CodecAVC,
			Width:       640,
			Height:      480,
			Description: []byte{0x01, 0x64, 0x00, 0x1f},
		},
	}
}

func TestOutputMp4EndToEnd(t *testing.T) {
	target := NewBufferTarget()
	output, err := NewOutput(target, Mp4OutputFormat{})
	require.NoError(t, err)

	track, err := output.AddVideoTrack(mux.CodecAVC, avcVideoMeta())
	require.NoError(t, err)
	require.NoError(t, output.Start())

	require.NoError(t, output.AddEncodedVideoChunk(track, mux.EncodedUnit{
		Data: []byte("frame"), TimestampMicros: 0, DurationMicros: 33_333, IsKeyFrame: true,
	}))
	require.NoError(t, output.Finalize())

	out := target.Bytes()
	require.True(t, bytes.Contains(out, []byte("ftyp")))
	require.True(t, bytes.Contains(out, []byte("moov")))
	require.True(t, bytes.Contains(out, []byte("frame")))
}

func TestOutputRejectsSharedTarget(t *testing.T) {
	target := NewBufferTarget()
	_, err := NewOutput(target, Mp4OutputFormat{})
	require.NoError(t, err)

	_, err = NewOutput(target, Mp4OutputFormat{})
	require.Error(t, err)
}

func TestOutputRejectsTrackAfterStart(t *testing.T) {
	target := NewBufferTarget()
	output, err := NewOutput(target, Mp4OutputFormat{})
	require.NoError(t, err)
	require.NoError(t, output.Start())

	_, err = output.AddVideoTrack(mux.CodecAVC, avcVideoMeta())
	require.Error(t, err)
}

func TestPushVideoSourceDrivesOutput(t *testing.T) {
	target := NewBufferTarget()
	output, err := NewOutput(target, Mp4OutputFormat{})
	require.NoError(t, err)

	track, err := output.AddVideoTrack(mux.CodecAVC, avcVideoMeta())
	require.NoError(t, err)
	require.NoError(t, output.Start())

	source := &PushVideoSource{}
	source.Attach(output.VideoSinkFor(track))

	require.NoError(t, source.Push(mux.EncodedUnit{
		Data: []byte("pushed"), TimestampMicros: 0, DurationMicros: 33_333, IsKeyFrame: true,
	}))
	require.NoError(t, source.Close())
	require.NoError(t, output.Finalize())

	require.True(t, bytes.Contains(target.Bytes(), []byte("pushed")))
}

func TestOutputWebMRejectsDisallowedCodec(t *testing.T) {
	target := NewBufferTarget()
	output, err := NewOutput(target, WebMOutputFormat{})
	require.NoError(t, err)

	_, err = output.AddVideoTrack(mux.CodecAVC, avcVideoMeta())
	require.Error(t, err)
}
