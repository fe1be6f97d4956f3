package mp4mux

import (
	"testing"

	"github.com/stretchr/testify/require"

	"mediamux/pkg/mp4"
	"mediamux/pkg/mux"
)

func TestVp9ColorSpaceFromMapsMatrixCoefficients(t *testing.T) {
	require.Equal(t, uint8(mp4.VP9ColorSpaceUnknown), vp9ColorSpaceFrom(nil))
	require.Equal(t, uint8(mp4.VP9ColorSpaceRGB), vp9ColorSpaceFrom(&mux.ColorSpace{Matrix: 0}))
	require.Equal(t, uint8(mp4.VP9ColorSpaceBT709), vp9ColorSpaceFrom(&mux.ColorSpace{Matrix: 1}))
	require.Equal(t, uint8(mp4.VP9ColorSpaceSMPTE170), vp9ColorSpaceFrom(&mux.ColorSpace{Matrix: 6}))
	require.Equal(t, uint8(mp4.VP9ColorSpaceSMPTE240), vp9ColorSpaceFrom(&mux.ColorSpace{Matrix: 7}))
	require.Equal(t, uint8(mp4.VP9ColorSpaceBT2020), vp9ColorSpaceFrom(&mux.ColorSpace{Matrix: 9}))
	require.Equal(t, uint8(mp4.VP9ColorSpaceUnknown), vp9ColorSpaceFrom(&mux.ColorSpace{Matrix: 5}))
}

// a minimal profile-0 VP9 key frame header: frame_marker, profile bits,
// show_existing_frame, frame_type, show_frame, error_resilient_mode (one
// byte), the 3-byte sync code, then the color_space field starting at
// the first bit of the 5th byte.
func vp9KeyFrameHeader(colorSpace uint8) []byte {
	return []byte{0x82, 0x49, 0x83, 0x42, colorSpace << 5}
}

func TestPatchVP9ColorSpaceRewritesKeyFrame(t *testing.T) {
	tr := &trackState{kind: mux.KindVideo, codec: mux.CodecVP9, colorSpace: &mux.ColorSpace{Matrix: 0}}
	data := vp9KeyFrameHeader(mp4.VP9ColorSpaceBT709)

	require.NoError(t, patchVP9ColorSpace(tr, data, true))

	info, err := mp4.ParseVP9FrameHeader(data)
	require.NoError(t, err)
	require.True(t, info.HasColorConfig)
	require.Equal(t, uint8(mp4.VP9ColorSpaceRGB), data[4]>>5)
}

func TestPatchVP9ColorSpaceSkipsNonKeyFramesAndOtherCodecs(t *testing.T) {
	tr := &trackState{kind: mux.KindVideo, codec: mux.CodecVP9, colorSpace: &mux.ColorSpace{Matrix: 1}}
	data := vp9KeyFrameHeader(mp4.VP9ColorSpaceUnknown)
	before := append([]byte(nil), data...)

	require.NoError(t, patchVP9ColorSpace(tr, data, false))
	require.Equal(t, before, data)

	avc := &trackState{kind: mux.KindVideo, codec: mux.CodecAVC, colorSpace: &mux.ColorSpace{Matrix: 1}}
	require.NoError(t, patchVP9ColorSpace(avc, data, true))
	require.Equal(t, before, data)
}
