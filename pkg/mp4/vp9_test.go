package mp4

import (
	"bytes"
	"testing"

	"github.com/icza/bitio"
	"github.com/stretchr/testify/require"
)

// buildVP9KeyFrameHeader constructs a minimal profile-0 VP9 key frame
// uncompressed header carrying the given color_space, followed by a few
// bytes of don't-care tail so bit-level patching has room to operate
// without running past the buffer.
func buildVP9KeyFrameHeader(t *testing.T, colorSpace uint8) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)

	require.NoError(t, w.WriteBits(0b10, 2)) // frame_marker
	require.NoError(t, w.WriteBits(0, 1))    // profile_low
	require.NoError(t, w.WriteBits(0, 1))    // profile_high (profile 0)
	require.NoError(t, w.WriteBits(0, 1))    // show_existing_frame
	require.NoError(t, w.WriteBits(0, 1))    // frame_type = KEY_FRAME
	require.NoError(t, w.WriteBits(1, 1))    // show_frame
	require.NoError(t, w.WriteBits(0, 1))    // error_resilient_mode
	require.NoError(t, w.WriteBits(vp9FrameSyncCode, 24))
	require.NoError(t, w.WriteBits(uint64(colorSpace), 3))
	// color_range + subsampling/reserved padding, then some trailing bytes.
	require.NoError(t, w.WriteBits(0, 5))
	require.NoError(t, w.Close())

	buf.Write([]byte{0xAA, 0xBB, 0xCC, 0xDD})
	return buf.Bytes()
}

func TestParseVP9FrameHeaderLocatesColorSpace(t *testing.T) {
	frame := buildVP9KeyFrameHeader(t, VP9ColorSpaceBT709)

	info, err := ParseVP9FrameHeader(frame)
	require.NoError(t, err)
	require.True(t, info.HasColorConfig)
	require.EqualValues(t, 0, info.Profile)
	require.Equal(t, 2+1+1+1+1+1+1+24, info.ColorSpaceBitOff)
}

func TestPatchColorSpaceRewritesField(t *testing.T) {
	frame := buildVP9KeyFrameHeader(t, VP9ColorSpaceUnknown)

	require.NoError(t, PatchColorSpace(frame, VP9ColorSpaceBT2020))

	info, err := ParseVP9FrameHeader(frame)
	require.NoError(t, err)
	r := bitio.NewReader(bytes.NewReader(frame))
	_, _ = r.ReadBits(uint8(info.ColorSpaceBitOff))
	got, err := r.ReadBits(3)
	require.NoError(t, err)
	require.EqualValues(t, VP9ColorSpaceBT2020, got)
}

func TestPatchColorSpaceIdempotent(t *testing.T) {
	frame := buildVP9KeyFrameHeader(t, VP9ColorSpaceBT601)

	require.NoError(t, PatchColorSpace(frame, VP9ColorSpaceBT601))
	first := append([]byte(nil), frame...)
	require.NoError(t, PatchColorSpace(frame, VP9ColorSpaceBT601))
	require.Equal(t, first, frame)
}

func TestPatchColorSpaceSkipsNonKeyFrame(t *testing.T) {
	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	require.NoError(t, w.WriteBits(0b10, 2)) // frame_marker
	require.NoError(t, w.WriteBits(0, 1))    // profile_low
	require.NoError(t, w.WriteBits(0, 1))    // profile_high
	require.NoError(t, w.WriteBits(0, 1))    // show_existing_frame
	require.NoError(t, w.WriteBits(1, 1))    // frame_type = NON_KEY_FRAME
	require.NoError(t, w.WriteBits(1, 1))    // show_frame
	require.NoError(t, w.WriteBits(0, 1))    // error_resilient_mode
	require.NoError(t, w.WriteBits(0, 8))    // padding
	require.NoError(t, w.Close())

	frame := buf.Bytes()
	before := append([]byte(nil), frame...)
	require.NoError(t, PatchColorSpace(frame, VP9ColorSpaceBT709))
	require.Equal(t, before, frame)
}
