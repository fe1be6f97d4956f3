package mp4mux

import (
	"mediamux/pkg/mp4"
	"mediamux/pkg/mux"
)

// vp9ColorSpaceFrom maps a track's declared colour space to the VP9
// bitstream's 3-bit color_space enum (libvpx vp9/common/vp9_enums.h),
// using the same ISO matrix_coefficients values the vpcC/colr boxes are
// built from, so a muxed VP9 track's color_config always agrees with
// what a decoder reads out of the frame itself.
func vp9ColorSpaceFrom(cs *mux.ColorSpace) uint8 {
	if cs == nil {
		return mp4.VP9ColorSpaceUnknown
	}
	switch cs.Matrix {
	case 0: // GBR / identity
		return mp4.VP9ColorSpaceRGB
	case 1: // BT.709
		return mp4.VP9ColorSpaceBT709
	case 6: // BT.601 / SMPTE 170M
		return mp4.VP9ColorSpaceSMPTE170
	case 7: // SMPTE 240M
		return mp4.VP9ColorSpaceSMPTE240
	case 9, 10: // BT.2020 non-constant/constant luminance
		return mp4.VP9ColorSpaceBT2020
	default:
		return mp4.VP9ColorSpaceUnknown
	}
}

// patchVP9ColorSpace rewrites a VP9 key frame's embedded color_space so
// it matches the track's declared colour space (§4.4.1). Non-key frames
// and show_existing_frame repeats carry no color_config and are left
// untouched by mp4.PatchColorSpace itself.
func patchVP9ColorSpace(t *trackState, data []byte, isKeyFrame bool) error {
	if t.kind != mux.KindVideo || t.codec != mux.CodecVP9 || !isKeyFrame || t.colorSpace == nil {
		return nil
	}
	return mp4.PatchColorSpace(data, vp9ColorSpaceFrom(t.colorSpace))
}
