package mp4

import (
	"bytes"

	"github.com/icza/bitio"

	"mediamux/pkg/muxerr"
)

// VP9 color_space values, libvpx's vp9/common/vp9_enums.h ordering.
const (
	VP9ColorSpaceUnknown  = 0
	VP9ColorSpaceBT601    = 1
	VP9ColorSpaceBT709    = 2
	VP9ColorSpaceSMPTE170 = 3
	VP9ColorSpaceSMPTE240 = 4
	VP9ColorSpaceBT2020   = 5
	VP9ColorSpaceReserved = 6
	VP9ColorSpaceRGB      = 7
)

const vp9FrameSyncCode = 0x498342

// VP9FrameInfo is what PatchColorSpace needs to know about a frame's
// uncompressed header: whether it carries a color_config at all (only
// key frames that aren't a show_existing_frame repeat do), and where
// the 3-bit color_space field starts.
type VP9FrameInfo struct {
	Profile          uint8
	HasColorConfig   bool
	ColorSpaceBitOff int
}

// ParseVP9FrameHeader walks just far enough into a VP9 uncompressed
// frame header to locate the color_space field, per the bitstream
// syntax in the VP9 Bitstream & Decoding Process Specification §6.2.
func ParseVP9FrameHeader(frame []byte) (VP9FrameInfo, error) {
	if len(frame) < 3 {
		return VP9FrameInfo{}, muxerr.New(muxerr.InvalidArgument, "vp9 frame too short: %d bytes", len(frame))
	}

	r := bitio.NewReader(bytes.NewReader(frame))
	bitsRead := 0
	read := func(n uint8) uint64 {
		v, err := r.ReadBits(n)
		if err != nil {
			panic(err) // recovered by the defer below; frame is short/corrupt
		}
		bitsRead += int(n)
		return v
	}

	var info VP9FrameInfo
	err := func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = muxerr.New(muxerr.InvalidArgument, "vp9 frame header truncated")
			}
		}()

		frameMarker := read(2)
		if frameMarker != 0b10 {
			return muxerr.New(muxerr.InvalidArgument, "not a vp9 frame (bad frame_marker)")
		}
		profileLow := read(1)
		profileHigh := read(1)
		profile := uint8(profileHigh<<1 | profileLow)
		if profile == 3 {
			read(1) // reserved_zero
		}
		info.Profile = profile

		showExistingFrame := read(1)
		if showExistingFrame == 1 {
			read(3) // frame_to_show_map_idx
			return nil
		}

		frameType := read(1)
		read(1) // show_frame
		read(1) // error_resilient_mode

		if frameType != 0 { // not KEY_FRAME: no color_config here
			return nil
		}

		syncCode := read(24)
		if syncCode != vp9FrameSyncCode {
			return muxerr.New(muxerr.InvalidArgument, "vp9 key frame missing sync code")
		}

		if profile >= 2 {
			read(1) // ten_or_twelve_bit
		}
		info.HasColorConfig = true
		info.ColorSpaceBitOff = bitsRead
		return nil
	}()
	if err != nil {
		return VP9FrameInfo{}, err
	}
	return info, nil
}

// PatchColorSpace overwrites the 3-bit color_space field of a VP9 key
// frame's uncompressed header in place with colorSpace, so a muxed
// track's declared color space always matches what decoders read out of
// the bitstream itself. It is idempotent: writing the same value twice
// leaves the frame unchanged. Frames without a color_config (non-key
// frames, show_existing_frame repeats) are left untouched.
func PatchColorSpace(frame []byte, colorSpace uint8) error {
	info, err := ParseVP9FrameHeader(frame)
	if err != nil {
		return err
	}
	if !info.HasColorConfig {
		return nil
	}
	setBits(frame, info.ColorSpaceBitOff, 3, uint64(colorSpace&0b111))
	return nil
}

// setBits writes the low nbits of value into data starting at bitOffset
// (0 = the MSB of data[0]), most-significant-bit first, matching VP9's
// bitstream bit order.
func setBits(data []byte, bitOffset, nbits int, value uint64) {
	for i := 0; i < nbits; i++ {
		bit := (value >> uint(nbits-1-i)) & 1
		byteIdx := (bitOffset + i) / 8
		bitIdx := 7 - (bitOffset+i)%8
		if bit == 1 {
			data[byteIdx] |= 1 << uint(bitIdx)
		} else {
			data[byteIdx] &^= 1 << uint(bitIdx)
		}
	}
}
