package mkvmux

import (
	"mediamux/pkg/ebml"
	"mediamux/pkg/mux"
	"mediamux/pkg/muxerr"
)

// codecIDs maps mux.Codec to Matroska's fixed CodecID string (§4.5.2).
var codecIDs = map[mux.Codec]string{
	mux.CodecAVC:     "V_MPEG4/ISO/AVC",
	mux.CodecHEVC:    "V_MPEGH/ISO/HEVC",
	mux.CodecVP8:     "V_VP8",
	mux.CodecVP9:     "V_VP9",
	mux.CodecAV1:     "V_AV1",
	mux.CodecAAC:     "A_AAC",
	mux.CodecOpus:    "A_OPUS",
	mux.CodecVorbis:  "A_VORBIS",
	mux.CodecWebVTT:  "D_WEBVTT/SUBTITLES",
}

// matroskaColourFromSpace maps a complete colour space to a Colour
// element the same way pkg/mp4mux's vpcCFromColorSpace feeds vpcC/colr,
// so a track's declared colour space never disagrees across containers
// (Design Notes #3).
func matroskaColourFromSpace(cs *mux.ColorSpace) *ebml.Element {
	if cs == nil {
		return nil
	}
	fullRange := uint64(0)
	if cs.FullRange {
		fullRange = 1
	}
	return ebml.MasterElement(ebml.IDColour,
		ebml.UIntElement(ebml.IDMatrixCoefficients, uint64(cs.Matrix)),
		ebml.UIntElement(ebml.IDRange, fullRange),
		ebml.UIntElement(ebml.IDTransferChar, uint64(cs.Transfer)),
		ebml.UIntElement(ebml.IDPrimaries, uint64(cs.Primaries)),
	)
}

// buildTrackEntry assembles one TrackEntry: TrackNumber/TrackUID=id,
// TrackType, CodecID, optional CodecPrivate, optional DefaultDuration
// for video with a known frame rate, and the Video or Audio element.
func buildTrackEntry(t *trackState) (*ebml.Element, error) {
	codecID, ok := codecIDs[t.codec]
	if !ok {
		return nil, muxerr.New(muxerr.InvalidArgument, "track %d: unsupported codec %q", t.id, t.codec)
	}

	var trackType uint64
	switch t.kind {
	case mux.KindVideo:
		trackType = ebml.TrackTypeVideo
	case mux.KindAudio:
		trackType = ebml.TrackTypeAudio
	default:
		trackType = ebml.TrackTypeSubtitle
	}

	children := []*ebml.Element{
		ebml.UIntElement(ebml.IDTrackNumber, uint64(t.id)),
		ebml.UIntElement(ebml.IDTrackUID, uint64(t.id)),
		ebml.UIntElement(ebml.IDTrackType, trackType),
		ebml.ASCIIElement(ebml.IDCodecID, codecID),
	}

	switch t.kind {
	case mux.KindVideo:
		cfg := t.video.DecoderConfig
		if cfg == nil {
			return nil, muxerr.New(muxerr.DescriptorRequired, "track %d: video track requires a decoder config", t.id)
		}
		if requiresDescription(t.codec) && len(cfg.Description) == 0 {
			return nil, muxerr.New(muxerr.DescriptorRequired, "track %d: %s track requires a codec description", t.id, t.codec)
		}
		if requiresColorSpace(t.codec) && cfg.ColorSpace == nil {
			return nil, muxerr.New(muxerr.DescriptorRequired, "track %d: %s track requires a complete colorSpace", t.id, t.codec)
		}
		if len(cfg.Description) > 0 {
			children = append(children, ebml.BinaryElement(ebml.IDCodecPrivate, cfg.Description))
		}
		if t.video.FrameRate > 0 {
			children = append(children, ebml.UIntElement(ebml.IDDefaultDuration, uint64(1_000_000_000/t.video.FrameRate)))
		}
		videoChildren := []*ebml.Element{
			ebml.UIntElement(ebml.IDPixelWidth, uint64(cfg.Width)),
			ebml.UIntElement(ebml.IDPixelHeight, uint64(cfg.Height)),
		}
		if colour := matroskaColourFromSpace(cfg.ColorSpace); colour != nil {
			videoChildren = append(videoChildren, colour)
		}
		children = append(children, ebml.MasterElement(ebml.IDVideo, videoChildren...))

	case mux.KindAudio:
		cfg := t.audio.DecoderConfig
		if cfg == nil {
			return nil, muxerr.New(muxerr.DescriptorRequired, "track %d: audio track requires a decoder config", t.id)
		}
		if t.codec == mux.CodecOpus && len(cfg.Description) > 0 && len(cfg.Description) < 18 {
			return nil, muxerr.New(muxerr.DescriptorRequired, "track %d: opus description must be at least 18 bytes (got %d)", t.id, len(cfg.Description))
		}
		if len(cfg.Description) > 0 {
			children = append(children, ebml.BinaryElement(ebml.IDCodecPrivate, cfg.Description))
		}
		children = append(children, ebml.MasterElement(ebml.IDAudio,
			ebml.Float32Element(ebml.IDSamplingFrequency, float32(cfg.SampleRate)),
			ebml.UIntElement(ebml.IDChannels, uint64(cfg.NumberOfChannels)),
		))

	case mux.KindSubtitle:
		if t.subtitle == nil || t.subtitle.Config == nil || t.subtitle.Config.Description == "" {
			return nil, muxerr.New(muxerr.DescriptorRequired, "track %d: webvtt track requires a preamble description", t.id)
		}
		children = append(children, ebml.BinaryElement(ebml.IDCodecPrivate, []byte(t.subtitle.Config.Description)))
	}

	return ebml.MasterElement(ebml.IDTrackEntry, children...), nil
}

func requiresDescription(codec mux.Codec) bool {
	return codec == mux.CodecAVC || codec == mux.CodecHEVC
}

func requiresColorSpace(codec mux.Codec) bool {
	return codec == mux.CodecVP8 || codec == mux.CodecVP9
}

// buildTracks assembles the Tracks master element from every registered
// track, in AddTrack order.
func buildTracks(tracks []*trackState) (*ebml.Element, error) {
	entries := make([]*ebml.Element, 0, len(tracks))
	for _, t := range tracks {
		entry, err := buildTrackEntry(t)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return ebml.MasterElement(ebml.IDTracks, entries...), nil
}
