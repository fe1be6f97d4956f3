// Package mp4mux assembles ISOBMFF (MP4) files from encoded video/audio
// chunks and WebVTT cues: the streaming, in-memory fast-start and
// fragmented layouts described by the container's external contract,
// built on top of pkg/mp4's box primitives and pkg/mux's shared track
// data model.
package mp4mux

import (
	"mediamux/pkg/mp4"
	"mediamux/pkg/mux"
	"mediamux/pkg/muxerr"
)

// TrackID identifies a track within a Muxer, assigned in AddTrack order
// starting at 1 (ISOBMFF track IDs are 1-based and never reused).
type TrackID = uint32

// Layout selects how the movie box and media data are arranged on the
// wire.
type Layout int

const (
	// LayoutStreaming writes ftyp, then mdat (size patched once known, or
	// left as "extends to EOF" on a non-seekable target), then moov last.
	// Suitable for progressive, non-seekable output.
	LayoutStreaming Layout = iota
	// LayoutFastStart buffers every sample until Finalize, then writes
	// moov before mdat so a player can start decoding after one read.
	// Needs enough memory to hold the whole movie; everything is written
	// sequentially at Finalize with no seek, so any target works. Chunk
	// offsets are measured twice to decide stco vs co64.
	LayoutFastStart
	// LayoutFragmented writes ftyp and a moov carrying mvex, then a
	// sequence of moof+mdat fragments as samples arrive, then a trailing
	// mfra index. Suitable for low-latency or unbounded-length output.
	LayoutFragmented
)

// chunkSpanMicros is the minimum (non-fragmented) chunk duration before
// a new chunk is opened (§4.4.3).
const chunkSpanMicros = 500_000

// fragmentSpanMicros is the minimum fragment duration before
// flushFragment is triggered (§4.4.7).
const fragmentSpanMicros = 1_000_000

// Config configures a Muxer.
type Config struct {
	Layout Layout

	// Codecs, when non-nil, restricts which codecs AddTrack will accept;
	// WebM's codec allow-list is expressed this way by the caller.
	Codecs []mux.Codec
}

// TrackConfig describes a track at AddTrack time. Exactly one of Video,
// Audio or Subtitle must be set, matching Kind.
type TrackConfig struct {
	Kind     mux.Kind
	Codec    mux.Codec
	Video    *mux.VideoTrackMetadata
	Audio    *mux.AudioTrackMetadata
	Subtitle *mux.SubtitleTrackMetadata
}

// sample is one queued access unit, video/audio chunk or synthesized
// WebVTT sample, pending either an immediate mdat write (streaming,
// fragmented) or buffering until Finalize (fast start).
type sample struct {
	data       []byte
	size       uint32
	timestamp  int64 // normalized presentation time, track timescale ticks
	dts        int64 // decode time, track timescale ticks
	durationTS uint32
	cts        int32
	isKeyFrame bool
	offset     int64 // absolute byte offset once written to mdat; -1 until then
}

// chunkState tracks the run of samples currently being accumulated into
// one chunk (non-fragmented layouts only).
type chunkState struct {
	startOffset int64
	startTime   int64
	sampleCount uint32
}

// trackState is a Muxer's bookkeeping for one track.
type trackState struct {
	id       uint32
	kind     mux.Kind
	codec    mux.Codec
	video    *mux.VideoTrackMetadata
	audio    *mux.AudioTrackMetadata
	subtitle *mux.SubtitleTrackMetadata

	colorSpace *mux.ColorSpace
	preamble   string // WebVTT header text, captured from the first cue

	timescale         uint32
	clock             mux.TimestampTracker
	nextDTS           int64 // running decode-time accumulator, track timescale ticks
	chunkSpanTicks    int64
	fragmentSpanTicks int64

	closed bool
	ended  int64 // last sample's end time, track timescale ticks

	stts []mp4.SttsEntry
	ctts []mp4.CttsEntry
	stss []uint32
	stsc []mp4.StscEntry
	stsz []uint32
	stco []int64 // always kept as 64-bit; narrowed to stco/co64 at write time

	chunk *chunkState

	// pending holds samples not yet written (fast start: everything;
	// fragmented: the current, not-yet-flushed fragment).
	pending []sample

	sampleCount uint32
	allSync     bool // true until a non-key-frame sample is seen (audio/subtitle stay true)

	tfra []mp4.TfraEntry
}

func (t *trackState) handlerType() mp4.BoxType {
	switch t.kind {
	case mux.KindVideo:
		return mp4.FourCC("vide")
	case mux.KindAudio:
		return mp4.FourCC("soun")
	default:
		return mp4.FourCC("text")
	}
}

func codecAllowed(cfg Config, codec mux.Codec) error {
	if cfg.Codecs == nil {
		return nil
	}
	for _, c := range cfg.Codecs {
		if c == codec {
			return nil
		}
	}
	return muxerr.New(muxerr.FormatConstraint, "codec %q is not in this output format's allow-list", codec)
}
