// Package mkvmux assembles Matroska/WebM files from encoded video/audio
// chunks and WebVTT cues: SeekHead/Info/Tracks/Cluster/Cues element
// trees built on top of pkg/ebml's writer and pkg/mux's shared track
// data model, mirroring the layout and bookkeeping pkg/mp4mux applies
// to ISOBMFF (§4.5).
package mkvmux

import (
	"mediamux/pkg/mux"
	"mediamux/pkg/muxerr"
)

// TrackID identifies a track within a Muxer, assigned in AddTrack order
// starting at 1, matching Matroska's TrackNumber/TrackUID convention of
// never reusing a number.
type TrackID = uint32

// clusterSpanMS is the minimum cluster duration, in milliseconds,
// before a key frame is allowed to start a new one (§4.5.3).
const clusterSpanMS = 1_000

// maxClusterSpanMS is the hard limit on how long a cluster may run: a
// block this far or further past the cluster's base that cannot open a
// new cluster makes the call writing it fail, since a block's 16-bit
// signed time offset can't represent more than this (§6.3,
// ebml.MaxChunkLengthMS).
const maxClusterSpanMS = 1 << 15

// Config configures a Muxer.
type Config struct {
	// DocType is "webm" or "matroska"; WebM additionally restricts which
	// codecs AddTrack accepts via Codecs.
	DocType string
	// Streamable writes Segment and each Cluster with EBML's unknown-size
	// marker and skips SeekHead/Duration patching (§4.5.5).
	Streamable bool
	// Codecs, when non-nil, restricts which codecs AddTrack will accept;
	// WebM's {vp8, vp9, av1, opus, vorbis, webvtt} allow-list is expressed
	// this way by the caller.
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

// pendingBlock is one queued unit, awaiting interleaved placement into
// a Cluster once every still-open track has contributed at least one
// (§4.4.7's cross-track interleave rule, applied here to Matroska's
// Cluster boundary rather than MP4's fragment boundary).
type pendingBlock struct {
	data        []byte
	timestampMS int64
	durationMS  int64
	isKeyFrame  bool
	additions   string // joined "settings\nidentifier\nnotes", WebVTT only
}

// trackState is a Muxer's bookkeeping for one track.
type trackState struct {
	id       uint32
	kind     mux.Kind
	codec    mux.Codec
	video    *mux.VideoTrackMetadata
	audio    *mux.AudioTrackMetadata
	subtitle *mux.SubtitleTrackMetadata

	clock mux.TimestampTracker

	closed            bool
	lastWrittenMS     int64
	lastWrittenIsZero bool // true until the first block is written, so the first ReferenceBlock is never emitted

	pending []pendingBlock
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
