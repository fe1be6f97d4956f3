// Package mux holds the container-agnostic data model shared by
// pkg/mp4mux and pkg/mkvmux, plus the timestamp-validation front end
// every track's samples pass through before reaching either backend.
package mux

// Codec identifies a track's compression format.
type Codec string

// Supported codecs (§3, §6.2/§6.3 codec-box/CodecID mappings).
const (
	CodecAVC    Codec = "avc"
	CodecHEVC   Codec = "hevc"
	CodecVP8    Codec = "vp8"
	CodecVP9    Codec = "vp9"
	CodecAV1    Codec = "av1"
	CodecAAC    Codec = "aac"
	CodecOpus   Codec = "opus"
	CodecVorbis Codec = "vorbis"
	CodecWebVTT Codec = "webvtt"
)

// ColorSpace is a complete colour description; VP8/VP9 tracks must
// supply one before their first chunk (§4.4.1).
type ColorSpace struct {
	Primaries uint16
	Transfer  uint16
	Matrix    uint16
	FullRange bool
}

// VideoDecoderConfig describes a video track's coded format. Description
// holds the codec's private configuration record (avcC/hvcC/av1C) and
// is required for AVC/HEVC; ColorSpace is required for VP8/VP9.
type VideoDecoderConfig struct {
	Codec       Codec
	Width       uint16
	Height      uint16
	Description []byte
	ColorSpace  *ColorSpace
}

// AudioDecoderConfig describes an audio track's coded format.
// Description is optional except that an Opus description, when
// present, must be at least 18 bytes (the fixed dOps header length).
type AudioDecoderConfig struct {
	Codec            Codec
	SampleRate       uint32
	NumberOfChannels uint16
	Description      []byte
}

// SubtitleConfig carries the WebVTT preamble text captured by the first
// cue block (§4.6); it becomes the track's vttC/CodecPrivate payload.
type SubtitleConfig struct {
	Description string
}

// EncodedUnit is one pre-encoded access unit: a video or audio chunk
// handed to the muxer by an external encoder.
type EncodedUnit struct {
	Data            []byte
	TimestampMicros int64
	DurationMicros  int64
	IsKeyFrame      bool
}

// SubtitleCue is one parsed WebVTT cue (§4.6).
type SubtitleCue struct {
	TimestampMicros int64
	DurationMicros  int64
	Text            string
	Identifier      string
	Settings        string
	Notes           string
}

// Kind identifies what a track carries.
type Kind int

// Track kinds, matching the ISOBMFF handler types and Matroska
// TrackType values they map to.
const (
	KindVideo Kind = iota
	KindAudio
	KindSubtitle
)

// VideoTrackMetadata is supplied with a track's first video chunk.
type VideoTrackMetadata struct {
	DecoderConfig *VideoDecoderConfig
	FrameRate     float64 // frames/sec; sets the track timescale and default sample duration
}

// AudioTrackMetadata is supplied with a track's first audio chunk.
type AudioTrackMetadata struct {
	DecoderConfig *AudioDecoderConfig
}

// SubtitleTrackMetadata is supplied with a track's first cue.
type SubtitleTrackMetadata struct {
	Config *SubtitleConfig
}
