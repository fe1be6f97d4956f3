package mediamux

import (
	"mediamux/pkg/iowriter"
	"mediamux/pkg/mkvmux"
	"mediamux/pkg/mp4mux"
	"mediamux/pkg/mux"
)

// FastStart selects an MP4 layout strategy (§4.4.2).
type FastStart string

// FastStart values. The zero value, FastStartNone, is the streaming
// layout: single mdat, moov at the end.
const (
	FastStartNone       FastStart = ""
	FastStartInMemory   FastStart = "in-memory"
	FastStartFragmented FastStart = "fragmented"
)

// OutputFormat selects which container back-end an Output drives, and
// any format-specific options. It is implemented only by the three
// variants below; the set is closed.
type OutputFormat interface {
	newMuxer(target iowriter.Target) backend
}

// Mp4OutputFormat drives pkg/mp4mux.
type Mp4OutputFormat struct {
	FastStart FastStart
}

func (f Mp4OutputFormat) newMuxer(target iowriter.Target) backend {
	layout := mp4mux.LayoutStreaming
	switch f.FastStart {
	case FastStartInMemory:
		layout = mp4mux.LayoutFastStart
	case FastStartFragmented:
		layout = mp4mux.LayoutFragmented
	}
	return &mp4Backend{m: mp4mux.NewMuxer(target, mp4mux.Config{Layout: layout})}
}

// MkvOutputFormat drives pkg/mkvmux with DocType "matroska" and no
// codec restriction.
type MkvOutputFormat struct {
	Streamable bool
}

func (f MkvOutputFormat) newMuxer(target iowriter.Target) backend {
	return &mkvBackend{m: mkvmux.NewMuxer(target, mkvmux.Config{
		DocType:    "matroska",
		Streamable: f.Streamable,
	})}
}

// WebMOutputFormat drives pkg/mkvmux with DocType "webm" and WebM's
// fixed codec allow-list (§6.1).
type WebMOutputFormat struct {
	Streamable bool
}

var webmCodecs = []mux.Codec{
	mux.CodecVP8, mux.CodecVP9, mux.CodecAV1, mux.CodecOpus, mux.CodecVorbis, mux.CodecWebVTT,
}

func (f WebMOutputFormat) newMuxer(target iowriter.Target) backend {
	return &mkvBackend{m: mkvmux.NewMuxer(target, mkvmux.Config{
		DocType:    "webm",
		Streamable: f.Streamable,
		Codecs:     webmCodecs,
	})}
}

// backend is the narrow surface Output needs from either format
// back-end; mp4Backend and mkvBackend adapt pkg/mp4mux.Muxer and
// pkg/mkvmux.Muxer to it.
type backend interface {
	AddTrack(kind mux.Kind, codec mux.Codec, video *mux.VideoTrackMetadata, audio *mux.AudioTrackMetadata, subtitle *mux.SubtitleTrackMetadata) (uint32, error)
	Start() error
	AddEncodedVideoChunk(track uint32, unit mux.EncodedUnit) error
	AddEncodedAudioChunk(track uint32, unit mux.EncodedUnit) error
	AddSubtitleCue(track uint32, cue mux.SubtitleCue) error
	OnTrackClose(track uint32) error
	Finalize() error
}

type mp4Backend struct{ m *mp4mux.Muxer }

func (b *mp4Backend) AddTrack(kind mux.Kind, codec mux.Codec, video *mux.VideoTrackMetadata, audio *mux.AudioTrackMetadata, subtitle *mux.SubtitleTrackMetadata) (uint32, error) {
	return b.m.AddTrack(mp4mux.TrackConfig{Kind: kind, Codec: codec, Video: video, Audio: audio, Subtitle: subtitle})
}
func (b *mp4Backend) Start() error { return b.m.Start() }
func (b *mp4Backend) AddEncodedVideoChunk(track uint32, unit mux.EncodedUnit) error {
	return b.m.AddEncodedVideoChunk(track, unit)
}
func (b *mp4Backend) AddEncodedAudioChunk(track uint32, unit mux.EncodedUnit) error {
	return b.m.AddEncodedAudioChunk(track, unit)
}
func (b *mp4Backend) AddSubtitleCue(track uint32, cue mux.SubtitleCue) error {
	return b.m.AddSubtitleCue(track, cue)
}
func (b *mp4Backend) OnTrackClose(track uint32) error { return b.m.OnTrackClose(track) }
func (b *mp4Backend) Finalize() error                 { return b.m.Finalize() }

type mkvBackend struct{ m *mkvmux.Muxer }

func (b *mkvBackend) AddTrack(kind mux.Kind, codec mux.Codec, video *mux.VideoTrackMetadata, audio *mux.AudioTrackMetadata, subtitle *mux.SubtitleTrackMetadata) (uint32, error) {
	return b.m.AddTrack(mkvmux.TrackConfig{Kind: kind, Codec: codec, Video: video, Audio: audio, Subtitle: subtitle})
}
func (b *mkvBackend) Start() error { return b.m.Start() }
func (b *mkvBackend) AddEncodedVideoChunk(track uint32, unit mux.EncodedUnit) error {
	return b.m.AddEncodedVideoChunk(track, unit)
}
func (b *mkvBackend) AddEncodedAudioChunk(track uint32, unit mux.EncodedUnit) error {
	return b.m.AddEncodedAudioChunk(track, unit)
}
func (b *mkvBackend) AddSubtitleCue(track uint32, cue mux.SubtitleCue) error {
	return b.m.AddSubtitleCue(track, cue)
}
func (b *mkvBackend) OnTrackClose(track uint32) error { return b.m.OnTrackClose(track) }
func (b *mkvBackend) Finalize() error                 { return b.m.Finalize() }
