package mediamux

import "mediamux/pkg/mux"

// VideoSink is what a VideoSource pushes encoded chunks into: an
// Output track, wrapped so the source never needs to know its own
// TrackID (§6.1's push contract between an external encoder and the
// muxer).
type VideoSink interface {
	Digest(unit mux.EncodedUnit) error
	Close() error
}

// AudioSink is VideoSink's audio counterpart.
type AudioSink interface {
	Digest(unit mux.EncodedUnit) error
	Close() error
}

// SubtitleSink is VideoSink's WebVTT-cue counterpart.
type SubtitleSink interface {
	Digest(cue mux.SubtitleCue) error
	Close() error
}

// VideoSource is an external collaborator (encoder, network receiver)
// that drives an Output's video track by attaching to a VideoSink.
type VideoSource interface {
	Attach(sink VideoSink)
}

// AudioSource is VideoSource's audio counterpart.
type AudioSource interface {
	Attach(sink AudioSink)
}

// SubtitleSource is VideoSource's subtitle counterpart.
type SubtitleSource interface {
	Attach(sink SubtitleSink)
}

// trackSink implements VideoSink/AudioSink/SubtitleSink against one
// Output track, so a single type serves all three Attach methods.
type trackSink struct {
	output *Output
	track  TrackID
}

func (s trackSink) Digest(unit mux.EncodedUnit) error {
	return s.output.AddEncodedVideoChunk(s.track, unit)
}

func (s trackSink) Close() error {
	return s.output.OnTrackClose(s.track)
}

type audioTrackSink struct{ trackSink }

func (s audioTrackSink) Digest(unit mux.EncodedUnit) error {
	return s.output.AddEncodedAudioChunk(s.track, unit)
}

type subtitleTrackSink struct{ trackSink }

func (s subtitleTrackSink) Digest(cue mux.SubtitleCue) error {
	return s.output.AddSubtitleCue(s.track, cue)
}

// VideoSinkFor returns the VideoSink a VideoSource should Attach to for
// track, i.e. the glue between an external video producer and this
// Output.
func (o *Output) VideoSinkFor(track TrackID) VideoSink {
	return trackSink{output: o, track: track}
}

// AudioSinkFor returns the AudioSink an AudioSource should Attach to
// for track.
func (o *Output) AudioSinkFor(track TrackID) AudioSink {
	return audioTrackSink{trackSink{output: o, track: track}}
}

// SubtitleSinkFor returns the SubtitleSink a SubtitleSource should
// Attach to for track.
func (o *Output) SubtitleSinkFor(track TrackID) SubtitleSink {
	return subtitleTrackSink{trackSink{output: o, track: track}}
}

// PushVideoSource is a VideoSource whose caller pushes chunks directly
// (Push) rather than the source pulling from some upstream itself —
// the common case of an encoder callback handing chunks to mediamux
// one at a time.
type PushVideoSource struct {
	sink VideoSink
}

// Attach implements VideoSource.
func (s *PushVideoSource) Attach(sink VideoSink) { s.sink = sink }

// Push forwards unit to the attached sink, or is a no-op before Attach.
func (s *PushVideoSource) Push(unit mux.EncodedUnit) error {
	if s.sink == nil {
		return nil
	}
	return s.sink.Digest(unit)
}

// Close closes the attached sink's track, or is a no-op before Attach.
func (s *PushVideoSource) Close() error {
	if s.sink == nil {
		return nil
	}
	return s.sink.Close()
}

// PushAudioSource is PushVideoSource's audio counterpart.
type PushAudioSource struct {
	sink AudioSink
}

// Attach implements AudioSource.
func (s *PushAudioSource) Attach(sink AudioSink) { s.sink = sink }

// Push forwards unit to the attached sink, or is a no-op before Attach.
func (s *PushAudioSource) Push(unit mux.EncodedUnit) error {
	if s.sink == nil {
		return nil
	}
	return s.sink.Digest(unit)
}

// Close closes the attached sink's track, or is a no-op before Attach.
func (s *PushAudioSource) Close() error {
	if s.sink == nil {
		return nil
	}
	return s.sink.Close()
}

// PushSubtitleSource is PushVideoSource's WebVTT-cue counterpart.
type PushSubtitleSource struct {
	sink SubtitleSink
}

// Attach implements SubtitleSource.
func (s *PushSubtitleSource) Attach(sink SubtitleSink) { s.sink = sink }

// Push forwards cue to the attached sink, or is a no-op before Attach.
func (s *PushSubtitleSource) Push(cue mux.SubtitleCue) error {
	if s.sink == nil {
		return nil
	}
	return s.sink.Digest(cue)
}

// Close closes the attached sink's track, or is a no-op before Attach.
func (s *PushSubtitleSource) Close() error {
	if s.sink == nil {
		return nil
	}
	return s.sink.Close()
}
