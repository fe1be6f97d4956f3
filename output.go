package mediamux

import (
	"sync"

	"mediamux/pkg/iowriter"
	"mediamux/pkg/mux"
	"mediamux/pkg/muxerr"
)

// TrackID identifies a track within an Output, assigned in add-order
// starting at 1.
type TrackID = uint32

// usedTargets enforces that a Target is bound to at most one Output
// (§4.1): targets own mutable write-position state, and driving two
// muxers at a Target concurrently would interleave their bytes.
var (
	usedTargetsMu sync.Mutex
	usedTargets   = map[iowriter.Target]bool{}
)

func claimTarget(target iowriter.Target) error {
	usedTargetsMu.Lock()
	defer usedTargetsMu.Unlock()
	if usedTargets[target] {
		return muxerr.New(muxerr.LifecycleMisuse, "target is already bound to another Output")
	}
	usedTargets[target] = true
	return nil
}

// Output is the root façade: bind a Target and an OutputFormat, add
// tracks, then Start and feed chunks until Finalize (§6.1).
type Output struct {
	backend   backend
	started   bool
	finalized bool
}

// NewOutput binds target to format, claiming target for exclusive use.
func NewOutput(target Target, format OutputFormat) (*Output, error) {
	if err := claimTarget(target); err != nil {
		return nil, err
	}
	return &Output{backend: format.newMuxer(target)}, nil
}

// AddVideoTrack registers a video track. Must be called before Start.
func (o *Output) AddVideoTrack(codec mux.Codec, meta mux.VideoTrackMetadata) (TrackID, error) {
	if o.started {
		return 0, muxerr.New(muxerr.LifecycleMisuse, "cannot add a track after Start")
	}
	return o.backend.AddTrack(mux.KindVideo, codec, &meta, nil, nil)
}

// AddAudioTrack registers an audio track. Must be called before Start.
func (o *Output) AddAudioTrack(codec mux.Codec, meta mux.AudioTrackMetadata) (TrackID, error) {
	if o.started {
		return 0, muxerr.New(muxerr.LifecycleMisuse, "cannot add a track after Start")
	}
	return o.backend.AddTrack(mux.KindAudio, codec, nil, &meta, nil)
}

// AddSubtitleTrack registers a WebVTT subtitle track. Must be called
// before Start.
func (o *Output) AddSubtitleTrack(meta mux.SubtitleTrackMetadata) (TrackID, error) {
	if o.started {
		return 0, muxerr.New(muxerr.LifecycleMisuse, "cannot add a track after Start")
	}
	return o.backend.AddTrack(mux.KindSubtitle, mux.CodecWebVTT, nil, nil, &meta)
}

// Start closes track registration and writes the container header. No
// further tracks may be added afterward.
func (o *Output) Start() error {
	if o.started {
		return muxerr.New(muxerr.LifecycleMisuse, "Start called twice")
	}
	o.started = true
	return o.backend.Start()
}

// AddEncodedVideoChunk appends one encoded video access unit to track.
func (o *Output) AddEncodedVideoChunk(track TrackID, unit mux.EncodedUnit) error {
	return o.backend.AddEncodedVideoChunk(track, unit)
}

// AddEncodedAudioChunk appends one encoded audio access unit to track.
func (o *Output) AddEncodedAudioChunk(track TrackID, unit mux.EncodedUnit) error {
	return o.backend.AddEncodedAudioChunk(track, unit)
}

// AddSubtitleCue appends one parsed WebVTT cue to track.
func (o *Output) AddSubtitleCue(track TrackID, cue mux.SubtitleCue) error {
	return o.backend.AddSubtitleCue(track, cue)
}

// OnTrackClose marks track as finished, letting the muxer flush any
// units it was withholding only to decide that track's boundaries.
func (o *Output) OnTrackClose(track TrackID) error {
	return o.backend.OnTrackClose(track)
}

// Finalize flushes all pending data and writes the container's trailer
// or patches its header, per the chosen format and layout. An Output
// must not be used afterward.
func (o *Output) Finalize() error {
	if o.finalized {
		return muxerr.New(muxerr.LifecycleMisuse, "Finalize called twice")
	}
	o.finalized = true
	return o.backend.Finalize()
}
