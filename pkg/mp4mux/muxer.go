package mp4mux

import (
	"math"

	"mediamux/pkg/iowriter"
	"mediamux/pkg/mp4"
	"mediamux/pkg/mux"
	"mediamux/pkg/muxerr"
)

// Muxer builds one ISOBMFF file from tracks added with AddTrack and
// samples added with AddEncodedVideoChunk / AddEncodedAudioChunk /
// AddSubtitleCue, in whichever Layout its Config selects (§4.4).
type Muxer struct {
	cfg    Config
	target iowriter.Target
	w      *iowriter.Writer
	bw     *mp4.BoxWriter

	tracks []*trackState

	started   bool
	finalized bool

	mdatReservation mp4.Reservation
	mdatReserved    bool

	fragmentSeq uint32
}

// NewMuxer wraps target with the given Config.
func NewMuxer(target iowriter.Target, cfg Config) *Muxer {
	w := iowriter.New(target)
	return &Muxer{
		cfg:    cfg,
		target: target,
		w:      w,
		bw:     mp4.NewBoxWriter(w),
	}
}

// AddTrack registers a track and returns its TrackID. Every track must
// be added before Start, since the fragmented layout's moov (with its
// mvex/trex entries) is written at Start time.
func (m *Muxer) AddTrack(cfg TrackConfig) (TrackID, error) {
	if m.started {
		return 0, muxerr.New(muxerr.LifecycleMisuse, "cannot add a track after Start")
	}
	if err := codecAllowed(m.cfg, cfg.Codec); err != nil {
		return 0, err
	}

	timescale := timescaleFor(cfg)
	t := &trackState{
		id:                uint32(len(m.tracks)) + 1,
		kind:              cfg.Kind,
		codec:             cfg.Codec,
		video:             cfg.Video,
		audio:             cfg.Audio,
		subtitle:          cfg.Subtitle,
		timescale:         timescale,
		allSync:           true,
		chunkSpanTicks:    chunkSpanMicros * int64(timescale) / 1_000_000,
		fragmentSpanTicks: fragmentSpanMicros * int64(timescale) / 1_000_000,
	}
	if cfg.Kind == mux.KindVideo && cfg.Video != nil && cfg.Video.DecoderConfig != nil {
		t.colorSpace = cfg.Video.DecoderConfig.ColorSpace
	}
	m.tracks = append(m.tracks, t)
	return t.id, nil
}

func timescaleFor(cfg TrackConfig) uint32 {
	switch cfg.Kind {
	case mux.KindVideo:
		if cfg.Video != nil && cfg.Video.FrameRate > 0 {
			return uint32(math.Round(cfg.Video.FrameRate))
		}
		return 30
	case mux.KindAudio:
		if cfg.Audio != nil && cfg.Audio.DecoderConfig != nil && cfg.Audio.DecoderConfig.SampleRate > 0 {
			return cfg.Audio.DecoderConfig.SampleRate
		}
		return 44100
	default:
		return 1000
	}
}

// Start writes ftyp (and, for the fragmented layout, the full moov with
// mvex) so the caller can begin adding samples. The fast-start layout
// defers everything to Finalize, since moov must be written before
// mdat and its content isn't known until every sample has arrived.
func (m *Muxer) Start() error {
	if m.started {
		return muxerr.New(muxerr.LifecycleMisuse, "Start called twice")
	}
	m.started = true
	if m.cfg.Layout == LayoutFastStart {
		return nil
	}

	m.bw.WriteBox(&mp4.Boxes{Box: ftypFor(m.cfg.Layout)})

	switch m.cfg.Layout {
	case LayoutStreaming:
		if m.target.Seekable() {
			m.mdatReservation = m.bw.ReserveBox(mp4.FourCC("mdat"), true)
			m.mdatReserved = true
		} else {
			m.bw.WriteUnknownSizeHeader(mp4.FourCC("mdat"))
		}
	case LayoutFragmented:
		moov, err := buildMoov(m.tracks, true)
		if err != nil {
			return err
		}
		m.bw.WriteBox(moov)
	}
	return m.bw.Err()
}

func ftypFor(layout Layout) *mp4.Ftyp {
	if layout == LayoutFragmented {
		return &mp4.Ftyp{
			MajorBrand:   mp4.FourCC("iso5"),
			MinorVersion: 512,
			CompatibleBrands: []mp4.BoxType{
				mp4.FourCC("iso5"), mp4.FourCC("iso6"), mp4.FourCC("mp41"),
			},
		}
	}
	return &mp4.Ftyp{
		MajorBrand:   mp4.FourCC("isom"),
		MinorVersion: 512,
		CompatibleBrands: []mp4.BoxType{
			mp4.FourCC("isom"), mp4.FourCC("iso2"), mp4.FourCC("avc1"), mp4.FourCC("mp41"),
		},
	}
}

func (m *Muxer) track(id TrackID) (*trackState, error) {
	idx := int(id) - 1
	if idx < 0 || idx >= len(m.tracks) {
		return nil, muxerr.New(muxerr.InvalidArgument, "unknown track id %d", id)
	}
	return m.tracks[idx], nil
}

func microsToTicks(micros int64, timescale uint32) int64 {
	return micros * int64(timescale) / 1_000_000
}

// AddEncodedVideoChunk appends one encoded video access unit to track.
func (m *Muxer) AddEncodedVideoChunk(track TrackID, unit mux.EncodedUnit) error {
	t, err := m.requireTrack(track, mux.KindVideo)
	if err != nil {
		return err
	}
	return m.addUnit(t, unit)
}

// AddEncodedAudioChunk appends one encoded audio access unit to track.
func (m *Muxer) AddEncodedAudioChunk(track TrackID, unit mux.EncodedUnit) error {
	t, err := m.requireTrack(track, mux.KindAudio)
	if err != nil {
		return err
	}
	return m.addUnit(t, unit)
}

func (m *Muxer) requireTrack(track TrackID, kind mux.Kind) (*trackState, error) {
	if !m.started {
		return nil, muxerr.New(muxerr.LifecycleMisuse, "samples added before Start")
	}
	if m.finalized {
		return nil, muxerr.New(muxerr.LifecycleMisuse, "samples added after Finalize")
	}
	t, err := m.track(track)
	if err != nil {
		return nil, err
	}
	if t.kind != kind {
		return nil, muxerr.New(muxerr.InvalidArgument, "track %d is not a %v track", track, kind)
	}
	if t.closed {
		return nil, muxerr.New(muxerr.LifecycleMisuse, "track %d was already closed", track)
	}
	return t, nil
}

func (m *Muxer) addUnit(t *trackState, unit mux.EncodedUnit) error {
	ptsMicros, err := t.clock.Normalize(unit.TimestampMicros, unit.IsKeyFrame, true, true)
	if err != nil {
		return err
	}

	if err := patchVP9ColorSpace(t, unit.Data, unit.IsKeyFrame); err != nil {
		return err
	}

	ptsTicks := microsToTicks(ptsMicros, t.timescale)
	durTicks := uint32(microsToTicks(unit.DurationMicros, t.timescale))
	if durTicks == 0 {
		durTicks = 1
	}
	dts := t.nextDTS
	t.nextDTS += int64(durTicks)
	cts := int32(ptsTicks - dts)

	return m.addSample(t, unit.Data, ptsTicks, dts, durTicks, cts, unit.IsKeyFrame)
}

// AddSubtitleCue appends one parsed WebVTT cue to track, synthesizing a
// vtte gap sample first if the cue doesn't immediately follow the
// previous one (§4.4.5).
func (m *Muxer) AddSubtitleCue(track TrackID, cue mux.SubtitleCue) error {
	t, err := m.requireTrack(track, mux.KindSubtitle)
	if err != nil {
		return err
	}
	if t.subtitle != nil && t.subtitle.Config != nil && t.preamble == "" {
		t.preamble = t.subtitle.Config.Description
	}

	ptsMicros, err := t.clock.Normalize(cue.TimestampMicros, true, true, true)
	if err != nil {
		return err
	}
	ptsTicks := microsToTicks(ptsMicros, t.timescale)
	durTicks := uint32(microsToTicks(cue.DurationMicros, t.timescale))
	if durTicks == 0 {
		durTicks = 1
	}

	if gap := ptsTicks - t.ended; t.sampleCount > 0 && gap > 0 {
		if err := m.addSample(t, buildGapSample(), t.ended, t.ended, uint32(gap), 0, true); err != nil {
			return err
		}
	} else if t.sampleCount == 0 && ptsTicks > 0 {
		if err := m.addSample(t, buildGapSample(), 0, 0, uint32(ptsTicks), 0, true); err != nil {
			return err
		}
	}

	data := buildCueSample(cueText{
		text:       cue.Text,
		identifier: cue.Identifier,
		settings:   cue.Settings,
		notes:      cue.Notes,
	})
	return m.addSample(t, data, ptsTicks, ptsTicks, durTicks, 0, true)
}

// OnTrackClose marks a track as finished, so the fragmented layout no
// longer waits on it before flushing a fragment.
func (m *Muxer) OnTrackClose(track TrackID) error {
	t, err := m.track(track)
	if err != nil {
		return err
	}
	t.closed = true
	if m.cfg.Layout == LayoutStreaming {
		closeChunk(t)
	}
	return nil
}

func (m *Muxer) addSample(t *trackState, data []byte, ptsTicks, dts int64, durTicks uint32, cts int32, isKeyFrame bool) error {
	t.stts = appendStts(t.stts, durTicks)
	t.ctts = appendCtts(t.ctts, cts)
	t.sampleCount++
	if !isKeyFrame {
		t.allSync = false
	}
	if isKeyFrame {
		t.stss = append(t.stss, t.sampleCount)
	}
	t.stsz = append(t.stsz, uint32(len(data)))

	end := dts + int64(durTicks)
	if ptsEnd := ptsTicks + int64(durTicks); ptsEnd > end {
		end = ptsEnd
	}
	if end > t.ended {
		t.ended = end
	}

	s := sample{
		data:       data,
		size:       uint32(len(data)),
		timestamp:  ptsTicks,
		dts:        dts,
		durationTS: durTicks,
		cts:        cts,
		isKeyFrame: isKeyFrame,
		offset:     -1,
	}

	switch m.cfg.Layout {
	case LayoutFastStart:
		t.pending = append(t.pending, s)
	case LayoutStreaming:
		m.writeChunkedSample(t, data, ptsTicks)
	case LayoutFragmented:
		t.pending = append(t.pending, s)
		if err := m.maybeFlushFragment(); err != nil {
			return err
		}
	}
	return m.bw.Err()
}

func (m *Muxer) writeChunkedSample(t *trackState, data []byte, ptsTicks int64) {
	if t.chunk == nil {
		t.chunk = &chunkState{startOffset: m.bw.Offset(), startTime: ptsTicks}
	}
	m.bw.WriteRaw(data)
	t.chunk.sampleCount++

	if ptsTicks-t.chunk.startTime >= t.chunkSpanTicks {
		closeChunk(t)
	}
}

func closeChunk(t *trackState) {
	if t.chunk == nil || t.chunk.sampleCount == 0 {
		t.chunk = nil
		return
	}
	t.stco = append(t.stco, t.chunk.startOffset)
	t.stsc = appendStscChunk(t.stsc, uint32(len(t.stco)), t.chunk.sampleCount)
	t.chunk = nil
}

// Finalize closes out whichever layout is active and flushes the
// underlying target. It is an error to call it twice.
func (m *Muxer) Finalize() error {
	if m.finalized {
		return muxerr.New(muxerr.LifecycleMisuse, "Finalize called twice")
	}
	m.finalized = true

	var err error
	switch m.cfg.Layout {
	case LayoutFastStart:
		err = m.finalizeFastStart()
	case LayoutStreaming:
		err = m.finalizeStreaming()
	case LayoutFragmented:
		err = m.finalizeFragmented()
	}
	if err != nil {
		return err
	}
	return m.bw.Finalize()
}

func (m *Muxer) finalizeStreaming() error {
	for _, t := range m.tracks {
		closeChunk(t)
	}
	if m.mdatReserved {
		m.bw.PatchBox(m.mdatReservation)
	}
	moov, err := buildMoov(m.tracks, false)
	if err != nil {
		return err
	}
	m.bw.WriteBox(moov)
	return m.bw.Err()
}

// layoutChunks groups a track's buffered samples into chunks of at
// least chunkSpanTicks duration, returning each chunk's byte offset
// relative to the start of this track's own region of mdat, the
// resulting stsc table, and the region's total byte length.
func layoutChunks(pending []sample, chunkSpanTicks int64) ([]int64, []mp4.StscEntry, int64) {
	var offsets []int64
	var stsc []mp4.StscEntry
	var cur *chunkState
	var rel int64

	for _, s := range pending {
		if cur == nil {
			cur = &chunkState{startOffset: rel, startTime: s.timestamp}
		}
		rel += int64(len(s.data))
		cur.sampleCount++
		if s.timestamp-cur.startTime >= chunkSpanTicks {
			offsets = append(offsets, cur.startOffset)
			stsc = appendStscChunk(stsc, uint32(len(offsets)), cur.sampleCount)
			cur = nil
		}
	}
	if cur != nil && cur.sampleCount > 0 {
		offsets = append(offsets, cur.startOffset)
		stsc = appendStscChunk(stsc, uint32(len(offsets)), cur.sampleCount)
	}
	return offsets, stsc, rel
}

// finalizeFastStart lays every track's buffered samples out track-major
// within mdat, writes moov ahead of mdat, and measures twice to pick up
// a late stco->co64 upgrade (§4.4.2, §8.4 scenario 6).
func (m *Muxer) finalizeFastStart() error {
	localOffsets := make([][]int64, len(m.tracks))
	trackBase := make([]int64, len(m.tracks))
	base := int64(0)

	for i, t := range m.tracks {
		offs, stsc, total := layoutChunks(t.pending, t.chunkSpanTicks)
		localOffsets[i] = offs
		t.stsc = stsc
		trackBase[i] = base
		base += total
	}

	materialize := func(mdatStart int64) {
		for i, t := range m.tracks {
			abs := make([]int64, len(localOffsets[i]))
			for j, lo := range localOffsets[i] {
				abs[j] = mdatStart + trackBase[i] + lo
			}
			t.stco = abs
		}
	}

	ftypTree := &mp4.Boxes{Box: ftypFor(LayoutFastStart)}

	var moov *mp4.Boxes
	mdatStart := int64(0)
	for i := 0; i < 3; i++ {
		materialize(mdatStart)
		var err error
		moov, err = buildMoov(m.tracks, false)
		if err != nil {
			return err
		}
		next := int64(ftypTree.Size()) + int64(moov.Size()) + 8
		if next == mdatStart {
			break
		}
		mdatStart = next
	}

	m.bw.WriteBox(ftypTree)
	m.bw.WriteBox(moov)

	mdatData := make([]byte, 0, base)
	for _, t := range m.tracks {
		for _, s := range t.pending {
			mdatData = append(mdatData, s.data...)
		}
	}
	m.bw.WriteBox(&mp4.Boxes{Box: &mp4.Mdat{Data: mdatData}})
	return m.bw.Err()
}
