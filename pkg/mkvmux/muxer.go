package mkvmux

import (
	"mediamux/pkg/ebml"
	"mediamux/pkg/iowriter"
	"mediamux/pkg/mux"
	"mediamux/pkg/muxerr"
)

// clusterState is the Cluster currently accepting blocks.
type clusterState struct {
	startOffset     int64 // absolute offset of the Cluster element's own header
	baseMS          int64
	reservation     ebml.Reservation
	reserved        bool
	tracksInCluster map[uint32]bool
}

// cuePoint is one (cluster, track) pair contributed to Cues (§4.5.3).
type cuePoint struct {
	timeMS     int64
	trackID    uint32
	clusterPos uint64
}

// Muxer builds one Matroska/WebM file from tracks added with AddTrack
// and samples added with AddEncodedVideoChunk / AddEncodedAudioChunk /
// AddSubtitleCue (§4.5).
type Muxer struct {
	cfg    Config
	target iowriter.Target
	w      *iowriter.Writer
	ew     *ebml.Writer

	tracks []*trackState

	started   bool
	finalized bool

	segmentDataStart   int64
	segmentReservation ebml.Reservation

	seekPositions         map[uint32]int64 // element ID -> SeekHead SeekPos payload offset
	durationPayloadOffset int64
	haveDuration          bool

	tracksWritten bool

	cluster *clusterState
	cues    []cuePoint

	maxEndedMS int64
}

// NewMuxer wraps target with the given Config.
func NewMuxer(target iowriter.Target, cfg Config) *Muxer {
	w := iowriter.New(target)
	return &Muxer{cfg: cfg, target: target, w: w, ew: ebml.NewWriter(w)}
}

// AddTrack registers a track and returns its TrackID.
func (m *Muxer) AddTrack(cfg TrackConfig) (TrackID, error) {
	if m.started {
		return 0, muxerr.New(muxerr.LifecycleMisuse, "cannot add a track after Start")
	}
	if err := codecAllowed(m.cfg, cfg.Codec); err != nil {
		return 0, err
	}
	t := &trackState{
		id:                uint32(len(m.tracks)) + 1,
		kind:              cfg.Kind,
		codec:             cfg.Codec,
		video:             cfg.Video,
		audio:             cfg.Audio,
		subtitle:          cfg.Subtitle,
		lastWrittenIsZero: true,
	}
	m.tracks = append(m.tracks, t)
	return t.id, nil
}

// Start writes the EBML header, opens Segment, and (non-streamable)
// reserves SeekHead and writes Info with a Duration placeholder.
// Tracks is deferred until the first block (§4.5.1/§4.5.2).
func (m *Muxer) Start() error {
	if m.started {
		return muxerr.New(muxerr.LifecycleMisuse, "Start called twice")
	}
	m.started = true

	docType := m.cfg.DocType
	if docType == "" {
		docType = "matroska"
	}
	m.ew.WriteElement(ebml.MasterElement(ebml.IDEBML,
		ebml.UIntElement(ebml.IDEBMLVersion, 1),
		ebml.UIntElement(ebml.IDEBMLReadVersion, 1),
		ebml.UIntElement(ebml.IDEBMLMaxIDLength, 4),
		ebml.UIntElement(ebml.IDEBMLMaxSizeLength, 8),
		ebml.ASCIIElement(ebml.IDDocType, docType),
		ebml.UIntElement(ebml.IDDocTypeVersion, 2),
		ebml.UIntElement(ebml.IDDocTypeReadVersion, 2),
	))

	if m.cfg.Streamable {
		m.ew.WriteUnknownSizeHeader(ebml.IDSegment)
	} else {
		m.segmentReservation = m.ew.ReserveElement(ebml.IDSegment)
	}
	m.segmentDataStart = m.ew.Offset()

	if !m.cfg.Streamable {
		m.writeSeekHeadPlaceholder()
	}
	m.writeInfo()
	return m.ew.Err()
}

// writeSeekHeadPlaceholder reserves a Seek entry per SeekHead target
// (Info, Tracks, Cues) with a zeroed 8-byte SeekPos, patched in later
// via patchSeek once each target's real offset is known (§4.3, §4.5.5).
func (m *Muxer) writeSeekHeadPlaceholder() {
	m.seekPositions = make(map[uint32]int64, 3)
	r := m.ew.ReserveElement(ebml.IDSeekHead)
	for _, id := range []uint32{ebml.IDInfo, ebml.IDTracks, ebml.IDCues} {
		er := m.ew.ReserveElement(ebml.IDSeek)
		m.ew.WriteElement(ebml.BinaryElement(ebml.IDSeekID, ebml.EncodeID(id)))
		payloadHeaderWidth := ebml.IDWidth(ebml.IDSeekPos) + 1 // varint width for an 8-byte value is always 1
		entryStart := m.ew.Offset()
		m.ew.WriteElement(ebml.FixedUIntElement(ebml.IDSeekPos, 0, 8))
		m.seekPositions[id] = entryStart + int64(payloadHeaderWidth)
		m.ew.PatchElementSize(er)
	}
	m.ew.PatchElementSize(r)
}

func (m *Muxer) writeInfo() {
	infoOffset := m.ew.Offset()
	r := m.ew.ReserveElement(ebml.IDInfo)
	m.ew.WriteElement(ebml.UIntElement(ebml.IDTimestampScale, 1_000_000))
	m.ew.WriteElement(ebml.ASCIIElement(ebml.IDMuxingApp, "mediamux"))
	m.ew.WriteElement(ebml.ASCIIElement(ebml.IDWritingApp, "mediamux"))
	if !m.cfg.Streamable {
		durationHeaderWidth := ebml.IDWidth(ebml.IDDuration) + 1
		m.durationPayloadOffset = m.ew.Offset() + int64(durationHeaderWidth)
		m.ew.WriteElement(ebml.Float64Element(ebml.IDDuration, 0))
		m.haveDuration = true
	}
	m.ew.PatchElementSize(r)
	if !m.cfg.Streamable {
		m.patchSeek(ebml.IDInfo, infoOffset)
	}
}

func (m *Muxer) patchSeek(id uint32, elementOffset int64) {
	payloadOffset, ok := m.seekPositions[id]
	if !ok {
		return
	}
	m.ew.PatchUint64At(payloadOffset, uint64(elementOffset-m.segmentDataStart))
}

// ensureTracksWritten materializes Tracks the first time it's about to
// be needed, i.e. just before the first block of any track is written,
// so every track's decoder config (already known from AddTrack) lands
// in a single element (§4.5.2).
func (m *Muxer) ensureTracksWritten() error {
	if m.tracksWritten {
		return nil
	}
	m.tracksWritten = true
	tracksOffset := m.ew.Offset()
	tree, err := buildTracks(m.tracks)
	if err != nil {
		return err
	}
	m.ew.WriteElement(tree)
	if !m.cfg.Streamable {
		m.patchSeek(ebml.IDTracks, tracksOffset)
	}
	return m.ew.Err()
}

func (m *Muxer) track(id TrackID) (*trackState, error) {
	idx := int(id) - 1
	if idx < 0 || idx >= len(m.tracks) {
		return nil, muxerr.New(muxerr.InvalidArgument, "unknown track id %d", id)
	}
	return m.tracks[idx], nil
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

// AddEncodedVideoChunk appends one encoded video access unit to track.
func (m *Muxer) AddEncodedVideoChunk(track TrackID, unit mux.EncodedUnit) error {
	t, err := m.requireTrack(track, mux.KindVideo)
	if err != nil {
		return err
	}
	return m.addUnit(t, unit, "")
}

// AddEncodedAudioChunk appends one encoded audio access unit to track.
func (m *Muxer) AddEncodedAudioChunk(track TrackID, unit mux.EncodedUnit) error {
	t, err := m.requireTrack(track, mux.KindAudio)
	if err != nil {
		return err
	}
	return m.addUnit(t, unit, "")
}

func (m *Muxer) addUnit(t *trackState, unit mux.EncodedUnit, additions string) error {
	ptsMicros, err := t.clock.Normalize(unit.TimestampMicros, unit.IsKeyFrame, true, false)
	if err != nil {
		return err
	}
	block := pendingBlock{
		data:        unit.Data,
		timestampMS: ptsMicros / 1000,
		durationMS:  unit.DurationMicros / 1000,
		isKeyFrame:  unit.IsKeyFrame,
		additions:   additions,
	}
	t.pending = append(t.pending, block)
	return m.drain()
}

// OnTrackClose marks a track as finished, so it no longer gates
// interleaving, and drains whatever its queue still allows.
func (m *Muxer) OnTrackClose(track TrackID) error {
	t, err := m.track(track)
	if err != nil {
		return err
	}
	t.closed = true
	return m.drain()
}

// drain writes out blocks across tracks in timestamp order, stopping
// as soon as any still-open track's queue runs dry — the same
// smallest-head-timestamp interleave pkg/mp4mux's fragmented layout
// uses for sampleQueue (§4.4.7, adapted to Matroska's Cluster).
func (m *Muxer) drain() error {
	for {
		for _, t := range m.tracks {
			if !t.closed && len(t.pending) == 0 {
				return nil
			}
		}
		var best *trackState
		for _, t := range m.tracks {
			if len(t.pending) == 0 {
				continue
			}
			if best == nil || t.pending[0].timestampMS < best.pending[0].timestampMS {
				best = t
			}
		}
		if best == nil {
			return nil
		}
		block := best.pending[0]
		if err := m.writeBlock(best, block); err != nil {
			return err
		}
		best.pending = best.pending[1:]
	}
}

// allOpenTracksHaveKeyQueued reports whether every still-open track
// currently has at least one key-frame block queued, the precondition
// for starting a new Cluster (§4.5.3).
func (m *Muxer) allOpenTracksHaveKeyQueued() bool {
	for _, t := range m.tracks {
		if t.closed {
			continue
		}
		has := false
		for _, p := range t.pending {
			if p.isKeyFrame {
				has = true
				break
			}
		}
		if !has {
			return false
		}
	}
	return true
}

func (m *Muxer) openCluster(baseMS int64) {
	startOffset := m.ew.Offset()
	cs := &clusterState{startOffset: startOffset, baseMS: baseMS, tracksInCluster: map[uint32]bool{}}
	if m.cfg.Streamable {
		m.ew.WriteUnknownSizeHeader(ebml.IDCluster)
	} else {
		cs.reservation = m.ew.ReserveElement(ebml.IDCluster)
		cs.reserved = true
	}
	m.ew.WriteElement(ebml.UIntElement(ebml.IDTimestamp, uint64(baseMS)))
	m.cluster = cs
}

func (m *Muxer) closeCluster() {
	if m.cluster == nil {
		return
	}
	if m.cluster.reserved {
		m.ew.PatchElementSize(m.cluster.reservation)
	}
	relPos := uint64(m.cluster.startOffset - m.segmentDataStart)
	for id := range m.cluster.tracksInCluster {
		m.cues = append(m.cues, cuePoint{timeMS: m.cluster.baseMS, trackID: id, clusterPos: relPos})
	}
	m.cluster = nil
}

// writeBlock opens a new Cluster when the boundary rule fires, then
// emits the block itself (§4.5.3).
func (m *Muxer) writeBlock(t *trackState, b pendingBlock) error {
	if err := m.ensureTracksWritten(); err != nil {
		return err
	}

	switch {
	case m.cluster == nil:
		m.openCluster(b.timestampMS)
	default:
		span := b.timestampMS - m.cluster.baseMS
		if span >= clusterSpanMS && b.isKeyFrame && m.allOpenTracksHaveKeyQueued() {
			m.closeCluster()
			m.openCluster(b.timestampMS)
		} else if span >= maxClusterSpanMS {
			return muxerr.New(muxerr.FormatConstraint,
				"cluster exceeded maximum length (%d ms); supply more frequent key frames", maxClusterSpanMS)
		}
	}

	offsetMS := b.timestampMS - m.cluster.baseMS
	if offsetMS < 0 {
		// A block whose timestamp precedes the cluster's base timestamp
		// cannot be represented and is dropped silently (§4.5.3).
		return m.ew.Err()
	}
	if offsetMS > 32767 {
		return muxerr.New(muxerr.FormatConstraint, "block time offset %d ms exceeds the signed 16-bit cluster range", offsetMS)
	}

	m.writeBlockElement(t, b, int16(offsetMS))
	m.cluster.tracksInCluster[t.id] = true
	t.lastWrittenMS = b.timestampMS
	t.lastWrittenIsZero = false

	if end := b.timestampMS + b.durationMS; end > m.maxEndedMS {
		m.maxEndedMS = end
	}
	return m.ew.Err()
}

func blockPrelude(trackID uint32, offsetMS int16, keyFrame bool) []byte {
	buf := make([]byte, 4)
	buf[0] = 0x80 | byte(trackID)
	buf[1] = byte(offsetMS >> 8)
	buf[2] = byte(offsetMS)
	if keyFrame {
		buf[3] = 0x80
	}
	return buf
}

func buildBlockAdditions(payload string) *ebml.Element {
	return ebml.MasterElement(ebml.IDBlockAdditions,
		ebml.MasterElement(ebml.IDBlockMore,
			ebml.UIntElement(ebml.IDBlockAddID, 1),
			ebml.BinaryElement(ebml.IDBlockAdditional, []byte(payload)),
		),
	)
}

// writeBlockElement emits a SimpleBlock for a genuinely zero-duration,
// non-subtitle sample, or a BlockGroup otherwise (Design Notes #5: a
// subtitle's duration is always meaningful, so it never takes the
// SimpleBlock path even when 0 would be technically representable).
func (m *Muxer) writeBlockElement(t *trackState, b pendingBlock, offsetMS int16) {
	useSimple := b.durationMS == 0 && t.kind != mux.KindSubtitle && b.additions == ""
	if useSimple {
		payload := append(blockPrelude(t.id, offsetMS, b.isKeyFrame), b.data...)
		m.ew.WriteElement(ebml.BinaryElement(ebml.IDSimpleBlock, payload))
		return
	}

	payload := append(blockPrelude(t.id, offsetMS, false), b.data...)
	children := []*ebml.Element{ebml.BinaryElement(ebml.IDBlock, payload)}
	if !b.isKeyFrame && !t.lastWrittenIsZero {
		children = append(children, ebml.SIntElement(ebml.IDReferenceBlock, t.lastWrittenMS-b.timestampMS))
	}
	if b.additions != "" {
		children = append(children, buildBlockAdditions(b.additions))
	}
	if b.durationMS > 0 {
		children = append(children, ebml.UIntElement(ebml.IDBlockDuration, uint64(b.durationMS)))
	}
	m.ew.WriteElement(ebml.MasterElement(ebml.IDBlockGroup, children...))
}

func (m *Muxer) writeCues() {
	children := make([]*ebml.Element, 0, len(m.cues))
	for _, c := range m.cues {
		children = append(children, ebml.MasterElement(ebml.IDCuePoint,
			ebml.UIntElement(ebml.IDCueTime, uint64(c.timeMS)),
			ebml.MasterElement(ebml.IDCueTrackPos,
				ebml.UIntElement(ebml.IDCueTrack, uint64(c.trackID)),
				ebml.UIntElement(ebml.IDCueClusterPos, c.clusterPos),
			),
		))
	}
	m.ew.WriteElement(ebml.MasterElement(ebml.IDCues, children...))
}

// Finalize closes any open cluster, writes Cues, and (non-streamable)
// patches Segment's size, Info's Duration, and SeekHead (§4.5.5).
func (m *Muxer) Finalize() error {
	if m.finalized {
		return muxerr.New(muxerr.LifecycleMisuse, "Finalize called twice")
	}
	m.finalized = true

	for _, t := range m.tracks {
		t.closed = true
	}
	if err := m.drain(); err != nil {
		return err
	}
	m.closeCluster()

	if m.cfg.Streamable {
		m.writeCues()
		return m.ew.Finalize()
	}

	cuesOffset := m.ew.Offset()
	m.writeCues()
	m.patchSeek(ebml.IDCues, cuesOffset)

	if m.haveDuration {
		m.ew.PatchFloat64At(m.durationPayloadOffset, float64(m.maxEndedMS))
	}
	m.ew.PatchElementSize(m.segmentReservation)

	return m.ew.Finalize()
}
