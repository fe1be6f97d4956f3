package mp4mux

import (
	"mediamux/pkg/mp4"
	"mediamux/pkg/mux"
)

// flagsBytes packs the low 24 bits of v into a FullBox flags field.
func flagsBytes(v uint32) [3]byte {
	return [3]byte{byte(v >> 16), byte(v >> 8), byte(v)}
}

// sampleFlagsFor builds a trun sample_flags value (§4.4.4): key frames
// depend on nothing and are not themselves non-sync samples, everything
// else depends on a preceding sample and is marked non-sync.
func sampleFlagsFor(isKeyFrame bool) uint32 {
	if isKeyFrame {
		return 2 << 24 // sample_depends_on = 2 (does not depend on others)
	}
	return 1<<24 | 1<<16 // sample_depends_on = 1, sample_is_non_sync_sample = 1
}

// fragmentRegion is one track's contribution to a single moof+mdat pair:
// its pending samples and their byte offset within that fragment's mdat.
type fragmentRegion struct {
	track *trackState
	start int64
}

// maybeFlushFragment flushes a fragment once every still-open track has
// buffered at least fragmentSpanMicros of samples, with at least one key
// frame queued for every open video track (§4.4.7).
func (m *Muxer) maybeFlushFragment() error {
	ready := false
	for _, t := range m.tracks {
		if t.closed {
			continue
		}
		if len(t.pending) == 0 {
			return nil
		}
		ready = true

		first := t.pending[0]
		last := t.pending[len(t.pending)-1]
		span := last.timestamp + int64(last.durationTS) - first.timestamp
		if span < t.fragmentSpanTicks {
			return nil
		}
		if t.kind == mux.KindVideo {
			hasKey := false
			for _, s := range t.pending {
				if s.isKeyFrame {
					hasKey = true
					break
				}
			}
			if !hasKey {
				return nil
			}
		}
	}
	if !ready {
		return nil
	}
	return m.flushFragment()
}

// flushFragment writes one moof (mfhd + one traf per track with pending
// samples) followed by the mdat holding those samples, concatenated
// track-major. Every region's trun carries an explicit per-track data
// offset, since default-base-is-moof only fixes the fragment's base, not
// where each track's bytes start within the shared mdat.
func (m *Muxer) flushFragment() error {
	var regions []fragmentRegion
	base := int64(0)
	for _, t := range m.tracks {
		if len(t.pending) == 0 {
			continue
		}
		regions = append(regions, fragmentRegion{track: t, start: base})
		for _, s := range t.pending {
			base += int64(len(s.data))
		}
	}
	if len(regions) == 0 {
		return nil
	}

	seq := m.fragmentSeq + 1

	truns := make([]*mp4.Trun, len(regions))
	trafs := make([]*mp4.Boxes, len(regions))
	for i, r := range regions {
		t := r.track
		tfhd := &mp4.Tfhd{
			FullBox: mp4.FullBox{Flags: flagsBytes(mp4.TfhdDefaultBaseIsMoof)},
			TrackID: t.id,
		}
		tfdt := &mp4.Tfdt{
			FullBox:             mp4.FullBox{Version: 1},
			BaseMediaDecodeTime: uint64(t.pending[0].dts),
		}

		trunFlags := uint32(mp4.TrunDataOffsetPresent | mp4.TrunSampleDurationPresent |
			mp4.TrunSampleSizePresent | mp4.TrunSampleFlagsPresent)
		hasOffsets := false
		for _, s := range t.pending {
			if s.cts != 0 {
				hasOffsets = true
				break
			}
		}
		if hasOffsets {
			trunFlags |= mp4.TrunSampleCompositionTimeOffsetPresent
		}

		entries := make([]mp4.TrunEntry, len(t.pending))
		for j, s := range t.pending {
			entries[j] = mp4.TrunEntry{
				SampleDuration:       s.durationTS,
				SampleSize:           uint32(len(s.data)),
				SampleFlags:          sampleFlagsFor(s.isKeyFrame),
				SampleCompositionOff: s.cts,
			}
		}

		trun := &mp4.Trun{FullBox: mp4.FullBox{Flags: flagsBytes(trunFlags)}, Entries: entries}
		truns[i] = trun

		trafs[i] = &mp4.Boxes{
			Box:      mp4.Traf(),
			Children: []*mp4.Boxes{{Box: tfhd}, {Box: tfdt}, {Box: trun}},
		}
	}

	moofChildren := make([]*mp4.Boxes, 0, len(trafs)+1)
	moofChildren = append(moofChildren, &mp4.Boxes{Box: &mp4.Mfhd{SequenceNumber: seq}})
	moofChildren = append(moofChildren, trafs...)
	moofTree := &mp4.Boxes{Box: mp4.Moof(), Children: moofChildren}
	moofSize := moofTree.Size()

	for i, r := range regions {
		truns[i].DataOffset = int32(moofSize + 8 + r.start)
	}

	moofOffset := m.bw.Offset()
	m.bw.WriteBox(moofTree)

	mdatData := make([]byte, 0, base)
	for _, r := range regions {
		for _, s := range r.track.pending {
			mdatData = append(mdatData, s.data...)
		}
	}
	m.bw.WriteBox(&mp4.Boxes{Box: &mp4.Mdat{Data: mdatData}})

	for _, r := range regions {
		t := r.track
		t.tfra = append(t.tfra, mp4.TfraEntry{
			Time:       uint64(t.pending[0].dts),
			MoofOffset: uint64(moofOffset),
		})
		t.pending = nil
	}
	m.fragmentSeq = seq
	return m.bw.Err()
}

// finalizeFragmented flushes any samples still buffered as a last
// fragment, then writes mfra (one tfra per track) and mfro (§4.4.7).
func (m *Muxer) finalizeFragmented() error {
	for _, t := range m.tracks {
		if len(t.pending) > 0 {
			if err := m.flushFragment(); err != nil {
				return err
			}
			break
		}
	}

	children := make([]*mp4.Boxes, 0, len(m.tracks)+1)
	for _, t := range m.tracks {
		children = append(children, &mp4.Boxes{Box: &mp4.Tfra{
			FullBox: mp4.FullBox{Version: 1},
			TrackID: t.id,
			Entries: t.tfra,
		}})
	}
	mfro := &mp4.Mfro{}
	children = append(children, &mp4.Boxes{Box: mfro})

	tree := &mp4.Boxes{Box: mp4.Mfra(), Children: children}
	mfro.MfraSize = uint32(tree.Size())

	m.bw.WriteBox(tree)
	return m.bw.Err()
}
