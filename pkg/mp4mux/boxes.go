package mp4mux

import (
	"mediamux/pkg/mp4"
	"mediamux/pkg/mux"
)

// ticksToMillis converts a duration in timescale ticks to milliseconds,
// the unit mvhd/tkhd durations are always expressed in.
func ticksToMillis(ticks int64, timescale uint32) uint32 {
	if timescale == 0 {
		return 0
	}
	return uint32(ticks * 1000 / int64(timescale))
}

// movieDurationMillis returns the longest track duration, in
// milliseconds, across every track (mvhd's Duration, §4.4.4).
func movieDurationMillis(tracks []*trackState) uint32 {
	var maxMS uint32
	for _, t := range tracks {
		ms := ticksToMillis(t.ended, t.timescale)
		if ms > maxMS {
			maxMS = ms
		}
	}
	return maxMS
}

// buildMoov assembles the full moov tree: mvhd, one trak per track, and
// (fragmented layout only) an mvex listing one trex per track.
func buildMoov(tracks []*trackState, fragmented bool) (*mp4.Boxes, error) {
	durationMS := movieDurationMillis(tracks)

	children := []*mp4.Boxes{
		{Box: &mp4.Mvhd{
			Timescale:   1000,
			Duration:    durationMS,
			Rate:        1 << 16,
			Volume:      0x0100,
			Matrix:      mp4.IdentityMatrix,
			NextTrackID: uint32(len(tracks)) + 1,
		}},
	}

	for _, t := range tracks {
		trak, err := buildTrak(t, durationMS, fragmented)
		if err != nil {
			return nil, err
		}
		children = append(children, trak)
	}

	if fragmented {
		mvexChildren := make([]*mp4.Boxes, 0, len(tracks))
		for _, t := range tracks {
			mvexChildren = append(mvexChildren, &mp4.Boxes{Box: &mp4.Trex{
				TrackID:                       t.id,
				DefaultSampleDescriptionIndex: 1,
				DefaultSampleDuration:         0,
				DefaultSampleSize:             0,
				DefaultSampleFlags:            0,
			}})
		}
		children = append(children, &mp4.Boxes{Box: mp4.Mvex(), Children: mvexChildren})
	}

	return &mp4.Boxes{Box: mp4.Moov(), Children: children}, nil
}

// buildTrak assembles one trak: tkhd, mdia{mdhd, hdlr, minf{...,stbl}}.
func buildTrak(t *trackState, movieDurationMS uint32, fragmented bool) (*mp4.Boxes, error) {
	var width, height uint32
	volume := int16(0)
	if t.kind == mux.KindVideo && t.video.DecoderConfig != nil {
		width = uint32(t.video.DecoderConfig.Width) << 16
		height = uint32(t.video.DecoderConfig.Height) << 16
	}
	if t.kind == mux.KindAudio {
		volume = 0x0100
	}

	tkhd := &mp4.Tkhd{
		FullBox:  mp4.FullBox{Flags: [3]byte{0, 0, 3}}, // track_enabled | track_in_movie
		TrackID:  t.id,
		Duration: movieDurationMS,
		Volume:   volume,
		Matrix:   mp4.IdentityMatrix,
		Width:    width,
		Height:   height,
	}

	stbl, err := buildStbl(t, fragmented)
	if err != nil {
		return nil, err
	}

	handlerName := map[mux.Kind]string{
		mux.KindVideo:    "VideoHandler",
		mux.KindAudio:    "SoundHandler",
		mux.KindSubtitle: "TextHandler",
	}[t.kind]

	mdia := &mp4.Boxes{
		Box: mp4.Mdia(),
		Children: []*mp4.Boxes{
			{Box: &mp4.Mdhd{
				Timescale: t.timescale,
				Duration:  uint32(t.ended),
				Language:  [3]byte{'u', 'n', 'd'},
			}},
			{Box: &mp4.Hdlr{HandlerType: t.handlerType(), Name: handlerName}},
			buildMinf(t, stbl),
		},
	}

	return &mp4.Boxes{
		Box:      mp4.Trak(),
		Children: []*mp4.Boxes{{Box: tkhd}, mdia},
	}, nil
}

func buildMinf(t *trackState, stbl *mp4.Boxes) *mp4.Boxes {
	var mediaHeader *mp4.Boxes
	switch t.kind {
	case mux.KindVideo:
		mediaHeader = &mp4.Boxes{Box: &mp4.Vmhd{}}
	case mux.KindAudio:
		mediaHeader = &mp4.Boxes{Box: &mp4.Smhd{}}
	default:
		mediaHeader = &mp4.Boxes{Box: &mp4.Nmhd{}}
	}

	dinf := &mp4.Boxes{
		Box: mp4.Dinf(),
		Children: []*mp4.Boxes{
			{
				Box: &mp4.Dref{EntryCount: 1},
				Children: []*mp4.Boxes{
					{Box: &mp4.URL{FullBox: mp4.FullBox{Flags: [3]byte{0, 0, mp4.SelfContainedFlag}}}},
				},
			},
		},
	}

	return &mp4.Boxes{
		Box:      mp4.Minf(),
		Children: []*mp4.Boxes{mediaHeader, dinf, stbl},
	}
}

// buildStbl assembles a track's sample table. In the fragmented layout
// the table is present but empty: sample bookkeeping lives in each
// fragment's traf instead (§4.4.2).
func buildStbl(t *trackState, fragmented bool) (*mp4.Boxes, error) {
	stsd, err := buildStsd(t)
	if err != nil {
		return nil, err
	}

	if fragmented {
		return &mp4.Boxes{
			Box: mp4.Stbl(),
			Children: []*mp4.Boxes{
				stsd,
				{Box: &mp4.Stts{}},
				{Box: &mp4.Stsc{}},
				{Box: &mp4.Stsz{}},
				{Box: &mp4.Stco{}},
			},
		}, nil
	}

	children := []*mp4.Boxes{stsd, {Box: &mp4.Stts{Entries: t.stts}}}

	if !t.allSync {
		children = append(children, &mp4.Boxes{Box: &mp4.Stss{SampleNumbers: t.stss}})
	}
	if hasNonZeroOffset(t.ctts) {
		children = append(children, &mp4.Boxes{Box: &mp4.Ctts{
			FullBox: mp4.FullBox{Version: 1},
			Entries: t.ctts,
		}})
	}

	children = append(children, &mp4.Boxes{Box: &mp4.Stsc{Entries: t.stsc}})
	children = append(children, &mp4.Boxes{Box: &mp4.Stsz{EntrySizes: t.stsz}})

	if needsCo64(t.stco) {
		offsets := make([]uint64, len(t.stco))
		for i, o := range t.stco {
			offsets[i] = uint64(o)
		}
		children = append(children, &mp4.Boxes{Box: &mp4.Co64{ChunkOffsets: offsets}})
	} else {
		offsets := make([]uint32, len(t.stco))
		for i, o := range t.stco {
			offsets[i] = uint32(o)
		}
		children = append(children, &mp4.Boxes{Box: &mp4.Stco{ChunkOffsets: offsets}})
	}

	return &mp4.Boxes{Box: mp4.Stbl(), Children: children}, nil
}
