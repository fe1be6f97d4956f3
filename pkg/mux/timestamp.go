package mux

import "mediamux/pkg/muxerr"

// TimestampTracker implements validateAndNormalizeTimestamp (§4.7): the
// per-track bookkeeping that turns a producer's raw timestamps into a
// monotonic, container-legal sequence, rejecting rewinds and (for
// ISOBMFF) requiring the stream to start at zero.
type TimestampTracker struct {
	started               bool
	haveOffset            bool
	offset                int64
	maxTimestamp          int64
	lastKeyFrameTimestamp int64
}

// Normalize validates rawMicros against the track's history and returns
// the normalized (possibly offset-subtracted) timestamp. offsetAllowed
// is set for live-capture sources that want their first sample to
// become t=0; mustStartAtZero is set for ISOBMFF tracks, which require
// the first normalized timestamp to be exactly 0 regardless of
// offsetAllowed.
func (t *TimestampTracker) Normalize(rawMicros int64, isKeyFrame bool, offsetAllowed, mustStartAtZero bool) (int64, error) {
	if !t.started {
		if !isKeyFrame {
			return 0, muxerr.New(muxerr.TimestampOrdering, "first sample for a track must be a key frame")
		}
		if offsetAllowed {
			t.offset = rawMicros
			t.haveOffset = true
		}
	}

	ts := rawMicros
	if t.haveOffset {
		ts -= t.offset
	}

	if !t.started && mustStartAtZero && ts != 0 {
		return 0, muxerr.New(muxerr.FormatConstraint, "first timestamp must normalize to 0, got %d", ts)
	}
	if ts < 0 {
		return 0, muxerr.New(muxerr.TimestampOrdering, "timestamp %d is negative after offsetting", ts)
	}
	if t.started && ts < t.lastKeyFrameTimestamp {
		return 0, muxerr.New(muxerr.TimestampOrdering,
			"timestamp %d precedes the last key frame at %d", ts, t.lastKeyFrameTimestamp)
	}
	if isKeyFrame && t.started && ts < t.maxTimestamp {
		return 0, muxerr.New(muxerr.TimestampOrdering,
			"key frame timestamp %d rewinds past max seen timestamp %d", ts, t.maxTimestamp)
	}

	if ts > t.maxTimestamp || !t.started {
		t.maxTimestamp = ts
	}
	if isKeyFrame {
		t.lastKeyFrameTimestamp = ts
	}
	t.started = true
	return ts, nil
}
