package mkvmux

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"mediamux/pkg/mux"
)

// inlineTimestamp matches a WebVTT inline cue-timestamp tag, e.g.
// "<00:01:02.345>", embedded in cue text for karaoke-style highlighting.
var inlineTimestamp = regexp.MustCompile(`<(\d{2,}):(\d{2}):(\d{2})\.(\d{3})>`)

// rewriteInlineTimestamps subtracts cueStartMS from every inline
// timestamp tag in text, matching the Matroska carriage's convention
// that inline cue timestamps are relative to the cue's own start
// rather than absolute (§4.5.4).
func rewriteInlineTimestamps(text string, cueStartMS int64) string {
	return inlineTimestamp.ReplaceAllStringFunc(text, func(match string) string {
		sub := inlineTimestamp.FindStringSubmatch(match)
		h, _ := strconv.Atoi(sub[1])
		m, _ := strconv.Atoi(sub[2])
		s, _ := strconv.Atoi(sub[3])
		ms, _ := strconv.Atoi(sub[4])
		abs := int64(h)*3_600_000 + int64(m)*60_000 + int64(s)*1_000 + int64(ms)
		rel := abs - cueStartMS
		if rel < 0 {
			rel = 0
		}
		return formatVTTTimestamp(rel)
	})
}

func formatVTTTimestamp(ms int64) string {
	h := ms / 3_600_000
	ms -= h * 3_600_000
	m := ms / 60_000
	ms -= m * 60_000
	s := ms / 1_000
	ms -= s * 1_000
	return fmt.Sprintf("<%02d:%02d:%02d.%03d>", h, m, s, ms)
}

// joinAdditions builds the BlockAdditions payload for a subtitle cue:
// settings, identifier, and notes joined by newlines, or "" when all
// three are empty (no BlockAdditions is emitted in that case; see
// writeBlockElement's additions check) (§4.5.4).
func joinAdditions(cue mux.SubtitleCue) string {
	if cue.Settings == "" && cue.Identifier == "" && cue.Notes == "" {
		return ""
	}
	return strings.Join([]string{cue.Settings, cue.Identifier, cue.Notes}, "\n")
}

// AddSubtitleCue appends one parsed WebVTT cue as a single Matroska
// block (no sample-splitting, unlike ISOBMFF's vttc/vtte synthesis;
// §4.5.4).
func (m *Muxer) AddSubtitleCue(track TrackID, cue mux.SubtitleCue) error {
	t, err := m.requireTrack(track, mux.KindSubtitle)
	if err != nil {
		return err
	}

	ptsMicros, err := t.clock.Normalize(cue.TimestampMicros, true, true, false)
	if err != nil {
		return err
	}
	tsMS := ptsMicros / 1000
	durMS := cue.DurationMicros / 1000

	text := rewriteInlineTimestamps(cue.Text, tsMS)
	block := pendingBlock{
		data:        []byte(text),
		timestampMS: tsMS,
		durationMS:  durMS,
		isKeyFrame:  true,
		additions:   joinAdditions(cue),
	}
	t.pending = append(t.pending, block)
	return m.drain()
}
