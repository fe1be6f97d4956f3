// Package subtitle parses WebVTT text into the timed cue records
// pkg/mkvmux and pkg/mp4mux need for subtitle-track carriage (§4.6).
// Parsing the full WebVTT grammar (regions, styles, nested spans) is
// out of scope (spec.md §1); only the preamble and cue-timing contract
// an external WebVTT parser would hand a muxer is implemented here,
// scanned byte-by-line and failing fast with one structured error, the
// same shape the teacher's gortsplib SPS/PPS parsers use.
package subtitle

import (
	"regexp"
	"strconv"
	"strings"

	"mediamux/pkg/muxerr"
)

// Cue is one parsed WebVTT cue. TimestampMicros/DurationMicros are
// stored as integer microseconds (matching every other timing field in
// this module) rather than the spec's floating-point seconds.
type Cue struct {
	TimestampMicros int64
	DurationMicros  int64
	Text            string
	Identifier      string
	Settings        string
	Notes           string
}

// timestampLine matches a cue's timing line: two hh:mm:ss.mmm (or
// mm:ss.mmm) timestamps separated by "-->", with optional settings.
var timestampLine = regexp.MustCompile(`^(\d{2,}:)?(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(\d{2,}:)?(\d{2}):(\d{2})\.(\d{3})(?:\s+(.*))?$`)

// Parse validates and parses a complete WebVTT document, returning the
// preamble description text and every cue it contains, in file order.
func Parse(data []byte) (string, []Cue, error) {
	text := normalizeNewlines(string(data))
	if !strings.HasPrefix(text, "WEBVTT") {
		return "", nil, muxerr.New(muxerr.InvalidArgument, "not a valid WebVTT document: missing WEBVTT header")
	}

	headerEnd := strings.Index(text, "\n\n")
	if headerEnd == -1 {
		return "", nil, muxerr.New(muxerr.InvalidArgument, "not a valid WebVTT document: missing blank line after header")
	}
	header := strings.Split(text[:headerEnd], "\n")
	header[0] = strings.TrimSpace(strings.TrimPrefix(header[0], "WEBVTT"))
	header[0] = strings.TrimSpace(strings.TrimPrefix(header[0], "-"))
	description := strings.TrimSpace(strings.Join(header, "\n"))
	rest := text[headerEnd+2:]

	blocks := strings.Split(rest, "\n\n")
	var cues []Cue
	var pendingNotes []string

	for _, block := range blocks {
		block = strings.TrimRight(block, "\n")
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")

		if strings.HasPrefix(lines[0], "NOTE") {
			pendingNotes = append(pendingNotes, block)
			continue
		}

		cue, err := parseCueBlock(lines)
		if err != nil {
			return "", nil, err
		}
		if len(pendingNotes) > 0 {
			cue.Notes = strings.Join(pendingNotes, "\n\n")
			pendingNotes = nil
		}
		cues = append(cues, cue)
	}

	return description, cues, nil
}

func parseCueBlock(lines []string) (Cue, error) {
	idx := 0
	identifier := ""
	if !timestampLine.MatchString(lines[0]) {
		identifier = lines[0]
		idx = 1
	}
	if idx >= len(lines) {
		return Cue{}, muxerr.New(muxerr.InvalidArgument, "cue block missing a timing line")
	}

	m := timestampLine.FindStringSubmatch(lines[idx])
	if m == nil {
		return Cue{}, muxerr.New(muxerr.InvalidArgument, "malformed cue timing line: %q", lines[idx])
	}
	start, err := parseTimestamp(m[1], m[2], m[3], m[4])
	if err != nil {
		return Cue{}, err
	}
	end, err := parseTimestamp(m[5], m[6], m[7], m[8])
	if err != nil {
		return Cue{}, err
	}
	if end < start {
		return Cue{}, muxerr.New(muxerr.InvalidArgument, "cue end %d precedes start %d", end, start)
	}

	return Cue{
		TimestampMicros: start,
		DurationMicros:  end - start,
		Text:            strings.Join(lines[idx+1:], "\n"),
		Identifier:      identifier,
		Settings:        strings.TrimSpace(m[9]),
	}, nil
}

// parseTimestamp builds a microsecond timestamp from a timestampLine
// submatch's hours (optional, with trailing colon), minutes, seconds,
// and milliseconds groups.
func parseTimestamp(hoursWithColon, minutes, seconds, millis string) (int64, error) {
	hours := int64(0)
	if hoursWithColon != "" {
		h, err := strconv.ParseInt(strings.TrimSuffix(hoursWithColon, ":"), 10, 64)
		if err != nil {
			return 0, muxerr.New(muxerr.InvalidArgument, "malformed hours in cue timestamp: %q", hoursWithColon)
		}
		hours = h
	}
	m, _ := strconv.ParseInt(minutes, 10, 64)
	s, _ := strconv.ParseInt(seconds, 10, 64)
	ms, _ := strconv.ParseInt(millis, 10, 64)
	return (hours*3_600_000+m*60_000+s*1_000+ms) * 1_000, nil
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}
