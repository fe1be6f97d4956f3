package subtitle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBasicCues(t *testing.T) {
	doc := "WEBVTT - a description\n\n" +
		"1\n00:00:01.000 --> 00:00:02.500\nHello\nworld\n\n" +
		"00:00:03.000 --> 00:00:04.000 line:10% align:left\nSecond cue\n\n"

	desc, cues, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, "a description", desc)
	require.Len(t, cues, 2)

	require.Equal(t, "1", cues[0].Identifier)
	require.Equal(t, int64(1_000_000), cues[0].TimestampMicros)
	require.Equal(t, int64(1_500_000), cues[0].DurationMicros)
	require.Equal(t, "Hello\nworld", cues[0].Text)

	require.Equal(t, "", cues[1].Identifier)
	require.Equal(t, "line:10% align:left", cues[1].Settings)
	require.Equal(t, "Second cue", cues[1].Text)
}

func TestParseHandlesHourPrefixAndCRLF(t *testing.T) {
	doc := "WEBVTT\r\n\r\n01:00:00.000 --> 01:00:01.000\r\nLong cue\r\n\r\n"
	_, cues, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, cues, 1)
	require.Equal(t, int64(3_600_000_000), cues[0].TimestampMicros)
}

func TestParseAttachesNoteToFollowingCue(t *testing.T) {
	doc := "WEBVTT\n\n" +
		"NOTE this is a comment\nspanning lines\n\n" +
		"00:00:00.000 --> 00:00:01.000\nCue text\n\n"
	_, cues, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, cues, 1)
	require.Contains(t, cues[0].Notes, "this is a comment")
}

func TestParseRejectsMissingHeader(t *testing.T) {
	_, _, err := Parse([]byte("not vtt\n\n00:00:00.000 --> 00:00:01.000\nx\n\n"))
	require.Error(t, err)
}

func TestParseRejectsEndBeforeStart(t *testing.T) {
	doc := "WEBVTT\n\n00:00:05.000 --> 00:00:01.000\nbad\n\n"
	_, _, err := Parse([]byte(doc))
	require.Error(t, err)
}

func TestParseRejectsMalformedTimingLine(t *testing.T) {
	doc := "WEBVTT\n\nnot a timing line\ntext\n\n"
	_, _, err := Parse([]byte(doc))
	require.Error(t, err)
}
