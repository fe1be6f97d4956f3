// Command mediamux-remux is a demonstration CLI: it reads a fixture
// directory of raw encoded units and remuxes them into an MP4 or
// Matroska/WebM file. It does not decode or re-encode anything — the
// fixture format's file boundaries are already unit boundaries.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"mediamux"
	"mediamux/pkg/mux"
	"mediamux/pkg/muxconfig"
	"mediamux/pkg/subtitle"
)

var (
	fixturesDir = pflag.StringP("fixtures", "f", "", "fixture directory (video/, audio/, subtitles.vtt)")
	preset      = pflag.StringP("preset", "p", "", "muxconfig YAML preset; overrides the flags below")
	format      = pflag.String("format", "mp4", "container format: mp4, mkv or webm")
	fastStart   = pflag.String("faststart", "", "mp4 layout: \"\", in-memory or fragmented")
	streamable  = pflag.Bool("streamable", false, "write mkv/webm with unknown-size Segment/Cluster")
	outPath     = pflag.StringP("out", "o", "", "output file path (default: a generated name in the current directory)")
)

func main() {
	pflag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mediamux-remux: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if *fixturesDir == "" {
		pflag.Usage()
		return fmt.Errorf("--fixtures is required")
	}

	outputFormat, out, chunkSize, err := resolveOutput()
	if err != nil {
		return err
	}

	target, description, err := openTarget(out, chunkSize)
	if err != nil {
		return err
	}

	output, err := mediamux.NewOutput(target, outputFormat)
	if err != nil {
		return err
	}

	if err := remux(output, *fixturesDir); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "wrote %s\n", description)
	return nil
}

// openTarget opens out as a FileTarget, unless chunkSize is positive —
// in which case the muxed output streams to stdout in chunkSize-byte
// pieces instead, the CLI's use of muxconfig.Preset.ChunkSize.
func openTarget(out string, chunkSize int64) (mediamux.Target, string, error) {
	if chunkSize > 0 {
		target := mediamux.NewChunkedStreamTarget(func(_ int64, data []byte) error {
			_, err := os.Stdout.Write(data)
			return err
		}, chunkSize)
		return target, fmt.Sprintf("stdout (%d-byte chunks)", chunkSize), nil
	}
	target, err := mediamux.NewFileTarget(out)
	if err != nil {
		return nil, "", fmt.Errorf("opening %s: %w", out, err)
	}
	return target, out, nil
}

func resolveOutput() (mediamux.OutputFormat, string, int64, error) {
	if *preset != "" {
		p, err := muxconfig.Load(*preset)
		if err != nil {
			return nil, "", 0, err
		}
		outputFormat, err := p.OutputFormat()
		if err != nil {
			return nil, "", 0, err
		}
		out := p.OutputPath
		if out == "" {
			out = generatedOutputPath(p.Container)
		}
		return outputFormat, out, p.ChunkSize, nil
	}

	var outputFormat mediamux.OutputFormat
	switch *format {
	case "mp4":
		outputFormat = mediamux.Mp4OutputFormat{FastStart: mediamux.FastStart(*fastStart)}
	case "mkv":
		outputFormat = mediamux.MkvOutputFormat{Streamable: *streamable}
	case "webm":
		outputFormat = mediamux.WebMOutputFormat{Streamable: *streamable}
	default:
		return nil, "", 0, fmt.Errorf("unknown --format %q (want mp4, mkv or webm)", *format)
	}

	out := *outPath
	if out == "" {
		out = generatedOutputPath(*format)
	}
	return outputFormat, out, 0, nil
}

func generatedOutputPath(container string) string {
	ext := container
	if ext == "" {
		ext = "mp4"
	}
	return fmt.Sprintf("mediamux-remux-%s.%s", uuid.New().String(), ext)
}

// remux loads whichever of fixturesDir/video, fixturesDir/audio and
// fixturesDir/subtitles.vtt are present, registers a track for each,
// and feeds every unit through Output in the fixture's own timestamp
// order per track.
func remux(output *mediamux.Output, fixturesDir string) error {
	videoDir := filepath.Join(fixturesDir, "video")
	audioDir := filepath.Join(fixturesDir, "audio")
	subtitlePath := filepath.Join(fixturesDir, "subtitles.vtt")

	var videoID, audioID, subtitleID mediamux.TrackID
	var videoUnits, audioUnits []unit
	var subtitleCues []subtitle.Cue
	haveVideo, haveAudio, haveSubtitle := false, false, false

	if _, err := os.Stat(videoDir); err == nil {
		id, units, err := setupVideoTrack(output, videoDir)
		if err != nil {
			return err
		}
		videoID, videoUnits, haveVideo = id, units, true
	}
	if _, err := os.Stat(audioDir); err == nil {
		id, units, err := setupAudioTrack(output, audioDir)
		if err != nil {
			return err
		}
		audioID, audioUnits, haveAudio = id, units, true
	}
	if data, err := os.ReadFile(subtitlePath); err == nil {
		description, cues, err := subtitle.Parse(data)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", subtitlePath, err)
		}
		id, err := output.AddSubtitleTrack(mux.SubtitleTrackMetadata{Config: &mux.SubtitleConfig{Description: description}})
		if err != nil {
			return err
		}
		subtitleID, subtitleCues, haveSubtitle = id, cues, true
	}

	if !haveVideo && !haveAudio && !haveSubtitle {
		return fmt.Errorf("%s contains none of video/, audio/, subtitles.vtt", fixturesDir)
	}

	if err := output.Start(); err != nil {
		return err
	}

	if haveVideo {
		for _, u := range videoUnits {
			if err := output.AddEncodedVideoChunk(videoID, u.EncodedUnit); err != nil {
				return err
			}
		}
		if err := output.OnTrackClose(videoID); err != nil {
			return err
		}
	}
	if haveAudio {
		for _, u := range audioUnits {
			if err := output.AddEncodedAudioChunk(audioID, u.EncodedUnit); err != nil {
				return err
			}
		}
		if err := output.OnTrackClose(audioID); err != nil {
			return err
		}
	}
	if haveSubtitle {
		for _, c := range subtitleCues {
			cue := mux.SubtitleCue{
				TimestampMicros: c.TimestampMicros,
				DurationMicros:  c.DurationMicros,
				Text:            c.Text,
				Identifier:      c.Identifier,
				Settings:        c.Settings,
				Notes:           c.Notes,
			}
			if err := output.AddSubtitleCue(subtitleID, cue); err != nil {
				return err
			}
		}
		if err := output.OnTrackClose(subtitleID); err != nil {
			return err
		}
	}

	return output.Finalize()
}

func setupVideoTrack(output *mediamux.Output, dir string) (mediamux.TrackID, []unit, error) {
	tf, err := loadTrackFixture(dir)
	if err != nil {
		return 0, nil, err
	}
	description, err := tf.description()
	if err != nil {
		return 0, nil, fmt.Errorf("%s/track.yaml: decoding description: %w", dir, err)
	}
	units, err := loadUnits(dir)
	if err != nil {
		return 0, nil, err
	}
	id, err := output.AddVideoTrack(mux.Codec(tf.Codec), mux.VideoTrackMetadata{
		FrameRate: tf.FrameRate,
		DecoderConfig: &mux.VideoDecoderConfig{
			Codec:       mux.Codec(tf.Codec),
			Width:       tf.Width,
			Height:      tf.Height,
			Description: description,
		},
	})
	if err != nil {
		return 0, nil, err
	}
	return id, units, nil
}

func setupAudioTrack(output *mediamux.Output, dir string) (mediamux.TrackID, []unit, error) {
	tf, err := loadTrackFixture(dir)
	if err != nil {
		return 0, nil, err
	}
	description, err := tf.description()
	if err != nil {
		return 0, nil, fmt.Errorf("%s/track.yaml: decoding description: %w", dir, err)
	}
	units, err := loadUnits(dir)
	if err != nil {
		return 0, nil, err
	}
	id, err := output.AddAudioTrack(mux.Codec(tf.Codec), mux.AudioTrackMetadata{
		DecoderConfig: &mux.AudioDecoderConfig{
			Codec:            mux.Codec(tf.Codec),
			SampleRate:       tf.SampleRate,
			NumberOfChannels: tf.Channels,
			Description:      description,
		},
	})
	if err != nil {
		return 0, nil, err
	}
	return id, units, nil
}
