package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"

	"mediamux/pkg/mux"
)

// trackFixture is track.yaml's shape: whichever of the video/audio
// fields apply to the track's Kind are set, the rest left zero.
type trackFixture struct {
	Codec      string  `yaml:"codec"`
	Width      uint16  `yaml:"width"`
	Height     uint16  `yaml:"height"`
	FrameRate  float64 `yaml:"frameRate"`
	SampleRate uint32  `yaml:"sampleRate"`
	Channels   uint16  `yaml:"channels"`
	// Description is base64-encoded codec private data (avcC/hvcC/av1C
	// payload, dOps header, ...), omitted for codecs that need none.
	Description string `yaml:"description"`
}

func loadTrackFixture(dir string) (trackFixture, error) {
	data, err := os.ReadFile(filepath.Join(dir, "track.yaml"))
	if err != nil {
		return trackFixture{}, fmt.Errorf("reading %s/track.yaml: %w", dir, err)
	}
	var tf trackFixture
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return trackFixture{}, fmt.Errorf("parsing %s/track.yaml: %w", dir, err)
	}
	return tf, nil
}

func (tf trackFixture) description() ([]byte, error) {
	if tf.Description == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(tf.Description)
}

// unit is one fixture-directory entry, named
// "<timestampMicros>_<durationMicros>_<key|delta>.bin".
type unit struct {
	mux.EncodedUnit
}

// loadUnits reads every *.bin file in dir, in ascending timestamp order
// (file boundaries are unit boundaries in this fixture format; see
// SPEC_FULL.md's cmd/mediamux-remux non-goals note).
func loadUnits(dir string) ([]unit, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var units []unit
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".bin") {
			continue
		}
		u, err := parseUnitFilename(e.Name())
		if err != nil {
			return nil, fmt.Errorf("%s/%s: %w", dir, e.Name(), err)
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s/%s: %w", dir, e.Name(), err)
		}
		u.Data = data
		units = append(units, u)
	}

	sort.Slice(units, func(i, j int) bool {
		return units[i].TimestampMicros < units[j].TimestampMicros
	})
	return units, nil
}

func parseUnitFilename(name string) (unit, error) {
	base := strings.TrimSuffix(name, ".bin")
	parts := strings.Split(base, "_")
	if len(parts) != 3 {
		return unit{}, fmt.Errorf("expected <timestamp>_<duration>_<key|delta>.bin, got %q", name)
	}
	ts, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return unit{}, fmt.Errorf("malformed timestamp %q: %w", parts[0], err)
	}
	dur, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return unit{}, fmt.Errorf("malformed duration %q: %w", parts[1], err)
	}
	var isKey bool
	switch parts[2] {
	case "key":
		isKey = true
	case "delta":
		isKey = false
	default:
		return unit{}, fmt.Errorf("expected \"key\" or \"delta\", got %q", parts[2])
	}
	return unit{mux.EncodedUnit{TimestampMicros: ts, DurationMicros: dur, IsKeyFrame: isKey}}, nil
}
