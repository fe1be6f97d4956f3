// Package muxconfig loads an OutputFormat/Target preset from YAML, so a
// caller (cmd/mediamux-remux, or a test wanting a named fixture instead
// of constructing options by hand) doesn't need to build mediamux types
// directly (§2, §6.1).
package muxconfig

import (
	"os"

	"gopkg.in/yaml.v2"

	"mediamux"
	"mediamux/pkg/muxerr"
)

// Preset is one named combination of container format and output path,
// the YAML document's top-level shape.
type Preset struct {
	// Container selects the output container: "mp4", "mkv" or "webm".
	Container string `yaml:"container"`

	// FastStart selects an MP4 layout: "", "in-memory" or "fragmented".
	// Ignored for mkv/webm.
	FastStart string `yaml:"fastStart"`

	// Streamable writes mkv/webm with EBML's unknown-size marker instead
	// of patching Segment/Cluster sizes at Finalize. Ignored for mp4.
	Streamable bool `yaml:"streamable"`

	// ChunkSize, when non-zero, selects a chunked StreamTarget of this
	// many bytes instead of a single-shot Target; 0 means the caller
	// picks its own Target.
	ChunkSize int64 `yaml:"chunkSize"`

	// OutputPath is where cmd/mediamux-remux writes the muxed file.
	OutputPath string `yaml:"outputPath"`
}

// Load reads and parses a Preset from the YAML file at path.
func Load(path string) (Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Preset{}, muxerr.Wrap(muxerr.InvalidArgument, err, "muxconfig: reading %s", path)
	}
	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Preset{}, muxerr.Wrap(muxerr.InvalidArgument, err, "muxconfig: parsing %s", path)
	}
	if p.Container == "" {
		return Preset{}, muxerr.New(muxerr.InvalidArgument, "muxconfig: %s: container is required", path)
	}
	return p, nil
}

// OutputFormat builds the mediamux.OutputFormat p describes.
func (p Preset) OutputFormat() (mediamux.OutputFormat, error) {
	switch p.Container {
	case "mp4":
		return mediamux.Mp4OutputFormat{FastStart: mediamux.FastStart(p.FastStart)}, nil
	case "mkv":
		return mediamux.MkvOutputFormat{Streamable: p.Streamable}, nil
	case "webm":
		return mediamux.WebMOutputFormat{Streamable: p.Streamable}, nil
	default:
		return nil, muxerr.New(muxerr.InvalidArgument, "muxconfig: unknown container %q", p.Container)
	}
}
