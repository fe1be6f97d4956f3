package muxconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"mediamux"
)

func TestLoadMp4Preset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "preset.yaml")
	require.NoError(t, os.WriteFile(path, []byte("container: mp4\nfastStart: in-memory\noutputPath: out.mp4\n"), 0o600))

	p, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "mp4", p.Container)
	require.Equal(t, "out.mp4", p.OutputPath)

	format, err := p.OutputFormat()
	require.NoError(t, err)
	require.IsType(t, mediamux.Mp4OutputFormat{}, format)
}

func TestLoadWebMPreset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "preset.yaml")
	require.NoError(t, os.WriteFile(path, []byte("container: webm\nstreamable: true\n"), 0o600))

	p, err := Load(path)
	require.NoError(t, err)
	format, err := p.OutputFormat()
	require.NoError(t, err)
	require.Equal(t, mediamux.WebMOutputFormat{Streamable: true}, format)
}

func TestLoadRejectsMissingContainer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "preset.yaml")
	require.NoError(t, os.WriteFile(path, []byte("outputPath: out.mp4\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsUnknownContainer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "preset.yaml")
	require.NoError(t, os.WriteFile(path, []byte("container: avi\n"), 0o600))

	p, err := Load(path)
	require.NoError(t, err)
	_, err = p.OutputFormat()
	require.Error(t, err)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
