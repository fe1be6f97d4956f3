package mp4mux

import "mediamux/pkg/mp4"

// marshalBoxes measures and marshals a fully-built tree into a flat
// byte slice, the form a WebVTT sample takes inside mdat (§4.4.5).
func marshalBoxes(tree *mp4.Boxes) []byte {
	buf := make([]byte, tree.Size())
	pos := 0
	tree.Marshal(buf, &pos)
	return buf
}

// buildCueSample builds one vttc sample for a single, non-overlapping
// WebVTT cue: payl always, iden/sttg/vtta only when the cue supplied
// them.
func buildCueSample(cue cueText) []byte {
	children := []*mp4.Boxes{{Box: mp4.Payl(cue.text)}}
	if cue.identifier != "" {
		children = append(children, &mp4.Boxes{Box: mp4.Iden(cue.identifier)})
	}
	if cue.settings != "" {
		children = append(children, &mp4.Boxes{Box: mp4.Sttg(cue.settings)})
	}
	if cue.notes != "" {
		children = append(children, &mp4.Boxes{Box: mp4.Vtta(cue.notes)})
	}
	tree := &mp4.Boxes{Box: mp4.Vttc(), Children: children}
	return marshalBoxes(tree)
}

// buildGapSample builds an empty vtte sample, marking a span of time
// with no active cue (§4.4.5 step 3).
func buildGapSample() []byte {
	return marshalBoxes(&mp4.Boxes{Box: mp4.Vtte()})
}

// cueText is the subset of mux.SubtitleCue buildCueSample needs.
type cueText struct {
	text       string
	identifier string
	settings   string
	notes      string
}
