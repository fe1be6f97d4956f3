package mp4

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func marshalBox(b ImmutableBox) []byte {
	buf := make([]byte, b.Size())
	pos := 0
	b.Marshal(buf, &pos)
	return buf
}

func TestBoxTypes(t *testing.T) {
	testCases := []struct {
		name string
		src  ImmutableBox
		bin  []byte
	}{
		{
			name: "ftyp",
			src: &Ftyp{
				MajorBrand:       FourCC("isom"),
				MinorVersion:     0x00000200,
				CompatibleBrands: []BoxType{FourCC("isom"), FourCC("iso2"), FourCC("mp41")},
			},
			bin: []byte{
				'i', 's', 'o', 'm',
				0x00, 0x00, 0x02, 0x00,
				'i', 's', 'o', 'm',
				'i', 's', 'o', '2',
				'm', 'p', '4', '1',
			},
		},
		{
			name: "dref",
			src:  &Dref{EntryCount: 1},
			bin:  []byte{0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01},
		},
		{
			name: "hdlr (video)",
			src: &Hdlr{
				HandlerType: FourCC("vide"),
				Name:        "VideoHandler",
			},
			bin: append(append([]byte{
				0, 0x00, 0x00, 0x00, // FullBox
				0x00, 0x00, 0x00, 0x00, // pre_defined
				'v', 'i', 'd', 'e',
				0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00,
			}, []byte("VideoHandler")...), 0x00),
		},
		{
			name: "mdhd default language",
			src: &Mdhd{
				Timescale: 90000,
				Duration:  180000,
			},
			bin: []byte{
				0, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, // creation time
				0x00, 0x00, 0x00, 0x00, // modification time
				0x00, 0x01, 0x5f, 0x90, // timescale
				0x00, 0x02, 0xbf, 0x20, // duration
				0x55, 0xc4, // packed "und"
				0x00, 0x00,
			},
		},
		{
			name: "stts",
			src: &Stts{
				Entries: []SttsEntry{
					{SampleCount: 10, SampleDelta: 3000},
					{SampleCount: 1, SampleDelta: 1500},
				},
			},
			bin: []byte{
				0, 0x00, 0x00, 0x00, // FullBox
				0x00, 0x00, 0x00, 0x02,
				0x00, 0x00, 0x00, 0x0a, 0x00, 0x00, 0x0b, 0xb8,
				0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x05, 0xdc,
			},
		},
		{
			name: "ctts with negative offset",
			src: &Ctts{
				Entries: []CttsEntry{
					{SampleCount: 1, SampleOffset: -3000},
				},
			},
			bin: []byte{
				0, 0x00, 0x00, 0x00, // FullBox
				0x00, 0x00, 0x00, 0x01,
				0x00, 0x00, 0x00, 0x01,
				0xff, 0xff, 0xf4, 0x48,
			},
		},
		{
			name: "stss",
			src:  &Stss{SampleNumbers: []uint32{1, 31, 61}},
			bin: []byte{
				0, 0x00, 0x00, 0x00, // FullBox
				0x00, 0x00, 0x00, 0x03,
				0x00, 0x00, 0x00, 0x01,
				0x00, 0x00, 0x00, 0x1f,
				0x00, 0x00, 0x00, 0x3d,
			},
		},
		{
			name: "stsz explicit sizes",
			src:  &Stsz{EntrySizes: []uint32{100, 200}},
			bin: []byte{
				0, 0x00, 0x00, 0x00, // FullBox
				0x00, 0x00, 0x00, 0x00, // sample_size always 0
				0x00, 0x00, 0x00, 0x02,
				0x00, 0x00, 0x00, 0x64,
				0x00, 0x00, 0x00, 0xc8,
			},
		},
		{
			name: "stco",
			src:  &Stco{ChunkOffsets: []uint32{1024, 2048}},
			bin: []byte{
				0, 0x00, 0x00, 0x00, // FullBox
				0x00, 0x00, 0x00, 0x02,
				0x00, 0x00, 0x04, 0x00,
				0x00, 0x00, 0x08, 0x00,
			},
		},
		{
			name: "co64",
			src:  &Co64{ChunkOffsets: []uint64{0x100000000}},
			bin: []byte{
				0, 0x00, 0x00, 0x00, // FullBox
				0x00, 0x00, 0x00, 0x01,
				0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00,
			},
		},
		{
			name: "trex",
			src: &Trex{
				TrackID:                       1,
				DefaultSampleDescriptionIndex: 1,
				DefaultSampleDuration:         3000,
				DefaultSampleFlags:            0x00010000,
			},
			bin: []byte{
				0, 0x00, 0x00, 0x00, // FullBox
				0x00, 0x00, 0x00, 0x01,
				0x00, 0x00, 0x00, 0x01,
				0x00, 0x00, 0x0b, 0xb8,
				0x00, 0x00, 0x00, 0x00,
				0x00, 0x01, 0x00, 0x00,
			},
		},
		{
			name: "tfhd with defaults",
			src: &Tfhd{
				FullBox: FullBox{Flags: [3]byte{0x02, 0x00, 0x38}},
				TrackID: 1, DefaultSampleDuration: 3000, DefaultSampleSize: 512,
			},
			bin: []byte{
				0, 0x02, 0x00, 0x38, // FullBox
				0x00, 0x00, 0x00, 0x01,
				0x00, 0x00, 0x0b, 0xb8,
				0x00, 0x00, 0x02, 0x00,
				0x00, 0x00, 0x00, 0x00,
			},
		},
		{
			name: "tfdt",
			src:  &Tfdt{BaseMediaDecodeTime: 0x0123456789abcdef},
			bin: []byte{
				0, 0x00, 0x00, 0x00, // FullBox
				0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef,
			},
		},
		{
			name: "trun sample duration + size",
			src: &Trun{
				FullBox: FullBox{Flags: [3]byte{0x00, 0x03, 0x00}},
				Entries: []TrunEntry{
					{SampleDuration: 100, SampleSize: 10},
					{SampleDuration: 101, SampleSize: 11},
				},
			},
			bin: []byte{
				0, 0x00, 0x03, 0x00, // FullBox
				0x00, 0x00, 0x00, 0x02,
				0x00, 0x00, 0x00, 0x64, 0x00, 0x00, 0x00, 0x0a,
				0x00, 0x00, 0x00, 0x65, 0x00, 0x00, 0x00, 0x0b,
			},
		},
		{
			name: "vsid",
			src:  &Vsid{SourceID: 7},
			bin:  []byte{0x00, 0x00, 0x00, 0x07},
		},
		{
			name: "payl",
			src:  Payl("hello world"),
			bin:  []byte("hello world"),
		},
		{
			name: "colr nclx",
			src:  &Colr{Primaries: 1, Transfer: 1, Matrix: 1, FullRange: false},
			bin: []byte{
				'n', 'c', 'l', 'x',
				0x00, 0x01,
				0x00, 0x01,
				0x00, 0x01,
				0x00,
			},
		},
		{
			name: "vpcC",
			src: &VpcC{
				Profile: 0, Level: 10, BitDepth: 8, ChromaSubsampling: 1,
				ColourPrimaries: 1, TransferCharacteristics: 1, MatrixCoefficients: 1,
			},
			bin: []byte{
				0, 0x00, 0x00, 0x00, // FullBox
				0x00, 0x0a,
				0x82, // bitDepth=8<<4 | chroma=1<<1 | fullRange=0
				0x01, 0x01, 0x01,
				0x00, 0x00,
			},
		},
		{
			name: "dOps",
			src:  &DOps{OutputChannelCount: 2, PreSkip: 312, InputSampleRate: 48000, OutputGain: 0},
			bin: []byte{
				0x00,       // version
				0x02,       // channels
				0x01, 0x38, // preskip
				0x00, 0x00, 0xbb, 0x80, // input sample rate
				0x00, 0x00, // output gain
				0x00, // channel mapping family
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := marshalBox(tc.src)
			require.Equal(t, tc.src.Size(), len(got))
			require.Equal(t, tc.bin, got)
		})
	}
}

func TestBoxesTreeSkipsNilChildren(t *testing.T) {
	tree := &Boxes{
		Box: Moov(),
		Children: []*Boxes{
			{Box: &Mvhd{Timescale: 1000}},
			nil,
			{Box: Trak()},
		},
	}
	buf := make([]byte, tree.Size())
	pos := 0
	tree.Marshal(buf, &pos)
	require.Equal(t, len(buf), pos)

	require.Equal(t, "moov", string(buf[4:8]))
}

func TestBoxesLargeSizeHeader(t *testing.T) {
	tree := &Boxes{Box: &Mdat{Data: []byte{1, 2, 3}}, LargeSize: true}
	require.Equal(t, 16+3, tree.Size())

	buf := make([]byte, tree.Size())
	pos := 0
	tree.Marshal(buf, &pos)
	require.Equal(t, uint32(1), be32(buf[0:4]))
	require.Equal(t, "mdat", string(buf[4:8]))
	require.Equal(t, uint64(tree.Size()), be64(buf[8:16]))
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func be64(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
