package mp4

/************************* FullBox **************************/

// FullBox is an ISOBMFF FullBox: a Box with a 1-byte version and a 3-byte
// flags field prepended.
type FullBox struct {
	Version uint8
	Flags   [3]byte
}

// GetFlags returns the flags as a single 24-bit integer.
func (b *FullBox) GetFlags() uint32 {
	return uint32(b.Flags[0])<<16 | uint32(b.Flags[1])<<8 | uint32(b.Flags[2])
}

// CheckFlag reports whether every bit set in flag is also set in b's flags.
func (b *FullBox) CheckFlag(flag uint32) bool {
	return b.GetFlags()&flag == flag
}

// Size returns the marshaled size of the version+flags header.
func (b *FullBox) Size() int {
	return 4
}

// Marshal writes the version+flags header.
func (b *FullBox) Marshal(buf []byte, pos *int) {
	WriteByte(buf, pos, b.Version)
	Write(buf, pos, b.Flags[:])
}

/*************************** raw passthrough ****************************/

// RawBox carries an opaque, already-encoded payload under a given type,
// used for codec-private records supplied wholesale by the caller
// (avcC/hvcC/av1C contents, a WebVTT vttC preamble).
type RawBox struct {
	BoxType BoxType
	Data    []byte
}

// Type returns the BoxType.
func (b *RawBox) Type() BoxType { return b.BoxType }

// Size returns the marshaled size in bytes.
func (b *RawBox) Size() int { return len(b.Data) }

// Marshal box to buffer.
func (b *RawBox) Marshal(buf []byte, pos *int) { Write(buf, pos, b.Data) }

/*************************** ftyp ****************************/

// Ftyp is the ISOBMFF file-type box.
type Ftyp struct {
	MajorBrand       BoxType
	MinorVersion     uint32
	CompatibleBrands []BoxType
}

// Type returns the BoxType.
func (*Ftyp) Type() BoxType { return FourCC("ftyp") }

// Size returns the marshaled size in bytes.
func (b *Ftyp) Size() int {
	return 8 + len(b.CompatibleBrands)*4
}

// Marshal box to buffer.
func (b *Ftyp) Marshal(buf []byte, pos *int) {
	Write(buf, pos, b.MajorBrand[:])
	WriteUint32(buf, pos, b.MinorVersion)
	for _, brand := range b.CompatibleBrands {
		Write(buf, pos, brand[:])
	}
}

/*************************** free ****************************/

// Free is a free-space padding box; its contents are irrelevant filler
// used to reserve room for a moov that will be patched in place later
// (object-shaped fast-start layout).
type Free struct {
	PadSize int
}

// Type returns the BoxType.
func (*Free) Type() BoxType { return FourCC("free") }

// Size returns the marshaled size in bytes.
func (b *Free) Size() int { return b.PadSize }

// Marshal box to buffer.
func (b *Free) Marshal(buf []byte, pos *int) {
	for i := 0; i < b.PadSize; i++ {
		WriteByte(buf, pos, 0)
	}
}

/*************************** mdat ****************************/

// Mdat is the ISOBMFF media-data box; in the streaming and fragmented
// layouts its contents are written directly through BoxWriter's
// reserve-and-patch path rather than through Marshal, so Data is only
// populated for the in-memory fast-start layout's final assembly.
type Mdat struct {
	Data []byte
}

// Type returns the BoxType.
func (*Mdat) Type() BoxType { return FourCC("mdat") }

// Size returns the marshaled size in bytes.
func (b *Mdat) Size() int { return len(b.Data) }

// Marshal box to buffer.
func (b *Mdat) Marshal(buf []byte, pos *int) { Write(buf, pos, b.Data) }

/*************************** mvhd / tkhd / mdhd ****************************/

// Mvhd is the ISOBMFF movie header box.
type Mvhd struct {
	FullBox
	CreationTime     uint32
	ModificationTime uint32
	Timescale        uint32
	Duration         uint32
	Rate             int32 // fixed-point 16.16, template 0x00010000
	Volume           int16 // fixed-point 8.8, template 0x0100
	Reserved         int16
	Reserved2        [2]uint32
	Matrix           [9]int32
	PreDefined       [6]int32
	NextTrackID      uint32
}

// Type returns the BoxType.
func (*Mvhd) Type() BoxType { return FourCC("mvhd") }

// Size returns the marshaled size in bytes.
func (b *Mvhd) Size() int { return 100 }

// Marshal box to buffer.
func (b *Mvhd) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteUint32(buf, pos, b.CreationTime)
	WriteUint32(buf, pos, b.ModificationTime)
	WriteUint32(buf, pos, b.Timescale)
	WriteUint32(buf, pos, b.Duration)
	WriteInt32(buf, pos, b.Rate)
	WriteInt16(buf, pos, b.Volume)
	WriteInt16(buf, pos, b.Reserved)
	for _, r := range b.Reserved2 {
		WriteUint32(buf, pos, r)
	}
	for _, m := range b.Matrix {
		WriteInt32(buf, pos, m)
	}
	for _, p := range b.PreDefined {
		WriteInt32(buf, pos, p)
	}
	WriteUint32(buf, pos, b.NextTrackID)
}

// Tkhd is the ISOBMFF track header box.
type Tkhd struct {
	FullBox
	CreationTime     uint32
	ModificationTime uint32
	TrackID          uint32
	Reserved0        uint32
	Duration         uint32
	Reserved1        [2]uint32
	Layer            int16
	AlternateGroup   int16
	Volume           int16 // 0x0100 for audio, 0 otherwise
	Reserved2        uint16
	Matrix           [9]int32
	Width            uint32 // fixed-point 16.16
	Height           uint32 // fixed-point 16.16
}

// Type returns the BoxType.
func (*Tkhd) Type() BoxType { return FourCC("tkhd") }

// Size returns the marshaled size in bytes.
func (b *Tkhd) Size() int { return 84 }

// Marshal box to buffer.
func (b *Tkhd) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteUint32(buf, pos, b.CreationTime)
	WriteUint32(buf, pos, b.ModificationTime)
	WriteUint32(buf, pos, b.TrackID)
	WriteUint32(buf, pos, b.Reserved0)
	WriteUint32(buf, pos, b.Duration)
	for _, r := range b.Reserved1 {
		WriteUint32(buf, pos, r)
	}
	WriteInt16(buf, pos, b.Layer)
	WriteInt16(buf, pos, b.AlternateGroup)
	WriteInt16(buf, pos, b.Volume)
	WriteUint16(buf, pos, b.Reserved2)
	for _, m := range b.Matrix {
		WriteInt32(buf, pos, m)
	}
	WriteUint32(buf, pos, b.Width)
	WriteUint32(buf, pos, b.Height)
}

// Mdhd is the ISOBMFF media header box.
type Mdhd struct {
	FullBox
	CreationTime     uint32
	ModificationTime uint32
	Timescale        uint32
	Duration         uint32
	// Language is the 3-letter ISO-639-2/T code, default "und" when zero.
	Language   [3]byte
	PreDefined uint16
}

// Type returns the BoxType.
func (*Mdhd) Type() BoxType { return FourCC("mdhd") }

// Size returns the marshaled size in bytes.
func (b *Mdhd) Size() int { return 24 }

// Marshal box to buffer.
func (b *Mdhd) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteUint32(buf, pos, b.CreationTime)
	WriteUint32(buf, pos, b.ModificationTime)
	WriteUint32(buf, pos, b.Timescale)
	WriteUint32(buf, pos, b.Duration)
	WriteUint16(buf, pos, packLanguage(b.Language))
	WriteUint16(buf, pos, b.PreDefined)
}

// packLanguage packs a 3-letter ISO-639-2/T code into the 15-bit
// (5 bits per character, offset from 0x60) representation mdhd requires.
func packLanguage(lang [3]byte) uint16 {
	if lang == ([3]byte{}) {
		lang = [3]byte{'u', 'n', 'd'}
	}
	return uint16(lang[0]-0x60)<<10 | uint16(lang[1]-0x60)<<5 | uint16(lang[2]-0x60)
}

/*************************** hdlr ****************************/

// Hdlr is the ISOBMFF handler-reference box.
type Hdlr struct {
	FullBox
	PreDefined  uint32
	HandlerType BoxType
	Reserved    [3]uint32
	Name        string
}

// Type returns the BoxType.
func (*Hdlr) Type() BoxType { return FourCC("hdlr") }

// Size returns the marshaled size in bytes.
func (b *Hdlr) Size() int {
	return 4 + 4 + 4 + 12 + len(b.Name) + 1
}

// Marshal box to buffer.
func (b *Hdlr) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteUint32(buf, pos, b.PreDefined)
	Write(buf, pos, b.HandlerType[:])
	for _, r := range b.Reserved {
		WriteUint32(buf, pos, r)
	}
	WriteString(buf, pos, b.Name)
}

/*************************** structural containers ****************************/

// containerBox is a box with no payload of its own, only children
// (moov, trak, mdia, minf, dinf, stbl, moof, traf, mvex, mfra).
type containerBox struct{ boxType BoxType }

// Type returns the BoxType.
func (b *containerBox) Type() BoxType { return b.boxType }

// Size returns the marshaled size in bytes (containers carry no payload).
func (b *containerBox) Size() int { return 0 }

// Marshal is never called: Boxes.Marshal skips zero-size payloads.
func (b *containerBox) Marshal(buf []byte, pos *int) {}

// Moov is the ISOBMFF movie box.
func Moov() ImmutableBox { return &containerBox{FourCC("moov")} }

// Trak is the ISOBMFF track box.
func Trak() ImmutableBox { return &containerBox{FourCC("trak")} }

// Mdia is the ISOBMFF media box.
func Mdia() ImmutableBox { return &containerBox{FourCC("mdia")} }

// Minf is the ISOBMFF media-information box.
func Minf() ImmutableBox { return &containerBox{FourCC("minf")} }

// Dinf is the ISOBMFF data-information box.
func Dinf() ImmutableBox { return &containerBox{FourCC("dinf")} }

// Stbl is the ISOBMFF sample-table box.
func Stbl() ImmutableBox { return &containerBox{FourCC("stbl")} }

// Moof is the ISOBMFF movie-fragment box.
func Moof() ImmutableBox { return &containerBox{FourCC("moof")} }

// Traf is the ISOBMFF track-fragment box.
func Traf() ImmutableBox { return &containerBox{FourCC("traf")} }

// Mvex is the ISOBMFF movie-extends box.
func Mvex() ImmutableBox { return &containerBox{FourCC("mvex")} }

// Mfra is the ISOBMFF movie-fragment-random-access box.
func Mfra() ImmutableBox { return &containerBox{FourCC("mfra")} }

/*************************** vmhd / smhd / nmhd ****************************/

// Vmhd is the ISOBMFF video media header box.
type Vmhd struct {
	FullBox
	GraphicsMode uint16
	OpColor      [3]uint16
}

// Type returns the BoxType.
func (*Vmhd) Type() BoxType { return FourCC("vmhd") }

// Size returns the marshaled size in bytes.
func (b *Vmhd) Size() int { return 12 }

// Marshal box to buffer.
func (b *Vmhd) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteUint16(buf, pos, b.GraphicsMode)
	for _, c := range b.OpColor {
		WriteUint16(buf, pos, c)
	}
}

// Smhd is the ISOBMFF sound media header box.
type Smhd struct {
	FullBox
	Balance  int16
	Reserved uint16
}

// Type returns the BoxType.
func (*Smhd) Type() BoxType { return FourCC("smhd") }

// Size returns the marshaled size in bytes.
func (b *Smhd) Size() int { return 8 }

// Marshal box to buffer.
func (b *Smhd) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteInt16(buf, pos, b.Balance)
	WriteUint16(buf, pos, b.Reserved)
}

// Nmhd is the ISOBMFF "null" media header box, used for subtitle tracks.
type Nmhd struct{ FullBox }

// Type returns the BoxType.
func (*Nmhd) Type() BoxType { return FourCC("nmhd") }

// Size returns the marshaled size in bytes.
func (b *Nmhd) Size() int { return 4 }

// Marshal box to buffer.
func (b *Nmhd) Marshal(buf []byte, pos *int) { b.FullBox.Marshal(buf, pos) }

/*************************** dref / url ****************************/

// Dref is the ISOBMFF data-reference box.
type Dref struct {
	FullBox
	EntryCount uint32
}

// Type returns the BoxType.
func (*Dref) Type() BoxType { return FourCC("dref") }

// Size returns the marshaled size in bytes.
func (b *Dref) Size() int { return 8 }

// Marshal box to buffer.
func (b *Dref) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteUint32(buf, pos, b.EntryCount)
}

// URL is the ISOBMFF data-entry-url box; with the self-contained flag set
// it carries no location string, meaning "media data is in this file".
type URL struct{ FullBox }

// SelfContainedFlag marks a URL box whose media is in this same file.
const SelfContainedFlag = 0x000001

// Type returns the BoxType.
func (*URL) Type() BoxType { return FourCC("url ") }

// Size returns the marshaled size in bytes.
func (b *URL) Size() int { return 4 }

// Marshal box to buffer.
func (b *URL) Marshal(buf []byte, pos *int) { b.FullBox.Marshal(buf, pos) }

/*************************** sample tables ****************************/

// SttsEntry is one run-length entry of a time-to-sample table.
type SttsEntry struct {
	SampleCount uint32
	SampleDelta uint32
}

// Stts is the ISOBMFF decoding-time-to-sample box.
type Stts struct {
	FullBox
	Entries []SttsEntry
}

// Type returns the BoxType.
func (*Stts) Type() BoxType { return FourCC("stts") }

// Size returns the marshaled size in bytes.
func (b *Stts) Size() int { return 8 + len(b.Entries)*8 }

// Marshal box to buffer.
func (b *Stts) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteUint32(buf, pos, uint32(len(b.Entries)))
	for _, e := range b.Entries {
		WriteUint32(buf, pos, e.SampleCount)
		WriteUint32(buf, pos, e.SampleDelta)
	}
}

// CttsEntry is one run-length entry of a composition-time-offset table.
type CttsEntry struct {
	SampleCount  uint32
	SampleOffset int32
}

// Ctts is the ISOBMFF composition-time-to-sample box. Only emitted when
// at least one offset is non-zero (§4.4.3).
type Ctts struct {
	FullBox // Version 1, so offsets can be negative.
	Entries []CttsEntry
}

// Type returns the BoxType.
func (*Ctts) Type() BoxType { return FourCC("ctts") }

// Size returns the marshaled size in bytes.
func (b *Ctts) Size() int { return 8 + len(b.Entries)*8 }

// Marshal box to buffer.
func (b *Ctts) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteUint32(buf, pos, uint32(len(b.Entries)))
	for _, e := range b.Entries {
		WriteUint32(buf, pos, e.SampleCount)
		WriteInt32(buf, pos, e.SampleOffset)
	}
}

// Stss is the ISOBMFF sync-sample box, listing the 1-based indices of key
// frames. Omitted entirely when every sample is a key frame.
type Stss struct {
	FullBox
	SampleNumbers []uint32
}

// Type returns the BoxType.
func (*Stss) Type() BoxType { return FourCC("stss") }

// Size returns the marshaled size in bytes.
func (b *Stss) Size() int { return 8 + len(b.SampleNumbers)*4 }

// Marshal box to buffer.
func (b *Stss) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteUint32(buf, pos, uint32(len(b.SampleNumbers)))
	for _, n := range b.SampleNumbers {
		WriteUint32(buf, pos, n)
	}
}

// StscEntry is one run-length entry of a sample-to-chunk table.
// FirstChunk is 1-based.
type StscEntry struct {
	FirstChunk             uint32
	SamplesPerChunk        uint32
	SampleDescriptionIndex uint32
}

// Stsc is the ISOBMFF sample-to-chunk (compactly-coded-chunk) box.
type Stsc struct {
	FullBox
	Entries []StscEntry
}

// Type returns the BoxType.
func (*Stsc) Type() BoxType { return FourCC("stsc") }

// Size returns the marshaled size in bytes.
func (b *Stsc) Size() int { return 8 + len(b.Entries)*12 }

// Marshal box to buffer.
func (b *Stsc) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteUint32(buf, pos, uint32(len(b.Entries)))
	for _, e := range b.Entries {
		WriteUint32(buf, pos, e.FirstChunk)
		WriteUint32(buf, pos, e.SamplesPerChunk)
		WriteUint32(buf, pos, e.SampleDescriptionIndex)
	}
}

// Stsz is the ISOBMFF sample-size box.
type Stsz struct {
	FullBox
	EntrySizes []uint32
}

// Type returns the BoxType.
func (*Stsz) Type() BoxType { return FourCC("stsz") }

// Size returns the marshaled size in bytes.
func (b *Stsz) Size() int { return 12 + len(b.EntrySizes)*4 }

// Marshal box to buffer.
func (b *Stsz) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteUint32(buf, pos, 0) // sample_size == 0: sizes are in the table.
	WriteUint32(buf, pos, uint32(len(b.EntrySizes)))
	for _, s := range b.EntrySizes {
		WriteUint32(buf, pos, s)
	}
}

// Stco is the ISOBMFF 32-bit chunk-offset box.
type Stco struct {
	FullBox
	ChunkOffsets []uint32
}

// Type returns the BoxType.
func (*Stco) Type() BoxType { return FourCC("stco") }

// Size returns the marshaled size in bytes.
func (b *Stco) Size() int { return 8 + len(b.ChunkOffsets)*4 }

// Marshal box to buffer.
func (b *Stco) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteUint32(buf, pos, uint32(len(b.ChunkOffsets)))
	for _, o := range b.ChunkOffsets {
		WriteUint32(buf, pos, o)
	}
}

// Co64 is the ISOBMFF 64-bit chunk-offset box, used once any chunk offset
// reaches 2^32 (§8.4 scenario 6).
type Co64 struct {
	FullBox
	ChunkOffsets []uint64
}

// Type returns the BoxType.
func (*Co64) Type() BoxType { return FourCC("co64") }

// Size returns the marshaled size in bytes.
func (b *Co64) Size() int { return 8 + len(b.ChunkOffsets)*8 }

// Marshal box to buffer.
func (b *Co64) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteUint32(buf, pos, uint32(len(b.ChunkOffsets)))
	for _, o := range b.ChunkOffsets {
		WriteUint64(buf, pos, o)
	}
}

// Stsd is the ISOBMFF sample-description box; its single child is the
// codec-specific sample entry (avc1, hvc1, vp08, vp09, av01, mp4a, Opus,
// wvtt).
type Stsd struct{ FullBox }

// Type returns the BoxType.
func (*Stsd) Type() BoxType { return FourCC("stsd") }

// Size returns the marshaled size in bytes.
func (b *Stsd) Size() int { return 8 }

// Marshal box to buffer.
func (b *Stsd) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteUint32(buf, pos, 1)
}

/*********************** sample entries *************************/

// SampleEntry is the common 8-byte header shared by every sample entry.
type SampleEntry struct {
	DataReferenceIndex uint16
}

func (e *SampleEntry) marshal(buf []byte, pos *int) {
	for i := 0; i < 6; i++ {
		WriteByte(buf, pos, 0)
	}
	WriteUint16(buf, pos, e.DataReferenceIndex)
}

// namedBox adapts an ImmutableBox whose Type() is fixed at construction
// time, used for the handful of boxes that share a marshal layout but
// differ only in their 4-character tag (avc1/hvc1/vp08/vp09/av01).
type namedBox struct {
	boxType BoxType
	inner   interface {
		Size() int
		Marshal(buf []byte, pos *int)
	}
}

// Type returns the BoxType.
func (n namedBox) Type() BoxType { return n.boxType }

// Size returns the marshaled size in bytes.
func (n namedBox) Size() int { return n.inner.Size() }

// Marshal box to buffer.
func (n namedBox) Marshal(buf []byte, pos *int) { n.inner.Marshal(buf, pos) }

// VisualSampleEntry is the common fixed layout of avc1/hvc1/vp08/vp09/av01.
type VisualSampleEntry struct {
	SampleEntry
	Width, Height  uint16
	Compressorname [32]byte
}

// Size returns the marshaled size of the fixed visual sample entry
// header, not including the codec configuration child box.
func (e *VisualSampleEntry) Size() int { return 78 }

// Marshal box to buffer.
func (e *VisualSampleEntry) Marshal(buf []byte, pos *int) {
	e.marshal(buf, pos)
	WriteUint16(buf, pos, 0) // pre_defined
	WriteUint16(buf, pos, 0) // reserved
	for i := 0; i < 3; i++ {
		WriteUint32(buf, pos, 0) // pre_defined
	}
	WriteUint16(buf, pos, e.Width)
	WriteUint16(buf, pos, e.Height)
	WriteFixed1616(buf, pos, 72) // horizresolution, 72 dpi
	WriteFixed1616(buf, pos, 72) // vertresolution, 72 dpi
	WriteUint32(buf, pos, 0)     // reserved
	WriteUint16(buf, pos, 1)     // frame_count
	Write(buf, pos, e.Compressorname[:])
	WriteUint16(buf, pos, 24) // depth
	WriteInt16(buf, pos, -1)  // pre_defined
}

func visualEntry(boxType BoxType, w, h uint16) *Boxes {
	e := &VisualSampleEntry{SampleEntry: SampleEntry{DataReferenceIndex: 1}, Width: w, Height: h}
	return &Boxes{Box: namedBox{boxType, e}}
}

// Avc1Box builds the avc1 sample entry + avcC box tree. avcc is the raw
// AVCDecoderConfigurationRecord bytes supplied by the caller's
// VideoDecoderConfig.description.
func Avc1Box(w, h uint16, avcc []byte) *Boxes {
	b := visualEntry(FourCC("avc1"), w, h)
	b.Children = []*Boxes{{Box: &RawBox{BoxType: FourCC("avcC"), Data: avcc}}}
	return b
}

// Hvc1Box builds the hvc1 sample entry + hvcC box tree. hvcc is the raw
// HEVCDecoderConfigurationRecord bytes supplied by the caller.
func Hvc1Box(w, h uint16, hvcc []byte) *Boxes {
	b := visualEntry(FourCC("hvc1"), w, h)
	b.Children = []*Boxes{{Box: &RawBox{BoxType: FourCC("hvcC"), Data: hvcc}}}
	return b
}

// Av01Box builds the av01 sample entry + av1C box tree. av1c is the raw
// AV1CodecConfigurationRecord bytes supplied by the caller.
func Av01Box(w, h uint16, av1c []byte) *Boxes {
	b := visualEntry(FourCC("av01"), w, h)
	b.Children = []*Boxes{{Box: &RawBox{BoxType: FourCC("av1C"), Data: av1c}}}
	return b
}

// VpcC is the VP8/VP9 codec configuration box. Colour fields are derived
// from the track's colorSpace, never hardcoded to "unspecified" (Design
// Notes open question #3).
type VpcC struct {
	FullBox
	Profile, Level               uint8
	BitDepth, ChromaSubsampling  uint8
	VideoFullRangeFlag           bool
	ColourPrimaries              uint8
	TransferCharacteristics      uint8
	MatrixCoefficients           uint8
}

// Type returns the BoxType.
func (*VpcC) Type() BoxType { return FourCC("vpcC") }

// Size returns the marshaled size in bytes.
func (b *VpcC) Size() int { return 12 }

// Marshal box to buffer.
func (b *VpcC) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteByte(buf, pos, b.Profile)
	WriteByte(buf, pos, b.Level)
	var full byte
	if b.VideoFullRangeFlag {
		full = 1
	}
	WriteByte(buf, pos, b.BitDepth&0xf<<4|b.ChromaSubsampling&0x7<<1|full)
	WriteByte(buf, pos, b.ColourPrimaries)
	WriteByte(buf, pos, b.TransferCharacteristics)
	WriteByte(buf, pos, b.MatrixCoefficients)
	WriteUint16(buf, pos, 0) // codecIntializationDataLength
}

// Vp08Box builds the vp08 sample entry + vpcC box tree.
func Vp08Box(w, h uint16, cfg VpcC) *Boxes {
	b := visualEntry(FourCC("vp08"), w, h)
	b.Children = []*Boxes{{Box: &cfg}}
	return b
}

// Vp09Box builds the vp09 sample entry + vpcC box tree.
func Vp09Box(w, h uint16, cfg VpcC) *Boxes {
	b := visualEntry(FourCC("vp09"), w, h)
	b.Children = []*Boxes{{Box: &cfg}}
	return b
}

// Mp4a is the MPEG-4 audio sample entry.
type Mp4a struct {
	SampleEntry
	ChannelCount uint16
	SampleRate   uint32 // integer Hz; written as fixed-point 16.16
}

// Type returns the BoxType.
func (*Mp4a) Type() BoxType { return FourCC("mp4a") }

// Size returns the marshaled size in bytes, not including esds.
func (b *Mp4a) Size() int { return 28 }

// Marshal box to buffer.
func (b *Mp4a) Marshal(buf []byte, pos *int) {
	b.marshal(buf, pos)
	WriteUint16(buf, pos, 0) // version
	WriteUint16(buf, pos, 0) // revision
	WriteUint32(buf, pos, 0) // vendor
	WriteUint16(buf, pos, b.ChannelCount)
	WriteUint16(buf, pos, 16) // sample size
	WriteUint16(buf, pos, 0)  // compression ID
	WriteUint16(buf, pos, 0)  // packet size
	WriteFixed1616(buf, pos, float64(b.SampleRate))
}

// ESDescrTag and friends are MPEG-4 descriptor tags used by esds
// (ISO/IEC 14496-1).
const (
	ESDescrTag            = 0x03
	DecoderConfigDescrTag = 0x04
	DecSpecificInfoTag    = 0x05
	SLConfigDescrTag      = 0x06
)

// Esds is the MPEG-4 elementary stream descriptor box, layered as
// ESDescriptor > DecoderConfigDescriptor > DecoderSpecificInfo >
// SLConfigDescriptor. Config is the AudioSpecificConfig bytes supplied by
// the caller's AudioDecoderConfig.description.
type Esds struct {
	FullBox
	TrackID uint16
	Config  []byte
}

// Type returns the BoxType.
func (*Esds) Type() BoxType { return FourCC("esds") }

// Size returns the marshaled size in bytes. Descriptor length fields are
// budgeted at 1 byte each, matching Marshal's WriteVarInt(..., minBytes=1).
func (b *Esds) Size() int {
	return 4 + (1 + 1) + 3 + (1 + 1) + 13 + (1 + 1) + len(b.Config) + (1 + 1 + 1)
}

// Marshal box to buffer.
func (b *Esds) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	decSpecificLen := uint64(len(b.Config))

	WriteByte(buf, pos, ESDescrTag)
	WriteVarInt(buf, pos, 3+(2+13+2+decSpecificLen)+(2+1), 1)
	WriteUint16(buf, pos, b.TrackID)
	WriteByte(buf, pos, 0) // flags

	WriteByte(buf, pos, DecoderConfigDescrTag)
	WriteVarInt(buf, pos, 13+2+decSpecificLen, 1)
	WriteByte(buf, pos, 0x40) // object type indication: MPEG-4 Audio
	WriteByte(buf, pos, 0x15) // streamType=audio(5)<<2 | upStream=0 | reserved=1
	WriteUint24(buf, pos, 0)  // buffer size DB
	WriteUint32(buf, pos, 0)  // max bitrate
	WriteUint32(buf, pos, 0)  // average bitrate

	WriteByte(buf, pos, DecSpecificInfoTag)
	WriteVarInt(buf, pos, decSpecificLen, 1)
	Write(buf, pos, b.Config)

	WriteByte(buf, pos, SLConfigDescrTag)
	WriteVarInt(buf, pos, 1, 1)
	WriteByte(buf, pos, 2) // predefined: MP4
}

// Mp4aBox builds the mp4a sample entry + esds box tree.
func Mp4aBox(channels uint16, sampleRate uint32, trackID uint16, config []byte) *Boxes {
	return &Boxes{
		Box:      &Mp4a{SampleEntry: SampleEntry{DataReferenceIndex: 1}, ChannelCount: channels, SampleRate: sampleRate},
		Children: []*Boxes{{Box: &Esds{TrackID: trackID, Config: config}}},
	}
}

// OpusBox is the Opus audio sample entry.
type OpusBox struct {
	SampleEntry
	ChannelCount uint16
	SampleRate   uint32
}

// Type returns the BoxType.
func (*OpusBox) Type() BoxType { return FourCC("Opus") }

// Size returns the marshaled size in bytes, not including dOps.
func (b *OpusBox) Size() int { return 28 }

// Marshal box to buffer.
func (b *OpusBox) Marshal(buf []byte, pos *int) {
	b.marshal(buf, pos)
	WriteUint16(buf, pos, 0)
	WriteUint16(buf, pos, 0)
	WriteUint32(buf, pos, 0)
	WriteUint16(buf, pos, b.ChannelCount)
	WriteUint16(buf, pos, 16)
	WriteUint16(buf, pos, 0)
	WriteUint16(buf, pos, 0)
	WriteFixed1616(buf, pos, float64(b.SampleRate))
}

// DOps is the Opus decoder configuration box (§6.2): version 0, output
// channel count, pre-skip, input sample rate, output gain and a
// single-stream channel mapping.
type DOps struct {
	OutputChannelCount uint8
	PreSkip            uint16
	InputSampleRate    uint32
	OutputGain         int16 // fixed-point 8.8
}

// Type returns the BoxType.
func (*DOps) Type() BoxType { return FourCC("dOps") }

// Size returns the marshaled size in bytes.
func (b *DOps) Size() int { return 11 }

// Marshal box to buffer.
func (b *DOps) Marshal(buf []byte, pos *int) {
	WriteByte(buf, pos, 0) // version
	WriteByte(buf, pos, b.OutputChannelCount)
	WriteUint16(buf, pos, b.PreSkip)
	WriteUint32(buf, pos, b.InputSampleRate)
	WriteInt16(buf, pos, b.OutputGain)
	WriteByte(buf, pos, 0) // channel mapping family
}

// OpusBoxTree builds the Opus sample entry + dOps box tree.
func OpusBoxTree(channels uint16, sampleRate uint32, dops DOps) *Boxes {
	return &Boxes{
		Box:      &OpusBox{SampleEntry: SampleEntry{DataReferenceIndex: 1}, ChannelCount: channels, SampleRate: sampleRate},
		Children: []*Boxes{{Box: &dops}},
	}
}

/*************************** wvtt (WebVTT sample entry) ****************************/

type wvttEntry struct{}

// Type returns the BoxType.
func (wvttEntry) Type() BoxType { return FourCC("wvtt") }

// Size returns the marshaled size in bytes.
func (wvttEntry) Size() int { return 8 }

// Marshal box to buffer.
func (wvttEntry) Marshal(buf []byte, pos *int) {
	e := SampleEntry{DataReferenceIndex: 1}
	e.marshal(buf, pos)
}

// WvttBox builds the wvtt sample entry + vttC (config) box tree. preamble
// is the WebVTT header text captured by the cue parser (§4.6).
func WvttBox(preamble string) *Boxes {
	return &Boxes{
		Box:      wvttEntry{},
		Children: []*Boxes{{Box: &RawBox{BoxType: FourCC("vttC"), Data: []byte(preamble)}}},
	}
}

/*************************** colr ****************************/

// Colr is the ISOBMFF colour information box, restricted to the 'nclx'
// form (on-screen colour description, as opposed to an embedded ICC
// profile).
type Colr struct {
	Primaries, Transfer, Matrix uint16
	FullRange                   bool
}

// Type returns the BoxType.
func (*Colr) Type() BoxType { return FourCC("colr") }

// Size returns the marshaled size in bytes.
func (b *Colr) Size() int { return 11 }

// Marshal box to buffer.
func (b *Colr) Marshal(buf []byte, pos *int) {
	Write(buf, pos, []byte("nclx"))
	WriteUint16(buf, pos, b.Primaries)
	WriteUint16(buf, pos, b.Transfer)
	WriteUint16(buf, pos, b.Matrix)
	var fr byte
	if b.FullRange {
		fr = 0x80
	}
	WriteByte(buf, pos, fr)
}

/*************************** mvex / trex ****************************/

// Trex is the ISOBMFF track-extends box, required in the moov of a
// fragmented file (one per track).
type Trex struct {
	FullBox
	TrackID                       uint32
	DefaultSampleDescriptionIndex uint32
	DefaultSampleDuration         uint32
	DefaultSampleSize             uint32
	DefaultSampleFlags            uint32
}

// Type returns the BoxType.
func (*Trex) Type() BoxType { return FourCC("trex") }

// Size returns the marshaled size in bytes.
func (b *Trex) Size() int { return 24 }

// Marshal box to buffer.
func (b *Trex) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteUint32(buf, pos, b.TrackID)
	WriteUint32(buf, pos, b.DefaultSampleDescriptionIndex)
	WriteUint32(buf, pos, b.DefaultSampleDuration)
	WriteUint32(buf, pos, b.DefaultSampleSize)
	WriteUint32(buf, pos, b.DefaultSampleFlags)
}

/*************************** moof / traf ****************************/

// Mfhd is the ISOBMFF movie-fragment header box.
type Mfhd struct {
	FullBox
	SequenceNumber uint32
}

// Type returns the BoxType.
func (*Mfhd) Type() BoxType { return FourCC("mfhd") }

// Size returns the marshaled size in bytes.
func (b *Mfhd) Size() int { return 8 }

// Marshal box to buffer.
func (b *Mfhd) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteUint32(buf, pos, b.SequenceNumber)
}

// tfhd flags (§4.4.4).
const (
	TfhdBaseDataOffsetPresent         = 0x000001
	TfhdSampleDescriptionIndexPresent = 0x000002
	TfhdDefaultSampleDurationPresent  = 0x000008
	TfhdDefaultSampleSizePresent      = 0x000010
	TfhdDefaultSampleFlagsPresent     = 0x000020
	TfhdDefaultBaseIsMoof             = 0x020000
)

// Tfhd is the ISOBMFF track-fragment header box.
type Tfhd struct {
	FullBox
	TrackID               uint32
	DefaultSampleDuration uint32
	DefaultSampleSize     uint32
	DefaultSampleFlags    uint32
}

// Type returns the BoxType.
func (*Tfhd) Type() BoxType { return FourCC("tfhd") }

// Size returns the marshaled size in bytes.
func (b *Tfhd) Size() int {
	total := 8
	if b.FullBox.CheckFlag(TfhdDefaultSampleDurationPresent) {
		total += 4
	}
	if b.FullBox.CheckFlag(TfhdDefaultSampleSizePresent) {
		total += 4
	}
	if b.FullBox.CheckFlag(TfhdDefaultSampleFlagsPresent) {
		total += 4
	}
	return total
}

// Marshal box to buffer.
func (b *Tfhd) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteUint32(buf, pos, b.TrackID)
	if b.FullBox.CheckFlag(TfhdDefaultSampleDurationPresent) {
		WriteUint32(buf, pos, b.DefaultSampleDuration)
	}
	if b.FullBox.CheckFlag(TfhdDefaultSampleSizePresent) {
		WriteUint32(buf, pos, b.DefaultSampleSize)
	}
	if b.FullBox.CheckFlag(TfhdDefaultSampleFlagsPresent) {
		WriteUint32(buf, pos, b.DefaultSampleFlags)
	}
}

// Tfdt is the ISOBMFF track-fragment base-media-decode-time box.
type Tfdt struct {
	FullBox // Version 1: 64-bit time.
	BaseMediaDecodeTime uint64
}

// Type returns the BoxType.
func (*Tfdt) Type() BoxType { return FourCC("tfdt") }

// Size returns the marshaled size in bytes.
func (b *Tfdt) Size() int { return 12 }

// Marshal box to buffer.
func (b *Tfdt) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteUint64(buf, pos, b.BaseMediaDecodeTime)
}

// trun flags (§4.4.4).
const (
	TrunDataOffsetPresent                  = 0x000001
	TrunFirstSampleFlagsPresent            = 0x000004
	TrunSampleDurationPresent              = 0x000100
	TrunSampleSizePresent                  = 0x000200
	TrunSampleFlagsPresent                 = 0x000400
	TrunSampleCompositionTimeOffsetPresent = 0x000800
)

// TrunEntry is one per-sample row of a trun box.
type TrunEntry struct {
	SampleDuration       uint32
	SampleSize           uint32
	SampleFlags          uint32
	SampleCompositionOff int32
}

// Trun is the ISOBMFF track-fragment run box.
type Trun struct {
	FullBox
	DataOffset       int32
	FirstSampleFlags uint32
	Entries          []TrunEntry
}

// Type returns the BoxType.
func (*Trun) Type() BoxType { return FourCC("trun") }

// Size returns the marshaled size in bytes.
func (b *Trun) Size() int {
	total := 8
	if b.FullBox.CheckFlag(TrunDataOffsetPresent) {
		total += 4
	}
	if b.FullBox.CheckFlag(TrunFirstSampleFlagsPresent) {
		total += 4
	}
	perEntry := 0
	if b.FullBox.CheckFlag(TrunSampleDurationPresent) {
		perEntry += 4
	}
	if b.FullBox.CheckFlag(TrunSampleSizePresent) {
		perEntry += 4
	}
	if b.FullBox.CheckFlag(TrunSampleFlagsPresent) {
		perEntry += 4
	}
	if b.FullBox.CheckFlag(TrunSampleCompositionTimeOffsetPresent) {
		perEntry += 4
	}
	return total + perEntry*len(b.Entries)
}

// Marshal box to buffer.
func (b *Trun) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteUint32(buf, pos, uint32(len(b.Entries)))
	if b.FullBox.CheckFlag(TrunDataOffsetPresent) {
		WriteInt32(buf, pos, b.DataOffset)
	}
	if b.FullBox.CheckFlag(TrunFirstSampleFlagsPresent) {
		WriteUint32(buf, pos, b.FirstSampleFlags)
	}
	for _, e := range b.Entries {
		if b.FullBox.CheckFlag(TrunSampleDurationPresent) {
			WriteUint32(buf, pos, e.SampleDuration)
		}
		if b.FullBox.CheckFlag(TrunSampleSizePresent) {
			WriteUint32(buf, pos, e.SampleSize)
		}
		if b.FullBox.CheckFlag(TrunSampleFlagsPresent) {
			WriteUint32(buf, pos, e.SampleFlags)
		}
		if b.FullBox.CheckFlag(TrunSampleCompositionTimeOffsetPresent) {
			WriteInt32(buf, pos, e.SampleCompositionOff)
		}
	}
}

/*************************** mfra / tfra / mfro ****************************/

// TfraEntry is one row of a track-fragment random-access table.
type TfraEntry struct {
	Time       uint64 // chunk.startTimestamp (Design Notes open question #2)
	MoofOffset uint64
}

// Tfra is the ISOBMFF track-fragment random-access box, one per track,
// inside mfra.
type Tfra struct {
	FullBox // Version 1: 64-bit time/offset fields.
	TrackID uint32
	Entries []TfraEntry
}

// Type returns the BoxType.
func (*Tfra) Type() BoxType { return FourCC("tfra") }

// Size returns the marshaled size in bytes.
func (b *Tfra) Size() int { return 16 + len(b.Entries)*19 }

// Marshal box to buffer.
func (b *Tfra) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteUint32(buf, pos, b.TrackID)
	WriteUint32(buf, pos, 0) // reserved(26) + 3 one-byte-sized-field lengths, all 0
	WriteUint32(buf, pos, uint32(len(b.Entries)))
	for _, e := range b.Entries {
		WriteUint64(buf, pos, e.Time)
		WriteUint64(buf, pos, e.MoofOffset)
		WriteByte(buf, pos, 1) // traf_number
		WriteByte(buf, pos, 1) // trun_number
		WriteByte(buf, pos, 1) // sample_number
	}
}

// Mfro is the ISOBMFF movie-fragment random-access offset box: the total
// size of the enclosing mfra, patched once mfra is fully written.
type Mfro struct {
	FullBox
	MfraSize uint32
}

// Type returns the BoxType.
func (*Mfro) Type() BoxType { return FourCC("mfro") }

// Size returns the marshaled size in bytes.
func (b *Mfro) Size() int { return 8 }

// Marshal box to buffer.
func (b *Mfro) Marshal(buf []byte, pos *int) {
	b.FullBox.Marshal(buf, pos)
	WriteUint32(buf, pos, b.MfraSize)
}

/*************************** WebVTT in-sample boxes ****************************/

// textBox is a box whose entire payload is a UTF-8 string with no length
// prefix (payl, iden, sttg, ctim, vtta).
type textBox struct {
	boxType BoxType
	text    string
}

// Type returns the BoxType.
func (b textBox) Type() BoxType { return b.boxType }

// Size returns the marshaled size in bytes.
func (b textBox) Size() int { return len(b.text) }

// Marshal box to buffer.
func (b textBox) Marshal(buf []byte, pos *int) { Write(buf, pos, []byte(b.text)) }

// Payl builds a cue-payload box.
func Payl(text string) ImmutableBox { return textBox{FourCC("payl"), text} }

// Iden builds a cue-identifier box.
func Iden(text string) ImmutableBox { return textBox{FourCC("iden"), text} }

// Sttg builds a cue-settings box.
func Sttg(text string) ImmutableBox { return textBox{FourCC("sttg"), text} }

// Ctim builds a cue-current-time box.
func Ctim(text string) ImmutableBox { return textBox{FourCC("ctim"), text} }

// Vtta carries WebVTT note text preceding a cue.
func Vtta(notes string) ImmutableBox { return textBox{FourCC("vtta"), notes} }

// Vsid is the cue source-ID box, linking identical cues split across
// adjacent samples so a reader can stitch them back into one cue.
type Vsid struct{ SourceID uint32 }

// Type returns the BoxType.
func (*Vsid) Type() BoxType { return FourCC("vsid") }

// Size returns the marshaled size in bytes.
func (b *Vsid) Size() int { return 4 }

// Marshal box to buffer.
func (b *Vsid) Marshal(buf []byte, pos *int) { WriteUint32(buf, pos, b.SourceID) }

// Vttc is one cue within a WebVTT sample.
func Vttc() ImmutableBox { return &containerBox{FourCC("vttc")} }

// Vtte is an empty-cue WebVTT sample, marking a gap with no active cue.
func Vtte() ImmutableBox { return &containerBox{FourCC("vtte")} }
