package ebml

// Element IDs used by Matroska/WebM muxing, per §6.3.
const (
	IDEBML    uint32 = 0x1A45DFA3
	IDSegment uint32 = 0x18538067

	IDSeekHead uint32 = 0x114D9B74
	IDSeek     uint32 = 0x4DBB
	IDSeekID   uint32 = 0x53AB
	IDSeekPos  uint32 = 0x53AC

	IDInfo             uint32 = 0x1549A966
	IDTimestampScale   uint32 = 0x2AD7B1
	IDDuration         uint32 = 0x4489
	IDMuxingApp        uint32 = 0x4D80
	IDWritingApp       uint32 = 0x5741

	IDTracks            uint32 = 0x1654AE6B
	IDTrackEntry        uint32 = 0xAE
	IDTrackNumber       uint32 = 0xD7
	IDTrackUID          uint32 = 0x73C5
	IDTrackType         uint32 = 0x83
	IDCodecID           uint32 = 0x86
	IDCodecPrivate      uint32 = 0x63A2
	IDDefaultDuration   uint32 = 0x23E383
	IDVideo             uint32 = 0xE0
	IDPixelWidth        uint32 = 0xB0
	IDPixelHeight       uint32 = 0xBA
	IDColour            uint32 = 0x55B0
	IDMatrixCoefficients uint32 = 0x55B1
	IDRange             uint32 = 0x55B9
	IDTransferChar      uint32 = 0x55BA
	IDPrimaries         uint32 = 0x55BB
	IDAudio             uint32 = 0xE1
	IDSamplingFrequency uint32 = 0xB5
	IDChannels          uint32 = 0x9F

	IDCluster        uint32 = 0x1F43B675
	IDTimestamp      uint32 = 0xE7
	IDSimpleBlock    uint32 = 0xA3
	IDBlockGroup     uint32 = 0xA0
	IDBlock          uint32 = 0xA1
	IDBlockDuration  uint32 = 0x9B
	IDReferenceBlock uint32 = 0xFB
	IDBlockAdditions uint32 = 0x75A1
	IDBlockMore      uint32 = 0xA6
	IDBlockAddID     uint32 = 0xEE
	IDBlockAdditional uint32 = 0xA5

	IDCues          uint32 = 0x1C53BB6B
	IDCuePoint      uint32 = 0xBB
	IDCueTime       uint32 = 0xB3
	IDCueTrackPos   uint32 = 0xB7
	IDCueTrack      uint32 = 0xF7
	IDCueClusterPos uint32 = 0xF1

	IDDocType            uint32 = 0x4282
	IDDocTypeVersion     uint32 = 0x4287
	IDDocTypeReadVersion uint32 = 0x4285
	IDEBMLVersion        uint32 = 0x4286
	IDEBMLReadVersion    uint32 = 0x42F7
	IDEBMLMaxIDLength    uint32 = 0x42F2
	IDEBMLMaxSizeLength  uint32 = 0x42F3

	IDTrackName     uint32 = 0x536E
	IDTrackLanguage uint32 = 0x22B59C
	IDFlagLacing    uint32 = 0x9C
)

// Track type values, §4.5.2.
const (
	TrackTypeVideo    = 1
	TrackTypeAudio    = 2
	TrackTypeSubtitle = 17
)

// MaxChunkLengthMS is the largest representable Matroska block time
// offset within a cluster: a signed 16-bit millisecond delta.
const MaxChunkLengthMS = 1 << 15
