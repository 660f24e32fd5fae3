package common

// ArchiveMagic opens every RSRC archive.
var ArchiveMagic = [4]byte{'r', 's', 'r', 'c'}

// Record type tags as they appear on disk.
var (
	ImageTag = [4]byte{'T', 'C', 'I', 'P'}
	AudioTag = [4]byte{' ', 'd', 'n', 's'}
)

const (
	ArchiveHeaderLength      = 16
	DescriptorTagLength      = 4
	DescriptorBodyLength     = 12
	ImageContentHeaderLength = 40
	AudioContentHeaderLength = 20
	PaletteEntries           = 256
	PaletteEntryLength       = 4
)

/*

An archive is laid out as:

	magic     [4]byte  "rsrc"
	version1  byte + 3 pad
	version2  byte + 3 pad
	count     byte + 3 pad
	table     count descriptors:
	            tag [4]byte, then for image/audio tags only:
	            recordID int32, startOffset uint32, dataSize uint32
	payloads  one per recognized descriptor, in table order, dataSize bytes each

All multi-byte fields are little endian.

*/

type ArchiveHeader struct {
	Magic       [4]byte
	Version1    uint8
	Version2    uint8
	RecordCount uint8
}

type RecordType int

const (
	RecordTypeUnknown RecordType = iota
	RecordTypeImage
	RecordTypeAudio
)

func (t RecordType) String() string {
	switch t {
	case RecordTypeImage:
		return "image"
	case RecordTypeAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// ClassifyTag maps an on-disk tag to its record type.
func ClassifyTag(tag [4]byte) RecordType {
	switch tag {
	case ImageTag:
		return RecordTypeImage
	case AudioTag:
		return RecordTypeAudio
	default:
		return RecordTypeUnknown
	}
}

type RecordDescriptor struct {
	Tag         [4]byte
	Type        RecordType
	RecordID    int32
	StartOffset uint32 // informational, payloads are never addressed by it
	DataSize    uint32
	Slot        int // 1-based position in the table, used for naming only
}

func (d RecordDescriptor) Recognized() bool {
	return d.Type != RecordTypeUnknown
}

func (d RecordDescriptor) TagString() string {
	return string(d.Tag[:])
}
