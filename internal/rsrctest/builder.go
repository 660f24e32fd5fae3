// Package rsrctest builds synthetic RSRC archives for tests.
package rsrctest

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/treefairy/imp2dec/pkg/common"
)

type entry struct {
	tag     [4]byte
	id      int32
	payload []byte
	size    uint32
}

// Builder assembles an archive in table order.
type Builder struct {
	version1, version2 uint8
	entries            []entry
}

func New() *Builder {
	return &Builder{version1: 1, version2: 0}
}

func (b *Builder) Versions(v1, v2 uint8) *Builder {
	b.version1, b.version2 = v1, v2
	return b
}

// Add appends a record with an arbitrary tag. Payloads of unrecognized tags are dropped,
// as such descriptors own no bytes in a real archive.
func (b *Builder) Add(tag [4]byte, id int32, payload []byte) *Builder {
	b.entries = append(b.entries, entry{tag: tag, id: id, payload: payload, size: uint32(len(payload))})
	return b
}

func (b *Builder) Image(id int32, payload []byte) *Builder {
	return b.Add(common.ImageTag, id, payload)
}

func (b *Builder) Audio(id int32, payload []byte) *Builder {
	return b.Add(common.AudioTag, id, payload)
}

func (b *Builder) Unknown(tag string) *Builder {
	var t [4]byte
	copy(t[:], tag)
	return b.Add(t, 0, nil)
}

// Oversize makes the most recently added record declare extra more bytes than it carries.
func (b *Builder) Oversize(extra uint32) *Builder {
	b.entries[len(b.entries)-1].size += extra
	return b
}

func (b *Builder) Bytes() []byte {
	var buf bytes.Buffer
	le := binary.LittleEndian

	buf.Write(common.ArchiveMagic[:])
	for _, v := range []uint8{b.version1, b.version2, uint8(len(b.entries))} {
		buf.Write([]byte{v, 0, 0, 0})
	}

	offset := uint32(common.ArchiveHeaderLength)
	for _, e := range b.entries {
		offset += common.DescriptorTagLength
		if common.ClassifyTag(e.tag) != common.RecordTypeUnknown {
			offset += common.DescriptorBodyLength
		}
	}

	for _, e := range b.entries {
		buf.Write(e.tag[:])
		if common.ClassifyTag(e.tag) == common.RecordTypeUnknown {
			continue
		}
		binary.Write(&buf, le, e.id)
		binary.Write(&buf, le, offset)
		binary.Write(&buf, le, e.size)
		offset += e.size
	}

	for _, e := range b.entries {
		if common.ClassifyTag(e.tag) != common.RecordTypeUnknown {
			buf.Write(e.payload)
		}
	}

	return buf.Bytes()
}

// WriteFile writes the archive to dir/name and returns its path.
func (b *Builder) WriteFile(t testing.TB, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, b.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func contentHeader(width, height int32, depth uint16, imageDataLength uint32) []byte {
	var buf bytes.Buffer
	le := binary.LittleEndian
	binary.Write(&buf, le, uint32(common.ImageContentHeaderLength))
	binary.Write(&buf, le, width)
	binary.Write(&buf, le, height)
	binary.Write(&buf, le, uint16(1))
	binary.Write(&buf, le, depth)
	binary.Write(&buf, le, uint32(0))
	binary.Write(&buf, le, imageDataLength)
	binary.Write(&buf, le, [2]uint32{2835, 2835})
	binary.Write(&buf, le, uint32(0))
	binary.Write(&buf, le, uint32(0))
	return buf.Bytes()
}

// ImagePayload is a 16 or 24-bit image record: the content header followed by the
// encoded pixel stream.
func ImagePayload(width, height int32, depth uint16, pixels []byte) []byte {
	return append(contentHeader(width, height, depth, uint32(len(pixels))), pixels...)
}

// IndexedPayload is an 8-bit image record. palette holds up to 256 RGB triples; missing
// entries are black.
func IndexedPayload(width, height int32, palette [][3]byte, indices []byte) []byte {
	out := contentHeader(width, height, 8, uint32(len(indices)))
	for i := 0; i < common.PaletteEntries; i++ {
		var rgb [3]byte
		if i < len(palette) {
			rgb = palette[i]
		}
		out = append(out, rgb[0], rgb[1], rgb[2], 0)
	}
	return append(out, indices...)
}

// AudioPayload is an audio record: the 20-byte header followed by pcm.
func AudioPayload(channels, sampleRate, bitsPerSample uint32, pcm []byte) []byte {
	var buf bytes.Buffer
	le := binary.LittleEndian
	buf.WriteString("WAVE")
	binary.Write(&buf, le, channels)
	binary.Write(&buf, le, sampleRate)
	binary.Write(&buf, le, bitsPerSample)
	var samples uint32
	if bitsPerSample >= 8 && channels > 0 {
		samples = uint32(len(pcm)) / (bitsPerSample / 8) / channels
	}
	binary.Write(&buf, le, samples)
	buf.Write(pcm)
	return buf.Bytes()
}
