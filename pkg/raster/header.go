package raster

import (
	"fmt"

	"github.com/treefairy/imp2dec/pkg/archive"
	"github.com/treefairy/imp2dec/pkg/common"
)

// ContentHeader is the fixed 40-byte header at the start of every image payload.
type ContentHeader struct {
	Length          uint32
	Width           int32
	Height          int32
	FrameCount      uint16
	Depth           uint16
	ImageDataLength uint32 // only meaningful for 8-bit records
	Observed        [2]uint32
	EndMarker       uint32

	// PaletteSize is derived for 8-bit records only: declared record size minus the
	// header length minus the image data length.
	PaletteSize int64
}

// ReadContentHeader reads the image content header. dataSize is the record's declared
// payload size, used to derive the palette size of 8-bit records.
func ReadContentHeader(c *archive.Cursor, dataSize uint32) (*ContentHeader, error) {
	h := &ContentHeader{}
	var err error

	read32 := func(dst *uint32) {
		if err == nil {
			*dst, err = c.ReadUint32()
		}
	}
	read16 := func(dst *uint16) {
		if err == nil {
			*dst, err = c.ReadUint16()
		}
	}

	var width, height, gap uint32
	read32(&h.Length)
	read32(&width)
	read32(&height)
	read16(&h.FrameCount)
	read16(&h.Depth)
	read32(&gap)
	read32(&h.ImageDataLength)
	read32(&h.Observed[0])
	read32(&h.Observed[1])
	read32(&gap)
	read32(&h.EndMarker)
	if err != nil {
		return nil, fmt.Errorf("%w: content header: %v", common.ErrTruncatedRecord, err)
	}

	h.Width = int32(width)
	h.Height = int32(height)

	if h.Depth == 8 {
		h.PaletteSize = int64(dataSize) - int64(h.Length) - int64(h.ImageDataLength)
	}

	return h, nil
}
