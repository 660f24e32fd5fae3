// Package raster decodes image records into rasters: it reads the content header,
// applies the row padding rules, walks the pixel stream and mirrors each row.
package raster

import (
	"bytes"
	"fmt"

	"github.com/treefairy/imp2dec/pkg/archive"
	"github.com/treefairy/imp2dec/pkg/common"
	"github.com/treefairy/imp2dec/pkg/pixel"
)

// Locate maps the k-th pixel of the stream to its stored row and column.
func Locate(k, stride int) (row, col int) {
	return k / stride, k % stride
}

// MirrorColumn is the destination column of stored column col.
func MirrorColumn(col, stride int) int {
	return stride - col - 1
}

// DecodeHeader reads only the content header of an image record payload.
func DecodeHeader(payload []byte) (*ContentHeader, error) {
	return ReadContentHeader(archive.NewCursor(bytes.NewReader(payload)), uint32(len(payload)))
}

// Decode decodes an image record payload. The content header is returned whenever it
// could be read, even if the record itself cannot be decoded.
func Decode(payload []byte) (*ContentHeader, *Raster, error) {
	c := archive.NewCursor(bytes.NewReader(payload))

	h, err := ReadContentHeader(c, uint32(len(payload)))
	if err != nil {
		return nil, nil, err
	}

	codec, err := pixel.ForDepth(int(h.Depth))
	if err != nil {
		return h, nil, err
	}

	width, height := int(h.Width), int(h.Height)
	if width <= 0 || height <= 0 {
		return h, nil, fmt.Errorf("%w: %dx%d", common.ErrInvalidDimensions, h.Width, h.Height)
	}

	stride, corrected := EffectiveWidth(width, int(h.Depth))
	total := int64(stride) * int64(height)

	need := int64(common.ImageContentHeaderLength) + total*int64(codec.BytesPerPixel())
	if h.Depth == 8 {
		need += common.PaletteEntries * common.PaletteEntryLength
	}
	if need > int64(len(payload)) {
		return h, nil, fmt.Errorf("%w: %dx%d %d-bit image needs %d bytes, record has %d",
			common.ErrTruncatedRecord, width, height, h.Depth, need, len(payload))
	}

	r := newRaster(width, height, stride, int(h.Depth), corrected)

	if h.Depth == 8 {
		if r.Palette, err = ReadPalette(c); err != nil {
			return h, nil, err
		}
	}

	stream, err := c.ReadBytes(int(total) * codec.BytesPerPixel())
	if err != nil {
		return h, nil, fmt.Errorf("%w: pixel data: %v", common.ErrTruncatedRecord, err)
	}

	walk(r, codec, stream)
	return h, r, nil
}

// walk consumes one encoded pixel per step and writes it to its mirrored column.
func walk(r *Raster, codec pixel.Codec, stream []byte) {
	bpp := codec.BytesPerPixel()
	total := r.Stride * r.Height

	switch codec := codec.(type) {
	case pixel.IndexCodec:
		for k := 0; k < total; k++ {
			row, col := Locate(k, r.Stride)
			r.Indices[row*r.Stride+MirrorColumn(col, r.Stride)] = codec.Index(stream[k*bpp:])
		}
	case pixel.ColorCodec:
		for k := 0; k < total; k++ {
			row, col := Locate(k, r.Stride)
			r.Pix[row*r.Stride+MirrorColumn(col, r.Stride)] = codec.Color(stream[k*bpp:])
		}
	}
}
