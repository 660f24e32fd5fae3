package rsrc

import (
	"bytes"
	"encoding/binary"
	"image"
	"io"
)

const (
	bmpFileHeaderLength = 14
	bmpV4HeaderLength   = 108
	bmpBitFields        = 3
	bmpPixelsPerMeter   = 2835
)

// bmpV4Header is BITMAPFILEHEADER followed by BITMAPV4HEADER.
type bmpV4Header struct {
	Type          [2]byte
	FileSize      uint32
	Reserved      [2]uint16
	PixelOffset   uint32
	HeaderSize    uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	ImageSize     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ColorsUsed    uint32
	ColorsImp     uint32
	RedMask       uint32
	GreenMask     uint32
	BlueMask      uint32
	AlphaMask     uint32
	ColorSpace    [4]byte
	Endpoints     [36]byte
	Gamma         [3]uint32
}

// writeBMP32 writes img as a bottom-up 32 bits per pixel BMP with straight alpha,
// whether or not any pixel is translucent.
func writeBMP32(w io.Writer, img *image.NRGBA) error {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	imageSize := uint32(width * height * 4)
	offset := uint32(bmpFileHeaderLength + bmpV4HeaderLength)

	h := bmpV4Header{
		Type:          [2]byte{'B', 'M'},
		FileSize:      offset + imageSize,
		PixelOffset:   offset,
		HeaderSize:    bmpV4HeaderLength,
		Width:         int32(width),
		Height:        int32(height),
		Planes:        1,
		BitCount:      32,
		Compression:   bmpBitFields,
		ImageSize:     imageSize,
		XPelsPerMeter: bmpPixelsPerMeter,
		YPelsPerMeter: bmpPixelsPerMeter,
		RedMask:       0x00FF0000,
		GreenMask:     0x0000FF00,
		BlueMask:      0x000000FF,
		AlphaMask:     0xFF000000,
		ColorSpace:    [4]byte{'B', 'G', 'R', 's'},
	}
	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return err
	}

	row := make([]byte, width*4)
	for y := b.Max.Y - 1; y >= b.Min.Y; y-- {
		for x := 0; x < width; x++ {
			c := img.NRGBAAt(b.Min.X+x, y)
			row[x*4+0] = c.B
			row[x*4+1] = c.G
			row[x*4+2] = c.R
			row[x*4+3] = c.A
		}
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func encodeBMP32(img *image.NRGBA) ([]byte, error) {
	var buf bytes.Buffer
	b := img.Bounds()
	buf.Grow(bmpFileHeaderLength + bmpV4HeaderLength + b.Dx()*b.Dy()*4)
	if err := writeBMP32(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
