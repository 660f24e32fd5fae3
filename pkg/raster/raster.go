package raster

import (
	"image"
	"image/color"
)

// Raster is a decoded image record. Rows are kept in stream order (row 0 is the first
// stored scanline) and every row is Stride columns wide; after the mirror the declared
// Width columns occupy the right-hand end of each row.
type Raster struct {
	Width     int
	Height    int
	Stride    int
	Depth     int
	Corrected bool

	// Pix holds resolved colors for 16 and 24-bit records.
	Pix []color.NRGBA
	// Indices holds raw palette indices for 8-bit records.
	Indices []uint8
	Palette *Palette
}

func newRaster(width, height, stride, depth int, corrected bool) *Raster {
	r := &Raster{
		Width:     width,
		Height:    height,
		Stride:    stride,
		Depth:     depth,
		Corrected: corrected,
	}
	if depth == 8 {
		r.Indices = make([]uint8, stride*height)
	} else {
		r.Pix = make([]color.NRGBA, stride*height)
	}
	return r
}

func (r *Raster) Indexed() bool {
	return r.Indices != nil
}

// IndexAt returns the palette index stored at (row, col) of an 8-bit raster.
func (r *Raster) IndexAt(row, col int) uint8 {
	return r.Indices[row*r.Stride+col]
}

// ColorAt returns the color at (row, col), resolving palette indices.
func (r *Raster) ColorAt(row, col int) color.NRGBA {
	if r.Indexed() {
		c := r.Palette[r.IndexAt(row, col)]
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
	}
	return r.Pix[row*r.Stride+col]
}

// Image returns the declared Width x Height picture for encoding. Padding columns are
// clipped and rows are laid out as DIB scanlines, the first stored row at the bottom.
// 8-bit rasters become *image.Paletted, the rest *image.NRGBA.
func (r *Raster) Image() image.Image {
	bounds := image.Rect(0, 0, r.Width, r.Height)
	left := r.Stride - r.Width

	if r.Indexed() {
		img := image.NewPaletted(bounds, r.Palette.ColorPalette())
		for y := 0; y < r.Height; y++ {
			src := r.Indices[(r.Height-1-y)*r.Stride+left:]
			copy(img.Pix[y*img.Stride:y*img.Stride+r.Width], src[:r.Width])
		}
		return img
	}

	img := image.NewNRGBA(bounds)
	for y := 0; y < r.Height; y++ {
		row := r.Height - 1 - y
		for x := 0; x < r.Width; x++ {
			img.SetNRGBA(x, y, r.Pix[row*r.Stride+left+x])
		}
	}
	return img
}
