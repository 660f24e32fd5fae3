// Package pixel converts the encoded bytes of a single pixel into a color, with one
// strategy per color depth.
package pixel

import (
	"fmt"
	"image/color"

	"github.com/treefairy/imp2dec/pkg/archive"
	"github.com/treefairy/imp2dec/pkg/common"
)

// Codec decodes one pixel's worth of bytes.
type Codec interface {
	Depth() int
	// BytesPerPixel is how many stream bytes each pixel consumes.
	BytesPerPixel() int
}

// ColorCodec resolves pixels straight to a color.
type ColorCodec interface {
	Codec
	Color(p []byte) color.NRGBA
}

// IndexCodec leaves pixels as palette indices.
type IndexCodec interface {
	Codec
	Index(p []byte) uint8
}

// ForDepth returns the codec for a color depth in bits.
func ForDepth(depth int) (Codec, error) {
	switch depth {
	case 8:
		return Indexed8{}, nil
	case 16:
		return ARGB1555{}, nil
	case 24:
		return BGR888{}, nil
	default:
		return nil, fmt.Errorf("%w: %d-bit", common.ErrUnsupportedColorDepth, depth)
	}
}

var (
	opaqueWhite      = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	translucentWhite = color.NRGBA{R: 255, G: 255, B: 255, A: 127}
)

// ARGB1555 is the 16-bit encoding. The two stream bytes are little endian; the high byte
// carries the alpha bit, red and the top of green:
//
//	|   high     |   low     |
//	| A RRRRR GG | GGG BBBBB |
type ARGB1555 struct{}

func (ARGB1555) Depth() int         { return 16 }
func (ARGB1555) BytesPerPixel() int { return 2 }

func (ARGB1555) Color(p []byte) color.NRGBA {
	lo, hi := p[0], p[1]

	// The transparency model for these records is unknown; these two values are
	// the only ones known to need forcing.
	switch {
	case lo == 0xFF && hi == 0xFF:
		return opaqueWhite
	case lo == 0xFF && hi == 0x7F:
		return translucentWhite
	}

	return Color1555(hi, lo)
}

// Color1555 decodes the high byte one and the low byte two. Channels are widened by a
// plain left shift of 3.
func Color1555(one, two byte) color.NRGBA {
	r := archive.Bits(one, 2, 5) << 3
	g := archive.Bits(one, 0, 2)<<6 | archive.Bits(two, 5, 3)<<3
	b := archive.Bits(two, 0, 5) << 3
	a := archive.Bits(one, 7, 1) * 255

	return color.NRGBA{R: r, G: g, B: b, A: a}
}

// BGR888 is the 24-bit encoding: blue, green, red, no alpha.
type BGR888 struct{}

func (BGR888) Depth() int         { return 24 }
func (BGR888) BytesPerPixel() int { return 3 }

func (BGR888) Color(p []byte) color.NRGBA {
	return color.NRGBA{R: p[2], G: p[1], B: p[0], A: 255}
}

// Indexed8 is the 8-bit encoding: one palette index per pixel.
type Indexed8 struct{}

func (Indexed8) Depth() int         { return 8 }
func (Indexed8) BytesPerPixel() int { return 1 }

func (Indexed8) Index(p []byte) uint8 {
	return p[0]
}
