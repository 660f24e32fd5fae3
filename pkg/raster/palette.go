package raster

import (
	"fmt"
	"image/color"

	"github.com/treefairy/imp2dec/pkg/archive"
	"github.com/treefairy/imp2dec/pkg/common"
)

// Palette is the 256-entry color table embedded in 8-bit records.
type Palette [common.PaletteEntries]color.RGBA

// ReadPalette reads 256 entries of R, G, B and one unused byte.
func ReadPalette(c *archive.Cursor) (*Palette, error) {
	var entry [common.PaletteEntryLength]byte
	p := &Palette{}

	for i := range p {
		if err := c.ReadFull(entry[:]); err != nil {
			return nil, fmt.Errorf("%w: palette entry %d: %v", common.ErrTruncatedRecord, i, err)
		}
		p[i] = color.RGBA{R: entry[0], G: entry[1], B: entry[2], A: 255}
	}

	return p, nil
}

// ColorPalette converts to the standard library's palette type.
func (p *Palette) ColorPalette() color.Palette {
	out := make(color.Palette, len(p))
	for i, c := range p {
		out[i] = c
	}
	return out
}
