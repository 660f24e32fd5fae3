package rsrc

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/bmp"

	"github.com/treefairy/imp2dec/pkg/common"
	"github.com/treefairy/imp2dec/pkg/raster"
)

// ImageFileName names an image output: {slot}_{id}_{depth}bit_{w}_x_{h}, .png for 8-bit
// records and .bmp otherwise.
func ImageFileName(d common.RecordDescriptor, r *raster.Raster) string {
	ext := "bmp"
	if r.Indexed() {
		ext = "png"
	}
	return fmt.Sprintf("%d_%d_%dbit_%d_x_%d.%s", d.Slot, d.RecordID, r.Depth, r.Width, r.Height, ext)
}

// SoundFileNames names the raw PCM and WAV outputs of an audio record.
func SoundFileNames(d common.RecordDescriptor) (raw, wav string) {
	base := fmt.Sprintf("%d_%d", d.Slot, d.RecordID)
	return base + ".raw", base + ".wav"
}

// EncodeRaster encodes 8-bit rasters as indexed PNG, 16-bit rasters as 32 bits per pixel
// BMP with alpha, and 24-bit rasters as 24 bits per pixel BMP.
func EncodeRaster(r *raster.Raster) ([]byte, error) {
	img := r.Image()

	if r.Depth == 16 {
		out, err := encodeBMP32(img.(*image.NRGBA))
		if err != nil {
			return nil, fmt.Errorf("failed to encode %d-bit image: %w", r.Depth, err)
		}
		return out, nil
	}

	var buf bytes.Buffer
	var err error
	if r.Indexed() {
		err = png.Encode(&buf, img)
	} else {
		err = bmp.Encode(&buf, img)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %d-bit image: %w", r.Depth, err)
	}
	return buf.Bytes(), nil
}
