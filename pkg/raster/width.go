package raster

// EffectiveWidth returns the number of columns each stored row actually occupies, and
// whether it differs from the declared width. Rows are padded for alignment: odd widths
// are rounded up to even for 16-bit records and to a multiple of 4 for 8-bit records,
// and even 8-bit widths are rounded up to a multiple of 4. Other depths are stored
// unpadded.
func EffectiveWidth(width, depth int) (int, bool) {
	stride := width
	corrected := false

	if width%2 == 1 {
		if depth != 8 && depth != 16 {
			return width, false
		}
		for {
			corrected = true
			stride++
			if (depth == 16 && stride%2 == 0) || (depth == 8 && stride%4 == 0) {
				break
			}
		}
	} else if width%4 != 0 && depth == 8 {
		for stride%4 != 0 {
			corrected = true
			stride += stride % 4
		}
	}

	return stride, corrected
}
