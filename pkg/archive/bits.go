package archive

// Bits extracts count bits of b starting at bit offset (0 is the least significant bit).
//
//	Bits(0b00110101, 2, 4) looks at 00{1101}01 and returns 0b1101.
func Bits(b byte, offset, count uint) uint8 {
	return uint8((uint(b) >> offset) & ((1 << count) - 1))
}
