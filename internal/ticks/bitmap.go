package ticks

import "math/big"

// Compress maps a tick to its bitmap slot: floor(tick / spacing). Plain
// integer division truncates toward zero, so negative non-aligned ticks need
// the extra step down to keep bitmap addressing consistent across zero.
func Compress(tick, spacing int32) int32 {
	compressed := tick / spacing
	if tick < 0 && tick%spacing != 0 {
		compressed--
	}
	return compressed
}

// Position splits a compressed tick into its bitmap word and bit offset.
// The shift is arithmetic, so negative compressed ticks land in negative
// words with floor semantics.
func Position(compressed int32) (wordPos int16, bitPos uint8) {
	return int16(compressed >> 8), uint8(compressed & 255)
}

// NextInitializedTickWithinWord searches one 256-bit bitmap word for the
// nearest set bit from tick in the given direction. lte searches at-or-below
// (price decreasing), otherwise strictly above. Returns the boundary tick of
// the word when no bit is set, with initialized = false, so a caller can
// resume the scan in the adjacent word.
func NextInitializedTickWithinWord(word *big.Int, tick, spacing int32, lte bool) (next int32, initialized bool) {
	compressed := Compress(tick, spacing)

	if lte {
		wordPos, bitPos := Position(compressed)

		// All bits at or below bitPos.
		mask := new(big.Int).Lsh(big.NewInt(1), uint(bitPos)+1)
		mask.Sub(mask, big.NewInt(1))
		masked := new(big.Int).And(word, mask)

		if masked.Sign() != 0 {
			msb := int32(masked.BitLen() - 1)
			return (int32(wordPos)*256 + msb) * spacing, true
		}
		return int32(wordPos) * 256 * spacing, false
	}

	wordPos, bitPos := Position(compressed + 1)

	// All bits at or above bitPos.
	low := new(big.Int).Lsh(big.NewInt(1), uint(bitPos))
	low.Sub(low, big.NewInt(1))
	masked := new(big.Int).AndNot(word, low)

	if masked.Sign() != 0 {
		lsb := int32(leastSignificantBit(masked))
		return (int32(wordPos)*256 + lsb) * spacing, true
	}
	return (int32(wordPos)*256 + 255) * spacing, false
}

func leastSignificantBit(x *big.Int) int {
	for i := 0; i < x.BitLen(); i++ {
		if x.Bit(i) != 0 {
			return i
		}
	}
	return 0
}
