package ticks

import (
	"math/big"
	"testing"
)

func TestCompress(t *testing.T) {
	cases := []struct {
		tick    int32
		spacing int32
		want    int32
	}{
		{0, 10, 0},
		{5, 10, 0},
		{10, 10, 1},
		{15, 10, 1},
		{-5, 10, -1},
		{-10, 10, -1},
		{-11, 10, -2},
		{-25, 10, -3},
		{887270, 10, 88727},
		{-887272, 10, -88728},
	}

	for _, tc := range cases {
		if got := Compress(tc.tick, tc.spacing); got != tc.want {
			t.Fatalf("Compress(%d, %d): got %d, want %d", tc.tick, tc.spacing, got, tc.want)
		}
	}
}

func TestPosition(t *testing.T) {
	cases := []struct {
		compressed int32
		wordPos    int16
		bitPos     uint8
	}{
		{0, 0, 0},
		{255, 0, 255},
		{256, 1, 0},
		{-1, -1, 255},
		{-256, -1, 0},
		{-257, -2, 255},
	}

	for _, tc := range cases {
		wordPos, bitPos := Position(tc.compressed)
		if wordPos != tc.wordPos || bitPos != tc.bitPos {
			t.Fatalf("Position(%d): got (%d, %d), want (%d, %d)", tc.compressed, wordPos, bitPos, tc.wordPos, tc.bitPos)
		}
	}
}

func wordWithBits(bits ...int) *big.Int {
	word := new(big.Int)
	for _, bit := range bits {
		word.SetBit(word, bit, 1)
	}
	return word
}

func TestNextInitializedTickWithinWordLte(t *testing.T) {
	// Bit 1 corresponds to tick 60 at spacing 60.
	word := wordWithBits(1)

	next, initialized := NextInitializedTickWithinWord(word, 120, 60, true)
	if !initialized || next != 60 {
		t.Fatalf("search from 120: got (%d, %v), want (60, true)", next, initialized)
	}

	// Starting on the set tick finds it.
	next, initialized = NextInitializedTickWithinWord(word, 60, 60, true)
	if !initialized || next != 60 {
		t.Fatalf("search from 60: got (%d, %v), want (60, true)", next, initialized)
	}

	// Nothing at or below tick 0 in this word.
	next, initialized = NextInitializedTickWithinWord(word, 0, 60, true)
	if initialized || next != 0 {
		t.Fatalf("search from 0: got (%d, %v), want (0, false)", next, initialized)
	}
}

func TestNextInitializedTickWithinWordGt(t *testing.T) {
	word := wordWithBits(1)

	next, initialized := NextInitializedTickWithinWord(word, 0, 60, false)
	if !initialized || next != 60 {
		t.Fatalf("search above 0: got (%d, %v), want (60, true)", next, initialized)
	}

	// The search is strictly above, so starting on the set tick skips it.
	next, initialized = NextInitializedTickWithinWord(word, 60, 60, false)
	if initialized || next != 255*60 {
		t.Fatalf("search above 60: got (%d, %v), want (%d, false)", next, initialized, 255*60)
	}
}

func TestNextInitializedTickWithinWordNegative(t *testing.T) {
	// Tick -30 at spacing 10 compresses to -3: word -1, bit 253.
	word := wordWithBits(253)

	next, initialized := NextInitializedTickWithinWord(word, -25, 10, true)
	if !initialized || next != -30 {
		t.Fatalf("search from -25: got (%d, %v), want (-30, true)", next, initialized)
	}

	next, initialized = NextInitializedTickWithinWord(word, -31, 10, true)
	if initialized || next != -2560 {
		t.Fatalf("search from -31: got (%d, %v), want (-2560, false)", next, initialized)
	}
}
