package ticks

import (
	"fmt"
	"math/big"
)

// Store is a materialized window of the tick-indexed liquidity structure:
// a sparse tick -> Info map plus the bitmap words covering the window.
// Searches only consult words that have been materialized; the caller decides
// how the window grows.
type Store struct {
	spacing int32
	infos   map[int32]*Info
	words   map[int16]*big.Int
}

// NewStore creates an empty store for the given tick spacing.
func NewStore(spacing int32) (*Store, error) {
	if spacing <= 0 {
		return nil, fmt.Errorf("tick spacing must be positive, got %d", spacing)
	}
	return &Store{
		spacing: spacing,
		infos:   make(map[int32]*Info),
		words:   make(map[int16]*big.Int),
	}, nil
}

// Spacing returns the tick spacing the store was created with.
func (s *Store) Spacing() int32 {
	return s.spacing
}

// SetWord materializes one bitmap word.
func (s *Store) SetWord(wordPos int16, word *big.Int) {
	s.words[wordPos] = new(big.Int).Set(word)
}

// HasWord reports whether a bitmap word has been materialized.
func (s *Store) HasWord(wordPos int16) bool {
	_, ok := s.words[wordPos]
	return ok
}

// SetTick records tick metadata and sets the matching bitmap bit. The tick
// must be aligned to the store's spacing.
func (s *Store) SetTick(tick int32, info Info) error {
	if tick%s.spacing != 0 {
		return fmt.Errorf("tick %d not aligned to spacing %d", tick, s.spacing)
	}
	copied := info
	s.infos[tick] = &copied
	if info.Initialized {
		s.setBit(tick)
	}
	return nil
}

// Get returns the metadata for an initialized tick.
func (s *Store) Get(tick int32) (Info, bool) {
	info, ok := s.infos[tick]
	if !ok {
		return Info{}, false
	}
	return *info, true
}

// Flip toggles the initialized bit for a tick, used when liquidity boundaries
// are activated or deactivated.
func (s *Store) Flip(tick int32) error {
	if tick%s.spacing != 0 {
		return fmt.Errorf("tick %d not aligned to spacing %d", tick, s.spacing)
	}
	wordPos, bitPos := Position(Compress(tick, s.spacing))
	word, ok := s.words[wordPos]
	if !ok {
		word = new(big.Int)
		s.words[wordPos] = word
	}
	mask := new(big.Int).Lsh(big.NewInt(1), uint(bitPos))
	word.Xor(word, mask)
	return nil
}

func (s *Store) setBit(tick int32) {
	wordPos, bitPos := Position(Compress(tick, s.spacing))
	word, ok := s.words[wordPos]
	if !ok {
		word = new(big.Int)
		s.words[wordPos] = word
	}
	word.SetBit(word, int(bitPos), 1)
}

// NextInitialized finds the next initialized tick from tick in the given
// direction, scanning one materialized word at a time. lte scans at-or-below.
// withinWindow is false once the scan runs past the materialized words, at
// which point the caller must extend the window before retrying.
func (s *Store) NextInitialized(tick int32, lte bool) (next int32, initialized bool, withinWindow bool) {
	cursor := tick
	for {
		wordPos, _ := Position(Compress(cursor, s.spacing))
		if !lte {
			// The upward search starts at compressed+1, which may sit in
			// the following word.
			wordPos, _ = Position(Compress(cursor, s.spacing) + 1)
		}

		word, ok := s.words[wordPos]
		if !ok {
			return cursor, false, false
		}

		next, initialized = NextInitializedTickWithinWord(word, cursor, s.spacing, lte)
		if initialized {
			return next, true, true
		}

		// Step to the adjacent word and keep scanning.
		if lte {
			cursor = next - s.spacing
		} else {
			cursor = next
		}
	}
}
