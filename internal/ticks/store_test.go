package ticks

import (
	"math/big"
	"testing"
)

func TestNewStoreRejectsBadSpacing(t *testing.T) {
	if _, err := NewStore(0); err == nil {
		t.Fatalf("expected error for zero spacing")
	}
	if _, err := NewStore(-10); err == nil {
		t.Fatalf("expected error for negative spacing")
	}
}

func TestStoreSetTickAlignment(t *testing.T) {
	store, err := NewStore(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.SetTick(55, Info{Initialized: true}); err == nil {
		t.Fatalf("expected error for misaligned tick")
	}
	if err := store.SetTick(50, Info{Initialized: true, LiquidityNet: big.NewInt(100)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, ok := store.Get(50)
	if !ok || !info.Initialized || info.LiquidityNet.Int64() != 100 {
		t.Fatalf("stored tick not retrievable: %+v ok=%v", info, ok)
	}
}

func TestStoreNextInitialized(t *testing.T) {
	store, err := NewStore(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.SetTick(50, Info{Initialized: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Upward from below the set tick.
	next, initialized, within := store.NextInitialized(40, false)
	if !within || !initialized || next != 50 {
		t.Fatalf("upward search: got (%d, %v, %v), want (50, true, true)", next, initialized, within)
	}

	// Downward starting on the set tick finds it.
	next, initialized, within = store.NextInitialized(50, true)
	if !within || !initialized || next != 50 {
		t.Fatalf("downward search: got (%d, %v, %v), want (50, true, true)", next, initialized, within)
	}

	// Downward from below runs off the materialized window.
	_, initialized, within = store.NextInitialized(40, true)
	if within || initialized {
		t.Fatalf("expected window exhaustion below the set tick")
	}

	// Upward past the set tick runs off the window too.
	_, initialized, within = store.NextInitialized(50, false)
	if within || initialized {
		t.Fatalf("expected window exhaustion above the set tick")
	}
}

func TestStoreScansAcrossMaterializedWords(t *testing.T) {
	store, err := NewStore(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Tick -2560 sits in word -2 at spacing 10; materialize an empty word -1
	// in between so the scan can cross it.
	if err := store.SetTick(-2570, Info{Initialized: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store.SetWord(-1, new(big.Int))
	store.SetWord(0, new(big.Int))

	next, initialized, within := store.NextInitialized(100, true)
	if !within || !initialized || next != -2570 {
		t.Fatalf("cross-word search: got (%d, %v, %v), want (-2570, true, true)", next, initialized, within)
	}
}

func TestStoreFlip(t *testing.T) {
	store, err := NewStore(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.SetTick(50, Info{Initialized: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Flip(50); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The bit is cleared, so the downward search no longer finds tick 50.
	next, initialized, within := store.NextInitialized(50, true)
	if within && initialized && next == 50 {
		t.Fatalf("flipped tick still reported initialized")
	}

	if err := store.Flip(55); err == nil {
		t.Fatalf("expected error for misaligned flip")
	}
}
