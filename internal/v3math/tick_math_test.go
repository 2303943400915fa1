package v3math

import (
	"errors"
	"math/big"
	"testing"
)

func TestSqrtRatioAtTickKnownValues(t *testing.T) {
	cases := []struct {
		tick int32
		want string
	}{
		{0, "79228162514264337593543950336"},
		{MinTick, "4295128739"},
		{MaxTick, "1461446703485210103287273052203988822378723970342"},
	}

	for _, tc := range cases {
		got, err := SqrtRatioAtTick(tc.tick)
		if err != nil {
			t.Fatalf("tick %d: unexpected error: %v", tc.tick, err)
		}
		if got.String() != tc.want {
			t.Fatalf("tick %d: got %s, want %s", tc.tick, got, tc.want)
		}
	}
}

func TestSqrtRatioAtTickMonotonic(t *testing.T) {
	ticks := []int32{MinTick, -500000, -100000, -50000, -100, -1, 0, 1, 100, 50000, 100000, 500000, MaxTick}

	prev, err := SqrtRatioAtTick(ticks[0])
	if err != nil {
		t.Fatalf("tick %d: unexpected error: %v", ticks[0], err)
	}
	for _, tick := range ticks[1:] {
		ratio, err := SqrtRatioAtTick(tick)
		if err != nil {
			t.Fatalf("tick %d: unexpected error: %v", tick, err)
		}
		if ratio.Cmp(prev) <= 0 {
			t.Fatalf("ratio at tick %d not greater than previous: %s <= %s", tick, ratio, prev)
		}
		prev = ratio
	}
}

func TestSqrtRatioAtTickOutOfBounds(t *testing.T) {
	if _, err := SqrtRatioAtTick(MinTick - 1); !errors.Is(err, ErrTickOutOfBounds) {
		t.Fatalf("expected ErrTickOutOfBounds, got %v", err)
	}
	if _, err := SqrtRatioAtTick(MaxTick + 1); !errors.Is(err, ErrTickOutOfBounds) {
		t.Fatalf("expected ErrTickOutOfBounds, got %v", err)
	}
}

func TestTickAtSqrtRatioRoundTrip(t *testing.T) {
	ticks := []int32{MinTick, -887271, -400000, -138163, -10000, -60, -1, 0, 1, 60, 10000, 138163, 400000, 887271}

	for _, tick := range ticks {
		ratio, err := SqrtRatioAtTick(tick)
		if err != nil {
			t.Fatalf("tick %d: unexpected error: %v", tick, err)
		}
		got, err := TickAtSqrtRatio(ratio)
		if err != nil {
			t.Fatalf("tick %d: unexpected error: %v", tick, err)
		}
		if got != tick {
			t.Fatalf("round trip mismatch: tick %d came back as %d", tick, got)
		}
	}
}

func TestTickAtSqrtRatioFloorsBetweenTicks(t *testing.T) {
	// A ratio strictly between two adjacent tick ratios resolves to the lower.
	for _, tick := range []int32{-100000, -60, 0, 60, 100000} {
		low, err := SqrtRatioAtTick(tick)
		if err != nil {
			t.Fatalf("tick %d: unexpected error: %v", tick, err)
		}
		high, err := SqrtRatioAtTick(tick + 1)
		if err != nil {
			t.Fatalf("tick %d: unexpected error: %v", tick+1, err)
		}

		mid := new(big.Int).Add(low, high)
		mid.Rsh(mid, 1)

		got, err := TickAtSqrtRatio(mid)
		if err != nil {
			t.Fatalf("tick %d: unexpected error: %v", tick, err)
		}
		if got != tick {
			t.Fatalf("mid ratio between %d and %d resolved to %d", tick, tick+1, got)
		}
	}
}

func TestTickAtSqrtRatioBounds(t *testing.T) {
	got, err := TickAtSqrtRatio(MinSqrtRatio)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != MinTick {
		t.Fatalf("min ratio: got tick %d, want %d", got, MinTick)
	}

	got, err = TickAtSqrtRatio(new(big.Int).Sub(MaxSqrtRatio, big.NewInt(1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != MaxTick-1 {
		t.Fatalf("max ratio - 1: got tick %d, want %d", got, MaxTick-1)
	}

	below := new(big.Int).Sub(MinSqrtRatio, big.NewInt(1))
	if _, err := TickAtSqrtRatio(below); !errors.Is(err, ErrSqrtRatioOutOfBounds) {
		t.Fatalf("expected ErrSqrtRatioOutOfBounds below min, got %v", err)
	}
	if _, err := TickAtSqrtRatio(MaxSqrtRatio); !errors.Is(err, ErrSqrtRatioOutOfBounds) {
		t.Fatalf("expected ErrSqrtRatioOutOfBounds at max, got %v", err)
	}
}
