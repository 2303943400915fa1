package v3math

import (
	"errors"
	"math/big"
)

var (
	// ErrTickOutOfBounds reports a tick outside [MinTick, MaxTick].
	ErrTickOutOfBounds = errors.New("tick out of bounds")

	// ErrSqrtRatioOutOfBounds reports a sqrt price outside [MinSqrtRatio, MaxSqrtRatio).
	ErrSqrtRatioOutOfBounds = errors.New("sqrt ratio out of bounds")
)

// tickRatios[i] holds sqrt(1.0001^-(2^i)) in Q128.128, used by the
// bit-decomposition in SqrtRatioAtTick.
var tickRatios = []*big.Int{
	mustBigHex("fffcb933bd6fad37aa2d162d1a594001"),
	mustBigHex("fff97272373d413259a46990580e213a"),
	mustBigHex("fff2e50f5f656932ef12357cf3c7fdcc"),
	mustBigHex("ffe5caca7e10e4e61c3624eaa0941cd0"),
	mustBigHex("ffcb9843d60f6159c9db58835c926644"),
	mustBigHex("ff973b41fa98c081472e6896dfb254c0"),
	mustBigHex("ff2ea16466c96a3843ec78b326b52861"),
	mustBigHex("fe5dee046a99a2a811c461f1969c3053"),
	mustBigHex("fcbe86c7900a88aedcffc83b479aa3a4"),
	mustBigHex("f987a7253ac413176f2b074cf7815e54"),
	mustBigHex("f3392b0822b70005940c7a398e4b70f3"),
	mustBigHex("e7159475a2c29b7443b29c7fa6e889d9"),
	mustBigHex("d097f3bdfd2022b8845ad8f792aa5825"),
	mustBigHex("a9f746462d870fdf8a65dc1f90e061e5"),
	mustBigHex("70d869a156d2a1b890bb3df62baf32f7"),
	mustBigHex("31be135f97d08fd981231505542fcfa6"),
	mustBigHex("9aa508b5b7a84e1c677de54f3e99bc9"),
	mustBigHex("5d6af8dedb81196699c329225ee604"),
	mustBigHex("2216e584f5fa1ea926041bedfe98"),
	mustBigHex("48a170391f7dc42444e8fa2"),
}

var oneQ128 = mustBigHex("100000000000000000000000000000000")

// SqrtRatioAtTick computes sqrt(1.0001^tick) * 2^96 by exact bit
// decomposition of the tick, matching the on-chain library bit for bit.
func SqrtRatioAtTick(tick int32) (*big.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, ErrTickOutOfBounds
	}

	absTick := uint32(tick)
	if tick < 0 {
		absTick = uint32(-tick)
	}

	ratio := new(big.Int).Set(oneQ128)
	if absTick&1 != 0 {
		ratio.Set(tickRatios[0])
	}
	for i := 1; i < len(tickRatios); i++ {
		if absTick&(1<<uint(i)) != 0 {
			ratio.Mul(ratio, tickRatios[i])
			ratio.Rsh(ratio, 128)
		}
	}

	if tick > 0 {
		ratio.Div(maxUint256, ratio)
	}

	// Q128.128 -> Q64.96, rounding up so the result round-trips through
	// TickAtSqrtRatio.
	if hasLowBits(ratio, 32) {
		ratio.Rsh(ratio, 32)
		ratio.Add(ratio, big.NewInt(1))
	} else {
		ratio.Rsh(ratio, 32)
	}
	return ratio, nil
}

func hasLowBits(x *big.Int, n int) bool {
	for i := 0; i < n; i++ {
		if x.Bit(i) != 0 {
			return true
		}
	}
	return false
}

var (
	logScale     = mustBig("255738958999603826347141")
	tickLowBias  = mustBig("3402992956809132418596140100660247210")
	tickHighBias = mustBig("291339464771989622907027621153398088495")
)

// TickAtSqrtRatio returns the greatest tick whose sqrt ratio is less than
// or equal to sqrtPriceX96 (floor semantics). Defined on
// [MinSqrtRatio, MaxSqrtRatio).
func TickAtSqrtRatio(sqrtPriceX96 *big.Int) (int32, error) {
	if sqrtPriceX96.Cmp(MinSqrtRatio) < 0 || sqrtPriceX96.Cmp(MaxSqrtRatio) >= 0 {
		return 0, ErrSqrtRatioOutOfBounds
	}

	ratio := new(big.Int).Lsh(sqrtPriceX96, 32)
	msb := ratio.BitLen() - 1

	r := new(big.Int)
	if msb >= 128 {
		r.Rsh(ratio, uint(msb-127))
	} else {
		r.Lsh(ratio, uint(127-msb))
	}

	log2 := big.NewInt(int64(msb) - 128)
	log2.Lsh(log2, 64)

	// Refine the fractional bits of log2(ratio) in Q64.64.
	for i := 0; i < 14; i++ {
		r.Mul(r, r)
		r.Rsh(r, 127)
		f := new(big.Int).Rsh(r, 128)
		if f.Sign() != 0 {
			log2.Or(log2, new(big.Int).Lsh(f, uint(63-i)))
			r.Rsh(r, 1)
		}
	}

	logSqrt10001 := new(big.Int).Mul(log2, logScale)

	tickLow := new(big.Int).Sub(logSqrt10001, tickLowBias)
	tickLow.Rsh(tickLow, 128)
	tickHigh := new(big.Int).Add(logSqrt10001, tickHighBias)
	tickHigh.Rsh(tickHigh, 128)

	low := int32(tickLow.Int64())
	high := int32(tickHigh.Int64())
	if low == high {
		return low, nil
	}

	ratioAtHigh, err := SqrtRatioAtTick(high)
	if err != nil {
		return 0, err
	}
	if ratioAtHigh.Cmp(sqrtPriceX96) <= 0 {
		return high, nil
	}
	return low, nil
}
