package ticks

import "math/big"

// Info holds the metadata of one initialized tick. Fee growth and seconds
// accumulators are carried as opaque values; the engine stores but never
// computes them.
type Info struct {
	LiquidityGross                 *big.Int
	LiquidityNet                   *big.Int
	FeeGrowthOutside0X128          *big.Int
	FeeGrowthOutside1X128          *big.Int
	TickCumulativeOutside          *big.Int
	SecondsPerLiquidityOutsideX128 *big.Int
	SecondsOutside                 uint32
	Initialized                    bool
}

// Data is one entry of a tick batch in traversal order. LiquidityNet is the
// net liquidity change recorded for the price-increasing direction.
// Uninitialized entries mark word boundaries the swap loop may step to
// without a liquidity change.
type Data struct {
	Tick         int32
	LiquidityNet *big.Int
	Initialized  bool
}
