package pool

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"quoteScope/internal/v3math"
)

// currentState tracks the working state of an in-flight swap simulation.
// amountCalculated accumulates the output as a negative quantity; the
// reported output is its negation.
type currentState struct {
	amountSpecifiedRemaining *big.Int
	amountCalculated         *big.Int
	sqrtPriceX96             *big.Int
	tick                     int32
	liquidity                *big.Int
}

// stepComputations holds the per-step scratch values of the swap loop.
type stepComputations struct {
	sqrtPriceStartX96 *big.Int
	tickNext          int32
	initialized       bool
	sqrtPriceNextX96  *big.Int
}

// Simulate computes the output amount of swapping amountIn of tokenIn against
// the current snapshot, without modifying it. Uses the default tick window.
func (p *Pool) Simulate(ctx context.Context, tokenIn common.Address, amountIn *big.Int, source TickSource) (*big.Int, error) {
	return p.SimulateWithWindow(ctx, tokenIn, amountIn, DefaultTickWindow, source)
}

// SimulateWithWindow is Simulate with a caller-chosen tick batch size.
func (p *Pool) SimulateWithWindow(ctx context.Context, tokenIn common.Address, amountIn *big.Int, window uint16, source TickSource) (*big.Int, error) {
	return p.swap(ctx, tokenIn, amountIn, window, false, source)
}

// SimulateMut computes the output amount and commits the post-trade price,
// tick, and liquidity back into the snapshot, so successive simulations can
// be chained against the updated state.
func (p *Pool) SimulateMut(ctx context.Context, tokenIn common.Address, amountIn *big.Int, source TickSource) (*big.Int, error) {
	return p.swap(ctx, tokenIn, amountIn, DefaultTickWindow, true, source)
}

// SimulateMutWithWindow is SimulateMut with a caller-chosen tick batch size.
func (p *Pool) SimulateMutWithWindow(ctx context.Context, tokenIn common.Address, amountIn *big.Int, window uint16, source TickSource) (*big.Int, error) {
	return p.swap(ctx, tokenIn, amountIn, window, true, source)
}

// swap runs the step-wise swap state machine. One implementation serves both
// entry points; commit selects whether the final working state is written
// back into the pool.
func (p *Pool) swap(ctx context.Context, tokenIn common.Address, amountIn *big.Int, window uint16, commit bool, source TickSource) (*big.Int, error) {
	if amountIn.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	if tokenIn != p.Token0 && tokenIn != p.Token1 {
		return nil, ErrUnknownToken
	}
	if amountIn.Sign() == 0 {
		return new(big.Int), nil
	}

	// Trading token0 for token1 moves price down.
	zeroForOne := tokenIn == p.Token0

	cache, err := newTickCache(ctx, source, p.Address, p.Tick, zeroForOne, window)
	if err != nil {
		return nil, err
	}

	var sqrtPriceLimitX96 *big.Int
	if zeroForOne {
		sqrtPriceLimitX96 = new(big.Int).Add(v3math.MinSqrtRatio, big.NewInt(1))
	} else {
		sqrtPriceLimitX96 = new(big.Int).Sub(v3math.MaxSqrtRatio, big.NewInt(1))
	}

	state := currentState{
		amountSpecifiedRemaining: new(big.Int).Set(amountIn),
		amountCalculated:         new(big.Int),
		sqrtPriceX96:             new(big.Int).Set(p.SqrtPriceX96),
		tick:                     p.Tick,
		liquidity:                new(big.Int).Set(p.Liquidity),
	}
	liquidityNet := new(big.Int).Set(p.LiquidityNet)

	for state.amountSpecifiedRemaining.Sign() != 0 && state.sqrtPriceX96.Cmp(sqrtPriceLimitX96) != 0 {
		step := stepComputations{
			sqrtPriceStartX96: new(big.Int).Set(state.sqrtPriceX96),
		}

		nextTickData, err := cache.next(ctx, state.tick)
		if err != nil {
			return nil, err
		}

		step.tickNext = clampTick(nextTickData.Tick)
		step.initialized = nextTickData.Initialized

		step.sqrtPriceNextX96, err = v3math.SqrtRatioAtTick(step.tickNext)
		if err != nil {
			return nil, err
		}

		// The step target is whichever of the next tick's price or the
		// global limit is reached first in the direction of travel.
		target := step.sqrtPriceNextX96
		if zeroForOne {
			if step.sqrtPriceNextX96.Cmp(sqrtPriceLimitX96) < 0 {
				target = sqrtPriceLimitX96
			}
		} else {
			if step.sqrtPriceNextX96.Cmp(sqrtPriceLimitX96) > 0 {
				target = sqrtPriceLimitX96
			}
		}

		result, err := v3math.ComputeSwapStep(
			state.sqrtPriceX96,
			target,
			state.liquidity,
			state.amountSpecifiedRemaining,
			p.Fee,
		)
		if err != nil {
			return nil, err
		}
		state.sqrtPriceX96 = result.SqrtRatioNextX96

		consumed := new(big.Int).Add(result.AmountIn, result.FeeAmount)
		state.amountSpecifiedRemaining.Sub(state.amountSpecifiedRemaining, consumed)
		state.amountCalculated.Sub(state.amountCalculated, result.AmountOut)

		switch {
		case state.sqrtPriceX96.Cmp(step.sqrtPriceNextX96) == 0:
			// Landed exactly on the tick boundary.
			if step.initialized {
				liquidityNet.Set(nextTickData.LiquidityNet)
				// Net liquidity is recorded for increasing crossings;
				// crossing downward applies the opposite sign.
				if zeroForOne {
					liquidityNet.Neg(liquidityNet)
				}
				state.liquidity.Add(state.liquidity, liquidityNet)
				if state.liquidity.Sign() < 0 {
					return nil, ErrLiquidityUnderflow
				}
			}
			if zeroForOne {
				state.tick = step.tickNext - 1
			} else {
				state.tick = step.tickNext
			}
		case state.sqrtPriceX96.Cmp(step.sqrtPriceStartX96) != 0:
			// Price moved but stopped between tick boundaries.
			state.tick, err = v3math.TickAtSqrtRatio(state.sqrtPriceX96)
			if err != nil {
				return nil, err
			}
		}
	}

	if commit {
		p.SqrtPriceX96 = state.sqrtPriceX96
		p.Tick = state.tick
		p.Liquidity = state.liquidity
		p.LiquidityNet = liquidityNet
	}

	return new(big.Int).Neg(state.amountCalculated), nil
}

func clampTick(tick int32) int32 {
	if tick < v3math.MinTick {
		return v3math.MinTick
	}
	if tick > v3math.MaxTick {
		return v3math.MaxTick
	}
	return tick
}
