package v3math

import "math/big"

// SwapStep is the outcome of swapping as far as possible within one price
// range: the price reached, the amounts exchanged, and the fee taken on input.
type SwapStep struct {
	SqrtRatioNextX96 *big.Int
	AmountIn         *big.Int
	AmountOut        *big.Int
	FeeAmount        *big.Int
}

// ComputeSwapStep computes a single swap step between the current price and a
// target price given available liquidity and the remaining amount.
// amountRemaining >= 0 means exact input (fee deducted from it), < 0 means
// exact output. Rounding matches the on-chain swap math exactly: amounts paid
// in round up, amounts paid out round down.
func ComputeSwapStep(
	sqrtRatioCurrentX96 *big.Int,
	sqrtRatioTargetX96 *big.Int,
	liquidity *big.Int,
	amountRemaining *big.Int,
	feePips uint32,
) (SwapStep, error) {
	zeroForOne := sqrtRatioCurrentX96.Cmp(sqrtRatioTargetX96) >= 0
	exactIn := amountRemaining.Sign() >= 0

	feeComplement := new(big.Int).Sub(feeDenominator, new(big.Int).SetUint64(uint64(feePips)))

	var step SwapStep
	var err error

	if exactIn {
		amountRemainingLessFee := mulDiv(amountRemaining, feeComplement, feeDenominator)

		if zeroForOne {
			step.AmountIn = GetAmount0Delta(sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, true)
		} else {
			step.AmountIn = GetAmount1Delta(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, true)
		}

		if amountRemainingLessFee.Cmp(step.AmountIn) >= 0 {
			step.SqrtRatioNextX96 = new(big.Int).Set(sqrtRatioTargetX96)
		} else {
			step.SqrtRatioNextX96, err = GetNextSqrtPriceFromInput(
				sqrtRatioCurrentX96, liquidity, amountRemainingLessFee, zeroForOne)
			if err != nil {
				return SwapStep{}, err
			}
		}
	} else {
		if zeroForOne {
			step.AmountOut = GetAmount1Delta(sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, false)
		} else {
			step.AmountOut = GetAmount0Delta(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, false)
		}

		amountOutRequested := new(big.Int).Neg(amountRemaining)
		if amountOutRequested.Cmp(step.AmountOut) >= 0 {
			step.SqrtRatioNextX96 = new(big.Int).Set(sqrtRatioTargetX96)
		} else {
			step.SqrtRatioNextX96, err = GetNextSqrtPriceFromOutput(
				sqrtRatioCurrentX96, liquidity, amountOutRequested, zeroForOne)
			if err != nil {
				return SwapStep{}, err
			}
		}
	}

	max := sqrtRatioTargetX96.Cmp(step.SqrtRatioNextX96) == 0

	if zeroForOne {
		if !(max && exactIn) {
			step.AmountIn = GetAmount0Delta(step.SqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, true)
		}
		if !(max && !exactIn) {
			step.AmountOut = GetAmount1Delta(step.SqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, false)
		}
	} else {
		if !(max && exactIn) {
			step.AmountIn = GetAmount1Delta(sqrtRatioCurrentX96, step.SqrtRatioNextX96, liquidity, true)
		}
		if !(max && !exactIn) {
			step.AmountOut = GetAmount0Delta(sqrtRatioCurrentX96, step.SqrtRatioNextX96, liquidity, false)
		}
	}

	// Exact output never yields more than was asked for.
	if !exactIn {
		requested := new(big.Int).Neg(amountRemaining)
		if step.AmountOut.Cmp(requested) > 0 {
			step.AmountOut = requested
		}
	}

	if exactIn && !max {
		// The whole remainder was consumed; everything not swapped is fee.
		step.FeeAmount = new(big.Int).Sub(amountRemaining, step.AmountIn)
	} else {
		step.FeeAmount = mulDivRoundingUp(step.AmountIn, new(big.Int).SetUint64(uint64(feePips)), feeComplement)
	}

	return step, nil
}
