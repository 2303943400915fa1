package v3math

import (
	"errors"
	"math/big"
)

var (
	// ErrInvalidSqrtPrice reports a non-positive sqrt price input.
	ErrInvalidSqrtPrice = errors.New("sqrt price must be positive")

	// ErrInvalidLiquidity reports a non-positive liquidity input.
	ErrInvalidLiquidity = errors.New("liquidity must be positive")

	// ErrInsufficientLiquidity reports a price move that the available
	// liquidity cannot support.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity for price move")
)

// mulDiv computes floor(a * b / denominator).
func mulDiv(a, b, denominator *big.Int) *big.Int {
	product := new(big.Int).Mul(a, b)
	return product.Div(product, denominator)
}

// mulDivRoundingUp computes ceil(a * b / denominator).
func mulDivRoundingUp(a, b, denominator *big.Int) *big.Int {
	product := new(big.Int).Mul(a, b)
	quotient, remainder := product.QuoRem(product, denominator, new(big.Int))
	if remainder.Sign() > 0 {
		quotient.Add(quotient, big.NewInt(1))
	}
	return quotient
}

func divRoundingUp(a, denominator *big.Int) *big.Int {
	quotient, remainder := new(big.Int).QuoRem(a, denominator, new(big.Int))
	if remainder.Sign() > 0 {
		quotient.Add(quotient, big.NewInt(1))
	}
	return quotient
}

// GetAmount0Delta returns the token0 amount between two sqrt prices for the
// given liquidity: L * (sqrtB - sqrtA) / (sqrtB * sqrtA). Rounds up when the
// amount is owed to the pool, down when owed to the trader.
func GetAmount0Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int, roundUp bool) *big.Int {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}

	numerator1 := new(big.Int).Lsh(liquidity, 96)
	numerator2 := new(big.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)

	if roundUp {
		return divRoundingUp(mulDivRoundingUp(numerator1, numerator2, sqrtRatioBX96), sqrtRatioAX96)
	}
	inner := mulDiv(numerator1, numerator2, sqrtRatioBX96)
	return inner.Div(inner, sqrtRatioAX96)
}

// GetAmount1Delta returns the token1 amount between two sqrt prices for the
// given liquidity: L * (sqrtB - sqrtA) / 2^96.
func GetAmount1Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int, roundUp bool) *big.Int {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}

	diff := new(big.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)
	if roundUp {
		return mulDivRoundingUp(liquidity, diff, Q96)
	}
	return mulDiv(liquidity, diff, Q96)
}

// getNextSqrtPriceFromAmount0RoundingUp moves the price given a token0
// amount. Rounds up so the price never overstates how far the amount moves it.
func getNextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amount *big.Int, add bool) (*big.Int, error) {
	if amount.Sign() == 0 {
		return new(big.Int).Set(sqrtPX96), nil
	}

	numerator1 := new(big.Int).Lsh(liquidity, 96)

	if add {
		// Precise form: ceil(L<<96 * sqrtP / (L<<96 + amount * sqrtP)).
		// The contract falls back to dividing through by sqrtP first when
		// the denominator would not fit in 256 bits; that condition has to
		// be reproduced or results diverge from the chain at the extremes.
		product := new(big.Int).Mul(amount, sqrtPX96)
		denominator := new(big.Int).Add(numerator1, product)
		if product.Cmp(maxUint256) <= 0 && denominator.Cmp(maxUint256) <= 0 {
			return mulDivRoundingUp(numerator1, sqrtPX96, denominator), nil
		}

		fallback := new(big.Int).Div(numerator1, sqrtPX96)
		fallback.Add(fallback, amount)
		return divRoundingUp(numerator1, fallback), nil
	}

	product := new(big.Int).Mul(amount, sqrtPX96)
	if product.Cmp(maxUint256) > 0 {
		return nil, ErrInsufficientLiquidity
	}
	denominator := new(big.Int).Sub(numerator1, product)
	if denominator.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}
	return mulDivRoundingUp(numerator1, sqrtPX96, denominator), nil
}

// getNextSqrtPriceFromAmount1RoundingDown moves the price given a token1
// amount. Rounds down, mirroring the contract's rounding direction.
func getNextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amount *big.Int, add bool) (*big.Int, error) {
	if add {
		quotient := new(big.Int).Lsh(amount, 96)
		quotient.Div(quotient, liquidity)
		return quotient.Add(sqrtPX96, quotient), nil
	}

	quotient := divRoundingUp(new(big.Int).Lsh(amount, 96), liquidity)
	result := new(big.Int).Sub(sqrtPX96, quotient)
	if result.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}
	return result, nil
}

// GetNextSqrtPriceFromInput returns the price after consuming amountIn of the
// input token in the given direction.
func GetNextSqrtPriceFromInput(sqrtPX96, liquidity, amountIn *big.Int, zeroForOne bool) (*big.Int, error) {
	if sqrtPX96.Sign() <= 0 {
		return nil, ErrInvalidSqrtPrice
	}
	if liquidity.Sign() <= 0 {
		return nil, ErrInvalidLiquidity
	}

	if zeroForOne {
		return getNextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amountIn, true)
	}
	return getNextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amountIn, true)
}

// GetNextSqrtPriceFromOutput returns the price after producing amountOut of
// the output token in the given direction.
func GetNextSqrtPriceFromOutput(sqrtPX96, liquidity, amountOut *big.Int, zeroForOne bool) (*big.Int, error) {
	if sqrtPX96.Sign() <= 0 {
		return nil, ErrInvalidSqrtPrice
	}
	if liquidity.Sign() <= 0 {
		return nil, ErrInvalidLiquidity
	}

	if zeroForOne {
		return getNextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amountOut, false)
	}
	return getNextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amountOut, false)
}
