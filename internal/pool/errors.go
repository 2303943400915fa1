package pool

import "errors"

var (
	// ErrPoolData reports an incomplete pool snapshot from the data
	// provider, such as a zero token identity.
	ErrPoolData = errors.New("incomplete pool data")

	// ErrNoInitializedTicks reports that a tick batch refill returned no
	// entries: the pool holds no further liquidity in the swap direction.
	ErrNoInitializedTicks = errors.New("no initialized ticks in swap direction")

	// ErrLiquidityUnderflow reports a tick crossing whose net liquidity
	// change would drive active liquidity below zero.
	ErrLiquidityUnderflow = errors.New("liquidity underflow at tick crossing")

	// ErrUnknownToken reports an input token that is neither side of the
	// pool's pair.
	ErrUnknownToken = errors.New("token is not part of the pool pair")

	// ErrNegativeAmount reports a negative input amount.
	ErrNegativeAmount = errors.New("input amount must not be negative")
)
