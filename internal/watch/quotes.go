package watch

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"quoteScope/internal/model"
	"quoteScope/internal/pool"
)

// QuoteAmounts simulates each input amount against an independent copy of the
// snapshot and returns the resulting quote records. The snapshot itself is
// left untouched.
func QuoteAmounts(
	ctx context.Context,
	p *pool.Pool,
	tokenIn common.Address,
	amounts []*big.Int,
	window uint16,
	source pool.TickSource,
	chainID uint64,
	blockNumber uint64,
) ([]model.QuoteRecord, error) {
	tokenOut := p.Token1
	if tokenIn == p.Token1 {
		tokenOut = p.Token0
	}

	quotedAt := time.Now().UTC().Format(time.RFC3339Nano)
	records := make([]model.QuoteRecord, 0, len(amounts))
	for _, amountIn := range amounts {
		amountOut, err := p.Clone().SimulateWithWindow(ctx, tokenIn, amountIn, window, source)
		if err != nil {
			return nil, err
		}

		records = append(records, model.QuoteRecord{
			ChainID:      chainID,
			Pool:         p.Address.Hex(),
			TokenIn:      tokenIn.Hex(),
			TokenOut:     tokenOut.Hex(),
			AmountIn:     amountIn.String(),
			AmountOut:    amountOut.String(),
			FeePpm:       p.Fee,
			SqrtPriceX96: p.SqrtPriceX96.String(),
			Tick:         p.Tick,
			BlockNumber:  blockNumber,
			QuotedAt:     quotedAt,
		})
	}

	return records, nil
}
