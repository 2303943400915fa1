package pool

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"quoteScope/internal/ticks"
)

// tickCache is the per-swap look-ahead window of tick data. The first batch
// pins the block height; refills stay at that height so a simulation never
// observes a state change mid-flight. A cache is owned by exactly one
// in-flight swap and is discarded when the swap finishes.
type tickCache struct {
	source     TickSource
	pool       common.Address
	zeroForOne bool
	window     uint16

	block   *big.Int
	entries []ticks.Data
	pos     int
}

func newTickCache(ctx context.Context, source TickSource, poolAddr common.Address, startTick int32, zeroForOne bool, window uint16) (*tickCache, error) {
	c := &tickCache{
		source:     source,
		pool:       poolAddr,
		zeroForOne: zeroForOne,
		window:     window,
	}
	if err := c.refill(ctx, startTick); err != nil {
		return nil, err
	}
	return c, nil
}

// next returns the next tick entry in traversal order, refilling from the
// provider anchored at anchorTick when the window is exhausted. An empty
// refill means the pool has no liquidity left in this direction.
func (c *tickCache) next(ctx context.Context, anchorTick int32) (ticks.Data, error) {
	if c.pos < len(c.entries) {
		entry := c.entries[c.pos]
		c.pos++
		return entry, nil
	}

	if err := c.refill(ctx, anchorTick); err != nil {
		return ticks.Data{}, err
	}
	if len(c.entries) == 0 {
		return ticks.Data{}, ErrNoInitializedTicks
	}

	entry := c.entries[0]
	c.pos = 1
	return entry, nil
}

func (c *tickCache) refill(ctx context.Context, anchorTick int32) error {
	batch, block, err := c.source.TickBatch(ctx, c.pool, anchorTick, c.zeroForOne, c.window, c.block)
	if err != nil {
		return err
	}
	if c.block == nil {
		c.block = block
	}
	c.entries = batch
	c.pos = 0
	return nil
}
