// Package provider reads pool state from a ledger node over RPC. It
// implements the interfaces the swap engine consumes; retry policy, if any,
// belongs to the caller, not here.
package provider

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"quoteScope/internal/chain"
	"quoteScope/internal/dex"
	"quoteScope/internal/pool"
	"quoteScope/internal/ticks"
	"quoteScope/internal/v3math"
)

// Client fetches pool data via eth_call against a chain client.
type Client struct {
	chain  *chain.Client
	logger *zap.Logger

	mu      sync.RWMutex
	spacing map[common.Address]int32
}

// New builds a provider client.
func New(chainClient *chain.Client, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		chain:   chainClient,
		logger:  logger,
		spacing: make(map[common.Address]int32),
	}
}

// PoolImmutables resolves token identities, decimals, fee, and tick spacing.
func (c *Client) PoolImmutables(ctx context.Context, poolAddr common.Address) (pool.Immutables, error) {
	poolABI, err := dex.V3PoolABI()
	if err != nil {
		return pool.Immutables{}, fmt.Errorf("parse pool abi: %w", err)
	}

	token0, err := c.callAddress(ctx, poolAddr, poolABI, "token0")
	if err != nil {
		return pool.Immutables{}, err
	}
	token1, err := c.callAddress(ctx, poolAddr, poolABI, "token1")
	if err != nil {
		return pool.Immutables{}, err
	}
	if token0 == (common.Address{}) || token1 == (common.Address{}) {
		return pool.Immutables{}, pool.ErrPoolData
	}

	fee, err := c.callBigInt(ctx, poolAddr, poolABI, "fee", nil)
	if err != nil {
		return pool.Immutables{}, err
	}
	spacingBig, err := c.callBigInt(ctx, poolAddr, poolABI, "tickSpacing", nil)
	if err != nil {
		return pool.Immutables{}, err
	}
	spacing := int32(spacingBig.Int64())
	if spacing <= 0 {
		return pool.Immutables{}, fmt.Errorf("%w: tick spacing %d", pool.ErrPoolData, spacing)
	}

	dec0, err := c.tokenDecimals(ctx, token0)
	if err != nil {
		return pool.Immutables{}, fmt.Errorf("token0 decimals: %w", err)
	}
	dec1, err := c.tokenDecimals(ctx, token1)
	if err != nil {
		return pool.Immutables{}, fmt.Errorf("token1 decimals: %w", err)
	}

	c.mu.Lock()
	c.spacing[poolAddr] = spacing
	c.mu.Unlock()

	return pool.Immutables{
		Token0:         token0,
		Token0Decimals: dec0,
		Token1:         token1,
		Token1Decimals: dec1,
		Fee:            uint32(fee.Uint64()),
		TickSpacing:    spacing,
	}, nil
}

// PoolState reads slot0 and liquidity, optionally at a block height.
func (c *Client) PoolState(ctx context.Context, poolAddr common.Address, block *big.Int) (pool.State, error) {
	poolABI, err := dex.V3PoolABI()
	if err != nil {
		return pool.State{}, fmt.Errorf("parse pool abi: %w", err)
	}

	values, err := c.call(ctx, poolAddr, poolABI, "slot0", block)
	if err != nil {
		return pool.State{}, err
	}
	if len(values) < 2 {
		return pool.State{}, fmt.Errorf("unexpected slot0 values: %d", len(values))
	}
	sqrtPrice, ok := values[0].(*big.Int)
	if !ok {
		return pool.State{}, fmt.Errorf("unexpected sqrtPriceX96 type %T", values[0])
	}
	tickBig, ok := values[1].(*big.Int)
	if !ok {
		return pool.State{}, fmt.Errorf("unexpected tick type %T", values[1])
	}

	liquidity, err := c.callBigInt(ctx, poolAddr, poolABI, "liquidity", block)
	if err != nil {
		return pool.State{}, err
	}

	return pool.State{
		SqrtPriceX96: new(big.Int).Set(sqrtPrice),
		Tick:         int32(tickBig.Int64()),
		Liquidity:    liquidity,
	}, nil
}

// LiquidityNet reads the net liquidity field of one tick.
func (c *Client) LiquidityNet(ctx context.Context, poolAddr common.Address, tick int32, block *big.Int) (*big.Int, error) {
	info, err := c.tickInfo(ctx, poolAddr, tick, block)
	if err != nil {
		return nil, err
	}
	return info.LiquidityNet, nil
}

// TickBatch walks the tick bitmap in traversal order from startTick and
// returns up to count entries, all consistent with the returned block height.
// When the scan reaches the protocol tick bound without finding further
// initialized ticks, a final uninitialized boundary entry is emitted so the
// swap loop can still step to the global price limit.
func (c *Client) TickBatch(ctx context.Context, poolAddr common.Address, startTick int32, zeroForOne bool, count uint16, block *big.Int) ([]ticks.Data, *big.Int, error) {
	if block == nil {
		latest, err := c.chain.LatestBlockNumber(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("pin block: %w", err)
		}
		block = new(big.Int).SetUint64(latest)
	}

	spacing, err := c.tickSpacing(ctx, poolAddr)
	if err != nil {
		return nil, nil, err
	}

	store, err := ticks.NewStore(spacing)
	if err != nil {
		return nil, nil, err
	}

	minWord, _ := ticks.Position(ticks.Compress(v3math.MinTick, spacing))
	maxWord, _ := ticks.Position(ticks.Compress(v3math.MaxTick, spacing))

	entries := make([]ticks.Data, 0, count)
	cursor := startTick
	for len(entries) < int(count) {
		next, _, within := store.NextInitialized(cursor, zeroForOne)
		if !within {
			wordPos := wordPosFor(next, spacing, zeroForOne)
			if wordPos < minWord || wordPos > maxWord {
				bound := v3math.MaxTick
				if zeroForOne {
					bound = v3math.MinTick
				}
				entries = append(entries, ticks.Data{Tick: bound, LiquidityNet: new(big.Int), Initialized: false})
				break
			}
			word, err := c.tickBitmapWord(ctx, poolAddr, wordPos, block)
			if err != nil {
				return nil, nil, err
			}
			store.SetWord(wordPos, word)
			cursor = next
			continue
		}

		if next < v3math.MinTick || next > v3math.MaxTick {
			bound := v3math.MaxTick
			if zeroForOne {
				bound = v3math.MinTick
			}
			entries = append(entries, ticks.Data{Tick: bound, LiquidityNet: new(big.Int), Initialized: false})
			break
		}

		info, err := c.tickInfo(ctx, poolAddr, next, block)
		if err != nil {
			return nil, nil, err
		}
		if err := store.SetTick(next, info); err != nil {
			return nil, nil, err
		}
		entries = append(entries, ticks.Data{
			Tick:         next,
			LiquidityNet: new(big.Int).Set(info.LiquidityNet),
			Initialized:  info.Initialized,
		})

		if zeroForOne {
			cursor = next - spacing
		} else {
			cursor = next
		}
	}

	c.logger.Debug("tick batch fetched",
		zap.String("pool", poolAddr.Hex()),
		zap.Int32("start_tick", startTick),
		zap.Bool("zero_for_one", zeroForOne),
		zap.Int("entries", len(entries)),
		zap.String("block", block.String()),
	)

	return entries, block, nil
}

func wordPosFor(cursor, spacing int32, zeroForOne bool) int16 {
	compressed := ticks.Compress(cursor, spacing)
	if !zeroForOne {
		compressed++
	}
	wordPos, _ := ticks.Position(compressed)
	return wordPos
}

func (c *Client) tickSpacing(ctx context.Context, poolAddr common.Address) (int32, error) {
	c.mu.RLock()
	spacing, ok := c.spacing[poolAddr]
	c.mu.RUnlock()
	if ok {
		return spacing, nil
	}

	poolABI, err := dex.V3PoolABI()
	if err != nil {
		return 0, fmt.Errorf("parse pool abi: %w", err)
	}
	spacingBig, err := c.callBigInt(ctx, poolAddr, poolABI, "tickSpacing", nil)
	if err != nil {
		return 0, err
	}
	spacing = int32(spacingBig.Int64())
	if spacing <= 0 {
		return 0, fmt.Errorf("%w: tick spacing %d", pool.ErrPoolData, spacing)
	}

	c.mu.Lock()
	c.spacing[poolAddr] = spacing
	c.mu.Unlock()
	return spacing, nil
}

func (c *Client) tickBitmapWord(ctx context.Context, poolAddr common.Address, wordPos int16, block *big.Int) (*big.Int, error) {
	poolABI, err := dex.V3PoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}
	values, err := c.call(ctx, poolAddr, poolABI, "tickBitmap", block, wordPos)
	if err != nil {
		return nil, err
	}
	word, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected tickBitmap type %T", values[0])
	}
	return new(big.Int).Set(word), nil
}

func (c *Client) tickInfo(ctx context.Context, poolAddr common.Address, tick int32, block *big.Int) (ticks.Info, error) {
	poolABI, err := dex.V3PoolABI()
	if err != nil {
		return ticks.Info{}, fmt.Errorf("parse pool abi: %w", err)
	}
	values, err := c.call(ctx, poolAddr, poolABI, "ticks", block, big.NewInt(int64(tick)))
	if err != nil {
		return ticks.Info{}, err
	}
	if len(values) != 8 {
		return ticks.Info{}, fmt.Errorf("unexpected ticks values: %d", len(values))
	}

	gross, ok := values[0].(*big.Int)
	if !ok {
		return ticks.Info{}, fmt.Errorf("unexpected liquidityGross type %T", values[0])
	}
	net, ok := values[1].(*big.Int)
	if !ok {
		return ticks.Info{}, fmt.Errorf("unexpected liquidityNet type %T", values[1])
	}
	feeGrowth0, ok := values[2].(*big.Int)
	if !ok {
		return ticks.Info{}, fmt.Errorf("unexpected feeGrowthOutside0X128 type %T", values[2])
	}
	feeGrowth1, ok := values[3].(*big.Int)
	if !ok {
		return ticks.Info{}, fmt.Errorf("unexpected feeGrowthOutside1X128 type %T", values[3])
	}
	tickCumulative, ok := values[4].(*big.Int)
	if !ok {
		return ticks.Info{}, fmt.Errorf("unexpected tickCumulativeOutside type %T", values[4])
	}
	secondsPerLiquidity, ok := values[5].(*big.Int)
	if !ok {
		return ticks.Info{}, fmt.Errorf("unexpected secondsPerLiquidityOutsideX128 type %T", values[5])
	}
	secondsOutside, ok := values[6].(uint32)
	if !ok {
		return ticks.Info{}, fmt.Errorf("unexpected secondsOutside type %T", values[6])
	}
	initialized, ok := values[7].(bool)
	if !ok {
		return ticks.Info{}, fmt.Errorf("unexpected initialized type %T", values[7])
	}

	return ticks.Info{
		LiquidityGross:                 new(big.Int).Set(gross),
		LiquidityNet:                   new(big.Int).Set(net),
		FeeGrowthOutside0X128:          new(big.Int).Set(feeGrowth0),
		FeeGrowthOutside1X128:          new(big.Int).Set(feeGrowth1),
		TickCumulativeOutside:          new(big.Int).Set(tickCumulative),
		SecondsPerLiquidityOutsideX128: new(big.Int).Set(secondsPerLiquidity),
		SecondsOutside:                 secondsOutside,
		Initialized:                    initialized,
	}, nil
}

func (c *Client) tokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	erc20, err := dex.ERC20ABI()
	if err != nil {
		return 0, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := c.call(ctx, token, erc20, "decimals", nil)
	if err != nil {
		return 0, err
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals type %T", values[0])
	}
	return decimals, nil
}

func (c *Client) callAddress(ctx context.Context, target common.Address, parsed abi.ABI, method string) (common.Address, error) {
	values, err := c.call(ctx, target, parsed, method, nil)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected %s type %T", method, values[0])
	}
	return addr, nil
}

func (c *Client) callBigInt(ctx context.Context, target common.Address, parsed abi.ABI, method string, block *big.Int) (*big.Int, error) {
	values, err := c.call(ctx, target, parsed, method, block)
	if err != nil {
		return nil, err
	}
	n, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s type %T", method, values[0])
	}
	return new(big.Int).Set(n), nil
}

func (c *Client) call(ctx context.Context, target common.Address, parsed abi.ABI, method string, block *big.Int, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &target, Data: data}
	resp, err := c.chain.CallContract(ctx, msg, block)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("empty %s response", method)
	}
	return values, nil
}
