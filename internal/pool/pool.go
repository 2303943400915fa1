package pool

import (
	"context"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"quoteScope/internal/ticks"
	"quoteScope/internal/v3math"
)

// DefaultTickWindow is the number of tick entries fetched per provider batch.
const DefaultTickWindow uint16 = 150

// Immutables are the pool parameters that never change after deployment.
type Immutables struct {
	Token0         common.Address
	Token0Decimals uint8
	Token1         common.Address
	Token1Decimals uint8
	Fee            uint32
	TickSpacing    int32
}

// State is the mutable slice of a pool snapshot.
type State struct {
	SqrtPriceX96 *big.Int
	Tick         int32
	Liquidity    *big.Int
}

// StateReader supplies pool snapshots from the ledger. A nil block means the
// latest height.
type StateReader interface {
	PoolImmutables(ctx context.Context, pool common.Address) (Immutables, error)
	PoolState(ctx context.Context, pool common.Address, block *big.Int) (State, error)
	LiquidityNet(ctx context.Context, pool common.Address, tick int32, block *big.Int) (*big.Int, error)
}

// TickSource supplies batches of tick data in traversal order, consistent
// with the returned block height.
type TickSource interface {
	TickBatch(ctx context.Context, pool common.Address, startTick int32, zeroForOne bool, count uint16, block *big.Int) ([]ticks.Data, *big.Int, error)
}

// Pool is one concentrated-liquidity pool snapshot. Token0/Token1 follow the
// canonical token sort order, not economic roles. A Pool is owned by its
// caller; concurrent simulations need their own copies.
type Pool struct {
	Address        common.Address
	Token0         common.Address
	Token0Decimals uint8
	Token1         common.Address
	Token1Decimals uint8
	Fee            uint32
	TickSpacing    int32

	SqrtPriceX96 *big.Int
	Tick         int32
	Liquidity    *big.Int
	LiquidityNet *big.Int
}

// New fetches a fully populated pool snapshot.
func New(ctx context.Context, address common.Address, reader StateReader) (*Pool, error) {
	p := &Pool{
		Address:      address,
		SqrtPriceX96: new(big.Int),
		Liquidity:    new(big.Int),
		LiquidityNet: new(big.Int),
	}
	if err := p.Sync(ctx, reader); err != nil {
		return nil, err
	}
	return p, nil
}

// Sync refreshes immutable and mutable pool data from the provider.
func (p *Pool) Sync(ctx context.Context, reader StateReader) error {
	imm, err := reader.PoolImmutables(ctx, p.Address)
	if err != nil {
		return err
	}
	if imm.Token0 == (common.Address{}) || imm.Token1 == (common.Address{}) {
		return ErrPoolData
	}

	p.Token0 = imm.Token0
	p.Token0Decimals = imm.Token0Decimals
	p.Token1 = imm.Token1
	p.Token1Decimals = imm.Token1Decimals
	p.Fee = imm.Fee
	p.TickSpacing = imm.TickSpacing

	state, err := reader.PoolState(ctx, p.Address, nil)
	if err != nil {
		return err
	}
	p.SqrtPriceX96 = new(big.Int).Set(state.SqrtPriceX96)
	p.Tick = state.Tick
	p.Liquidity = new(big.Int).Set(state.Liquidity)

	net, err := reader.LiquidityNet(ctx, p.Address, p.Tick, nil)
	if err != nil {
		return err
	}
	p.LiquidityNet = new(big.Int).Set(net)

	return nil
}

// TradeEvent is the decoded effect of an executed swap, used to patch a
// snapshot without a full resync.
type TradeEvent struct {
	Amount0      *big.Int
	Amount1      *big.Int
	SqrtPriceX96 *big.Int
	Liquidity    *big.Int
	Tick         int32
}

// ApplyTradeEvent overwrites the mutable state with the post-trade values of
// an executed swap and refetches the liquidity net at the new tick.
func (p *Pool) ApplyTradeEvent(ctx context.Context, event TradeEvent, reader StateReader) error {
	p.SqrtPriceX96 = new(big.Int).Set(event.SqrtPriceX96)
	p.Liquidity = new(big.Int).Set(event.Liquidity)
	p.Tick = event.Tick

	net, err := reader.LiquidityNet(ctx, p.Address, p.Tick, nil)
	if err != nil {
		return err
	}
	p.LiquidityNet = new(big.Int).Set(net)
	return nil
}

// Clone returns an independent copy of the snapshot, suitable for running a
// simulation in parallel with others.
func (p *Pool) Clone() *Pool {
	copied := *p
	copied.SqrtPriceX96 = new(big.Int).Set(p.SqrtPriceX96)
	copied.Liquidity = new(big.Int).Set(p.Liquidity)
	copied.LiquidityNet = new(big.Int).Set(p.LiquidityNet)
	return &copied
}

// Price returns the floating-point price of baseToken denominated in the
// other token, derived from the current tick and the token decimal scales.
func (p *Pool) Price(baseToken common.Address) (float64, error) {
	tick, err := v3math.TickAtSqrtRatio(p.SqrtPriceX96)
	if err != nil {
		return 0, err
	}

	shift := int(p.Token0Decimals) - int(p.Token1Decimals)
	price := math.Pow(1.0001, float64(tick)) * math.Pow(10, float64(shift))

	if baseToken == p.Token0 {
		return price, nil
	}
	return 1 / price, nil
}

// VirtualReserves approximates the pool's reserves from the constant-product
// tangent at the current price: reserve0 = L/sqrt(p), reserve1 = L*sqrt(p).
// This is an approximation, not an on-chain quantity.
func (p *Pool) VirtualReserves() (*big.Int, *big.Int, error) {
	price, err := p.Price(p.Token0)
	if err != nil {
		return nil, nil, err
	}

	sqrtPrice := new(big.Float).Sqrt(big.NewFloat(price))
	if sqrtPrice.Sign() == 0 {
		return new(big.Int), new(big.Int), nil
	}
	liquidity := new(big.Float).SetInt(p.Liquidity)

	reserve0, _ := new(big.Float).Quo(liquidity, sqrtPrice).Int(nil)
	reserve1, _ := new(big.Float).Mul(liquidity, sqrtPrice).Int(nil)
	return reserve0, reserve1, nil
}
