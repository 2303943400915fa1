package pool

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"quoteScope/internal/ticks"
	"quoteScope/internal/v3math"
)

var (
	testToken0 = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testToken1 = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	testOther  = common.HexToAddress("0x00000000000000000000000000000000000000cc")
)

// fakeSource serves scripted tick batches and records every call.
type fakeSource struct {
	batches [][]ticks.Data
	height  *big.Int

	calls  int
	blocks []*big.Int
}

func (f *fakeSource) TickBatch(_ context.Context, _ common.Address, _ int32, _ bool, _ uint16, block *big.Int) ([]ticks.Data, *big.Int, error) {
	f.calls++
	f.blocks = append(f.blocks, block)

	var batch []ticks.Data
	if len(f.batches) > 0 {
		batch = f.batches[0]
		f.batches = f.batches[1:]
	}
	return batch, f.height, nil
}

func testPool() *Pool {
	return &Pool{
		Address:        common.HexToAddress("0x0000000000000000000000000000000000000001"),
		Token0:         testToken0,
		Token0Decimals: 18,
		Token1:         testToken1,
		Token1Decimals: 18,
		Fee:            500,
		TickSpacing:    10,
		SqrtPriceX96:   new(big.Int).Set(v3math.Q96),
		Tick:           0,
		Liquidity:      big.NewInt(1_000_000_000),
		LiquidityNet:   new(big.Int),
	}
}

func TestSimulateZeroAmount(t *testing.T) {
	p := testPool()
	source := &fakeSource{height: big.NewInt(100)}

	out, err := p.Simulate(context.Background(), testToken0, new(big.Int), source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Sign() != 0 {
		t.Fatalf("zero input produced output: %s", out)
	}
	if source.calls != 0 {
		t.Fatalf("zero input fetched ticks: %d calls", source.calls)
	}
}

func TestSimulateRejectsBadInputs(t *testing.T) {
	p := testPool()
	source := &fakeSource{height: big.NewInt(100)}

	if _, err := p.Simulate(context.Background(), testToken0, big.NewInt(-1), source); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
	if _, err := p.Simulate(context.Background(), testOther, big.NewInt(100), source); !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("expected ErrUnknownToken, got %v", err)
	}
}

func TestSimulateNoInitializedTicks(t *testing.T) {
	p := testPool()
	source := &fakeSource{height: big.NewInt(100)}

	_, err := p.Simulate(context.Background(), testToken0, big.NewInt(10_000), source)
	if !errors.Is(err, ErrNoInitializedTicks) {
		t.Fatalf("expected ErrNoInitializedTicks, got %v", err)
	}
}

func TestSimulateWithinSingleTick(t *testing.T) {
	p := testPool()
	amountIn := big.NewInt(10_000)

	// Swapping token1 in moves the price up toward tick 10; the input is far
	// too small to reach it.
	source := &fakeSource{
		height: big.NewInt(100),
		batches: [][]ticks.Data{
			{{Tick: 10, LiquidityNet: big.NewInt(-200_000_000), Initialized: true}},
		},
	}

	out, err := p.Simulate(context.Background(), testToken1, amountIn, source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Sign() <= 0 {
		t.Fatalf("output not positive: %s", out)
	}
	if out.Cmp(amountIn) >= 0 {
		t.Fatalf("output %s not less than input %s at near-unit price", out, amountIn)
	}
}

func TestSimulateWithinSingleTickToken0(t *testing.T) {
	p := testPool()
	amountIn := big.NewInt(10_000)

	// Swapping token0 in moves the price down toward tick -10; the input is
	// far too small to reach it, so the whole trade is one partial step.
	source := &fakeSource{
		height: big.NewInt(100),
		batches: [][]ticks.Data{
			{{Tick: -10, LiquidityNet: big.NewInt(200_000_000), Initialized: true}},
		},
	}

	out, err := p.Simulate(context.Background(), testToken0, amountIn, source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Sign() <= 0 {
		t.Fatalf("output not positive: %s", out)
	}
	if out.Cmp(amountIn) >= 0 {
		t.Fatalf("output %s not less than input %s at near-unit price", out, amountIn)
	}
	if p.Tick != 0 || p.SqrtPriceX96.Cmp(v3math.Q96) != 0 {
		t.Fatalf("read-only simulation moved the snapshot: tick=%d price=%s", p.Tick, p.SqrtPriceX96)
	}
}

func TestSimulateMutToken0PartialStep(t *testing.T) {
	p := testPool()
	amountIn := big.NewInt(10_000)

	source := &fakeSource{
		height: big.NewInt(100),
		batches: [][]ticks.Data{
			{{Tick: -10, LiquidityNet: big.NewInt(200_000_000), Initialized: true}},
		},
	}

	out, err := p.SimulateMut(context.Background(), testToken0, amountIn, source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Sign() <= 0 || out.Cmp(amountIn) >= 0 {
		t.Fatalf("output out of range: %s", out)
	}

	// The price ends strictly inside (tick -10, tick 0) and the working tick
	// resyncs to the floor of the new price.
	if p.SqrtPriceX96.Cmp(v3math.Q96) >= 0 {
		t.Fatalf("committed price did not move down: %s", p.SqrtPriceX96)
	}
	boundary, err := v3math.SqrtRatioAtTick(-10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.SqrtPriceX96.Cmp(boundary) <= 0 {
		t.Fatalf("committed price crossed the tick boundary: %s", p.SqrtPriceX96)
	}
	if p.Tick != -1 {
		t.Fatalf("committed tick: got %d, want -1", p.Tick)
	}
	if p.Liquidity.Int64() != 1_000_000_000 {
		t.Fatalf("liquidity changed without a crossing: %s", p.Liquidity)
	}
}

func TestSimulateDoesNotMutate(t *testing.T) {
	p := testPool()
	amountIn := big.NewInt(10_000)

	newSource := func() *fakeSource {
		return &fakeSource{
			height: big.NewInt(100),
			batches: [][]ticks.Data{
				{{Tick: 10, LiquidityNet: big.NewInt(-200_000_000), Initialized: true}},
			},
		}
	}

	priceBefore := p.SqrtPriceX96.String()
	liquidityBefore := p.Liquidity.String()
	tickBefore := p.Tick

	first, err := p.Simulate(context.Background(), testToken1, amountIn, newSource())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := p.Simulate(context.Background(), testToken1, amountIn, newSource())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Cmp(second) != 0 {
		t.Fatalf("repeated simulation differs: %s != %s", first, second)
	}
	if p.SqrtPriceX96.String() != priceBefore || p.Liquidity.String() != liquidityBefore || p.Tick != tickBefore {
		t.Fatalf("simulation mutated the snapshot")
	}
}

func TestSimulateMutCrossesTickAndCommits(t *testing.T) {
	p := testPool()

	// Reaching tick 10 from tick 0 needs roughly 250k of token1 at this
	// liquidity; 1m comfortably crosses it. Crossing upward applies the
	// recorded net directly: 1e9 - 2e8.
	amountIn := big.NewInt(1_000_000)
	source := &fakeSource{
		height: big.NewInt(100),
		batches: [][]ticks.Data{
			{{Tick: 10, LiquidityNet: big.NewInt(-200_000_000), Initialized: true}},
			{{Tick: v3math.MaxTick, LiquidityNet: new(big.Int), Initialized: false}},
		},
	}

	out, err := p.SimulateMut(context.Background(), testToken1, amountIn, source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Sign() <= 0 {
		t.Fatalf("output not positive: %s", out)
	}
	if p.Tick < 10 {
		t.Fatalf("committed tick %d did not cross the boundary", p.Tick)
	}
	if want := big.NewInt(800_000_000); p.Liquidity.Cmp(want) != 0 {
		t.Fatalf("committed liquidity: got %s, want %s", p.Liquidity, want)
	}
	if p.SqrtPriceX96.Cmp(v3math.Q96) <= 0 {
		t.Fatalf("committed price did not move up: %s", p.SqrtPriceX96)
	}
}

func TestSimulateMutChainsState(t *testing.T) {
	p := testPool()
	amountIn := big.NewInt(100_000)

	newBatches := func() [][]ticks.Data {
		return [][]ticks.Data{
			{{Tick: 10, LiquidityNet: big.NewInt(-200_000_000), Initialized: true}},
		}
	}

	first, err := p.SimulateMut(context.Background(), testToken1, amountIn, &fakeSource{height: big.NewInt(100), batches: newBatches()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := p.SimulateMut(context.Background(), testToken1, amountIn, &fakeSource{height: big.NewInt(100), batches: newBatches()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The second swap starts from the moved price, so it pays slightly more
	// token1 per token0 out.
	if second.Cmp(first) >= 0 {
		t.Fatalf("chained swap should yield less: %s >= %s", second, first)
	}
}

func TestSimulateLiquidityUnderflow(t *testing.T) {
	p := testPool()

	// Crossing tick -10 downward negates the recorded net; a net larger than
	// the active liquidity would drive it negative.
	amountIn := big.NewInt(1_000_000)
	source := &fakeSource{
		height: big.NewInt(100),
		batches: [][]ticks.Data{
			{{Tick: -10, LiquidityNet: big.NewInt(2_000_000_000), Initialized: true}},
		},
	}

	_, err := p.Simulate(context.Background(), testToken0, amountIn, source)
	if !errors.Is(err, ErrLiquidityUnderflow) {
		t.Fatalf("expected ErrLiquidityUnderflow, got %v", err)
	}
}

func TestSimulatePinsBlockAcrossRefills(t *testing.T) {
	p := testPool()

	amountIn := big.NewInt(1_000_000)
	source := &fakeSource{
		height: big.NewInt(100),
		batches: [][]ticks.Data{
			{{Tick: 10, LiquidityNet: big.NewInt(-200_000_000), Initialized: true}},
			{{Tick: v3math.MaxTick, LiquidityNet: new(big.Int), Initialized: false}},
		},
	}

	if _, err := p.Simulate(context.Background(), testToken1, amountIn, source); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if source.calls < 2 {
		t.Fatalf("expected at least two batches, got %d", source.calls)
	}
	if source.blocks[0] != nil {
		t.Fatalf("first batch should pin the latest block, got %s", source.blocks[0])
	}
	for _, block := range source.blocks[1:] {
		if block == nil || block.Cmp(big.NewInt(100)) != 0 {
			t.Fatalf("refill not pinned to block 100: %v", block)
		}
	}
}
