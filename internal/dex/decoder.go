package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// SwapEvent is a decoded V3 Swap log. Amount0 and Amount1 are the signed
// amounts from the pool's perspective and are decoded independently.
type SwapEvent struct {
	Sender       common.Address
	Recipient    common.Address
	Amount0      *big.Int
	Amount1      *big.Int
	SqrtPriceX96 *big.Int
	Liquidity    *big.Int
	Tick         int32
}

// SwapDecoder decodes V3 pool Swap events.
type SwapDecoder struct {
	event abi.Event
}

// NewSwapDecoder builds a decoder from the pool ABI.
func NewSwapDecoder() (*SwapDecoder, error) {
	poolABI, err := V3PoolABI()
	if err != nil {
		return nil, err
	}
	return &SwapDecoder{event: poolABI.Events["Swap"]}, nil
}

// Topic0 returns the Swap event signature hash.
func (d *SwapDecoder) Topic0() common.Hash {
	return d.event.ID
}

// CanDecode checks whether a log carries the Swap signature.
func (d *SwapDecoder) CanDecode(log types.Log) bool {
	return len(log.Topics) > 0 && log.Topics[0] == d.event.ID
}

// DecodeSwap converts a raw Swap log into its typed form.
func (d *SwapDecoder) DecodeSwap(log types.Log) (SwapEvent, error) {
	if len(log.Topics) != 3 {
		return SwapEvent{}, fmt.Errorf("expected 3 topics, got %d", len(log.Topics))
	}
	if log.Topics[0] != d.event.ID {
		return SwapEvent{}, fmt.Errorf("unexpected topic0: %s", log.Topics[0].Hex())
	}

	values, err := d.event.Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return SwapEvent{}, fmt.Errorf("unpack swap data: %w", err)
	}
	if len(values) != 5 {
		return SwapEvent{}, fmt.Errorf("unexpected swap values: %d", len(values))
	}

	amount0, err := asBigInt(values[0])
	if err != nil {
		return SwapEvent{}, fmt.Errorf("amount0: %w", err)
	}
	amount1, err := asBigInt(values[1])
	if err != nil {
		return SwapEvent{}, fmt.Errorf("amount1: %w", err)
	}
	sqrtPrice, err := asBigInt(values[2])
	if err != nil {
		return SwapEvent{}, fmt.Errorf("sqrtPriceX96: %w", err)
	}
	liquidity, err := asBigInt(values[3])
	if err != nil {
		return SwapEvent{}, fmt.Errorf("liquidity: %w", err)
	}
	tickInt, err := asBigInt(values[4])
	if err != nil {
		return SwapEvent{}, fmt.Errorf("tick: %w", err)
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return SwapEvent{}, fmt.Errorf("tick: %w", err)
	}

	return SwapEvent{
		Sender:       common.BytesToAddress(log.Topics[1].Bytes()),
		Recipient:    common.BytesToAddress(log.Topics[2].Bytes()),
		Amount0:      amount0,
		Amount1:      amount1,
		SqrtPriceX96: sqrtPrice,
		Liquidity:    liquidity,
		Tick:         tick,
	}, nil
}
