package watch

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"quoteScope/internal/chain"
	"quoteScope/internal/dex"
	"quoteScope/internal/pool"
	"quoteScope/internal/storage"
)

// RunConfig holds runtime settings for the watcher.
type RunConfig struct {
	Pool              common.Address
	TokenIn           common.Address
	Amounts           []*big.Int
	Window            uint16
	FromBlock         uint64
	PollInterval      time.Duration
	BatchSize         uint64
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// Watcher follows Swap events on one pool, keeps a snapshot in sync, and
// re-quotes a fixed set of input amounts after every trade.
type Watcher struct {
	cfg        RunConfig
	chain      *chain.Client
	reader     pool.StateReader
	source     pool.TickSource
	decoder    *dex.SwapDecoder
	sinks      []storage.Storage
	logger     *zap.Logger
	seen       map[string]struct{}
	checkpoint *CheckpointStore
}

// NewWatcher builds a Watcher with its dependencies.
func NewWatcher(
	cfg RunConfig,
	chainClient *chain.Client,
	reader pool.StateReader,
	source pool.TickSource,
	decoder *dex.SwapDecoder,
	sinks []storage.Storage,
	logger *zap.Logger,
) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Window == 0 {
		cfg.Window = pool.DefaultTickWindow
	}
	return &Watcher{
		cfg:        cfg,
		chain:      chainClient,
		reader:     reader,
		source:     source,
		decoder:    decoder,
		sinks:      sinks,
		logger:     logger,
		seen:       make(map[string]struct{}),
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.Pool.Hex(), cfg.CheckpointEnabled),
	}
}

// Run executes the watch loop until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if w.chain == nil {
		return fmt.Errorf("chain client is nil")
	}
	if w.decoder == nil {
		return fmt.Errorf("swap decoder is nil")
	}
	if w.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if w.cfg.Pool == (common.Address{}) {
		return fmt.Errorf("pool address is required")
	}
	if w.cfg.PollInterval <= 0 {
		w.cfg.PollInterval = 12 * time.Second
	}

	chainID, err := w.chain.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}
	chainIDValue := chainID.Uint64()

	snapshot, err := pool.New(ctx, w.cfg.Pool, w.reader)
	if err != nil {
		return fmt.Errorf("sync pool: %w", err)
	}
	if w.cfg.TokenIn == (common.Address{}) {
		w.cfg.TokenIn = snapshot.Token0
	}
	if w.cfg.TokenIn != snapshot.Token0 && w.cfg.TokenIn != snapshot.Token1 {
		return fmt.Errorf("token %s is not in pool %s", w.cfg.TokenIn.Hex(), w.cfg.Pool.Hex())
	}

	w.logger.Info("watch pool",
		zap.String("pool", w.cfg.Pool.Hex()),
		zap.String("token0", snapshot.Token0.Hex()),
		zap.String("token1", snapshot.Token1.Hex()),
		zap.Uint32("fee_ppm", snapshot.Fee),
		zap.Int32("tick", snapshot.Tick),
	)

	from := w.cfg.FromBlock
	if from == 0 {
		latest, err := w.chain.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}
		from = latest
	}

	if w.checkpoint != nil {
		cp, ok, err := w.checkpoint.Load()
		if err != nil {
			return err
		}
		if ok && cp.LastProcessedBlock >= from {
			from = cp.LastProcessedBlock + 1
			w.logger.Info("resume from checkpoint", zap.Uint64("last_processed", cp.LastProcessedBlock), zap.Uint64("from", from))
		}
	}

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		latest, err := w.latestBlockWithRetry(ctx)
		if err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}

		if latest >= from {
			next, err := w.processRange(ctx, snapshot, chainIDValue, from, latest)
			if err != nil {
				return err
			}
			from = next
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// processRange walks [from, to] in batches, applies each decoded Swap to the
// snapshot, and re-quotes after every event. Returns the next block to start
// from.
func (w *Watcher) processRange(ctx context.Context, snapshot *pool.Pool, chainID, from, to uint64) (uint64, error) {
	ranges, err := SplitRange(from, to, w.cfg.BatchSize)
	if err != nil {
		return from, err
	}

	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return blockRange.From, ctx.Err()
		default:
		}

		logs, err := w.filterLogsWithRetry(ctx, blockRange.From, blockRange.To)
		if err != nil {
			return blockRange.From, fmt.Errorf("filter logs: %w", err)
		}

		for _, log := range logs {
			if !w.decoder.CanDecode(log) || w.isDuplicate(log) {
				continue
			}

			event, err := w.decoder.DecodeSwap(log)
			if err != nil {
				w.logger.Warn("skip undecodable swap log",
					zap.Error(err),
					zap.Uint64("block_number", log.BlockNumber),
					zap.String("tx_hash", log.TxHash.Hex()),
				)
				continue
			}

			if err := snapshot.ApplyTradeEvent(ctx, pool.TradeEvent{
				Amount0:      event.Amount0,
				Amount1:      event.Amount1,
				SqrtPriceX96: event.SqrtPriceX96,
				Liquidity:    event.Liquidity,
				Tick:         event.Tick,
			}, w.reader); err != nil {
				return blockRange.From, fmt.Errorf("apply trade event: %w", err)
			}

			blockTime, err := w.chain.BlockTimestamp(ctx, log.BlockNumber)
			if err != nil {
				w.logger.Warn("block timestamp fetch failed", zap.Error(err), zap.Uint64("block_number", log.BlockNumber))
			}

			w.logger.Info("swap applied",
				zap.Uint64("block_number", log.BlockNumber),
				zap.Uint64("block_time", blockTime),
				zap.String("tx_hash", log.TxHash.Hex()),
				zap.String("amount0", event.Amount0.String()),
				zap.String("amount1", event.Amount1.String()),
				zap.Int32("tick", event.Tick),
			)

			records, err := QuoteAmounts(ctx, snapshot, w.cfg.TokenIn, w.cfg.Amounts, w.cfg.Window, w.source, chainID, log.BlockNumber)
			if err != nil {
				return blockRange.From, fmt.Errorf("quote after swap: %w", err)
			}
			for _, sink := range w.sinks {
				if err := sink.PutQuoteBatch(records); err != nil {
					return blockRange.From, fmt.Errorf("store quotes: %w", err)
				}
			}
		}

		if w.checkpoint != nil {
			if err := w.checkpoint.Save(blockRange.To); err != nil {
				return blockRange.From, err
			}
		}

		w.logger.Info("batch complete", zap.Int("logs", len(logs)), zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))
	}

	return to + 1, nil
}

func (w *Watcher) latestBlockWithRetry(ctx context.Context) (uint64, error) {
	var latest uint64
	err := withRetry(ctx, w.cfg.MaxRetries, w.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		latest, err = w.chain.LatestBlockNumber(ctx)
		if err != nil {
			w.logger.Warn("latest block fetch failed", zap.Error(err))
		}
		return err
	})
	return latest, err
}

func (w *Watcher) filterLogsWithRetry(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
	var logs []types.Log
	err := withRetry(ctx, w.cfg.MaxRetries, w.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		logs, err = w.chain.FilterLogs(ctx, fromBlock, toBlock, w.cfg.Pool, w.decoder.Topic0())
		if err != nil {
			w.logger.Warn("filter logs failed", zap.Error(err), zap.Uint64("from", fromBlock), zap.Uint64("to", toBlock))
		}
		return err
	})
	return logs, err
}

func (w *Watcher) isDuplicate(log types.Log) bool {
	id := fmt.Sprintf("%d:%s:%d", log.BlockNumber, log.TxHash.Hex(), log.Index)
	if _, ok := w.seen[id]; ok {
		return true
	}
	w.seen[id] = struct{}{}
	return false
}
