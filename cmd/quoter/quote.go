package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quoteScope/internal/chain"
	"quoteScope/internal/config"
	"quoteScope/internal/pool"
	"quoteScope/internal/provider"
	"quoteScope/internal/storage"
	"quoteScope/internal/storage/postgres"
	"quoteScope/internal/watch"
)

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	poolAddress, err := parseAddress(cfg.Pool, "pool address")
	if err != nil {
		return err
	}
	tokenIn, err := parseOptionalAddress(cfg.TokenIn, "token-in address")
	if err != nil {
		return err
	}
	amounts, err := parseAmounts(cfg.Amounts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	chainID, err := chainClient.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	blockNumber, err := chainClient.LatestBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("get latest block: %w", err)
	}

	source := provider.New(chainClient, logger)

	snapshot, err := pool.New(ctx, poolAddress, source)
	if err != nil {
		return fmt.Errorf("sync pool: %w", err)
	}
	if tokenIn == (common.Address{}) {
		tokenIn = snapshot.Token0
	}

	price, err := snapshot.Price(tokenIn)
	if err != nil {
		return fmt.Errorf("compute price: %w", err)
	}

	logger.Info("pool synced",
		zap.String("pool", poolAddress.Hex()),
		zap.String("token0", snapshot.Token0.Hex()),
		zap.String("token1", snapshot.Token1.Hex()),
		zap.Uint32("fee_ppm", snapshot.Fee),
		zap.Int32("tick", snapshot.Tick),
		zap.String("liquidity", snapshot.Liquidity.String()),
		zap.Float64("price", price),
		zap.Uint64("block_number", blockNumber),
	)

	records, err := watch.QuoteAmounts(ctx, snapshot, tokenIn, amounts, cfg.Window, source, chainID.Uint64(), blockNumber)
	if err != nil {
		return err
	}

	for _, record := range records {
		fmt.Printf("%s %s -> %s %s\n", record.AmountIn, record.TokenIn, record.AmountOut, record.TokenOut)
	}

	sinks, closeSinks, err := buildSinks(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSinks()

	for _, sink := range sinks {
		if err := sink.PutQuoteBatch(records); err != nil {
			return fmt.Errorf("store quotes: %w", err)
		}
	}

	return nil
}

func buildSinks(ctx context.Context, cfg config.Config) ([]storage.Storage, func(), error) {
	sinks := make([]storage.Storage, 0, 2)
	closers := make([]func(), 0, 1)

	if cfg.Out != "" {
		sinks = append(sinks, storage.NewJsonlStorage(cfg.Out))
	}
	if cfg.PgDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PgDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		sinks = append(sinks, store)
		closers = append(closers, store.Close)
	}

	closeAll := func() {
		for _, closeFn := range closers {
			closeFn()
		}
	}
	return sinks, closeAll, nil
}
