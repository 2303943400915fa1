package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quoteScope/internal/chain"
	"quoteScope/internal/config"
	"quoteScope/internal/dex"
	"quoteScope/internal/provider"
	"quoteScope/internal/watch"
)

func runWatch(cmd *cobra.Command, _ []string) error {
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

	source := provider.New(chainClient, logger)

	decoder, err := dex.NewSwapDecoder()
	if err != nil {
		return err
	}

	sinks, closeSinks, err := buildSinks(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSinks()
	if len(sinks) == 0 {
		return fmt.Errorf("at least one sink is required (out or pg-dsn)")
	}

	watcher := watch.NewWatcher(watch.RunConfig{
		Pool:              poolAddress,
		TokenIn:           tokenIn,
		Amounts:           amounts,
		Window:            cfg.Window,
		FromBlock:         cfg.FromBlock,
		PollInterval:      cfg.PollInterval,
		BatchSize:         cfg.BatchSize,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
	}, chainClient, source, source, decoder, sinks, logger)

	logger.Info("watch start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("pool", cfg.Pool),
		zap.Int("amounts", len(amounts)),
		zap.Uint64("from", cfg.FromBlock),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.String("out", cfg.Out),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
	)

	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
